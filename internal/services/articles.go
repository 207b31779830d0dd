package services

// 文章服务：列表/订阅流、详情、发布、修改、删除与收藏。
// 列表结果按页批量补充收藏数、是否收藏与是否关注作者，避免逐条查询。

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"realworld/internal/storage"
	"realworld/internal/utils"
)

// slug 冲突时的最大尝试次数（首次之后追加随机后缀）。
const maxSlugAttempts = 5

var errSlugExhausted = errors.New("could not allocate a unique slug")

type ArticleService struct {
	articles  ArticleRepository
	users     UserRepository
	tags      TagRepository
	favorites FavoriteRepository
	follows   FollowRepository
	now       func() time.Time
}

func NewArticleService(articles ArticleRepository, users UserRepository, tags TagRepository, favorites FavoriteRepository, follows FollowRepository) *ArticleService {
	return &ArticleService{articles: articles, users: users, tags: tags, favorites: favorites, follows: follows, now: time.Now}
}

// SetClock 仅用于测试，替换内部时间函数。
func (s *ArticleService) SetClock(clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}
	s.now = clock
}

// ListArticlesInput 为列表过滤条件；Author/FavoritedBy 为用户名。
type ListArticlesInput struct {
	Tag         string
	Author      string
	FavoritedBy string
	Limit       int
	Offset      int
}

type NewArticle struct {
	Title       string
	Description string
	Body        string
	TagList     []string
}

// ArticleUpdate 为部分更新：nil 字段保持不变；TagList 非 nil 时整体替换标签。
type ArticleUpdate struct {
	Title       *string
	Description *string
	Body        *string
	TagList     *[]string
}

// List 返回过滤后的文章页（新到旧）；用户名过滤条件无法解析时返回空页。
func (s *ArticleService) List(ctx context.Context, in ListArticlesInput, viewerID uint64) (ArticlePage, error) {
	q := storage.ArticleQuery{Tag: in.Tag, Limit: in.Limit, Offset: in.Offset}
	if in.Author != "" {
		u, err := s.users.FindByUsername(ctx, in.Author)
		if errors.Is(err, ErrNotFound) {
			return emptyPage(), nil
		}
		if err != nil {
			return ArticlePage{}, err
		}
		q.AuthorIDs = []uint64{u.ID}
	}
	if in.FavoritedBy != "" {
		u, err := s.users.FindByUsername(ctx, in.FavoritedBy)
		if errors.Is(err, ErrNotFound) {
			return emptyPage(), nil
		}
		if err != nil {
			return ArticlePage{}, err
		}
		q.FavoritedBy = u.ID
	}
	return s.page(ctx, q, viewerID)
}

// Feed 返回观察者关注的作者发布的文章；未关注任何人时返回空页。
func (s *ArticleService) Feed(ctx context.Context, viewerID uint64, limit, offset int) (ArticlePage, error) {
	ids, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return ArticlePage{}, err
	}
	if len(ids) == 0 {
		return emptyPage(), nil
	}
	return s.page(ctx, storage.ArticleQuery{AuthorIDs: ids, Limit: limit, Offset: offset}, viewerID)
}

func (s *ArticleService) Get(ctx context.Context, slug string, viewerID uint64) (ArticleView, error) {
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return ArticleView{}, err
	}
	return s.one(ctx, a, viewerID)
}

// Create 发布文章：标签按名称查找或创建，slug 冲突时重新生成。
func (s *ArticleService) Create(ctx context.Context, authorID uint64, in NewArticle) (ArticleView, error) {
	if strings.TrimSpace(in.Title) == "" {
		return ArticleView{}, blank("title")
	}
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return ArticleView{}, err
	}
	tags, err := s.tags.FindOrCreate(ctx, in.TagList)
	if err != nil {
		return ArticleView{}, fmt.Errorf("resolve tags: %w", err)
	}
	now := s.now()
	a := &storage.Article{
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		AuthorID:    author.ID,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.withSlug(in.Title, now, func(slug string) error {
		a.ID = 0
		a.Slug = slug
		return s.articles.Create(ctx, a)
	})
	if err != nil {
		return ArticleView{}, err
	}
	a.Author = *author
	return s.one(ctx, a, authorID)
}

// Update 仅作者可修改；标题变化时重新生成 slug。非作者视为不存在。
func (s *ArticleService) Update(ctx context.Context, slug string, userID uint64, in ArticleUpdate) (ArticleView, error) {
	a, err := s.owned(ctx, slug, userID)
	if err != nil {
		return ArticleView{}, err
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.Body != nil {
		a.Body = *in.Body
	}
	retitle := in.Title != nil && *in.Title != a.Title
	if retitle && strings.TrimSpace(*in.Title) == "" {
		return ArticleView{}, blank("title")
	}
	var tags []storage.Tag
	if in.TagList != nil {
		if tags, err = s.tags.FindOrCreate(ctx, *in.TagList); err != nil {
			return ArticleView{}, fmt.Errorf("resolve tags: %w", err)
		}
		if tags == nil {
			tags = []storage.Tag{}
		}
	}
	if retitle {
		a.Title = *in.Title
		err = s.withSlug(a.Title, s.now(), func(slug string) error {
			a.Slug = slug
			return s.articles.Update(ctx, a, tags)
		})
	} else {
		err = s.articles.Update(ctx, a, tags)
	}
	if err != nil {
		return ArticleView{}, err
	}
	return s.one(ctx, a, userID)
}

// Delete 仅作者可删除；评论、收藏与标签关联在同一事务中移除。
func (s *ArticleService) Delete(ctx context.Context, slug string, userID uint64) error {
	a, err := s.owned(ctx, slug, userID)
	if err != nil {
		return err
	}
	return s.articles.Delete(ctx, a.ID)
}

// Favorite 收藏文章；重复收藏无副作用。
func (s *ArticleService) Favorite(ctx context.Context, slug string, userID uint64) (ArticleView, error) {
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return ArticleView{}, err
	}
	if err := s.favorites.Add(ctx, userID, a.ID); err != nil {
		return ArticleView{}, fmt.Errorf("favorite: %w", err)
	}
	return s.one(ctx, a, userID)
}

// Unfavorite 取消收藏；未收藏时同样成功。
func (s *ArticleService) Unfavorite(ctx context.Context, slug string, userID uint64) (ArticleView, error) {
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return ArticleView{}, err
	}
	if err := s.favorites.Remove(ctx, userID, a.ID); err != nil {
		return ArticleView{}, fmt.Errorf("unfavorite: %w", err)
	}
	return s.one(ctx, a, userID)
}

func (s *ArticleService) owned(ctx context.Context, slug string, userID uint64) (*storage.Article, error) {
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != userID {
		return nil, ErrNotFound
	}
	return a, nil
}

// withSlug 依次尝试候选 slug，直到 write 不再返回唯一键冲突。
func (s *ArticleService) withSlug(title string, at time.Time, write func(slug string) error) error {
	base := utils.Slugify(title, at)
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			suffix, err := utils.RandLowerString(6)
			if err != nil {
				return err
			}
			candidate = base + "-" + suffix
		}
		err := write(candidate)
		if !errors.Is(err, storage.ErrDuplicate) {
			return err
		}
	}
	return errSlugExhausted
}

func (s *ArticleService) page(ctx context.Context, q storage.ArticleQuery, viewerID uint64) (ArticlePage, error) {
	list, total, err := s.articles.List(ctx, q)
	if err != nil {
		return ArticlePage{}, err
	}
	views, err := s.annotate(ctx, list, viewerID)
	if err != nil {
		return ArticlePage{}, err
	}
	return ArticlePage{Articles: views, Count: total}, nil
}

func (s *ArticleService) one(ctx context.Context, a *storage.Article, viewerID uint64) (ArticleView, error) {
	views, err := s.annotate(ctx, []storage.Article{*a}, viewerID)
	if err != nil {
		return ArticleView{}, err
	}
	return views[0], nil
}

// annotate 为一页文章补充 favoritesCount、favorited 与 author.following，
// 每页固定三次查询（匿名观察者时后两次直接返回空集）。
func (s *ArticleService) annotate(ctx context.Context, list []storage.Article, viewerID uint64) ([]ArticleView, error) {
	views := make([]ArticleView, 0, len(list))
	if len(list) == 0 {
		return views, nil
	}
	ids := make([]uint64, 0, len(list))
	authorIDs := make([]uint64, 0, len(list))
	for i := range list {
		ids = append(ids, list[i].ID)
		authorIDs = append(authorIDs, list[i].AuthorID)
	}
	counts, err := s.favorites.CountByArticles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	favorited, err := s.favorites.FavoritedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("load favorited: %w", err)
	}
	following, err := s.follows.FollowingAmong(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load following: %w", err)
	}
	for i := range list {
		a := &list[i]
		views = append(views, NewArticleView(a, favorited[a.ID], counts[a.ID], following[a.AuthorID]))
	}
	return views, nil
}

func emptyPage() ArticlePage {
	return ArticlePage{Articles: []ArticleView{}, Count: 0}
}
