package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"realworld/internal/storage"
)

// CommentService 管理文章评论；评论只能通过其所属文章的 slug 访问。
type CommentService struct {
	comments CommentRepository
	articles ArticleRepository
	users    UserRepository
	follows  FollowRepository
	now      func() time.Time
}

func NewCommentService(comments CommentRepository, articles ArticleRepository, users UserRepository, follows FollowRepository) *CommentService {
	return &CommentService{comments: comments, articles: articles, users: users, follows: follows, now: time.Now}
}

// SetClock 仅用于测试，替换内部时间函数。
func (s *CommentService) SetClock(clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}
	s.now = clock
}

func (s *CommentService) Create(ctx context.Context, slug string, authorID uint64, body string) (CommentView, error) {
	if strings.TrimSpace(body) == "" {
		return CommentView{}, blank("body")
	}
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return CommentView{}, err
	}
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return CommentView{}, err
	}
	now := s.now()
	c := &storage.Comment{Body: body, ArticleID: a.ID, AuthorID: author.ID, CreatedAt: now, UpdatedAt: now}
	if err := s.comments.Create(ctx, c); err != nil {
		return CommentView{}, fmt.Errorf("create comment: %w", err)
	}
	c.Author = *author
	following, err := s.follows.FollowingAmong(ctx, authorID, []uint64{authorID})
	if err != nil {
		return CommentView{}, err
	}
	return NewCommentView(c, following[authorID]), nil
}

// List 返回文章评论（新到旧）；文章不存在时返回 ErrNotFound。
func (s *CommentService) List(ctx context.Context, slug string, viewerID uint64) ([]CommentView, error) {
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	list, err := s.comments.ListByArticle(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	authorIDs := make([]uint64, 0, len(list))
	for i := range list {
		authorIDs = append(authorIDs, list[i].AuthorID)
	}
	following, err := s.follows.FollowingAmong(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}
	views := make([]CommentView, 0, len(list))
	for i := range list {
		views = append(views, NewCommentView(&list[i], following[list[i].AuthorID]))
	}
	return views, nil
}

// Delete 要求评论存在、属于调用方且属于 slug 指定的文章；任一条件不满足均返回 ErrNotFound。
func (s *CommentService) Delete(ctx context.Context, slug string, commentID, userID uint64) error {
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.ArticleID != a.ID || c.AuthorID != userID {
		return ErrNotFound
	}
	return s.comments.Delete(ctx, c.ID)
}
