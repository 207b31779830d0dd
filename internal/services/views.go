package services

import (
	"sort"
	"time"

	"realworld/internal/storage"
)

// 以下为对外响应视图；映射函数均为纯函数，观察者相关的状态由调用方显式传入。

type UserView struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type ProfileView struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type ArticleView struct {
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Body           string      `json:"body"`
	TagList        []string    `json:"tagList"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	Favorited      bool        `json:"favorited"`
	FavoritesCount int64       `json:"favoritesCount"`
	Author         ProfileView `json:"author"`
}

type CommentView struct {
	ID        uint64      `json:"id"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Author    ProfileView `json:"author"`
}

// ArticlePage 是文章列表响应；Count 为分页前的总数。
type ArticlePage struct {
	Articles []ArticleView `json:"articles"`
	Count    int64         `json:"articlesCount"`
}

func NewUserView(u *storage.User, token string) UserView {
	return UserView{Email: u.Email, Token: token, Username: u.Username, Bio: u.Bio, Image: u.Image}
}

func NewProfileView(u *storage.User, following bool) ProfileView {
	return ProfileView{Username: u.Username, Bio: u.Bio, Image: u.Image, Following: following}
}

// NewArticleView 组装文章视图，tagList 按名称排序。
func NewArticleView(a *storage.Article, favorited bool, favoritesCount int64, following bool) ArticleView {
	tags := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		tags = append(tags, t.Name)
	}
	sort.Strings(tags)
	return ArticleView{
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		TagList:        tags,
		CreatedAt:      a.CreatedAt.UTC(),
		UpdatedAt:      a.UpdatedAt.UTC(),
		Favorited:      favorited,
		FavoritesCount: favoritesCount,
		Author:         NewProfileView(&a.Author, following),
	}
}

func NewCommentView(c *storage.Comment, following bool) CommentView {
	return CommentView{
		ID:        c.ID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
		Author:    NewProfileView(&c.Author, following),
	}
}
