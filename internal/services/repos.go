package services

import (
	"context"

	"realworld/internal/storage"
)

// 服务只依赖以下窄接口；storage 包中的 *XxxRepo 为生产实现，测试使用内存实现。

type UserRepository interface {
	Create(ctx context.Context, u *storage.User) error
	FindByID(ctx context.Context, id uint64) (*storage.User, error)
	FindByEmail(ctx context.Context, email string, withPassword bool) (*storage.User, error)
	FindByUsername(ctx context.Context, username string) (*storage.User, error)
	Update(ctx context.Context, id uint64, fields map[string]any) error
}

type FollowRepository interface {
	Add(ctx context.Context, followerID, followingID uint64) error
	Remove(ctx context.Context, followerID, followingID uint64) error
	Exists(ctx context.Context, followerID, followingID uint64) (bool, error)
	FollowingIDs(ctx context.Context, followerID uint64) ([]uint64, error)
	FollowingAmong(ctx context.Context, followerID uint64, candidates []uint64) (map[uint64]bool, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, userID, articleID uint64) error
	Remove(ctx context.Context, userID, articleID uint64) error
	CountByArticles(ctx context.Context, articleIDs []uint64) (map[uint64]int64, error)
	FavoritedAmong(ctx context.Context, userID uint64, articleIDs []uint64) (map[uint64]bool, error)
}

type TagRepository interface {
	List(ctx context.Context) ([]string, error)
	FindOrCreate(ctx context.Context, names []string) ([]storage.Tag, error)
}

type ArticleRepository interface {
	Create(ctx context.Context, a *storage.Article) error
	FindBySlug(ctx context.Context, slug string) (*storage.Article, error)
	Update(ctx context.Context, a *storage.Article, tags []storage.Tag) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q storage.ArticleQuery) ([]storage.Article, int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *storage.Comment) error
	FindByID(ctx context.Context, id uint64) (*storage.Comment, error)
	ListByArticle(ctx context.Context, articleID uint64) ([]storage.Comment, error)
	Delete(ctx context.Context, id uint64) error
}
