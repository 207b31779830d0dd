package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepo 维护收藏边，并提供按页批量统计。
type FavoriteRepo struct{ db *gorm.DB }

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

func (r *FavoriteRepo) Add(ctx context.Context, userID, articleID uint64) error {
	f := Favorite{UserID: userID, ArticleID: articleID}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&f).Error
	if err = translate(err); errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID, articleID uint64) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&Favorite{}).Error
	return translate(err)
}

// CountByArticles 一次查询返回每篇文章的收藏数；没有收藏的文章不出现在结果中。
func (r *FavoriteRepo) CountByArticles(ctx context.Context, articleIDs []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(articleIDs))
	if len(articleIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ArticleID uint64
		N         int64
	}
	err := r.db.WithContext(ctx).Model(&Favorite{}).
		Select("article_id, COUNT(*) AS n").
		Where("article_id IN ?", articleIDs).
		Group("article_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, row := range rows {
		out[row.ArticleID] = row.N
	}
	return out, nil
}

// FavoritedAmong 返回 articleIDs 中被 userID 收藏的子集。
func (r *FavoriteRepo) FavoritedAmong(ctx context.Context, userID uint64, articleIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(articleIDs))
	if userID == 0 || len(articleIDs) == 0 {
		return out, nil
	}
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&Favorite{}).
		Where("user_id = ? AND article_id IN ?", userID, articleIDs).
		Pluck("article_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
