package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepo struct{ db *gorm.DB }

func NewCommentRepo(db *gorm.DB) *CommentRepo { return &CommentRepo{db: db} }

func (r *CommentRepo) Create(ctx context.Context, c *Comment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error)
}

func (r *CommentRepo) FindByID(ctx context.Context, id uint64) (*Comment, error) {
	var c Comment
	if err := r.db.WithContext(ctx).Preload("Author", omitPassword).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListByArticle 返回文章下的全部评论（新到旧）。
func (r *CommentRepo) ListByArticle(ctx context.Context, articleID uint64) ([]Comment, error) {
	list := []Comment{}
	err := r.db.WithContext(ctx).
		Preload("Author", omitPassword).
		Where("article_id = ?", articleID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	return list, translate(err)
}

func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&Comment{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
