package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleQuery 描述文章列表的过滤与分页条件。
// AuthorIDs 为 nil 表示不按作者过滤；非 nil 的空切片不会匹配任何文章。
type ArticleQuery struct {
	Tag         string
	AuthorIDs   []uint64
	FavoritedBy uint64
	Limit       int
	Offset      int
}

type ArticleRepo struct{ db *gorm.DB }

func NewArticleRepo(db *gorm.DB) *ArticleRepo { return &ArticleRepo{db: db} }

// Create 写入文章及其标签关联；slug 冲突返回 ErrDuplicate。
func (r *ArticleRepo) Create(ctx context.Context, a *Article) error {
	return translate(r.db.WithContext(ctx).Omit("Author").Create(a).Error)
}

func (r *ArticleRepo) FindBySlug(ctx context.Context, slug string) (*Article, error) {
	var a Article
	err := r.db.WithContext(ctx).
		Preload("Author", omitPassword).
		Preload("Tags").
		Where("slug = ?", slug).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// Update 保存文章字段；tags 为 nil 时保留原标签，否则整体替换。
func (r *ArticleRepo) Update(ctx context.Context, a *Article, tags []Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(a).Error; err != nil {
			return err
		}
		if tags == nil {
			return nil
		}
		assoc := tx.Model(a).Association("Tags")
		if len(tags) == 0 {
			if err := assoc.Clear(); err != nil {
				return err
			}
		} else if err := assoc.Replace(tags); err != nil {
			return err
		}
		a.Tags = tags
		return nil
	})
	return translate(err)
}

// Delete 在一个事务内删除文章及其收藏、评论与标签关联。
func (r *ArticleRepo) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&Article{ID: id}).Association("Tags").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&Article{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return translate(err)
}

// List 按条件分页读取文章（新到旧），同时返回分页前的总数。
func (r *ArticleRepo) List(ctx context.Context, q ArticleQuery) ([]Article, int64, error) {
	base := r.db.WithContext(ctx).Model(&Article{})
	if q.Tag != "" {
		sub := r.db.Table("article_tags").
			Select("article_tags.article_id").
			Joins("JOIN tags ON tags.id = article_tags.tag_id").
			Where("tags.name = ?", q.Tag)
		base = base.Where("articles.id IN (?)", sub)
	}
	if q.AuthorIDs != nil {
		if len(q.AuthorIDs) == 0 {
			return []Article{}, 0, nil
		}
		base = base.Where("articles.author_id IN ?", q.AuthorIDs)
	}
	if q.FavoritedBy != 0 {
		sub := r.db.Model(&Favorite{}).Select("article_id").Where("user_id = ?", q.FavoritedBy)
		base = base.Where("articles.id IN (?)", sub)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	list := []Article{}
	if total == 0 {
		return list, 0, nil
	}
	page := base.Preload("Author", omitPassword).
		Preload("Tags").
		Order("articles.created_at DESC").
		Order("articles.id DESC").
		Offset(q.Offset)
	if q.Limit > 0 {
		page = page.Limit(q.Limit)
	}
	if err := page.Find(&list).Error; err != nil {
		return nil, 0, translate(err)
	}
	return list, total, nil
}

func omitPassword(db *gorm.DB) *gorm.DB { return db.Omit("password") }
