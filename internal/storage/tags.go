package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type TagRepo struct{ db *gorm.DB }

func NewTagRepo(db *gorm.DB) *TagRepo { return &TagRepo{db: db} }

// List 返回全部标签名，按名称排序。
func (r *TagRepo) List(ctx context.Context) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).Model(&Tag{}).Order("name").Pluck("name", &names).Error
	return names, translate(err)
}

// FindOrCreate 按名称精确匹配查找标签，不存在时创建；输入中的重复名称合并为一个。
// 并发创建同名标签时唯一索引冲突后重新读取。
func (r *TagRepo) FindOrCreate(ctx context.Context, names []string) ([]Tag, error) {
	out := make([]Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		t, err := r.findOrCreateOne(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TagRepo) findOrCreateOne(ctx context.Context, name string) (Tag, error) {
	var t Tag
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return t, translate(err)
	}
	t = Tag{Name: name}
	err = translate(r.db.WithContext(ctx).Create(&t).Error)
	if errors.Is(err, ErrDuplicate) {
		t = Tag{}
		err = r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error
		return t, translate(err)
	}
	return t, err
}
