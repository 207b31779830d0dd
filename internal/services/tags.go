package services

import (
	"context"

	"realworld/internal/storage"
)

type TagService struct{ tags TagRepository }

func NewTagService(tags TagRepository) *TagService { return &TagService{tags: tags} }

// List 返回全部标签名（按名称排序）。
func (s *TagService) List(ctx context.Context) ([]string, error) {
	return s.tags.List(ctx)
}

func (s *TagService) FindOrCreate(ctx context.Context, names []string) ([]storage.Tag, error) {
	return s.tags.FindOrCreate(ctx, names)
}
