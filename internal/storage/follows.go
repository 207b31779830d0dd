package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepo 维护关注边；插入与删除均幂等。
type FollowRepo struct{ db *gorm.DB }

func NewFollowRepo(db *gorm.DB) *FollowRepo { return &FollowRepo{db: db} }

// Add 写入关注边；并发重复请求由唯一索引兜底，冲突视为成功。
func (r *FollowRepo) Add(ctx context.Context, followerID, followingID uint64) error {
	f := Follow{FollowerID: followerID, FollowingID: followingID}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&f).Error
	if err = translate(err); errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

func (r *FollowRepo) Remove(ctx context.Context, followerID, followingID uint64) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&Follow{}).Error
	return translate(err)
}

func (r *FollowRepo) Exists(ctx context.Context, followerID, followingID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error
	return n > 0, translate(err)
}

// FollowingIDs 返回 followerID 关注的全部用户 ID。
func (r *FollowRepo) FollowingIDs(ctx context.Context, followerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("following_id", &ids).Error
	return ids, translate(err)
}

// FollowingAmong 返回 candidates 中被 followerID 关注的子集。
func (r *FollowRepo) FollowingAmong(ctx context.Context, followerID uint64, candidates []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(candidates))
	if followerID == 0 || len(candidates) == 0 {
		return out, nil
	}
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ? AND following_id IN ?", followerID, candidates).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
