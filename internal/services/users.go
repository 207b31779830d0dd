package services

// 用户服务：注册、登录、资料更新与关注关系。

import (
	"context"
	"errors"
	"fmt"

	"realworld/internal/storage"
)

// UserService 提供用户 CRUD、口令校验与关注边维护。
type UserService struct {
	users   UserRepository
	follows FollowRepository
}

func NewUserService(users UserRepository, follows FollowRepository) *UserService {
	return &UserService{users: users, follows: follows}
}

type NewUser struct {
	Username string
	Email    string
	Password string
}

// UserUpdate 为部分更新：nil 字段保持不变。
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
	Bio      *string
	Image    *string
}

// Create 注册用户；用户名或邮箱已被占用时返回带字段名的冲突错误。
// 预检查之后的并发竞争由唯一索引兜底，同样映射为冲突。
func (s *UserService) Create(ctx context.Context, in NewUser) (*storage.User, error) {
	if in.Username == "" {
		return nil, blank("username")
	}
	if in.Email == "" {
		return nil, blank("email")
	}
	if in.Password == "" {
		return nil, blank("password")
	}
	if err := s.ensureUsernameFree(ctx, in.Username); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &storage.User{Username: in.Username, Email: in.Email, Password: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, s.duplicateField(ctx, in.Username, in.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.Password = ""
	return u, nil
}

// Login 按邮箱与口令认证。
func (s *UserService) Login(ctx context.Context, email, password string) (*storage.User, error) {
	u, err := s.users.FindByEmail(ctx, email, true)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	u.Password = ""
	return u, nil
}

func (s *UserService) FindByID(ctx context.Context, id uint64) (*storage.User, error) {
	return s.users.FindByID(ctx, id)
}

// FindByEmail 仅在 withPassword 为 true 时读取口令哈希。
func (s *UserService) FindByEmail(ctx context.Context, email string, withPassword bool) (*storage.User, error) {
	return s.users.FindByEmail(ctx, email, withPassword)
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*storage.User, error) {
	return s.users.FindByUsername(ctx, username)
}

// Update 部分更新当前用户；修改用户名/邮箱时重新检查唯一性，口令重新哈希。
func (s *UserService) Update(ctx context.Context, id uint64, in UserUpdate) (*storage.User, error) {
	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Username != nil && *in.Username != current.Username {
		if *in.Username == "" {
			return nil, blank("username")
		}
		if err := s.ensureUsernameFree(ctx, *in.Username); err != nil {
			return nil, err
		}
		fields["username"] = *in.Username
	}
	if in.Email != nil && *in.Email != current.Email {
		if *in.Email == "" {
			return nil, blank("email")
		}
		if err := s.ensureEmailFree(ctx, *in.Email); err != nil {
			return nil, err
		}
		fields["email"] = *in.Email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, blank("password")
		}
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hash
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
	}
	if in.Image != nil {
		fields["image"] = *in.Image
	}
	if err := s.users.Update(ctx, id, fields); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			username, _ := fields["username"].(string)
			email, _ := fields["email"].(string)
			return nil, s.duplicateField(ctx, username, email)
		}
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

// Follow 使 followerID 关注 username；重复关注无副作用。返回被关注用户。
func (s *UserService) Follow(ctx context.Context, followerID uint64, username string) (*storage.User, error) {
	target, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.follows.Add(ctx, followerID, target.ID); err != nil {
		return nil, fmt.Errorf("follow: %w", err)
	}
	return target, nil
}

// Unfollow 取消关注；未关注时同样成功。
func (s *UserService) Unfollow(ctx context.Context, followerID uint64, username string) (*storage.User, error) {
	target, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.follows.Remove(ctx, followerID, target.ID); err != nil {
		return nil, fmt.Errorf("unfollow: %w", err)
	}
	return target, nil
}

// IsFollowing 查询关注边；匿名观察者（ID 为 0）始终为 false。
func (s *UserService) IsFollowing(ctx context.Context, followerID, followingID uint64) (bool, error) {
	if followerID == 0 {
		return false, nil
	}
	return s.follows.Exists(ctx, followerID, followingID)
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return conflict("username")
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email, false)
	switch {
	case err == nil:
		return conflict("email")
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

// duplicateField 在唯一索引冲突后判定冲突字段；空值表示该字段未参与写入。
func (s *UserService) duplicateField(ctx context.Context, username, email string) error {
	if username != "" {
		if err := s.ensureUsernameFree(ctx, username); err != nil {
			return err
		}
	}
	if email != "" {
		if err := s.ensureEmailFree(ctx, email); err != nil {
			return err
		}
		return conflict("email")
	}
	return conflict("username")
}
