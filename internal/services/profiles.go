package services

import "context"

// ProfileService 按用户名读取公开资料，following 相对观察者计算。
type ProfileService struct {
	users   UserRepository
	follows FollowRepository
}

func NewProfileService(users UserRepository, follows FollowRepository) *ProfileService {
	return &ProfileService{users: users, follows: follows}
}

func (s *ProfileService) Get(ctx context.Context, username string, viewerID uint64) (ProfileView, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return ProfileView{}, err
	}
	following := false
	if viewerID != 0 {
		if following, err = s.follows.Exists(ctx, viewerID, u.ID); err != nil {
			return ProfileView{}, err
		}
	}
	return NewProfileView(u, following), nil
}
