package service

import (
	"context"
	"errors"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/repository/mysql"

	"gorm.io/gorm"
)

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// ProfileInput 注册请求体，账号标识来自调用方身份而不是请求体
type ProfileInput struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Extra       string `json:"extra"`
}

// Register 建档，一个账号只能建一次，重复注册直接报错
func (s *ProfileService) Register(ctx context.Context, caller string, in ProfileInput) (*model.Profile, error) {
	storeMu.Lock()
	defer storeMu.Unlock()

	var created model.Profile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := &mysql.ProfileRepository{DB: tx}

		_, err := profiles.FindByAccount(caller)
		if err == nil {
			return ErrProfileAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		created = model.Profile{
			AccountID:    caller,
			Username:     in.Username,
			DisplayName:  in.DisplayName,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Extra:        in.Extra,
			Role:         model.RoleMember,
			JoinedGroups: model.GroupIDList{},
		}
		return profiles.Create(&created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, account string) (*model.Profile, error) {
	profiles := &mysql.ProfileRepository{DB: s.DB.WithContext(ctx)}
	p, err := profiles.FindByAccount(account)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfiles 批量查询，结果按入参顺序，缺失的跳过
func (s *ProfileService) GetProfiles(ctx context.Context, accounts []string) ([]model.Profile, error) {
	profiles := &mysql.ProfileRepository{DB: s.DB.WithContext(ctx)}
	return profiles.FindByAccounts(accounts)
}

// EditProfile 部分更新；更新后在同一事务里判定完善度奖励
// username / role / joined_groups 不经过该路径
func (s *ProfileService) EditProfile(ctx context.Context, caller string, u model.ProfileUpdate) (*model.Profile, error) {
	storeMu.Lock()
	defer storeMu.Unlock()

	var updated model.Profile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := &mysql.ProfileRepository{DB: tx}
		rewards := &mysql.RewardRepository{DB: tx}

		p, err := profiles.FindByAccount(caller)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		if err != nil {
			return err
		}

		p.ApplyUpdate(u)
		if err := profiles.Save(p); err != nil {
			return err
		}

		// 完善度奖励终身一次，之后再怎么改资料都不会重发
		if p.IsComplete() {
			rw, err := rewards.GetOrCreate(caller)
			if err != nil {
				return err
			}
			if rw.AwardProfileComplete() {
				if err := rewards.Save(rw); err != nil {
					return err
				}
			}
		}

		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CompletionPercentage 账号不存在按0处理
func (s *ProfileService) CompletionPercentage(ctx context.Context, account string) (uint32, error) {
	profiles := &mysql.ProfileRepository{DB: s.DB.WithContext(ctx)}
	p, err := profiles.FindByAccount(account)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.CompletionPercentage(), nil
}
