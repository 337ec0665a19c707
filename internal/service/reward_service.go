package service

import (
	"context"
	"errors"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/repository/mysql"

	"gorm.io/gorm"
)

// RewardService 只读。积分的发放全部发生在资料/成员变更的事务里
type RewardService struct {
	DB *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db}
}

// GetRewards 账本惰性创建，从没拿过奖励的账号返回 nil
func (s *RewardService) GetRewards(ctx context.Context, account string) (*model.Reward, error) {
	rewards := &mysql.RewardRepository{DB: s.DB.WithContext(ctx)}
	rw, err := rewards.Find(account)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rw, nil
}
