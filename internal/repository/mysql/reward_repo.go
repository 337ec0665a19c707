package mysql

import (
	"errors"

	"Lee_Tribe/internal/model"

	"gorm.io/gorm"
)

type RewardRepository struct {
	DB *gorm.DB
}

// Find 只读查询，没有记录时返回 gorm.ErrRecordNotFound
func (r *RewardRepository) Find(account string) (*model.Reward, error) {
	var rw model.Reward
	err := r.DB.First(&rw, "account_id = ?", account).Error
	return &rw, err
}

// GetOrCreate 账本在首次触发奖励时才惰性创建
func (r *RewardRepository) GetOrCreate(account string) (*model.Reward, error) {
	var rw model.Reward
	err := r.DB.First(&rw, "account_id = ?", account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rw = model.Reward{AccountID: account}
		if err = r.DB.Create(&rw).Error; err != nil {
			return nil, err
		}
		return &rw, nil
	}
	if err != nil {
		return nil, err
	}
	return &rw, nil
}

func (r *RewardRepository) Save(rw *model.Reward) error {
	return r.DB.Save(rw).Error
}
