package mysql

import (
	"Lee_Tribe/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func (r *ProfileRepository) Create(p *model.Profile) error {
	return r.DB.Create(p).Error
}

func (r *ProfileRepository) FindByAccount(account string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.First(&p, "account_id = ?", account).Error
	return &p, err
}

// FindByAccounts 批量查询：结果按入参顺序返回，查不到的直接跳过
func (r *ProfileRepository) FindByAccounts(accounts []string) ([]model.Profile, error) {
	var rows []model.Profile
	if len(accounts) == 0 {
		return rows, nil
	}
	if err := r.DB.Where("account_id IN ?", accounts).Find(&rows).Error; err != nil {
		return nil, err
	}
	byAccount := make(map[string]model.Profile, len(rows))
	for _, p := range rows {
		byAccount[p.AccountID] = p
	}
	ordered := make([]model.Profile, 0, len(rows))
	for _, account := range accounts {
		if p, ok := byAccount[account]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *ProfileRepository) Save(p *model.Profile) error {
	return r.DB.Save(p).Error
}

// AddGroup 向 joined_groups 镜像追加群组（幂等，重复追加为空操作）
// 只改个人资料这一侧；群组侧由协调层负责，两边永远在同一事务里
func (r *ProfileRepository) AddGroup(account string, groupID uint32) error {
	var p model.Profile
	if err := r.DB.First(&p, "account_id = ?", account).Error; err != nil {
		return err
	}
	p.AddGroup(groupID)
	return r.Save(&p)
}

// RemoveGroup 从 joined_groups 镜像删除群组的所有出现位置
func (r *ProfileRepository) RemoveGroup(account string, groupID uint32) error {
	var p model.Profile
	if err := r.DB.First(&p, "account_id = ?", account).Error; err != nil {
		return err
	}
	p.RemoveGroup(groupID)
	return r.Save(&p)
}
