package mysql

import (
	"Lee_Tribe/internal/model"

	"gorm.io/gorm"
)

type GroupRepository struct {
	DB *gorm.DB
}

const counterRowID = 1

// AllocateID 从单行计数器取下一个群组ID并+1
// 必须在创建事务内调用：事务回滚时计数器一并回滚，失败的创建不消耗ID
func (r *GroupRepository) AllocateID() (uint32, error) {
	var c model.GroupCounter
	if err := r.DB.FirstOrCreate(&c, model.GroupCounter{ID: counterRowID}).Error; err != nil {
		return 0, err
	}
	id := c.NextID
	if err := r.DB.Model(&model.GroupCounter{}).
		Where("id = ?", counterRowID).
		Update("next_id", id+1).Error; err != nil {
		return 0, err
	}
	return id, nil
}

// Create 分配ID并落库；ID冲突说明计数器约定被破坏，直接把错误抛上去
func (r *GroupRepository) Create(g *model.Group) error {
	id, err := r.AllocateID()
	if err != nil {
		return err
	}
	g.ID = id
	return r.DB.Create(g).Error
}

func (r *GroupRepository) FindByID(id uint32) (*model.Group, error) {
	var g model.Group
	err := r.DB.First(&g, "id = ?", id).Error
	return &g, err
}

// FindByName 名称不区分大小写精确匹配；同名时按ID升序取第一个（即最早创建的）
func (r *GroupRepository) FindByName(name string) (*model.Group, error) {
	var g model.Group
	err := r.DB.Where("LOWER(name) = LOWER(?)", name).Order("id ASC").First(&g).Error
	return &g, err
}

// List ID升序即插入顺序
func (r *GroupRepository) List(offset, limit int) ([]model.Group, error) {
	var list []model.Group
	err := r.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// FindByIDs 批量查询：结果按入参顺序返回，查不到的直接跳过
func (r *GroupRepository) FindByIDs(ids []uint32) ([]model.Group, error) {
	var rows []model.Group
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.DB.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint32]model.Group, len(rows))
	for _, g := range rows {
		byID[g.ID] = g
	}
	ordered := make([]model.Group, 0, len(rows))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			ordered = append(ordered, g)
		}
	}
	return ordered, nil
}

// Save 显式按ID更新整行。gorm的Save把零值主键当新纪录走INSERT，
// 而计数器发出的第一个群组ID就是0，必须绕开
func (r *GroupRepository) Save(g *model.Group) error {
	return r.DB.Model(&model.Group{}).Where("id = ?", g.ID).Select("*").Updates(g).Error
}

// AddMember 只改群组侧成员表，不碰个人资料镜像（镜像由协调层维护）
func (r *GroupRepository) AddMember(id uint32, account string, role model.ProfileRole) error {
	var g model.Group
	if err := r.DB.First(&g, "id = ?", id).Error; err != nil {
		return err
	}
	g.AddMember(account, role)
	return r.Save(&g)
}

func (r *GroupRepository) RemoveMember(id uint32, account string) error {
	var g model.Group
	if err := r.DB.First(&g, "id = ?", id).Error; err != nil {
		return err
	}
	g.RemoveMember(account)
	return r.Save(&g)
}

// SetOwner 换owner并把新owner升级进成员表；旧owner角色不动
func (r *GroupRepository) SetOwner(id uint32, account string) error {
	var g model.Group
	if err := r.DB.First(&g, "id = ?", id).Error; err != nil {
		return err
	}
	g.SetOwner(account)
	return r.Save(&g)
}

// SoftDelete 只打标记，群组和成员仍可查询
func (r *GroupRepository) SoftDelete(id uint32) error {
	var g model.Group
	if err := r.DB.First(&g, "id = ?", id).Error; err != nil {
		return err
	}
	g.IsDeleted = true
	return r.Save(&g)
}
