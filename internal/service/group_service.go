package service

import (
	"context"
	"errors"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/repository/mysql"
	"Lee_Tribe/internal/repository/redis"

	"gorm.io/gorm"
)

// GroupService 群组元信息的读写；成员关系的变更走 MembershipService
type GroupService struct {
	DB    *gorm.DB
	Cache *redis.MemberCacheRepository
}

func NewGroupService(db *gorm.DB, cache *redis.MemberCacheRepository) *GroupService {
	return &GroupService{DB: db, Cache: cache}
}

func (s *GroupService) GetGroup(ctx context.Context, id uint32) (*model.GroupView, error) {
	groups := &mysql.GroupRepository{DB: s.DB.WithContext(ctx)}
	g, err := groups.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	view := model.NewGroupView(g)
	return &view, nil
}

// GetGroupByName 名称不区分大小写，同名取最早创建的那个
func (s *GroupService) GetGroupByName(ctx context.Context, name string) (*model.GroupView, error) {
	groups := &mysql.GroupRepository{DB: s.DB.WithContext(ctx)}
	g, err := groups.FindByName(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	view := model.NewGroupView(g)
	return &view, nil
}

// ListGroups 按创建顺序分页，软删除的群组照常返回（带标记）
func (s *GroupService) ListGroups(ctx context.Context, page, size int) ([]model.GroupView, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	groups := &mysql.GroupRepository{DB: s.DB.WithContext(ctx)}
	list, err := groups.List((page-1)*size, size)
	if err != nil {
		return nil, err
	}
	views := make([]model.GroupView, 0, len(list))
	for i := range list {
		views = append(views, model.NewGroupView(&list[i]))
	}
	return views, nil
}

// GetGroupsByID 批量查询，结果按入参顺序，缺失的跳过
func (s *GroupService) GetGroupsByID(ctx context.Context, ids []uint32) ([]model.GroupView, error) {
	groups := &mysql.GroupRepository{DB: s.DB.WithContext(ctx)}
	list, err := groups.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	views := make([]model.GroupView, 0, len(list))
	for i := range list {
		views = append(views, model.NewGroupView(&list[i]))
	}
	return views, nil
}

// EditGroup 部分更新群组元信息；owner / members 不经过该路径
func (s *GroupService) EditGroup(ctx context.Context, id uint32, u model.GroupUpdate) (*model.GroupView, error) {
	storeMu.Lock()
	defer storeMu.Unlock()

	var view model.GroupView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := &mysql.GroupRepository{DB: tx}
		g, err := groups.FindByID(id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		if err != nil {
			return err
		}
		g.ApplyUpdate(u)
		if err := groups.Save(g); err != nil {
			return err
		}
		view = model.NewGroupView(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// SetGroupOwner 换owner。新owner会被升级进成员表，旧owner角色不动
func (s *GroupService) SetGroupOwner(ctx context.Context, id uint32, account string) error {
	storeMu.Lock()
	defer storeMu.Unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := &mysql.GroupRepository{DB: tx}
		if _, err := groups.FindByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		} else if err != nil {
			return err
		}
		return groups.SetOwner(id, account)
	})
	if err != nil {
		return err
	}

	// owner升级可能往成员表里插了新账号，缓存直接删掉等回源
	if s.Cache != nil {
		_ = s.Cache.DeleteMembers(ctx, id)
	}
	return nil
}

// DeleteGroup 软删除，只打标记，成员关系保留
func (s *GroupService) DeleteGroup(ctx context.Context, id uint32) error {
	storeMu.Lock()
	defer storeMu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := &mysql.GroupRepository{DB: tx}
		if _, err := groups.FindByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		} else if err != nil {
			return err
		}
		return groups.SoftDelete(id)
	})
}
