package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/repository/mysql"
	"Lee_Tribe/internal/repository/redis"

	"gorm.io/gorm"
)

// storeMu 全局写锁：三张表（资料/群组/积分）的变更操作逐个执行
// 事务保证原子性，这把锁保证操作之间不交叠
var storeMu sync.Mutex

// MembershipService 成员关系协调层，负责维护双向镜像不变量：
// 账号在 group.members 里 <=> 群组在 profile.joined_groups 里
// 两侧永远在同一事务里一起改，先校验后落库，出错整体回滚
type MembershipService struct {
	DB    *gorm.DB
	Cache *redis.MemberCacheRepository // 可为nil（缓存不可用时直接走库）
	lock  *redis.DistLock              // 缓存重建用，跟Cache一起配
}

func NewMembershipService(db *gorm.DB, cache *redis.MemberCacheRepository) *MembershipService {
	s := &MembershipService{DB: db, Cache: cache}
	if cache != nil {
		s.lock = redis.NewDistLock()
	}
	return s
}

// GroupInput 建群请求体
type GroupInput struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Website       string `json:"website"`
	Image         string `json:"image"`
	BannerImage   string `json:"banner_image"`
	MatrixSpaceID string `json:"matrix_space_id"`
}

// CreateGroup 建群：分配ID、创建者自动成为owner成员、写入资料侧镜像
// 创建者必须已有资料，否则整体失败且不消耗ID
func (s *MembershipService) CreateGroup(ctx context.Context, caller string, in GroupInput) (*model.GroupView, error) {
	storeMu.Lock()
	defer storeMu.Unlock()

	var view model.GroupView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := &mysql.ProfileRepository{DB: tx}
		groups := &mysql.GroupRepository{DB: tx}
		outbox := &mysql.OutboxRepository{DB: tx}

		if _, err := profiles.FindByAccount(caller); errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		} else if err != nil {
			return err
		}

		g := &model.Group{
			Name:          in.Name,
			Description:   in.Description,
			Website:       in.Website,
			Image:         in.Image,
			BannerImage:   in.BannerImage,
			MatrixSpaceID: in.MatrixSpaceID,
			Owner:         caller,
			CreatedBy:     caller,
			Members:       model.NewMemberMap(caller),
		}
		if err := groups.Create(g); err != nil {
			return err
		}

		if err := profiles.AddGroup(caller, g.ID); err != nil {
			return err
		}

		if err := outbox.Insert("create", caller, g.ID); err != nil {
			return err
		}
		view = model.NewGroupView(g)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 缓存写在事务提交之后，失败不影响结果，回源会兜底
	if s.Cache != nil {
		_ = s.Cache.AddMember(ctx, view.ID, caller)
	}
	return &view, nil
}

// JoinGroup 加群。校验在任何变更之前完成：
// 两侧镜像任意一侧已经显示是成员就拒绝，防止镜像错位后越走越偏
func (s *MembershipService) JoinGroup(ctx context.Context, caller string, groupID uint32) (*model.GroupView, error) {
	storeMu.Lock()
	defer storeMu.Unlock()

	var view model.GroupView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := &mysql.ProfileRepository{DB: tx}
		groups := &mysql.GroupRepository{DB: tx}
		rewards := &mysql.RewardRepository{DB: tx}
		outbox := &mysql.OutboxRepository{DB: tx}

		p, err := profiles.FindByAccount(caller)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		if err != nil {
			return err
		}
		g, err := groups.FindByID(groupID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		if err != nil {
			return err
		}

		if p.InGroup(groupID) || g.IsMember(caller) {
			return ErrAlreadyMember
		}

		if err := groups.AddMember(groupID, caller, model.RoleMember); err != nil {
			return err
		}
		if err := profiles.AddGroup(caller, groupID); err != nil {
			return err
		}

		// 加群奖励按 (账号, 群组) 终身一次，退群再回来不重发
		rw, err := rewards.GetOrCreate(caller)
		if err != nil {
			return err
		}
		if rw.AwardGroupJoin(groupID) {
			if err := rewards.Save(rw); err != nil {
				return err
			}
		}

		if err := outbox.Insert("join", caller, groupID); err != nil {
			return err
		}

		// 视图用落库后的群组
		g, err = groups.FindByID(groupID)
		if err != nil {
			return err
		}
		view = model.NewGroupView(g)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		_ = s.Cache.AddMember(ctx, groupID, caller)
	}
	return &view, nil
}

// LeaveGroup 退群。两侧镜像都必须显示是成员，否则拒绝
// 已发过的加群奖励不回收
func (s *MembershipService) LeaveGroup(ctx context.Context, caller string, groupID uint32) error {
	storeMu.Lock()
	defer storeMu.Unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := &mysql.ProfileRepository{DB: tx}
		groups := &mysql.GroupRepository{DB: tx}
		outbox := &mysql.OutboxRepository{DB: tx}

		p, err := profiles.FindByAccount(caller)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		if err != nil {
			return err
		}
		g, err := groups.FindByID(groupID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		if err != nil {
			return err
		}

		if !p.InGroup(groupID) || !g.IsMember(caller) {
			return ErrNotMember
		}

		if err := groups.RemoveMember(groupID, caller); err != nil {
			return err
		}
		if err := profiles.RemoveGroup(caller, groupID); err != nil {
			return err
		}

		return outbox.Insert("leave", caller, groupID)
	})
	if err != nil {
		return err
	}

	if s.Cache != nil {
		_ = s.Cache.RemoveMember(ctx, groupID, caller)
	}
	return nil
}

// GetUserGroups 账号加入的群组ID列表（按加入顺序）；账号不存在返回空列表
func (s *MembershipService) GetUserGroups(ctx context.Context, account string) (model.GroupIDList, error) {
	profiles := &mysql.ProfileRepository{DB: s.DB.WithContext(ctx)}
	p, err := profiles.FindByAccount(account)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.GroupIDList{}, nil
	}
	if err != nil {
		return nil, err
	}
	if p.JoinedGroups == nil {
		return model.GroupIDList{}, nil
	}
	return p.JoinedGroups, nil
}

// IsUserInGroup 优先走缓存；未命中回源群组侧成员表并顺手回填
func (s *MembershipService) IsUserInGroup(ctx context.Context, account string, groupID uint32) (bool, error) {
	if s.Cache != nil {
		if b, hit, err := s.Cache.IsMemberCached(ctx, groupID, account); err == nil && hit {
			return b, nil
		}
	}

	groups := &mysql.GroupRepository{DB: s.DB.WithContext(ctx)}
	g, err := groups.FindByID(groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if s.Cache != nil {
		s.Cache.WarmMembers(ctx, groupID, memberAccounts(g.Members))
	}
	return g.IsMember(account), nil
}

// GetGroupMembers 成员表以群组侧为准（带角色）；群组不存在返回空表
func (s *MembershipService) GetGroupMembers(ctx context.Context, groupID uint32) (model.MemberMap, error) {
	groups := &mysql.GroupRepository{DB: s.DB.WithContext(ctx)}
	g, err := groups.FindByID(groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MemberMap{}, nil
	}
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.WarmMembers(ctx, groupID, memberAccounts(g.Members))
		_ = s.Cache.SetMemberCount(ctx, groupID, int64(g.MemberCount()))
	}
	if g.Members == nil {
		return model.MemberMap{}, nil
	}
	return g.Members, nil
}

// GetUserRoleInGroup 返回角色和是否在群里
func (s *MembershipService) GetUserRoleInGroup(ctx context.Context, account string, groupID uint32) (model.ProfileRole, bool, error) {
	groups := &mysql.GroupRepository{DB: s.DB.WithContext(ctx)}
	g, err := groups.FindByID(groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role, ok := g.Members[account]
	return role, ok, nil
}

// GetMemberCount 成员数查询：计数缓存 → 成员集合缓存 → 回源DB重建
// 回源重建受分布式锁保护，拿不到锁只读不回填，避免并发重建互相踩
func (s *MembershipService) GetMemberCount(ctx context.Context, groupID uint32) (int64, error) {
	if s.Cache == nil {
		return s.memberCountFromDB(ctx, groupID)
	}

	// 第一次从缓存读
	if v, hit, err := s.Cache.GetMemberCountCached(ctx, groupID); err == nil && hit {
		return v, nil
	}
	// 成员集合还在的话直接数集合，顺手回填计数
	if members, hit, err := s.Cache.GetMembersCached(ctx, groupID); err == nil && hit {
		v := int64(len(members))
		_ = s.Cache.SetMemberCount(ctx, groupID, v)
		return v, nil
	}

	token := fmt.Sprintf("%d-%d", groupID, time.Now().UnixNano())
	got, _ := s.lock.Acquire(ctx, groupID, token)
	if got {
		defer func() {
			if err := s.lock.Release(ctx, groupID, token); err != nil {
				log.Printf("member count lock release err: %v", err)
			}
		}()

		// 拿到锁后二次检查
		if v, hit, err := s.Cache.GetMemberCountCached(ctx, groupID); err == nil && hit {
			return v, nil
		}

		v, err := s.memberCountFromDB(ctx, groupID)
		if err != nil {
			return 0, err
		}
		_ = s.Cache.SetMemberCount(ctx, groupID, v)
		return v, nil
	}

	// 没拿到锁，短暂退避后再读一次缓存，避免全体打DB
	time.Sleep(50 * time.Millisecond)
	if v, hit, err := s.Cache.GetMemberCountCached(ctx, groupID); err == nil && hit {
		return v, nil
	}
	return s.memberCountFromDB(ctx, groupID)
}

func (s *MembershipService) memberCountFromDB(ctx context.Context, groupID uint32) (int64, error) {
	groups := &mysql.GroupRepository{DB: s.DB.WithContext(ctx)}
	g, err := groups.FindByID(groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(g.MemberCount()), nil
}

func memberAccounts(m model.MemberMap) []string {
	out := make([]string, 0, len(m))
	for account := range m {
		out = append(out, account)
	}
	return out
}
