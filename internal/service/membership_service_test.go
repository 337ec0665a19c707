package service

import (
	"context"
	"testing"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 两侧镜像必须互相对得上
func assertMirror(t *testing.T, svc *MembershipService, account string, groupID uint32, member bool) {
	t.Helper()
	ctx := context.Background()

	groups, err := svc.GetUserGroups(ctx, account)
	require.NoError(t, err)
	inProfile := false
	for _, id := range groups {
		if id == groupID {
			inProfile = true
		}
	}

	members, err := svc.GetGroupMembers(ctx, groupID)
	require.NoError(t, err)
	_, inGroup := members[account]

	assert.Equal(t, member, inProfile, "profile side")
	assert.Equal(t, member, inGroup, "group side")
}

func TestCreateGroup(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)

	// 第一个群组拿到ID 0，创建者直接是owner成员
	assert.Equal(t, uint32(0), view.ID)
	assert.Equal(t, "alice", view.Owner)
	assert.Equal(t, "alice", view.CreatedBy)
	assert.Equal(t, 1, view.MembersCount)
	assertMirror(t, svc, "alice", view.ID, true)

	role, in, err := svc.GetUserRoleInGroup(ctx, "alice", view.ID)
	require.NoError(t, err)
	assert.True(t, in)
	assert.Equal(t, model.RoleOwner, role)
}

func TestCreateGroupWithoutProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	_, err := svc.CreateGroup(ctx, "ghost", GroupInput{Name: "Nope"})
	assert.ErrorIs(t, err, ErrProfileNotFound)

	// 失败的创建不消耗ID：接下来成功的创建仍然从0开始
	registerProfile(t, db, "alice")
	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "First"})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), view.ID)
}

func TestGroupIDsSequential(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")

	for i := 0; i < 3; i++ {
		view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "G"})
		require.NoError(t, err)
		assert.Equal(t, uint32(i), view.ID)
	}
}

func TestJoinAndLeave(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	rewardSvc := NewRewardService(db)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)

	joined, err := svc.JoinGroup(ctx, "bob", view.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, joined.MembersCount)
	assertMirror(t, svc, "bob", view.ID, true)

	role, in, err := svc.GetUserRoleInGroup(ctx, "bob", view.ID)
	require.NoError(t, err)
	assert.True(t, in)
	assert.Equal(t, model.RoleMember, role)

	// 加群奖励到账
	rw, err := rewardSvc.GetRewards(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, rw)
	assert.Equal(t, uint64(model.GroupJoinBonus), rw.Points)

	require.NoError(t, svc.LeaveGroup(ctx, "bob", view.ID))
	assertMirror(t, svc, "bob", view.ID, false)

	// 退群不回收奖励
	rw, err = rewardSvc.GetRewards(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, rw)
	assert.Equal(t, uint64(model.GroupJoinBonus), rw.Points)
}

func TestJoinTwice(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	rewardSvc := NewRewardService(db)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, "bob", view.ID)
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, "bob", view.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	// 拒绝的加群不动任何状态
	assertMirror(t, svc, "bob", view.ID, true)
	rw, err := rewardSvc.GetRewards(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(model.GroupJoinBonus), rw.Points)
}

func TestRejoinNoDoubleBonus(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	rewardSvc := NewRewardService(db)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, "bob", view.ID)
	require.NoError(t, err)
	require.NoError(t, svc.LeaveGroup(ctx, "bob", view.ID))
	_, err = svc.JoinGroup(ctx, "bob", view.ID)
	require.NoError(t, err)

	// 同一个群的加群奖励终身只发一次
	rw, err := rewardSvc.GetRewards(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(model.GroupJoinBonus), rw.Points)
	assertMirror(t, svc, "bob", view.ID, true)
}

func TestJoinErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")

	_, err := svc.JoinGroup(ctx, "ghost", 0)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.JoinGroup(ctx, "alice", 42)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestLeaveErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.LeaveGroup(ctx, "bob", view.ID), ErrNotMember)
	assert.ErrorIs(t, svc.LeaveGroup(ctx, "ghost", view.ID), ErrProfileNotFound)
	assert.ErrorIs(t, svc.LeaveGroup(ctx, "alice", 42), ErrGroupNotFound)
}

func TestUserGroupsOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	g0, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "A"})
	require.NoError(t, err)
	g1, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "B"})
	require.NoError(t, err)
	g2, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "C"})
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, "bob", g2.ID)
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, "bob", g0.ID)
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, "bob", g1.ID)
	require.NoError(t, err)

	// joined_groups 保持加入顺序
	groups, err := svc.GetUserGroups(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.GroupIDList{g2.ID, g0.ID, g1.ID}, groups)

	// 不存在的账号返回空列表
	groups, err = svc.GetUserGroups(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestIsUserInGroup(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)

	in, err := svc.IsUserInGroup(ctx, "alice", view.ID)
	require.NoError(t, err)
	assert.True(t, in)

	in, err = svc.IsUserInGroup(ctx, "bob", view.ID)
	require.NoError(t, err)
	assert.False(t, in)

	// 群组不存在按不在处理
	in, err = svc.IsUserInGroup(ctx, "alice", 42)
	require.NoError(t, err)
	assert.False(t, in)
}

// 第一个群组的ID就是0，所有改它的操作都必须是UPDATE而不是再INSERT一行
func TestZeroIDGroupLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	groupSvc := NewGroupService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)
	require.Equal(t, uint32(0), view.ID)

	_, err = svc.JoinGroup(ctx, "bob", 0)
	require.NoError(t, err)

	var cnt int64
	require.NoError(t, db.Model(&model.Group{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
	assertMirror(t, svc, "bob", 0, true)

	n, err := svc.GetMemberCount(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	desc := "first of all groups"
	_, err = groupSvc.EditGroup(ctx, 0, model.GroupUpdate{Description: &desc})
	require.NoError(t, err)
	require.NoError(t, groupSvc.SetGroupOwner(ctx, 0, "bob"))
	require.NoError(t, svc.LeaveGroup(ctx, "bob", 0))
	require.NoError(t, groupSvc.DeleteGroup(ctx, 0))

	got, err := groupSvc.GetGroup(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, desc, got.Description)
	assert.Equal(t, "bob", got.Owner)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, 1, got.MembersCount)

	require.NoError(t, db.Model(&model.Group{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestGetMemberCountUsesCache(t *testing.T) {
	db := newTestDB(t)
	cache := newTestCache(t)
	svc := NewMembershipService(db, cache)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, "bob", view.ID)
	require.NoError(t, err)

	n, err := svc.GetMemberCount(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 绕开缓存直接改库：命中缓存时应拿到旧值
	var g model.Group
	require.NoError(t, db.First(&g, "id = ?", view.ID).Error)
	delete(g.Members, "bob")
	require.NoError(t, (&mysql.GroupRepository{DB: db}).Save(&g))

	n, err = svc.GetMemberCount(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 缓存删掉后回源并回填
	require.NoError(t, cache.DeleteMembers(ctx, view.ID))
	n, err = svc.GetMemberCount(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 不存在的群组按0处理
	n, err = svc.GetMemberCount(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestOutboxEventsWritten(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, "bob", view.ID)
	require.NoError(t, err)
	require.NoError(t, svc.LeaveGroup(ctx, "bob", view.ID))

	var events []model.MembershipOutbox
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 3)
	assert.Equal(t, "create", events[0].EventType)
	assert.Equal(t, "join", events[1].EventType)
	assert.Equal(t, "leave", events[2].EventType)
	assert.Equal(t, "bob", events[1].AccountID)
	assert.Equal(t, view.ID, events[1].GroupID)
}
