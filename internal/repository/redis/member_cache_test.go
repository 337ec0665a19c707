package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	require.NoError(t, Init(mr.Addr(), "", 0))
	t.Cleanup(func() { _ = Close() })
}

func TestAddMemberCountGuard(t *testing.T) {
	newTestClient(t)
	r := NewMemberCacheRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMember(ctx, 1, "alice"))

	b, hit, err := r.IsMemberCached(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, b)

	// 计数key不存在时不许从1开始数，必须等回填
	_, hit, err = r.GetMemberCountCached(ctx, 1)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, r.SetMemberCount(ctx, 1, 5))
	require.NoError(t, r.AddMember(ctx, 1, "bob"))

	v, hit, err := r.GetMemberCountCached(ctx, 1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(6), v)
}

func TestRemoveMemberCount(t *testing.T) {
	newTestClient(t)
	r := NewMemberCacheRepository()
	ctx := context.Background()

	r.WarmMembers(ctx, 1, []string{"alice", "bob"})
	require.NoError(t, r.SetMemberCount(ctx, 1, 2))

	require.NoError(t, r.RemoveMember(ctx, 1, "alice"))
	b, hit, err := r.IsMemberCached(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.False(t, b)

	v, hit, err := r.GetMemberCountCached(ctx, 1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(1), v)

	// 计数防负
	require.NoError(t, r.RemoveMember(ctx, 1, "bob"))
	require.NoError(t, r.RemoveMember(ctx, 1, "ghost"))
	v, hit, err = r.GetMemberCountCached(ctx, 1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(0), v)
}

func TestWarmAndDeleteMembers(t *testing.T) {
	newTestClient(t)
	r := NewMemberCacheRepository()
	ctx := context.Background()

	r.WarmMembers(ctx, 2, []string{"alice", "bob"})
	members, hit, err := r.GetMembersCached(ctx, 2)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members)

	// 重建覆盖旧集合
	r.WarmMembers(ctx, 2, []string{"carol"})
	members, hit, err = r.GetMembersCached(ctx, 2)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"carol"}, members)

	require.NoError(t, r.DeleteMembers(ctx, 2))
	_, hit, err = r.GetMembersCached(ctx, 2)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDistLock(t *testing.T) {
	newTestClient(t)
	l := NewDistLock()
	ctx := context.Background()

	got, err := l.Acquire(ctx, 9, "t1")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = l.Acquire(ctx, 9, "t2")
	require.NoError(t, err)
	assert.False(t, got)

	// 错误token的释放不动锁
	require.NoError(t, l.Release(ctx, 9, "t2"))
	got, err = l.Acquire(ctx, 9, "t3")
	require.NoError(t, err)
	assert.False(t, got)

	require.NoError(t, l.Release(ctx, 9, "t1"))
	got, err = l.Acquire(ctx, 9, "t3")
	require.NoError(t, err)
	assert.True(t, got)
}
