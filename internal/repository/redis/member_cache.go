package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	MemberSetTTL       = 24 * time.Hour
	MemberCntTTL       = 24 * time.Hour
	LockTTL            = 300 * time.Millisecond
	MemberSetKeyPrefix = "group:members"     // 某个群组当前成员账号集合
	MemberCntKeyPrefix = "group:membercnt"   // 缓存某个群组的成员数量
	LockKeyPrefix      = "lock:group:member" // 分布式锁
)

// MemberCacheRepository 群组成员读侧缓存：永远不作为权威数据，落库成功后再写
type MemberCacheRepository struct {
	// 可配置
	memberSetTTL time.Duration
	memberCntTTL time.Duration
}

type DistLock struct {
	RDB *redis.Client
}

// NewDistLock 绑定全局客户端；必须在 Init 之后调用
func NewDistLock() *DistLock {
	return &DistLock{RDB: Client}
}

func NewMemberCacheRepository() *MemberCacheRepository {
	return &MemberCacheRepository{
		memberSetTTL: MemberSetTTL,
		memberCntTTL: MemberCntTTL,
	}
}

func (r *MemberCacheRepository) memberSetKey(groupID uint32) string {
	return fmt.Sprintf("%s:%d", MemberSetKeyPrefix, groupID)
}
func (r *MemberCacheRepository) memberCntKey(groupID uint32) string {
	return fmt.Sprintf("%s:%d", MemberCntKeyPrefix, groupID)
}

// AddMember 写路径：加群事务提交成功后调用
func (r *MemberCacheRepository) AddMember(ctx context.Context, groupID uint32, account string) error {
	k := r.memberSetKey(groupID)
	if err := Client.SAdd(ctx, k, account).Err(); err != nil {
		return err
	}
	_ = Client.Expire(ctx, k, r.memberSetTTL).Err()

	// 计数只有回填过才可信：key不存在时不能从1开始数，留给读侧重建
	ck := r.memberCntKey(groupID)
	exists, err := Client.Exists(ctx, ck).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return nil
	}
	if err := Client.Incr(ctx, ck).Err(); err != nil {
		return err
	}
	_ = Client.Expire(ctx, ck, r.memberCntTTL).Err()
	return nil
}

// RemoveMember 退群后调用；计数防负数
func (r *MemberCacheRepository) RemoveMember(ctx context.Context, groupID uint32, account string) error {
	k := r.memberSetKey(groupID)
	if err := Client.SRem(ctx, k, account).Err(); err != nil {
		return err
	}
	ck := r.memberCntKey(groupID)
	if err := Client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, ck).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if val <= 0 {
			// 不存在或<=0直接返回，交给对账兜底
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Decr(ctx, ck)
			return nil
		})
		return err
	}, ck); err != nil {
		return err
	}
	return nil
}

// IsMemberCached 从缓存判断账号是否在群里；第二个返回值表示缓存是否命中
func (r *MemberCacheRepository) IsMemberCached(ctx context.Context, groupID uint32, account string) (bool, bool, error) {
	k := r.memberSetKey(groupID)
	exists, err := Client.Exists(ctx, k).Result()
	if err != nil {
		return false, false, err
	}
	if exists == 0 {
		return false, false, nil
	}
	b, err := Client.SIsMember(ctx, k, account).Result()
	return b, true, err
}

// GetMembersCached 读取整个成员集合（只有集合存在时才算命中）
func (r *MemberCacheRepository) GetMembersCached(ctx context.Context, groupID uint32) ([]string, bool, error) {
	k := r.memberSetKey(groupID)
	exists, err := Client.Exists(ctx, k).Result()
	if err != nil || exists == 0 {
		return nil, false, err
	}
	members, err := Client.SMembers(ctx, k).Result()
	return members, true, err
}

// WarmMembers 回源后整体重建成员集合：Del + SAdd + Expire 走管道
func (r *MemberCacheRepository) WarmMembers(ctx context.Context, groupID uint32, members []string) {
	k := r.memberSetKey(groupID)
	pipe := Client.TxPipeline()
	pipe.Del(ctx, k)
	if len(members) > 0 {
		vals := make([]any, 0, len(members))
		for _, m := range members {
			vals = append(vals, m)
		}
		pipe.SAdd(ctx, k, vals...)
		pipe.Expire(ctx, k, r.memberSetTTL)
	}
	_, _ = pipe.Exec(ctx)
}

// SetMemberCount 回填群组成员数
func (r *MemberCacheRepository) SetMemberCount(ctx context.Context, groupID uint32, cnt int64) error {
	return Client.Set(ctx, r.memberCntKey(groupID), cnt, r.memberCntTTL).Err()
}

// GetMemberCountCached 从缓存读取成员数量
func (r *MemberCacheRepository) GetMemberCountCached(ctx context.Context, groupID uint32) (int64, bool, error) {
	val, err := Client.Get(ctx, r.memberCntKey(groupID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	return val, true, err
}

// DeleteMembers 安全删除成员缓存，支持可选延迟二删，抵消并发回填窗口
func (r *MemberCacheRepository) DeleteMembers(ctx context.Context, groupID uint32, delay ...time.Duration) error {
	setKey := r.memberSetKey(groupID)
	cntKey := r.memberCntKey(groupID)
	if err := Client.Del(ctx, setKey, cntKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		// 轻量异步：后台再删一次
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = Client.Del(context.Background(), setKey, cntKey).Err()
		}()
	}
	return nil
}

// Acquire 请求加分布式锁
func (l *DistLock) Acquire(ctx context.Context, groupID uint32, token string) (bool, error) {
	key := fmt.Sprintf("%s:%d", LockKeyPrefix, groupID)
	return l.RDB.SetNX(ctx, key, token, LockTTL).Result()
}

// Release 用lua保证原子性
func (l *DistLock) Release(ctx context.Context, groupID uint32, token string) error {
	key := fmt.Sprintf("%s:%d", LockKeyPrefix, groupID)
	_, err := redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`).Run(ctx, l.RDB, []string{key}, token).Result()
	return err
}
