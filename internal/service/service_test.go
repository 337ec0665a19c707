package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Profile{},
		&model.Group{},
		&model.GroupCounter{},
		&model.Reward{},
		&model.MembershipOutbox{},
	))
	return db
}

// newTestCache 起一个进程内redis，返回挂在它上面的成员缓存
func newTestCache(t *testing.T) *redis.MemberCacheRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	require.NoError(t, redis.Init(mr.Addr(), "", 0))
	t.Cleanup(func() { _ = redis.Close() })
	return redis.NewMemberCacheRepository()
}

func registerProfile(t *testing.T, db *gorm.DB, account string) {
	t.Helper()
	svc := NewProfileService(db)
	_, err := svc.Register(context.Background(), account, ProfileInput{Username: "u-" + account})
	require.NoError(t, err)
}
