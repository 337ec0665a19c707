package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"Lee_Tribe/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRelayerDrainOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, "bob", view.ID)
	require.NoError(t, err)

	var sent []string
	relayer := NewOutboxRelayer(db, func(ctx context.Context, ob *model.MembershipOutbox) error {
		if ob.EventType == "join" {
			return errors.New("broker down")
		}
		sent = append(sent, ob.EventType)
		return nil
	})
	relayer.drainOnce(ctx)

	assert.Equal(t, []string{"create"}, sent)

	var events []model.MembershipOutbox
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, int8(1), events[0].Status)
	assert.Equal(t, int8(2), events[1].Status)
	assert.Equal(t, 1, events[1].Retry)

	// 失败的事件不在待投递列表里，下一轮不会重复发成功的
	relayer.drainOnce(ctx)
	assert.Equal(t, []string{"create"}, sent)
}

func TestMirrorReconciler(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()
	registerProfile(t, db, "alice")
	registerProfile(t, db, "bob")

	view, err := svc.CreateGroup(ctx, "alice", GroupInput{Name: "Gardeners"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, "bob", view.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)

	// 镜像一致时不报任何错位
	r := NewMirrorReconciler(db)
	r.reconcileOnce(ctx)
	assert.NotContains(t, buf.String(), "MIRROR DIVERGE")

	// 手动掰断资料侧镜像，下一轮对账必须报出来
	var p model.Profile
	require.NoError(t, db.First(&p, "account_id = ?", "bob").Error)
	p.JoinedGroups = model.GroupIDList{}
	require.NoError(t, db.Save(&p).Error)

	buf.Reset()
	r.reconcileOnce(ctx)
	assert.Contains(t, buf.String(), "MIRROR DIVERGE")
}
