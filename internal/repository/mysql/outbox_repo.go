package mysql

import (
	"context"
	"encoding/json"
	"time"

	"Lee_Tribe/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// MirrorAuditRepo 镜像对账用的批量查询
type MirrorAuditRepo struct {
	DB *gorm.DB
}

// Insert 写成员变更事件；和业务写入绑定同一事务（DB 传事务句柄进来）
func (r *OutboxRepository) Insert(event, account string, groupID uint32) error {
	payload, _ := json.Marshal(map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"account":    account,
		"group_id":   groupID,
	})
	ob := &model.MembershipOutbox{
		EventType: event,
		AccountID: account,
		GroupID:   groupID,
		Payload:   string(payload),
		Status:    0,
	}
	return r.DB.Create(ob).Error
}

// List 查询待投递事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.MembershipOutbox, error) {
	var list []model.MembershipOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = 0").
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败记录重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.MembershipOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": 2, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate 投递成功更新状态
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.MembershipOutbox{}).Where("id = ?", id).
		Update("status", 1).Error
}

// GroupBatch 按ID游标批量拉群组
func (r *MirrorAuditRepo) GroupBatch(ctx context.Context, lastID uint32, batchSize int, first bool) ([]model.Group, uint32, error) {
	var list []model.Group
	q := r.DB.WithContext(ctx).Model(&model.Group{})
	if !first {
		q = q.Where("id > ?", lastID)
	}
	if err := q.Order("id ASC").Limit(batchSize).Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// ProfileBatch 按账号游标批量拉个人资料
func (r *MirrorAuditRepo) ProfileBatch(ctx context.Context, lastAccount string, batchSize int) ([]model.Profile, string, error) {
	var list []model.Profile
	if err := r.DB.WithContext(ctx).Model(&model.Profile{}).
		Where("account_id > ?", lastAccount).
		Order("account_id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastAccount, err
	}
	if len(list) == 0 {
		return nil, lastAccount, nil
	}
	return list, list[len(list)-1].AccountID, nil
}

// ProfilesByAccounts 对账时取一个群全部成员的资料
func (r *MirrorAuditRepo) ProfilesByAccounts(ctx context.Context, accounts []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(accounts))
	if len(accounts) == 0 {
		return out, nil
	}
	var rows []model.Profile
	if err := r.DB.WithContext(ctx).Where("account_id IN ?", accounts).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.AccountID] = p
	}
	return out, nil
}

// GroupsByIDs 对账时取一个资料引用到的全部群组
func (r *MirrorAuditRepo) GroupsByIDs(ctx context.Context, ids []uint32) (map[uint32]model.Group, error) {
	out := make(map[uint32]model.Group, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Group
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, g := range rows {
		out[g.ID] = g
	}
	return out, nil
}
