package service

import (
	"context"
	"log"
	"time"

	"Lee_Tribe/internal/model"
	"Lee_Tribe/internal/pkg"
	"Lee_Tribe/internal/repository/mysql"

	"gorm.io/gorm"
)

type Sender func(ctx context.Context, ob *model.MembershipOutbox) error

// OutboxRelayer 成员变更事件投递器：扫 outbox 表，异步发出去
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
}

// MirrorReconciler 镜像对账任务：
// 定期全量比对 group.members 和 profile.joined_groups 两侧，发现错位就报出来
// 镜像是一等数据，不做自动修复，留给人排查
type MirrorReconciler struct {
	repo      *mysql.MirrorAuditRepo
	batchSize int
	interval  time.Duration
}

func NewOutboxRelayer(db *gorm.DB, sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
	}
}

func NewMirrorReconciler(db *gorm.DB) *MirrorReconciler {
	return &MirrorReconciler{
		repo:      &mysql.MirrorAuditRepo{DB: db},
		batchSize: 500,             // 一批对账的行数
		interval:  5 * time.Minute, // 对账的间隔时间
	}
}

// Run 投递循环启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// 从outbox表拉待投递事件逐条交给sender，失败的标记重试
func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		log.Printf("outbox query err: %v", err)
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			_ = r.repo.RetryUpdate(ctx, ob.ID)
			continue
		}
		_ = r.repo.SuccessUpdate(ctx, ob.ID)
	}
}

// LogSender 默认 sender（占位）：先打印，Kafka不可用时也回退到它
func LogSender(ctx context.Context, ob *model.MembershipOutbox) error {
	log.Printf("OUTBOX SEND type=%s account=%s group=%d payload=%s", ob.EventType, ob.AccountID, ob.GroupID, ob.Payload)
	return nil
}

// KafkaSender 以账号为key投递，同一账号的事件有序
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.MembershipOutbox) error {
		return p.Send(ctx, ob.AccountID, []byte(ob.Payload))
	}
}

// Run 对账定时任务启动器
func (r *MirrorReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *MirrorReconciler) reconcileOnce(ctx context.Context) {
	r.auditGroupSide(ctx)
	r.auditProfileSide(ctx)
}

// 群组侧：members 里的每个账号，其资料的 joined_groups 必须包含该群组
func (r *MirrorReconciler) auditGroupSide(ctx context.Context) {
	var lastID uint32
	first := true
	for {
		groups, next, err := r.repo.GroupBatch(ctx, lastID, r.batchSize, first)
		if err != nil {
			log.Printf("mirror audit group batch err: %v", err)
			return
		}
		if len(groups) == 0 {
			return
		}
		first = false
		lastID = next

		accounts := make([]string, 0, r.batchSize)
		for i := range groups {
			for account := range groups[i].Members {
				accounts = append(accounts, account)
			}
		}
		profiles, err := r.repo.ProfilesByAccounts(ctx, accounts)
		if err != nil {
			log.Printf("mirror audit profiles err: %v", err)
			return
		}

		for i := range groups {
			g := groups[i]
			for account := range g.Members {
				p, ok := profiles[account]
				if !ok {
					log.Printf("MIRROR DIVERGE group=%d member=%s: profile missing", g.ID, account)
					continue
				}
				if !p.InGroup(g.ID) {
					log.Printf("MIRROR DIVERGE group=%d member=%s: joined_groups missing group", g.ID, account)
				}
			}
		}
	}
}

// 资料侧：joined_groups 里的每个群组，其 members 必须包含该账号
func (r *MirrorReconciler) auditProfileSide(ctx context.Context) {
	lastAccount := ""
	for {
		profiles, next, err := r.repo.ProfileBatch(ctx, lastAccount, r.batchSize)
		if err != nil {
			log.Printf("mirror audit profile batch err: %v", err)
			return
		}
		if len(profiles) == 0 {
			return
		}
		lastAccount = next

		ids := make([]uint32, 0, r.batchSize)
		for i := range profiles {
			ids = append(ids, profiles[i].JoinedGroups...)
		}
		groups, err := r.repo.GroupsByIDs(ctx, ids)
		if err != nil {
			log.Printf("mirror audit groups err: %v", err)
			return
		}

		for i := range profiles {
			p := profiles[i]
			for _, id := range p.JoinedGroups {
				g, ok := groups[id]
				if !ok {
					log.Printf("MIRROR DIVERGE account=%s group=%d: group missing", p.AccountID, id)
					continue
				}
				if !g.IsMember(p.AccountID) {
					log.Printf("MIRROR DIVERGE account=%s group=%d: members missing account", p.AccountID, id)
				}
			}
		}
	}
}
