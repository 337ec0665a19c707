package model

import "time"

// MembershipOutbox 成员变更事件监控表
// 与业务写入同一事务落库，再由投递器异步发往 Kafka
type MembershipOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // create / join / leave
	AccountID string `gorm:"size:64;not null"`
	GroupID   uint32 `gorm:"not null"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MembershipOutbox) TableName() string { return "membership_outbox" }
