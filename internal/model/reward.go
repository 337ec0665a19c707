package model

import "time"

const (
	// ProfileCompleteBonus 资料完善一次性奖励分
	ProfileCompleteBonus = 100
	// GroupJoinBonus 每个群组首次加入的奖励分
	GroupJoinBonus = 10
)

// Reward 积分账本：每个账号一条，首次触发奖励时惰性创建
type Reward struct {
	AccountID        string      `gorm:"primaryKey;size:64" json:"account_id"`
	Points           uint64      `gorm:"not null;default:0" json:"points"` // 只增不减
	ProfileComplete  bool        `gorm:"not null;default:false" json:"profile_complete"`
	GroupJoinHistory GroupIDList `gorm:"serializer:json" json:"group_join_history"` // 已发过加群奖励的群组，退群不清除
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// AwardProfileComplete 资料完善奖励，终身只发一次
// 返回本次是否真的加了分
func (r *Reward) AwardProfileComplete() bool {
	if r.ProfileComplete {
		return false
	}
	r.ProfileComplete = true
	r.Points += ProfileCompleteBonus
	return true
}

// AwardGroupJoin 加群奖励，按 (账号, 群组) 终身只发一次
// 退群再加回来不会重复发放
func (r *Reward) AwardGroupJoin(groupID uint32) bool {
	for _, id := range r.GroupJoinHistory {
		if id == groupID {
			return false
		}
	}
	r.GroupJoinHistory = append(r.GroupJoinHistory, groupID)
	r.Points += GroupJoinBonus
	return true
}
