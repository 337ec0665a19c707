package model

import "time"

// ProfileRole 成员角色：owner / member
type ProfileRole string

const (
	RoleOwner  ProfileRole = "owner"
	RoleMember ProfileRole = "member"
)

// GroupIDList 以JSON列存储的群组ID列表（保持加入顺序）
type GroupIDList []uint32

// TagList 技能/兴趣/公益标签ID集合
type TagList []uint32

type Profile struct {
	AccountID       string      `gorm:"primaryKey;size:64" json:"account_id"`
	Username        string      `gorm:"uniqueIndex;size:32;not null" json:"username"` // 创建后不可修改
	DisplayName     string      `gorm:"size:64" json:"display_name"`
	FirstName       string      `gorm:"size:64" json:"first_name"`
	LastName        string      `gorm:"size:64" json:"last_name"`
	About           string      `gorm:"type:text" json:"about"`
	Email           string      `gorm:"size:64" json:"email"`
	DateOfBirth     uint64      `json:"date_of_birth"`
	City            string      `gorm:"size:64" json:"city"`
	StateOrProvince string      `gorm:"size:64" json:"state_or_province"`
	Country         string      `gorm:"size:64" json:"country"`
	ProfileImage    string      `json:"profile_image"` // IPFS 图片地址
	BannerImage     string      `json:"banner_image"`
	Website         string      `json:"website"`
	Role            ProfileRole `gorm:"size:16;not null;default:member" json:"role"`
	JoinedGroups    GroupIDList `gorm:"serializer:json" json:"joined_groups"` // 镜像字段：与 Group.Members 保持一致
	Skills          TagList     `gorm:"serializer:json" json:"skills"`
	Interests       TagList     `gorm:"serializer:json" json:"interests"`
	Causes          TagList     `gorm:"serializer:json" json:"causes"`
	Extra           string      `gorm:"type:text" json:"extra"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ProfileUpdate 部分更新请求体：nil 字段表示不修改
// username / role / joined_groups 永远不经过该路径
type ProfileUpdate struct {
	DisplayName     *string  `json:"display_name"`
	FirstName       *string  `json:"first_name"`
	LastName        *string  `json:"last_name"`
	About           *string  `json:"about"`
	Email           *string  `json:"email"`
	DateOfBirth     *uint64  `json:"date_of_birth"`
	City            *string  `json:"city"`
	StateOrProvince *string  `json:"state_or_province"`
	Country         *string  `json:"country"`
	ProfileImage    *string  `json:"profile_image"`
	BannerImage     *string  `json:"banner_image"`
	Website         *string  `json:"website"`
	Skills          *TagList `json:"skills"`
	Interests       *TagList `json:"interests"`
	Causes          *TagList `json:"causes"`
	Extra           *string  `json:"extra"`
}

// ApplyUpdate 只覆盖请求中出现的字段
func (p *Profile) ApplyUpdate(u ProfileUpdate) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.About != nil {
		p.About = *u.About
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = *u.DateOfBirth
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.StateOrProvince != nil {
		p.StateOrProvince = *u.StateOrProvince
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
	if u.ProfileImage != nil {
		p.ProfileImage = *u.ProfileImage
	}
	if u.BannerImage != nil {
		p.BannerImage = *u.BannerImage
	}
	if u.Website != nil {
		p.Website = *u.Website
	}
	if u.Skills != nil {
		p.Skills = *u.Skills
	}
	if u.Interests != nil {
		p.Interests = *u.Interests
	}
	if u.Causes != nil {
		p.Causes = *u.Causes
	}
	if u.Extra != nil {
		p.Extra = *u.Extra
	}
}

// InGroup 镜像字段判断：joined_groups 是否包含该群组
func (p *Profile) InGroup(groupID uint32) bool {
	for _, id := range p.JoinedGroups {
		if id == groupID {
			return true
		}
	}
	return false
}

// AddGroup 幂等追加（保持加入顺序），重复加入为空操作
func (p *Profile) AddGroup(groupID uint32) {
	if p.InGroup(groupID) {
		return
	}
	p.JoinedGroups = append(p.JoinedGroups, groupID)
}

// RemoveGroup 删除所有出现位置
func (p *Profile) RemoveGroup(groupID uint32) {
	kept := p.JoinedGroups[:0]
	for _, id := range p.JoinedGroups {
		if id != groupID {
			kept = append(kept, id)
		}
	}
	p.JoinedGroups = kept
}

// IsComplete 一次性完善奖励的判定条件（注意不是按百分比判断）：
// 五个文本字段 + 两张图片均非空，且兴趣标签 >= 3
func (p *Profile) IsComplete() bool {
	for _, s := range []string{p.FirstName, p.LastName, p.Email, p.Country, p.About} {
		if s == "" {
			return false
		}
	}
	if p.ProfileImage == "" || p.BannerImage == "" {
		return false
	}
	return len(p.Interests) >= 3
}

// CompletionPercentage 资料完善度：基础20分，各项各占10分，满分100
func (p *Profile) CompletionPercentage() uint32 {
	percentage := uint32(20)
	if p.FirstName != "" {
		percentage += 10
	}
	if p.LastName != "" {
		percentage += 10
	}
	if p.Email != "" {
		percentage += 10
	}
	if p.Country != "" {
		percentage += 10
	}
	if p.About != "" {
		percentage += 10
	}
	if p.ProfileImage != "" {
		percentage += 10
	}
	if p.BannerImage != "" {
		percentage += 10
	}
	if len(p.Interests) >= 3 {
		percentage += 10
	}
	return percentage
}
