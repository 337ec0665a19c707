package model

import "time"

// MemberMap 内嵌成员表：账号 -> 角色，以JSON列存储
type MemberMap map[string]ProfileRole

type Group struct {
	ID            uint32    `gorm:"primaryKey;autoIncrement:false" json:"id"` // 由计数器分配，不用自增
	Name          string    `gorm:"size:64;not null;index" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Website       string    `json:"website"`
	Image         string    `json:"image"` // IPFS 图片地址
	BannerImage   string    `json:"banner_image"`
	MatrixSpaceID string    `gorm:"size:128" json:"matrix_space_id"`
	Owner         string    `gorm:"size:64;not null;index" json:"owner"`
	CreatedBy     string    `gorm:"size:64;not null" json:"created_by"`
	Members       MemberMap `gorm:"serializer:json" json:"members"`
	IsDeleted     bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GroupCounter 群组ID分配器：单行计数器，从0开始，只增不减
// 只有创建事务成功提交才会+1，失败的创建不会留下空洞
type GroupCounter struct {
	ID     uint32 `gorm:"primaryKey"`
	NextID uint32 `gorm:"not null;default:0"`
}

func (GroupCounter) TableName() string { return "group_counter" }

// GroupUpdate 部分更新请求体：owner / created_by / members / is_deleted 不经过该路径
type GroupUpdate struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Website       *string `json:"website"`
	Image         *string `json:"image"`
	BannerImage   *string `json:"banner_image"`
	MatrixSpaceID *string `json:"matrix_space_id"`
}

func (g *Group) ApplyUpdate(u GroupUpdate) {
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.Description != nil {
		g.Description = *u.Description
	}
	if u.Website != nil {
		g.Website = *u.Website
	}
	if u.Image != nil {
		g.Image = *u.Image
	}
	if u.BannerImage != nil {
		g.BannerImage = *u.BannerImage
	}
	if u.MatrixSpaceID != nil {
		g.MatrixSpaceID = *u.MatrixSpaceID
	}
}

// NewMemberMap 建群时初始化成员表：创建者即owner
func NewMemberMap(owner string) MemberMap {
	return MemberMap{owner: RoleOwner}
}

func (g *Group) IsMember(account string) bool {
	_, ok := g.Members[account]
	return ok
}

func (g *Group) AddMember(account string, role ProfileRole) {
	if g.Members == nil {
		g.Members = MemberMap{}
	}
	g.Members[account] = role
}

func (g *Group) RemoveMember(account string) {
	delete(g.Members, account)
}

// SetOwner 重新指定owner并把新owner在成员表里升级（不存在则插入）
// 旧owner的角色保持不变，因此群里可能同时存在两个owner角色
func (g *Group) SetOwner(account string) {
	g.Owner = account
	g.AddMember(account, RoleOwner)
}

func (g *Group) MemberCount() int {
	return len(g.Members)
}

// GroupView 对外返回的群组视图（不含完整成员表，只带数量）
type GroupView struct {
	ID            uint32    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Website       string    `json:"website"`
	Image         string    `json:"image"`
	BannerImage   string    `json:"banner_image"`
	MatrixSpaceID string    `json:"matrix_space_id"`
	Owner         string    `json:"owner"`
	CreatedBy     string    `json:"created_by"`
	IsDeleted     bool      `json:"is_deleted"`
	MembersCount  int       `json:"members_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewGroupView(g *Group) GroupView {
	return GroupView{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		Website:       g.Website,
		Image:         g.Image,
		BannerImage:   g.BannerImage,
		MatrixSpaceID: g.MatrixSpaceID,
		Owner:         g.Owner,
		CreatedBy:     g.CreatedBy,
		IsDeleted:     g.IsDeleted,
		MembersCount:  g.MemberCount(),
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}
