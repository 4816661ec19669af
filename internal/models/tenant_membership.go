package models

import "time"

// TenantMembership 用户-租户关联表。
// 只有存在处于激活状态的成员关系，用户才能获取该租户的专属库句柄。
type TenantMembership struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_tenant" json:"user_id"`
	TenantID      uint      `gorm:"not null;uniqueIndex:idx_user_tenant" json:"tenant_id"`
	Role          string    `gorm:"size:50;default:'member'" json:"role"`
	IsTenantAdmin bool      `gorm:"default:false" json:"is_tenant_admin"` // 是否为该租户管理员
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	JoinedAt      time.Time `gorm:"not null" json:"joined_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"tenant,omitempty"`
}

// TableName 指定表名
func (TenantMembership) TableName() string {
	return "tenant_memberships"
}
