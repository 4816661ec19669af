package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog 审计日志。由存储层写回调自动落库，
// 操作人/租户/来源取自请求级审计上下文。
type AuditLog struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"` // 0表示系统/未认证操作
	TenantID    uint           `gorm:"index" json:"tenant_id"`
	IPAddress   string         `gorm:"size:45" json:"ip_address"`
	UserAgent   string         `gorm:"size:500" json:"user_agent"`
	RequestID   string         `gorm:"size:36;index" json:"request_id"`
	Action      string         `gorm:"size:20;not null" json:"action"` // create/update/delete
	EntityTable string         `gorm:"column:table_name;size:100;not null;index" json:"table_name"`
	RowID       uint           `json:"row_id"`
	Diff        datatypes.JSON `gorm:"type:jsonb" json:"diff,omitempty"` // 变更后的值
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}

// 审计动作常量
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)
