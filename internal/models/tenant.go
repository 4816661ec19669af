package models

import "gorm.io/datatypes"

// Tenant 租户模型 - 贫血模型，只包含数据结构。
// 每个租户拥有一个专属数据库，ConnectionString 仅在
// DatabaseStatus 为 active 时非空；专属库未确认删除前，
// 平台记录不允许删除（单个删除路径保证此不变量）。
type Tenant struct {
	BaseModel
	Name             string  `json:"name" gorm:"not null;size:100" validate:"required,min=2,max=100"`
	Slug             string  `json:"slug" gorm:"unique;not null;size:50;index" validate:"required,min=2,max=50,alphanum"`
	CustomDomain     *string `json:"custom_domain" gorm:"size:255"`
	DomainVerified   bool    `json:"domain_verified" gorm:"default:false"`
	Type             string  `json:"type" gorm:"size:20;default:'school'" validate:"omitempty,oneof=school coaching university"`
	IsActive         bool    `json:"is_active" gorm:"default:true"`
	IsSuspended      bool    `json:"is_suspended" gorm:"default:false"`
	DatabaseStatus   string  `json:"database_status" gorm:"size:20;default:'pending';index"`
	ConnectionString *string `json:"-" gorm:"size:500"` // 专属库连接串，不对外暴露

	// 用量计数
	StudentCount int `json:"student_count" gorm:"default:0"`
	TeacherCount int `json:"teacher_count" gorm:"default:0"`
	ExamCount    int `json:"exam_count" gorm:"default:0"`
	StorageMB    int `json:"storage_mb" gorm:"default:0"`

	// 覆盖套餐默认值的自定义配额
	CustomLimits datatypes.JSONMap `json:"custom_limits" gorm:"type:jsonb"`
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// 租户专属库生命周期状态
const (
	DatabaseStatusPending      = "pending"      // 记录已建，库未建
	DatabaseStatusProvisioning = "provisioning" // 外部开通进行中
	DatabaseStatusActive       = "active"       // 库可用，连接串已写入
	DatabaseStatusInactive     = "inactive"     // 主动下线（维护等）
)

// 租户类型常量
const (
	TenantTypeSchool     = "school"
	TenantTypeCoaching   = "coaching"
	TenantTypeUniversity = "university"
)
