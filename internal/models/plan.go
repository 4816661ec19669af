package models

import "gorm.io/datatypes"

// Plan 订阅套餐，平台共享目录数据
type Plan struct {
	BaseModel
	Name         string            `json:"name" gorm:"unique;not null;size:100" validate:"required,min=2,max=100"`
	Description  string            `json:"description" gorm:"size:500"`
	PriceMonthly float64           `json:"price_monthly" gorm:"not null" validate:"gte=0"`
	PriceYearly  float64           `json:"price_yearly" gorm:"not null" validate:"gte=0"`
	Limits       datatypes.JSONMap `json:"limits" gorm:"type:jsonb"` // 学生数/教师数/存储等配额
	IsActive     bool              `json:"is_active" gorm:"default:true"`
	Position     int               `json:"position" gorm:"default:0;index"` // 展示顺序
}

// TableName 表名
func (p *Plan) TableName() string {
	return "plans"
}
