package models

// Batch 班级/批次，存储在租户专属库
type Batch struct {
	BaseModel
	Name     string `json:"name" gorm:"not null;size:100" validate:"required,min=2,max=100"`
	Code     string `json:"code" gorm:"size:50;index"`
	Position int    `json:"position" gorm:"default:0;index"` // 展示顺序
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

// TableName 表名
func (b *Batch) TableName() string {
	return "batches"
}
