package models

// Student 学生，存储在租户专属库
type Student struct {
	BaseModel
	Name       string `json:"name" gorm:"not null;size:100" validate:"required,min=2,max=100"`
	Email      string `json:"email" gorm:"size:255;index" validate:"omitempty,email"`
	Phone      string `json:"phone" gorm:"size:20"`
	RollNumber string `json:"roll_number" gorm:"size:50;index"`
	BatchID    *uint  `json:"batch_id" gorm:"index"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`

	// 关联
	Batch *Batch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName 表名
func (s *Student) TableName() string {
	return "students"
}
