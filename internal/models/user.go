package models

// User 平台用户
type User struct {
	BaseModel
	Email           string `json:"email" gorm:"unique;not null;size:255;index" validate:"required,email"`
	Name            string `json:"name" gorm:"not null;size:100" validate:"required,min=2,max=100"`
	Password        string `json:"-" gorm:"not null;size:255"` // bcrypt哈希
	IsPlatformAdmin bool   `json:"is_platform_admin" gorm:"default:false"`
	IsActive        bool   `json:"is_active" gorm:"default:true"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}
