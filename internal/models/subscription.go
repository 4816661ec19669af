package models

import "time"

// Subscription 租户订阅，与租户一对一。
// 价格在分配时刻快照到本记录，套餐后续调价不影响已签约租户的账单。
type Subscription struct {
	BaseModel
	TenantID           uint      `json:"tenant_id" gorm:"not null;uniqueIndex"`
	PlanID             uint      `json:"plan_id" gorm:"not null;index"`
	BillingCycle       string    `json:"billing_cycle" gorm:"size:20;default:'monthly'"` // monthly 或 yearly
	CurrentPeriodStart time.Time `json:"current_period_start" gorm:"not null"`
	CurrentPeriodEnd   time.Time `json:"current_period_end" gorm:"not null"`
	PricePerMonth      float64   `json:"price_per_month" gorm:"not null"` // 签约时快照
	PricePerYear       float64   `json:"price_per_year" gorm:"not null"`  // 签约时快照
	Status             string    `json:"status" gorm:"size:20;default:'active'"`

	// 关联
	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"tenant,omitempty"`
	Plan   Plan   `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// 计费周期常量
const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)
