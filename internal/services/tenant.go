package services

import (
	"context"
	"fmt"
	"time"

	"eduplat/internal/models"
	"eduplat/pkg/errors"
	"eduplat/pkg/logger"
	"eduplat/pkg/query"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Provisioner 租户专属库的外部开通/销毁/备份操作。
// 具体实现视为不透明协作方（见 internal/provision），
// 是否幂等、内部是否重试均不在本层关心。
type Provisioner interface {
	ProvisionTenantDB(ctx context.Context, tenantID uint) (connString string, err error)
	DeleteTenantDB(ctx context.Context, tenantID uint) error
	BackupTenantDB(ctx context.Context, tenantID uint) (artifact string, err error)
}

// TenantService 租户生命周期编排器：
// 协调平台记录的事务性写入与租户专属库的非事务外部操作。
type TenantService struct {
	db          *gorm.DB
	provisioner Provisioner
	validate    *validator.Validate
}

// 租户列表的可搜索文本列
var tenantSearchFields = []string{"name", "slug"}

func NewTenantService(db *gorm.DB, provisioner Provisioner) *TenantService {
	return &TenantService{
		db:          db,
		provisioner: provisioner,
		validate:    validator.New(),
	}
}

// CreateTenantRequest 创建租户请求
type CreateTenantRequest struct {
	Name         string            `json:"name" validate:"required,min=2,max=100"`
	Slug         string            `json:"slug" validate:"required,min=2,max=50,alphanum"`
	Type         string            `json:"type" validate:"omitempty,oneof=school coaching university"`
	CustomDomain *string           `json:"custom_domain" validate:"omitempty,fqdn"`
	CustomLimits map[string]interface{} `json:"custom_limits"`
	PlanID       *uint             `json:"plan_id"`
	BillingCycle string            `json:"billing_cycle" validate:"omitempty,oneof=monthly yearly"`
}

// UpdateTenantRequest 更新租户请求，只更新非nil字段，不触碰专属库
type UpdateTenantRequest struct {
	Name         *string                `json:"name" validate:"omitempty,min=2,max=100"`
	Type         *string                `json:"type" validate:"omitempty,oneof=school coaching university"`
	CustomDomain *string                `json:"custom_domain" validate:"omitempty,fqdn"`
	CustomLimits map[string]interface{} `json:"custom_limits"`
	IsSuspended  *bool                  `json:"is_suspended"`
}

// BackupResult 备份结果。未开通过专属库的租户备份返回 success=false，
// 属正常结果而非错误。
type BackupResult struct {
	Success  bool   `json:"success"`
	Artifact string `json:"artifact,omitempty"`
}

// TenantStats 租户统计信息
type TenantStats struct {
	Total     int64          `json:"total"`
	Active    int64          `json:"active"`
	Suspended int64          `json:"suspended"`
	ByStatus  []*StatusCount `json:"by_status"`
}

// StatusCount 专属库状态分布统计
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// List 组合查询（分页版本）
func (s *TenantService) List(params *query.ListParams) ([]*models.Tenant, int64, error) {
	var tenants []*models.Tenant
	var total int64

	base := s.db.Model(&models.Tenant{})
	if err := query.ApplyFilters(base.Session(&gorm.Session{}), params, tenantSearchFields).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Apply(s.db.Model(&models.Tenant{}), params, tenantSearchFields).
		Find(&tenants).Error
	if err != nil {
		return nil, 0, err
	}

	return tenants, total, nil
}

// GetByID 根据ID获取租户
func (s *TenantService) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	return &tenant, err
}

// Create 创建租户。
// 平台记录与订阅在一个事务内落库（记录是"租户存在"的唯一事实来源）；
// 专属库开通在事务外执行，失败只记日志不向调用方传播——
// 记录保持在pending状态，后续由Reprovision修复，
// 避免开通失败把已录入的业务数据一并丢掉。
func (s *TenantService) Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	tenantType := req.Type
	if tenantType == "" {
		tenantType = models.TenantTypeSchool
	}

	tenant := &models.Tenant{
		Name:           req.Name,
		Slug:           req.Slug,
		Type:           tenantType,
		CustomDomain:   req.CustomDomain,
		IsActive:       true,
		DatabaseStatus: models.DatabaseStatusPending,
		CustomLimits:   datatypes.JSONMap(req.CustomLimits),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}

		if req.PlanID != nil {
			var plan models.Plan
			if err := tx.First(&plan, *req.PlanID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return errors.Newf(errors.KindInvalidReference, "套餐 %d 不存在", *req.PlanID)
				}
				return err
			}

			cycle := req.BillingCycle
			if cycle == "" {
				cycle = models.BillingCycleMonthly
			}

			now := time.Now()
			sub := &models.Subscription{
				TenantID:           tenant.ID,
				PlanID:             plan.ID,
				BillingCycle:       cycle,
				CurrentPeriodStart: now,
				CurrentPeriodEnd:   now.AddDate(0, 1, 0),
				// 价格快照：套餐日后调价不影响本租户已签约价格
				PricePerMonth: plan.PriceMonthly,
				PricePerYear:  plan.PriceYearly,
				Status:        "active",
			}
			if err := tx.Create(sub).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事务外开通专属库；失败不回滚也不传播
	if err := s.provision(ctx, tenant.ID); err != nil {
		logger.GetLogger().Errorf("provision tenant %d database failed (left pending, repair via reprovision): %v", tenant.ID, err)
	}

	// 返回最新状态
	return s.GetByID(tenant.ID)
}

// provision 执行外部开通并推进专属库状态机：
// pending -> provisioning -> active（写入连接串），失败退回pending。
func (s *TenantService) provision(ctx context.Context, tenantID uint) error {
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Tenant{}).Where("id = ?", tenantID).
		Update("database_status", models.DatabaseStatusProvisioning).Error; err != nil {
		return err
	}

	connString, err := s.provisioner.ProvisionTenantDB(ctx, tenantID)
	if err != nil {
		if dbErr := db.Model(&models.Tenant{}).Where("id = ?", tenantID).
			Update("database_status", models.DatabaseStatusPending).Error; dbErr != nil {
			logger.GetLogger().Errorf("reset tenant %d database status failed: %v", tenantID, dbErr)
		}
		return err
	}

	return db.Model(&models.Tenant{}).Where("id = ?", tenantID).Updates(map[string]interface{}{
		"database_status":   models.DatabaseStatusActive,
		"connection_string": connString,
	}).Error
}

// Update 更新平台记录，不触碰专属库
func (s *TenantService) Update(ctx context.Context, id uint, req *UpdateTenantRequest) (*models.Tenant, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var tenant models.Tenant
	if err := s.db.First(&tenant, id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.CustomDomain != nil {
		// 换域名后需要重新验证
		updates["custom_domain"] = *req.CustomDomain
		updates["domain_verified"] = false
	}
	if req.CustomLimits != nil {
		updates["custom_limits"] = datatypes.JSONMap(req.CustomLimits)
	}
	if req.IsSuspended != nil {
		updates["is_suspended"] = *req.IsSuspended
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&tenant).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetByID(id)
}

// Delete 删除租户。
// 顺序不变量：专属库确认删除成功（或从未开通）之前，绝不删平台记录，
// 否则会留下无人指向、无法再删的孤儿库。
func (s *TenantService) Delete(ctx context.Context, id uint) error {
	var tenant models.Tenant
	if err := s.db.First(&tenant, id).Error; err != nil {
		return err
	}

	if tenant.ConnectionString != nil {
		if err := s.provisioner.DeleteTenantDB(ctx, tenant.ID); err != nil {
			// 专属库删除失败则整个删除中止
			return fmt.Errorf("delete tenant %d database: %w", tenant.ID, err)
		}
	}

	return s.db.WithContext(ctx).Delete(&models.Tenant{}, id).Error
}

// BulkDelete 批量删除（运维清理动作）。
// 与单个删除相反：专属库逐个尽力删除，单个失败只记日志不阻断其他租户，
// 最后无条件删除所有请求的平台记录。这种不对称是有意为之的产品行为。
func (s *TenantService) BulkDelete(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	var provisioned []*models.Tenant
	if err := s.db.Where("id IN ? AND connection_string IS NOT NULL", ids).
		Find(&provisioned).Error; err != nil {
		return err
	}

	for _, tenant := range provisioned {
		if err := s.provisioner.DeleteTenantDB(ctx, tenant.ID); err != nil {
			logger.GetLogger().Errorf("bulk delete: drop tenant %d database failed: %v", tenant.ID, err)
		}
	}

	return s.db.WithContext(ctx).Delete(&models.Tenant{}, ids).Error
}

// Backup 备份租户专属库。从未开通的租户返回 success=false，不报错。
func (s *TenantService) Backup(ctx context.Context, id uint) (*BackupResult, error) {
	var tenant models.Tenant
	if err := s.db.First(&tenant, id).Error; err != nil {
		return nil, err
	}

	if tenant.ConnectionString == nil {
		return &BackupResult{Success: false}, nil
	}

	artifact, err := s.provisioner.BackupTenantDB(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	return &BackupResult{Success: true, Artifact: artifact}, nil
}

// Reprovision 对卡在非active状态的租户重新执行外部开通，
// 不触碰平台记录的其他字段。失败对调用方可见（修复操作需要反馈）。
func (s *TenantService) Reprovision(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.First(&tenant, id).Error; err != nil {
		return nil, err
	}

	if err := s.provision(ctx, tenant.ID); err != nil {
		logger.GetLogger().Errorf("reprovision tenant %d database failed: %v", tenant.ID, err)
		return nil, errors.Internal("租户数据库开通失败")
	}

	return s.GetByID(id)
}

// ToggleStatus 翻转激活状态，纯平台记录操作
func (s *TenantService) ToggleStatus(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.First(&tenant, id).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&tenant).
		Update("is_active", !tenant.IsActive).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// BulkActivate 批量激活，纯平台记录操作
func (s *TenantService) BulkActivate(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id IN ?", ids).Update("is_active", true).Error
}

// BulkDeactivate 批量停用，纯平台记录操作
func (s *TenantService) BulkDeactivate(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id IN ?", ids).Update("is_active", false).Error
}

// ListActiveProvisioned 所有已开通且激活的租户（备份调度用）
func (s *TenantService) ListActiveProvisioned() ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	err := s.db.
		Where("is_active = ? AND database_status = ?", true, models.DatabaseStatusActive).
		Order("created_at DESC").
		Find(&tenants).Error
	return tenants, err
}

// GetStats 获取租户统计
func (s *TenantService) GetStats() (*TenantStats, error) {
	stats := &TenantStats{}

	if err := s.db.Model(&models.Tenant{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	s.db.Model(&models.Tenant{}).Where("is_active = ?", true).Count(&stats.Active)
	s.db.Model(&models.Tenant{}).Where("is_suspended = ?", true).Count(&stats.Suspended)

	// 专属库状态分布
	err := s.db.Model(&models.Tenant{}).
		Select("database_status as status, COUNT(*) as count").
		Group("database_status").
		Find(&stats.ByStatus).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
