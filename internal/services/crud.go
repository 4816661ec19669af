package services

import (
	"context"

	"eduplat/pkg/query"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CRUDService 通用实体服务。
// 每个实体不再手写一份结构相同的服务类，而是以
// 可搜索列清单为配置实例化本组件；分页/排序/过滤行为
// 全部由 pkg/query 单点定义。
// 数据库句柄由调用方传入：平台实体传平台库，
// 租户实体传请求解析出的租户句柄。
type CRUDService[T any] struct {
	searchFields []string
	validate     *validator.Validate
}

// CRUDStats 实体统计
type CRUDStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

func NewCRUDService[T any](searchFields []string) *CRUDService[T] {
	return &CRUDService[T]{
		searchFields: searchFields,
		validate:     validator.New(),
	}
}

// List 分页列表
func (s *CRUDService[T]) List(db *gorm.DB, params *query.ListParams) ([]*T, int64, error) {
	var items []*T
	var total int64
	var model T

	if err := query.ApplyFilters(db.Model(&model), params, s.searchFields).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Apply(db.Model(&model), params, s.searchFields).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByID 按ID查询
func (s *CRUDService[T]) GetByID(db *gorm.DB, id uint) (*T, error) {
	var item T
	err := db.First(&item, id).Error
	return &item, err
}

// Create 创建实体，入库前做结构校验
func (s *CRUDService[T]) Create(ctx context.Context, db *gorm.DB, item *T) error {
	if err := s.validate.Struct(item); err != nil {
		return err
	}
	return db.WithContext(ctx).Create(item).Error
}

// Update 部分更新后重新校验整体
func (s *CRUDService[T]) Update(ctx context.Context, db *gorm.DB, id uint, updates map[string]interface{}) (*T, error) {
	var item T
	if err := db.First(&item, id).Error; err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := db.First(&item, id).Error; err != nil {
		return nil, err
	}
	if err := s.validate.Struct(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete 删除实体
func (s *CRUDService[T]) Delete(ctx context.Context, db *gorm.DB, id uint) error {
	var item T
	if err := db.First(&item, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(&item).Error
}

// ToggleStatus 翻转激活状态
func (s *CRUDService[T]) ToggleStatus(ctx context.Context, db *gorm.DB, id uint) (*T, error) {
	var item T
	if err := db.First(&item, id).Error; err != nil {
		return nil, err
	}

	err := db.WithContext(ctx).Model(&item).
		UpdateColumn("is_active", gorm.Expr("NOT is_active")).Error
	if err != nil {
		return nil, err
	}

	err = db.First(&item, id).Error
	return &item, err
}

// BulkActivate 批量激活
func (s *CRUDService[T]) BulkActivate(ctx context.Context, db *gorm.DB, ids []uint) error {
	return s.bulkSetActive(ctx, db, ids, true)
}

// BulkDeactivate 批量停用
func (s *CRUDService[T]) BulkDeactivate(ctx context.Context, db *gorm.DB, ids []uint) error {
	return s.bulkSetActive(ctx, db, ids, false)
}

func (s *CRUDService[T]) bulkSetActive(ctx context.Context, db *gorm.DB, ids []uint, active bool) error {
	if len(ids) == 0 {
		return nil
	}
	var model T
	return db.WithContext(ctx).Model(&model).
		Where("id IN ?", ids).Update("is_active", active).Error
}

// BulkDelete 批量删除
func (s *CRUDService[T]) BulkDelete(ctx context.Context, db *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var model T
	return db.WithContext(ctx).Delete(&model, ids).Error
}

// Reorder 按给定顺序重排position列
func (s *CRUDService[T]) Reorder(ctx context.Context, db *gorm.DB, orderedIDs []uint) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	var model T
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&model).Where("id = ?", id).
				Update("position", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetStats 实体统计
func (s *CRUDService[T]) GetStats(db *gorm.DB) (*CRUDStats, error) {
	stats := &CRUDStats{}
	var model T

	if err := db.Model(&model).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model).Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	stats.Inactive = stats.Total - stats.Active
	return stats, nil
}
