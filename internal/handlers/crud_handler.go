package handlers

import (
	"context"

	"eduplat/internal/services"
	"eduplat/pkg/pagination"
	"eduplat/pkg/query"
	"eduplat/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DBResolver 解析本次请求应使用的数据库句柄：
// 平台实体固定平台库，租户实体取中间件路由出的专属库句柄
type DBResolver func(c *gin.Context) *gorm.DB

// CRUDHandler 通用实体接口层，围绕 CRUDService 的薄封装。
// 每个实体只差可搜索列和句柄来源两项配置。
type CRUDHandler[T any] struct {
	service   *services.CRUDService[T]
	resolveDB DBResolver
}

func NewCRUDHandler[T any](service *services.CRUDService[T], resolveDB DBResolver) *CRUDHandler[T] {
	return &CRUDHandler[T]{
		service:   service,
		resolveDB: resolveDB,
	}
}

// ReorderRequest 重排请求
type ReorderRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// 更新请求体里不允许触碰的列
var protectedColumns = []string{"id", "created_at", "updated_at"}

// List 分页列表
func (h *CRUDHandler[T]) List(c *gin.Context) {
	var params query.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "查询参数错误")
		return
	}
	pageParams := pagination.ParsePageParams(c)
	params.Page = pageParams.Page
	params.PageSize = pageParams.PageSize

	items, total, err := h.service.List(h.resolveDB(c), &params)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithPage(c, items, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// GetByID 按ID查询
func (h *CRUDHandler[T]) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.service.GetByID(h.resolveDB(c), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, item)
}

// Create 创建实体
func (h *CRUDHandler[T]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.Create(c.Request.Context(), h.resolveDB(c), &item); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, item)
}

// Update 部分更新
func (h *CRUDHandler[T]) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	for _, col := range protectedColumns {
		delete(updates, col)
	}

	item, err := h.service.Update(c.Request.Context(), h.resolveDB(c), id, updates)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, item)
}

// Delete 删除实体
func (h *CRUDHandler[T]) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.resolveDB(c), id); err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ToggleStatus 翻转激活状态
func (h *CRUDHandler[T]) ToggleStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.service.ToggleStatus(c.Request.Context(), h.resolveDB(c), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, item)
}

// BulkActivate 批量激活
func (h *CRUDHandler[T]) BulkActivate(c *gin.Context) {
	h.bulk(c, h.service.BulkActivate, "批量激活完成")
}

// BulkDeactivate 批量停用
func (h *CRUDHandler[T]) BulkDeactivate(c *gin.Context) {
	h.bulk(c, h.service.BulkDeactivate, "批量停用完成")
}

// BulkDelete 批量删除
func (h *CRUDHandler[T]) BulkDelete(c *gin.Context) {
	h.bulk(c, h.service.BulkDelete, "批量删除完成")
}

func (h *CRUDHandler[T]) bulk(c *gin.Context, op func(ctx context.Context, db *gorm.DB, ids []uint) error, okMsg string) {
	var req BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := op(c.Request.Context(), h.resolveDB(c), req.IDs); err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, okMsg, nil)
}

// Reorder 重排展示顺序
func (h *CRUDHandler[T]) Reorder(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.Reorder(c.Request.Context(), h.resolveDB(c), req.IDs); err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, "排序已更新", nil)
}

// GetStats 实体统计
func (h *CRUDHandler[T]) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(h.resolveDB(c))
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, stats)
}

// Register 挂载标准实体路由，变更路由统一套变更子链
func (h *CRUDHandler[T]) Register(group *gin.RouterGroup, mutation []gin.HandlerFunc) {
	group.GET("", h.List)
	group.GET("/stats", h.GetStats)
	group.GET("/:id", h.GetByID)

	group.POST("", append(append([]gin.HandlerFunc{}, mutation...), h.Create)...)
	group.PUT("/:id", append(append([]gin.HandlerFunc{}, mutation...), h.Update)...)
	group.DELETE("/:id", append(append([]gin.HandlerFunc{}, mutation...), h.Delete)...)
	group.POST("/:id/toggle-status", append(append([]gin.HandlerFunc{}, mutation...), h.ToggleStatus)...)
	group.POST("/bulk-activate", append(append([]gin.HandlerFunc{}, mutation...), h.BulkActivate)...)
	group.POST("/bulk-deactivate", append(append([]gin.HandlerFunc{}, mutation...), h.BulkDeactivate)...)
	group.POST("/bulk-delete", append(append([]gin.HandlerFunc{}, mutation...), h.BulkDelete)...)
	group.POST("/reorder", append(append([]gin.HandlerFunc{}, mutation...), h.Reorder)...)
}
