package handlers

import (
	"strconv"

	"eduplat/internal/services"
	"eduplat/pkg/pagination"
	"eduplat/pkg/query"
	"eduplat/pkg/response"

	"github.com/gin-gonic/gin"
)

// BulkIDsRequest 批量操作请求
type BulkIDsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

type TenantHandler struct {
	service *services.TenantService
}

func NewTenantHandler(service *services.TenantService) *TenantHandler {
	return &TenantHandler{
		service: service,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return 0, false
	}
	return uint(id), true
}

// List 分页列表
func (h *TenantHandler) List(c *gin.Context) {
	var params query.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "查询参数错误")
		return
	}
	pageParams := pagination.ParsePageParams(c)
	params.Page = pageParams.Page
	params.PageSize = pageParams.PageSize

	tenants, total, err := h.service.List(&params)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithPage(c, tenants, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// GetByID 获取租户
func (h *TenantHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tenant, err := h.service.GetByID(id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, tenant)
}

// Create 创建租户
func (h *TenantHandler) Create(c *gin.Context) {
	var req services.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tenant, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, tenant)
}

// Update 更新租户
func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req services.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tenant, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, tenant)
}

// Delete 删除租户（专属库确认删除后才删平台记录）
func (h *TenantHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// BulkDelete 批量删除
func (h *TenantHandler) BulkDelete(c *gin.Context) {
	var req BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, "批量删除完成", nil)
}

// Backup 备份租户专属库
func (h *TenantHandler) Backup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.service.Backup(c.Request.Context(), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, result)
}

// Reprovision 重新开通专属库（修复pending/provisioning卡住的租户）
func (h *TenantHandler) Reprovision(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tenant, err := h.service.Reprovision(c.Request.Context(), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, tenant)
}

// ToggleStatus 翻转激活状态
func (h *TenantHandler) ToggleStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tenant, err := h.service.ToggleStatus(c.Request.Context(), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, tenant)
}

// BulkActivate 批量激活
func (h *TenantHandler) BulkActivate(c *gin.Context) {
	var req BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.BulkActivate(c.Request.Context(), req.IDs); err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, "批量激活完成", nil)
}

// BulkDeactivate 批量停用
func (h *TenantHandler) BulkDeactivate(c *gin.Context) {
	var req BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.BulkDeactivate(c.Request.Context(), req.IDs); err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, "批量停用完成", nil)
}

// GetStats 租户统计
func (h *TenantHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats()
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, stats)
}
