package pagination

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// 分页默认值与上限
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams 请求分页参数。只承载页码和页大小，
// 偏移量换算统一由 pkg/query.Paginate 完成。
type PageParams struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// PageInfo 分页元信息，随列表响应返回
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ParsePageParams 从查询串解析分页参数，
// 非法或缺失回退默认值，页大小封顶 MaxPageSize
func ParsePageParams(c *gin.Context) *PageParams {
	return &PageParams{
		Page:     positiveQueryInt(c, "page", DefaultPage, 0),
		PageSize: positiveQueryInt(c, "page_size", DefaultPageSize, MaxPageSize),
	}
}

// positiveQueryInt 解析正整数查询参数，limit为0表示不封顶
func positiveQueryInt(c *gin.Context, key string, def, limit int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return def
	}
	if limit > 0 && v > limit {
		return limit
	}
	return v
}

// NewPageInfo 根据总数计算分页元信息
func NewPageInfo(page, pageSize int, total int64) *PageInfo {
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return &PageInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
