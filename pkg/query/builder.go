package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Scope 查询片段，纯函数构造，不触发任何IO
type Scope = func(*gorm.DB) *gorm.DB

// ListParams 列表查询通用参数
type ListParams struct {
	Page      int    `json:"page" form:"page"`
	PageSize  int    `json:"page_size" form:"page_size"`
	Search    string `json:"search" form:"search"`
	Sort      string `json:"sort" form:"sort"`           // 高级排序记号：ASC/DESC/POSITION_ASC/POSITION_DESC
	SortBy    string `json:"sort_by" form:"sort_by"`     // 指定排序列，支持一级点路径，如 batch.name
	SortOrder string `json:"sort_order" form:"sort_order"` // asc 或 desc
	IsActive  *bool  `json:"is_active" form:"is_active"`
}

// 高级排序记号到固定列的映射
const (
	SortCreatedAsc   = "ASC"
	SortCreatedDesc  = "DESC"
	SortPositionAsc  = "POSITION_ASC"
	SortPositionDesc = "POSITION_DESC"
)

// Paginate 分页片段，offset = (page-1)*pageSize，永不为负
func Paginate(page, pageSize int) Scope {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(pageSize)
	}
}

// OrderBy 排序片段。优先识别高级排序记号，其次 sort_by/sort_order，
// 都未给出时默认 created_at DESC。sort_by 支持一级点路径（关联表.列）。
func OrderBy(sort, sortBy, sortOrder string) Scope {
	clause := orderClause(sort, sortBy, sortOrder)
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause)
	}
}

func orderClause(sort, sortBy, sortOrder string) string {
	switch sort {
	case SortCreatedAsc:
		return "created_at ASC"
	case SortCreatedDesc:
		return "created_at DESC"
	case SortPositionAsc:
		return "position ASC"
	case SortPositionDesc:
		return "position DESC"
	}

	if sortBy != "" {
		dir := "ASC"
		if strings.EqualFold(sortOrder, "desc") {
			dir = "DESC"
		}
		// 一级点路径：batch.name -> "batches"."name"
		if before, after, found := strings.Cut(sortBy, "."); found {
			return fmt.Sprintf("%q.%q %s", quoteIdent(before), quoteIdent(after), dir)
		}
		return fmt.Sprintf("%q %s", quoteIdent(sortBy), dir)
	}

	return "created_at DESC"
}

// quoteIdent 只允许字母数字下划线，防止排序列注入
func quoteIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "created_at"
	}
	return b.String()
}

// Search 搜索片段：对给定文本列做不区分大小写的子串匹配，OR连接。
// fields为空或无搜索词时不加任何条件。
func Search(fields []string, term string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(fields) == 0 {
			return db
		}
		pattern := "%" + strings.ToLower(escapeLike(term)) + "%"
		conds := make([]string, 0, len(fields))
		args := make([]interface{}, 0, len(fields))
		for _, f := range fields {
			conds = append(conds, fmt.Sprintf("LOWER(%q) LIKE ?", quoteIdent(f)))
			args = append(args, pattern)
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}

// escapeLike 转义LIKE元字符
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ActiveFilter 激活状态过滤片段，nil表示不过滤
func ActiveFilter(isActive *bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if isActive == nil {
			return db
		}
		return db.Where("is_active = ?", *isActive)
	}
}

// Apply 将ListParams一次性展开为完整查询片段组
func Apply(db *gorm.DB, p *ListParams, searchFields []string) *gorm.DB {
	return db.Scopes(
		ActiveFilter(p.IsActive),
		Search(searchFields, p.Search),
		OrderBy(p.Sort, p.SortBy, p.SortOrder),
		Paginate(p.Page, p.PageSize),
	)
}

// ApplyFilters 只展开过滤片段（用于Count等不分页的场景）
func ApplyFilters(db *gorm.DB, p *ListParams, searchFields []string) *gorm.DB {
	return db.Scopes(
		ActiveFilter(p.IsActive),
		Search(searchFields, p.Search),
	)
}
