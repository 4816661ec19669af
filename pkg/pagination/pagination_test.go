package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func queryCtx(rawQuery string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
	}{
		{"缺省值", "", DefaultPage, DefaultPageSize},
		{"正常参数", "page=3&page_size=25", 3, 25},
		{"非数字回退默认", "page=abc&page_size=xyz", DefaultPage, DefaultPageSize},
		{"负数回退默认", "page=-1&page_size=-5", DefaultPage, DefaultPageSize},
		{"零回退默认", "page=0&page_size=0", DefaultPage, DefaultPageSize},
		{"页大小封顶", "page=1&page_size=9999", 1, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePageParams(queryCtx(tt.query))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.pageSize, p.PageSize)
		})
	}
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(2, 10, 25)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	first := NewPageInfo(1, 10, 25)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)

	last := NewPageInfo(3, 10, 25)
	assert.False(t, last.HasNext)

	empty := NewPageInfo(1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}
