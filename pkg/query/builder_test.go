package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type course struct {
	ID        uint `gorm:"primarykey"`
	Name      string
	Code      string
	Position  int
	IsActive  bool
	CreatedAt time.Time
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&course{}))
	return db
}

func seedCourses(t *testing.T, db *gorm.DB) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []*course{
		{Name: "Algebra Basics", Code: "MATH1", Position: 3, IsActive: true, CreatedAt: base},
		{Name: "English Grammar", Code: "ENG1", Position: 1, IsActive: true, CreatedAt: base.Add(time.Hour)},
		{Name: "Physics Lab", Code: "PHY1", Position: 4, IsActive: false, CreatedAt: base.Add(2 * time.Hour)},
		{Name: "advanced algebra", Code: "MATH2", Position: 2, IsActive: true, CreatedAt: base.Add(3 * time.Hour)},
		{Name: "Chemistry", Code: "CHEM1", Position: 5, IsActive: true, CreatedAt: base.Add(4 * time.Hour)},
	}
	require.NoError(t, db.Create(&rows).Error)
}

func TestPaginateOffset(t *testing.T) {
	db := newTestDB(t)
	seedCourses(t, db)

	// offset = (page-1)*pageSize，默认按created_at DESC
	var page2 []course
	err := db.Model(&course{}).
		Scopes(OrderBy("", "", ""), Paginate(2, 2)).
		Find(&page2).Error
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "Physics Lab", page2[0].Name)
	assert.Equal(t, "English Grammar", page2[1].Name)
}

func TestPaginateNeverNegativeOffset(t *testing.T) {
	db := newTestDB(t)
	seedCourses(t, db)

	// page<1 和 pageSize<1 都回落到合法值，offset不为负
	var rows []course
	err := db.Model(&course{}).
		Scopes(OrderBy("", "", ""), Paginate(0, -5)).
		Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestSearchCaseInsensitiveSubstring(t *testing.T) {
	db := newTestDB(t)
	seedCourses(t, db)

	var rows []course
	err := db.Model(&course{}).
		Scopes(Search([]string{"name", "code"}, "ALGEBRA")).
		Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 2) // Algebra Basics + advanced algebra

	// 搜索词同时命中另一列
	rows = nil
	err = db.Model(&course{}).
		Scopes(Search([]string{"name", "code"}, "chem")).
		Find(&rows).Error
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CHEM1", rows[0].Code)
}

func TestSearchEmptyTermIsNoop(t *testing.T) {
	db := newTestDB(t)
	seedCourses(t, db)

	var rows []course
	err := db.Model(&course{}).
		Scopes(Search([]string{"name"}, "")).
		Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestActiveFilter(t *testing.T) {
	db := newTestDB(t)
	seedCourses(t, db)

	active := true
	var rows []course
	err := db.Model(&course{}).Scopes(ActiveFilter(&active)).Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	inactive := false
	rows = nil
	err = db.Model(&course{}).Scopes(ActiveFilter(&inactive)).Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// nil 不过滤
	rows = nil
	err = db.Model(&course{}).Scopes(ActiveFilter(nil)).Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestOrderByTokens(t *testing.T) {
	db := newTestDB(t)
	seedCourses(t, db)

	var rows []course
	err := db.Model(&course{}).Scopes(OrderBy(SortPositionAsc, "", "")).Find(&rows).Error
	require.NoError(t, err)
	assert.Equal(t, "English Grammar", rows[0].Name)

	rows = nil
	err = db.Model(&course{}).Scopes(OrderBy(SortCreatedAsc, "", "")).Find(&rows).Error
	require.NoError(t, err)
	assert.Equal(t, "Algebra Basics", rows[0].Name)
}

func TestOrderBySortByPair(t *testing.T) {
	db := newTestDB(t)
	seedCourses(t, db)

	var rows []course
	err := db.Model(&course{}).Scopes(OrderBy("", "name", "desc")).Find(&rows).Error
	require.NoError(t, err)
	assert.Equal(t, "advanced algebra", rows[0].Name)
}

func TestOrderByDottedPath(t *testing.T) {
	db := newTestDB(t)

	// 一级点路径展开成 关联表.列
	stmt := db.Session(&gorm.Session{DryRun: true}).
		Model(&course{}).
		Scopes(OrderBy("", "batches.name", "desc")).
		Find(&[]course{}).Statement
	assert.Contains(t, stmt.SQL.String(), `"batches"."name" DESC`)
}

func TestOrderByRejectsInjection(t *testing.T) {
	db := newTestDB(t)

	stmt := db.Session(&gorm.Session{DryRun: true}).
		Model(&course{}).
		Scopes(OrderBy("", "name; DROP TABLE courses--", "asc")).
		Find(&[]course{}).Statement
	assert.NotContains(t, stmt.SQL.String(), "DROP TABLE")
}
