package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"eduplat/internal/models"
	"eduplat/pkg/errors"
	"eduplat/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newDirectoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.TenantMembership{},
	))
	return db
}

func seedMembership(t *testing.T, db *gorm.DB, userID uint, tenantActive, suspended, memberActive, tenantAdmin bool) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{
		Name:        fmt.Sprintf("学校-%d", userID),
		Slug:        fmt.Sprintf("school%d", userID),
		Type:        models.TenantTypeSchool,
		IsActive:    tenantActive,
		IsSuspended: suspended,
	}
	require.NoError(t, db.Create(tenant).Error)
	if !tenantActive {
		require.NoError(t, db.Model(tenant).Update("is_active", false).Error)
	}

	m := &models.TenantMembership{
		UserID:        userID,
		TenantID:      tenant.ID,
		IsTenantAdmin: tenantAdmin,
		IsActive:      memberActive,
	}
	require.NoError(t, db.Create(m).Error)
	if !memberActive {
		require.NoError(t, db.Model(m).Update("is_active", false).Error)
	}
	return tenant
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func doTenantRequest(t *testing.T, db *gorm.DB, factory TenantClientFactory, userID interface{}) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()
	mw := NewTenantMiddleware(db, factory)

	r := gin.New()
	if userID != nil {
		r.Use(func(c *gin.Context) { c.Set("user_id", userID) })
	}
	r.GET("/probe", mw.RequireTenantMember(), func(c *gin.Context) {
		// 路由成功后必须能拿到专属库句柄
		require.NotNil(t, TenantDB(c))
		response.Success(c, gin.H{"tenant_id": c.MustGet("tenant_id")})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, &env
}

func TestRequireTenantMemberWithoutLogin(t *testing.T) {
	db := newDirectoryDB(t)
	factoryCalls := 0
	factory := func(tenantID uint) (*gorm.DB, error) {
		factoryCalls++
		return db, nil
	}

	_, env := doTenantRequest(t, db, factory, nil)
	assert.Equal(t, errors.CodeUnauthorized, env.Code)
	assert.Zero(t, factoryCalls)
}

func TestRequireTenantMemberNoMembership(t *testing.T) {
	db := newDirectoryDB(t)

	// 没有任何成员记录的用户：403，且不请求任何专属库句柄
	factoryCalls := 0
	factory := func(tenantID uint) (*gorm.DB, error) {
		factoryCalls++
		return db, nil
	}

	_, env := doTenantRequest(t, db, factory, uint(7))
	assert.Equal(t, errors.CodeForbidden, env.Code)
	assert.Zero(t, factoryCalls)
}

func TestRequireTenantMemberInactiveMembership(t *testing.T) {
	db := newDirectoryDB(t)
	seedMembership(t, db, 8, true, false, false, false)

	factoryCalls := 0
	factory := func(tenantID uint) (*gorm.DB, error) {
		factoryCalls++
		return db, nil
	}

	_, env := doTenantRequest(t, db, factory, uint(8))
	assert.Equal(t, errors.CodeForbidden, env.Code)
	assert.Zero(t, factoryCalls)
}

func TestRequireTenantMemberSuspendedTenant(t *testing.T) {
	db := newDirectoryDB(t)
	seedMembership(t, db, 9, true, true, true, false)

	factoryCalls := 0
	factory := func(tenantID uint) (*gorm.DB, error) {
		factoryCalls++
		return db, nil
	}

	_, env := doTenantRequest(t, db, factory, uint(9))
	assert.Equal(t, errors.CodeForbidden, env.Code)
	assert.Zero(t, factoryCalls)
}

func TestRequireTenantMemberRoutesToTenantDB(t *testing.T) {
	db := newDirectoryDB(t)
	tenant := seedMembership(t, db, 10, true, false, true, false)

	var requestedTenant uint
	factory := func(tenantID uint) (*gorm.DB, error) {
		requestedTenant = tenantID
		return db, nil
	}

	_, env := doTenantRequest(t, db, factory, uint(10))
	assert.Equal(t, errors.CodeSuccess, env.Code)
	assert.Equal(t, tenant.ID, requestedTenant)
}

func TestRequireTenantMemberFactoryFailure(t *testing.T) {
	db := newDirectoryDB(t)
	seedMembership(t, db, 11, true, false, true, false)

	factory := func(tenantID uint) (*gorm.DB, error) {
		return nil, fmt.Errorf("dial tcp: connection refused")
	}

	_, env := doTenantRequest(t, db, factory, uint(11))
	assert.Equal(t, errors.CodeServerError, env.Code)
	// 内部错误细节不外泄
	assert.NotContains(t, env.Message, "dial tcp")
}

func TestRequireTenantAdmin(t *testing.T) {
	db := newDirectoryDB(t)
	seedMembership(t, db, 12, true, false, true, false)
	seedMembership(t, db, 13, true, false, true, true)

	factory := func(tenantID uint) (*gorm.DB, error) { return db, nil }
	mw := NewTenantMiddleware(db, factory)

	run := func(userID uint) *envelope {
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set("user_id", userID) })
		r.GET("/probe", mw.RequireTenantMember(), mw.RequireTenantAdmin(), func(c *gin.Context) {
			response.Success(c, nil)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		return &env
	}

	assert.Equal(t, errors.CodeForbidden, run(12).Code)
	assert.Equal(t, errors.CodeSuccess, run(13).Code)
}
