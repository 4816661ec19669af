package services

import (
	"context"
	"testing"

	"eduplat/internal/models"
	"eduplat/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newUserDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Email: email, Password: hash, Name: "测试用户", IsActive: active}
	require.NoError(t, db.Create(user).Error)
	if !active {
		require.NoError(t, db.Model(user).Update("is_active", false).Error)
	}
	return user
}

func TestAuthenticateSuccess(t *testing.T) {
	db := newUserDB(t)
	created := createUser(t, db, "admin@example.com", "s3cret!pass", true)
	svc := NewUserService(db, nil)

	user, err := svc.Authenticate("admin@example.com", "s3cret!pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

// 用户不存在与密码错误必须返回同一条消息，防止账号枚举
func TestAuthenticateIndistinguishableFailures(t *testing.T) {
	db := newUserDB(t)
	createUser(t, db, "admin@example.com", "s3cret!pass", true)
	svc := NewUserService(db, nil)

	_, errMissing := svc.Authenticate("nobody@example.com", "s3cret!pass")
	require.Error(t, errMissing)

	_, errWrongPass := svc.Authenticate("admin@example.com", "wrong")
	require.Error(t, errWrongPass)

	assert.Equal(t, errors.Normalize(errMissing).Message, errors.Normalize(errWrongPass).Message)
	assert.Equal(t, errors.KindForbidden, errors.Normalize(errMissing).Kind)
}

func TestAuthenticateDisabledUser(t *testing.T) {
	db := newUserDB(t)
	createUser(t, db, "gone@example.com", "s3cret!pass", false)
	svc := NewUserService(db, nil)

	_, err := svc.Authenticate("gone@example.com", "s3cret!pass")
	require.Error(t, err)
	assert.Equal(t, errors.KindForbidden, errors.Normalize(err).Kind)
}

func TestIsTokenRevokedWithoutRedis(t *testing.T) {
	svc := NewUserService(newUserDB(t), nil)

	// 吊销名单不可用时放行
	assert.False(t, svc.IsTokenRevoked(context.Background(), "some-jti"))
	assert.False(t, svc.IsTokenRevoked(context.Background(), ""))
}

func TestHashPasswordNotPlaintext(t *testing.T) {
	hash, err := HashPassword("s3cret!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!pass", hash)
	assert.NotContains(t, hash, "s3cret")
}
