package errors

import (
	stderrors "errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNormalizeNil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestNormalizePassesThroughAppError(t *testing.T) {
	orig := Forbidden("需要有效的租户成员身份")
	assert.Same(t, orig, Normalize(orig))
}

func TestNormalizeGormSentinels(t *testing.T) {
	assert.Equal(t, KindNotFound, Normalize(gorm.ErrRecordNotFound).Kind)
	assert.Equal(t, KindConflict, Normalize(gorm.ErrDuplicatedKey).Kind)
	assert.Equal(t, KindInvalidReference, Normalize(gorm.ErrForeignKeyViolated).Kind)
}

func TestNormalizePgUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "tenants_slug_key"}
	appErr := Normalize(pgErr)

	assert.Equal(t, KindConflict, appErr.Kind)
	// 冲突信息要指明违反的约束
	assert.Contains(t, appErr.Message, "tenants_slug_key")
}

func TestNormalizePgForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "subscriptions_plan_id_fkey"}
	appErr := Normalize(pgErr)

	assert.Equal(t, KindInvalidReference, appErr.Kind)
	assert.Contains(t, appErr.Message, "subscriptions_plan_id_fkey")
}

func TestNormalizeValidationErrorsListAllFields(t *testing.T) {
	type createTenantRequest struct {
		Name string `validate:"required,min=2"`
		Slug string `validate:"required,alphanum"`
	}

	err := validator.New().Struct(&createTenantRequest{Name: "", Slug: "bad slug"})
	require.Error(t, err)

	appErr := Normalize(err)
	assert.Equal(t, KindValidation, appErr.Kind)
	// 所有违规字段路径都要列出
	require.Len(t, appErr.Fields, 2)
	assert.Contains(t, appErr.Fields[0], "Name")
	assert.Contains(t, appErr.Fields[1], "Slug")
	assert.Contains(t, appErr.Message, "Name")
}

func TestNormalizeUnknownBecomesOpaqueInternal(t *testing.T) {
	raw := stderrors.New("pq: connection reset by peer at 10.1.2.3:5432")
	appErr := Normalize(raw)

	assert.Equal(t, KindInternal, appErr.Kind)
	// 原始存储层错误文本绝不外泄
	assert.NotContains(t, appErr.Message, "pq:")
	assert.NotContains(t, appErr.Message, "10.1.2.3")
}

func TestHTTPCodeMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:       CodeInvalidParam,
		KindConflict:         CodeConflict,
		KindNotFound:         CodeNotFound,
		KindInvalidReference: CodeInvalidParam,
		KindForbidden:        CodeForbidden,
		KindRateLimited:      CodeRateLimited,
		KindInternal:         CodeServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, New(kind, "x").HTTPCode())
	}
}
