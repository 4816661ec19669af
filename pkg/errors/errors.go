package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeRateLimited  = 429
	CodeServerError  = 500
)

// ========== 业务错误分类 ==========

// Kind 对外暴露的错误类别，存储层/校验层的原始错误统一归一到这几类
type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindConflict         Kind = "CONFLICT"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidReference Kind = "INVALID_REFERENCE"
	KindForbidden        Kind = "FORBIDDEN"
	KindRateLimited      Kind = "RATE_LIMITED"
	KindInternal         Kind = "INTERNAL"
)

// AppError 带类别的业务错误
type AppError struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"` // 校验错误时列出所有违规字段路径
}

func (e *AppError) Error() string {
	return e.Message
}

// HTTPCode 类别对应的错误码
func (e *AppError) HTTPCode() int {
	switch e.Kind {
	case KindValidation:
		return CodeInvalidParam
	case KindConflict:
		return CodeConflict
	case KindNotFound:
		return CodeNotFound
	case KindInvalidReference:
		return CodeInvalidParam
	case KindForbidden:
		return CodeForbidden
	case KindRateLimited:
		return CodeRateLimited
	default:
		return CodeServerError
	}
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(message string) *AppError {
	return New(KindForbidden, message)
}

func NotFound(message string) *AppError {
	return New(KindNotFound, message)
}

func RateLimited(message string) *AppError {
	return New(KindRateLimited, message)
}

func Internal(message string) *AppError {
	return New(KindInternal, message)
}

// PostgreSQL约束违规错误码
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Normalize 将存储层/校验层错误归一为AppError。
// Internal类错误不携带底层错误文本，由调用方负责把原始错误写入日志。
func Normalize(err error) *AppError {
	if err == nil {
		return nil
	}

	// 已归一的错误原样返回
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// 请求体校验错误：列出全部违规字段
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, fe.Namespace())
		}
		return &AppError{
			Kind:    KindValidation,
			Message: "参数校验失败: " + strings.Join(fields, ", "),
			Fields:  fields,
		}
	}

	// PostgreSQL约束违规
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return Newf(KindConflict, "记录已存在（唯一约束 %s）", pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return Newf(KindInvalidReference, "引用的记录不存在（外键约束 %s）", pgErr.ConstraintName)
		}
	}

	// GORM哨兵错误
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("记录不存在")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return New(KindConflict, "记录已存在")
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return New(KindInvalidReference, "引用的记录不存在")
	}

	// 其余一律视为内部错误，对外只返回通用提示
	return Internal("服务器内部错误")
}
