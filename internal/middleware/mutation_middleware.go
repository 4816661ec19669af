package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"eduplat/pkg/auditctx"
	"eduplat/pkg/ratelimit"
	"eduplat/pkg/response"
	"eduplat/pkg/sanitize"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 变更专用子链：限流 -> 清洗 -> 审计上下文。
// 所有变更路由无论哪个层级都挂这条链，保证变更策略统一执行。

// RateLimit 按操作人身份限流，未认证请求退化为按来源IP
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := "ip:" + c.ClientIP()
		if userID, exists := c.Get("user_id"); exists {
			identifier = fmt.Sprintf("user:%v", userID)
		}

		if err := limiter.Allow(identifier); err != nil {
			response.TooManyRequests(c, "操作过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

// SanitizeBody 对JSON请求体做递归XSS清洗后回填。
// 非JSON或解析失败的请求体原样放行，由后续绑定环节报错。
func SanitizeBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			raw, err := io.ReadAll(c.Request.Body)
			if err != nil {
				response.BadRequest(c, "读取请求体失败")
				c.Abort()
				return
			}

			var decoded interface{}
			if json.Unmarshal(raw, &decoded) == nil {
				if cleaned, err := json.Marshal(sanitize.Value(decoded)); err == nil {
					raw = cleaned
				}
			}

			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			c.Request.ContentLength = int64(len(raw))
		}

		c.Next()
	}
}

// AuditContext 把操作人/租户/来源写入请求context，
// 存储层写钩子据此为审计记录补齐字段，业务代码不感知。
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := auditctx.Info{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: uuid.NewString(),
		}
		if userID, exists := c.Get("user_id"); exists {
			if id, ok := userID.(uint); ok {
				info.UserID = id
			}
		}
		if tenantID, exists := c.Get("tenant_id"); exists {
			if id, ok := tenantID.(uint); ok {
				info.TenantID = id
			}
		}

		c.Request = c.Request.WithContext(auditctx.With(c.Request.Context(), info))
		c.Next()
	}
}

// MutationChain 变更子链的标准顺序
func MutationChain(limiter *ratelimit.Limiter) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		RateLimit(limiter),
		SanitizeBody(),
		AuditContext(),
	}
}
