package middleware

import (
	"strings"
	"time"

	"eduplat/internal/services"
	"eduplat/pkg/jwt"
	"eduplat/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 权限中间件
type AuthMiddleware struct {
	userService *services.UserService
	jwtManager  *jwt.Manager
}

func NewAuthMiddleware(userService *services.UserService, jwtManager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// RequireLogin 解析并校验会话，失败即中止。
// 公开路由不挂本中间件。
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从Authorization头获取JWT token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		// 检查Bearer格式
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		// 提取token
		tokenString := authHeader[7:]

		// 验证token
		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		// 吊销名单检查（登出后的令牌立即失效）
		if m.userService.IsTokenRevoked(c.Request.Context(), claims.ID) {
			response.Unauthorized(c, "Token已失效")
			c.Abort()
			return
		}

		// 获取用户信息
		user, err := m.userService.GetByID(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "用户不存在")
			c.Abort()
			return
		}

		// 检查用户状态
		if !m.userService.IsActive(user) {
			response.Unauthorized(c, "用户已被禁用")
			c.Abort()
			return
		}

		// 将用户信息保存到上下文
		c.Set("user", user)
		c.Set("user_id", claims.UserID)
		c.Set("is_platform_admin", user.IsPlatformAdmin)
		c.Set("claims", claims)

		c.Next()
	}
}

// RequirePlatformAdmin 要求平台管理员
func (m *AuthMiddleware) RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get("is_platform_admin")
		if !exists {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !isAdmin.(bool) {
			response.Forbidden(c, "需要平台管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// TokenTTL 当前令牌剩余有效期（登出写吊销名单用）
func TokenTTL(c *gin.Context) time.Duration {
	claimsVal, exists := c.Get("claims")
	if !exists {
		return 0
	}
	claims, ok := claimsVal.(*jwt.Claims)
	if !ok || claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}
