package middleware

import (
	"errors"

	"eduplat/internal/models"
	"eduplat/pkg/logger"
	"eduplat/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TenantClientFactory 租户专属库句柄工厂（外部缓存，见 internal/database）
type TenantClientFactory func(tenantID uint) (*gorm.DB, error)

// TenantMiddleware 租户目录与路由中间件。
// 请求状态机：已认证 -> 租户成员（查激活成员+激活租户）-> 已路由（拿到专属库句柄）。
// 任一步失败请求中止，不进入业务逻辑。
type TenantMiddleware struct {
	db            *gorm.DB
	clientFactory TenantClientFactory
}

func NewTenantMiddleware(db *gorm.DB, factory TenantClientFactory) *TenantMiddleware {
	return &TenantMiddleware{
		db:            db,
		clientFactory: factory,
	}
}

// RequireTenantMember 解析当前用户的激活租户成员身份并路由到专属库。
// 无有效成员身份 => 403，在请求任何句柄之前就拒绝；
// 句柄获取失败 => 500，本层不重试。
// 平台管理员路由不经过本中间件，直接使用平台库。
func (m *TenantMiddleware) RequireTenantMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		var membership models.TenantMembership
		err := m.db.
			Joins("JOIN tenants ON tenants.id = tenant_memberships.tenant_id").
			Where("tenant_memberships.user_id = ? AND tenant_memberships.is_active = ?", userID, true).
			Where("tenants.is_active = ? AND tenants.is_suspended = ?", true, false).
			First(&membership).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.Forbidden(c, "需要有效的租户成员身份")
			} else {
				logger.GetLogger().Errorf("resolve tenant membership for user %v: %v", userID, err)
				response.ServerError(c, "租户成员身份解析失败")
			}
			c.Abort()
			return
		}

		tenantDB, err := m.clientFactory(membership.TenantID)
		if err != nil || tenantDB == nil {
			logger.GetLogger().Errorf("obtain tenant %d database handle: %v", membership.TenantID, err)
			response.ServerError(c, "无法连接租户数据库")
			c.Abort()
			return
		}

		c.Set("tenant_id", membership.TenantID)
		c.Set("tenant_db", tenantDB)
		c.Set("is_tenant_admin", membership.IsTenantAdmin)
		c.Set("membership", &membership)

		c.Next()
	}
}

// RequireTenantAdmin 在成员身份之上要求租户管理员角色
func (m *TenantMiddleware) RequireTenantAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get("is_tenant_admin")
		if !exists {
			response.Forbidden(c, "需要有效的租户成员身份")
			c.Abort()
			return
		}

		if !isAdmin.(bool) {
			response.Forbidden(c, "需要租户管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// TenantDB 从gin上下文取出租户专属库句柄
func TenantDB(c *gin.Context) *gorm.DB {
	return c.MustGet("tenant_db").(*gorm.DB)
}
