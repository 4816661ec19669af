package router

import (
	"time"

	"eduplat/internal/database"
	"eduplat/internal/handlers"
	"eduplat/internal/middleware"
	"eduplat/internal/models"
	"eduplat/internal/provision"
	"eduplat/internal/services"
	"eduplat/pkg/config"
	"eduplat/pkg/jwt"
	"eduplat/pkg/ratelimit"
	"eduplat/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 全局中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由。请求管道分层：
//
//	public    -> 无任何检查
//	protected -> 会话已解析（RequireLogin）
//	admin     -> protected + 平台管理员
//	tenant    -> protected + 租户成员身份 + 专属库路由
//	tenantAdmin -> tenant + 租户管理员
//
// 所有变更路由额外套统一的变更子链：限流 -> 清洗 -> 审计上下文。
func registerRoutes(router *gin.Engine) {
	cfg := config.GetConfig()
	db := database.GetDB()

	userService := services.NewUserService(db, database.GetRedis())
	auth := middleware.NewAuthMiddleware(userService, jwt.GetManager())
	tenantMW := middleware.NewTenantMiddleware(db, database.GetTenantClient)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.MutationLimit,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	mutation := middleware.MutationChain(limiter)

	// API路由组
	api := router.Group("/api/v1")

	// ===== public层 =====
	api.GET("/health", healthCheck)
	api.GET("/ping", ping)

	authHandler := handlers.NewAuthHandler(userService, jwt.GetManager())
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", middleware.RateLimit(limiter), authHandler.Login) // 未认证按IP限流
		authGroup.POST("/logout", auth.RequireLogin(), authHandler.Logout)
		authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
	}

	// ===== protected层 =====
	protected := api.Group("")
	protected.Use(auth.RequireLogin())

	// 套餐目录：登录可读
	planService := services.NewCRUDService[models.Plan]([]string{"name", "description"})
	planHandler := handlers.NewCRUDHandler(planService, platformDB)
	protected.GET("/plans", planHandler.List)
	protected.GET("/plans/:id", planHandler.GetByID)

	// ===== admin层（平台管理员）=====
	admin := api.Group("")
	admin.Use(auth.RequireLogin(), auth.RequirePlatformAdmin())

	// 租户生命周期（核心编排器的对外面）
	provisioner := provision.NewPostgresProvisioner(cfg)
	tenantService := services.NewTenantService(db, provisioner)
	tenantHandler := handlers.NewTenantHandler(tenantService)
	tenants := admin.Group("/tenants")
	{
		tenants.GET("", tenantHandler.List)
		tenants.GET("/stats", tenantHandler.GetStats)
		tenants.GET("/:id", tenantHandler.GetByID)

		tenants.POST("", withChain(mutation, tenantHandler.Create)...)
		tenants.PUT("/:id", withChain(mutation, tenantHandler.Update)...)
		tenants.DELETE("/:id", withChain(mutation, tenantHandler.Delete)...)
		tenants.POST("/bulk-delete", withChain(mutation, tenantHandler.BulkDelete)...)
		tenants.POST("/:id/backup", withChain(mutation, tenantHandler.Backup)...)
		tenants.POST("/:id/reprovision", withChain(mutation, tenantHandler.Reprovision)...)
		tenants.POST("/:id/toggle-status", withChain(mutation, tenantHandler.ToggleStatus)...)
		tenants.POST("/bulk-activate", withChain(mutation, tenantHandler.BulkActivate)...)
		tenants.POST("/bulk-deactivate", withChain(mutation, tenantHandler.BulkDeactivate)...)
	}

	// 套餐目录维护
	planHandler.Register(admin.Group("/plans/manage"), mutation)

	// ===== tenant层（成员 + 专属库路由）=====
	tenant := api.Group("/t")
	tenant.Use(auth.RequireLogin(), tenantMW.RequireTenantMember())

	studentService := services.NewCRUDService[models.Student]([]string{"name", "email", "roll_number"})
	studentHandler := handlers.NewCRUDHandler(studentService, middleware.TenantDB)
	studentHandler.Register(tenant.Group("/students"), mutation)

	batchService := services.NewCRUDService[models.Batch]([]string{"name", "code"})
	batchHandler := handlers.NewCRUDHandler(batchService, middleware.TenantDB)
	batchHandler.Register(tenant.Group("/batches"), mutation)

	// ===== tenantAdmin层 =====
	// 预留给租户内管理操作（成员管理等）
	_ = tenant.Group("", tenantMW.RequireTenantAdmin())
}

// withChain 变更子链 + 终端处理器
func withChain(chain []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, handler)
}

// platformDB 平台实体的句柄解析器
func platformDB(c *gin.Context) *gorm.DB {
	return database.GetDB()
}

// 健康检查
func healthCheck(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if err := database.PingRedis(); err != nil {
		status["redis"] = "unavailable"
	}
	response.Success(c, status)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
