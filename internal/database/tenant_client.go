package database

import (
	"fmt"
	"sync"
	"time"

	"eduplat/internal/models"
	"eduplat/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 租户专属库句柄缓存。句柄按租户ID复用，
// 租户库被删除或下线时必须调用 CloseTenantClient 使缓存失效。
var (
	tenantClients   = make(map[uint]*gorm.DB)
	tenantClientsMu sync.Mutex
)

// GetTenantClient 获取租户专属库句柄，优先复用缓存。
// 租户不存在、库未就绪或连接失败时返回错误。
func GetTenantClient(tenantID uint) (*gorm.DB, error) {
	tenantClientsMu.Lock()
	if db, ok := tenantClients[tenantID]; ok {
		tenantClientsMu.Unlock()
		return db, nil
	}
	tenantClientsMu.Unlock()

	// 查平台记录拿连接串
	var tenant models.Tenant
	if err := DB.First(&tenant, tenantID).Error; err != nil {
		return nil, fmt.Errorf("tenant %d not found: %w", tenantID, err)
	}
	if tenant.DatabaseStatus != models.DatabaseStatusActive || tenant.ConnectionString == nil {
		return nil, fmt.Errorf("tenant %d database not ready (status=%s)", tenantID, tenant.DatabaseStatus)
	}

	db, err := gorm.Open(postgres.Open(*tenant.ConnectionString), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect tenant %d database: %w", tenantID, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 租户库写操作同样进审计，审计记录统一落平台库
	if err := RegisterAuditCallbacks(db, tenantID); err != nil {
		logger.GetLogger().Warnf("register audit callbacks for tenant %d: %v", tenantID, err)
	}

	tenantClientsMu.Lock()
	defer tenantClientsMu.Unlock()
	// 并发开同一租户句柄时保留先写入者
	if existing, ok := tenantClients[tenantID]; ok {
		_ = sqlDB.Close()
		return existing, nil
	}
	tenantClients[tenantID] = db
	return db, nil
}

// CloseTenantClient 关闭并移除租户句柄缓存
func CloseTenantClient(tenantID uint) {
	tenantClientsMu.Lock()
	db, ok := tenantClients[tenantID]
	if ok {
		delete(tenantClients, tenantID)
	}
	tenantClientsMu.Unlock()

	if ok {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// CloseAllTenantClients 关停时释放所有租户句柄
func CloseAllTenantClients() {
	tenantClientsMu.Lock()
	clients := tenantClients
	tenantClients = make(map[uint]*gorm.DB)
	tenantClientsMu.Unlock()

	for _, db := range clients {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
