package services

import (
	"context"
	"sync"

	"eduplat/pkg/config"
	"eduplat/pkg/logger"

	"github.com/robfig/cron/v3"
)

// BackupScheduler 定时备份调度器：按配置的cron表达式
// 对所有已开通且激活的租户逐个执行备份。
// 单个租户备份失败只记日志，不影响其他租户。
type BackupScheduler struct {
	tenantService *TenantService
	cron          *cron.Cron
	entryID       cron.EntryID
	mu            sync.Mutex
	running       bool
}

func NewBackupScheduler(tenantService *TenantService) *BackupScheduler {
	return &BackupScheduler{
		tenantService: tenantService,
		cron:          cron.New(),
	}
}

// Start 启动定时备份
func (s *BackupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	cfg := config.GetConfig()
	entryID, err := s.cron.AddFunc(cfg.Backup.CronExpr, s.runOnce)
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true

	logger.GetLogger().Infof("backup scheduler started (cron=%s)", cfg.Backup.CronExpr)
	return nil
}

// Stop 停止调度，等待进行中的任务结束
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	logger.GetLogger().Info("backup scheduler stopped")
}

// runOnce 执行一轮全量备份
func (s *BackupScheduler) runOnce() {
	appLogger := logger.GetLogger()

	tenants, err := s.tenantService.ListActiveProvisioned()
	if err != nil {
		appLogger.Errorf("backup scheduler: list tenants failed: %v", err)
		return
	}

	appLogger.Infof("backup scheduler: backing up %d tenants", len(tenants))
	for _, tenant := range tenants {
		result, err := s.tenantService.Backup(context.Background(), tenant.ID)
		if err != nil {
			appLogger.Errorf("backup scheduler: tenant %d backup failed: %v", tenant.ID, err)
			continue
		}
		if result.Success {
			appLogger.Infof("backup scheduler: tenant %d backed up to %s", tenant.ID, result.Artifact)
		}
	}
}
