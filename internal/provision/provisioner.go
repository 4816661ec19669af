package provision

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"eduplat/internal/database"
	"eduplat/pkg/config"
	"eduplat/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresProvisioner 租户专属库的物理开通/销毁/备份。
// 生命周期编排器只通过接口消费它，不关心内部步骤。
type PostgresProvisioner struct {
	cfg *config.Config
}

func NewPostgresProvisioner(cfg *config.Config) *PostgresProvisioner {
	return &PostgresProvisioner{cfg: cfg}
}

// adminDB 连接维护库，用于执行 CREATE/DROP DATABASE
func (p *PostgresProvisioner) adminDB() (*gorm.DB, func(), error) {
	dsn := p.cfg.TenantDSN(p.cfg.TenantDB.AdminDB)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}

// ProvisionTenantDB 创建租户专属库并迁移表结构，返回连接串。
// 库已存在时直接复用并重跑迁移，保证重复开通（修复场景）可用。
func (p *PostgresProvisioner) ProvisionTenantDB(ctx context.Context, tenantID uint) (string, error) {
	dbName := p.cfg.TenantDBName(tenantID)

	admin, closeAdmin, err := p.adminDB()
	if err != nil {
		return "", fmt.Errorf("connect admin database: %w", err)
	}
	defer closeAdmin()

	var exists int64
	if err := admin.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", dbName).
		Scan(&exists).Error; err != nil {
		return "", fmt.Errorf("check database existence: %w", err)
	}
	if exists == 0 {
		// CREATE DATABASE 不能在事务中执行
		if err := admin.WithContext(ctx).
			Exec(fmt.Sprintf("CREATE DATABASE %q", dbName)).Error; err != nil {
			return "", fmt.Errorf("create database %s: %w", dbName, err)
		}
	}

	dsn := p.cfg.TenantDSN(dbName)
	tenantDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return "", fmt.Errorf("connect tenant database %s: %w", dbName, err)
	}
	defer func() {
		if sqlDB, err := tenantDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := database.MigrateTenantModels(tenantDB.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("migrate tenant database %s: %w", dbName, err)
	}

	logger.GetLogger().Infof("tenant database %s provisioned", dbName)
	return dsn, nil
}

// DeleteTenantDB 删除租户专属库。先踢掉存量连接再DROP，
// 同时使句柄缓存失效。
func (p *PostgresProvisioner) DeleteTenantDB(ctx context.Context, tenantID uint) error {
	dbName := p.cfg.TenantDBName(tenantID)

	// 句柄缓存先失效，避免DROP被自己挡住
	database.CloseTenantClient(tenantID)

	admin, closeAdmin, err := p.adminDB()
	if err != nil {
		return fmt.Errorf("connect admin database: %w", err)
	}
	defer closeAdmin()

	if err := admin.WithContext(ctx).Exec(
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = ? AND pid <> pg_backend_pid()",
		dbName,
	).Error; err != nil {
		return fmt.Errorf("terminate connections to %s: %w", dbName, err)
	}

	if err := admin.WithContext(ctx).
		Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %q", dbName)).Error; err != nil {
		return fmt.Errorf("drop database %s: %w", dbName, err)
	}

	logger.GetLogger().Infof("tenant database %s dropped", dbName)
	return nil
}

// BackupTenantDB 用pg_dump产出备份文件，返回文件路径
func (p *PostgresProvisioner) BackupTenantDB(ctx context.Context, tenantID uint) (string, error) {
	dbName := p.cfg.TenantDBName(tenantID)
	backupCfg := p.cfg.Backup

	if err := os.MkdirAll(backupCfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	artifact := filepath.Join(backupCfg.Dir, fmt.Sprintf("%s_%s_%s.dump",
		dbName, time.Now().Format("20060102T150405"), uuid.NewString()[:8]))

	t := p.cfg.TenantDB
	cmd := exec.CommandContext(ctx, backupCfg.PgDump,
		"-h", t.Host,
		"-p", t.Port,
		"-U", t.User,
		"-F", "c", // custom格式，支持pg_restore选择性恢复
		"-f", artifact,
		dbName,
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+t.Password)

	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pg_dump %s failed: %v: %s", dbName, err, string(out))
	}

	logger.GetLogger().Infof("tenant database %s backed up to %s", dbName, artifact)
	return artifact, nil
}
