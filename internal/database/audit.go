package database

import (
	"encoding/json"
	"reflect"

	"eduplat/internal/models"
	"eduplat/pkg/auditctx"
	"eduplat/pkg/logger"

	"gorm.io/gorm"
)

// 存储层审计回调：在每次写操作后读取请求级审计上下文，
// 自动落一条审计记录到平台库。业务代码不感知审计，
// 只要把带审计上下文的context传给 WithContext 即可。

// RegisterAuditCallbacks 在指定连接上注册写审计回调。
// tenantID 为该连接绑定的租户，平台库连接传0（从上下文取租户）。
func RegisterAuditCallbacks(db *gorm.DB, tenantID uint) error {
	if err := db.Callback().Create().After("gorm:create").
		Register("eduplat:audit_create", auditHook(models.AuditActionCreate, tenantID)); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").
		Register("eduplat:audit_update", auditHook(models.AuditActionUpdate, tenantID)); err != nil {
		return err
	}
	return db.Callback().Delete().After("gorm:delete").
		Register("eduplat:audit_delete", auditHook(models.AuditActionDelete, tenantID))
}

func auditHook(action string, tenantID uint) func(tx *gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement == nil || tx.RowsAffected == 0 {
			return
		}
		table := tx.Statement.Table
		// 审计表自身的写入不再审计，避免递归
		if table == "" || table == (models.AuditLog{}).TableName() {
			return
		}

		info := auditctx.From(tx.Statement.Context)
		if info.TenantID == 0 {
			info.TenantID = tenantID
		}

		entry := models.AuditLog{
			UserID:      info.UserID,
			TenantID:    info.TenantID,
			IPAddress:   info.IPAddress,
			UserAgent:   info.UserAgent,
			RequestID:   info.RequestID,
			Action:      action,
			EntityTable: table,
			RowID:       primaryRowID(tx),
		}
		if action != models.AuditActionDelete && tx.Statement.Dest != nil {
			if b, err := json.Marshal(tx.Statement.Dest); err == nil {
				entry.Diff = b
			}
		}

		// 平台库连接（tenantID=0）在当前连接上写审计，
		// 业务事务回滚时审计记录一并回滚；
		// 租户库连接的审计统一落平台库，走独立会话。
		sink := tx
		if tenantID != 0 {
			sink = GetDB()
		}
		if sink == nil {
			return
		}
		// 审计失败不阻断业务写入，只记日志
		if err := sink.Session(&gorm.Session{NewDB: true}).Create(&entry).Error; err != nil {
			logger.GetLogger().Warnf("audit log write failed for %s on %s: %v", action, table, err)
		}
	}
}

// primaryRowID 尽力从语句中取出主键值，批量写取首行
func primaryRowID(tx *gorm.DB) uint {
	s := tx.Statement.Schema
	if s == nil || s.PrioritizedPrimaryField == nil {
		return 0
	}
	rv := tx.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return 0
		}
		rv = rv.Index(0)
	}
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return 0
	}
	v, isZero := s.PrioritizedPrimaryField.ValueOf(tx.Statement.Context, rv)
	if isZero {
		return 0
	}
	switch id := v.(type) {
	case uint:
		return id
	case uint64:
		return uint(id)
	case int64:
		return uint(id)
	case int:
		return uint(id)
	}
	return 0
}
