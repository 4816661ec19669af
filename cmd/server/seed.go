package main

import (
	"fmt"

	"eduplat/internal/database"
	"eduplat/internal/models"
	"eduplat/internal/services"
	"eduplat/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	// 1. 创建默认平台管理员
	if err := createDefaultAdmin(db); err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	// 2. 创建基础套餐
	if err := createDefaultPlans(db); err != nil {
		return fmt.Errorf("创建基础套餐失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createDefaultAdmin 创建默认平台管理员
func createDefaultAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("email = ?", "admin@eduplat.local").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认管理员已存在，跳过创建")
		return nil
	}

	hash, err := services.HashPassword("ChangeMe123!")
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:           "admin@eduplat.local",
		Name:            "平台管理员",
		Password:        hash,
		IsPlatformAdmin: true,
		IsActive:        true,
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.GetLogger().Warn("默认管理员已创建（admin@eduplat.local），请立即修改初始密码")
	return nil
}

// createDefaultPlans 创建基础套餐
func createDefaultPlans(db *gorm.DB) error {
	var count int64
	db.Model(&models.Plan{}).Count(&count)
	if count > 0 {
		logger.GetLogger().Info("套餐已存在，跳过创建")
		return nil
	}

	plans := []*models.Plan{
		{
			Name:         "基础版",
			Description:  "小型机构起步套餐",
			PriceMonthly: 99,
			PriceYearly:  990,
			Limits:       datatypes.JSONMap{"students": 200, "teachers": 20, "storage_mb": 1024},
			IsActive:     true,
			Position:     1,
		},
		{
			Name:         "专业版",
			Description:  "中型机构标准套餐",
			PriceMonthly: 299,
			PriceYearly:  2990,
			Limits:       datatypes.JSONMap{"students": 2000, "teachers": 100, "storage_mb": 10240},
			IsActive:     true,
			Position:     2,
		},
		{
			Name:         "旗舰版",
			Description:  "大型机构不限量套餐",
			PriceMonthly: 999,
			PriceYearly:  9990,
			Limits:       datatypes.JSONMap{"students": -1, "teachers": -1, "storage_mb": 102400},
			IsActive:     true,
			Position:     3,
		},
	}

	return db.Create(&plans).Error
}
