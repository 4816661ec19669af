package database

import (
	"context"
	"fmt"
	"sync"

	"eduplat/pkg/config"

	"github.com/go-redis/redis/v8"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// GetRedis 获取Redis客户端单例（令牌吊销名单等跨实例共享状态）
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.GetConfig()
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	})
	return redisClient
}

// PingRedis 测试Redis连接
func PingRedis() error {
	return GetRedis().Ping(context.Background()).Err()
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}
