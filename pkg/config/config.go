package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	TenantDB  TenantDBConfig
	JWT       JWTConfig
	Log       LogConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Backup    BackupConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TenantDBConfig 租户专属数据库配置
type TenantDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	SSLMode  string
	Prefix   string // 租户库名前缀，如 eduplat_tenant_3
	AdminDB  string // 执行 CREATE/DROP DATABASE 时连接的维护库
}

type JWTConfig struct {
	SecretKey     string // JWT密钥
	TokenDuration string // 令牌有效期，如 "24h"
}

type LogConfig struct {
	Level      string
	FilePath   string
	MaxSize    int    // MB
	MaxBackups int    // 保留的备份文件数
	MaxAge     int    // 保留天数
	Compress   bool   // 是否压缩
	Format     string // json 或 text
}

type RedisConfig struct {
	Host     string // Redis主机地址
	Port     int    // Redis端口
	Password string // Redis密码
	DB       int    // Redis数据库编号
	Prefix   string // 键前缀
}

type CORSConfig struct {
	AllowOrigins     []string // 允许的源
	AllowMethods     []string // 允许的HTTP方法
	AllowHeaders     []string // 允许的请求头
	ExposeHeaders    []string // 暴露的响应头
	AllowCredentials bool     // 是否允许携带凭证
	MaxAge           int      // 预检请求缓存时间（小时）
}

// RateLimitConfig 变更类接口限流配置
type RateLimitConfig struct {
	MutationLimit int // 单窗口内允许的变更次数
	WindowSeconds int // 窗口大小（秒）
}

// BackupConfig 租户库定时备份配置
type BackupConfig struct {
	CronExpr string // 定时备份表达式
	Dir      string // 备份文件目录
	PgDump   string // pg_dump 可执行文件路径
	Enabled  bool   // 是否启动定时备份
}

// 全局配置实例和同步锁
var (
	globalConfig *Config
	once         sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		var err error
		globalConfig, err = LoadConfig()
		if err != nil {
			panic("Failed to load config: " + err.Error())
		}
	})
	return globalConfig
}

// 获取环境变量，如果不存在则使用默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// 获取环境变量转换为int
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// 获取环境变量转换为bool
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}

// 获取环境变量转换为字符串数组（逗号分隔）
func getEnvAsStringArray(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Mode: getEnv("SERVER_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "eduplat_platform"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		TenantDB: TenantDBConfig{
			Host:     getEnv("TENANT_DB_HOST", getEnv("DB_HOST", "localhost")),
			Port:     getEnv("TENANT_DB_PORT", getEnv("DB_PORT", "5432")),
			User:     getEnv("TENANT_DB_USER", getEnv("DB_USER", "postgres")),
			Password: getEnv("TENANT_DB_PASSWORD", getEnv("DB_PASSWORD", "")),
			SSLMode:  getEnv("TENANT_DB_SSLMODE", "disable"),
			Prefix:   getEnv("TENANT_DB_PREFIX", "eduplat_tenant"),
			AdminDB:  getEnv("TENANT_DB_ADMIN", "postgres"),
		},
		JWT: JWTConfig{
			SecretKey:     getEnv("JWT_SECRET_KEY", "default-secret-change-me"),
			TokenDuration: getEnv("JWT_TOKEN_DURATION", "24h"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/app.log"),
			MaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 7),
			MaxAge:     getEnvAsInt("LOG_MAX_AGE", 30),
			Compress:   getEnvAsBool("LOG_COMPRESS", true),
			Format:     getEnv("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "eduplat"),
		},
		CORS: CORSConfig{
			AllowOrigins:     getEnvAsStringArray("CORS_ALLOW_ORIGINS", []string{"*"}),
			AllowMethods:     getEnvAsStringArray("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			AllowHeaders:     getEnvAsStringArray("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"}),
			ExposeHeaders:    getEnvAsStringArray("CORS_EXPOSE_HEADERS", []string{"Content-Length", "Content-Type"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 12),
		},
		RateLimit: RateLimitConfig{
			MutationLimit: getEnvAsInt("RATE_LIMIT_MUTATIONS", 20),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Backup: BackupConfig{
			CronExpr: getEnv("BACKUP_CRON", "0 3 * * *"),
			Dir:      getEnv("BACKUP_DIR", "backups"),
			PgDump:   getEnv("BACKUP_PG_DUMP", "pg_dump"),
			Enabled:  getEnvAsBool("BACKUP_ENABLED", true),
		},
	}

	return config, nil
}

// PlatformDSN 平台库连接串
func (c *Config) PlatformDSN() string {
	d := c.Database
	return "host=" + d.Host + " port=" + d.Port + " user=" + d.User +
		" password=" + d.Password + " dbname=" + d.DBName + " sslmode=" + d.SSLMode
}

// TenantDSN 指定租户库连接串
func (c *Config) TenantDSN(dbName string) string {
	t := c.TenantDB
	return "host=" + t.Host + " port=" + t.Port + " user=" + t.User +
		" password=" + t.Password + " dbname=" + dbName + " sslmode=" + t.SSLMode
}

// TenantDBName 根据租户ID生成库名
func (c *Config) TenantDBName(tenantID uint) string {
	return c.TenantDB.Prefix + "_" + strconv.FormatUint(uint64(tenantID), 10)
}
