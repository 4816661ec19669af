package jwt

import (
	"eduplat/pkg/config"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims JWT声明。租户成员身份不进token，
// 每次请求由租户路由中间件实时查库解析，保证成员关系变更即时生效。
type Claims struct {
	UserID          uint   `json:"user_id"`
	Email           string `json:"email"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
	jwt.RegisteredClaims
}

// Manager JWT管理器
type Manager struct {
	secretKey     string
	tokenDuration time.Duration
}

// NewManager 创建JWT管理器
func NewManager(secretKey string, tokenDuration time.Duration) *Manager {
	return &Manager{
		secretKey:     secretKey,
		tokenDuration: tokenDuration,
	}
}

// GenerateToken 生成JWT令牌
func (m *Manager) GenerateToken(userID uint, email string, isPlatformAdmin bool) (string, error) {
	claims := Claims{
		UserID:          userID,
		Email:           email,
		IsPlatformAdmin: isPlatformAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // 吊销名单按令牌ID登记
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "eduplat",
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// VerifyToken 验证JWT令牌
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// 验证签名方法
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("意外的签名方法")
			}
			return []byte(m.secretKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("无法解析token声明")
	}

	return claims, nil
}

// GetTokenDuration 获取令牌有效期
func (m *Manager) GetTokenDuration() time.Duration {
	return m.tokenDuration
}

// 单例实现
var (
	defaultManager *Manager
	once           sync.Once
)

// GetManager 获取全局JWT管理器实例
func GetManager() *Manager {
	once.Do(func() {
		cfg := config.GetConfig()
		tokenDuration, err := time.ParseDuration(cfg.JWT.TokenDuration)
		if err != nil {
			tokenDuration = 24 * time.Hour
		}
		defaultManager = NewManager(cfg.JWT.SecretKey, tokenDuration)
	})
	return defaultManager
}
