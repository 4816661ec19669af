package services

import (
	"context"
	"time"

	"eduplat/internal/models"
	"eduplat/pkg/config"
	"eduplat/pkg/errors"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 平台用户与认证
type UserService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewUserService(db *gorm.DB, redisClient *redis.Client) *UserService {
	return &UserService{
		db:    db,
		redis: redisClient,
	}
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	return &user, err
}

// GetByEmail 根据邮箱获取用户
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	return &user, err
}

// Authenticate 校验邮箱密码，返回用户。
// 不区分"用户不存在"和"密码错误"，避免账号枚举。
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		return nil, errors.Forbidden("邮箱或密码错误")
	}
	if !user.IsActive {
		return nil, errors.Forbidden("用户已被禁用")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.Forbidden("邮箱或密码错误")
	}
	return user, nil
}

// HashPassword 生成密码哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// IsActive 检查用户是否激活
func (s *UserService) IsActive(user *models.User) bool {
	return user.IsActive
}

func revokedKey(jti string) string {
	return config.GetConfig().Redis.Prefix + ":revoked:" + jti
}

// RevokeToken 登出时把令牌ID加入吊销名单，TTL取令牌剩余有效期
func (s *UserService) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

// IsTokenRevoked 查询令牌是否已吊销。
// Redis不可用时放行（吊销名单是尽力而为的加固，不是唯一防线）。
func (s *UserService) IsTokenRevoked(ctx context.Context, jti string) bool {
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
