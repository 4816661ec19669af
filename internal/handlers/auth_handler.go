package handlers

import (
	"eduplat/internal/middleware"
	"eduplat/internal/models"
	"eduplat/internal/services"
	"eduplat/pkg/jwt"
	"eduplat/pkg/response"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	userService *services.UserService
	jwtManager  *jwt.Manager
}

func NewAuthHandler(userService *services.UserService, jwtManager *jwt.Manager) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		response.AppError(c, err)
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Email, user.IsPlatformAdmin)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout 用户登出：当前令牌进吊销名单
func (h *AuthHandler) Logout(c *gin.Context) {
	claimsVal, exists := c.Get("claims")
	if !exists {
		response.Success(c, nil)
		return
	}

	claims := claimsVal.(*jwt.Claims)
	if err := h.userService.RevokeToken(c.Request.Context(), claims.ID, middleware.TokenTTL(c)); err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已退出登录", nil)
}

// Me 获取当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	response.Success(c, user)
}
