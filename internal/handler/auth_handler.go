// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/middleware"
	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/response"
)

// AuthHandler 认证请求处理器
// 处理注册、登录、刷新和登出
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Register 顾客注册
// @Summary 注册
// @Tags 认证
// @Param body body service.RegisterRequest true "注册信息"
// @Success 200 {object} response.Response{data=service.TokenResponse}
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			response.UserExists(c)
		default:
			zap.L().Error("register failed", zap.Error(err))
			response.InternalError(c, "注册失败")
		}
		return
	}

	response.SuccessWithMessage(c, "注册成功", result)
}

// Login 邮箱密码登录
// @Summary 登录
// @Tags 认证
// @Param body body service.LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=service.TokenResponse}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrPasswordWrong):
			// 不区分账号不存在和密码错误
			response.PasswordWrong(c)
		case errors.Is(err, service.ErrUserDisabled):
			response.UserDisabled(c)
		default:
			zap.L().Error("login failed", zap.Error(err))
			response.InternalError(c, "登录失败")
		}
		return
	}

	response.SuccessWithMessage(c, "登录成功", result)
}

// RefreshRequest 刷新 Token 请求
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh 用 Refresh Token 换取新的 Access Token
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserDisabled):
			response.UserDisabled(c)
		default:
			response.Unauthorized(c, "Refresh Token 无效或已过期")
		}
		return
	}

	response.Success(c, result)
}

// Logout 登出，当前 Token 加入黑名单
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, expireAt := middleware.GetToken(c)
	if expireAt.IsZero() {
		expireAt = time.Now().Add(24 * time.Hour)
	}

	if err := h.authService.Logout(c.Request.Context(), middleware.HashToken(token), expireAt); err != nil {
		zap.L().Error("logout failed", zap.Error(err))
		response.InternalError(c, "登出失败")
		return
	}

	response.SuccessWithMessage(c, "登出成功", nil)
}

// Me 当前登录用户
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.UserNotFound(c)
			return
		}
		response.InternalError(c, "获取用户信息失败")
		return
	}
	response.Success(c, user)
}
