// Package middleware 提供 HTTP 请求的中间件
// 包括 JWT 认证、角色校验、CORS 跨域、日志记录等
package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AmrElDessouki22/popcorn-ai/pkg/jwt"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/response"
)

// 上下文中的键
const (
	CtxUserID   = "user_id"
	CtxEmail    = "email"
	CtxRole     = "role"
	CtxToken    = "token"
	CtxTokenExp = "token_exp"
)

// BlacklistChecker 检查 Token 是否已登出
type BlacklistChecker interface {
	IsTokenBlacklisted(ctx context.Context, tokenHash string) bool
}

// AuthMiddleware 创建 JWT 认证中间件
// 验证请求头中的 Bearer Token，并将用户信息存入上下文
// 参数:
//   - jwtService: JWT 服务实例，用于解析和验证 Token
//   - blacklist: Token 黑名单，可为 nil
//
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func AuthMiddleware(jwtService *jwt.JWTService, blacklist BlacklistChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "认证格式错误")
			c.Abort()
			return
		}
		tokenString := parts[1]

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Token 无效或已过期")
			c.Abort()
			return
		}

		// 黑名单里存的是哈希，不存原始 Token
		if blacklist != nil && blacklist.IsTokenBlacklisted(c.Request.Context(), HashToken(tokenString)) {
			response.Unauthorized(c, "Token 已失效，请重新登录")
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxToken, tokenString)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireRole 要求当前用户具有指定角色，需放在 AuthMiddleware 之后
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != role {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}
		c.Next()
	}
}

// HashToken 计算 Token 的 SHA256 哈希值
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// GetUserID 从上下文获取用户 ID，未认证返回 0
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}

// GetRole 从上下文获取用户角色
func GetRole(c *gin.Context) string {
	return c.GetString(CtxRole)
}

// GetToken 返回当前请求的原始 Token 和它的过期时间
func GetToken(c *gin.Context) (string, time.Time) {
	return c.GetString(CtxToken), c.GetTime(CtxTokenExp)
}
