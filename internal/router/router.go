// Package router 组装 HTTP 路由
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/handler"
	"github.com/AmrElDessouki22/popcorn-ai/internal/metrics"
	"github.com/AmrElDessouki22/popcorn-ai/internal/middleware"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
	"github.com/AmrElDessouki22/popcorn-ai/internal/websocket"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/jwt"
)

// Handlers 路由需要的全部处理器
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Product      *handler.ProductHandler
	Conversation *handler.ConversationHandler
	AI           *handler.AIHandler
	Health       *handler.HealthHandler
	WS           *websocket.Handler // 可为 nil
}

// Options 路由选项
type Options struct {
	Logger      *zap.Logger
	JWT         *jwt.JWTService
	Blacklist   middleware.BlacklistChecker // 可为 nil
	CORSOrigins []string
	Metrics     bool // 是否暴露 /metrics
}

// New 创建 Gin 引擎并注册所有路由
func New(opts Options, h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RecoveryMiddleware(opts.Logger))
	r.Use(middleware.LoggerMiddleware(opts.Logger))
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(opts.CORSOrigins)))

	r.GET("/health", h.Health.Health)
	if opts.Metrics {
		r.GET("/metrics", metrics.Handler())
	}

	auth := middleware.AuthMiddleware(opts.JWT, opts.Blacklist)
	admin := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/api/v1")

	// 认证（注册、登录、刷新无需登录）
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", auth, h.Auth.Logout)
		authGroup.GET("/me", auth, h.Auth.Me)
	}

	users := v1.Group("/users", auth)
	{
		users.GET("/me", h.User.GetProfile)
		users.PUT("/me", h.User.UpdateProfile)
		users.PUT("/me/password", h.User.ChangePassword)
	}

	// 商品浏览公开，修改需要管理员
	products := v1.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/search", h.Product.Search)
		products.GET("/deleted", auth, admin, h.Product.ListDeleted)
		products.GET("/:id", h.Product.Get)
		products.POST("", auth, admin, h.Product.Create)
		products.PUT("/:id", auth, admin, h.Product.Update)
		products.DELETE("/:id", auth, admin, h.Product.Delete)
		products.POST("/:id/restore", auth, admin, h.Product.Restore)
		products.DELETE("/:id/purge", auth, admin, h.Product.Purge)
	}

	conversations := v1.Group("/conversations", auth)
	{
		conversations.GET("", h.Conversation.List)
		conversations.GET("/:id", h.Conversation.Get)
		conversations.GET("/:id/messages", h.Conversation.Messages)
		conversations.DELETE("/:id", h.Conversation.Delete)
	}

	ai := v1.Group("/ai", auth)
	{
		ai.POST("/chat", h.AI.Chat)
	}

	if h.WS != nil {
		h.WS.RegisterRoutes(r)
	}

	return r
}
