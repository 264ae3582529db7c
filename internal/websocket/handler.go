package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/middleware"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/jwt"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/response"
)

// Handler 处理 WebSocket 连接
type Handler struct {
	hub        *Hub
	jwtService *jwt.JWTService
	blacklist  middleware.BlacklistChecker
	upgrader   websocket.Upgrader
	ctx        context.Context // 服务生命周期，关闭时结束排队中的对话
}

// NewHandler 创建 WebSocket Handler
// 参数:
//   - ctx: 服务生命周期上下文
//   - hub: 连接中心
//   - jwtService: 校验 query 中的 Access Token
//   - blacklist: 已登出的 Token，可为 nil
//   - allowedOrigins: 允许的来源，空或包含 "*" 时不限制
func NewHandler(ctx context.Context, hub *Hub, jwtService *jwt.JWTService, blacklist middleware.BlacklistChecker, allowedOrigins []string) *Handler {
	return &Handler{
		hub:        hub,
		jwtService: jwtService,
		blacklist:  blacklist,
		ctx:        ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// HandleChatWS 处理购物助手的 WebSocket 连接
// 路由: GET /ws/chat?token=<access token>
func (h *Handler) HandleChatWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Unauthorized(c, "需要认证 token")
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "无效的 token")
		return
	}
	if h.blacklist != nil && h.blacklist.IsTokenBlacklisted(c.Request.Context(), middleware.HashToken(token)) {
		response.Unauthorized(c, "Token 已失效，请重新登录")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	go client.TurnPump(h.ctx)

	zap.L().Info("websocket connected", zap.Int64("user_id", claims.UserID))
}

// RegisterRoutes 注册 WebSocket 路由
// token 在 query 中验证，不走认证中间件
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/chat", h.HandleChatWS)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// 非浏览器客户端（如 CLI）不带 Origin
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
