package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
)

// ChatPoster 处理一轮对话
type ChatPoster interface {
	PostTurn(ctx context.Context, userID int64, req *service.ChatRequest) (*service.ChatTurnResponse, error)
}

// Hub 是 WebSocket 连接的中心管理器
// 负责管理用户的全部连接，并把对话回复广播给同一用户的每个连接
type Hub struct {
	// userID -> 该用户的所有连接（多标签页、多设备）
	clients map[int64][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	chat ChatPoster
}

// NewHub 创建 Hub 实例
func NewHub(chat ChatPoster) *Hub {
	return &Hub{
		clients:    make(map[int64][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		chat:       chat,
	}
}

// Run 启动 Hub 的主循环，ctx 取消后关闭所有连接并返回
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.userID] = append(h.clients[client.userID], client)
	zap.L().Debug("websocket client registered",
		zap.Int64("user_id", client.userID), zap.Int("connections", len(h.clients[client.userID])))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.userID]
	for i, c := range clients {
		if c == client {
			h.clients[client.userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.clients[client.userID]) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()
	zap.L().Debug("websocket client unregistered", zap.Int64("user_id", client.userID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for _, c := range clients {
			c.Close()
		}
		delete(h.clients, userID)
	}
}

// NotifyTurn 把一轮对话结果推送给用户的所有连接
// HTTP 和 WebSocket 发起的对话都会经过这里
func (h *Hub) NotifyTurn(userID int64, turn *service.ChatTurnResponse) {
	h.broadcast(userID, NewMessage(TypeChatReply, turn))
}

func (h *Hub) broadcast(userID int64, msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients[userID] {
		c.SendMessage(msg)
	}
}

// ConnectionCount 用户当前的连接数
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
