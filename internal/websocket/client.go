package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/response"
)

// 连接配置常量
const (
	writeWait = 10 * time.Second

	// 等待 Pong 的超时时间
	pongWait = 60 * time.Second

	// 发送 Ping 的间隔，必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	// 每个连接最多排队的未处理消息
	maxPendingTurns = 8
)

// Client 表示一个 WebSocket 客户端连接
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	turns  chan *turnRequest
	userID int64

	mu     sync.Mutex // 保护 closed 以及对 send/turns 的写入
	closed bool
}

type turnRequest struct {
	payload   ChatSendPayload
	messageID string
}

// NewClient 创建新的客户端
func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		turns:  make(chan *turnRequest, maxPendingTurns),
		userID: userID,
	}
}

// ReadPump 从连接读取消息
// 每个连接一个 goroutine，退出时注销客户端
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read error", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("", response.CodeBadRequest, "消息格式错误")
			continue
		}
		c.handleMessage(&msg)
	}
}

// WritePump 把 send 通道中的消息写入连接，并定时发送 Ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TurnPump 按到达顺序逐条处理本连接的聊天消息
func (c *Client) TurnPump(ctx context.Context) {
	for req := range c.turns {
		c.processTurn(ctx, req)
	}
}

// SendMessage 向客户端发送消息，缓冲区满时丢弃
func (c *Client) SendMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	select {
	case c.send <- data:
	default:
		zap.L().Warn("websocket send buffer full, dropping message",
			zap.Int64("user_id", c.userID), zap.String("type", msg.Type))
	}
	return nil
}

// enqueueTurn 放入待处理队列，队列已满或连接已关闭时返回 false
func (c *Client) enqueueTurn(req *turnRequest) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.turns <- req:
		return true
	default:
		return false
	}
}

func (c *Client) handleMessage(msg *inboundMessage) {
	switch msg.Type {
	case TypeHeartbeat:
		c.SendMessage(NewMessage(TypePong, nil))

	case TypeChatSend:
		var payload ChatSendPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError(msg.MessageID, response.CodeBadRequest, "消息格式错误")
			return
		}
		if !c.enqueueTurn(&turnRequest{payload: payload, messageID: msg.MessageID}) {
			c.sendError(msg.MessageID, response.CodeBadRequest, "消息发送过快，请稍后再试")
			return
		}
		c.SendMessage(NewMessageWithID(TypeChatPending, nil, msg.MessageID))

	default:
		c.sendError(msg.MessageID, response.CodeBadRequest, "未知的消息类型: "+msg.Type)
	}
}

// processTurn 调用聊天服务；成功的回复由 Hub 广播，失败只告知当前连接
func (c *Client) processTurn(ctx context.Context, req *turnRequest) {
	_, err := c.hub.chat.PostTurn(ctx, c.userID, &service.ChatRequest{
		Message:        req.payload.Message,
		ConversationID: req.payload.ConversationID,
	})
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.sendError(req.messageID, response.CodeEmptyMessage, err.Error())
	case errors.Is(err, service.ErrConversationNotFound):
		c.sendError(req.messageID, response.CodeConversationNotFound, err.Error())
	case errors.Is(err, service.ErrNoPermission):
		c.sendError(req.messageID, response.CodeForbidden, err.Error())
	default:
		zap.L().Error("websocket chat turn failed", zap.Int64("user_id", c.userID), zap.Error(err))
		c.sendError(req.messageID, response.CodeInternalError, "发送消息失败")
	}
}

func (c *Client) sendError(messageID string, code int, message string) {
	c.SendMessage(NewMessageWithID(TypeError, &ErrorPayload{Code: code, Message: message}, messageID))
}

// Close 关闭发送通道和消息队列，可重复调用
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	close(c.turns)
}
