// Package websocket 处理与服务器的购物助手实时连接
package websocket

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 消息类型常量，与服务端一致
const (
	TypeHeartbeat   = "heartbeat"
	TypePong        = "pong"
	TypeChatSend    = "chat:send"
	TypeChatPending = "chat:pending"
	TypeChatReply   = "chat:reply"
	TypeError       = "error"
)

// 心跳间隔
const heartbeatInterval = 30 * time.Second

// Message WebSocket 消息结构
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type outbound struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	MessageID string      `json:"messageId,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Client WebSocket 客户端
type Client struct {
	conn      *websocket.Conn
	serverURL string
	sendChan  chan []byte
	done      chan struct{}
	mu        sync.Mutex
	isRunning bool
	onMessage func(*Message)
	onClose   func()
}

// NewClient 创建 WebSocket 客户端
// wsBaseURL: WebSocket 地址（如 ws://localhost:8080）
// token: 访问令牌
func NewClient(wsBaseURL, token string) *Client {
	return &Client{
		serverURL: fmt.Sprintf("%s/ws/chat?token=%s", wsBaseURL, url.QueryEscape(token)),
		sendChan:  make(chan []byte, 64),
		done:      make(chan struct{}),
	}
}

// OnMessage 设置消息回调，在读协程中调用
func (c *Client) OnMessage(handler func(*Message)) {
	c.onMessage = handler
}

// OnClose 设置连接关闭回调
func (c *Client) OnClose(handler func()) {
	c.onClose = handler
}

// Connect 连接到服务器
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return fmt.Errorf("客户端已在运行")
	}

	conn, resp, err := websocket.DefaultDialer.Dial(c.serverURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("连接失败 (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("连接失败: %w", err)
	}

	c.conn = conn
	c.isRunning = true
	c.done = make(chan struct{})

	go c.readPump()
	go c.writePump()
	return nil
}

// Disconnect 断开连接，可重复调用
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	close(c.done)
	if c.conn != nil {
		// WriteControl 可与 writePump 并发调用
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.conn.Close()
	}
	onClose := c.onClose
	c.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// SendChat 发送一条消息给助手，conversationID 为 0 时新建会话
func (c *Client) SendChat(message string, conversationID int64, messageID string) error {
	payload := map[string]interface{}{"message": message}
	if conversationID > 0 {
		payload["conversationId"] = conversationID
	}
	return c.send(&outbound{Type: TypeChatSend, Payload: payload, MessageID: messageID})
}

func (c *Client) send(msg *outbound) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if !c.IsRunning() {
		return fmt.Errorf("连接已关闭")
	}
	select {
	case c.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("发送缓冲区已满")
	}
}

func (c *Client) readPump() {
	defer c.Disconnect()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				zap.L().Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			zap.L().Debug("websocket message decode failed", zap.Error(err))
			continue
		}
		if c.onMessage != nil {
			c.onMessage(&msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.Disconnect()
	}()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.sendChan:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			data, _ := json.Marshal(&outbound{Type: TypeHeartbeat, Timestamp: time.Now().UnixMilli()})
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// IsRunning 检查是否正在运行
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}
