// Package websocket 提供购物助手的实时通道
// 同一用户的多个连接共享对话回复
package websocket

import (
	"encoding/json"
	"time"
)

// 消息类型
const (
	// 客户端 → 服务端
	TypeHeartbeat = "heartbeat" // 心跳
	TypeChatSend  = "chat:send" // 发送一条消息给助手

	// 服务端 → 客户端
	TypeChatReply   = "chat:reply"   // 一轮对话完成，广播给用户所有连接
	TypeChatPending = "chat:pending" // 已收到消息，正在生成回复
	TypeError       = "error"
	TypePong        = "pong"
)

// Message WebSocket 消息结构
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`           // 毫秒
	MessageID string      `json:"messageId,omitempty"` // 客户端传入时原样带回
}

// inboundMessage 读取时先保留原始 payload，按类型再解析
type inboundMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	MessageID string          `json:"messageId,omitempty"`
}

// NewMessage 创建新消息
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewMessageWithID 创建带消息ID的新消息
func NewMessageWithID(msgType string, payload interface{}, messageID string) *Message {
	msg := NewMessage(msgType, payload)
	msg.MessageID = messageID
	return msg
}

// ChatSendPayload chat:send 的内容
type ChatSendPayload struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversationId,omitempty"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`    // 与 HTTP 接口相同的业务码
	Message string `json:"message"`
}
