package model

import (
	"time"

	"gorm.io/datatypes"
)

// SenderType 消息发送方
const (
	SenderUser   = "user"   // 用户
	SenderAI     = "ai"     // 购物助手
	SenderSystem = "system" // 系统消息
)

// MessageType 消息展示类型
const (
	MessageTypeText          = "text"
	MessageTypeCarousel      = "carousel"
	MessageTypeActionButtons = "action_buttons"
)

// Message 消息模型
// 对应数据库表 messages
// 只追加，不修改；carousel 类型的消息 RichContent 中必须有商品
type Message struct {
	ID int64 `gorm:"primaryKey" json:"id"`

	// ConversationID 所属会话，创建后不可变
	ConversationID int64 `gorm:"index;not null" json:"conversationId"`

	// SenderType 发送方: user / ai / system
	SenderType string `gorm:"size:20;not null" json:"senderType"`

	// SenderName 用户消息为用户姓名，助手消息为 "AI"
	SenderName *string `gorm:"size:100" json:"senderName,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Type 展示类型: text / carousel / action_buttons
	Type string `gorm:"size:20;default:text;not null" json:"type"`

	// RichContent 结构化内容，纯文本消息为 NULL
	RichContent *datatypes.JSONType[RichContent] `json:"richContent,omitempty"`

	// UserID 发送消息的用户，助手消息为空
	UserID *int64 `gorm:"index" json:"userId,omitempty"`

	// AIModel 生成该条助手消息的模型
	AIModel *string `gorm:"size:100" json:"aiModel,omitempty"`

	IsEdited bool       `gorm:"default:false" json:"isEdited"`
	EditedAt *time.Time `json:"editedAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "messages"
}

// Rich 返回结构化内容，没有时返回 nil
func (m *Message) Rich() *RichContent {
	if m.RichContent == nil {
		return nil
	}
	rc := m.RichContent.Data()
	return &rc
}

// SetRich 设置结构化内容，rc 为 nil 时清空
func (m *Message) SetRich(rc *RichContent) {
	if rc == nil {
		m.RichContent = nil
		return
	}
	v := datatypes.NewJSONType(*rc)
	m.RichContent = &v
}
