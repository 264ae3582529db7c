package model

import (
	"time"

	"gorm.io/gorm"
)

// ConversationTypeAssistant 与购物助手的会话
const ConversationTypeAssistant = "assistant"

// Conversation 会话模型
// 对应数据库表 conversations
// 用户第一次发消息且未指定会话时创建，每完成一轮对话更新 LastMessageAt
type Conversation struct {
	ID int64 `gorm:"primaryKey" json:"id"`

	// UserID 会话所有者
	UserID int64 `gorm:"index;not null" json:"userId"`

	// Title 取首条消息前 50 个字符
	Title *string `gorm:"size:255" json:"title,omitempty"`

	Type string `gorm:"size:20;default:assistant;not null" json:"type"`

	// IsActive 长期无消息的会话由定时任务置为 false，再次发消息时恢复
	IsActive bool `gorm:"default:true;index" json:"isActive"`

	// LastMessageAt 最近一轮对话完成的时间
	LastMessageAt *time.Time `gorm:"index" json:"lastMessageAt,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Messages 会话中的消息（一对多关系）
	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversations"
}
