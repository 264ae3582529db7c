package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

// MessageRepository 消息数据访问层
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 创建单条消息
func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// CreateTurn 在一个事务中写入一轮对话
// 依次写入用户消息和助手消息，然后刷新会话的 last_message_at 并恢复为活跃
// 参数:
//   - ctx: 上下文
//   - userMsg: 用户消息，ID 会被回填
//   - aiMsg: 助手消息，ID 会被回填
//
// 返回:
//   - error: 任一步失败整轮回滚
func (r *MessageRepository) CreateTurn(ctx context.Context, userMsg, aiMsg *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userMsg).Error; err != nil {
			return err
		}
		if err := tx.Create(aiMsg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", userMsg.ConversationID).
			Updates(map[string]interface{}{
				"last_message_at": time.Now(),
				"is_active":       true,
			}).Error
	})
}

// ListByConversationID 分页获取会话的消息
// 按时间正序，方便展示对话
// 参数:
//   - ctx: 上下文
//   - conversationID: 会话ID
//   - page: 页码，从 1 开始
//   - pageSize: 每页数量
//
// 返回:
//   - []model.Message: 消息列表
//   - int64: 总数量
//   - error: 数据库错误
func (r *MessageRepository) ListByConversationID(ctx context.Context, conversationID int64, page, pageSize int) ([]model.Message, int64, error) {
	var messages []model.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Message{}).Where("conversation_id = ?", conversationID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&messages).Error

	return messages, total, err
}

// GetRecentMessages 获取会话最近的 N 条消息
// 参数:
//   - ctx: 上下文
//   - conversationID: 会话ID
//   - limit: 最多返回的条数
//
// 返回:
//   - []model.Message: 消息列表（最早的在前）
//   - error: 数据库错误
func (r *MessageRepository) GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]model.Message, error) {
	var messages []model.Message
	if limit <= 0 {
		return messages, nil
	}

	// 子查询先倒序取最新的 N 条，外层再正序排列
	subQuery := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)

	err := r.db.WithContext(ctx).
		Table("(?) as t", subQuery).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error

	return messages, err
}

// CountByConversationID 统计会话的消息数量
func (r *MessageRepository) CountByConversationID(ctx context.Context, conversationID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error
	return count, err
}
