package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

// ConversationRepository 会话数据访问层
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建 ConversationRepository 实例
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create 创建新会话
// 参数:
//   - ctx: 上下文
//   - conversation: 会话对象，ID 和时间字段会被自动填充
//
// 返回:
//   - error: 数据库错误
func (r *ConversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

// GetByID 根据 ID 获取会话
// 参数:
//   - ctx: 上下文
//   - id: 会话ID
//
// 返回:
//   - *model.Conversation: 会话对象，未找到或已删除返回 nil
//   - error: 数据库错误
func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.WithContext(ctx).First(&conversation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

// ListByUserID 分页获取用户的会话
// 最近有消息的排在前面，从未发过消息的按创建时间排
// 参数:
//   - ctx: 上下文
//   - userID: 用户ID
//   - page: 页码，从 1 开始
//   - pageSize: 每页数量
//
// 返回:
//   - []model.Conversation: 会话列表
//   - int64: 总数量
//   - error: 数据库错误
func (r *ConversationRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]model.Conversation, int64, error) {
	var conversations []model.Conversation
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("COALESCE(last_message_at, created_at) DESC").
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&conversations).Error

	return conversations, total, err
}

// SoftDelete 软删除会话，消息保留
func (r *ConversationRepository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Conversation{}, id).Error
}

// DeactivateIdle 将长时间没有消息的会话标记为不活跃
// 参数:
//   - ctx: 上下文
//   - before: 最近活动早于该时间的会话会被处理
//
// 返回:
//   - int64: 受影响的会话数
//   - error: 数据库错误
func (r *ConversationRepository) DeactivateIdle(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("is_active = ?", true).
		Where("COALESCE(last_message_at, created_at) < ?", before).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
