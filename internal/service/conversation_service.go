package service

import (
	"context"
	"errors"

	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
	"github.com/AmrElDessouki22/popcorn-ai/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("会话不存在")
	ErrNoPermission         = errors.New("无权访问该会话")
)

// ConversationService 会话查询和管理
type ConversationService struct {
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
}

// NewConversationService 创建 ConversationService 实例
func NewConversationService(conversationRepo *repository.ConversationRepository, messageRepo *repository.MessageRepository) *ConversationService {
	return &ConversationService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
	}
}

// ConversationListResponse 会话列表
type ConversationListResponse struct {
	Conversations []model.Conversation `json:"conversations"`
	Total         int64                `json:"total"`
	Page          int                  `json:"page"`
	PageSize      int                  `json:"pageSize"`
}

// MessageListResponse 消息列表
type MessageListResponse struct {
	Messages []model.Message `json:"messages"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// List 分页列出用户的会话
func (s *ConversationService) List(ctx context.Context, userID int64, page, pageSize int) (*ConversationListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	conversations, total, err := s.conversationRepo.ListByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	return &ConversationListResponse{
		Conversations: conversations,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

// Get 获取会话，校验所有权
// 返回:
//   - *model.Conversation: 会话
//   - error: ErrConversationNotFound / ErrNoPermission
func (s *ConversationService) Get(ctx context.Context, userID, conversationID int64) (*model.Conversation, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	if conversation.UserID != userID {
		return nil, ErrNoPermission
	}
	return conversation, nil
}

// Messages 分页获取会话消息，最早的在前
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID int64, page, pageSize int) (*MessageListResponse, error) {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	page, pageSize = normalizePage(page, pageSize)
	messages, total, err := s.messageRepo.ListByConversationID(ctx, conversationID, page, pageSize)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return &MessageListResponse{
		Messages: messages,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Delete 软删除会话
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID int64) error {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.conversationRepo.SoftDelete(ctx, conversationID)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
