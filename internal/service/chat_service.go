package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/assistant"
	"github.com/AmrElDessouki22/popcorn-ai/internal/events"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
	"github.com/AmrElDessouki22/popcorn-ai/internal/repository"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/util"
)

// ErrEmptyMessage 消息为空或只有空白
var ErrEmptyMessage = errors.New("消息内容不能为空")

// 新会话标题取首条消息的前 50 个字符
const titleMaxRunes = 50

// aiSenderName 助手消息的发送者名称
const aiSenderName = "AI"

// Assistant 生成一轮回复
type Assistant interface {
	Reply(ctx context.Context, conversationID, userID int64, utterance string) *assistant.Reply
	Model() string
}

// TurnNotifier 一轮对话完成后的实时推送
// 由 WebSocket Hub 实现，用于把回复同步到用户的其他连接
type TurnNotifier interface {
	NotifyTurn(userID int64, turn *ChatTurnResponse)
}

// ChatRequest 发送消息请求
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversationId"`
}

// ChatTurnResponse 一轮对话的结果
type ChatTurnResponse struct {
	Message        string             `json:"message"`
	ConversationID int64              `json:"conversationId"`
	UserMessageID  int64              `json:"userMessageId"`
	AIMessageID    int64              `json:"aiMessageId"`
	RichContent    *model.RichContent `json:"richContent,omitempty"`
	Type           string             `json:"type,omitempty"`
}

// ChatService 处理用户发给购物助手的消息
type ChatService struct {
	userRepo         *repository.UserRepository
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	assistant        Assistant
	publisher        events.Publisher
	notifier         TurnNotifier
}

// NewChatService 创建 ChatService 实例
func NewChatService(
	userRepo *repository.UserRepository,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	assistant Assistant,
	publisher events.Publisher,
) *ChatService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ChatService{
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		assistant:        assistant,
		publisher:        publisher,
	}
}

// SetNotifier 设置实时推送（Hub 创建后注入，避免循环依赖）
func (s *ChatService) SetNotifier(notifier TurnNotifier) {
	s.notifier = notifier
}

// PostTurn 处理一轮对话
// 流程:
//  1. 校验消息非空
//  2. 未指定会话时新建，否则校验会话存在且属于当前用户
//  3. 调用助手（历史中不含本轮消息）
//  4. 在一个事务中写入用户消息、助手消息并刷新会话活动时间
//  5. 发布事件并推送给用户的其他连接
//
// 返回:
//   - *ChatTurnResponse: 回复和两条消息的 ID
//   - error: ErrEmptyMessage / ErrUserNotFound / ErrConversationNotFound / ErrNoPermission / 数据库错误
func (s *ChatService) PostTurn(ctx context.Context, userID int64, req *ChatRequest) (*ChatTurnResponse, error) {
	utterance := strings.TrimSpace(req.Message)
	if utterance == "" {
		return nil, ErrEmptyMessage
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	conversation, err := s.resolveConversation(ctx, userID, req.ConversationID, utterance)
	if err != nil {
		return nil, err
	}

	reply := s.assistant.Reply(ctx, conversation.ID, userID, utterance)

	userMsg := &model.Message{
		ConversationID: conversation.ID,
		SenderType:     model.SenderUser,
		SenderName:     util.StringPtr(util.FullName(user.FirstName, user.LastName)),
		Content:        utterance,
		Type:           model.MessageTypeText,
		UserID:         util.Int64Ptr(userID),
	}
	aiMsg := &model.Message{
		ConversationID: conversation.ID,
		SenderType:     model.SenderAI,
		SenderName:     util.StringPtr(aiSenderName),
		Content:        reply.Message,
		Type:           model.MessageTypeText,
		AIModel:        util.StringPtr(s.assistant.Model()),
	}
	if reply.RichContent != nil {
		if err := reply.RichContent.Validate(); err != nil {
			zap.L().Warn("dropping invalid rich content", zap.Int64("conversation_id", conversation.ID), zap.Error(err))
		} else {
			aiMsg.SetRich(reply.RichContent)
			aiMsg.Type = reply.RichContent.MessageType()
		}
	}

	if err := s.messageRepo.CreateTurn(ctx, userMsg, aiMsg); err != nil {
		return nil, err
	}

	resp := &ChatTurnResponse{
		Message:        reply.Message,
		ConversationID: conversation.ID,
		UserMessageID:  userMsg.ID,
		AIMessageID:    aiMsg.ID,
		RichContent:    aiMsg.Rich(),
	}
	// 结构化内容被丢弃时按纯文本返回
	if aiMsg.Type != model.MessageTypeText {
		resp.Type = aiMsg.Type
	}

	if err := s.publisher.PublishMessages(ctx, userMsg, aiMsg); err != nil {
		zap.L().Warn("publish chat events failed", zap.Int64("conversation_id", conversation.ID), zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.NotifyTurn(userID, resp)
	}

	return resp, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, userID int64, conversationID *int64, utterance string) (*model.Conversation, error) {
	if conversationID == nil || *conversationID == 0 {
		conversation := &model.Conversation{
			UserID:   userID,
			Title:    util.StringPtr(util.TitleFromUtterance(utterance, titleMaxRunes)),
			Type:     model.ConversationTypeAssistant,
			IsActive: true,
		}
		if err := s.conversationRepo.Create(ctx, conversation); err != nil {
			return nil, err
		}
		return conversation, nil
	}

	conversation, err := s.conversationRepo.GetByID(ctx, *conversationID)
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
