package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/middleware"
	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/response"
)

// ConversationHandler 会话请求处理器
type ConversationHandler struct {
	conversationService *service.ConversationService
}

// NewConversationHandler 创建 ConversationHandler 实例
func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// List 当前用户的会话列表，最近活动的在前
// @Router /api/v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	page, pageSize := parsePage(c)
	result, err := h.conversationService.List(c.Request.Context(), middleware.GetUserID(c), page, pageSize)
	if err != nil {
		zap.L().Error("list conversations failed", zap.Error(err))
		response.InternalError(c, "获取会话列表失败")
		return
	}
	response.Success(c, result)
}

// Get 会话详情
// @Router /api/v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	conversation, err := h.conversationService.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		writeConversationError(c, err, "获取会话失败")
		return
	}
	response.Success(c, conversation)
}

// Messages 会话消息，最早的在前
// @Router /api/v1/conversations/{id}/messages [get]
func (h *ConversationHandler) Messages(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	page, pageSize := parsePage(c)
	result, err := h.conversationService.Messages(c.Request.Context(), middleware.GetUserID(c), id, page, pageSize)
	if err != nil {
		writeConversationError(c, err, "获取消息失败")
		return
	}
	response.Success(c, result)
}

// Delete 删除会话
// @Router /api/v1/conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.conversationService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		writeConversationError(c, err, "删除会话失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// writeConversationError 会话相关错误映射，聊天接口共用
func writeConversationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		response.ConversationNotFound(c)
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.UserNotFound(c)
	default:
		zap.L().Error(fallback, zap.Error(err))
		response.InternalError(c, fallback)
	}
}
