package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/AmrElDessouki22/popcorn-ai/internal/middleware"
	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/response"
)

// AIHandler 购物助手请求处理器
type AIHandler struct {
	chatService *service.ChatService
}

// NewAIHandler 创建 AIHandler 实例
func NewAIHandler(chatService *service.ChatService) *AIHandler {
	return &AIHandler{chatService: chatService}
}

// Chat 向购物助手发送一条消息
// @Summary 发送消息
// @Description 不带 conversationId 时新建会话；模型失败时仍返回兜底回复
// @Tags 助手
// @Security Bearer
// @Param body body service.ChatRequest true "消息"
// @Success 200 {object} response.Response{data=service.ChatTurnResponse}
// @Router /api/v1/ai/chat [post]
func (h *AIHandler) Chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.chatService.PostTurn(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			response.EmptyMessage(c)
			return
		}
		writeConversationError(c, err, "发送消息失败")
		return
	}

	response.Success(c, result)
}
