// Package assistant 实现购物助手的一轮对话
// 读取最近历史，拼系统提示词，调用一次模型，解析文本或 search_products 工具调用，
// 最后返回统一的回复结构。所有失败都转成固定的道歉文案，不向调用方返回错误。
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/llm"
	"github.com/AmrElDessouki22/popcorn-ai/internal/metrics"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

// 固定回复文案
const (
	MsgFallback      = "I apologize, but I encountered an error. Please try again."
	MsgEmptyResponse = "I apologize, but I couldn't generate a response."
	MsgUnknownTool   = "I apologize, but I couldn't process your request."
	MsgNoProducts    = "I couldn't find any products. Please try a different search or let me know what specific features you're looking for."
	MsgCatalogError  = "I apologize, but I couldn't search for products right now. Please try again."
)

const (
	maxHistory         = 10
	defaultMaxCarousel = 6
	defaultTimeout     = 30 * time.Second
)

// CatalogStore 商品目录
type CatalogStore interface {
	// FindAll 全部未删除商品（含缺货）
	FindAll(ctx context.Context) ([]model.Product, error)
	// FindByIDs 按 ID 查在售商品，按名称升序，未知 ID 忽略
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}

// HistoryStore 会话历史
type HistoryStore interface {
	// GetRecentMessages 最近 limit 条消息，最早的在前
	GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]model.Message, error)
}

// Reply 一轮对话的结果
// Type 为空表示纯文本；carousel 时 RichContent 中至少有一个商品
type Reply struct {
	Message     string             `json:"message"`
	RichContent *model.RichContent `json:"richContent,omitempty"`
	Type        string             `json:"type,omitempty"`
}

// Options 可调参数，零值使用默认值
type Options struct {
	HistoryLimit int
	MaxCarousel  int
	Timeout      time.Duration
}

// Orchestrator 购物助手编排器
type Orchestrator struct {
	llm      llm.Client
	catalog  CatalogStore
	history  HistoryStore
	composer *PromptComposer
	opts     Options
}

// NewOrchestrator 创建 Orchestrator 实例
func NewOrchestrator(client llm.Client, catalog CatalogStore, history HistoryStore, opts Options) *Orchestrator {
	if opts.HistoryLimit <= 0 || opts.HistoryLimit > maxHistory {
		opts.HistoryLimit = maxHistory
	}
	if opts.MaxCarousel <= 0 {
		opts.MaxCarousel = defaultMaxCarousel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Orchestrator{
		llm:      client,
		catalog:  catalog,
		history:  history,
		composer: NewPromptComposer(catalog),
		opts:     opts,
	}
}

// Model 生成回复的模型名
func (o *Orchestrator) Model() string {
	return o.llm.Model()
}

// Reply 处理一轮对话
// 参数:
//   - ctx: 上下文
//   - conversationID: 会话ID，历史中不包含本轮的用户消息
//   - userID: 用户ID，只用于日志
//   - utterance: 用户本轮输入
//
// 返回:
//   - *Reply: 永不为 nil
func (o *Orchestrator) Reply(ctx context.Context, conversationID, userID int64, utterance string) (reply *Reply) {
	log := zap.L().With(zap.Int64("conversation_id", conversationID), zap.Int64("user_id", userID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("assistant turn panicked", zap.Any("panic", r), zap.Stack("stack"))
			metrics.ObserveTurn(metrics.OutcomeFallback)
			reply = &Reply{Message: MsgFallback}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	r, outcome, err := o.run(ctx, conversationID, utterance)
	if err != nil {
		log.Error("assistant turn failed", zap.Error(err))
		metrics.ObserveTurn(metrics.OutcomeFallback)
		return &Reply{Message: MsgFallback}
	}
	metrics.ObserveTurn(outcome)
	return r
}

func (o *Orchestrator) run(ctx context.Context, conversationID int64, utterance string) (*Reply, string, error) {
	history, err := o.history.GetRecentMessages(ctx, conversationID, o.opts.HistoryLimit)
	if err != nil {
		return nil, "", fmt.Errorf("load history: %w", err)
	}

	system, err := o.composer.Compose(ctx)
	if err != nil {
		return nil, "", err
	}

	req := &llm.CompletionRequest{
		System:   system,
		Messages: append(toTranscript(history, o.opts.HistoryLimit), llm.Message{Role: llm.RoleUser, Content: utterance}),
		Tools:    []llm.Tool{searchProductsTool},
	}

	start := time.Now()
	completion, err := o.llm.Complete(ctx, req)
	metrics.ObserveModelCall(o.llm.Provider(), time.Since(start), err)
	if err != nil {
		return nil, "", fmt.Errorf("model call: %w", err)
	}

	if completion.ToolCall != nil {
		return o.handleToolCall(ctx, completion.ToolCall)
	}

	if strings.TrimSpace(completion.Text) == "" {
		return &Reply{Message: MsgEmptyResponse}, metrics.OutcomeEmptyResponse, nil
	}
	return &Reply{Message: completion.Text}, metrics.OutcomeText, nil
}

func (o *Orchestrator) handleToolCall(ctx context.Context, call *llm.ToolCall) (*Reply, string, error) {
	if call.Name != ToolSearchProducts {
		zap.L().Warn("model called unknown tool", zap.String("tool", call.Name))
		return &Reply{Message: MsgUnknownTool}, metrics.OutcomeUnknownTool, nil
	}

	ids, err := parseSearchProductsArgs(call.Arguments)
	if err != nil {
		return nil, "", err
	}
	return o.searchProducts(ctx, ids)
}

func (o *Orchestrator) searchProducts(ctx context.Context, ids []string) (*Reply, string, error) {
	products, err := o.catalog.FindByIDs(ctx, ids)
	if err != nil {
		zap.L().Error("catalog lookup failed", zap.Strings("ids", ids), zap.Error(err))
		return &Reply{Message: MsgCatalogError}, metrics.OutcomeCatalogError, nil
	}
	if len(products) == 0 {
		return &Reply{Message: MsgNoProducts}, metrics.OutcomeNoProducts, nil
	}

	shown := products
	if len(shown) > o.opts.MaxCarousel {
		shown = shown[:o.opts.MaxCarousel]
	}

	summaries := make([]model.ProductSummary, 0, len(shown))
	names := make([]string, 0, len(shown))
	for i := range shown {
		summaries = append(summaries, shown[i].Summary())
		names = append(names, shown[i].Name)
	}

	message := fmt.Sprintf(
		"I found %d products. Here are the best options: %s. You can click on any product to learn more or add it to your cart.",
		len(products), strings.Join(names, ", "),
	)
	return &Reply{
		Message:     message,
		RichContent: model.NewProductCarousel(summaries),
		Type:        model.MessageTypeCarousel,
	}, metrics.OutcomeCarousel, nil
}

// toTranscript 把历史消息转成模型对话
// user 发送的为 user 角色，其余都视为 assistant
func toTranscript(history []model.Message, limit int) []llm.Message {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		role := llm.RoleAssistant
		if m.SenderType == model.SenderUser {
			role = llm.RoleUser
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
