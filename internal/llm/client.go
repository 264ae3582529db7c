// Package llm 封装对话模型的调用
// 对上层只暴露一次补全调用：系统提示词 + 历史 + 工具声明，返回文本或一次工具调用
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/AmrElDessouki22/popcorn-ai/internal/config"
)

// 对话角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrNotConfigured = errors.New("llm: api key not configured")

// Message 一条对话记录
type Message struct {
	Role    string
	Content string
}

// Schema 工具参数的 JSON Schema 子集
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Tool 可供模型调用的函数声明
type Tool struct {
	Name        string
	Description string
	Parameters  *Schema
}

// CompletionRequest 一次补全请求
type CompletionRequest struct {
	System   string
	Messages []Message
	Tools    []Tool
}

// ToolCall 模型发起的函数调用，Arguments 为 JSON 字符串
type ToolCall struct {
	Name      string
	Arguments string
}

// Completion 补全结果，ToolCall 不为空时忽略 Text
type Completion struct {
	Text     string
	ToolCall *ToolCall
}

// Client 对话模型客户端
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
	// Provider 供应商名称，用于日志和指标
	Provider() string
	// Model 实际使用的模型名，写入助手消息
	Model() string
}

// New 根据配置创建客户端
func New(ctx context.Context, cfg config.AIConfig) (Client, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
