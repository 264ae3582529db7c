// Package events 把已持久化的对话消息发布到 NATS JetStream
// 供下游（分析、客服工作台）按会话订阅
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/config"
	"github.com/AmrElDessouki22/popcorn-ai/internal/metrics"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

// MessageEvent 一条消息事件
type MessageEvent struct {
	ConversationID int64              `json:"conversationId"`
	MessageID      int64              `json:"messageId"`
	SenderType     string             `json:"senderType"`
	Type           string             `json:"type"`
	Content        string             `json:"content"`
	RichContent    *model.RichContent `json:"richContent,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// NewMessageEvent 从消息构造事件
func NewMessageEvent(m *model.Message) MessageEvent {
	return MessageEvent{
		ConversationID: m.ConversationID,
		MessageID:      m.ID,
		SenderType:     m.SenderType,
		Type:           m.Type,
		Content:        m.Content,
		RichContent:    m.Rich(),
		CreatedAt:      m.CreatedAt,
	}
}

// Publisher 消息事件发布者
type Publisher interface {
	PublishMessages(ctx context.Context, messages ...*model.Message) error
	Close()
}

// NopPublisher 未配置 NATS 时使用
type NopPublisher struct{}

func (NopPublisher) PublishMessages(context.Context, ...*model.Message) error { return nil }
func (NopPublisher) Close()                                                   {}

// JetStreamPublisher 基于 JetStream 的发布者
// 主题为 <prefix>.<conversationID>
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	prefix string
}

// NewPublisher 按配置创建发布者，URL 为空时返回 NopPublisher
func NewPublisher(cfg config.NATSConfig) (Publisher, error) {
	if cfg.URL == "" {
		return NopPublisher{}, nil
	}
	return NewJetStreamPublisher(cfg)
}

// NewJetStreamPublisher 连接 NATS，确保 stream 存在
func NewJetStreamPublisher(cfg config.NATSConfig) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("popcorn-server"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := js.Stream(ctx, cfg.Stream); err != nil {
		zap.L().Info("stream not found, creating", zap.String("stream", cfg.Stream))
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "Popcorn assistant chat messages",
			Subjects:    []string{cfg.SubjectPrefix + ".*"},
			MaxAge:      7 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream %q: %w", cfg.Stream, err)
		}
	}

	return &JetStreamPublisher{nc: nc, js: js, prefix: cfg.SubjectPrefix}, nil
}

// PublishMessages 依次发布消息，遇到错误立即返回
func (p *JetStreamPublisher) PublishMessages(ctx context.Context, messages ...*model.Message) error {
	for _, m := range messages {
		data, err := json.Marshal(NewMessageEvent(m))
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		subject := Subject(p.prefix, m.ConversationID)
		_, err = p.js.Publish(ctx, subject, data)
		metrics.ObservePublish(err)
		if err != nil {
			return fmt.Errorf("failed to publish to %q: %w", subject, err)
		}
	}
	return nil
}

// Close 关闭 NATS 连接
func (p *JetStreamPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// Subject 会话对应的主题
func Subject(prefix string, conversationID int64) string {
	return fmt.Sprintf("%s.%d", prefix, conversationID)
}
