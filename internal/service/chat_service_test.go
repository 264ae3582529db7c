package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/AmrElDessouki22/popcorn-ai/internal/assistant"
	"github.com/AmrElDessouki22/popcorn-ai/internal/llm"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
	"github.com/AmrElDessouki22/popcorn-ai/internal/repository"
	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/internal/testutil"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/util"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*model.Message
	err      error
}

func (p *recordingPublisher) PublishMessages(ctx context.Context, messages ...*model.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, messages...)
	return p.err
}

func (p *recordingPublisher) Close() {}

type recordingNotifier struct {
	userIDs []int64
	turns   []*service.ChatTurnResponse
}

func (n *recordingNotifier) NotifyTurn(userID int64, turn *service.ChatTurnResponse) {
	n.userIDs = append(n.userIDs, userID)
	n.turns = append(n.turns, turn)
}

type chatFixture struct {
	db        *gorm.DB
	llm       *testutil.ScriptedLLM
	publisher *recordingPublisher
	notifier  *recordingNotifier
	chat      *service.ChatService
	convs     *service.ConversationService
	products  []model.Product
}

func newChatFixture(t *testing.T, results ...*llm.Completion) *chatFixture {
	t.Helper()

	db := testutil.NewDB(t)
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	catalog := service.NewCatalogService(repository.NewProductRepository(db), nil, 0)

	scripted := &testutil.ScriptedLLM{Results: results}
	orchestrator := assistant.NewOrchestrator(scripted, catalog, msgRepo, assistant.Options{})

	f := &chatFixture{
		db:        db,
		llm:       scripted,
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
		convs:     service.NewConversationService(convRepo, msgRepo),
		products:  testutil.SeedCatalog(t, db),
	}
	f.chat = service.NewChatService(userRepo, convRepo, msgRepo, orchestrator, f.publisher)
	f.chat.SetNotifier(f.notifier)
	return f
}

func TestChatService_PostTurnCreatesConversation(t *testing.T) {
	f := newChatFixture(t, &llm.Completion{Text: "Hi Ana! What are you shopping for today?"})
	user := testutil.CreateUser(t, f.db, "ana@example.com", "Ana", "Lopez")
	ctx := context.Background()

	utterance := strings.Repeat("I am looking for a present for my brother ", 3)
	resp, err := f.chat.PostTurn(ctx, user.ID, &service.ChatRequest{Message: "  " + utterance + "  "})
	if err != nil {
		t.Fatalf("PostTurn: %v", err)
	}
	if resp.Message != "Hi Ana! What are you shopping for today?" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.ConversationID == 0 || resp.UserMessageID == 0 || resp.AIMessageID == 0 {
		t.Fatalf("ids not set: %+v", resp)
	}
	if resp.RichContent != nil || resp.Type != "" {
		t.Errorf("text reply has rich content: %+v", resp)
	}

	conv, err := f.convs.Get(ctx, user.ID, resp.ConversationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	wantTitle := util.TitleFromUtterance(utterance, 50)
	if conv.Title == nil || *conv.Title != wantTitle {
		t.Errorf("title = %v, want %q", conv.Title, wantTitle)
	}
	if conv.LastMessageAt == nil {
		t.Errorf("lastMessageAt not set")
	}

	// 第一轮只有本轮输入
	req := f.llm.LastRequest()
	if len(req.Messages) != 1 || req.Messages[0].Role != llm.RoleUser || req.Messages[0].Content != strings.TrimSpace(utterance) {
		t.Errorf("transcript = %+v", req.Messages)
	}

	list, err := f.convs.Messages(ctx, user.ID, resp.ConversationID, 1, 20)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("total = %d, want 2", list.Total)
	}
	userMsg, aiMsg := list.Messages[0], list.Messages[1]
	if userMsg.SenderType != model.SenderUser || userMsg.SenderName == nil || *userMsg.SenderName != "Ana Lopez" {
		t.Errorf("user message = %+v", userMsg)
	}
	if userMsg.UserID == nil || *userMsg.UserID != user.ID {
		t.Errorf("user message userId = %v", userMsg.UserID)
	}
	if aiMsg.SenderType != model.SenderAI || aiMsg.SenderName == nil || *aiMsg.SenderName != "AI" {
		t.Errorf("ai message = %+v", aiMsg)
	}
	if aiMsg.AIModel == nil || *aiMsg.AIModel != "scripted-model" {
		t.Errorf("ai model = %v", aiMsg.AIModel)
	}
	if aiMsg.Type != model.MessageTypeText {
		t.Errorf("ai message type = %q", aiMsg.Type)
	}

	if len(f.publisher.messages) != 2 {
		t.Errorf("published %d messages, want 2", len(f.publisher.messages))
	}
	if len(f.notifier.turns) != 1 || f.notifier.userIDs[0] != user.ID || f.notifier.turns[0] != resp {
		t.Errorf("notifier not called with the turn")
	}
}

func TestChatService_PostTurnHistoryExcludesCurrentUtterance(t *testing.T) {
	f := newChatFixture(t,
		&llm.Completion{Text: "Sure, what size?"},
		&llm.Completion{Text: "Medium it is."},
	)
	user := testutil.CreateUser(t, f.db, "ana@example.com", "Ana", "Lopez")
	ctx := context.Background()

	first, err := f.chat.PostTurn(ctx, user.ID, &service.ChatRequest{Message: "I need a hoodie"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	second, err := f.chat.PostTurn(ctx, user.ID, &service.ChatRequest{Message: "medium", ConversationID: &first.ConversationID})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Fatalf("second turn went to conversation %d, want %d", second.ConversationID, first.ConversationID)
	}

	got := f.llm.LastRequest().Messages
	want := []llm.Message{
		{Role: llm.RoleUser, Content: "I need a hoodie"},
		{Role: llm.RoleAssistant, Content: "Sure, what size?"},
		{Role: llm.RoleUser, Content: "medium"},
	}
	if len(got) != len(want) {
		t.Fatalf("transcript = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transcript[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestChatService_PostTurnCarousel(t *testing.T) {
	f := newChatFixture(t, nil)
	ids := fmt.Sprintf(`{"ids":["%d",%d,"999"]}`, f.products[1].ID, f.products[2].ID)
	f.llm.Results = []*llm.Completion{{ToolCall: &llm.ToolCall{Name: assistant.ToolSearchProducts, Arguments: ids}}}

	user := testutil.CreateUser(t, f.db, "ana@example.com", "Ana", "Lopez")
	ctx := context.Background()

	resp, err := f.chat.PostTurn(ctx, user.ID, &service.ChatRequest{Message: "show me coffee"})
	if err != nil {
		t.Fatalf("PostTurn: %v", err)
	}
	if resp.Type != model.MessageTypeCarousel || resp.RichContent == nil {
		t.Fatalf("reply = %+v", resp)
	}
	if n := len(resp.RichContent.Products); n != 2 {
		t.Fatalf("carousel has %d products, want 2", n)
	}
	// 按名称升序
	if resp.RichContent.Products[0].Name != "Arabica Blend" || resp.RichContent.Products[1].Name != "Ethiopian Beans" {
		t.Errorf("carousel order = %s, %s", resp.RichContent.Products[0].Name, resp.RichContent.Products[1].Name)
	}
	if !strings.HasPrefix(resp.Message, "I found 2 products.") {
		t.Errorf("message = %q", resp.Message)
	}

	list, _ := f.convs.Messages(ctx, user.ID, resp.ConversationID, 1, 20)
	aiMsg := list.Messages[1]
	if aiMsg.Type != model.MessageTypeCarousel {
		t.Errorf("stored type = %q", aiMsg.Type)
	}
	rc := aiMsg.Rich()
	if rc == nil || rc.Type != model.RichContentProductCarousel || len(rc.Products) != 2 {
		t.Errorf("stored rich content = %+v", rc)
	}
}

type staticAssistant struct {
	reply *assistant.Reply
}

func (a staticAssistant) Reply(ctx context.Context, conversationID, userID int64, utterance string) *assistant.Reply {
	return a.reply
}

func (a staticAssistant) Model() string { return "static-model" }

func TestChatService_PostTurnInvalidRichContentFallsBackToText(t *testing.T) {
	db := testutil.NewDB(t)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	bot := staticAssistant{reply: &assistant.Reply{
		Message:     "I found 0 products.",
		RichContent: model.NewProductCarousel(nil),
		Type:        model.MessageTypeCarousel,
	}}
	chat := service.NewChatService(repository.NewUserRepository(db), convRepo, msgRepo, bot, nil)
	convs := service.NewConversationService(convRepo, msgRepo)
	user := testutil.CreateUser(t, db, "ana@example.com", "Ana", "Lopez")
	ctx := context.Background()

	resp, err := chat.PostTurn(ctx, user.ID, &service.ChatRequest{Message: "show me coffee"})
	if err != nil {
		t.Fatalf("PostTurn: %v", err)
	}
	if resp.RichContent != nil || resp.Type != "" {
		t.Fatalf("reply type = %q, rich = %+v, want plain text", resp.Type, resp.RichContent)
	}

	list, _ := convs.Messages(ctx, user.ID, resp.ConversationID, 1, 20)
	if aiMsg := list.Messages[1]; aiMsg.Type != model.MessageTypeText || aiMsg.Rich() != nil {
		t.Errorf("stored type = %q, rich = %+v", aiMsg.Type, aiMsg.Rich())
	}
}

func TestChatService_PostTurnFallbackStillPersists(t *testing.T) {
	f := newChatFixture(t)
	f.llm.Err = errors.New("upstream unavailable")
	user := testutil.CreateUser(t, f.db, "ana@example.com", "Ana", "Lopez")

	resp, err := f.chat.PostTurn(context.Background(), user.ID, &service.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("PostTurn: %v", err)
	}
	if resp.Message != assistant.MsgFallback {
		t.Errorf("message = %q, want fallback", resp.Message)
	}
	if resp.AIMessageID == 0 {
		t.Errorf("fallback reply not persisted")
	}
}

func TestChatService_PostTurnPublishFailureIgnored(t *testing.T) {
	f := newChatFixture(t, &llm.Completion{Text: "hi"})
	f.publisher.err = errors.New("nats down")
	user := testutil.CreateUser(t, f.db, "ana@example.com", "Ana", "Lopez")

	if _, err := f.chat.PostTurn(context.Background(), user.ID, &service.ChatRequest{Message: "hello"}); err != nil {
		t.Fatalf("PostTurn: %v", err)
	}
}

func TestChatService_PostTurnErrors(t *testing.T) {
	f := newChatFixture(t, &llm.Completion{Text: "hi"})
	ana := testutil.CreateUser(t, f.db, "ana@example.com", "Ana", "Lopez")
	bob := testutil.CreateUser(t, f.db, "bob@example.com", "Bob", "Stone")
	ctx := context.Background()

	anas, err := f.chat.PostTurn(ctx, ana.ID, &service.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("PostTurn: %v", err)
	}
	calls := len(f.llm.Requests)

	missing := int64(9999)
	tests := []struct {
		name   string
		userID int64
		req    *service.ChatRequest
		want   error
	}{
		{"empty message", ana.ID, &service.ChatRequest{Message: ""}, service.ErrEmptyMessage},
		{"blank message", ana.ID, &service.ChatRequest{Message: " \n\t "}, service.ErrEmptyMessage},
		{"unknown user", 4242, &service.ChatRequest{Message: "hello"}, service.ErrUserNotFound},
		{"unknown conversation", ana.ID, &service.ChatRequest{Message: "hello", ConversationID: &missing}, service.ErrConversationNotFound},
		{"foreign conversation", bob.ID, &service.ChatRequest{Message: "hello", ConversationID: &anas.ConversationID}, service.ErrNoPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.chat.PostTurn(ctx, tt.userID, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if len(f.llm.Requests) != calls {
		t.Errorf("model called for rejected turns")
	}
	list, _ := f.convs.Messages(ctx, ana.ID, anas.ConversationID, 1, 20)
	if list.Total != 2 {
		t.Errorf("rejected turns wrote messages: total = %d", list.Total)
	}
}
