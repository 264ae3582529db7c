package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmrElDessouki22/popcorn-ai/internal/assistant"
	"github.com/AmrElDessouki22/popcorn-ai/internal/handler"
	"github.com/AmrElDessouki22/popcorn-ai/internal/llm"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
	"github.com/AmrElDessouki22/popcorn-ai/internal/repository"
	"github.com/AmrElDessouki22/popcorn-ai/internal/router"
	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/internal/testutil"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/jwt"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/response"
)

type memoryBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func (b *memoryBlacklist) BlacklistToken(ctx context.Context, tokenHash string, expireAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tokens == nil {
		b.tokens = make(map[string]time.Time)
	}
	b.tokens[tokenHash] = expireAt
	return nil
}

func (b *memoryBlacklist) IsTokenBlacklisted(ctx context.Context, tokenHash string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[tokenHash]
	return ok
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t        *testing.T
	db       *gorm.DB
	engine   *gin.Engine
	jwt      *jwt.JWTService
	llm      *testutil.ScriptedLLM
	products []model.Product
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	jwtSvc := jwt.NewJWTService("router-test-secret-router-test-secret", time.Hour, 24*time.Hour)
	blacklist := &memoryBlacklist{}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	scripted := &testutil.ScriptedLLM{Results: []*llm.Completion{{Text: "Happy to help!"}}}
	catalog := service.NewCatalogService(productRepo, nil, 0)
	orchestrator := assistant.NewOrchestrator(scripted, catalog, msgRepo, assistant.Options{})

	authSvc := service.NewAuthService(userRepo, blacklist, jwtSvc)
	userSvc := service.NewUserService(userRepo)
	convSvc := service.NewConversationService(convRepo, msgRepo)
	chatSvc := service.NewChatService(userRepo, convRepo, msgRepo, orchestrator, nil)

	engine := router.New(router.Options{
		Logger:    zap.NewNop(),
		JWT:       jwtSvc,
		Blacklist: blacklist,
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, userSvc),
		User:         handler.NewUserHandler(userSvc),
		Product:      handler.NewProductHandler(catalog),
		Conversation: handler.NewConversationHandler(convSvc),
		AI:           handler.NewAIHandler(chatSvc),
		Health:       handler.NewHealthHandler(db, nil),
	})

	return &testServer{
		t:        t,
		db:       db,
		engine:   engine,
		jwt:      jwtSvc,
		llm:      scripted,
		products: testutil.SeedCatalog(t, db),
	}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func (s *testServer) tokenFor(user *model.User) string {
	s.t.Helper()
	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "ok" || body["database"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing request id header")
	}
}

func TestRouter_SignupLoginLogout(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "secret123", "firstName": "Ana", "lastName": "Lopez",
	})
	if code != http.StatusOK || env.Code != response.CodeSuccess {
		t.Fatalf("signup = %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "secret123", "firstName": "Ana", "lastName": "Lopez",
	})
	if code != http.StatusBadRequest || env.Code != response.CodeUserExists {
		t.Errorf("duplicate signup = %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope"})
	if code != http.StatusUnauthorized || env.Code != response.CodePasswordWrong {
		t.Errorf("wrong password = %d %+v", code, env)
	}
	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "secret123"})
	if code != http.StatusUnauthorized || env.Code != response.CodePasswordWrong {
		t.Errorf("unknown email = %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret123"})
	if code != http.StatusOK {
		t.Fatalf("login = %d %+v", code, env)
	}
	var tokens service.TokenResponse
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}

	code, env = s.do(http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)
	if code != http.StatusOK {
		t.Fatalf("me = %d %+v", code, env)
	}
	var me model.User
	json.Unmarshal(env.Data, &me)
	if me.Email != "ana@example.com" {
		t.Errorf("me = %+v", me)
	}

	if code, _ := s.do(http.MethodPost, "/api/v1/auth/logout", tokens.AccessToken, nil); code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil); code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", code)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": tokens.RefreshToken})
	if code != http.StatusOK {
		t.Errorf("refresh = %d %+v", code, env)
	}
}

func TestRouter_Products(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/v1/products?category=Premium%20Coffee", "", nil)
	if code != http.StatusOK {
		t.Fatalf("list = %d %+v", code, env)
	}
	var products []model.Product
	json.Unmarshal(env.Data, &products)
	if len(products) != 2 {
		t.Errorf("coffee products = %d, want 2", len(products))
	}

	code, env = s.do(http.MethodGet, "/api/v1/products/search?q=espresso", "", nil)
	if code != http.StatusOK {
		t.Fatalf("search = %d %+v", code, env)
	}
	json.Unmarshal(env.Data, &products)
	if len(products) != 1 || products[0].Name != "Arabica Blend" {
		t.Errorf("search = %+v", products)
	}

	if code, _ := s.do(http.MethodGet, "/api/v1/products/search?q=", "", nil); code != http.StatusBadRequest {
		t.Errorf("empty search = %d, want 400", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/v1/products?in_stock=maybe", "", nil); code != http.StatusBadRequest {
		t.Errorf("bad in_stock = %d, want 400", code)
	}
	if code, env := s.do(http.MethodGet, "/api/v1/products/9999", "", nil); code != http.StatusNotFound || env.Code != response.CodeProductNotFound {
		t.Errorf("missing product = %d %+v", code, env)
	}
	if code, _ := s.do(http.MethodGet, "/api/v1/products/abc", "", nil); code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", code)
	}
}

func TestRouter_ProductAdminGuard(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateUser(t, s.db, "ana@example.com", "Ana", "Lopez")
	admin := testutil.CreateUser(t, s.db, "admin@example.com", "Root", "Admin")
	s.db.Model(admin).Update("role", model.RoleAdmin)
	admin.Role = model.RoleAdmin

	body := map[string]interface{}{"name": "Travel Mug", "description": "Keeps coffee hot", "price": 25, "category": "Home & Living"}

	if code, _ := s.do(http.MethodPost, "/api/v1/products", "", body); code != http.StatusUnauthorized {
		t.Errorf("anonymous create = %d, want 401", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/v1/products", s.tokenFor(customer), body); code != http.StatusForbidden {
		t.Errorf("customer create = %d, want 403", code)
	}

	code, env := s.do(http.MethodPost, "/api/v1/products", s.tokenFor(admin), body)
	if code != http.StatusCreated {
		t.Fatalf("admin create = %d %+v", code, env)
	}
	var created model.Product
	json.Unmarshal(env.Data, &created)
	if created.ID == 0 || !created.InStock {
		t.Errorf("created = %+v", created)
	}

	token := s.tokenFor(admin)
	path := fmt.Sprintf("/api/v1/products/%d", created.ID)
	if code, _ := s.do(http.MethodDelete, path, token, nil); code != http.StatusOK {
		t.Errorf("delete = %d", code)
	}
	if code, _ := s.do(http.MethodGet, path, "", nil); code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", code)
	}
	if code, _ := s.do(http.MethodPost, path+"/restore", token, nil); code != http.StatusOK {
		t.Errorf("restore = %d", code)
	}
	if code, _ := s.do(http.MethodDelete, path+"/purge", token, nil); code != http.StatusNoContent {
		t.Errorf("purge = %d, want 204", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/v1/products", token, map[string]interface{}{"name": "x", "description": "x", "price": -1}); code != http.StatusBadRequest {
		t.Errorf("negative price = %d, want 400", code)
	}
}

func TestRouter_Chat(t *testing.T) {
	s := newTestServer(t)
	ana := testutil.CreateUser(t, s.db, "ana@example.com", "Ana", "Lopez")
	bob := testutil.CreateUser(t, s.db, "bob@example.com", "Bob", "Stone")
	anaToken, bobToken := s.tokenFor(ana), s.tokenFor(bob)

	if code, _ := s.do(http.MethodPost, "/api/v1/ai/chat", "", map[string]string{"message": "hi"}); code != http.StatusUnauthorized {
		t.Errorf("anonymous chat = %d, want 401", code)
	}

	code, env := s.do(http.MethodPost, "/api/v1/ai/chat", anaToken, map[string]string{"message": "   "})
	if code != http.StatusBadRequest || env.Code != response.CodeEmptyMessage {
		t.Errorf("empty message = %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/api/v1/ai/chat", anaToken, map[string]string{"message": "I need a gift"})
	if code != http.StatusOK {
		t.Fatalf("chat = %d %+v", code, env)
	}
	var turn service.ChatTurnResponse
	if err := json.Unmarshal(env.Data, &turn); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	if turn.Message != "Happy to help!" || turn.ConversationID == 0 {
		t.Errorf("turn = %+v", turn)
	}

	code, env = s.do(http.MethodPost, "/api/v1/ai/chat", anaToken, map[string]interface{}{"message": "hi", "conversationId": 9999})
	if code != http.StatusNotFound || env.Code != response.CodeConversationNotFound {
		t.Errorf("unknown conversation = %d %+v", code, env)
	}
	code, env = s.do(http.MethodPost, "/api/v1/ai/chat", bobToken, map[string]interface{}{"message": "hi", "conversationId": turn.ConversationID})
	if code != http.StatusForbidden {
		t.Errorf("foreign conversation = %d %+v", code, env)
	}

	code, env = s.do(http.MethodGet, "/api/v1/conversations", anaToken, nil)
	if code != http.StatusOK {
		t.Fatalf("list conversations = %d", code)
	}
	var list service.ConversationListResponse
	json.Unmarshal(env.Data, &list)
	if list.Total != 1 || list.Conversations[0].ID != turn.ConversationID {
		t.Errorf("conversations = %+v", list)
	}

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages", turn.ConversationID), anaToken, nil)
	if code != http.StatusOK {
		t.Fatalf("messages = %d", code)
	}
	var messages service.MessageListResponse
	json.Unmarshal(env.Data, &messages)
	if messages.Total != 2 || messages.Messages[0].Content != "I need a gift" || messages.Messages[1].Content != "Happy to help!" {
		t.Errorf("messages = %+v", messages)
	}

	if code, _ := s.do(http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d", turn.ConversationID), bobToken, nil); code != http.StatusForbidden {
		t.Errorf("foreign get = %d, want 403", code)
	}
	if code, _ := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/conversations/%d", turn.ConversationID), anaToken, nil); code != http.StatusOK {
		t.Errorf("delete = %d", code)
	}
}
