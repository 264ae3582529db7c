// Package testutil 测试用的数据库和模型替身
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AmrElDessouki22/popcorn-ai/internal/database"
	"github.com/AmrElDessouki22/popcorn-ai/internal/llm"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/util"
)

// NewDB 在临时目录创建 SQLite 数据库并迁移全部表
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "popcorn.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser 创建一个顾客，密码为 "secret123"
func CreateUser(t *testing.T, db *gorm.DB, email, firstName, lastName string) *model.User {
	t.Helper()

	hash, err := util.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         model.RoleCustomer,
		Status:       model.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// SeedCatalog 写入一份小型商品目录，返回按插入顺序的商品
//   - 0 Classic Hoodie (Clothing & Fashion, 有货)
//   - 1 Ethiopian Beans (Premium Coffee, 有货)
//   - 2 Arabica Blend (Premium Coffee, 有货)
//   - 3 Noise Cancelling Headphones (Technology, 缺货)
func SeedCatalog(t *testing.T, db *gorm.DB) []model.Product {
	t.Helper()

	products := []model.Product{
		{Name: "Classic Hoodie", Description: "Warm cotton hoodie", Price: 39.99, Category: "Clothing & Fashion", Tags: []string{"hoodie", "winter"}, InStock: true},
		{Name: "Ethiopian Beans", Description: "Single origin, fruity notes", Price: 18.5, Category: "Premium Coffee", Tags: []string{"coffee", "light roast"}, InStock: true},
		{Name: "Arabica Blend", Description: "Smooth everyday espresso", Price: 14, Category: "Premium Coffee", Tags: []string{"coffee", "espresso"}, InStock: true},
		{Name: "Noise Cancelling Headphones", Description: "Over-ear, 30h battery", Price: 199, Category: "Technology", Tags: []string{"audio"}, InStock: false},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			t.Fatalf("create product: %v", err)
		}
	}
	return products
}

// ScriptedLLM 按顺序返回预设结果的模型客户端
// 结果用完后重复最后一个
type ScriptedLLM struct {
	mu       sync.Mutex
	Results  []*llm.Completion
	Err      error
	Requests []*llm.CompletionRequest
}

// Complete 记录请求并返回下一个预设结果
func (s *ScriptedLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Results) == 0 {
		return &llm.Completion{}, nil
	}
	idx := len(s.Requests) - 1
	if idx >= len(s.Results) {
		idx = len(s.Results) - 1
	}
	return s.Results[idx], nil
}

// LastRequest 最近一次请求
func (s *ScriptedLLM) LastRequest() *llm.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Requests) == 0 {
		return nil
	}
	return s.Requests[len(s.Requests)-1]
}

func (s *ScriptedLLM) Provider() string { return "scripted" }
func (s *ScriptedLLM) Model() string    { return "scripted-model" }
