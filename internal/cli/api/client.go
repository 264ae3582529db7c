// Package api 封装与服务器的 HTTP API 交互
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

// Client API 客户端
// baseURL: 例如 http://localhost:8080
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建 API 客户端
// 超时需覆盖一次模型调用
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIResponse 通用响应
type APIResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Error 业务错误
type Error struct {
	Status  int
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API 错误 (%d/%d): %s", e.Status, e.Code, e.Message)
}

// --- 认证 ---

// LoginResponse 登录结果
type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
	User         *model.User `json:"user"`
}

// Login 使用邮箱密码登录
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	var result LoginResponse
	err := c.call(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "", &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout 服务端登出，Token 加入黑名单
func (c *Client) Logout(accessToken string) error {
	return c.call(http.MethodPost, "/api/v1/auth/logout", nil, accessToken, nil)
}

// Me 当前用户
func (c *Client) Me(accessToken string) (*model.User, error) {
	var user model.User
	if err := c.call(http.MethodGet, "/api/v1/auth/me", nil, accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- 商品 ---

// Products 商品列表，category 为空时不过滤
func (c *Client) Products(category string) ([]model.Product, error) {
	path := "/api/v1/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var products []model.Product
	if err := c.call(http.MethodGet, path, nil, "", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts 关键字搜索
func (c *Client) SearchProducts(q string) ([]model.Product, error) {
	var products []model.Product
	if err := c.call(http.MethodGet, "/api/v1/products/search?q="+url.QueryEscape(q), nil, "", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// --- 助手 ---

// ChatTurn 一轮对话结果
type ChatTurn struct {
	Message        string             `json:"message"`
	ConversationID int64              `json:"conversationId"`
	UserMessageID  int64              `json:"userMessageId"`
	AIMessageID    int64              `json:"aiMessageId"`
	RichContent    *model.RichContent `json:"richContent,omitempty"`
	Type           string             `json:"type,omitempty"`
}

// Chat 通过 HTTP 发送一条消息，conversationID 为 0 时新建会话
func (c *Client) Chat(accessToken, message string, conversationID int64) (*ChatTurn, error) {
	body := map[string]interface{}{"message": message}
	if conversationID > 0 {
		body["conversationId"] = conversationID
	}
	var turn ChatTurn
	if err := c.call(http.MethodPost, "/api/v1/ai/chat", body, accessToken, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

// --- 通用请求封装 ---

func (c *Client) call(method, path string, body interface{}, accessToken string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("解析响应失败 (HTTP %d): %w", resp.StatusCode, err)
	}
	if apiResp.Code != 0 {
		return &Error{Status: resp.StatusCode, Code: apiResp.Code, Message: apiResp.Message}
	}

	if out != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, out); err != nil {
			return fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return nil
}
