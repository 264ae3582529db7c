// Package config 管理 CLI 客户端配置
// 配置保存在 ~/.popcorn/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config CLI 配置结构
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	URL string `mapstructure:"url"` // HTTP API 地址
}

// AuthConfig 登录凭证
type AuthConfig struct {
	AccessToken  string `mapstructure:"access_token"`
	RefreshToken string `mapstructure:"refresh_token"`
	Email        string `mapstructure:"email"`
}

const defaultServerURL = "http://localhost:8080"

var (
	cfg *Config
	v   *viper.Viper
)

// Init 从默认目录初始化配置
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("获取用户目录失败: %w", err)
	}
	return InitAt(filepath.Join(home, ".popcorn"))
}

// InitAt 从指定目录初始化配置，目录不存在时创建
func InitAt(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	v = viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("POPCORN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.url", defaultServerURL)
	v.SetDefault("auth.access_token", "")
	v.SetDefault("auth.refresh_token", "")
	v.SetDefault("auth.email", "")

	if err := v.ReadInConfig(); err != nil {
		// 首次运行没有配置文件
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("读取配置失败: %w", err)
		}
		if err := v.SafeWriteConfigAs(path); err != nil {
			return fmt.Errorf("写入默认配置失败: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	return nil
}

// Get 获取配置
func Get() *Config {
	return cfg
}

// SaveAuth 保存登录凭证
func SaveAuth(accessToken, refreshToken, email string) error {
	v.Set("auth.access_token", accessToken)
	v.Set("auth.refresh_token", refreshToken)
	v.Set("auth.email", email)
	cfg.Auth = AuthConfig{AccessToken: accessToken, RefreshToken: refreshToken, Email: email}
	return v.WriteConfig()
}

// ClearAuth 清除本地凭证
func ClearAuth() error {
	return SaveAuth("", "", "")
}

// GetAccessToken 获取访问 Token
func GetAccessToken() string {
	if cfg == nil {
		return ""
	}
	return cfg.Auth.AccessToken
}

// GetEmail 当前登录的邮箱
func GetEmail() string {
	if cfg == nil {
		return ""
	}
	return cfg.Auth.Email
}

// GetServerURL 获取服务器地址
func GetServerURL() string {
	if cfg == nil || cfg.Server.URL == "" {
		return defaultServerURL
	}
	return strings.TrimRight(cfg.Server.URL, "/")
}

// SetServerURL 设置服务器地址（仅本次运行，不写入文件）
func SetServerURL(url string) {
	if cfg != nil {
		cfg.Server.URL = url
	}
}

// WSURL 把 HTTP 地址转换为 WebSocket 地址
func WSURL(serverURL string) string {
	switch {
	case strings.HasPrefix(serverURL, "https://"):
		return "wss://" + strings.TrimPrefix(serverURL, "https://")
	case strings.HasPrefix(serverURL, "http://"):
		return "ws://" + strings.TrimPrefix(serverURL, "http://")
	default:
		return serverURL
	}
}

// IsLoggedIn 检查是否已登录
func IsLoggedIn() bool {
	return GetAccessToken() != ""
}
