// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// 用户角色
const (
	RoleCustomer = "customer" // 普通顾客
	RoleAdmin    = "admin"    // 管理员，可维护商品目录
)

// 账号状态
const (
	UserStatusDisabled int8 = 0
	UserStatusActive   int8 = 1
)

// User 用户模型
// 对应数据库表 users
type User struct {
	// ID 用户唯一标识，自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// Email 登录邮箱，全局唯一
	Email string `gorm:"size:100;uniqueIndex;not null" json:"email"`

	// PasswordHash 密码的 bcrypt 哈希值
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	FirstName string  `gorm:"size:50;not null" json:"firstName"`
	LastName  string  `gorm:"size:50;not null" json:"lastName"`
	Phone     *string `gorm:"size:30" json:"phone,omitempty"`

	// Role 角色: customer / admin
	Role string `gorm:"size:20;default:customer;not null" json:"role"`

	// Status 账号状态
	// 1: 正常
	// 0: 禁用
	Status int8 `gorm:"default:1" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Conversations 用户的助手会话（一对多关系）
	Conversations []Conversation `gorm:"foreignKey:UserID" json:"conversations,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
