// Package response 提供统一的 HTTP 响应格式
// 所有 API 都使用相同的响应结构，便于前端处理
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
// code: 业务状态码（0 表示成功）
// message: 提示信息
// data: 响应数据
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// 业务状态码定义
const (
	CodeSuccess              = 0    // 成功
	CodeBadRequest           = 1000 // 请求参数错误
	CodeUnauthorized         = 1001 // 未授权
	CodeForbidden            = 1002 // 禁止访问
	CodeNotFound             = 1003 // 资源不存在
	CodeInternalError        = 1004 // 服务器内部错误
	CodeUserExists           = 1101 // 邮箱已注册
	CodeUserNotFound         = 1102 // 用户不存在
	CodePasswordWrong        = 1103 // 密码错误
	CodeUserDisabled         = 1104 // 账号已禁用
	CodeProductNotFound      = 1201 // 商品不存在
	CodeConversationNotFound = 1301 // 会话不存在
	CodeEmptyMessage         = 1302 // 消息内容为空
)

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 返回成功响应（带自定义消息）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// ErrorWithCode 返回错误响应（带业务状态码）
// 参数:
//   - c: Gin 上下文
//   - httpCode: HTTP 状态码
//   - bizCode: 业务状态码
//   - message: 错误信息
func ErrorWithCode(c *gin.Context, httpCode, bizCode int, message string) {
	c.JSON(httpCode, Response{
		Code:    bizCode,
		Message: message,
	})
}

// BadRequest 返回 400 错误（请求参数错误）
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized 返回 401 错误（未授权）
func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden 返回 403 错误（禁止访问）
func Forbidden(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusForbidden, CodeForbidden, message)
}

// NotFound 返回 404 错误（资源不存在）
func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusNotFound, CodeNotFound, message)
}

// InternalError 返回 500 错误（服务器内部错误）
func InternalError(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusInternalServerError, CodeInternalError, message)
}

// UserExists 返回邮箱已注册错误
func UserExists(c *gin.Context) {
	ErrorWithCode(c, http.StatusBadRequest, CodeUserExists, "邮箱已注册")
}

// UserNotFound 返回用户不存在错误
func UserNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeUserNotFound, "用户不存在")
}

// PasswordWrong 返回密码错误
func PasswordWrong(c *gin.Context) {
	ErrorWithCode(c, http.StatusUnauthorized, CodePasswordWrong, "邮箱或密码错误")
}

// UserDisabled 返回账号禁用错误
func UserDisabled(c *gin.Context) {
	ErrorWithCode(c, http.StatusForbidden, CodeUserDisabled, "账号已被禁用")
}

// ProductNotFound 返回商品不存在错误
func ProductNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeProductNotFound, "商品不存在")
}

// ConversationNotFound 返回会话不存在错误
func ConversationNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeConversationNotFound, "会话不存在")
}

// EmptyMessage 返回消息为空错误
func EmptyMessage(c *gin.Context) {
	ErrorWithCode(c, http.StatusBadRequest, CodeEmptyMessage, "消息内容不能为空")
}

// Created 返回 201 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "创建成功",
		Data:    data,
	})
}

// NoContent 返回 204 无内容响应（用于删除操作）
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
