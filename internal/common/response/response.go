// Package response 提供统一的 API 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKeyErrorCode 最近一次错误响应的业务码，供访问日志读取
const ContextKeyErrorCode = "error_code"

// Response API 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页数据结构
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, PageData{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// ErrorStatus 指定 HTTP 状态的错误响应，status 为 0 时按 200 返回
func ErrorStatus(c *gin.Context, status, code int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	c.Set(ContextKeyErrorCode, code)
	c.JSON(status, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// ErrorCode 返回本次请求写出的业务错误码，未出错时为 0
func ErrorCode(c *gin.Context) int {
	return c.GetInt(ContextKeyErrorCode)
}

func statusError(c *gin.Context, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	ErrorStatus(c, status, status, message, nil)
}

// BadRequest 请求参数错误
func BadRequest(c *gin.Context, message string) {
	statusError(c, http.StatusBadRequest, message)
}

// Unauthorized 未授权
func Unauthorized(c *gin.Context, message string) {
	statusError(c, http.StatusUnauthorized, message)
}

// Forbidden 禁止访问
func Forbidden(c *gin.Context, message string) {
	statusError(c, http.StatusForbidden, message)
}

// RequestTooLarge 请求体过大
func RequestTooLarge(c *gin.Context, message string) {
	statusError(c, http.StatusRequestEntityTooLarge, message)
}

// TooManyRequests 请求过于频繁
func TooManyRequests(c *gin.Context, message string) {
	statusError(c, http.StatusTooManyRequests, message)
}

// InternalError 服务器内部错误
func InternalError(c *gin.Context, message string) {
	statusError(c, http.StatusInternalServerError, message)
}
