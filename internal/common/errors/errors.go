// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError 应用错误
type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"-"`
	Data    interface{} `json:"data,omitempty"`
	Err     error       `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 错误码相同即视为同一错误，WithMessage 等派生出的副本也能匹配
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// HTTPStatus 返回 HTTP 状态码，未指定时为 200
func (e *AppError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusOK
	}
	return e.Status
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// newWithStatus 创建带 HTTP 状态的应用错误
func newWithStatus(code, status int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	c := *e
	c.Message = message
	return &c
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// WithData 附带响应数据
func (e *AppError) WithData(data interface{}) *AppError {
	c := *e
	c.Data = data
	return &c
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = newWithStatus(1000, http.StatusInternalServerError, "未知错误")
	ErrInvalidParams   = newWithStatus(1001, http.StatusBadRequest, "参数错误")
	ErrNotFound        = newWithStatus(1002, http.StatusNotFound, "资源不存在")
	ErrAlreadyExists   = newWithStatus(1003, http.StatusConflict, "资源已存在")
	ErrDatabaseError   = newWithStatus(1004, http.StatusInternalServerError, "数据库错误")
	ErrCacheError      = newWithStatus(1005, http.StatusInternalServerError, "缓存错误")
	ErrInternalError   = newWithStatus(1006, http.StatusInternalServerError, "内部错误")
	ErrRateLimitExceed = newWithStatus(1008, http.StatusTooManyRequests, "请求过于频繁")
	ErrOperationFailed = newWithStatus(1009, http.StatusInternalServerError, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = newWithStatus(2000, http.StatusUnauthorized, "未登录")
	ErrTokenExpired     = newWithStatus(2001, http.StatusUnauthorized, "登录已过期")
	ErrTokenInvalid     = newWithStatus(2002, http.StatusUnauthorized, "无效的令牌")
	ErrPermissionDenied = newWithStatus(2004, http.StatusForbidden, "权限不足")
)

// 住宿与计价错误码 (7000-7999)
var (
	ErrUnitNotFound     = newWithStatus(7000, http.StatusNotFound, "住宿单元不存在")
	ErrUnitDisabled     = newWithStatus(7001, http.StatusUnprocessableEntity, "住宿单元已停用")
	ErrParameterInvalid = newWithStatus(7002, http.StatusUnprocessableEntity, "住宿单元不支持该参数")
	ErrMenuItemNotFound = newWithStatus(7003, http.StatusNotFound, "餐饮商品不存在")
	ErrZoneNotFound     = newWithStatus(7004, http.StatusNotFound, "营地区域不存在")
)

// 预订错误码 (8000-8999)
var (
	ErrBookingNotFound    = newWithStatus(8000, http.StatusNotFound, "预订不存在")
	ErrBookingStatusError = newWithStatus(8001, http.StatusConflict, "预订状态不允许该操作")
	ErrBookingConflict    = newWithStatus(8002, http.StatusConflict, "所选日期库存不足")
	ErrBookingLineMissing = newWithStatus(8003, http.StatusNotFound, "预订明细不存在")
	ErrDateRangeInvalid   = newWithStatus(8005, http.StatusBadRequest, "无效的入住日期")
	ErrPricingMissing     = newWithStatus(8006, http.StatusUnprocessableEntity, "缺少价格配置")
)

// 优惠券错误码 (9000-9999)
var (
	ErrVoucherNotFound      = newWithStatus(9000, http.StatusUnprocessableEntity, "优惠码不存在")
	ErrVoucherExpired       = newWithStatus(9001, http.StatusUnprocessableEntity, "优惠码不在有效期内")
	ErrVoucherUsed          = newWithStatus(9002, http.StatusUnprocessableEntity, "优惠码已使用或已达使用上限")
	ErrVoucherNotApplicable = newWithStatus(9003, http.StatusUnprocessableEntity, "优惠码不适用")
	ErrVoucherInactive      = newWithStatus(9004, http.StatusUnprocessableEntity, "优惠码已停用")
	ErrVoucherTargetInvalid = newWithStatus(9005, http.StatusBadRequest, "优惠作用目标无效")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
