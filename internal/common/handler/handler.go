// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、认证检查、参数解析等操作
package handler

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dumeirei/glamping-backend/internal/common/errors"
	"github.com/dumeirei/glamping-backend/internal/common/response"
	"github.com/dumeirei/glamping-backend/internal/common/utils"
	"github.com/dumeirei/glamping-backend/internal/middleware"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，发送错误响应并返回 true（表示已处理错误，调用方应该 return）
//
// 使用示例:
//
//	totals, err := service.Recalculate(ctx, bookingID, adminID)
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	return HandleErrorWithMessage(c, err, errors.ErrOperationFailed.Message)
}

// HandleErrorWithMessage 处理错误，对非 AppError 使用自定义消息，内部错误详情不外泄
func HandleErrorWithMessage(c *gin.Context, err error, message string) bool {
	if err == nil {
		return false
	}
	if errors.IsAppError(err) {
		appErr := errors.GetAppError(err)
		response.ErrorStatus(c, appErr.HTTPStatus(), appErr.Code, appErr.Message, appErr.Data)
		return true
	}
	_ = c.Error(err)
	op := errors.ErrOperationFailed
	response.ErrorStatus(c, op.HTTPStatus(), op.Code, message, nil)
	return true
}

// MustSucceed 如果有错误则返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ============================================================================
// 请求体绑定
// ============================================================================

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册业务校验标签
//
//	date: YYYY-MM-DD 日期字符串
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		})
	})
}

// BindJSON 绑定并校验 JSON 请求体，失败时返回 400
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorStatus(c, errors.ErrInvalidParams.HTTPStatus(), errors.ErrInvalidParams.Code,
			errors.ErrInvalidParams.Message, validationDetails(err))
		return false
	}
	return true
}

// validationDetails 将校验错误展开为 字段 -> 标签
func validationDetails(err error) interface{} {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return gin.H{"error": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return gin.H{"fields": fields}
}

// ============================================================================
// 操作员认证检查
// ============================================================================

// RequireAdminID 获取当前操作员ID，如果未登录则返回401响应
func RequireAdminID(c *gin.Context) (int64, bool) {
	adminID := middleware.GetAdminID(c)
	if adminID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return adminID, true
}

// ============================================================================
// ID 参数解析
// ============================================================================

// ParseID 解析路径参数 "id" 为 int64
// 返回 (0, false) 表示解析失败（已发送400响应，调用方应该 return）
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
// paramName: 路径参数名称（如 "id", "tent_id"）
// resourceName: 资源名称，用于错误消息（如 "预订", "帐篷"）
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析查询参数中的可选 ID
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return nil, false
	}
	return &id, true
}

// RequireAdminAndParseID 组合：检查操作员登录 + 解析ID参数
func RequireAdminAndParseID(c *gin.Context, resourceName string) (adminID, resourceID int64, ok bool) {
	adminID, ok = RequireAdminID(c)
	if !ok {
		return 0, 0, false
	}
	resourceID, ok = ParseID(c, resourceName)
	if !ok {
		return 0, 0, false
	}
	return adminID, resourceID, true
}

// ============================================================================
// 日期解析
// ============================================================================

// DateFormat 入住/离店日期格式
const DateFormat = "2006-01-02"

// ParseDate 解析日期字符串 (YYYY-MM-DD)，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}

// ParseStayDates 解析入住与离店日期，要求离店晚于入住
func ParseStayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrDateRangeInvalid.WithError(err)
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrDateRangeInvalid.WithError(err)
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, errors.ErrDateRangeInvalid.WithMessage("离店日期必须晚于入住日期")
	}
	return in, out, nil
}

// ============================================================================
// 分页处理
// ============================================================================

// BindPagination 从查询参数绑定并规范化分页参数
// 默认 page=1, pageSize=10, 最大 pageSize=100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}
