package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/glamping-backend/internal/common/handler"
	"github.com/dumeirei/glamping-backend/internal/common/response"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
)

// NotificationHandler 站内通知处理器
type NotificationHandler struct {
	inbox *bookingService.NotificationService
}

// NewNotificationHandler 创建站内通知处理器
func NewNotificationHandler(inbox *bookingService.NotificationService) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// List 通知列表
// @Summary 站内通知列表
// @Tags 站内通知
// @Produce json
// @Security Bearer
// @Param booking_id query int false "预订ID"
// @Param type query string false "通知类型"
// @Param unread query bool false "只看未读"
// @Router /api/v1/admin/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	bookingID, ok := handler.ParseQueryID(c, "booking_id", "预订")
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	list, total, err := h.inbox.List(c.Request.Context(), &bookingService.NotificationListRequest{
		Page:       p.Page,
		PageSize:   p.PageSize,
		BookingID:  bookingID,
		Type:       c.Query("type"),
		UnreadOnly: c.Query("unread") == "true",
	})
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// UnreadCount 未读数量
// @Router /api/v1/admin/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	bookingID, ok := handler.ParseQueryID(c, "booking_id", "预订")
	if !ok {
		return
	}
	count, err := h.inbox.UnreadCount(c.Request.Context(), bookingID)
	handler.MustSucceed(c, err, gin.H{"unread": count})
}

// MarkRead 标记已读
// @Router /api/v1/admin/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := handler.ParseID(c, "通知")
	if !ok {
		return
	}
	if handler.HandleError(c, h.inbox.MarkRead(c.Request.Context(), id)) {
		return
	}
	response.Success(c, nil)
}

// MarkAllRead 批量已读
// @Router /api/v1/admin/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	bookingID, ok := handler.ParseQueryID(c, "booking_id", "预订")
	if !ok {
		return
	}
	n, err := h.inbox.MarkAllRead(c.Request.Context(), bookingID)
	handler.MustSucceed(c, err, gin.H{"marked": n})
}

// RegisterRoutes 注册通知路由
func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/read-all", h.MarkAllRead)
		notifications.PUT("/:id/read", h.MarkRead)
	}
}
