// Package booking 提供营地预订、报价与优惠预览的 HTTP Handler
package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/glamping-backend/internal/common/handler"
	"github.com/dumeirei/glamping-backend/internal/common/qrcode"
	"github.com/dumeirei/glamping-backend/internal/common/response"
	"github.com/dumeirei/glamping-backend/internal/models"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

// Handler 预订处理器
type Handler struct {
	bookingService *bookingService.BookingService
	quoteService   *bookingService.QuoteService
	validator      *marketing.VoucherValidator
	qr             *qrcode.Generator
}

// NewHandler 创建预订处理器
func NewHandler(
	bookingSvc *bookingService.BookingService,
	quoteSvc *bookingService.QuoteService,
	validator *marketing.VoucherValidator,
	qr *qrcode.Generator,
) *Handler {
	handler.RegisterValidators()
	return &Handler{
		bookingService: bookingSvc,
		quoteService:   quoteSvc,
		validator:      validator,
		qr:             qr,
	}
}

// UpdateStatusRequest 变更状态请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed cancelled rejected checked_in checked_out"`
}

// CheckInRequest 扫码入住请求
type CheckInRequest struct {
	Content string `json:"content" binding:"required"`
}

// CheckInResult 扫码入住结果
type CheckInResult struct {
	BookingID int64                  `json:"booking_id"`
	BookingNo string                 `json:"booking_no"`
	Totals    *bookingService.Totals `json:"totals"`
}

// CreateBooking 创建预订
// @Summary 创建预订
// @Tags 预订管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body bookingService.CreateBookingRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Booking}
// @Router /api/v1/admin/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req bookingService.CreateBookingRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), adminID, &req)
	if handleError(c, err) {
		return
	}
	response.Created(c, booking)
}

// ListBookings 预订列表
// @Summary 预订列表
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param zone_id query int false "区域ID"
// @Param status query string false "状态"
// @Param booking_no query string false "预订号"
// @Router /api/v1/admin/bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	zoneID, ok := handler.ParseQueryID(c, "zone_id", "区域")
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), &bookingService.BookingListRequest{
		Page:      p.Page,
		PageSize:  p.PageSize,
		ZoneID:    zoneID,
		Status:    c.Query("status"),
		BookingNo: c.Query("booking_no"),
	})
	handler.MustSucceedPage(c, err, bookings, total, p.Page, p.PageSize)
}

// GetBooking 预订详情（总额、明细行与历史）
// @Summary 预订详情
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=bookingService.BookingDetail}
// @Router /api/v1/admin/bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	bookingID, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	detail, err := h.bookingService.GetBooking(c.Request.Context(), bookingID)
	handler.MustSucceed(c, err, detail)
}

// UpdateStatus 变更预订状态
// @Summary 变更预订状态
// @Tags 预订管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body UpdateStatusRequest true "请求参数"
// @Router /api/v1/admin/bookings/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.UpdateStatus(c.Request.Context(), adminID, bookingID, req.Status)
	mustSucceed(c, err, result)
}

// Recalculate 重算预订总额
// @Summary 重算预订总额
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Router /api/v1/admin/bookings/{id}/recalculate [post]
func (h *Handler) Recalculate(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	result, err := h.bookingService.Recalculate(c.Request.Context(), adminID, bookingID)
	mustSucceed(c, err, result)
}

// DeleteBooking 删除已取消或已拒绝的预订
// @Summary 删除预订
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Router /api/v1/admin/bookings/{id} [delete]
func (h *Handler) DeleteBooking(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.bookingService.DeleteBooking(c.Request.Context(), adminID, bookingID), nil)
}

// CheckInQRCode 预订入住二维码
// @Summary 预订入住二维码
// @Tags 预订核销
// @Produce png
// @Security Bearer
// @Param id path int true "预订ID"
// @Router /api/v1/admin/bookings/{id}/qrcode [get]
func (h *Handler) CheckInQRCode(c *gin.Context) {
	bookingID, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	detail, err := h.bookingService.GetBooking(c.Request.Context(), bookingID)
	if handler.HandleError(c, err) {
		return
	}
	png, err := h.qr.CheckInPNG(detail.BookingNo)
	if handler.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// CheckIn 扫描入住码办理入住
// @Summary 扫码入住
// @Description 前台扫描预订二维码，将已确认的预订变更为已入住
// @Tags 预订核销
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CheckInRequest true "请求参数"
// @Success 200 {object} response.Response{data=CheckInResult}
// @Router /api/v1/admin/bookings/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req CheckInRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bookingNo, err := qrcode.ParseCheckInContent(req.Content)
	if err != nil {
		response.BadRequest(c, "无效的入住码")
		return
	}

	ctx := c.Request.Context()
	booking, err := h.bookingService.GetBookingByNo(ctx, bookingNo)
	if handler.HandleError(c, err) {
		return
	}
	result, err := h.bookingService.UpdateStatus(ctx, adminID, booking.ID, models.BookingStatusCheckedIn)
	if handleError(c, err) {
		return
	}
	response.Success(c, &CheckInResult{
		BookingID: booking.ID,
		BookingNo: booking.BookingNo,
		Totals:    result.Totals,
	})
}

// RegisterRoutes 注册后台路由（需操作员认证）
// privileged 作用于删除、重算与缓存失效等运维操作
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, privileged ...gin.HandlerFunc) {
	guarded := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, privileged...), handler)
	}

	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.POST("/check-in", h.CheckIn)
		bookings.GET("/:id", h.GetBooking)
		bookings.DELETE("/:id", guarded(h.DeleteBooking)...)
		bookings.PUT("/:id/status", h.UpdateStatus)
		bookings.POST("/:id/recalculate", guarded(h.Recalculate)...)
		bookings.GET("/:id/qrcode", h.CheckInQRCode)

		bookings.POST("/:id/tents", h.AddTent)
		bookings.PUT("/:id/tents/:tent_id", h.UpdateTent)
		bookings.DELETE("/:id/tents/:tent_id", h.RemoveTent)

		bookings.POST("/:id/menu-products", h.AddMenuProduct)
		bookings.PUT("/:id/menu-products/:product_id", h.UpdateMenuProduct)
		bookings.DELETE("/:id/menu-products/:product_id", h.RemoveMenuProduct)

		bookings.POST("/:id/additional-costs", h.AddAdditionalCost)
		bookings.PUT("/:id/additional-costs/:cost_id", h.UpdateAdditionalCost)
		bookings.DELETE("/:id/additional-costs/:cost_id", h.RemoveAdditionalCost)

		bookings.POST("/:id/vouchers", h.ApplyVoucher)
		bookings.DELETE("/:id/vouchers", h.RemoveVoucher)
	}

	r.DELETE("/units/:id/quote-cache", guarded(h.InvalidateQuotes)...)
}

// RegisterPublicRoutes 注册报价与优惠预览路由
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/quotes", h.Quote)
	r.POST("/vouchers/validate", h.ValidateVoucher)
}
