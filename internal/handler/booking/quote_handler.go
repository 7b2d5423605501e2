package booking

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dumeirei/glamping-backend/internal/common/handler"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

// QuoteRequest 报价请求
type QuoteRequest struct {
	UnitID      int64         `json:"unit_id" binding:"required,min=1"`
	CheckIn     string        `json:"check_in" binding:"required,date"`
	CheckOut    string        `json:"check_out" binding:"required,date"`
	Quantities  map[int64]int `json:"quantities" binding:"required,min=1"`
	VoucherCode string        `json:"voucher_code" binding:"omitempty,max=50"`
}

// ValidateVoucherRequest 优惠码预览请求
type ValidateVoucherRequest struct {
	Code            string          `json:"code" binding:"required,max=50"`
	ZoneID          int64           `json:"zone_id" binding:"required,min=1"`
	ItemID          *int64          `json:"item_id" binding:"omitempty,min=1"`
	CheckIn         string          `json:"check_in" binding:"omitempty,date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ApplicationType string          `json:"application_type" binding:"required,oneof=accommodation menu"`
}

// Quote 报价：逐晚价格、计费、库存提示与税费，不占用库存
// @Summary 报价
// @Tags 报价
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.Quote}
// @Router /api/v1/quotes [post]
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	checkIn, checkOut, err := handler.ParseStayDates(req.CheckIn, req.CheckOut)
	if handler.HandleError(c, err) {
		return
	}

	quote, err := h.quoteService.Quote(c.Request.Context(), &bookingService.QuoteRequest{
		UnitID:      req.UnitID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Quantities:  req.Quantities,
		VoucherCode: req.VoucherCode,
	})
	mustSucceed(c, err, quote)
}

// ValidateVoucher 优惠码预览，不核销；拒绝时 valid=false 并给出原因
// @Summary 优惠码预览
// @Tags 报价
// @Accept json
// @Produce json
// @Param request body ValidateVoucherRequest true "请求参数"
// @Success 200 {object} response.Response{data=marketing.ValidationResult}
// @Router /api/v1/vouchers/validate [post]
func (h *Handler) ValidateVoucher(c *gin.Context) {
	var req ValidateVoucherRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	vctx := marketing.VoucherContext{
		ZoneID:          req.ZoneID,
		ItemID:          req.ItemID,
		TotalAmount:     req.TotalAmount,
		ApplicationType: req.ApplicationType,
	}
	if checkIn, err := handler.ParseDate(req.CheckIn); err == nil {
		vctx.CheckInDate = &checkIn
	}

	result, err := h.validator.Validate(c.Request.Context(), req.Code, vctx)
	handler.MustSucceed(c, err, result)
}

// InvalidateQuotes 价格配置变化后清除单元报价缓存
// @Router /api/v1/admin/units/{id}/quote-cache [delete]
func (h *Handler) InvalidateQuotes(c *gin.Context) {
	unitID, ok := handler.ParseID(c, "住宿单元")
	if !ok {
		return
	}
	handler.MustSucceed(c, h.quoteService.InvalidateUnit(c.Request.Context(), unitID), nil)
}
