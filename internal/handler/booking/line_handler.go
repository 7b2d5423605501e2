package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/glamping-backend/internal/common/handler"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
)

// AddTentRequest 添加帐篷请求，quantities 为 参数ID -> 数量
type AddTentRequest struct {
	UnitID      int64         `json:"unit_id" binding:"required,min=1"`
	CheckIn     string        `json:"check_in" binding:"required,date"`
	CheckOut    string        `json:"check_out" binding:"required,date"`
	Quantities  map[int64]int `json:"quantities" binding:"required,min=1"`
	VoucherCode string        `json:"voucher_code" binding:"omitempty,max=50"`
}

// UpdateTentRequest 修改帐篷请求
type UpdateTentRequest struct {
	CheckIn    string        `json:"check_in" binding:"required,date"`
	CheckOut   string        `json:"check_out" binding:"required,date"`
	Quantities map[int64]int `json:"quantities" binding:"required,min=1"`
}

// bindLine 操作员认证 + 预订ID + 明细行ID
func bindLine(c *gin.Context, paramName, resourceName string) (adminID, bookingID, lineID int64, ok bool) {
	adminID, bookingID, ok = handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return 0, 0, 0, false
	}
	lineID, ok = handler.ParseParamID(c, paramName, resourceName)
	if !ok {
		return 0, 0, 0, false
	}
	return adminID, bookingID, lineID, true
}

// ==================== 帐篷 ====================

// AddTent 添加帐篷
// @Summary 添加帐篷
// @Tags 预订明细
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body AddTentRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.MutationResult}
// @Router /api/v1/admin/bookings/{id}/tents [post]
func (h *Handler) AddTent(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req AddTentRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	checkIn, checkOut, err := handler.ParseStayDates(req.CheckIn, req.CheckOut)
	if handler.HandleError(c, err) {
		return
	}

	result, err := h.bookingService.AddTent(c.Request.Context(), adminID, bookingID, &bookingService.AddTentRequest{
		UnitID:      req.UnitID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Quantities:  req.Quantities,
		VoucherCode: req.VoucherCode,
	})
	mustSucceed(c, err, result)
}

// UpdateTent 修改帐篷日期与人数
// @Summary 修改帐篷
// @Tags 预订明细
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param tent_id path int true "帐篷行ID"
// @Param request body UpdateTentRequest true "请求参数"
// @Router /api/v1/admin/bookings/{id}/tents/{tent_id} [put]
func (h *Handler) UpdateTent(c *gin.Context) {
	adminID, bookingID, tentID, ok := bindLine(c, "tent_id", "帐篷")
	if !ok {
		return
	}

	var req UpdateTentRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	checkIn, checkOut, err := handler.ParseStayDates(req.CheckIn, req.CheckOut)
	if handler.HandleError(c, err) {
		return
	}

	result, err := h.bookingService.UpdateTent(c.Request.Context(), adminID, bookingID, tentID, &bookingService.UpdateTentRequest{
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Quantities: req.Quantities,
	})
	mustSucceed(c, err, result)
}

// RemoveTent 移除帐篷
// @Summary 移除帐篷
// @Tags 预订明细
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param tent_id path int true "帐篷行ID"
// @Router /api/v1/admin/bookings/{id}/tents/{tent_id} [delete]
func (h *Handler) RemoveTent(c *gin.Context) {
	adminID, bookingID, tentID, ok := bindLine(c, "tent_id", "帐篷")
	if !ok {
		return
	}

	result, err := h.bookingService.RemoveTent(c.Request.Context(), adminID, bookingID, tentID)
	mustSucceed(c, err, result)
}

// ==================== 餐饮商品 ====================

// AddMenuProduct 添加餐饮商品
// @Summary 添加餐饮商品
// @Tags 预订明细
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body bookingService.AddMenuProductRequest true "请求参数"
// @Router /api/v1/admin/bookings/{id}/menu-products [post]
func (h *Handler) AddMenuProduct(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req bookingService.AddMenuProductRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.AddMenuProduct(c.Request.Context(), adminID, bookingID, &req)
	mustSucceed(c, err, result)
}

// UpdateMenuProduct 修改餐饮商品数量
func (h *Handler) UpdateMenuProduct(c *gin.Context) {
	adminID, bookingID, productID, ok := bindLine(c, "product_id", "餐饮商品")
	if !ok {
		return
	}

	var req bookingService.UpdateMenuProductRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.UpdateMenuProduct(c.Request.Context(), adminID, bookingID, productID, &req)
	mustSucceed(c, err, result)
}

// RemoveMenuProduct 移除餐饮商品
func (h *Handler) RemoveMenuProduct(c *gin.Context) {
	adminID, bookingID, productID, ok := bindLine(c, "product_id", "餐饮商品")
	if !ok {
		return
	}

	result, err := h.bookingService.RemoveMenuProduct(c.Request.Context(), adminID, bookingID, productID)
	mustSucceed(c, err, result)
}

// ==================== 附加费用 ====================

// AddAdditionalCost 添加附加费用
// @Summary 添加附加费用
// @Tags 预订明细
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body bookingService.AdditionalCostRequest true "请求参数"
// @Router /api/v1/admin/bookings/{id}/additional-costs [post]
func (h *Handler) AddAdditionalCost(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req bookingService.AdditionalCostRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.AddAdditionalCost(c.Request.Context(), adminID, bookingID, &req)
	mustSucceed(c, err, result)
}

// UpdateAdditionalCost 修改附加费用
func (h *Handler) UpdateAdditionalCost(c *gin.Context) {
	adminID, bookingID, costID, ok := bindLine(c, "cost_id", "附加费用")
	if !ok {
		return
	}

	var req bookingService.AdditionalCostRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.UpdateAdditionalCost(c.Request.Context(), adminID, bookingID, costID, &req)
	mustSucceed(c, err, result)
}

// RemoveAdditionalCost 删除附加费用
func (h *Handler) RemoveAdditionalCost(c *gin.Context) {
	adminID, bookingID, costID, ok := bindLine(c, "cost_id", "附加费用")
	if !ok {
		return
	}

	result, err := h.bookingService.RemoveAdditionalCost(c.Request.Context(), adminID, bookingID, costID)
	mustSucceed(c, err, result)
}

// ==================== 优惠 ====================

// ApplyVoucher 应用优惠码
// @Summary 应用优惠码
// @Description 单项优惠需指定明细行；整单优惠按金额比例分摊到符合条件的明细行
// @Tags 预订明细
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body bookingService.ApplyVoucherRequest true "请求参数"
// @Router /api/v1/admin/bookings/{id}/vouchers [post]
func (h *Handler) ApplyVoucher(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req bookingService.ApplyVoucherRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.ApplyVoucher(c.Request.Context(), adminID, bookingID, &req)
	mustSucceed(c, err, result)
}

// RemoveVoucher 移除明细行上的优惠
// @Router /api/v1/admin/bookings/{id}/vouchers [delete]
func (h *Handler) RemoveVoucher(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req bookingService.RemoveVoucherRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.RemoveVoucher(c.Request.Context(), adminID, bookingID, &req)
	mustSucceed(c, err, result)
}
