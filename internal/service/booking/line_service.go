package booking

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/errors"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

// 优惠可作用的明细行类型
const (
	LineTypeTent        = "tent"
	LineTypeMenuProduct = "menu_product"
)

// AddTentRequest 添加帐篷
type AddTentRequest struct {
	UnitID      int64
	CheckIn     time.Time
	CheckOut    time.Time
	Quantities  map[int64]int
	VoucherCode string
}

// UpdateTentRequest 修改帐篷日期与人数（整体替换）
type UpdateTentRequest struct {
	CheckIn    time.Time
	CheckOut   time.Time
	Quantities map[int64]int
}

// AddMenuProductRequest 添加餐饮商品
type AddMenuProductRequest struct {
	MenuItemID    int64  `json:"menu_item_id" binding:"required,min=1"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
	BookingTentID *int64 `json:"booking_tent_id" binding:"omitempty,min=1"`
	VoucherCode   string `json:"voucher_code" binding:"omitempty,max=50"`
}

// UpdateMenuProductRequest 修改餐饮商品数量
type UpdateMenuProductRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// AdditionalCostRequest 附加费用
type AdditionalCostRequest struct {
	Name      string          `json:"name" binding:"required,max=100"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
}

// ApplyVoucherRequest 应用优惠码；整单优惠忽略明细行
type ApplyVoucherRequest struct {
	Code     string `json:"code" binding:"required,max=50"`
	LineType string `json:"line_type" binding:"omitempty,oneof=tent menu_product"`
	LineID   int64  `json:"line_id" binding:"omitempty,min=1"`
}

// RemoveVoucherRequest 移除明细行上的优惠
type RemoveVoucherRequest struct {
	LineType string `json:"line_type" binding:"required,oneof=tent menu_product"`
	LineID   int64  `json:"line_id" binding:"required,min=1"`
}

// ==================== 帐篷 ====================

// AddTent 添加帐篷：锁定单元、检查库存、逐晚计价、可选优惠
func (s *BookingService) AddTent(ctx context.Context, actorID, bookingID int64, req *AddTentRequest) (*MutationResult, error) {
	return s.mutate(ctx, ActionTentAdded, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		checkIn, checkOut, err := s.stayDates(req.CheckIn, req.CheckOut)
		if err != nil {
			return err
		}
		unit, err := m.lockUnit(ctx, req.UnitID)
		if err != nil {
			return err
		}
		if err := m.checkParameters(ctx, unit.ID, req.Quantities); err != nil {
			return err
		}
		if err := m.requireAvailable(ctx, unit, checkIn, checkOut, nil); err != nil {
			return err
		}
		items, subtotal, err := m.price(ctx, unit.ID, checkIn, checkOut, req.Quantities)
		if err != nil {
			return err
		}

		tent := &models.BookingTent{
			BookingID: m.booking.ID,
			UnitID:    unit.ID,
			CheckIn:   checkIn,
			CheckOut:  checkOut,
			Status:    models.LineStatusActive,
			Subtotal:  subtotal,
			Items:     items,
		}

		var voucher *marketing.ValidationResult
		if req.VoucherCode != "" {
			voucher, err = m.validateForLine(ctx, req.VoucherCode, marketing.VoucherContext{
				ZoneID:          m.booking.ZoneID,
				ItemID:          &unit.ID,
				CheckInDate:     &checkIn,
				TotalAmount:     subtotal,
				ApplicationType: models.ApplicationAccommodation,
			})
			if err != nil {
				return err
			}
			if !voucher.Target.PerBooking() {
				tent.VoucherSnapshot = voucher.Snapshot()
			}
		}

		if err := m.bookings.CreateTent(ctx, tent); err != nil {
			return err
		}
		if voucher != nil {
			if voucher.Target.PerBooking() {
				if _, err := m.applyBookingVoucher(ctx, voucher.Voucher); err != nil {
					return err
				}
				if tent, err = m.bookings.GetTent(ctx, m.booking.ID, tent.ID); err != nil {
					return err
				}
			} else if err := m.validator.Consume(ctx, voucher.Voucher); err != nil {
				return err
			}
		}

		m.lineID = tent.ID
		m.description = describeTentAdded(unit, tent)
		return nil
	})
}

// UpdateTent 修改帐篷：排除自身重新检查库存并重新计价，已有优惠按新金额重新截断
func (s *BookingService) UpdateTent(ctx context.Context, actorID, bookingID, tentID int64, req *UpdateTentRequest) (*MutationResult, error) {
	return s.mutate(ctx, ActionTentUpdated, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		tent, err := m.liveTent(ctx, tentID)
		if err != nil {
			return err
		}
		before := *tent

		checkIn, checkOut, err := s.stayDates(req.CheckIn, req.CheckOut)
		if err != nil {
			return err
		}
		unit, err := m.lockUnit(ctx, tent.UnitID)
		if err != nil {
			return err
		}
		if err := m.checkParameters(ctx, unit.ID, req.Quantities); err != nil {
			return err
		}
		if err := m.requireAvailable(ctx, unit, checkIn, checkOut, &tent.ID); err != nil {
			return err
		}
		items, subtotal, err := m.price(ctx, unit.ID, checkIn, checkOut, req.Quantities)
		if err != nil {
			return err
		}
		if err := m.bookings.ReplaceTentItems(ctx, tent.ID, items); err != nil {
			return err
		}

		tent.CheckIn, tent.CheckOut, tent.Subtotal = checkIn, checkOut, subtotal
		perBooking := tent.VoucherTarget != nil && tent.VoucherTarget.PerBooking()
		if tent.HasVoucher() && !perBooking {
			tent.DiscountAmount = reclamp(tent.VoucherSnapshot, subtotal)
		}
		if err := m.bookings.SaveTent(ctx, tent); err != nil {
			return err
		}
		if perBooking {
			if err := m.reallocateBookingVoucher(ctx, *tent.VoucherID); err != nil {
				return err
			}
			if tent, err = m.bookings.GetTent(ctx, m.booking.ID, tent.ID); err != nil {
				return err
			}
		}

		m.lineID = tent.ID
		m.description = describeTentUpdated(unit, &before, tent)
		return nil
	})
}

// RemoveTent 取消帐篷并释放库存，关联到该帐篷的餐饮商品一并取消
func (s *BookingService) RemoveTent(ctx context.Context, actorID, bookingID, tentID int64) (*MutationResult, error) {
	return s.mutate(ctx, ActionTentRemoved, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		tent, err := m.liveTent(ctx, tentID)
		if err != nil {
			return err
		}
		unit, err := m.units.GetByID(ctx, tent.UnitID)
		if err != nil {
			return err
		}
		if err := m.bookings.CancelTent(ctx, tent.ID); err != nil {
			return err
		}

		affected := make(map[int64]struct{})
		if tent.HasVoucher() && tent.VoucherTarget != nil && tent.VoucherTarget.PerBooking() {
			affected[*tent.VoucherID] = struct{}{}
		}
		products, err := m.bookings.ListLiveMenuProducts(ctx, m.booking.ID)
		if err != nil {
			return err
		}
		for _, p := range products {
			if p.BookingTentID == nil || *p.BookingTentID != tent.ID {
				continue
			}
			if err := m.bookings.CancelMenuProduct(ctx, p.ID); err != nil {
				return err
			}
			if p.HasVoucher() && p.VoucherTarget != nil && p.VoucherTarget.PerBooking() {
				affected[*p.VoucherID] = struct{}{}
			}
		}
		for voucherID := range affected {
			if err := m.reallocateBookingVoucher(ctx, voucherID); err != nil {
				return err
			}
		}

		m.lineID = tent.ID
		m.description = describeTentRemoved(unit, tent)
		return nil
	})
}

// ==================== 餐饮商品 ====================

// AddMenuProduct 添加餐饮商品，税率取商品当前税率并快照
func (s *BookingService) AddMenuProduct(ctx context.Context, actorID, bookingID int64, req *AddMenuProductRequest) (*MutationResult, error) {
	return s.mutate(ctx, ActionMenuProductAdded, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		item, err := m.menu.GetByID(ctx, req.MenuItemID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrMenuItemNotFound
			}
			return err
		}
		if item.Status != models.StatusActive {
			return errors.ErrMenuItemNotFound.WithMessage("餐饮商品已下架")
		}
		if item.ZoneID != m.booking.ZoneID {
			return errors.ErrInvalidParams.WithMessage("餐饮商品不属于该营地区域")
		}

		var checkIn *time.Time
		if req.BookingTentID != nil {
			tent, err := m.liveTent(ctx, *req.BookingTentID)
			if err != nil {
				return err
			}
			checkIn = &tent.CheckIn
		}

		total := item.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
		product := &models.BookingMenuProduct{
			BookingID:     m.booking.ID,
			BookingTentID: req.BookingTentID,
			MenuItemID:    item.ID,
			Name:          item.Name,
			Quantity:      req.Quantity,
			UnitPrice:     item.Price,
			TotalPrice:    total,
			TaxRate:       item.TaxRate,
			Status:        models.LineStatusActive,
		}

		var voucher *marketing.ValidationResult
		if req.VoucherCode != "" {
			voucher, err = m.validateForLine(ctx, req.VoucherCode, marketing.VoucherContext{
				ZoneID:          m.booking.ZoneID,
				ItemID:          &item.ID,
				CheckInDate:     checkIn,
				TotalAmount:     total,
				ApplicationType: models.ApplicationMenu,
			})
			if err != nil {
				return err
			}
			if !voucher.Target.PerBooking() {
				product.VoucherSnapshot = voucher.Snapshot()
			}
		}

		if err := m.bookings.CreateMenuProduct(ctx, product); err != nil {
			return err
		}
		if voucher != nil {
			if voucher.Target.PerBooking() {
				if _, err := m.applyBookingVoucher(ctx, voucher.Voucher); err != nil {
					return err
				}
				if product, err = m.bookings.GetMenuProduct(ctx, m.booking.ID, product.ID); err != nil {
					return err
				}
			} else if err := m.validator.Consume(ctx, voucher.Voucher); err != nil {
				return err
			}
		}

		m.lineID = product.ID
		m.description = describeProductAdded(product)
		return nil
	})
}

// UpdateMenuProduct 修改数量，总价与输入一起写入
func (s *BookingService) UpdateMenuProduct(ctx context.Context, actorID, bookingID, productID int64, req *UpdateMenuProductRequest) (*MutationResult, error) {
	return s.mutate(ctx, ActionMenuProductUpdated, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		product, err := m.liveProduct(ctx, productID)
		if err != nil {
			return err
		}
		oldQty := product.Quantity
		product.Quantity = req.Quantity
		product.TotalPrice = product.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))

		perBooking := product.VoucherTarget != nil && product.VoucherTarget.PerBooking()
		if product.HasVoucher() && !perBooking {
			product.DiscountAmount = reclamp(product.VoucherSnapshot, product.TotalPrice)
		}
		if err := m.bookings.SaveMenuProduct(ctx, product); err != nil {
			return err
		}
		if perBooking {
			if err := m.reallocateBookingVoucher(ctx, *product.VoucherID); err != nil {
				return err
			}
		}

		m.lineID = product.ID
		m.description = describeProductUpdated(product, oldQty)
		return nil
	})
}

// RemoveMenuProduct 取消餐饮商品
func (s *BookingService) RemoveMenuProduct(ctx context.Context, actorID, bookingID, productID int64) (*MutationResult, error) {
	return s.mutate(ctx, ActionMenuProductRemoved, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		product, err := m.liveProduct(ctx, productID)
		if err != nil {
			return err
		}
		if err := m.bookings.CancelMenuProduct(ctx, product.ID); err != nil {
			return err
		}
		if product.HasVoucher() && product.VoucherTarget != nil && product.VoucherTarget.PerBooking() {
			if err := m.reallocateBookingVoucher(ctx, *product.VoucherID); err != nil {
				return err
			}
		}
		m.lineID = product.ID
		m.description = describeProductRemoved(product)
		return nil
	})
}

// ==================== 附加费用 ====================

// AddAdditionalCost 添加附加费用，总价与税额由数据库生成
func (s *BookingService) AddAdditionalCost(ctx context.Context, actorID, bookingID int64, req *AdditionalCostRequest) (*MutationResult, error) {
	return s.mutate(ctx, ActionCostAdded, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		if err := validateCost(req); err != nil {
			return err
		}
		cost := &models.AdditionalCost{
			BookingID: m.booking.ID,
			Name:      req.Name,
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
			TaxRate:   req.TaxRate,
		}
		if err := m.bookings.CreateAdditionalCost(ctx, cost); err != nil {
			return err
		}
		m.lineID = cost.ID
		m.description = describeCostAdded(cost)
		return nil
	})
}

// UpdateAdditionalCost 修改附加费用
func (s *BookingService) UpdateAdditionalCost(ctx context.Context, actorID, bookingID, costID int64, req *AdditionalCostRequest) (*MutationResult, error) {
	return s.mutate(ctx, ActionCostUpdated, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		if err := validateCost(req); err != nil {
			return err
		}
		cost, err := m.cost(ctx, costID)
		if err != nil {
			return err
		}
		cost.Name, cost.Quantity, cost.UnitPrice, cost.TaxRate = req.Name, req.Quantity, req.UnitPrice, req.TaxRate
		if err := m.bookings.UpdateAdditionalCost(ctx, cost); err != nil {
			return err
		}
		m.lineID = cost.ID
		m.description = describeCostUpdated(cost)
		return nil
	})
}

// RemoveAdditionalCost 删除附加费用
func (s *BookingService) RemoveAdditionalCost(ctx context.Context, actorID, bookingID, costID int64) (*MutationResult, error) {
	return s.mutate(ctx, ActionCostRemoved, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		cost, err := m.cost(ctx, costID)
		if err != nil {
			return err
		}
		if err := m.bookings.DeleteAdditionalCost(ctx, cost.ID); err != nil {
			return err
		}
		m.lineID = cost.ID
		m.description = describeCostRemoved(cost)
		return nil
	})
}

func validateCost(req *AdditionalCostRequest) error {
	switch {
	case req.Quantity < 1:
		return errors.ErrInvalidParams.WithMessage("数量必须大于 0")
	case req.UnitPrice.IsNegative():
		return errors.ErrInvalidParams.WithMessage("单价不能为负")
	case req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(hundred):
		return errors.ErrInvalidParams.WithMessage("税率必须在 0 到 100 之间")
	}
	return nil
}

// ==================== 优惠 ====================

// ApplyVoucher 应用优惠码：单项优惠作用于指定明细行，整单优惠按比例分摊到符合条件的行
func (s *BookingService) ApplyVoucher(ctx context.Context, actorID, bookingID int64, req *ApplyVoucherRequest) (*MutationResult, error) {
	return s.mutate(ctx, ActionVoucherApplied, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		voucher, err := m.validator.Find(ctx, req.Code)
		if err != nil {
			return err
		}

		if voucher.Target.PerBooking() {
			result, err := m.applyBookingVoucher(ctx, voucher)
			if err != nil {
				return err
			}
			m.description = describeVoucherApplied(result.code, voucher.Target, result.discount, result.lines)
			return nil
		}

		if req.LineType == "" || req.LineID == 0 {
			return errors.ErrInvalidParams.WithMessage("单项优惠需指定明细行")
		}
		line, vctx, err := m.voucherLine(ctx, req.LineType, req.LineID)
		if err != nil {
			return err
		}
		if line.snap.HasVoucher() {
			return errors.ErrInvalidParams.WithMessage("该明细已使用优惠，请先移除")
		}
		result := m.validator.Check(voucher, vctx)
		if !result.Valid {
			return result.Err()
		}
		*line.snap = result.Snapshot()
		if err := line.save(ctx); err != nil {
			return err
		}
		if err := m.validator.Consume(ctx, voucher); err != nil {
			return err
		}
		m.lineID = req.LineID
		m.description = describeVoucherApplied(result.Code, voucher.Target, result.DiscountAmount, 1)
		return nil
	})
}

// RemoveVoucher 移除优惠；整单优惠从所有分摊行移除，已核销次数不退回
func (s *BookingService) RemoveVoucher(ctx context.Context, actorID, bookingID int64, req *RemoveVoucherRequest) (*MutationResult, error) {
	return s.mutate(ctx, ActionVoucherRemoved, actorID, bookingID, requireOpen, func(ctx context.Context, m *txScope) error {
		line, _, err := m.voucherLine(ctx, req.LineType, req.LineID)
		if err != nil {
			return err
		}
		if !line.snap.HasVoucher() {
			return errors.ErrInvalidParams.WithMessage("该明细未使用优惠")
		}
		code := ""
		if line.snap.VoucherCode != nil {
			code = *line.snap.VoucherCode
		}

		lines := []*discountLine{line}
		if line.snap.VoucherTarget != nil && line.snap.VoucherTarget.PerBooking() {
			if lines, err = m.linesWithVoucher(ctx, *line.snap.VoucherID); err != nil {
				return err
			}
		}
		for _, l := range lines {
			*l.snap = models.VoucherSnapshot{}
			if err := l.save(ctx); err != nil {
				return err
			}
		}
		m.lineID = req.LineID
		m.description = describeVoucherRemoved(code, len(lines))
		return nil
	})
}

// ==================== 事务内辅助方法 ====================

func (s *BookingService) stayDates(checkIn, checkOut time.Time) (time.Time, time.Time, error) {
	checkIn, checkOut = models.DateOnly(checkIn), models.DateOnly(checkOut)
	if !checkOut.After(checkIn) {
		return checkIn, checkOut, errors.ErrDateRangeInvalid
	}
	if s.cfg.MaxNights > 0 && models.NightsBetween(checkIn, checkOut) > s.cfg.MaxNights {
		return checkIn, checkOut, errors.ErrDateRangeInvalid.WithMessage("入住晚数超过上限")
	}
	return checkIn, checkOut, nil
}

// lockUnit 锁定住宿单元行，串行化同一单元的库存检查
func (m *txScope) lockUnit(ctx context.Context, unitID int64) (*models.AccommodationUnit, error) {
	unit, err := m.units.GetForUpdate(ctx, m.tx, unitID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUnitNotFound
		}
		return nil, err
	}
	if unit.Status != models.StatusActive {
		return nil, errors.ErrUnitDisabled
	}
	if unit.ZoneID != m.booking.ZoneID {
		return nil, errors.ErrInvalidParams.WithMessage("住宿单元不属于该营地区域")
	}
	return unit, nil
}

func (m *txScope) checkParameters(ctx context.Context, unitID int64, quantities map[int64]int) error {
	params, err := m.units.ListParameters(ctx, unitID)
	if err != nil {
		return err
	}
	return validateQuantities(params, quantities)
}

// validateQuantities 校验参数归属与数量
func validateQuantities(params []*models.Parameter, quantities map[int64]int) error {
	allowed := make(map[int64]bool, len(params))
	for _, p := range params {
		allowed[p.ID] = true
	}
	positive := false
	for id, qty := range quantities {
		if qty < 0 {
			return errors.ErrInvalidParams.WithMessage("数量不能为负")
		}
		if !allowed[id] {
			return errors.ErrParameterInvalid
		}
		positive = positive || qty > 0
	}
	if !positive {
		return errors.ErrInvalidParams.WithMessage("至少需要一个计价参数")
	}
	return nil
}

func (m *txScope) requireAvailable(ctx context.Context, unit *models.AccommodationUnit, checkIn, checkOut time.Time, excludeTentID *int64) error {
	result, err := m.availability.CheckAvailability(ctx, unit, checkIn, checkOut, excludeTentID)
	if err != nil {
		return err
	}
	return result.Require(unit.ID, checkIn, checkOut)
}

// price 在提交路径上重新计价，生成计价明细
func (m *txScope) price(ctx context.Context, unitID int64, checkIn, checkOut time.Time, quantities map[int64]int) ([]models.BookingItemLine, decimal.Decimal, error) {
	result, err := m.resolver.Resolve(ctx, unitID, checkIn, checkOut, quantities)
	if err != nil {
		return nil, decimal.Zero, err
	}
	charges := result.Charges(quantities)
	items := make([]models.BookingItemLine, 0, len(charges))
	for _, c := range charges {
		items = append(items, models.BookingItemLine{
			ParameterID: c.ParameterID,
			Quantity:    c.Quantity,
			UnitPrice:   c.UnitPrice,
			PricingMode: c.PricingMode,
			Nights:      c.Nights,
			TotalPrice:  c.TotalPrice,
		})
	}
	return items, SumCharges(charges), nil
}

func (m *txScope) liveTent(ctx context.Context, tentID int64) (*models.BookingTent, error) {
	tent, err := m.bookings.GetTent(ctx, m.booking.ID, tentID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBookingLineMissing
		}
		return nil, err
	}
	if !tent.IsActive() {
		return nil, errors.ErrBookingLineMissing
	}
	return tent, nil
}

func (m *txScope) liveProduct(ctx context.Context, productID int64) (*models.BookingMenuProduct, error) {
	product, err := m.bookings.GetMenuProduct(ctx, m.booking.ID, productID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBookingLineMissing
		}
		return nil, err
	}
	if !product.IsActive() {
		return nil, errors.ErrBookingLineMissing
	}
	return product, nil
}

func (m *txScope) cost(ctx context.Context, costID int64) (*models.AdditionalCost, error) {
	cost, err := m.bookings.GetAdditionalCost(ctx, m.booking.ID, costID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBookingLineMissing
		}
		return nil, err
	}
	return cost, nil
}

// validateForLine 按优惠码校验，拒绝时返回 *VoucherRejectedError
func (m *txScope) validateForLine(ctx context.Context, code string, vctx marketing.VoucherContext) (*marketing.ValidationResult, error) {
	result, err := m.validator.Validate(ctx, code, vctx)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, result.Err()
	}
	return result, nil
}

// reclamp 行金额变化后按快照重新计算折扣
func reclamp(snap models.VoucherSnapshot, gross decimal.Decimal) decimal.Decimal {
	if snap.DiscountType == nil {
		return decimal.Zero
	}
	return marketing.ComputeDiscount(*snap.DiscountType, snap.DiscountValue, gross)
}
