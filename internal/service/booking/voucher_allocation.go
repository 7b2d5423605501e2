package booking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/glamping-backend/internal/common/errors"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

// discountLine 可承载优惠的明细行（帐篷或餐饮商品）
type discountLine struct {
	lineType        string
	id              int64
	itemID          int64
	applicationType string
	checkIn         *time.Time
	gross           decimal.Decimal
	snap            *models.VoucherSnapshot
	save            func(ctx context.Context) error
}

// bookingVoucherResult 整单优惠的应用结果
type bookingVoucherResult struct {
	code     string
	discount decimal.Decimal
	lines    int
}

func (m *txScope) tentLine(tent *models.BookingTent) *discountLine {
	return &discountLine{
		lineType:        LineTypeTent,
		id:              tent.ID,
		itemID:          tent.UnitID,
		applicationType: models.ApplicationAccommodation,
		checkIn:         &tent.CheckIn,
		gross:           tent.Subtotal,
		snap:            &tent.VoucherSnapshot,
		save:            func(ctx context.Context) error { return m.bookings.SaveTent(ctx, tent) },
	}
}

func (m *txScope) productLine(product *models.BookingMenuProduct, checkIn *time.Time) *discountLine {
	return &discountLine{
		lineType:        LineTypeMenuProduct,
		id:              product.ID,
		itemID:          product.MenuItemID,
		applicationType: models.ApplicationMenu,
		checkIn:         checkIn,
		gross:           product.TotalPrice,
		snap:            &product.VoucherSnapshot,
		save:            func(ctx context.Context) error { return m.bookings.SaveMenuProduct(ctx, product) },
	}
}

// voucherLine 加载单个有效明细行及其校验上下文
func (m *txScope) voucherLine(ctx context.Context, lineType string, lineID int64) (*discountLine, marketing.VoucherContext, error) {
	var line *discountLine
	switch lineType {
	case LineTypeTent:
		tent, err := m.liveTent(ctx, lineID)
		if err != nil {
			return nil, marketing.VoucherContext{}, err
		}
		line = m.tentLine(tent)
	case LineTypeMenuProduct:
		product, err := m.liveProduct(ctx, lineID)
		if err != nil {
			return nil, marketing.VoucherContext{}, err
		}
		var checkIn *time.Time
		if product.BookingTentID != nil {
			if tent, err := m.bookings.GetTent(ctx, m.booking.ID, *product.BookingTentID); err == nil {
				checkIn = &tent.CheckIn
			}
		}
		line = m.productLine(product, checkIn)
	default:
		return nil, marketing.VoucherContext{}, errors.ErrVoucherTargetInvalid
	}
	return line, marketing.VoucherContext{
		ZoneID:          m.booking.ZoneID,
		ItemID:          &line.itemID,
		CheckInDate:     line.checkIn,
		TotalAmount:     line.gross,
		ApplicationType: line.applicationType,
	}, nil
}

// liveLines 预订内全部有效的帐篷与餐饮商品行
func (m *txScope) liveLines(ctx context.Context) ([]*discountLine, error) {
	tents, err := m.bookings.ListLiveTents(ctx, m.booking.ID)
	if err != nil {
		return nil, err
	}
	products, err := m.bookings.ListLiveMenuProducts(ctx, m.booking.ID)
	if err != nil {
		return nil, err
	}

	checkIns := make(map[int64]*time.Time, len(tents))
	lines := make([]*discountLine, 0, len(tents)+len(products))
	for _, t := range tents {
		checkIns[t.ID] = &t.CheckIn
		lines = append(lines, m.tentLine(t))
	}
	for _, p := range products {
		var checkIn *time.Time
		if p.BookingTentID != nil {
			checkIn = checkIns[*p.BookingTentID]
		}
		lines = append(lines, m.productLine(p, checkIn))
	}
	return lines, nil
}

func (m *txScope) linesWithVoucher(ctx context.Context, voucherID int64) ([]*discountLine, error) {
	lines, err := m.liveLines(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*discountLine
	for _, l := range lines {
		if l.snap.VoucherID != nil && *l.snap.VoucherID == voucherID {
			matched = append(matched, l)
		}
	}
	return matched, nil
}

// applyBookingVoucher 将整单优惠按金额比例分摊到符合条件的明细行
// 预订已带有该优惠时只重新分摊，不再校验和核销
func (m *txScope) applyBookingVoucher(ctx context.Context, voucher *models.Voucher) (*bookingVoucherResult, error) {
	lines, err := m.liveLines(ctx)
	if err != nil {
		return nil, err
	}

	existing := false
	var (
		eligible []*discountLine
		total    = decimal.Zero
		checkIn  *time.Time
	)
	for _, l := range lines {
		applied := l.snap.VoucherID != nil && *l.snap.VoucherID == voucher.ID
		existing = existing || applied
		if l.snap.HasVoucher() && !applied {
			continue
		}
		if l.applicationType != voucher.ApplicationType {
			continue
		}
		if len(voucher.ItemIDs) > 0 && !voucher.ItemIDs.Contains(l.itemID) {
			continue
		}
		eligible = append(eligible, l)
		total = total.Add(l.gross)
		if l.checkIn != nil && (checkIn == nil || l.checkIn.Before(*checkIn)) {
			checkIn = l.checkIn
		}
	}

	code := ""
	if voucher.Code != nil {
		code = *voucher.Code
	}
	if len(eligible) == 0 {
		return nil, &marketing.VoucherRejectedError{Code: code, Reason: marketing.ReasonItemNotEligible}
	}

	var snap models.VoucherSnapshot
	if existing {
		snap = *eligible[0].snap
		for _, l := range eligible {
			if l.snap.HasVoucher() {
				snap = *l.snap
				break
			}
		}
	} else {
		// 可用行已按适用范围筛选，取首行作为代表品项
		result := m.validator.Check(voucher, marketing.VoucherContext{
			ZoneID:          m.booking.ZoneID,
			ItemID:          &eligible[0].itemID,
			CheckInDate:     checkIn,
			TotalAmount:     total,
			ApplicationType: voucher.ApplicationType,
		})
		if !result.Valid {
			return nil, result.Err()
		}
		snap = result.Snapshot()
	}

	discount, err := allocateVoucher(ctx, snap, eligible)
	if err != nil {
		return nil, err
	}
	if !existing {
		if err := m.validator.Consume(ctx, voucher); err != nil {
			return nil, err
		}
	}
	return &bookingVoucherResult{code: code, discount: discount, lines: len(eligible)}, nil
}

// reallocateBookingVoucher 明细金额变化或行被取消后重新分摊整单优惠
func (m *txScope) reallocateBookingVoucher(ctx context.Context, voucherID int64) error {
	lines, err := m.linesWithVoucher(ctx, voucherID)
	if err != nil || len(lines) == 0 {
		return err
	}
	_, err = allocateVoucher(ctx, *lines[0].snap, lines)
	return err
}

// allocateVoucher 写入每行的优惠快照与分摊金额，返回折扣总额
func allocateVoucher(ctx context.Context, snap models.VoucherSnapshot, lines []*discountLine) (decimal.Decimal, error) {
	grosses := make([]decimal.Decimal, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		grosses[i] = l.gross
		total = total.Add(l.gross)
	}
	discount := reclamp(snap, total)
	shares := Allocate(discount, grosses)
	for i, l := range lines {
		line := snap
		line.DiscountAmount = shares[i]
		*l.snap = line
		if err := l.save(ctx); err != nil {
			return decimal.Zero, err
		}
	}
	return discount, nil
}

// Allocate 按金额比例分摊折扣，保留两位小数，尾差计入最后一行；每行不超过其金额
func Allocate(discount decimal.Decimal, grosses []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(grosses))
	total := decimal.Zero
	for _, g := range grosses {
		total = total.Add(g)
	}
	if !discount.IsPositive() || !total.IsPositive() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}

	allocated := decimal.Zero
	last := len(grosses) - 1
	for i, g := range grosses[:last] {
		share := discount.Mul(g).Div(total).Round(2)
		share = clamp(share, g)
		shares[i] = share
		allocated = allocated.Add(share)
	}
	shares[last] = clamp(discount.Sub(allocated), grosses[last])
	return shares
}

func clamp(d, upper decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(d, upper)
}
