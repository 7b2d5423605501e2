package booking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/metrics"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
)

// moneyScale 金额保留两位小数
const moneyScale int32 = 2

// Totals 重算后的预订金额
type Totals struct {
	BookingID      int64           `json:"booking_id"`
	SubtotalAmount decimal.Decimal `json:"subtotal_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	DepositDue     decimal.Decimal `json:"deposit_due"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	PaymentStatus  string          `json:"payment_status"`
	Tax            *TaxResult      `json:"tax,omitempty"`
}

// Recalculator 总额重算，是 subtotal_amount / tax_amount 的唯一写入方
type Recalculator struct {
	bookingRepo *repository.BookingRepository
	taxCalc     *TaxCalculator
	depositRate decimal.Decimal
	metrics     *metrics.Metrics
}

// NewRecalculator 创建总额重算器
func NewRecalculator(bookingRepo *repository.BookingRepository, taxCalc *TaxCalculator, depositRate float64, m *metrics.Metrics) *Recalculator {
	return &Recalculator{
		bookingRepo: bookingRepo,
		taxCalc:     taxCalc,
		depositRate: decimal.NewFromFloat(depositRate),
		metrics:     m,
	}
}

// WithTx 返回绑定到事务的重算器
func (r *Recalculator) WithTx(tx *gorm.DB) *Recalculator {
	c := *r
	c.bookingRepo = r.bookingRepo.WithTx(tx)
	c.taxCalc = r.taxCalc.WithTx(tx)
	return &c
}

// Recalculate 按当前有效行重新汇总并写回预订，可重复调用
func (r *Recalculator) Recalculate(ctx context.Context, bookingID int64) (*Totals, error) {
	start := time.Now()

	booking, err := r.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	subtotal, tax, err := r.compute(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	total := subtotal.Add(tax.TotalTax).Round(moneyScale)
	update := repository.TotalsUpdate{
		SubtotalAmount: subtotal,
		TaxAmount:      tax.TotalTax.Round(moneyScale),
		DepositDue:     r.depositDue(total, booking.PaidAmount),
		BalanceDue:     decimal.Max(total.Sub(booking.PaidAmount), decimal.Zero).Round(moneyScale),
		PaymentStatus:  paymentStatus(total, booking.PaidAmount),
	}
	if err := r.bookingRepo.UpdateTotals(ctx, bookingID, update); err != nil {
		return nil, err
	}

	// total_amount 由数据库生成，回读
	saved, err := r.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	r.metrics.RecordRecalculation(time.Since(start))
	return &Totals{
		BookingID:      bookingID,
		SubtotalAmount: saved.SubtotalAmount,
		TaxAmount:      saved.TaxAmount,
		TotalAmount:    saved.TotalAmount,
		PaidAmount:     saved.PaidAmount,
		DepositDue:     saved.DepositDue,
		BalanceDue:     saved.BalanceDue,
		PaymentStatus:  saved.PaymentStatus,
		Tax:            tax,
	}, nil
}

// Drifted 只读比较：持久化的 subtotal/tax 是否与当前有效行不一致
func (r *Recalculator) Drifted(ctx context.Context, booking *models.Booking) (bool, error) {
	subtotal, tax, err := r.compute(ctx, booking.ID)
	if err != nil {
		return false, err
	}
	return !subtotal.Equal(booking.SubtotalAmount) || !tax.TotalTax.Round(moneyScale).Equal(booking.TaxAmount), nil
}

func (r *Recalculator) compute(ctx context.Context, bookingID int64) (decimal.Decimal, *TaxResult, error) {
	tents, err := r.bookingRepo.ListLiveTents(ctx, bookingID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	products, err := r.bookingRepo.ListLiveMenuProducts(ctx, bookingID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	costs, err := r.bookingRepo.ListAdditionalCosts(ctx, bookingID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	tax, err := r.taxCalc.CalculateLines(ctx, tents, products, costs)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return Subtotal(tents, products, costs), tax, nil
}

// Subtotal 有效帐篷净额 + 有效餐饮净额 + 附加费用
func Subtotal(tents []*models.BookingTent, products []*models.BookingMenuProduct, costs []*models.AdditionalCost) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range tents {
		if t.IsActive() {
			sum = sum.Add(t.NetAmount())
		}
	}
	for _, p := range products {
		if p.IsActive() {
			sum = sum.Add(p.NetAmount())
		}
	}
	for _, c := range costs {
		sum = sum.Add(c.TotalPrice)
	}
	return sum.Round(moneyScale)
}

func (r *Recalculator) depositDue(total, paid decimal.Decimal) decimal.Decimal {
	deposit := total.Mul(r.depositRate).Round(moneyScale)
	return decimal.Max(deposit.Sub(paid), decimal.Zero)
}

func paymentStatus(total, paid decimal.Decimal) string {
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		return models.PaymentStatusPaid
	case paid.IsPositive():
		return models.PaymentStatusPartiallyPaid
	default:
		return models.PaymentStatusUnpaid
	}
}
