package booking

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
)

// taxScale 税额按行取整到元
const taxScale int32 = 0

var hundred = decimal.NewFromInt(100)

// LineTax 单行税费
type LineTax struct {
	LineID        int64           `json:"line_id"`
	TaxName       string          `json:"tax_name,omitempty"`
	Rate          decimal.Decimal `json:"rate"`
	IsPercentage  bool            `json:"is_percentage"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
}

// TaxResult 预订税费汇总，TotalTax 为各行税额之和
type TaxResult struct {
	TotalTax                 decimal.Decimal `json:"total_tax"`
	TentTaxDetails           []LineTax       `json:"tent_tax_details"`
	ProductTaxDetails        []LineTax       `json:"product_tax_details"`
	AdditionalCostTaxDetails []LineTax       `json:"additional_cost_tax_details"`
}

// TaxCalculator 逐行税费计算
type TaxCalculator struct {
	bookingRepo *repository.BookingRepository
	taxRepo     *repository.TaxRepository
}

// NewTaxCalculator 创建税费计算器
func NewTaxCalculator(bookingRepo *repository.BookingRepository, taxRepo *repository.TaxRepository) *TaxCalculator {
	return &TaxCalculator{bookingRepo: bookingRepo, taxRepo: taxRepo}
}

// WithTx 返回绑定到事务的计算器
func (c *TaxCalculator) WithTx(tx *gorm.DB) *TaxCalculator {
	return &TaxCalculator{
		bookingRepo: c.bookingRepo.WithTx(tx),
		taxRepo:     c.taxRepo.WithTx(tx),
	}
}

// Calculate 计算预订全部有效行的税费
func (c *TaxCalculator) Calculate(ctx context.Context, bookingID int64) (*TaxResult, error) {
	tents, err := c.bookingRepo.ListLiveTents(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	products, err := c.bookingRepo.ListLiveMenuProducts(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	costs, err := c.bookingRepo.ListAdditionalCosts(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return c.CalculateLines(ctx, tents, products, costs)
}

// CalculateLines 对已加载的行计算税费
func (c *TaxCalculator) CalculateLines(ctx context.Context, tents []*models.BookingTent, products []*models.BookingMenuProduct, costs []*models.AdditionalCost) (*TaxResult, error) {
	unitIDs := make([]int64, 0, len(tents))
	for _, t := range tents {
		unitIDs = append(unitIDs, t.UnitID)
	}
	taxes, err := c.taxRepo.GetActiveUnitTaxes(ctx, unitIDs)
	if err != nil {
		return nil, err
	}

	result := &TaxResult{
		TotalTax:                 decimal.Zero,
		TentTaxDetails:           make([]LineTax, 0, len(tents)),
		ProductTaxDetails:        make([]LineTax, 0, len(products)),
		AdditionalCostTaxDetails: make([]LineTax, 0, len(costs)),
	}

	for _, t := range tents {
		line := LineTax{LineID: t.ID, TaxableAmount: taxableAmount(t.Subtotal, t.VoucherSnapshot), TaxAmount: decimal.Zero}
		if tax := taxes[t.UnitID]; tax != nil {
			line.TaxName = tax.Name
			line.Rate = tax.Amount
			line.IsPercentage = tax.IsPercentage
			line.TaxAmount = LineTaxAmount(line.TaxableAmount, tax.Amount, tax.IsPercentage)
		}
		result.TentTaxDetails = append(result.TentTaxDetails, line)
		result.TotalTax = result.TotalTax.Add(line.TaxAmount)
	}

	for _, p := range products {
		line := LineTax{
			LineID:        p.ID,
			Rate:          p.TaxRate,
			IsPercentage:  true,
			TaxableAmount: taxableAmount(p.TotalPrice, p.VoucherSnapshot),
		}
		line.TaxAmount = LineTaxAmount(line.TaxableAmount, p.TaxRate, true)
		result.ProductTaxDetails = append(result.ProductTaxDetails, line)
		result.TotalTax = result.TotalTax.Add(line.TaxAmount)
	}

	// 附加费用税额为数据库生成列，直接读取
	for _, cost := range costs {
		line := LineTax{
			LineID:        cost.ID,
			Rate:          cost.TaxRate,
			IsPercentage:  true,
			TaxableAmount: cost.TotalPrice,
			TaxAmount:     cost.TaxAmount,
		}
		result.AdditionalCostTaxDetails = append(result.AdditionalCostTaxDetails, line)
		result.TotalTax = result.TotalTax.Add(line.TaxAmount)
	}

	return result, nil
}

// taxableAmount 税基；整单税后折扣不从税基扣除
func taxableAmount(gross decimal.Decimal, snap models.VoucherSnapshot) decimal.Decimal {
	if snap.DiscountAfterTax() {
		return gross
	}
	return gross.Sub(snap.DiscountAmount)
}

// LineTaxAmount 单行税额，四舍五入（远离零）
func LineTaxAmount(taxable, rate decimal.Decimal, isPercentage bool) decimal.Decimal {
	if !isPercentage {
		return rate
	}
	if rate.IsZero() {
		return decimal.Zero
	}
	return taxable.Mul(rate).Div(hundred).Round(taxScale)
}
