package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/glamping-backend/internal/models"
)

func TestLineTaxAmount(t *testing.T) {
	tests := []struct {
		name       string
		taxable    string
		rate       string
		percentage bool
		want       string
	}{
		{"rounds down", "333", "10", true, "33"},
		{"half away from zero", "335", "10", true, "34"},
		{"fractional taxable", "45", "12", true, "5"},
		{"zero rate", "500", "0", true, "0"},
		{"fixed amount ignores taxable", "500", "15", false, "15"},
		{"fixed amount on zero line", "0", "15", false, "15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineTaxAmount(dec(tt.taxable), dec(tt.rate), tt.percentage).String())
		})
	}
}

func TestCalculateLines_PerLineRounding(t *testing.T) {
	e := newTestEnv(t)

	tents := []*models.BookingTent{
		{ID: 1, UnitID: e.unit.ID, Status: models.LineStatusActive, Subtotal: dec("333")},
		{ID: 2, UnitID: e.unit.ID, Status: models.LineStatusActive, Subtotal: dec("333")},
	}
	result, err := e.taxCalc.CalculateLines(context.Background(), tents, nil, nil)
	require.NoError(t, err)

	require.Len(t, result.TentTaxDetails, 2)
	assert.Equal(t, "33", result.TentTaxDetails[0].TaxAmount.String())
	assert.Equal(t, "VAT", result.TentTaxDetails[0].TaxName)
	// 66 而不是 round(666 × 10%) = 67
	assert.Equal(t, "66", result.TotalTax.String())
}

func TestCalculateLines_DiscountTargets(t *testing.T) {
	e := newTestEnv(t)

	snapshot := func(target models.VoucherTarget) models.VoucherSnapshot {
		id := int64(1)
		return models.VoucherSnapshot{VoucherID: &id, VoucherTarget: &target, DiscountAmount: dec("40")}
	}

	tests := []struct {
		name        string
		snap        models.VoucherSnapshot
		wantTaxable string
		wantTax     string
	}{
		{"no voucher", models.VoucherSnapshot{}, "400", "40"},
		{"per item", snapshot(models.TargetPerItem), "360", "36"},
		{"per booking before tax", snapshot(models.TargetPerBookingBeforeTax), "360", "36"},
		{"per booking after tax", snapshot(models.TargetPerBookingAfterTax), "400", "40"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tent := &models.BookingTent{ID: 1, UnitID: e.unit.ID, Status: models.LineStatusActive, Subtotal: dec("400"), VoucherSnapshot: tt.snap}
			result, err := e.taxCalc.CalculateLines(context.Background(), []*models.BookingTent{tent}, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTaxable, result.TentTaxDetails[0].TaxableAmount.String())
			assert.Equal(t, tt.wantTax, result.TotalTax.String())
		})
	}
}

func TestCalculateLines_AllLineKinds(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	cabin := e.newUnit(t, "Cabin", 2, false)
	e.linkTax(t, cabin.ID, "Eco fee", "15", false)
	bare := e.newUnit(t, "Bare pitch", 2, false)

	tents := []*models.BookingTent{
		{ID: 1, UnitID: e.unit.ID, Status: models.LineStatusActive, Subtotal: dec("400")},
		{ID: 2, UnitID: cabin.ID, Status: models.LineStatusActive, Subtotal: dec("900")},
		{ID: 3, UnitID: bare.ID, Status: models.LineStatusActive, Subtotal: dec("100")},
	}
	products := []*models.BookingMenuProduct{
		{ID: 1, TotalPrice: dec("45"), TaxRate: dec("12"), Status: models.LineStatusActive},
	}
	costs := []*models.AdditionalCost{
		{ID: 1, TotalPrice: dec("333"), TaxRate: dec("10"), TaxAmount: dec("33")},
	}

	result, err := e.taxCalc.CalculateLines(ctx, tents, products, costs)
	require.NoError(t, err)

	assert.Equal(t, "40", result.TentTaxDetails[0].TaxAmount.String())
	assert.Equal(t, "15", result.TentTaxDetails[1].TaxAmount.String())
	assert.False(t, result.TentTaxDetails[1].IsPercentage)
	assert.Equal(t, "0", result.TentTaxDetails[2].TaxAmount.String())
	assert.Empty(t, result.TentTaxDetails[2].TaxName)
	assert.Equal(t, "5", result.ProductTaxDetails[0].TaxAmount.String())
	assert.Equal(t, "33", result.AdditionalCostTaxDetails[0].TaxAmount.String())
	assert.Equal(t, "93", result.TotalTax.String())
}

func TestCalculate_FromBooking(t *testing.T) {
	e := newTestEnv(t)
	booking := e.newBooking(t)
	e.addTent(t, booking.ID, e.unit.ID, day(6, 1), day(6, 3), e.adults(2))

	_, err := e.svc.AddAdditionalCost(context.Background(), testActorID, booking.ID, &AdditionalCostRequest{
		Name: "Firewood", Quantity: 1, UnitPrice: dec("333"), TaxRate: dec("10"),
	})
	require.NoError(t, err)

	result, err := e.taxCalc.Calculate(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "80", result.TentTaxDetails[0].TaxAmount.String())
	assert.Equal(t, "33", result.AdditionalCostTaxDetails[0].TaxAmount.String())
	assert.Equal(t, "113", result.TotalTax.String())
}
