package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dumeirei/glamping-backend/internal/common/utils"
	"github.com/dumeirei/glamping-backend/internal/models"
)

func TestDescribe(t *testing.T) {
	unit := &models.AccommodationUnit{Name: "Safari Tent"}
	id := int64(3)
	target := models.TargetPerItem
	tent := &models.BookingTent{
		CheckIn:  day(6, 1),
		CheckOut: day(6, 3),
		Subtotal: dec("800"),
		VoucherSnapshot: models.VoucherSnapshot{
			VoucherID: &id, VoucherCode: utils.StringPtr("CAMP10"), VoucherTarget: &target, DiscountAmount: dec("80"),
		},
	}
	automatic := &models.BookingTent{
		CheckIn:         day(6, 1),
		CheckOut:        day(6, 2),
		Subtotal:        dec("200"),
		VoucherSnapshot: models.VoucherSnapshot{VoucherID: &id, DiscountAmount: dec("20")},
	}
	product := &models.BookingMenuProduct{Name: "Breakfast", Quantity: 2, TotalPrice: dec("30")}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status", describeStatus("pending", "confirmed"), "Status changed from pending to confirmed"},
		{"tent with voucher", describeTentAdded(unit, tent),
			"Added tent Safari Tent, 2026-06-01 → 2026-06-03 (2 nights), subtotal 800.00, discount 80.00 (CAMP10)"},
		{"automatic discount", describeTentAdded(unit, automatic),
			"Added tent Safari Tent, 2026-06-01 → 2026-06-02 (1 nights), subtotal 200.00, discount 20.00 (automatic discount)"},
		{"unchanged tent", describeTentUpdated(unit, tent, tent), "Updated tent Safari Tent, no price change"},
		{"product", describeProductAdded(product), "Added 2 x Breakfast, total 30.00"},
		{"product removed", describeProductRemoved(product), "Removed 2 x Breakfast"},
		{"voucher without code", describeVoucherRemoved("", 2), "Removed voucher automatic discount from 2 line(s)"},
		{"recalculated unchanged",
			describeRecalculated(&models.Booking{TotalAmount: dec("880")}, &Totals{TotalAmount: dec("880")}),
			"Totals recalculated, total unchanged at 880.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
