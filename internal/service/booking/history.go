package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/glamping-backend/internal/models"
)

// 历史记录动作
const (
	ActionCreated            = "created"
	ActionStatusChanged      = "status_changed"
	ActionTentAdded          = "tent_added"
	ActionTentUpdated        = "tent_updated"
	ActionTentRemoved        = "tent_removed"
	ActionMenuProductAdded   = "menu_product_added"
	ActionMenuProductUpdated = "menu_product_updated"
	ActionMenuProductRemoved = "menu_product_removed"
	ActionCostAdded          = "additional_cost_added"
	ActionCostUpdated        = "additional_cost_updated"
	ActionCostRemoved        = "additional_cost_removed"
	ActionVoucherApplied     = "voucher_applied"
	ActionVoucherRemoved     = "voucher_removed"
	ActionRecalculated       = "recalculated"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func stay(checkIn, checkOut time.Time) string {
	return fmt.Sprintf("%s → %s (%d nights)",
		checkIn.Format(dateLayout), checkOut.Format(dateLayout), models.NightsBetween(checkIn, checkOut))
}

func describeCreated(b *models.Booking) string {
	return fmt.Sprintf("Booking %s created for %s", b.BookingNo, b.CustomerName)
}

func describeStatus(from, to string) string {
	return fmt.Sprintf("Status changed from %s to %s", from, to)
}

func describeTentAdded(unit *models.AccommodationUnit, t *models.BookingTent) string {
	return fmt.Sprintf("Added tent %s, %s, subtotal %s%s",
		unit.Name, stay(t.CheckIn, t.CheckOut), money(t.Subtotal), describeDiscount(t.VoucherSnapshot))
}

func describeTentUpdated(unit *models.AccommodationUnit, before, after *models.BookingTent) string {
	var changes []string
	if !before.CheckIn.Equal(after.CheckIn) || !before.CheckOut.Equal(after.CheckOut) {
		changes = append(changes, fmt.Sprintf("dates %s to %s",
			stay(before.CheckIn, before.CheckOut), stay(after.CheckIn, after.CheckOut)))
	}
	if !before.Subtotal.Equal(after.Subtotal) {
		changes = append(changes, fmt.Sprintf("subtotal %s to %s", money(before.Subtotal), money(after.Subtotal)))
	}
	if !before.DiscountAmount.Equal(after.DiscountAmount) {
		changes = append(changes, fmt.Sprintf("discount %s to %s", money(before.DiscountAmount), money(after.DiscountAmount)))
	}
	if len(changes) == 0 {
		return fmt.Sprintf("Updated tent %s, no price change", unit.Name)
	}
	return fmt.Sprintf("Updated tent %s: %s", unit.Name, strings.Join(changes, "; "))
}

func describeTentRemoved(unit *models.AccommodationUnit, t *models.BookingTent) string {
	return fmt.Sprintf("Removed tent %s, %s", unit.Name, stay(t.CheckIn, t.CheckOut))
}

func describeProductAdded(p *models.BookingMenuProduct) string {
	return fmt.Sprintf("Added %d x %s, total %s%s", p.Quantity, p.Name, money(p.TotalPrice), describeDiscount(p.VoucherSnapshot))
}

func describeProductUpdated(p *models.BookingMenuProduct, oldQty int) string {
	return fmt.Sprintf("Changed %s quantity from %d to %d, total %s", p.Name, oldQty, p.Quantity, money(p.TotalPrice))
}

func describeProductRemoved(p *models.BookingMenuProduct) string {
	return fmt.Sprintf("Removed %d x %s", p.Quantity, p.Name)
}

func describeCostAdded(c *models.AdditionalCost) string {
	return fmt.Sprintf("Added additional cost %s: %d x %s, tax %s", c.Name, c.Quantity, money(c.UnitPrice), money(c.TaxAmount))
}

func describeCostUpdated(c *models.AdditionalCost) string {
	return fmt.Sprintf("Updated additional cost %s: %d x %s, tax %s", c.Name, c.Quantity, money(c.UnitPrice), money(c.TaxAmount))
}

func describeCostRemoved(c *models.AdditionalCost) string {
	return fmt.Sprintf("Removed additional cost %s", c.Name)
}

func describeVoucherApplied(code string, target models.VoucherTarget, discount decimal.Decimal, lines int) string {
	if code == "" {
		code = "automatic discount"
	}
	return fmt.Sprintf("Applied voucher %s (%s) to %d line(s), discount %s", code, target, lines, money(discount))
}

func describeVoucherRemoved(code string, lines int) string {
	if code == "" {
		code = "automatic discount"
	}
	return fmt.Sprintf("Removed voucher %s from %d line(s)", code, lines)
}

func describeRecalculated(before *models.Booking, after *Totals) string {
	if before.TotalAmount.Equal(after.TotalAmount) {
		return fmt.Sprintf("Totals recalculated, total unchanged at %s", money(after.TotalAmount))
	}
	return fmt.Sprintf("Totals recalculated, total %s to %s", money(before.TotalAmount), money(after.TotalAmount))
}

func describeDiscount(s models.VoucherSnapshot) string {
	if !s.HasVoucher() || s.DiscountAmount.IsZero() {
		return ""
	}
	code := "automatic discount"
	if s.VoucherCode != nil {
		code = *s.VoucherCode
	}
	return fmt.Sprintf(", discount %s (%s)", money(s.DiscountAmount), code)
}
