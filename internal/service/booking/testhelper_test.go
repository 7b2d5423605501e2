package booking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/common/database"
	"github.com/dumeirei/glamping-backend/internal/common/utils"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

const testActorID int64 = 7

// 2026-06-01 是周一
var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testEnv struct {
	db            *gorm.DB
	bookings      *repository.BookingRepository
	units         *repository.UnitRepository
	pricing       *repository.PricingRepository
	taxes         *repository.TaxRepository
	vouchers      *repository.VoucherRepository
	menu          *repository.MenuRepository
	notifications *repository.NotificationRepository

	resolver  *PricingResolver
	taxCalc   *TaxCalculator
	recalc    *Recalculator
	validator *marketing.VoucherValidator
	svc       *BookingService

	zone  *models.Zone
	unit  *models.AccommodationUnit
	adult *models.Parameter
	child *models.Parameter
}

// newTestEnv 营地 Riverside，单元 Safari Tent（库存 1，10% 税），
// 成人 200/晚、儿童 100/晚（按人计价）
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:", AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	e := &testEnv{
		db:            db,
		bookings:      repository.NewBookingRepository(db),
		units:         repository.NewUnitRepository(db),
		pricing:       repository.NewPricingRepository(db),
		taxes:         repository.NewTaxRepository(db),
		vouchers:      repository.NewVoucherRepository(db),
		menu:          repository.NewMenuRepository(db),
		notifications: repository.NewNotificationRepository(db),
	}
	e.resolver = NewPricingResolver(e.pricing, e.units)
	e.taxCalc = NewTaxCalculator(e.bookings, e.taxes)
	e.recalc = NewRecalculator(e.bookings, e.taxCalc, 0.3, nil)
	e.validator = marketing.NewVoucherValidator(e.vouchers, nil)
	e.validator.SetClock(func() time.Time { return testNow })
	e.svc = NewBookingService(db, e.bookings, e.units, e.menu, e.resolver, e.validator, e.recalc,
		NewInAppNotifier(e.notifications), nil,
		config.BookingConfig{NoPrefix: "GB", DepositRate: 0.3, MaxNights: 30})
	e.svc.SetClock(func() time.Time { return testNow })

	ctx := context.Background()
	e.zone = &models.Zone{Name: "Riverside", Status: models.StatusActive}
	require.NoError(t, e.units.CreateZone(ctx, e.zone))
	e.adult = &models.Parameter{Code: "adult", Name: "Adult"}
	require.NoError(t, e.units.CreateParameter(ctx, e.adult))
	e.child = &models.Parameter{Code: "child", Name: "Child"}
	require.NoError(t, e.units.CreateParameter(ctx, e.child))

	e.unit = e.newUnit(t, "Safari Tent", 1, false)
	e.linkTax(t, e.unit.ID, "VAT", "10", true)
	return e
}

func (e *testEnv) newUnit(t *testing.T, name string, inventory int, unlimited bool) *models.AccommodationUnit {
	t.Helper()
	ctx := context.Background()
	unit := &models.AccommodationUnit{
		ZoneID:            e.zone.ID,
		Name:              name,
		InventoryQuantity: inventory,
		IsUnlimited:       unlimited,
		Status:            models.StatusActive,
	}
	require.NoError(t, e.units.Create(ctx, unit))
	require.NoError(t, e.units.AttachParameter(ctx, unit.ID, e.adult.ID, 1))
	require.NoError(t, e.units.AttachParameter(ctx, unit.ID, e.child.ID, 2))
	e.setRate(t, unit.ID, e.adult.ID, nil, "200", models.PricingModePerPerson)
	e.setRate(t, unit.ID, e.child.ID, nil, "100", models.PricingModePerPerson)
	return unit
}

func (e *testEnv) setRate(t *testing.T, unitID, paramID int64, eventID *int64, amount, mode string) {
	t.Helper()
	require.NoError(t, e.pricing.UpsertRate(context.Background(), &models.PricingRate{
		UnitID:      unitID,
		ParameterID: paramID,
		EventID:     eventID,
		Amount:      dec(amount),
		PricingMode: mode,
	}))
}

func (e *testEnv) linkTax(t *testing.T, unitID int64, name, amount string, percentage bool) *models.Tax {
	t.Helper()
	ctx := context.Background()
	tax := &models.Tax{Name: name, Amount: dec(amount), IsPercentage: percentage, Status: models.StatusActive}
	require.NoError(t, e.taxes.Create(ctx, tax))
	_, err := e.taxes.LinkUnit(ctx, unitID, tax.ID)
	require.NoError(t, err)
	return tax
}

func (e *testEnv) newMenuItem(t *testing.T, name, price, taxRate string) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		ZoneID:  e.zone.ID,
		Name:    name,
		Price:   dec(price),
		TaxRate: dec(taxRate),
		Status:  models.StatusActive,
	}
	require.NoError(t, e.menu.Create(context.Background(), item))
	return item
}

func (e *testEnv) newVoucher(t *testing.T, code string, opts ...func(*models.Voucher)) *models.Voucher {
	t.Helper()
	voucher := &models.Voucher{
		Code:            utils.StringPtr(code),
		Name:            code,
		ZoneID:          &e.zone.ID,
		DiscountType:    models.DiscountTypePercentage,
		Value:           dec("10"),
		Target:          models.TargetPerItem,
		Recurrence:      models.RecurrenceAlways,
		ApplicationType: models.ApplicationAccommodation,
		Status:          models.StatusActive,
	}
	for _, opt := range opts {
		opt(voucher)
	}
	require.NoError(t, e.vouchers.Create(context.Background(), voucher))
	return voucher
}

func (e *testEnv) newBooking(t *testing.T) *models.Booking {
	t.Helper()
	booking, err := e.svc.CreateBooking(context.Background(), testActorID, &CreateBookingRequest{
		ZoneID:       e.zone.ID,
		CustomerName: "Ana",
	})
	require.NoError(t, err)
	return booking
}

func (e *testEnv) adults(n int) map[int64]int {
	return map[int64]int{e.adult.ID: n}
}

func (e *testEnv) addTent(t *testing.T, bookingID int64, unitID int64, checkIn, checkOut time.Time, quantities map[int64]int) *MutationResult {
	t.Helper()
	result, err := e.svc.AddTent(context.Background(), testActorID, bookingID, &AddTentRequest{
		UnitID:     unitID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Quantities: quantities,
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) reload(t *testing.T, bookingID int64) *models.Booking {
	t.Helper()
	booking, err := e.bookings.GetByIDWithDetails(context.Background(), bookingID)
	require.NoError(t, err)
	return booking
}

// requireInvariants 持久化后 subtotal 等于有效行之和，total = subtotal + tax
func (e *testEnv) requireInvariants(t *testing.T, bookingID int64) {
	t.Helper()
	ctx := context.Background()
	booking, err := e.bookings.GetByID(ctx, bookingID)
	require.NoError(t, err)
	tents, err := e.bookings.ListLiveTents(ctx, bookingID)
	require.NoError(t, err)
	products, err := e.bookings.ListLiveMenuProducts(ctx, bookingID)
	require.NoError(t, err)
	costs, err := e.bookings.ListAdditionalCosts(ctx, bookingID)
	require.NoError(t, err)

	require.True(t, Subtotal(tents, products, costs).Equal(booking.SubtotalAmount),
		"subtotal %s != lines %s", booking.SubtotalAmount, Subtotal(tents, products, costs))
	require.True(t, booking.SubtotalAmount.Add(booking.TaxAmount).Equal(booking.TotalAmount),
		"total %s != %s + %s", booking.TotalAmount, booking.SubtotalAmount, booking.TaxAmount)
}
