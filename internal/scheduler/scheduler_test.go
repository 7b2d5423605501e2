package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/glamping-backend/internal/common/cache"
	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/common/database"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
)

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, *bookingService.BookingEvent) error { return nil }
func (noopNotifier) Driver() string { return "noop" }

func TestScheduler_RunsTasksUntilStopped(t *testing.T) {
	s := NewScheduler(time.Second)
	var runs atomic.Int32
	s.AddTask("tick", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	s.AddTask("disabled", 0, func(ctx context.Context) error {
		t.Error("disabled task must not run")
		return nil
	})
	require.Equal(t, 1, s.Len())

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Close())

	stopped := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestRepairTotalsDrift(t *testing.T) {
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:", AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	cfg := &config.Config{}
	cfg.Business.Booking = config.BookingConfig{NoPrefix: "GB", DepositRate: 0.3}
	services := bookingService.NewServices(db, cache.New(nil), nil, cfg, noopNotifier{})
	bookingRepo := repository.NewBookingRepository(db)
	handler := NewTaskHandler(bookingRepo, services.Recalculator, services.Booking)

	ctx := context.Background()
	zone := &models.Zone{Name: "Riverside", Status: models.StatusActive}
	require.NoError(t, repository.NewUnitRepository(db).CreateZone(ctx, zone))

	newBooking := func() int64 {
		b, err := services.Booking.CreateBooking(ctx, 1, &bookingService.CreateBookingRequest{ZoneID: zone.ID, CustomerName: "Ana"})
		require.NoError(t, err)
		_, err = services.Booking.AddAdditionalCost(ctx, 1, b.ID, &bookingService.AdditionalCostRequest{
			Name:      "Firewood",
			Quantity:  2,
			UnitPrice: decimal.NewFromInt(10),
			TaxRate:   decimal.NewFromInt(25),
		})
		require.NoError(t, err)
		return b.ID
	}
	clean := newBooking()
	drifted := newBooking()

	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", drifted).
		Updates(map[string]interface{}{"subtotal_amount": decimal.NewFromInt(999), "tax_amount": decimal.Zero}).Error)

	cleanHistory, err := bookingRepo.ListHistory(ctx, clean)
	require.NoError(t, err)

	repaired, err := handler.RepairTotalsDrift(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	b, err := bookingRepo.GetByID(ctx, drifted)
	require.NoError(t, err)
	assert.Equal(t, "20", b.SubtotalAmount.String())
	assert.Equal(t, "5", b.TaxAmount.String())

	after, err := bookingRepo.ListHistory(ctx, clean)
	require.NoError(t, err)
	assert.Len(t, after, len(cleanHistory))

	repaired, err = handler.RepairTotalsDrift(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}
