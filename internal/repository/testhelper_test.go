package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/common/database"
	"github.com/dumeirei/glamping-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver:      "sqlite",
		SQLitePath:  ":memory:",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func createTestUnit(t *testing.T, db *gorm.DB, inventory int) *models.AccommodationUnit {
	t.Helper()
	zone := &models.Zone{Name: "Riverside", Status: models.StatusActive}
	require.NoError(t, db.Create(zone).Error)
	unit := &models.AccommodationUnit{
		ZoneID:            zone.ID,
		Name:              "Safari Tent",
		InventoryQuantity: inventory,
		Status:            models.StatusActive,
	}
	require.NoError(t, db.Create(unit).Error)
	return unit
}

func createTestBooking(t *testing.T, db *gorm.DB, zoneID int64, bookingNo, status string) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		BookingNo:    bookingNo,
		ZoneID:       zoneID,
		CustomerName: "Ana",
		Status:       status,
	}
	require.NoError(t, NewBookingRepository(db).Create(context.Background(), booking))
	return booking
}

func createTestTent(t *testing.T, db *gorm.DB, bookingID, unitID int64, checkIn, checkOut time.Time) *models.BookingTent {
	t.Helper()
	tent := &models.BookingTent{
		BookingID: bookingID,
		UnitID:    unitID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Status:    models.LineStatusActive,
		Subtotal:  decimal.NewFromInt(400),
	}
	require.NoError(t, NewBookingRepository(db).CreateTent(context.Background(), tent))
	return tent
}
