// Package database 数据库模块单元测试
package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/models"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:", AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := conn.DB()
		_ = sqlDB.Close()
	})
	return conn
}

func useGlobal(t *testing.T, conn *gorm.DB) {
	oldDB := db
	db = conn
	t.Cleanup(func() {
		db = oldDB
	})
}

// ==================== Open 测试 ====================

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, getLogLevel(true))
	assert.Equal(t, logger.Silent, getLogLevel(false))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_SQLiteAutoMigrate(t *testing.T) {
	conn := openSQLite(t)

	for _, table := range []string{"bookings", "booking_tents", "vouchers", "pricing_rates", "additional_costs", "notifications"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestAutoMigrate_GeneratedColumns(t *testing.T) {
	conn := openSQLite(t)

	booking := &models.Booking{
		BookingNo:      "GL-TEST-1",
		ZoneID:         1,
		CustomerName:   "Ana",
		SubtotalAmount: decimal.NewFromInt(400),
		TaxAmount:      decimal.NewFromInt(40),
	}
	require.NoError(t, conn.Create(booking).Error)

	var got models.Booking
	require.NoError(t, conn.First(&got, booking.ID).Error)
	assert.Equal(t, "440", got.TotalAmount.String())

	cost := &models.AdditionalCost{
		BookingID: booking.ID,
		Name:      "Firewood",
		Quantity:  1,
		UnitPrice: decimal.NewFromInt(333),
		TaxRate:   decimal.NewFromInt(10),
	}
	require.NoError(t, conn.Create(cost).Error)

	var gotCost models.AdditionalCost
	require.NoError(t, conn.First(&gotCost, cost.ID).Error)
	assert.Equal(t, "333", gotCost.TotalPrice.String())
	assert.Equal(t, "33", gotCost.TaxAmount.String())
}

// ==================== 作用域测试 ====================

func TestOrderByCreatedDesc(t *testing.T) {
	conn := openSQLite(t)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.Create(&models.Zone{Name: "Z", CreatedAt: base.Add(time.Duration(i) * time.Hour)}).Error)
	}

	var zones []models.Zone
	require.NoError(t, conn.Scopes(OrderByCreatedDesc).Find(&zones).Error)
	require.Len(t, zones, 3)
	assert.True(t, zones[0].CreatedAt.After(zones[2].CreatedAt))
}

func TestForUpdate_IgnoredBySQLite(t *testing.T) {
	conn := openSQLite(t)
	require.NoError(t, conn.Create(&models.Zone{Name: "North"}).Error)

	err := conn.Transaction(func(tx *gorm.DB) error {
		var zone models.Zone
		return tx.Scopes(ForUpdate).First(&zone).Error
	})
	assert.NoError(t, err)
}

// ==================== 全局实例测试 ====================

func TestClose_WithNilDB(t *testing.T) {
	useGlobal(t, nil)
	assert.NoError(t, Close())
}
