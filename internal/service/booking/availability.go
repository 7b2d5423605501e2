package booking

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
)

// AvailabilityResult 库存检查结果；库存不足是结果而不是错误
type AvailabilityResult struct {
	Available   bool  `json:"available"`
	BookedCount int64 `json:"booked_count"`
	Capacity    int   `json:"capacity"`
	Unlimited   bool  `json:"unlimited"`
}

// AvailabilityChecker 库存检查器
type AvailabilityChecker struct {
	bookingRepo *repository.BookingRepository
}

// NewAvailabilityChecker 创建库存检查器
func NewAvailabilityChecker(bookingRepo *repository.BookingRepository) *AvailabilityChecker {
	return &AvailabilityChecker{bookingRepo: bookingRepo}
}

// WithTx 返回绑定到事务的检查器
func (c *AvailabilityChecker) WithTx(tx *gorm.DB) *AvailabilityChecker {
	return &AvailabilityChecker{bookingRepo: c.bookingRepo.WithTx(tx)}
}

// CheckAvailability 检查单元在 [checkIn, checkOut) 是否还有空余
// 写路径上调用方需先锁定单元行
func (c *AvailabilityChecker) CheckAvailability(ctx context.Context, unit *models.AccommodationUnit, checkIn, checkOut time.Time, excludeTentID *int64) (*AvailabilityResult, error) {
	if unit.IsUnlimited {
		return &AvailabilityResult{Available: true, Unlimited: true}, nil
	}
	booked, err := c.bookingRepo.CountOverlappingTents(ctx, unit.ID, models.DateOnly(checkIn), models.DateOnly(checkOut), excludeTentID)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResult{
		Available:   booked < int64(unit.InventoryQuantity),
		BookedCount: booked,
		Capacity:    unit.InventoryQuantity,
	}, nil
}

// Require 库存不足时返回 *AvailabilityConflictError
func (r *AvailabilityResult) Require(unitID int64, checkIn, checkOut time.Time) error {
	if r.Available {
		return nil
	}
	return &AvailabilityConflictError{
		UnitID:      unitID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		BookedCount: r.BookedCount,
		Capacity:    r.Capacity,
	}
}
