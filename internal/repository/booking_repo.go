// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/database"
	"github.com/dumeirei/glamping-backend/internal/models"
)

// BookingRepository 预订仓储，负责预订及其明细行、历史记录
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

// Create 创建预订
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Omit("Tents", "MenuProducts", "AdditionalCosts").Create(booking).Error
}

// GetByID 根据 ID 获取预订
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetForUpdate 获取预订（加锁）
func (r *BookingRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).Scopes(database.ForUpdate).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByBookingNo 根据预订号获取预订
func (r *BookingRepository) GetByBookingNo(ctx context.Context, bookingNo string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("booking_no = ?", bookingNo).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithDetails 根据 ID 获取预订（包含全部明细行）
func (r *BookingRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Tents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Tents.Unit").
		Preload("Tents.Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Tents.Items.Parameter").
		Preload("MenuProducts", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("AdditionalCosts", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus 更新预订状态
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Update("status", status).Error
}

// TotalsUpdate 重算写入的汇总字段
type TotalsUpdate struct {
	SubtotalAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	DepositDue     decimal.Decimal
	BalanceDue     decimal.Decimal
	PaymentStatus  string
}

// UpdateTotals 写入汇总字段，TotalAmount 由数据库生成
func (r *BookingRepository) UpdateTotals(ctx context.Context, id int64, t TotalsUpdate) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subtotal_amount": t.SubtotalAmount,
			"tax_amount":      t.TaxAmount,
			"deposit_due":     t.DepositDue,
			"balance_due":     t.BalanceDue,
			"payment_status":  t.PaymentStatus,
		}).Error
}

// BookingListFilters 预订列表筛选条件
type BookingListFilters struct {
	ZoneID    *int64
	Status    string
	BookingNo string
	StartDate *time.Time
	EndDate   *time.Time
}

// List 获取预订列表
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filters *BookingListFilters) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})

	if filters != nil {
		if filters.ZoneID != nil {
			query = query.Where("zone_id = ?", *filters.ZoneID)
		}
		if filters.Status != "" {
			query = query.Where("status = ?", filters.Status)
		}
		if filters.BookingNo != "" {
			query = query.Where("booking_no LIKE ?", "%"+filters.BookingNo+"%")
		}
		if filters.StartDate != nil {
			query = query.Where("created_at >= ?", *filters.StartDate)
		}
		if filters.EndDate != nil {
			query = query.Where("created_at <= ?", *filters.EndDate)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Scopes(database.OrderByCreatedDesc).
		Offset(offset).Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// Delete 删除预订及其全部明细
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tentIDs := tx.Model(&models.BookingTent{}).Select("id").Where("booking_id = ?", id)
		if err := tx.Where("booking_tent_id IN (?)", tentIDs).Delete(&models.BookingItemLine{}).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{
			&models.BookingTent{},
			&models.BookingMenuProduct{},
			&models.AdditionalCost{},
			&models.BookingStatusHistory{},
		} {
			if err := tx.Where("booking_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Booking{}, id).Error
	})
}

// AppendHistory 追加操作历史
func (r *BookingRepository) AppendHistory(ctx context.Context, entry *models.BookingStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListHistory 获取预订的操作历史
func (r *BookingRepository) ListHistory(ctx context.Context, bookingID int64) ([]*models.BookingStatusHistory, error) {
	var entries []*models.BookingStatusHistory
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
