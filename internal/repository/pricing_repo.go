// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/database"
	"github.com/dumeirei/glamping-backend/internal/models"
)

// PricingRepository 价格与价格事件仓储
type PricingRepository struct {
	db *gorm.DB
}

// NewPricingRepository 创建价格仓储
func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *PricingRepository) WithTx(tx *gorm.DB) *PricingRepository {
	return &PricingRepository{db: tx}
}

// UpsertRate 写入价格，(unit, parameter, event) 至多一条
func (r *PricingRepository) UpsertRate(ctx context.Context, rate *models.PricingRate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PricingRate
		query := tx.Where("unit_id = ? AND parameter_id = ?", rate.UnitID, rate.ParameterID)
		if rate.EventID == nil {
			query = query.Where("event_id IS NULL")
		} else {
			query = query.Where("event_id = ?", *rate.EventID)
		}
		err := query.Scopes(database.ForUpdate).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(rate).Error
		case err != nil:
			return err
		}
		rate.ID = existing.ID
		return tx.Model(&existing).Updates(map[string]interface{}{
			"amount":       rate.Amount,
			"pricing_mode": rate.PricingMode,
		}).Error
	})
}

// ListRates 获取单元的价格；eventIDs 为空时只取基础价
func (r *PricingRepository) ListRates(ctx context.Context, unitID int64, eventIDs []int64) ([]*models.PricingRate, error) {
	var rates []*models.PricingRate
	query := r.db.WithContext(ctx).Where("unit_id = ?", unitID)
	if len(eventIDs) > 0 {
		query = query.Where("(event_id IS NULL OR event_id IN ?)", eventIDs)
	} else {
		query = query.Where("event_id IS NULL")
	}
	err := query.Find(&rates).Error
	return rates, err
}

// CreateEvent 创建价格事件
func (r *PricingRepository) CreateEvent(ctx context.Context, event *models.PricingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// AttachEvent 将价格事件绑定到单元，绑定时间决定优先级
func (r *PricingRepository) AttachEvent(ctx context.Context, unitID, eventID int64, attachedAt time.Time) (*models.UnitPricingEvent, error) {
	link := &models.UnitPricingEvent{UnitID: unitID, EventID: eventID, AttachedAt: attachedAt}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

// DetachEvent 解除绑定
func (r *PricingRepository) DetachEvent(ctx context.Context, unitID, eventID int64) error {
	return r.db.WithContext(ctx).
		Where("unit_id = ? AND event_id = ?", unitID, eventID).
		Delete(&models.UnitPricingEvent{}).Error
}

// ListAttachedEvents 获取单元绑定的价格事件（含事件详情），顺序由调用方决定
func (r *PricingRepository) ListAttachedEvents(ctx context.Context, unitID int64) ([]*models.UnitPricingEvent, error) {
	var links []*models.UnitPricingEvent
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("unit_id = ?", unitID).
		Find(&links).Error
	return links, err
}
