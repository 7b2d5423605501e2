// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
)

// MenuRepository 餐饮商品仓储
type MenuRepository struct {
	db *gorm.DB
}

// NewMenuRepository 创建餐饮商品仓储
func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *MenuRepository) WithTx(tx *gorm.DB) *MenuRepository {
	return &MenuRepository{db: tx}
}

// Create 创建商品
func (r *MenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID 根据 ID 获取商品
func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByZone 获取区域内启用的商品
func (r *MenuRepository) ListByZone(ctx context.Context, zoneID int64) ([]*models.MenuItem, error) {
	var items []*models.MenuItem
	err := r.db.WithContext(ctx).
		Where("zone_id = ? AND status = ?", zoneID, models.StatusActive).
		Order("id ASC").
		Find(&items).Error
	return items, err
}
