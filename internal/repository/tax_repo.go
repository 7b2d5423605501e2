// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
)

// TaxRepository 税种仓储
type TaxRepository struct {
	db *gorm.DB
}

// NewTaxRepository 创建税种仓储
func NewTaxRepository(db *gorm.DB) *TaxRepository {
	return &TaxRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *TaxRepository) WithTx(tx *gorm.DB) *TaxRepository {
	return &TaxRepository{db: tx}
}

// Create 创建税种
func (r *TaxRepository) Create(ctx context.Context, tax *models.Tax) error {
	return r.db.WithContext(ctx).Create(tax).Error
}

// LinkUnit 关联住宿单元与税种
func (r *TaxRepository) LinkUnit(ctx context.Context, unitID, taxID int64) (*models.UnitTax, error) {
	link := &models.UnitTax{UnitID: unitID, TaxID: taxID, Status: models.StatusActive}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

// DisableUnitLinks 停用单元的全部税种关联
func (r *TaxRepository) DisableUnitLinks(ctx context.Context, unitID int64) error {
	return r.db.WithContext(ctx).Model(&models.UnitTax{}).
		Where("unit_id = ?", unitID).
		Update("status", models.StatusDisabled).Error
}

// GetActiveUnitTax 获取单元当前生效的税种，无关联时返回 nil
// 同一单元只应有一条启用关联，多条时取最新一条
func (r *TaxRepository) GetActiveUnitTax(ctx context.Context, unitID int64) (*models.Tax, error) {
	var link models.UnitTax
	err := r.db.WithContext(ctx).
		Preload("Tax").
		Joins("JOIN taxes ON taxes.id = unit_taxes.tax_id").
		Where("unit_taxes.unit_id = ?", unitID).
		Where("unit_taxes.status = ?", models.StatusActive).
		Where("taxes.status = ?", models.StatusActive).
		Order("unit_taxes.id DESC").
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link.Tax, nil
}

// GetActiveUnitTaxes 批量获取多个单元的生效税种
func (r *TaxRepository) GetActiveUnitTaxes(ctx context.Context, unitIDs []int64) (map[int64]*models.Tax, error) {
	result := make(map[int64]*models.Tax, len(unitIDs))
	for _, id := range unitIDs {
		if _, ok := result[id]; ok {
			continue
		}
		tax, err := r.GetActiveUnitTax(ctx, id)
		if err != nil {
			return nil, err
		}
		result[id] = tax
	}
	return result, nil
}
