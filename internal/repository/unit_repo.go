// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/database"
	"github.com/dumeirei/glamping-backend/internal/models"
)

// UnitRepository 住宿单元仓储（含区域与计价参数）
type UnitRepository struct {
	db *gorm.DB
}

// NewUnitRepository 创建住宿单元仓储
func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *UnitRepository) WithTx(tx *gorm.DB) *UnitRepository {
	return &UnitRepository{db: tx}
}

// CreateZone 创建区域
func (r *UnitRepository) CreateZone(ctx context.Context, zone *models.Zone) error {
	return r.db.WithContext(ctx).Create(zone).Error
}

// GetZone 获取区域
func (r *UnitRepository) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	var zone models.Zone
	if err := r.db.WithContext(ctx).First(&zone, id).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

// Create 创建住宿单元
func (r *UnitRepository) Create(ctx context.Context, unit *models.AccommodationUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

// GetByID 根据 ID 获取住宿单元
func (r *UnitRepository) GetByID(ctx context.Context, id int64) (*models.AccommodationUnit, error) {
	var unit models.AccommodationUnit
	if err := r.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// GetForUpdate 获取住宿单元（加锁），同一单元的库存检查串行执行
func (r *UnitRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.AccommodationUnit, error) {
	var unit models.AccommodationUnit
	if err := tx.WithContext(ctx).Scopes(database.ForUpdate).First(&unit, id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// UpdateFields 更新指定字段
func (r *UnitRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.AccommodationUnit{}).Where("id = ?", id).Updates(fields).Error
}

// ListByZone 获取区域下的住宿单元
func (r *UnitRepository) ListByZone(ctx context.Context, zoneID int64) ([]*models.AccommodationUnit, error) {
	var units []*models.AccommodationUnit
	err := r.db.WithContext(ctx).
		Where("zone_id = ?", zoneID).
		Order("id ASC").
		Find(&units).Error
	return units, err
}

// CreateParameter 创建计价参数
func (r *UnitRepository) CreateParameter(ctx context.Context, param *models.Parameter) error {
	return r.db.WithContext(ctx).Create(param).Error
}

// AttachParameter 为住宿单元绑定计价参数，重复绑定忽略
func (r *UnitRepository) AttachParameter(ctx context.Context, unitID, parameterID int64, sortOrder int) error {
	link := models.UnitParameter{UnitID: unitID, ParameterID: parameterID, SortOrder: sortOrder}
	return r.db.WithContext(ctx).
		Where(models.UnitParameter{UnitID: unitID, ParameterID: parameterID}).
		FirstOrCreate(&link).Error
}

// ListParameters 获取住宿单元的计价参数
func (r *UnitRepository) ListParameters(ctx context.Context, unitID int64) ([]*models.Parameter, error) {
	var params []*models.Parameter
	err := r.db.WithContext(ctx).
		Joins("JOIN unit_parameters ON unit_parameters.parameter_id = parameters.id").
		Where("unit_parameters.unit_id = ?", unitID).
		Order("unit_parameters.sort_order ASC, parameters.id ASC").
		Find(&params).Error
	return params, err
}

// GetParameters 按 ID 批量获取参数
func (r *UnitRepository) GetParameters(ctx context.Context, ids []int64) (map[int64]*models.Parameter, error) {
	result := make(map[int64]*models.Parameter, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var params []*models.Parameter
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&params).Error; err != nil {
		return nil, err
	}
	for _, p := range params {
		result[p.ID] = p
	}
	return result, nil
}
