// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
)

// VoucherRepository 优惠券仓储
type VoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建优惠券仓储
func NewVoucherRepository(db *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *VoucherRepository) WithTx(tx *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: tx}
}

// Create 创建优惠券
func (r *VoucherRepository) Create(ctx context.Context, voucher *models.Voucher) error {
	return r.db.WithContext(ctx).Create(voucher).Error
}

// GetByID 根据 ID 获取优惠券
func (r *VoucherRepository) GetByID(ctx context.Context, id int64) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, id).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

// GetByCode 根据优惠码获取（忽略大小写的精确匹配）
func (r *VoucherRepository) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Where("code IS NOT NULL AND LOWER(code) = LOWER(?)", code).
		First(&voucher).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

// ListAutomatic 获取区域内启用的自动优惠（无优惠码）
func (r *VoucherRepository) ListAutomatic(ctx context.Context, zoneID int64, applicationType string) ([]*models.Voucher, error) {
	var vouchers []*models.Voucher
	query := r.db.WithContext(ctx).
		Where("code IS NULL").
		Where("status = ?", models.StatusActive).
		Where("(zone_id IS NULL OR zone_id = ?)", zoneID)
	if applicationType != "" {
		query = query.Where("application_type = ?", applicationType)
	}
	err := query.Order("id ASC").Find(&vouchers).Error
	return vouchers, err
}

// UpdateStatus 启用/停用
func (r *VoucherRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Voucher{}).Where("id = ?", id).Update("status", status).Error
}

// Consume 原子占用一次使用次数，返回是否占用成功
// 条件与校验规则一致：启用、未达上限、一次性券未被使用
func (r *VoucherRepository) Consume(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Voucher{}).
		Where("id = ?", id).
		Where("status = ?", models.StatusActive).
		Where("(max_uses IS NULL OR current_uses < max_uses)").
		Where("(recurrence <> ? OR current_uses = 0)", models.RecurrenceOneTime).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
