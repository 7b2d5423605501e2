package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
)

// bookingReleasedStatuses 不占用库存的预订状态
var bookingReleasedStatuses = []string{
	models.BookingStatusCancelled,
	models.BookingStatusRejected,
}

// CountOverlappingTents 统计与 [checkIn, checkOut) 重叠且占用库存的帐篷数
// 半开区间：existing.check_in < checkOut AND existing.check_out > checkIn
func (r *BookingRepository) CountOverlappingTents(ctx context.Context, unitID int64, checkIn, checkOut time.Time, excludeTentID *int64) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.BookingTent{}).
		Joins("JOIN bookings ON bookings.id = booking_tents.booking_id").
		Where("booking_tents.unit_id = ?", unitID).
		Where("booking_tents.status <> ?", models.LineStatusCancelled).
		Where("bookings.status NOT IN ?", bookingReleasedStatuses).
		Where("booking_tents.check_in < ? AND booking_tents.check_out > ?", checkOut, checkIn)
	if excludeTentID != nil {
		query = query.Where("booking_tents.id <> ?", *excludeTentID)
	}
	err := query.Distinct("booking_tents.id").Count(&count).Error
	return count, err
}

// ==================== 帐篷 ====================

// CreateTent 创建帐篷行及其计价明细
func (r *BookingRepository) CreateTent(ctx context.Context, tent *models.BookingTent) error {
	return r.db.WithContext(ctx).Omit("Unit", "Items.Parameter").Create(tent).Error
}

// GetTent 获取预订下的帐篷行
func (r *BookingRepository) GetTent(ctx context.Context, bookingID, tentID int64) (*models.BookingTent, error) {
	var tent models.BookingTent
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ? AND booking_id = ?", tentID, bookingID).
		First(&tent).Error
	if err != nil {
		return nil, err
	}
	return &tent, nil
}

// SaveTent 保存帐篷行字段（不含明细）
func (r *BookingRepository) SaveTent(ctx context.Context, tent *models.BookingTent) error {
	return r.db.WithContext(ctx).Omit("Unit", "Items").Save(tent).Error
}

// ReplaceTentItems 替换帐篷的计价明细
func (r *BookingRepository) ReplaceTentItems(ctx context.Context, tentID int64, items []models.BookingItemLine) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("booking_tent_id = ?", tentID).Delete(&models.BookingItemLine{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].BookingTentID = tentID
	}
	return db.Omit("Parameter").Create(&items).Error
}

// CancelTent 取消帐篷行，释放库存
func (r *BookingRepository) CancelTent(ctx context.Context, tentID int64) error {
	return r.db.WithContext(ctx).Model(&models.BookingTent{}).
		Where("id = ?", tentID).
		Update("status", models.LineStatusCancelled).Error
}

// ListLiveTents 获取预订中有效的帐篷行
func (r *BookingRepository) ListLiveTents(ctx context.Context, bookingID int64) ([]*models.BookingTent, error) {
	var tents []*models.BookingTent
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, models.LineStatusActive).
		Order("id ASC").
		Find(&tents).Error
	return tents, err
}

// ==================== 餐饮商品 ====================

// CreateMenuProduct 创建餐饮商品行
func (r *BookingRepository) CreateMenuProduct(ctx context.Context, product *models.BookingMenuProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetMenuProduct 获取预订下的餐饮商品行
func (r *BookingRepository) GetMenuProduct(ctx context.Context, bookingID, productID int64) (*models.BookingMenuProduct, error) {
	var product models.BookingMenuProduct
	err := r.db.WithContext(ctx).
		Where("id = ? AND booking_id = ?", productID, bookingID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SaveMenuProduct 保存餐饮商品行
func (r *BookingRepository) SaveMenuProduct(ctx context.Context, product *models.BookingMenuProduct) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// CancelMenuProduct 取消餐饮商品行
func (r *BookingRepository) CancelMenuProduct(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).Model(&models.BookingMenuProduct{}).
		Where("id = ?", productID).
		Update("status", models.LineStatusCancelled).Error
}

// ListLiveMenuProducts 获取预订中有效的餐饮商品行
func (r *BookingRepository) ListLiveMenuProducts(ctx context.Context, bookingID int64) ([]*models.BookingMenuProduct, error) {
	var products []*models.BookingMenuProduct
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, models.LineStatusActive).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

// ==================== 附加费用 ====================

// CreateAdditionalCost 创建附加费用，生成列由数据库计算
func (r *BookingRepository) CreateAdditionalCost(ctx context.Context, cost *models.AdditionalCost) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(cost).Error; err != nil {
		return err
	}
	return db.First(cost, cost.ID).Error
}

// GetAdditionalCost 获取预订下的附加费用
func (r *BookingRepository) GetAdditionalCost(ctx context.Context, bookingID, costID int64) (*models.AdditionalCost, error) {
	var cost models.AdditionalCost
	err := r.db.WithContext(ctx).
		Where("id = ? AND booking_id = ?", costID, bookingID).
		First(&cost).Error
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

// UpdateAdditionalCost 更新附加费用的输入字段并回读生成列
func (r *BookingRepository) UpdateAdditionalCost(ctx context.Context, cost *models.AdditionalCost) error {
	db := r.db.WithContext(ctx)
	err := db.Model(&models.AdditionalCost{}).
		Where("id = ?", cost.ID).
		Updates(map[string]interface{}{
			"name":       cost.Name,
			"quantity":   cost.Quantity,
			"unit_price": cost.UnitPrice,
			"tax_rate":   cost.TaxRate,
		}).Error
	if err != nil {
		return err
	}
	return db.First(cost, cost.ID).Error
}

// DeleteAdditionalCost 删除附加费用
func (r *BookingRepository) DeleteAdditionalCost(ctx context.Context, costID int64) error {
	return r.db.WithContext(ctx).Delete(&models.AdditionalCost{}, costID).Error
}

// ListAdditionalCosts 获取预订的附加费用
func (r *BookingRepository) ListAdditionalCosts(ctx context.Context, bookingID int64) ([]*models.AdditionalCost, error) {
	var costs []*models.AdditionalCost
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&costs).Error
	return costs, err
}
