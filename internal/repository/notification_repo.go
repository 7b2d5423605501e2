package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
)

// NotificationRepository 站内通知仓储
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 写入通知
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// NotificationListFilters 通知筛选条件
type NotificationListFilters struct {
	BookingID *int64
	Type      string
	IsRead    *bool
}

func (f *NotificationListFilters) apply(query *gorm.DB) *gorm.DB {
	if f == nil {
		return query
	}
	if f.BookingID != nil {
		query = query.Where("booking_id = ?", *f.BookingID)
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.IsRead != nil {
		query = query.Where("is_read = ?", *f.IsRead)
	}
	return query
}

// List 按筛选条件分页，新的在前
func (r *NotificationRepository) List(ctx context.Context, offset, limit int, filters *NotificationListFilters) ([]*models.Notification, int64, error) {
	var notifications []*models.Notification
	var total int64

	query := filters.apply(r.db.WithContext(ctx).Model(&models.Notification{}))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// MarkRead 标记已读；id 不存在时 found 为 false，重复标记保留首次已读时间
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, at time.Time) (found bool, err error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	err = r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
	return true, err
}

// MarkAllRead 批量标记已读，bookingID 为空时处理全部
func (r *NotificationRepository) MarkAllRead(ctx context.Context, bookingID *int64, at time.Time) (int64, error) {
	unread := false
	query := (&NotificationListFilters{BookingID: bookingID, IsRead: &unread}).
		apply(r.db.WithContext(ctx).Model(&models.Notification{}))
	result := query.Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

// CountUnread 统计未读数量
func (r *NotificationRepository) CountUnread(ctx context.Context, bookingID *int64) (int64, error) {
	var count int64
	unread := false
	err := (&NotificationListFilters{BookingID: bookingID, IsRead: &unread}).
		apply(r.db.WithContext(ctx).Model(&models.Notification{})).
		Count(&count).Error
	return count, err
}
