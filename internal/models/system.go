package models

import (
	"time"
)

// Notification 站内通知
type Notification struct {
	ID        int64      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	BookingID *int64     `gorm:"index;column:booking_id" json:"booking_id,omitempty"`
	Type      string     `gorm:"type:varchar(30);not null;column:type" json:"type"`
	Title     string     `gorm:"type:varchar(100);not null;column:title" json:"title"`
	Content   string     `gorm:"type:text;not null;column:content" json:"content"`
	Payload   JSON       `gorm:"type:jsonb;column:payload" json:"payload,omitempty"`
	IsRead    bool       `gorm:"not null;default:false;column:is_read" json:"is_read"`
	ReadAt    *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

// TableName 表名
func (Notification) TableName() string {
	return "notifications"
}

// NotificationType 通知类型
const (
	NotificationTypeSystem        = "system"         // 系统通知
	NotificationTypeBookingTotals = "booking_totals" // 预订金额变更
	NotificationTypeBookingStatus = "booking_status" // 预订状态变更
)
