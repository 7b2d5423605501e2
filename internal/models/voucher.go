package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Voucher 优惠券；Code 为空表示区域自动优惠
type Voucher struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code            *string         `gorm:"type:varchar(50);uniqueIndex" json:"code,omitempty"`
	Name            string          `gorm:"type:varchar(100);not null" json:"name"`
	ZoneID          *int64          `gorm:"index" json:"zone_id,omitempty"`
	DiscountType    string          `gorm:"type:varchar(20);not null" json:"discount_type"`
	Value           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`
	Target          VoucherTarget   `gorm:"type:varchar(30);not null;default:'per_item'" json:"target"`
	Recurrence      string          `gorm:"type:varchar(20);not null;default:'always'" json:"recurrence"`
	StartDate       *time.Time      `gorm:"type:date" json:"start_date,omitempty"`
	EndDate         *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	WeeklyDays      WeekdaySet      `gorm:"type:jsonb" json:"weekly_days,omitempty"`
	MaxUses         *int            `json:"max_uses,omitempty"`
	CurrentUses     int             `gorm:"not null;default:0" json:"current_uses"`
	ApplicationType string          `gorm:"type:varchar(20);not null;default:'accommodation'" json:"application_type"`
	ItemIDs         IDList          `gorm:"type:jsonb" json:"item_ids,omitempty"`
	Status          int8            `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Voucher) TableName() string {
	return "vouchers"
}

// DiscountType 折扣类型
const (
	DiscountTypePercentage = "percentage" // 百分比
	DiscountTypeFixed      = "fixed"      // 固定金额
)

// VoucherRecurrence 生效周期
const (
	RecurrenceAlways     = "always"      // 长期
	RecurrenceDateRange  = "date_range"  // 日期区间
	RecurrenceOneTime    = "one_time"    // 仅可使用一次
	RecurrenceWeeklyDays = "weekly_days" // 指定星期
)

// ApplicationType 适用对象
const (
	ApplicationAccommodation = "accommodation" // 住宿
	ApplicationMenu          = "menu"          // 餐饮
)

// BeforeSave 拒绝三种作用目标以外的取值
func (v *Voucher) BeforeSave(*gorm.DB) error {
	if v.Target == "" {
		v.Target = TargetPerItem
	}
	if !v.Target.Valid() {
		return fmt.Errorf("invalid voucher target %q", v.Target)
	}
	return nil
}

// VoucherTarget 折扣作用目标，三选一
type VoucherTarget string

const (
	// TargetPerBookingBeforeTax 整单折扣，税基扣减折扣
	TargetPerBookingBeforeTax VoucherTarget = "per_booking_before_tax"
	// TargetPerBookingAfterTax 整单折扣，税基不扣减折扣
	TargetPerBookingAfterTax VoucherTarget = "per_booking_after_tax"
	// TargetPerItem 单项折扣，税基扣减折扣
	TargetPerItem VoucherTarget = "per_item"
)

// Valid 是否为已知目标
func (t VoucherTarget) Valid() bool {
	switch t {
	case TargetPerBookingBeforeTax, TargetPerBookingAfterTax, TargetPerItem:
		return true
	}
	return false
}

// PerBooking 是否整单折扣
func (t VoucherTarget) PerBooking() bool {
	return t == TargetPerBookingBeforeTax || t == TargetPerBookingAfterTax
}

// DiscountAfterTax 税基是否保留折扣前金额
func (t VoucherTarget) DiscountAfterTax() bool {
	return t == TargetPerBookingAfterTax
}

// VoucherSnapshot 订单行上的优惠券快照
type VoucherSnapshot struct {
	VoucherID      *int64          `gorm:"column:voucher_id" json:"voucher_id,omitempty"`
	VoucherCode    *string         `gorm:"column:voucher_code;type:varchar(50)" json:"voucher_code,omitempty"`
	DiscountType   *string         `gorm:"column:discount_type;type:varchar(20)" json:"discount_type,omitempty"`
	DiscountValue  decimal.Decimal `gorm:"column:discount_value;type:decimal(12,2);not null;default:0" json:"discount_value"`
	VoucherTarget  *VoucherTarget  `gorm:"column:voucher_target;type:varchar(30)" json:"voucher_target,omitempty"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:decimal(12,2);not null;default:0" json:"discount_amount"`
}

// HasVoucher 是否已应用优惠
func (s VoucherSnapshot) HasVoucher() bool {
	return s.VoucherID != nil
}

// DiscountAfterTax 税基是否保留折扣前金额
func (s VoucherSnapshot) DiscountAfterTax() bool {
	return s.VoucherTarget != nil && s.VoucherTarget.DiscountAfterTax()
}
