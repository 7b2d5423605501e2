package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 通用启用状态
const (
	StatusDisabled = 0 // 禁用
	StatusActive   = 1 // 启用
)

// Zone 营地区域
type Zone struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Zone) TableName() string {
	return "zones"
}

// AccommodationUnit 住宿单元（帐篷类型），库存表示同类可售数量
type AccommodationUnit struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ZoneID            int64     `gorm:"index;not null" json:"zone_id"`
	Name              string    `gorm:"type:varchar(100);not null" json:"name"`
	InventoryQuantity int       `gorm:"not null;default:1" json:"inventory_quantity"`
	IsUnlimited       bool      `gorm:"not null;default:false" json:"is_unlimited"`
	Status            int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Zone *Zone `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
}

// TableName 表名
func (AccommodationUnit) TableName() string {
	return "accommodation_units"
}

// Parameter 计价参数（成人、儿童、宠物等）
type Parameter struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Parameter) TableName() string {
	return "parameters"
}

// UnitParameter 住宿单元可用参数
type UnitParameter struct {
	ID          int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UnitID      int64 `gorm:"uniqueIndex:uk_unit_parameter;not null" json:"unit_id"`
	ParameterID int64 `gorm:"uniqueIndex:uk_unit_parameter;not null" json:"parameter_id"`
	SortOrder   int   `gorm:"not null;default:0" json:"sort_order"`

	Parameter *Parameter `gorm:"foreignKey:ParameterID" json:"parameter,omitempty"`
}

// TableName 表名
func (UnitParameter) TableName() string {
	return "unit_parameters"
}

// PricingMode 计价模式
const (
	PricingModePerPerson = "per_person" // 按人数
	PricingModePerGroup  = "per_group"  // 按组
	PricingModeMixed     = "mixed"      // 不同夜晚模式不一致
)

// PricingRate 单元参数价格，EventID 为空表示基础价
type PricingRate struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UnitID      int64           `gorm:"index;not null" json:"unit_id"`
	ParameterID int64           `gorm:"index;not null" json:"parameter_id"`
	EventID     *int64          `gorm:"index" json:"event_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PricingMode string          `gorm:"type:varchar(20);not null;default:'per_person'" json:"pricing_mode"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (PricingRate) TableName() string {
	return "pricing_rates"
}

// PricingEventRule 价格事件规则
const (
	PricingRuleDateRange = "date_range" // 日期区间
	PricingRuleAlways    = "always"     // 全时段
)

// PricingEvent 价格事件（旺季、周末等）
type PricingEvent struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	RuleType  string     `gorm:"type:varchar(20);not null" json:"rule_type"`
	StartDate *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	Weekdays  WeekdaySet `gorm:"type:jsonb" json:"weekdays,omitempty"`
	Status    int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (PricingEvent) TableName() string {
	return "pricing_events"
}

// Matches 判断某晚是否命中事件；日期区间两端均包含
func (e *PricingEvent) Matches(night time.Time) bool {
	if e.Status != StatusActive {
		return false
	}
	switch e.RuleType {
	case PricingRuleAlways:
	case PricingRuleDateRange:
		if e.StartDate == nil || e.EndDate == nil {
			return false
		}
		if night.Before(DateOnly(*e.StartDate)) || night.After(DateOnly(*e.EndDate)) {
			return false
		}
	default:
		return false
	}
	return e.Weekdays.Allows(night.Weekday())
}

// UnitPricingEvent 单元与价格事件的关联，AttachedAt 决定优先级
type UnitPricingEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UnitID     int64     `gorm:"index;not null" json:"unit_id"`
	EventID    int64     `gorm:"index;not null" json:"event_id"`
	AttachedAt time.Time `gorm:"not null" json:"attached_at"`

	Event *PricingEvent `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

// TableName 表名
func (UnitPricingEvent) TableName() string {
	return "unit_pricing_events"
}

// DateOnly 归一化为 UTC 零点
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
