package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking 营地预订
// SubtotalAmount / TaxAmount 只由总额重算写入，TotalAmount 为数据库生成列
type Booking struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNo      string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"booking_no"`
	ZoneID         int64           `gorm:"index;not null" json:"zone_id"`
	CustomerName   string          `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerEmail  *string         `gorm:"type:varchar(100)" json:"customer_email,omitempty"`
	CustomerPhone  *string         `gorm:"type:varchar(20)" json:"customer_phone,omitempty"`
	Notes          *string         `gorm:"type:text" json:"notes,omitempty"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubtotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"->;type:numeric(12,2) GENERATED ALWAYS AS (ROUND(subtotal_amount + tax_amount, 2)) STORED" json:"total_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	DepositDue     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"deposit_due"`
	BalanceDue     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance_due"`
	PaymentStatus  string          `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	CreatedBy      *int64          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Tents           []BookingTent        `gorm:"foreignKey:BookingID" json:"tents,omitempty"`
	MenuProducts    []BookingMenuProduct `gorm:"foreignKey:BookingID" json:"menu_products,omitempty"`
	AdditionalCosts []AdditionalCost     `gorm:"foreignKey:BookingID" json:"additional_costs,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// BookingStatus 预订状态
const (
	BookingStatusPending    = "pending"     // 待确认
	BookingStatusConfirmed  = "confirmed"   // 已确认
	BookingStatusCheckedIn  = "checked_in"  // 已入住
	BookingStatusCheckedOut = "checked_out" // 已离店
	BookingStatusCancelled  = "cancelled"   // 已取消
	BookingStatusRejected   = "rejected"    // 已拒绝
)

// IsTerminal 已取消或已拒绝的预订不再占用库存，也不可修改
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusRejected
}

// PaymentStatus 支付状态
const (
	PaymentStatusUnpaid        = "unpaid"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusPaid          = "paid"
)

// 订单行状态
const (
	LineStatusActive    = "active"
	LineStatusCancelled = "cancelled"
)

// BookingTent 预订中的帐篷
type BookingTent struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID int64           `gorm:"index;not null" json:"booking_id"`
	UnitID    int64           `gorm:"index:idx_tent_unit_dates;not null" json:"unit_id"`
	CheckIn   time.Time       `gorm:"type:date;index:idx_tent_unit_dates;not null" json:"check_in"`
	CheckOut  time.Time       `gorm:"type:date;index:idx_tent_unit_dates;not null" json:"check_out"`
	Status    string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	VoucherSnapshot `gorm:"embedded"`

	// 关联
	Unit  *AccommodationUnit `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Items []BookingItemLine  `gorm:"foreignKey:BookingTentID" json:"items,omitempty"`
}

// TableName 表名
func (BookingTent) TableName() string {
	return "booking_tents"
}

// Nights 入住晚数
func (t *BookingTent) Nights() int {
	return NightsBetween(t.CheckIn, t.CheckOut)
}

// IsActive 是否有效
func (t *BookingTent) IsActive() bool {
	return t.Status == LineStatusActive
}

// NetAmount 折扣后金额
func (t *BookingTent) NetAmount() decimal.Decimal {
	return t.Subtotal.Sub(t.DiscountAmount)
}

// BookingItemLine 帐篷计价明细
// UnitPrice 为整段住宿的单价（与数量无关），TotalPrice 按计价模式计算
type BookingItemLine struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingTentID int64           `gorm:"index;not null" json:"booking_tent_id"`
	ParameterID   int64           `gorm:"not null" json:"parameter_id"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	PricingMode   string          `gorm:"type:varchar(20);not null" json:"pricing_mode"`
	Nights        int             `gorm:"not null" json:"nights"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Parameter *Parameter `gorm:"foreignKey:ParameterID" json:"parameter,omitempty"`
}

// TableName 表名
func (BookingItemLine) TableName() string {
	return "booking_item_lines"
}

// BookingMenuProduct 预订中的餐饮商品；TaxRate 为加入时的商品税率快照
type BookingMenuProduct struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID     int64           `gorm:"index;not null" json:"booking_id"`
	BookingTentID *int64          `gorm:"index" json:"booking_tent_id,omitempty"`
	MenuItemID    int64           `gorm:"index;not null" json:"menu_item_id"`
	Name          string          `gorm:"type:varchar(100);not null" json:"name"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	Status        string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	VoucherSnapshot `gorm:"embedded"`
}

// TableName 表名
func (BookingMenuProduct) TableName() string {
	return "booking_menu_products"
}

// IsActive 是否有效
func (p *BookingMenuProduct) IsActive() bool {
	return p.Status == LineStatusActive
}

// NetAmount 折扣后金额
func (p *BookingMenuProduct) NetAmount() decimal.Decimal {
	return p.TotalPrice.Sub(p.DiscountAmount)
}

// AdditionalCost 附加费用；TotalPrice 与 TaxAmount 为数据库生成列
type AdditionalCost struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID  int64           `gorm:"index;not null" json:"booking_id"`
	Name       string          `gorm:"type:varchar(100);not null" json:"name"`
	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	TotalPrice decimal.Decimal `gorm:"->;type:numeric(12,2) GENERATED ALWAYS AS (ROUND(quantity * unit_price, 2)) STORED" json:"total_price"`
	TaxAmount  decimal.Decimal `gorm:"->;type:numeric(12,2) GENERATED ALWAYS AS (ROUND(quantity * unit_price * tax_rate / 100.0)) STORED" json:"tax_amount"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (AdditionalCost) TableName() string {
	return "additional_costs"
}

// BookingStatusHistory 预订操作历史（只追加）
type BookingStatusHistory struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID   int64     `gorm:"index;not null" json:"booking_id"`
	ActorID     *int64    `json:"actor_id,omitempty"`
	Action      string    `gorm:"type:varchar(50);not null" json:"action"`
	FromStatus  *string   `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus    *string   `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Metadata    JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (BookingStatusHistory) TableName() string {
	return "booking_status_histories"
}

// NightsBetween 计算两个日期之间的晚数
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(DateOnly(checkOut).Sub(DateOnly(checkIn)).Hours() / 24)
}
