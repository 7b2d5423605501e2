package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax 税种；IsPercentage 为 false 时 Amount 为每行固定税额
type Tax struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string          `gorm:"type:varchar(100);not null" json:"name"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	IsPercentage bool            `gorm:"not null" json:"is_percentage"`
	Status       int8            `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Tax) TableName() string {
	return "taxes"
}

// UnitTax 住宿单元税种关联，每个单元仅一条启用关联生效
type UnitTax struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UnitID    int64     `gorm:"index;not null" json:"unit_id"`
	TaxID     int64     `gorm:"index;not null" json:"tax_id"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Tax *Tax `gorm:"foreignKey:TaxID" json:"tax,omitempty"`
}

// TableName 表名
func (UnitTax) TableName() string {
	return "unit_taxes"
}

// MenuItem 餐饮/商品，自带税率（百分比）
type MenuItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ZoneID    int64           `gorm:"index;not null" json:"zone_id"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	Status    int8            `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (MenuItem) TableName() string {
	return "menu_items"
}
