package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemType enum constants
const (
	ItemTypeFull = "full"
	ItemTypeHalf = "half"
)

// Bill is an immutable record of a completed sale. No update or delete path
// exists for bills anywhere in the codebase: once written, a bill and its
// items are an audit record. bill_no carries a unique index — concurrent
// number allocation leans on it (insert conflicts trigger a re-read/retry).
type Bill struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BillNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"billNo"` // B{YY}{MM}{SEQ}
	Customer    string          `gorm:"type:varchar(255);not null" json:"customer"`
	TableNumber string          `gorm:"type:varchar(50);not null" json:"tableNumber"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	CGST        decimal.Decimal `gorm:"column:cgst;type:decimal(18,2);not null" json:"cgst"`
	SGST        decimal.Decimal `gorm:"column:sgst;type:decimal(18,2);not null" json:"sgst"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"discount"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	CreatedByID uuid.UUID       `gorm:"type:uuid;not null;index" json:"createdById"` // stays valid after the user is deactivated
	CreatedBy   User            `gorm:"foreignKey:CreatedByID" json:"-"`
	Items       []BillItem      `gorm:"foreignKey:BillID" json:"items"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (b *Bill) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BillItem is one line of a bill: a denormalized snapshot of the menu item
// at sale time. menu_item_id is a weak reference — the menu item may change
// or disappear later without affecting this row.
type BillItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BillID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"billId"`
	MenuItemID   uuid.UUID       `gorm:"type:uuid;not null" json:"menuItemId"`
	NameSnapshot string          `gorm:"type:varchar(255);not null" json:"nameSnapshot"`
	Type         string          `gorm:"type:varchar(10);not null" json:"type"` // full, half
	Qty          int             `gorm:"not null" json:"qty"`
	Price        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"` // unit price at time of sale
	Total        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"` // price * qty
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (i *BillItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
