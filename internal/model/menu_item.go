package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is a dish on the menu with a full-plate and half-plate price.
// Bills snapshot name and price at sale time, so a menu item may be repriced
// or hard-deleted without touching historical bills.
type MenuItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Category    string          `gorm:"type:varchar(100);not null" json:"category"`
	FullPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"fullPrice"`
	HalfPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"halfPrice"`
	IsAvailable bool            `gorm:"not null;default:true" json:"isAvailable"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *MenuItem) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
