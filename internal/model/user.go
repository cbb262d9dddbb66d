package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values allowed to authenticate
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// User represents a staff account. Accounts are never physically removed:
// bills keep a created_by reference for audit history, so "deleting" a user
// only flips is_deleted. A deactivated account cannot authenticate and is
// hidden from active listings, but stays resolvable from historical bills.
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name"`
	Email            string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"` // stored lowercased
	PasswordHash     string    `gorm:"type:varchar(255);not null" json:"-"`
	Role             string    `gorm:"type:varchar(50);not null" json:"role"` // admin, cashier
	IsDeleted        bool      `gorm:"not null;default:false;index" json:"is_deleted"`
	TwoFactorSecret  string    `gorm:"type:varchar(255)" json:"-"` // base32 TOTP secret, verify-only
	TwoFactorEnabled bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the ID in-process so the model also works on engines
// without gen_random_uuid (the sqlite test driver).
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores long-lived tokens allowing users to request new access
// tokens. One row per session: rotation overwrites token and expires_at in
// place, so a rotated-out value can never validate again.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
