package repository

import (
	"context"
	"time"

	"posserver/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshTokenRepository persists refresh tokens and implements the
// single-use rotation contract: Rotate is a guarded update keyed on the old
// token value, so of two racing refresh calls only one can win.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	Rotate(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var stored model.RefreshToken
	if err := GetDB(ctx, r.db).First(&stored, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// Rotate replaces the stored token value and expiry in place. The WHERE on
// the old value makes it a compare-and-swap: a replayed or concurrently
// rotated token matches zero rows, and the returned count tells the caller.
func (r *refreshTokenRepository) Rotate(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.RefreshToken{}).
		Where("token = ?", oldToken).
		Updates(map[string]interface{}{"token": newToken, "expires_at": expiresAt})
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}
