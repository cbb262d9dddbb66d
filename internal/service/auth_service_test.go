package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"posserver/internal/model"
	"posserver/internal/repository"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("test_signing_secret")

func newAuthService(db *gorm.DB) AuthService {
	return NewAuthService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		testSecret,
	)
}

func TestLogin_Succeeds(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "admin@hotel.com", "admin123", model.RoleAdmin)
	svc := newAuthService(db)

	res, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Admin@Hotel.com", // case-insensitive lookup
		Password: "admin123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Equal(t, "admin@hotel.com", res.User.Email)
	assert.Equal(t, model.RoleAdmin, res.User.Role)

	// The refresh token is persisted server-side, bound to the user.
	var stored model.RefreshToken
	require.NoError(t, db.First(&stored, "token = ?", res.RefreshToken).Error)
	assert.Equal(t, user.ID, stored.UserID)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), stored.ExpiresAt, time.Minute)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "admin@hotel.com", "admin123", model.RoleAdmin)
	svc := newAuthService(db)

	// Wrong password and unknown email must yield the same error.
	_, errWrongPassword := svc.Login(context.Background(), LoginRequest{
		Email:    "admin@hotel.com",
		Password: "not-the-password",
	})
	_, errUnknownEmail := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@hotel.com",
		Password: "admin123",
	})

	require.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestLogin_DeactivatedAccountCannotAuthenticate(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "gone@hotel.com", "secret123", model.RoleCashier)
	require.NoError(t, db.Model(user).Update("is_deleted", true).Error)
	svc := newAuthService(db)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "gone@hotel.com",
		Password: "secret123",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RejectsUnknownRole(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "manager@hotel.com", "secret123", "manager")
	svc := newAuthService(db)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "manager@hotel.com",
		Password: "secret123",
	})
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestLogin_TwoFactor(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "secure@hotel.com", "secret123", model.RoleAdmin)

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "posserver", AccountName: user.Email})
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{
		"two_factor_secret":  key.Secret(),
		"two_factor_enabled": true,
	}).Error)

	svc := newAuthService(db)

	// Missing code.
	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "secure@hotel.com",
		Password: "secret123",
	})
	require.ErrorIs(t, err, ErrTwoFactorRequired)

	// Wrong code: pick one outside the accepted window.
	wrong := wrongTOTPCode(t, key.Secret())
	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "secure@hotel.com",
		Password: "secret123",
		Code:     wrong,
	})
	require.ErrorIs(t, err, ErrInvalidTwoFactorCode)

	// Valid code.
	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	res, err := svc.Login(context.Background(), LoginRequest{
		Email:    "secure@hotel.com",
		Password: "secret123",
		Code:     code,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

// wrongTOTPCode returns a six-digit code that is not valid for the secret in
// the current step or its +/-1 neighbours.
func wrongTOTPCode(t *testing.T, secret string) string {
	t.Helper()

	now := time.Now()
	valid := map[string]bool{}
	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		code, err := totp.GenerateCode(secret, now.Add(offset))
		require.NoError(t, err)
		valid[code] = true
	}

	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%06d", i)
		if !valid[candidate] {
			return candidate
		}
	}
}

func TestRefresh_RotatesAndIsSingleUse(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "admin@hotel.com", "admin123", model.RoleAdmin)
	svc := newAuthService(db)

	res, err := svc.Login(context.Background(), LoginRequest{
		Email:    "admin@hotel.com",
		Password: "admin123",
	})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	// Replaying the rotated-out value fails.
	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The rotated-in value works exactly once more.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_ConcurrentUseHasExactlyOneWinner(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "admin@hotel.com", "admin123", model.RoleAdmin)
	svc := newAuthService(db)

	res, err := svc.Login(context.Background(), LoginRequest{
		Email:    "admin@hotel.com",
		Password: "admin123",
	})
	require.NoError(t, err)

	// Race the same refresh value: the guarded update rotates for exactly
	// one caller, every other one must see ErrInvalidToken.
	const n = 4
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), res.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrInvalidToken)
		losses++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, losses)
}

func TestRefresh_RejectsUnknownAndExpiredTokens(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "admin@hotel.com", "admin123", model.RoleAdmin)
	svc := newAuthService(db)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	// A stored row past its expiry is rejected before signature checks.
	require.NoError(t, db.Create(&model.RefreshToken{
		UserID:    user.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)
	_, err = svc.Refresh(context.Background(), "stale-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSoftDelete_RevokesOutstandingRefreshTokens(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "cashier@hotel.com", "secret123", model.RoleCashier)
	authSvc := newAuthService(db)
	userSvc := NewUserService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		repository.NewTransactionManager(db),
	)

	res, err := authSvc.Login(context.Background(), LoginRequest{
		Email:    "cashier@hotel.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, userSvc.SoftDelete(context.Background(), user.ID))

	// Refresh fails immediately: the stored rows are gone.
	_, err = authSvc.Refresh(context.Background(), res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	var count int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	// And a fresh login is refused.
	_, err = authSvc.Login(context.Background(), LoginRequest{
		Email:    "cashier@hotel.com",
		Password: "secret123",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
