package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"posserver/internal/database"
	"posserver/internal/middleware"
	"posserver/internal/model"
	"posserver/internal/repository"
	"posserver/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupAPI builds the full HTTP stack against an in-memory sqlite database,
// wired exactly like cmd/api/main.go minus the websocket hub.
func setupAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedAdmin(db))
	middleware.InitAuthMiddleware(db)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	menuRepo := repository.NewMenuItemRepository(db)
	billRepo := repository.NewBillRepository(db)
	txManager := repository.NewTransactionManager(db)

	authService := service.NewAuthService(userRepo, tokenRepo, middleware.GetJWTSecret())
	userService := service.NewUserService(userRepo, tokenRepo, txManager)
	menuService := service.NewMenuService(menuRepo)
	billService := service.NewBillService(billRepo, txManager, nil)

	router := gin.New()
	NewAuthHandler(authService).RegisterRoutes(router.Group(""))
	NewUserHandler(userService).RegisterRoutes(router.Group(""))
	NewMenuHandler(menuService).RegisterRoutes(router.Group(""))
	NewBillHandler(billService).RegisterRoutes(router.Group(""))

	return router, db
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func login(t *testing.T, router *gin.Engine, email, password string) (accessToken, refreshToken string) {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.AccessToken, data.RefreshToken
}

func billPayload() gin.H {
	return gin.H{
		"customer":    "Walk-in",
		"tableNumber": "T1",
		"items": []gin.H{
			{"menuItemId": uuid.NewString(), "name": "Paneer Tikka", "type": "full", "qty": 1, "price": 280, "total": 280},
			{"menuItemId": uuid.NewString(), "name": "Dal Fry", "type": "half", "qty": 2, "price": 150, "total": 300},
		},
	}
}

func TestLoginAndCreateBillRoundTrip(t *testing.T) {
	router, _ := setupAPI(t)
	access, _ := login(t, router, "admin@hotel.com", "admin123")

	rec, env := doJSON(t, router, http.MethodPost, "/bills", access, billPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var bill struct {
		ID       string `json:"id"`
		BillNo   string `json:"billNo"`
		Subtotal string `json:"subtotal"`
		CGST     string `json:"cgst"`
		SGST     string `json:"sgst"`
		Total    string `json:"total"`
		Items    []struct {
			NameSnapshot string `json:"nameSnapshot"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bill))

	prefix := "B" + time.Now().Format("0601")
	assert.Equal(t, prefix+"001", bill.BillNo)
	assert.Equal(t, "580", bill.Subtotal)
	assert.Equal(t, "52.2", bill.CGST)
	assert.Equal(t, "52.2", bill.SGST)
	assert.Equal(t, "684.4", bill.Total)
	assert.Len(t, bill.Items, 2)

	// The bill is readable back, with items.
	rec, _ = doJSON(t, router, http.MethodGet, "/bills/"+bill.ID, access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/bills/"+uuid.NewString(), access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/bills", access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBillsRequireAuthentication(t *testing.T) {
	router, _ := setupAPI(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/bills", "", billPayload())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/bills", "garbage-token", billPayload())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	router, db := setupAPI(t)

	// Sign a token for the real seeded account whose only flaw is being
	// past its exp claim.
	var admin model.User
	require.NoError(t, db.First(&admin, "email = ?", "admin@hotel.com").Error)

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   admin.ID.String(),
		"role":  admin.Role,
		"email": admin.Email,
		"iat":   now.Add(-time.Hour).Unix(),
		"exp":   now.Add(-30 * time.Minute).Unix(),
	})
	expired, err := token.SignedString(middleware.GetJWTSecret())
	require.NoError(t, err)

	rec, _ := doJSON(t, router, http.MethodPost, "/bills", expired, billPayload())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/bills", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBillValidationRejectedBeforeWrite(t *testing.T) {
	router, _ := setupAPI(t)
	access, _ := login(t, router, "admin@hotel.com", "admin123")

	// Empty items list fails binding.
	rec, _ := doJSON(t, router, http.MethodPost, "/bills", access, gin.H{
		"customer":    "Walk-in",
		"tableNumber": "T1",
		"items":       []gin.H{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown item type fails binding.
	rec, _ = doJSON(t, router, http.MethodPost, "/bills", access, gin.H{
		"customer":    "Walk-in",
		"tableNumber": "T1",
		"items": []gin.H{
			{"menuItemId": uuid.NewString(), "name": "Chai", "type": "quarter", "qty": 1, "price": 15, "total": 15},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeactivationRevokesAccessImmediately(t *testing.T) {
	router, _ := setupAPI(t)
	adminAccess, _ := login(t, router, "admin@hotel.com", "admin123")

	rec, env := doJSON(t, router, http.MethodPost, "/users", adminAccess, gin.H{
		"name":     "Cashier",
		"email":    "cashier@hotel.com",
		"role":     "cashier",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	cashierAccess, cashierRefresh := login(t, router, "cashier@hotel.com", "secret123")

	// Cashier can create bills while active.
	rec, _ = doJSON(t, router, http.MethodPost, "/bills", cashierAccess, billPayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = doJSON(t, router, http.MethodDelete, "/users/"+created.ID, adminAccess, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The still-valid access token is rejected by the live account check.
	rec, _ = doJSON(t, router, http.MethodPost, "/bills", cashierAccess, billPayload())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// And the refresh token was purged with the deactivation.
	rec, _ = doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": cashierRefresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleEnforcement(t *testing.T) {
	router, _ := setupAPI(t)
	adminAccess, _ := login(t, router, "admin@hotel.com", "admin123")

	rec, _ := doJSON(t, router, http.MethodPost, "/users", adminAccess, gin.H{
		"name":     "Cashier",
		"email":    "cashier@hotel.com",
		"role":     "cashier",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	cashierAccess, _ := login(t, router, "cashier@hotel.com", "secret123")

	// Staff management is admin-only.
	rec, _ = doJSON(t, router, http.MethodGet, "/users", cashierAccess, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/menu", cashierAccess, gin.H{
		"name": "Chai", "category": "Beverages", "fullPrice": 15, "halfPrice": 10,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/users", adminAccess, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshEndpointRotatesSingleUse(t *testing.T) {
	router, _ := setupAPI(t)
	_, refresh := login(t, router, "admin@hotel.com", "admin123")

	rec, env := doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, rec.Code)

	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	assert.NotEqual(t, refresh, pair.RefreshToken)

	// Replay of the original value fails.
	rec, _ = doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Missing token is a 400, not a 401.
	rec, _ = doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The new access token works.
	rec, _ = doJSON(t, router, http.MethodPost, "/bills", pair.AccessToken, billPayload())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestMenuCRUD(t *testing.T) {
	router, _ := setupAPI(t)
	adminAccess, _ := login(t, router, "admin@hotel.com", "admin123")

	rec, env := doJSON(t, router, http.MethodPost, "/menu", adminAccess, gin.H{
		"name": "Paneer Tikka", "category": "Starters", "fullPrice": 280, "halfPrice": 150,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var item struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &item))

	// Reads are public.
	rec, _ = doJSON(t, router, http.MethodGet, "/menu", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPatch, "/menu/"+item.ID, adminAccess, gin.H{"isAvailable": false})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodDelete, "/menu/"+item.ID, adminAccess, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = doJSON(t, router, http.MethodDelete, "/menu/"+item.ID, adminAccess, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
