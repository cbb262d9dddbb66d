package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"posserver/internal/model"
	"posserver/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,oneof=admin cashier"`
	Password string `json:"password" binding:"required,min=6"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,oneof=admin cashier"`
}

type SetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// UserService manages staff accounts. Deactivation is a soft delete: the row
// stays (bills reference it) and can be reactivated, but all of the user's
// refresh tokens are purged in the same transaction so outstanding sessions
// stop refreshing immediately.
type UserService interface {
	Create(ctx context.Context, req CreateUserRequest) (*PublicUser, error)
	ListActive(ctx context.Context, page, limit int) ([]model.User, int64, error)
	ListDeleted(ctx context.Context, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*PublicUser, error)
	SetPassword(ctx context.Context, id uuid.UUID, password string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) (*PublicUser, error)
}

type userService struct {
	users     repository.UserRepository
	tokens    repository.RefreshTokenRepository
	txManager repository.TransactionManager
}

func NewUserService(users repository.UserRepository, tokens repository.RefreshTokenRepository, txManager repository.TransactionManager) UserService {
	return &userService{users: users, tokens: tokens, txManager: txManager}
}

func toPublicUser(user *model.User) *PublicUser {
	return &PublicUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*PublicUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		if existing.IsDeleted {
			return nil, ErrEmailDeactivated
		}
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        email,
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return toPublicUser(user), nil
}

func (s *userService) ListActive(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	return s.users.List(ctx, false, page, limit)
}

func (s *userService) ListDeleted(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	return s.users.List(ctx, true, page, limit)
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*PublicUser, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailExists
			}
			user.Email = email
		}
	}
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return toPublicUser(user), nil
}

func (s *userService) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	return s.users.Update(ctx, user)
}

// SoftDelete flips is_deleted and purges the user's refresh tokens in one
// transaction. Outstanding access tokens stay cryptographically valid for up
// to their 15-minute lifetime, but the auth middleware's live check rejects
// them on the very next request.
func (s *userService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.getUser(txCtx, id)
		if err != nil {
			return err
		}
		if user.IsDeleted {
			return ErrUserAlreadyDeleted
		}

		user.IsDeleted = true
		if err := s.users.Update(txCtx, user); err != nil {
			return err
		}
		return s.tokens.DeleteAllForUser(txCtx, user.ID)
	})
}

func (s *userService) Reactivate(ctx context.Context, id uuid.UUID) (*PublicUser, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsDeleted {
		return nil, ErrUserAlreadyActive
	}

	user.IsDeleted = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return toPublicUser(user), nil
}

func (s *userService) getUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
