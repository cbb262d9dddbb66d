package service

import (
	"context"
	"errors"

	"posserver/internal/model"
	"posserver/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateMenuItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	FullPrice   decimal.Decimal `json:"fullPrice"`
	HalfPrice   decimal.Decimal `json:"halfPrice"`
	IsAvailable *bool           `json:"isAvailable"`
}

type UpdateMenuItemRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	FullPrice   *decimal.Decimal `json:"fullPrice"`
	HalfPrice   *decimal.Decimal `json:"halfPrice"`
	IsAvailable *bool            `json:"isAvailable"`
}

// MenuService is plain CRUD; bills snapshot menu data at sale time, so
// nothing here affects historical records.
type MenuService interface {
	Create(ctx context.Context, req CreateMenuItemRequest) (*model.MenuItem, error)
	List(ctx context.Context) ([]model.MenuItem, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateMenuItemRequest) (*model.MenuItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type menuService struct {
	repo repository.MenuItemRepository
}

func NewMenuService(repo repository.MenuItemRepository) MenuService {
	return &menuService{repo: repo}
}

func (s *menuService) Create(ctx context.Context, req CreateMenuItemRequest) (*model.MenuItem, error) {
	if req.FullPrice.IsNegative() || req.HalfPrice.IsNegative() {
		return nil, ErrNegativeAmount
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item := &model.MenuItem{
		Name:        req.Name,
		Category:    req.Category,
		FullPrice:   req.FullPrice,
		HalfPrice:   req.HalfPrice,
		IsAvailable: available,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *menuService) List(ctx context.Context) ([]model.MenuItem, error) {
	return s.repo.List(ctx)
}

func (s *menuService) Update(ctx context.Context, id uuid.UUID, req UpdateMenuItemRequest) (*model.MenuItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.FullPrice != nil {
		if req.FullPrice.IsNegative() {
			return nil, ErrNegativeAmount
		}
		item.FullPrice = *req.FullPrice
	}
	if req.HalfPrice != nil {
		if req.HalfPrice.IsNegative() {
			return nil, ErrNegativeAmount
		}
		item.HalfPrice = *req.HalfPrice
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *menuService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}
