package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"posserver/internal/model"
	"posserver/internal/repository"
	"posserver/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GST is a fixed 18% split evenly into two 9% components (CGST + SGST).
var gstHalfRate = decimal.RequireFromString("0.09")

// billNoPrefixLen is the length of "B" + YY + MM; the sequence digits follow.
const billNoPrefixLen = 5

// maxAllocAttempts bounds retries when two creations race for the same
// sequence number and one insert hits the unique index on bill_no.
const maxAllocAttempts = 3

// --- DTOs ---

type BillItemRequest struct {
	MenuItemID string          `json:"menuItemId" binding:"required,uuid"`
	Name       string          `json:"name" binding:"required"`
	Type       string          `json:"type" binding:"required,oneof=full half"`
	Qty        int             `json:"qty" binding:"required,gt=0"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
}

type CreateBillRequest struct {
	Customer    string            `json:"customer" binding:"required"`
	TableNumber string            `json:"tableNumber" binding:"required"`
	Items       []BillItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount    decimal.Decimal   `json:"discount"`
}

type BillFilter struct {
	From      *time.Time
	To        *time.Time
	CreatedBy *uuid.UUID
}

type SummaryResponse struct {
	BillCount     int64  `json:"billCount"`
	GrossRevenue  string `json:"grossRevenue"`
	TaxCollected  string `json:"taxCollected"`
	DiscountGiven string `json:"discountGiven"`
}

// --- Interface ---

// BillService allocates bill numbers and persists immutable bills. There is
// no update or delete operation: a created bill is an audit record.
type BillService interface {
	Create(ctx context.Context, createdByID uuid.UUID, req CreateBillRequest) (*model.Bill, error)
	List(ctx context.Context, filter BillFilter) ([]model.Bill, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	Summary(ctx context.Context, from, to time.Time) (SummaryResponse, error)
}

type billService struct {
	bills     repository.BillRepository
	txManager repository.TransactionManager
	hub       *websocket.Hub
	now       func() time.Time
}

// NewBillService wires the bill ledger. hub may be nil (no live feed).
func NewBillService(bills repository.BillRepository, txManager repository.TransactionManager, hub *websocket.Hub) BillService {
	return &billService{bills: bills, txManager: txManager, hub: hub, now: time.Now}
}

// --- Implementation ---

// Create computes tax totals, allocates the next bill number for the current
// month and persists the bill with its items in one transaction. Allocation
// is read-max-then-insert guarded by the unique index on bill_no: when two
// requests race to the same sequence, the loser re-reads and retries.
func (s *billService) Create(ctx context.Context, createdByID uuid.UUID, req CreateBillRequest) (*model.Bill, error) {
	items, subtotal, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	discount := req.Discount
	if discount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	// Rounded at each step, half away from zero: money semantics.
	cgst := subtotal.Mul(gstHalfRate).Round(2)
	sgst := cgst
	total := subtotal.Add(cgst).Add(sgst).Sub(discount).Round(2)

	var bill *model.Bill
	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		candidate := &model.Bill{
			Customer:    req.Customer,
			TableNumber: req.TableNumber,
			Subtotal:    subtotal,
			CGST:        cgst,
			SGST:        sgst,
			Discount:    discount,
			Total:       total,
			CreatedByID: createdByID,
			Items:       items,
		}

		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			billNo, allocErr := s.nextBillNo(txCtx)
			if allocErr != nil {
				return allocErr
			}
			candidate.BillNo = billNo
			return s.bills.Create(txCtx, candidate)
		})
		if err == nil {
			bill = candidate
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}
	if bill == nil {
		return nil, fmt.Errorf("bill number allocation failed after %d attempts: %w", maxAllocAttempts, err)
	}

	if s.hub != nil {
		s.hub.BroadcastEvent("bill_created", bill)
	}

	return bill, nil
}

func (s *billService) List(ctx context.Context, filter BillFilter) ([]model.Bill, error) {
	return s.bills.List(ctx, repository.BillFilter{
		From:      filter.From,
		To:        filter.To,
		CreatedBy: filter.CreatedBy,
	})
}

func (s *billService) GetByID(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	bill, err := s.bills.FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	return bill, nil
}

func (s *billService) Summary(ctx context.Context, from, to time.Time) (SummaryResponse, error) {
	row, err := s.bills.Summary(ctx, from, to)
	if err != nil {
		return SummaryResponse{}, err
	}
	return SummaryResponse{
		BillCount:     row.BillCount,
		GrossRevenue:  row.GrossRevenue.StringFixed(2),
		TaxCollected:  row.TaxCollected.StringFixed(2),
		DiscountGiven: row.DiscountGiven.StringFixed(2),
	}, nil
}

// nextBillNo allocates B{YY}{MM}{SEQ}: the sequence restarts at 1 each
// calendar month and is the trailing digits of the highest existing bill_no
// under the month prefix, plus one.
func (s *billService) nextBillNo(ctx context.Context) (string, error) {
	prefix := "B" + s.now().Format("0601")

	last, err := s.bills.LastBillNoForPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	seq := 1
	if last != "" {
		parsed, parseErr := strconv.Atoi(last[billNoPrefixLen:])
		if parseErr != nil {
			return "", fmt.Errorf("malformed bill number %q: %w", last, parseErr)
		}
		seq = parsed + 1
	}

	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

// buildItems validates the submitted lines and returns the item rows plus the
// running subtotal. Prices are trusted from the caller (they were quoted from
// the menu client-side), but each line total must be consistent with its own
// price and quantity.
func buildItems(reqs []BillItemRequest) ([]model.BillItem, decimal.Decimal, error) {
	items := make([]model.BillItem, 0, len(reqs))
	subtotal := decimal.Zero

	for _, it := range reqs {
		menuItemID, err := uuid.Parse(it.MenuItemID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("invalid menuItemId %q: %w", it.MenuItemID, err)
		}
		if it.Price.IsNegative() || it.Total.IsNegative() {
			return nil, decimal.Zero, ErrNegativeAmount
		}
		if !it.Total.Equal(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))).Round(2)) {
			return nil, decimal.Zero, ErrInvalidBillItem
		}

		items = append(items, model.BillItem{
			MenuItemID:   menuItemID,
			NameSnapshot: it.Name,
			Type:         it.Type,
			Qty:          it.Qty,
			Price:        it.Price,
			Total:        it.Total,
		})
		subtotal = subtotal.Add(it.Total)
	}

	return items, subtotal, nil
}
