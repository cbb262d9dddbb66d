package repository

import (
	"context"
	"fmt"
	"time"

	"posserver/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillFilter narrows List results. Date bounds are inclusive.
type BillFilter struct {
	From      *time.Time
	To        *time.Time
	CreatedBy *uuid.UUID
}

// SummaryRow aggregates bills in a date range. The sums scan straight into
// decimals so the money path never passes through a float.
type SummaryRow struct {
	BillCount     int64           `gorm:"column:bill_count"`
	GrossRevenue  decimal.Decimal `gorm:"column:gross_revenue"`
	TaxCollected  decimal.Decimal `gorm:"column:tax_collected"`
	DiscountGiven decimal.Decimal `gorm:"column:discount_given"`
}

// BillRepository persists bills. There is deliberately no Update or Delete:
// bills are immutable once created.
type BillRepository interface {
	Create(ctx context.Context, bill *model.Bill) error
	LastBillNoForPrefix(ctx context.Context, prefix string) (string, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	List(ctx context.Context, filter BillFilter) ([]model.Bill, error)
	Summary(ctx context.Context, from, to time.Time) (SummaryRow, error)
}

type billRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

// Create inserts the bill together with its Items association in one go.
// Run it inside the transaction manager so bill and items are all-or-nothing.
func (r *billRepository) Create(ctx context.Context, bill *model.Bill) error {
	return GetDB(ctx, r.db).Create(bill).Error
}

// LastBillNoForPrefix returns the highest bill_no under the month prefix,
// or "" when the month has no bills yet. Ordering by length first keeps the
// read correct once the sequence outgrows its three-digit padding ("1000"
// must beat "999").
func (r *billRepository) LastBillNoForPrefix(ctx context.Context, prefix string) (string, error) {
	var billNos []string
	err := GetDB(ctx, r.db).Model(&model.Bill{}).
		Where("bill_no LIKE ?", prefix+"%").
		Order("length(bill_no) desc, bill_no desc").
		Limit(1).
		Pluck("bill_no", &billNos).Error
	if err != nil {
		return "", err
	}
	if len(billNos) == 0 {
		return "", nil
	}
	return billNos[0], nil
}

func (r *billRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	if err := GetDB(ctx, r.db).Preload("Items").First(&bill, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) List(ctx context.Context, filter BillFilter) ([]model.Bill, error) {
	var bills []model.Bill

	query := GetDB(ctx, r.db).Preload("Items")
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by_id = ?", *filter.CreatedBy)
	}

	if err := query.Order("created_at desc").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *billRepository) Summary(ctx context.Context, from, to time.Time) (SummaryRow, error) {
	query := `
		SELECT
			COUNT(*) AS bill_count,
			COALESCE(SUM(total), 0) AS gross_revenue,
			COALESCE(SUM(cgst + sgst), 0) AS tax_collected,
			COALESCE(SUM(discount), 0) AS discount_given
		FROM bills
		WHERE created_at >= ? AND created_at <= ?
	`

	var row SummaryRow
	if err := GetDB(ctx, r.db).Raw(query, from, to).Scan(&row).Error; err != nil {
		return SummaryRow{}, fmt.Errorf("failed to query bill summary: %w", err)
	}
	return row, nil
}
