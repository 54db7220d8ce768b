package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anonymousminati/finly-backend/internal/domain"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
	"github.com/anonymousminati/finly-backend/pkg/pagination"
)

// BillRepository implements repository.BillRepository using PostgreSQL.
type BillRepository struct {
	db DB
}

// NewBillRepository creates a new PostgreSQL-backed bill repository.
func NewBillRepository(db DB) *BillRepository {
	return &BillRepository{db: db}
}

const billColumns = `
	b.id, b.company_name, b.plan_name, b.service_name, b.description,
	b.amount, b.currency, b.billing_frequency, b.next_due_date,
	b.last_paid_date, b.last_paid_amount, b.status, b.company_logo_url,
	b.created_at, b.updated_at,
	COALESCE(a.account_name, ''), COALESCE(c.name, '')`

const billJoins = `
	FROM bills b
	LEFT JOIN financial_accounts a ON a.id = b.account_id
	LEFT JOIN transaction_categories c ON c.id = b.category_id`

// Create inserts a new bill. The generated ID and timestamps are written
// back into b.
func (r *BillRepository) Create(ctx context.Context, b *domain.Bill) error {
	query := `
		INSERT INTO bills (user_id, company_name, plan_name, service_name, description, amount, currency, billing_frequency, next_due_date, status, company_logo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		b.UserID,
		b.Company,
		b.Plan,
		b.ServiceName,
		b.Description,
		b.Amount,
		b.Currency,
		b.Frequency,
		b.NextDueDate,
		b.Status,
		b.LogoURL,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}

	return nil
}

// GetByID retrieves one of the user's bills.
func (r *BillRepository) GetByID(ctx context.Context, userID, billID int64) (*domain.Bill, error) {
	query := `SELECT ` + billColumns + billJoins + `
		WHERE b.id = $1 AND b.user_id = $2`

	b, err := r.scanBill(r.db.QueryRow(ctx, query, billID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan bill: %w", err)
	}

	b.UserID = userID

	return b, nil
}

// ListForUser returns the user's bills matching the filter ordered by due
// date, with the total match count.
func (r *BillRepository) ListForUser(ctx context.Context, userID int64, filter domain.BillFilter, params pagination.Params) ([]domain.Bill, int, error) {
	where := `b.user_id = $1`
	args := []any{userID}

	if len(filter.Statuses) > 0 {
		args = append(args, filter.Statuses)
		where += fmt.Sprintf(" AND b.status = ANY($%d)", len(args))
	}
	if filter.AmountMin != nil {
		args = append(args, *filter.AmountMin)
		where += fmt.Sprintf(" AND b.amount >= $%d", len(args))
	}
	if filter.AmountMax != nil {
		args = append(args, *filter.AmountMax)
		where += fmt.Sprintf(" AND b.amount <= $%d", len(args))
	}
	if filter.DueDateStart != nil {
		args = append(args, *filter.DueDateStart)
		where += fmt.Sprintf(" AND b.next_due_date >= $%d", len(args))
	}
	if filter.DueDateEnd != nil {
		args = append(args, *filter.DueDateEnd)
		where += fmt.Sprintf(" AND b.next_due_date <= $%d", len(args))
	}
	if len(filter.Companies) > 0 {
		args = append(args, filter.Companies)
		where += fmt.Sprintf(" AND b.company_name = ANY($%d)", len(args))
	}
	if len(filter.Frequencies) > 0 {
		args = append(args, filter.Frequencies)
		where += fmt.Sprintf(" AND b.billing_frequency = ANY($%d)", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (b.company_name ILIKE $%d OR b.plan_name ILIKE $%d OR b.service_name ILIKE $%d OR b.description ILIKE $%d)", n, n, n, n)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM bills b WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	args = append(args, params.PerPage, params.Offset)
	query := fmt.Sprintf(`SELECT %s %s
		WHERE %s
		ORDER BY b.next_due_date ASC
		LIMIT $%d OFFSET $%d`, billColumns, billJoins, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []domain.Bill
	for rows.Next() {
		b, err := r.scanBill(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan bill row: %w", err)
		}
		b.UserID = userID
		bills = append(bills, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bill rows: %w", err)
	}

	if bills == nil {
		bills = []domain.Bill{}
	}

	return bills, total, nil
}

func (r *BillRepository) scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	err := row.Scan(
		&b.ID,
		&b.Company,
		&b.Plan,
		&b.ServiceName,
		&b.Description,
		&b.Amount,
		&b.Currency,
		&b.Frequency,
		&b.NextDueDate,
		&b.LastPaidDate,
		&b.LastPaidAmount,
		&b.Status,
		&b.LogoURL,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.AccountName,
		&b.CategoryName,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
