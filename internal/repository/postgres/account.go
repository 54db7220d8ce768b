package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anonymousminati/finly-backend/internal/domain"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
)

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account and fills in the generated ID and timestamps.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO financial_accounts (
			user_id, account_name, masked_account_number, bank_name, account_type,
			current_balance, available_balance, credit_limit, currency, is_primary, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		account.UserID,
		account.Name,
		account.MaskedNumber,
		account.BankName,
		account.Type,
		account.CurrentBalance,
		account.AvailableBalance,
		account.CreditLimit,
		account.Currency,
		account.IsPrimary,
		account.IsActive,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// ListForUser returns the user's active accounts with completed transaction
// counts over the optional date range, primary account first then by balance.
func (r *AccountRepository) ListForUser(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Account, error) {
	query := `
		SELECT fa.id, fa.account_name, fa.masked_account_number, fa.bank_name, fa.account_type,
		       fa.current_balance, fa.available_balance, fa.credit_limit, fa.currency,
		       fa.is_primary, fa.is_active, fa.created_at, fa.updated_at,
		       COUNT(t.id) AS transactions_count
		FROM financial_accounts fa
		LEFT JOIN transactions t ON t.account_id = fa.id
			AND t.status = 'completed'`

	args := []any{userID}
	argn := 1
	if from != nil {
		argn++
		query += fmt.Sprintf(" AND t.transaction_date >= $%d", argn)
		args = append(args, *from)
	}
	if to != nil {
		argn++
		query += fmt.Sprintf(" AND t.transaction_date <= $%d", argn)
		args = append(args, *to)
	}

	query += `
		WHERE fa.user_id = $1 AND fa.is_active
		GROUP BY fa.id
		ORDER BY fa.is_primary DESC, fa.current_balance DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.MaskedNumber,
			&a.BankName,
			&a.Type,
			&a.CurrentBalance,
			&a.AvailableBalance,
			&a.CreditLimit,
			&a.Currency,
			&a.IsPrimary,
			&a.IsActive,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.TransactionCount,
		); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		a.UserID = userID
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}

	if accounts == nil {
		accounts = []domain.Account{}
	}

	return accounts, nil
}

// GetByID retrieves one of the user's accounts.
func (r *AccountRepository) GetByID(ctx context.Context, userID, accountID int64) (*domain.Account, error) {
	query := `
		SELECT id, account_name, masked_account_number, bank_name, account_type,
		       current_balance, available_balance, credit_limit, currency,
		       is_primary, is_active, created_at, updated_at
		FROM financial_accounts
		WHERE id = $1 AND user_id = $2`

	var a domain.Account
	err := r.db.QueryRow(ctx, query, accountID, userID).Scan(
		&a.ID,
		&a.Name,
		&a.MaskedNumber,
		&a.BankName,
		&a.Type,
		&a.CurrentBalance,
		&a.AvailableBalance,
		&a.CreditLimit,
		&a.Currency,
		&a.IsPrimary,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	a.UserID = userID

	return &a, nil
}
