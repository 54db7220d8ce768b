package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/pkg/pagination"
)

// TransactionRepository implements repository.TransactionRepository using
// PostgreSQL.
type TransactionRepository struct {
	db DB
}

// NewTransactionRepository creates a new PostgreSQL-backed transaction
// repository.
func NewTransactionRepository(db DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new transaction. The generated ID and creation timestamp
// are written back into t.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, account_id, category_id, transaction_type, status, amount, description, payment_method, note, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		t.UserID,
		t.AccountID,
		t.CategoryID,
		t.Type,
		t.Status,
		t.Amount,
		t.Description,
		t.PaymentMethod,
		t.Note,
		t.Date,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// transactionFilterClause appends filter conditions to a WHERE clause that
// already constrains user_id ($1) and status. It returns the extended clause
// and argument list.
func transactionFilterClause(where string, args []any, filter domain.TransactionFilter) (string, []any) {
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND t.transaction_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND t.transaction_date <= $%d", len(args))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		where += fmt.Sprintf(" AND t.account_id = $%d", len(args))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND t.transaction_type = $%d", len(args))
	}
	return where, args
}

// ListForUser returns the user's completed transactions matching the filter,
// newest first, with the total match count.
func (r *TransactionRepository) ListForUser(ctx context.Context, userID int64, filter domain.TransactionFilter, params pagination.Params) ([]domain.Transaction, int, error) {
	where := `t.user_id = $1 AND t.status = 'completed'`
	args := []any{userID}
	where, args = transactionFilterClause(where, args, filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions t WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	args = append(args, params.PerPage, params.Offset)
	query := fmt.Sprintf(`
		SELECT t.id, t.account_id, t.category_id, COALESCE(tc.name, ''), t.transaction_type, t.status,
		       t.amount, t.description, t.payment_method, t.note, t.transaction_date, t.created_at
		FROM transactions t
		LEFT JOIN transaction_categories tc ON tc.id = t.category_id
		WHERE %s
		ORDER BY t.transaction_date DESC, t.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	transactions, err := r.queryTransactions(ctx, userID, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// Totals returns the income total, expense total, transaction count and
// average amount over the optional date range.
func (r *TransactionRepository) Totals(ctx context.Context, userID int64, from, to *time.Time) (int64, int64, int, int64, error) {
	where := `t.user_id = $1 AND t.status = 'completed'`
	args := []any{userID}
	where, args = transactionFilterClause(where, args, domain.TransactionFilter{From: from, To: to})

	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN t.transaction_type = 'income' THEN t.amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN t.transaction_type = 'expense' THEN t.amount ELSE 0 END), 0),
		       COALESCE(AVG(t.amount), 0)::bigint
		FROM transactions t
		WHERE ` + where

	var (
		count            int
		income, expenses int64
		average          int64
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count, &income, &expenses, &average); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("transaction totals: %w", err)
	}

	return income, expenses, count, average, nil
}

// Recent returns the user's latest completed transactions.
func (r *TransactionRepository) Recent(ctx context.Context, userID int64, from, to *time.Time, limit int) ([]domain.Transaction, error) {
	where := `t.user_id = $1 AND t.status = 'completed'`
	args := []any{userID}
	where, args = transactionFilterClause(where, args, domain.TransactionFilter{From: from, To: to})

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT t.id, t.account_id, t.category_id, COALESCE(tc.name, ''), t.transaction_type, t.status,
		       t.amount, t.description, t.payment_method, t.note, t.transaction_date, t.created_at
		FROM transactions t
		LEFT JOIN transaction_categories tc ON tc.id = t.category_id
		WHERE %s
		ORDER BY t.transaction_date DESC, t.created_at DESC
		LIMIT $%d`, where, len(args))

	return r.queryTransactions(ctx, userID, query, args...)
}

// TopCategories returns the highest-spend categories over the range.
func (r *TransactionRepository) TopCategories(ctx context.Context, userID int64, from, to *time.Time, limit int) ([]domain.CategoryTotal, error) {
	where := `t.user_id = $1 AND t.status = 'completed'`
	args := []any{userID}
	where, args = transactionFilterClause(where, args, domain.TransactionFilter{From: from, To: to})

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT tc.id, tc.name, SUM(t.amount), COUNT(t.id)
		FROM transactions t
		JOIN transaction_categories tc ON tc.id = t.category_id
		WHERE %s
		GROUP BY tc.id, tc.name
		ORDER BY SUM(t.amount) DESC
		LIMIT $%d`, where, len(args))

	return r.queryCategoryTotals(ctx, query, args...)
}

// Categories returns all transaction categories.
func (r *TransactionRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT id, name, slug, COALESCE(icon, '') FROM transaction_categories ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	return categories, nil
}

// ExpenseCategoryTotals returns per-category expense totals for the user over
// the optional range.
func (r *TransactionRepository) ExpenseCategoryTotals(ctx context.Context, userID int64, from, to *time.Time) ([]domain.CategoryTotal, error) {
	where := `t.user_id = $1 AND t.status = 'completed' AND t.transaction_type = 'expense'`
	args := []any{userID}
	where, args = transactionFilterClause(where, args, domain.TransactionFilter{From: from, To: to})

	query := `
		SELECT tc.id, tc.name, SUM(t.amount), COUNT(t.id)
		FROM transactions t
		JOIN transaction_categories tc ON tc.id = t.category_id
		WHERE ` + where + `
		GROUP BY tc.id, tc.name
		ORDER BY SUM(t.amount) DESC`

	return r.queryCategoryTotals(ctx, query, args...)
}

// ExpenseChart returns per-month, per-category expense totals, oldest month
// first.
func (r *TransactionRepository) ExpenseChart(ctx context.Context, userID int64, from, to *time.Time) ([]domain.ExpenseChartPoint, error) {
	where := `t.user_id = $1 AND t.status = 'completed' AND t.transaction_type = 'expense'`
	args := []any{userID}
	where, args = transactionFilterClause(where, args, domain.TransactionFilter{From: from, To: to})

	query := `
		SELECT to_char(date_trunc('month', t.transaction_date), 'YYYY-MM'),
		       COALESCE(tc.name, 'uncategorized'),
		       SUM(t.amount)
		FROM transactions t
		LEFT JOIN transaction_categories tc ON tc.id = t.category_id
		WHERE ` + where + `
		GROUP BY 1, 2
		ORDER BY 1, 3 DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expense chart: %w", err)
	}
	defer rows.Close()

	var points []domain.ExpenseChartPoint
	for rows.Next() {
		var p domain.ExpenseChartPoint
		if err := rows.Scan(&p.Month, &p.CategoryName, &p.Total); err != nil {
			return nil, fmt.Errorf("scan chart row: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chart rows: %w", err)
	}

	if points == nil {
		points = []domain.ExpenseChartPoint{}
	}

	return points, nil
}

// ExpenseSummary returns the headline expense numbers for the user: the
// current month's total, the previous month's total, and the number of
// distinct categories spent in.
func (r *TransactionRepository) ExpenseSummary(ctx context.Context, userID int64) (*domain.ExpenseSummary, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN t.transaction_date >= date_trunc('month', now()) THEN t.amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN t.transaction_date >= date_trunc('month', now()) - interval '1 month'
		                          AND t.transaction_date < date_trunc('month', now()) THEN t.amount ELSE 0 END), 0),
		       COUNT(DISTINCT t.category_id)
		FROM transactions t
		WHERE t.user_id = $1 AND t.status = 'completed' AND t.transaction_type = 'expense'`

	var s domain.ExpenseSummary
	if err := r.db.QueryRow(ctx, query, userID).Scan(&s.TotalExpenses, &s.LastMonthExpenses, &s.CategoryCount); err != nil {
		return nil, fmt.Errorf("expense summary: %w", err)
	}

	if s.LastMonthExpenses > 0 {
		s.MonthOverMonthPct = (float64(s.TotalExpenses) - float64(s.LastMonthExpenses)) / float64(s.LastMonthExpenses) * 100
	}

	return &s, nil
}

// ListExpensesForExport returns every completed expense in the range, oldest
// first.
func (r *TransactionRepository) ListExpensesForExport(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Transaction, error) {
	where := `t.user_id = $1 AND t.status = 'completed' AND t.transaction_type = 'expense'`
	args := []any{userID}
	where, args = transactionFilterClause(where, args, domain.TransactionFilter{From: from, To: to})

	query := `
		SELECT t.id, t.account_id, t.category_id, COALESCE(tc.name, ''), t.transaction_type, t.status,
		       t.amount, t.description, t.payment_method, t.note, t.transaction_date, t.created_at
		FROM transactions t
		LEFT JOIN transaction_categories tc ON tc.id = t.category_id
		WHERE ` + where + `
		ORDER BY t.transaction_date ASC, t.id ASC`

	return r.queryTransactions(ctx, userID, query, args...)
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, userID int64, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.CategoryID,
			&t.CategoryName,
			&t.Type,
			&t.Status,
			&t.Amount,
			&t.Description,
			&t.PaymentMethod,
			&t.Note,
			&t.Date,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		t.UserID = userID
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	return transactions, nil
}

func (r *TransactionRepository) queryCategoryTotals(ctx context.Context, query string, args ...any) ([]domain.CategoryTotal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []domain.CategoryTotal
	for rows.Next() {
		var ct domain.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &ct.Total, &ct.Count); err != nil {
			return nil, fmt.Errorf("scan category total row: %w", err)
		}
		totals = append(totals, ct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category total rows: %w", err)
	}

	if totals == nil {
		totals = []domain.CategoryTotal{}
	}

	return totals, nil
}
