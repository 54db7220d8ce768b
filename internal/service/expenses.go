package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/internal/repository"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
)

// ExpenseService implements the expenses views: recording, category
// breakdowns, chart data and CSV export.
type ExpenseService struct {
	transactions repository.TransactionRepository
	logger       *slog.Logger
}

// NewExpenseService creates a new expense service.
func NewExpenseService(transactions repository.TransactionRepository, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{
		transactions: transactions,
		logger:       logger,
	}
}

// CreateExpenseInput holds the parameters for recording an expense.
type CreateExpenseInput struct {
	AccountID     int64
	CategoryID    *int64
	Amount        int64
	Description   string
	PaymentMethod string
	Note          string
	Date          string
}

// Create records a new expense transaction.
func (s *ExpenseService) Create(ctx context.Context, userID int64, input CreateExpenseInput) (*domain.Transaction, error) {
	var reasons []string
	if input.Amount <= 0 {
		reasons = append(reasons, "amount must be positive")
	}
	if input.Description == "" {
		reasons = append(reasons, "description is required")
	}
	date := time.Now().UTC()
	if input.Date != "" {
		var err error
		if date, err = parseDate(input.Date); err != nil {
			reasons = append(reasons, "date must be a valid date (YYYY-MM-DD)")
		}
	}
	if len(reasons) > 0 {
		return nil, apperrors.Validation("invalid expense", reasons...)
	}

	tx := &domain.Transaction{
		UserID:        userID,
		AccountID:     input.AccountID,
		CategoryID:    input.CategoryID,
		Type:          domain.TransactionTypeExpense,
		Status:        domain.TransactionStatusCompleted,
		Amount:        input.Amount,
		Description:   input.Description,
		PaymentMethod: input.PaymentMethod,
		Note:          input.Note,
		Date:          date,
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "expense recorded",
		slog.Int64("transaction_id", tx.ID),
		slog.Int64("amount", tx.Amount),
	)

	return tx, nil
}

// Categories returns the master category list together with the user's
// per-category expense totals over the optional range.
func (s *ExpenseService) Categories(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Category, []domain.CategoryTotal, error) {
	categories, err := s.transactions.Categories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("expense categories: %w", err)
	}

	totals, err := s.transactions.ExpenseCategoryTotals(ctx, userID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("expense category totals: %w", err)
	}

	return categories, totals, nil
}

// Chart returns per-month, per-category expense totals.
func (s *ExpenseService) Chart(ctx context.Context, userID int64, from, to *time.Time) ([]domain.ExpenseChartPoint, error) {
	points, err := s.transactions.ExpenseChart(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("expense chart: %w", err)
	}
	return points, nil
}

// Summary returns the headline expense numbers.
func (s *ExpenseService) Summary(ctx context.Context, userID int64) (*domain.ExpenseSummary, error) {
	summary, err := s.transactions.ExpenseSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("expense summary: %w", err)
	}
	return summary, nil
}

// ExportCSV streams the user's expenses in the range as CSV. Amounts are
// written in major units with two decimals.
func (s *ExpenseService) ExportCSV(ctx context.Context, userID int64, from, to *time.Time, w io.Writer) error {
	expenses, err := s.transactions.ListExpensesForExport(ctx, userID, from, to)
	if err != nil {
		return fmt.Errorf("export expenses: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "description", "category", "amount", "payment_method", "note"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range expenses {
		record := []string{
			e.Date.Format("2006-01-02"),
			e.Description,
			e.CategoryName,
			strconv.FormatFloat(float64(e.Amount)/100, 'f', 2, 64),
			e.PaymentMethod,
			e.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	s.logger.InfoContext(ctx, "expenses exported",
		slog.Int("count", len(expenses)),
	)

	return nil
}

// parseDate parses a YYYY-MM-DD date string.
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
