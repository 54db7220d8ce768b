package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/internal/repository"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
	"github.com/anonymousminati/finly-backend/pkg/pagination"
)

// BillService implements bill tracking.
type BillService struct {
	bills  repository.BillRepository
	logger *slog.Logger
}

// NewBillService creates a new bill service.
func NewBillService(bills repository.BillRepository, logger *slog.Logger) *BillService {
	return &BillService{
		bills:  bills,
		logger: logger,
	}
}

// List returns the user's bills matching the filter.
func (s *BillService) List(ctx context.Context, userID int64, filter domain.BillFilter, params pagination.Params) (pagination.Result[domain.Bill], error) {
	bills, total, err := s.bills.ListForUser(ctx, userID, filter, params)
	if err != nil {
		return pagination.Result[domain.Bill]{}, fmt.Errorf("list bills: %w", err)
	}
	return pagination.NewResult(bills, total, params), nil
}

// Get retrieves one of the user's bills.
func (s *BillService) Get(ctx context.Context, userID, billID int64) (*domain.Bill, error) {
	bill, err := s.bills.GetByID(ctx, userID, billID)
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return bill, nil
}

// CreateBillInput holds the parameters for creating a bill.
type CreateBillInput struct {
	Company     string
	Plan        string
	ServiceName string
	Description string
	Amount      int64
	Currency    string
	Frequency   string
	NextDueDate string
	LogoURL     string
}

var validFrequencies = map[string]bool{
	domain.BillFrequencyMonthly:   true,
	domain.BillFrequencyQuarterly: true,
	domain.BillFrequencyYearly:    true,
}

// Create validates and stores a new bill for the user.
func (s *BillService) Create(ctx context.Context, userID int64, input CreateBillInput) (*domain.Bill, error) {
	var reasons []string
	if input.Company == "" {
		reasons = append(reasons, "company is required")
	}
	if input.Amount <= 0 {
		reasons = append(reasons, "amount must be positive")
	}
	if !validFrequencies[input.Frequency] {
		reasons = append(reasons, "frequency must be monthly, quarterly or yearly")
	}
	dueDate, err := parseDate(input.NextDueDate)
	if err != nil {
		reasons = append(reasons, "next_due_date must be a valid date (YYYY-MM-DD)")
	}
	if len(reasons) > 0 {
		return nil, apperrors.Validation("invalid bill", reasons...)
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	bill := &domain.Bill{
		UserID:      userID,
		Company:     input.Company,
		Plan:        input.Plan,
		ServiceName: input.ServiceName,
		Description: input.Description,
		Amount:      input.Amount,
		Currency:    currency,
		Frequency:   input.Frequency,
		NextDueDate: dueDate,
		Status:      domain.BillStatusUpcoming,
		LogoURL:     input.LogoURL,
	}

	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	s.logger.InfoContext(ctx, "bill created",
		slog.Int64("bill_id", bill.ID),
		slog.String("company", bill.Company),
	)

	return bill, nil
}
