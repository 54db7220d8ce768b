package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/internal/event"
	"github.com/anonymousminati/finly-backend/internal/repository"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
	"github.com/anonymousminati/finly-backend/pkg/pagination"
)

const (
	recentTransactionLimit = 5
	topCategoryLimit       = 3
)

// CurrencyConverter converts amounts in minor units between currencies.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount int64, from, to string) (int64, error)
}

// FinanceService implements accounts, transactions and the dashboard summary.
type FinanceService struct {
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
	producer     *event.Producer
	logger       *slog.Logger
	converter    CurrencyConverter
	baseCurrency string
}

// NewFinanceService creates a new finance service.
func NewFinanceService(
	accounts repository.AccountRepository,
	transactions repository.TransactionRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *FinanceService {
	return &FinanceService{
		accounts:     accounts,
		transactions: transactions,
		producer:     producer,
		logger:       logger,
		baseCurrency: "USD",
	}
}

// WithConverter enables cross-currency balance totals in the base currency.
func (s *FinanceService) WithConverter(converter CurrencyConverter, baseCurrency string) *FinanceService {
	s.converter = converter
	if baseCurrency != "" {
		s.baseCurrency = baseCurrency
	}
	return s
}

// Summary builds the dashboard aggregate for the user over the optional date
// range.
func (s *FinanceService) Summary(ctx context.Context, userID int64, from, to *time.Time) (*domain.FinancialSummary, error) {
	accounts, err := s.accounts.ListForUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary accounts: %w", err)
	}

	income, expenses, count, average, err := s.transactions.Totals(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary totals: %w", err)
	}

	recent, err := s.transactions.Recent(ctx, userID, from, to, recentTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("summary recent transactions: %w", err)
	}

	top, err := s.transactions.TopCategories(ctx, userID, from, to, topCategoryLimit)
	if err != nil {
		return nil, fmt.Errorf("summary top categories: %w", err)
	}

	return &domain.FinancialSummary{
		Accounts:           accounts,
		TotalBalance:       s.totalBalance(ctx, accounts),
		BaseCurrency:       s.baseCurrency,
		TotalIncome:        income,
		TotalExpenses:      expenses,
		TransactionCount:   count,
		AverageTransaction: average,
		RecentTransactions: recent,
		TopCategories:      top,
	}, nil
}

// totalBalance sums account balances in the base currency. A failed rate
// lookup falls back to the raw amount.
func (s *FinanceService) totalBalance(ctx context.Context, accounts []domain.Account) int64 {
	var total int64
	for _, a := range accounts {
		amount := a.CurrentBalance
		if s.converter != nil && a.Currency != s.baseCurrency {
			converted, err := s.converter.Convert(ctx, a.CurrentBalance, a.Currency, s.baseCurrency)
			if err != nil {
				s.logger.WarnContext(ctx, "currency conversion failed",
					slog.Int64("account_id", a.ID),
					slog.String("currency", a.Currency),
					slog.String("error", err.Error()),
				)
			} else {
				amount = converted
			}
		}
		total += amount
	}
	return total
}

// Accounts lists the user's active accounts.
func (s *FinanceService) Accounts(ctx context.Context, userID int64) ([]domain.Account, error) {
	accounts, err := s.accounts.ListForUser(ctx, userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Account retrieves one of the user's accounts.
func (s *FinanceService) Account(ctx context.Context, userID, accountID int64) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// CreateAccountInput holds the parameters for opening a new account.
// Monetary amounts are in minor units.
type CreateAccountInput struct {
	Name             string
	AccountNumber    string
	BankName         string
	Type             string
	CurrentBalance   int64
	AvailableBalance *int64
	CreditLimit      int64
	Currency         string
	IsPrimary        bool
}

// CreateAccount validates and stores a new financial account for the user.
// The raw account number is never persisted, only its masked form.
func (s *FinanceService) CreateAccount(ctx context.Context, user *domain.AuthenticatedSession, input CreateAccountInput) (*domain.Account, error) {
	switch input.Type {
	case domain.AccountTypeChecking, domain.AccountTypeSavings, domain.AccountTypeCredit,
		domain.AccountTypeInvestment, domain.AccountTypeBusiness:
	default:
		return nil, apperrors.Validation("invalid account",
			"account type must be one of checking, savings, credit, investment, business")
	}
	if input.Type == domain.AccountTypeCredit && input.CreditLimit <= 0 {
		return nil, apperrors.Validation("invalid account", "credit accounts require a positive credit limit")
	}

	available := input.CurrentBalance
	if input.AvailableBalance != nil {
		available = *input.AvailableBalance
	}

	currency := input.Currency
	if currency == "" {
		currency = s.baseCurrency
	}

	account := &domain.Account{
		UserID:           user.UserID,
		Name:             input.Name,
		MaskedNumber:     maskAccountNumber(input.AccountNumber),
		BankName:         input.BankName,
		Type:             input.Type,
		CurrentBalance:   input.CurrentBalance,
		AvailableBalance: available,
		CreditLimit:      input.CreditLimit,
		Currency:         currency,
		IsPrimary:        input.IsPrimary,
		IsActive:         true,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account created",
		slog.String("user_id", user.UserUUID),
		slog.Int64("account_id", account.ID),
		slog.String("account_type", account.Type),
	)

	return account, nil
}

// maskAccountNumber keeps the first and last four digits. Numbers too short
// to mask are returned as-is.
func maskAccountNumber(number string) string {
	if len(number) < 8 {
		return number
	}
	return number[:4] + "****" + number[len(number)-4:]
}

// Transactions lists the user's transactions matching the filter.
func (s *FinanceService) Transactions(ctx context.Context, userID int64, filter domain.TransactionFilter, params pagination.Params) (pagination.Result[domain.Transaction], error) {
	transactions, total, err := s.transactions.ListForUser(ctx, userID, filter, params)
	if err != nil {
		return pagination.Result[domain.Transaction]{}, fmt.Errorf("list transactions: %w", err)
	}
	return pagination.NewResult(transactions, total, params), nil
}

// RecordTransactionInput holds the parameters for recording a transaction.
type RecordTransactionInput struct {
	AccountID     int64
	CategoryID    *int64
	Type          string
	Amount        int64
	Description   string
	PaymentMethod string
	Note          string
	Date          time.Time
}

// RecordTransaction validates and stores a new transaction against one of the
// user's accounts.
func (s *FinanceService) RecordTransaction(ctx context.Context, user *domain.AuthenticatedSession, input RecordTransactionInput) (*domain.Transaction, error) {
	if input.Type != domain.TransactionTypeIncome && input.Type != domain.TransactionTypeExpense {
		return nil, apperrors.Validation("invalid transaction", "type must be income or expense")
	}
	if input.Amount <= 0 {
		return nil, apperrors.Validation("invalid transaction", "amount must be positive")
	}

	// Ownership check; recording against another user's account is a 404.
	if _, err := s.accounts.GetByID(ctx, user.UserID, input.AccountID); err != nil {
		return nil, fmt.Errorf("verify account: %w", err)
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	tx := &domain.Transaction{
		UserID:        user.UserID,
		AccountID:     input.AccountID,
		CategoryID:    input.CategoryID,
		Type:          input.Type,
		Status:        domain.TransactionStatusCompleted,
		Amount:        input.Amount,
		Description:   input.Description,
		PaymentMethod: input.PaymentMethod,
		Note:          input.Note,
		Date:          date,
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	if err := s.producer.PublishTransactionRecorded(ctx, user.UserUUID, tx); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish transaction.recorded event",
			slog.String("user_id", user.UserUUID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "transaction recorded",
		slog.String("user_id", user.UserUUID),
		slog.Int64("transaction_id", tx.ID),
		slog.String("type", tx.Type),
	)

	return tx, nil
}
