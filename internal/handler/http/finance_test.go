package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/internal/service"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
)

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepo) ListForUser(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Account, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, userID, accountID int64) (*domain.Account, error) {
	args := m.Called(ctx, userID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func setupFinanceRouter(accounts *mockAccountRepo, transactions *mockTransactionRepo, userID int64) *chi.Mux {
	logger := handlerTestLogger()
	svc := service.NewFinanceService(accounts, transactions, handlerTestEventProducer(), logger)
	handler := NewFinanceHandler(svc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1/finance", func(r chi.Router) {
		r.Use(stubSession(userID))
		r.Get("/summary", handler.Summary)
		r.Get("/accounts", handler.ListAccounts)
		r.Post("/accounts", handler.CreateAccount)
		r.Get("/accounts/{id}", handler.GetAccount)
		r.Get("/transactions", handler.ListTransactions)
		r.Post("/transactions", handler.RecordTransaction)
	})
	return r
}

func TestFinanceSummary_Success(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	accounts.On("ListForUser", mock.Anything, int64(42), (*time.Time)(nil), (*time.Time)(nil)).
		Return([]domain.Account{
			{ID: 1, Name: "Checking", Currency: "USD", CurrentBalance: 100_000},
		}, nil)
	transactions.On("Totals", mock.Anything, int64(42), (*time.Time)(nil), (*time.Time)(nil)).
		Return(int64(300_000), int64(120_000), 9, int64(46_666), nil)
	transactions.On("Recent", mock.Anything, int64(42), (*time.Time)(nil), (*time.Time)(nil), mock.AnythingOfType("int")).
		Return([]domain.Transaction{}, nil)
	transactions.On("TopCategories", mock.Anything, int64(42), (*time.Time)(nil), (*time.Time)(nil), mock.AnythingOfType("int")).
		Return([]domain.CategoryTotal{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/summary", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data domain.FinancialSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(100_000), resp.Data.TotalBalance)
	assert.Equal(t, "USD", resp.Data.BaseCurrency)
	assert.Equal(t, int64(300_000), resp.Data.TotalIncome)
	assert.Equal(t, 9, resp.Data.TransactionCount)
}

func TestFinanceSummary_DateRangeForwarded(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	fromMatcher := mock.MatchedBy(func(from *time.Time) bool {
		return from != nil && from.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	})
	accounts.On("ListForUser", mock.Anything, int64(42), fromMatcher, mock.Anything).
		Return([]domain.Account{}, nil)
	transactions.On("Totals", mock.Anything, int64(42), fromMatcher, mock.Anything).
		Return(int64(0), int64(0), 0, int64(0), nil)
	transactions.On("Recent", mock.Anything, int64(42), fromMatcher, mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.Transaction{}, nil)
	transactions.On("TopCategories", mock.Anything, int64(42), fromMatcher, mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.CategoryTotal{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/summary?from=2026-08-01&to=2026-08-31", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	accounts.AssertExpectations(t)
}

func TestGetAccount_Success(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	accounts.On("GetByID", mock.Anything, int64(42), int64(3)).
		Return(&domain.Account{ID: 3, Name: "Savings", Currency: "USD"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/accounts/3", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetAccount_NotFound(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	accounts.On("GetByID", mock.Anything, int64(42), int64(3)).
		Return(nil, apperrors.NotFound("account", "3"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/accounts/3", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAccount_InvalidID(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/accounts/abc", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAccount_Success(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.UserID == 42 &&
			a.Name == "Everyday Checking" &&
			a.MaskedNumber == "1234****5678" &&
			a.Type == domain.AccountTypeChecking &&
			a.IsActive
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Account).ID = 7
	}).Return(nil)

	body, _ := json.Marshal(CreateAccountRequest{
		Name:           "Everyday Checking",
		AccountNumber:  "123400005678",
		BankName:       "First National",
		Type:           "checking",
		CurrentBalance: 250_000,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/accounts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"1234****5678"`)
	accounts.AssertExpectations(t)
}

func TestCreateAccount_MissingFields(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	body, _ := json.Marshal(CreateAccountRequest{Name: "Everyday Checking"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/accounts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateAccount_InvalidType(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	body, _ := json.Marshal(CreateAccountRequest{
		Name:          "Vault",
		AccountNumber: "99990000",
		BankName:      "First National",
		Type:          "offshore",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/accounts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListTransactions_FiltersForwarded(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	transactions.On("ListForUser", mock.Anything, int64(42),
		mock.MatchedBy(func(f domain.TransactionFilter) bool {
			return f.AccountID != nil && *f.AccountID == 5 && f.Type == "expense"
		}), mock.Anything).
		Return([]domain.Transaction{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/transactions?account_id=5&type=expense", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	transactions.AssertExpectations(t)
}

func TestRecordTransaction_Success(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	accounts.On("GetByID", mock.Anything, int64(42), int64(1)).
		Return(&domain.Account{ID: 1, UserID: 42}, nil)
	transactions.On("Create", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.UserID == 42 && tx.Type == domain.TransactionTypeIncome && tx.Amount == 500_000
	})).Return(nil)

	body, _ := json.Marshal(RecordTransactionRequest{
		AccountID:   1,
		Type:        "income",
		Amount:      500_000,
		Description: "August salary",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/transactions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	transactions.AssertExpectations(t)
}

func TestRecordTransaction_InvalidType(t *testing.T) {
	accounts := new(mockAccountRepo)
	transactions := new(mockTransactionRepo)
	router := setupFinanceRouter(accounts, transactions, 42)

	body, _ := json.Marshal(map[string]any{
		"accountId":   1,
		"type":        "transfer",
		"amount":      1000,
		"description": "nope",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/transactions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
