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
	"github.com/anonymousminati/finly-backend/pkg/pagination"
)

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTransactionRepo) ListForUser(ctx context.Context, userID int64, filter domain.TransactionFilter, params pagination.Params) ([]domain.Transaction, int, error) {
	args := m.Called(ctx, userID, filter, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Int(1), args.Error(2)
}

func (m *mockTransactionRepo) Totals(ctx context.Context, userID int64, from, to *time.Time) (int64, int64, int, int64, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).(int64), args.Get(1).(int64), args.Int(2), args.Get(3).(int64), args.Error(4)
}

func (m *mockTransactionRepo) Recent(ctx context.Context, userID int64, from, to *time.Time, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) TopCategories(ctx context.Context, userID int64, from, to *time.Time, limit int) ([]domain.CategoryTotal, error) {
	args := m.Called(ctx, userID, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryTotal), args.Error(1)
}

func (m *mockTransactionRepo) Categories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockTransactionRepo) ExpenseCategoryTotals(ctx context.Context, userID int64, from, to *time.Time) ([]domain.CategoryTotal, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryTotal), args.Error(1)
}

func (m *mockTransactionRepo) ExpenseChart(ctx context.Context, userID int64, from, to *time.Time) ([]domain.ExpenseChartPoint, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExpenseChartPoint), args.Error(1)
}

func (m *mockTransactionRepo) ExpenseSummary(ctx context.Context, userID int64) (*domain.ExpenseSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpenseSummary), args.Error(1)
}

func (m *mockTransactionRepo) ListExpensesForExport(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func setupExpenseRouter(transactions *mockTransactionRepo, userID int64) *chi.Mux {
	logger := handlerTestLogger()
	handler := NewExpenseHandler(service.NewExpenseService(transactions, logger), logger)

	r := chi.NewRouter()
	r.Route("/api/v1/expenses", func(r chi.Router) {
		r.Use(stubSession(userID))
		r.Post("/", handler.Create)
		r.Get("/categories", handler.Categories)
		r.Get("/chart", handler.Chart)
		r.Get("/summary", handler.Summary)
		r.Get("/export", handler.Export)
	})
	return r
}

func TestCreateExpense_Success(t *testing.T) {
	transactions := new(mockTransactionRepo)
	router := setupExpenseRouter(transactions, 42)

	transactions.On("Create", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.UserID == 42 && tx.Type == domain.TransactionTypeExpense && tx.Amount == 2500
	})).Return(nil)

	body, _ := json.Marshal(CreateExpenseRequest{
		AccountID:   1,
		Amount:      2500,
		Description: "Groceries",
		Date:        "2026-08-15",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	transactions.AssertExpectations(t)
}

func TestCreateExpense_NegativeAmount(t *testing.T) {
	transactions := new(mockTransactionRepo)
	router := setupExpenseRouter(transactions, 42)

	body := `{"accountId":1,"amount":-5,"description":"Groceries"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses/", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExpenseCategories_Success(t *testing.T) {
	transactions := new(mockTransactionRepo)
	router := setupExpenseRouter(transactions, 42)

	transactions.On("Categories", mock.Anything).Return([]domain.Category{
		{ID: 1, Name: "Food", Slug: "food"},
	}, nil)
	transactions.On("ExpenseCategoryTotals", mock.Anything, int64(42), mock.Anything, mock.Anything).
		Return([]domain.CategoryTotal{
			{CategoryID: 1, CategoryName: "Food", Total: 5400, Count: 3},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/categories", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)
	data := resp.Data.(map[string]any)
	assert.Contains(t, data, "categories")
	assert.Contains(t, data, "totals")
}

func TestExpenseSummary_Success(t *testing.T) {
	transactions := new(mockTransactionRepo)
	router := setupExpenseRouter(transactions, 42)

	transactions.On("ExpenseSummary", mock.Anything, int64(42)).Return(&domain.ExpenseSummary{
		TotalExpenses:     120000,
		LastMonthExpenses: 100000,
		MonthOverMonthPct: 20,
		CategoryCount:     4,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/summary", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(120000), data["total_expenses"])
}

func TestExpenseExport_CSVAttachment(t *testing.T) {
	transactions := new(mockTransactionRepo)
	router := setupExpenseRouter(transactions, 42)

	transactions.On("ListExpensesForExport", mock.Anything, int64(42), mock.Anything, mock.Anything).
		Return([]domain.Transaction{
			{
				Date:          time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
				Description:   "Groceries",
				CategoryName:  "Food",
				Amount:        2550,
				PaymentMethod: "card",
			},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/export?from=2026-08-01&to=2026-08-31", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := rec.Body.String()
	assert.Contains(t, lines, "date,description,category,amount,payment_method,note")
	// Minor units render as major units with two decimals.
	assert.Contains(t, lines, "2026-08-15,Groceries,Food,25.50,card,")
}

func TestExpenseExport_RangeForwarded(t *testing.T) {
	transactions := new(mockTransactionRepo)
	router := setupExpenseRouter(transactions, 42)

	transactions.On("ListExpensesForExport", mock.Anything, int64(42),
		mock.MatchedBy(func(from *time.Time) bool {
			return from != nil && from.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
		}),
		mock.MatchedBy(func(to *time.Time) bool { return to != nil }),
	).Return([]domain.Transaction{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/export?from=2026-08-01&to=2026-08-31", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	transactions.AssertExpectations(t)
}
