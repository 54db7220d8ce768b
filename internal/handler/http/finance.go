package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/internal/service"
	"github.com/anonymousminati/finly-backend/pkg/httputil"
	"github.com/anonymousminati/finly-backend/pkg/pagination"
	"github.com/anonymousminati/finly-backend/pkg/validator"
)

// FinanceHandler handles HTTP requests for accounts, transactions and the
// dashboard summary.
type FinanceHandler struct {
	service *service.FinanceService
	logger  *slog.Logger
}

// NewFinanceHandler creates a new finance HTTP handler.
func NewFinanceHandler(svc *service.FinanceService, logger *slog.Logger) *FinanceHandler {
	return &FinanceHandler{service: svc, logger: logger}
}

// Summary handles GET /api/v1/finance/summary
func (h *FinanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	from, to := dateRangeFromQuery(r)

	summary, err := h.service.Summary(r.Context(), session.UserID, from, to)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// ListAccounts handles GET /api/v1/finance/accounts
func (h *FinanceHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	accounts, err := h.service.Accounts(r.Context(), session.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: accounts})
}

// CreateAccountRequest is the JSON request body for opening a new account.
// Balances are in minor units.
type CreateAccountRequest struct {
	Name             string `json:"accountName" validate:"required,max=100"`
	AccountNumber    string `json:"accountNumber" validate:"required,min=4,max=30"`
	BankName         string `json:"bankName" validate:"required,max=100"`
	Type             string `json:"accountType" validate:"required,oneof=checking savings credit investment business"`
	CurrentBalance   int64  `json:"currentBalance" validate:"omitempty,gte=0"`
	AvailableBalance *int64 `json:"availableBalance" validate:"omitempty"`
	CreditLimit      int64  `json:"creditLimit" validate:"omitempty,gte=0"`
	Currency         string `json:"currency" validate:"omitempty,len=3,uppercase"`
	IsPrimary        bool   `json:"isPrimary"`
}

// CreateAccount handles POST /api/v1/finance/accounts
func (h *FinanceHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	session := SessionFromContext(r.Context())

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), session, service.CreateAccountInput{
		Name:             req.Name,
		AccountNumber:    req.AccountNumber,
		BankName:         req.BankName,
		Type:             req.Type,
		CurrentBalance:   req.CurrentBalance,
		AvailableBalance: req.AvailableBalance,
		CreditLimit:      req.CreditLimit,
		Currency:         req.Currency,
		IsPrimary:        req.IsPrimary,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: account})
}

// GetAccount handles GET /api/v1/finance/accounts/{id}
func (h *FinanceHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid account id"},
		})
		return
	}

	account, err := h.service.Account(r.Context(), session.UserID, accountID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: account})
}

// ListTransactions handles GET /api/v1/finance/transactions
func (h *FinanceHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	from, to := dateRangeFromQuery(r)
	filter := domain.TransactionFilter{
		From:       from,
		To:         to,
		AccountID:  int64FromQuery(r, "account_id"),
		CategoryID: int64FromQuery(r, "category_id"),
		Type:       r.URL.Query().Get("type"),
	}

	result, err := h.service.Transactions(r.Context(), session.UserID, filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// RecordTransactionRequest is the JSON request body for recording a
// transaction. Amount is in minor units.
type RecordTransactionRequest struct {
	AccountID     int64  `json:"accountId" validate:"required"`
	CategoryID    *int64 `json:"categoryId"`
	Type          string `json:"type" validate:"required,oneof=income expense"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Description   string `json:"description" validate:"required,max=255"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,max=50"`
	Note          string `json:"note" validate:"omitempty,max=1000"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// RecordTransaction handles POST /api/v1/finance/transactions
func (h *FinanceHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	session := SessionFromContext(r.Context())

	var req RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}

	tx, err := h.service.RecordTransaction(r.Context(), session, service.RecordTransactionInput{
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		Type:          req.Type,
		Amount:        req.Amount,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
		Date:          date,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: tx})
}
