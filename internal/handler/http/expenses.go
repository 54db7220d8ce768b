package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/anonymousminati/finly-backend/internal/service"
	"github.com/anonymousminati/finly-backend/pkg/httputil"
	"github.com/anonymousminati/finly-backend/pkg/validator"
)

// ExpenseHandler handles HTTP requests for the expenses views.
type ExpenseHandler struct {
	service *service.ExpenseService
	logger  *slog.Logger
}

// NewExpenseHandler creates a new expense HTTP handler.
func NewExpenseHandler(svc *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{service: svc, logger: logger}
}

// CreateExpenseRequest is the JSON request body for recording an expense.
// Amount is in minor units.
type CreateExpenseRequest struct {
	AccountID     int64  `json:"accountId" validate:"required"`
	CategoryID    *int64 `json:"categoryId"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Description   string `json:"description" validate:"required,max=255"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,max=50"`
	Note          string `json:"note" validate:"omitempty,max=1000"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Create handles POST /api/v1/expenses
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	session := SessionFromContext(r.Context())

	var req CreateExpenseRequest
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

	tx, err := h.service.Create(r.Context(), session.UserID, service.CreateExpenseInput{
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		Amount:        req.Amount,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
		Date:          req.Date,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: tx})
}

// Categories handles GET /api/v1/expenses/categories
func (h *ExpenseHandler) Categories(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	from, to := dateRangeFromQuery(r)

	categories, totals, err := h.service.Categories(r.Context(), session.UserID, from, to)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"categories": categories,
		"totals":     totals,
	}})
}

// Chart handles GET /api/v1/expenses/chart
func (h *ExpenseHandler) Chart(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	from, to := dateRangeFromQuery(r)

	points, err := h.service.Chart(r.Context(), session.UserID, from, to)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: points})
}

// Summary handles GET /api/v1/expenses/summary
func (h *ExpenseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	summary, err := h.service.Summary(r.Context(), session.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// Export handles GET /api/v1/expenses/export. Streams CSV as an attachment.
func (h *ExpenseHandler) Export(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	from, to := dateRangeFromQuery(r)

	filename := "expenses-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.service.ExportCSV(r.Context(), session.UserID, from, to, w); err != nil {
		// Headers may already be out; log instead of writing a JSON error
		// into the CSV stream.
		h.logger.ErrorContext(r.Context(), "expense export failed", slog.Any("error", err))
	}
}
