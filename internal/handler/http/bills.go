package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/internal/service"
	"github.com/anonymousminati/finly-backend/pkg/httputil"
	"github.com/anonymousminati/finly-backend/pkg/pagination"
	"github.com/anonymousminati/finly-backend/pkg/validator"
)

// BillHandler handles HTTP requests for bill tracking.
type BillHandler struct {
	service *service.BillService
	logger  *slog.Logger
}

// NewBillHandler creates a new bill HTTP handler.
func NewBillHandler(svc *service.BillService, logger *slog.Logger) *BillHandler {
	return &BillHandler{service: svc, logger: logger}
}

// List handles GET /api/v1/bills. Filters come from query parameters;
// multi-valued filters are comma separated.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	q := r.URL.Query()
	filter := domain.BillFilter{
		Statuses:    splitCSV(q.Get("status")),
		Companies:   splitCSV(q.Get("company")),
		Frequencies: splitCSV(q.Get("frequency")),
		AmountMin:   int64FromQuery(r, "amount_min"),
		AmountMax:   int64FromQuery(r, "amount_max"),
		Search:      strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("due_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DueDateStart = &t
		}
	}
	if v := q.Get("due_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DueDateEnd = &t
		}
	}

	result, err := h.service.List(r.Context(), session.UserID, filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Get handles GET /api/v1/bills/{id}
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	billID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid bill id"},
		})
		return
	}

	bill, err := h.service.Get(r.Context(), session.UserID, billID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: bill})
}

// CreateBillRequest is the JSON request body for creating a bill. Amount is
// in minor units.
type CreateBillRequest struct {
	Company     string `json:"company" validate:"required,max=100"`
	Plan        string `json:"plan" validate:"omitempty,max=100"`
	ServiceName string `json:"serviceName" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
	Frequency   string `json:"frequency" validate:"required"`
	NextDueDate string `json:"nextDueDate" validate:"required,datetime=2006-01-02"`
	LogoURL     string `json:"logo" validate:"omitempty,url"`
}

// Create handles POST /api/v1/bills
func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	session := SessionFromContext(r.Context())

	var req CreateBillRequest
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

	bill, err := h.service.Create(r.Context(), session.UserID, service.CreateBillInput{
		Company:     req.Company,
		Plan:        req.Plan,
		ServiceName: req.ServiceName,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    strings.ToUpper(req.Currency),
		Frequency:   req.Frequency,
		NextDueDate: req.NextDueDate,
		LogoURL:     req.LogoURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: bill})
}

// splitCSV splits a comma separated query value, dropping empty entries.
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
