package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anonymousminati/finly-backend/internal/service"
	"github.com/anonymousminati/finly-backend/pkg/health"
	"github.com/anonymousminati/finly-backend/pkg/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Auth          *service.AuthService
	Finance       *service.FinanceService
	Expenses      *service.ExpenseService
	Bills         *service.BillService
	HealthHandler *health.Handler
	Logger        *slog.Logger
	CORS          middleware.CORSConfig
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(deps.CORS))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("finly"))
	r.Use(middleware.Tracing("finly"))
	r.Use(middleware.RequestLogger(deps.Logger))

	// Health check endpoints
	r.Get("/health/live", deps.HealthHandler.LivenessHandler())
	r.Get("/health/ready", deps.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	financeHandler := NewFinanceHandler(deps.Finance, deps.Logger)
	expenseHandler := NewExpenseHandler(deps.Expenses, deps.Logger)
	billHandler := NewBillHandler(deps.Bills, deps.Logger)

	requireSession := RequireSession(deps.Auth, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Auth endpoints (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)

			// Authenticated auth endpoints
			r.Group(func(r chi.Router) {
				r.Use(requireSession)
				r.Post("/change-password", authHandler.ChangePassword)
			})
		})

		// Everything below requires a live session.
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", authHandler.GetProfile)
				r.Get("/me/sessions", authHandler.ListSessions)
				r.Delete("/me/sessions", authHandler.LogoutEverywhere)
			})

			r.Route("/finance", func(r chi.Router) {
				r.Get("/summary", financeHandler.Summary)
				r.Get("/accounts", financeHandler.ListAccounts)
				r.Post("/accounts", financeHandler.CreateAccount)
				r.Get("/accounts/{id}", financeHandler.GetAccount)
				r.Get("/transactions", financeHandler.ListTransactions)
				r.Post("/transactions", financeHandler.RecordTransaction)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", expenseHandler.Create)
				r.Get("/categories", expenseHandler.Categories)
				r.Get("/chart", expenseHandler.Chart)
				r.Get("/summary", expenseHandler.Summary)
				r.Get("/export", expenseHandler.Export)
			})

			r.Route("/bills", func(r chi.Router) {
				r.Get("/", billHandler.List)
				r.Post("/", billHandler.Create)
				r.Get("/{id}", billHandler.Get)
			})
		})
	})

	return r
}
