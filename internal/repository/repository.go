package repository

import (
	"context"
	"time"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user and fills in the generated identifiers.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their internal identifier.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUUID retrieves a user by their public identifier.
	GetByUUID(ctx context.Context, uuid string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// EmailExists reports whether a user with the given email exists.
	EmailExists(ctx context.Context, email string) (bool, error)

	// UsernameExists reports whether a user with the given username exists.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// UpdatePassword replaces the stored password hash for the user.
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// SessionRepository defines the interface for session persistence operations.
type SessionRepository interface {
	// Create inserts a new session row and fills in the generated identifiers.
	Create(ctx context.Context, session *domain.Session) error

	// GetByToken resolves a live session by its session token, joined with
	// the owning user's identity. Expired sessions are not returned.
	GetByToken(ctx context.Context, token string) (*domain.AuthenticatedSession, error)

	// Touch updates the last activity timestamp of a live session. It
	// reports whether a session row was updated.
	Touch(ctx context.Context, token string) (bool, error)

	// Rotate atomically replaces the token pair of the live session holding
	// the given refresh token. The same row is updated in place; no session
	// is found when the refresh token is unknown or the session expired.
	Rotate(ctx context.Context, refreshToken, newSessionToken, newRefreshToken string, expiresAt time.Time) (*domain.Session, error)

	// Delete removes a session by its session token. It reports whether a
	// row was deleted; deleting an absent session is not an error.
	Delete(ctx context.Context, token string) (bool, error)

	// DeleteAllForUser removes every session belonging to the user and
	// returns the number of sessions removed.
	DeleteAllForUser(ctx context.Context, userID int64) (int64, error)

	// DeleteAllForUserExcept removes every session belonging to the user
	// except the one holding keepToken.
	DeleteAllForUserExcept(ctx context.Context, userID int64, keepToken string) (int64, error)

	// DeleteExpired removes all sessions past their expiry and returns the
	// number removed.
	DeleteExpired(ctx context.Context) (int64, error)

	// ListActiveForUser returns the user's live sessions, most recently
	// active first.
	ListActiveForUser(ctx context.Context, userID int64) ([]domain.Session, error)
}

// AccountRepository defines the interface for financial account queries.
type AccountRepository interface {
	// Create inserts a new account and fills in the generated ID and
	// timestamps.
	Create(ctx context.Context, account *domain.Account) error

	// ListForUser returns the user's active accounts with transaction
	// counts over the optional date range, primary account first.
	ListForUser(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Account, error)

	// GetByID retrieves one of the user's accounts.
	GetByID(ctx context.Context, userID, accountID int64) (*domain.Account, error)
}

// TransactionRepository defines the interface for transaction persistence and
// aggregation.
type TransactionRepository interface {
	// Create inserts a new transaction and fills in the generated ID.
	Create(ctx context.Context, tx *domain.Transaction) error

	// ListForUser returns the user's completed transactions matching the
	// filter, newest first, with the total match count.
	ListForUser(ctx context.Context, userID int64, filter domain.TransactionFilter, params pagination.Params) ([]domain.Transaction, int, error)

	// Totals returns the income total, expense total, transaction count and
	// average amount over the optional date range.
	Totals(ctx context.Context, userID int64, from, to *time.Time) (income, expenses int64, count int, average int64, err error)

	// Recent returns the user's latest completed transactions.
	Recent(ctx context.Context, userID int64, from, to *time.Time, limit int) ([]domain.Transaction, error)

	// TopCategories returns the highest-spend categories over the range.
	TopCategories(ctx context.Context, userID int64, from, to *time.Time, limit int) ([]domain.CategoryTotal, error)

	// Categories returns all transaction categories.
	Categories(ctx context.Context) ([]domain.Category, error)

	// ExpenseCategoryTotals returns per-category expense totals for the
	// user over the optional range.
	ExpenseCategoryTotals(ctx context.Context, userID int64, from, to *time.Time) ([]domain.CategoryTotal, error)

	// ExpenseChart returns per-month, per-category expense totals.
	ExpenseChart(ctx context.Context, userID int64, from, to *time.Time) ([]domain.ExpenseChartPoint, error)

	// ExpenseSummary returns the headline expense numbers for the user.
	ExpenseSummary(ctx context.Context, userID int64) (*domain.ExpenseSummary, error)

	// ListExpensesForExport returns every completed expense in the range,
	// oldest first, for CSV export.
	ListExpensesForExport(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Transaction, error)
}

// BillRepository defines the interface for bill persistence operations.
type BillRepository interface {
	// Create inserts a new bill and fills in the generated ID.
	Create(ctx context.Context, bill *domain.Bill) error

	// GetByID retrieves one of the user's bills.
	GetByID(ctx context.Context, userID, billID int64) (*domain.Bill, error)

	// ListForUser returns the user's bills matching the filter ordered by
	// due date, with the total match count.
	ListForUser(ctx context.Context, userID int64, filter domain.BillFilter, params pagination.Params) ([]domain.Bill, int, error)
}
