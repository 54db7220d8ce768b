package domain

import (
	"time"
)

// Account types.
const (
	AccountTypeChecking   = "checking"
	AccountTypeSavings    = "savings"
	AccountTypeCredit     = "credit"
	AccountTypeInvestment = "investment"
	AccountTypeBusiness   = "business"
)

// Transaction types and statuses.
const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"

	TransactionStatusCompleted = "completed"
	TransactionStatusPending   = "pending"
)

// Account represents a financial account owned by a user. Monetary amounts
// are in minor units (cents).
type Account struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"-"`
	Name             string    `json:"account_name"`
	MaskedNumber     string    `json:"masked_account_number,omitempty"`
	BankName         string    `json:"bank_name,omitempty"`
	Type             string    `json:"account_type"`
	CurrentBalance   int64     `json:"current_balance"`
	AvailableBalance int64     `json:"available_balance"`
	CreditLimit      int64     `json:"credit_limit,omitempty"`
	Currency         string    `json:"currency"`
	IsPrimary        bool      `json:"is_primary"`
	IsActive         bool      `json:"is_active"`
	TransactionCount int       `json:"transactions_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Category classifies transactions.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon,omitempty"`
}

// Transaction is a single movement of money on an account. Amount is in minor
// units and always positive; Type distinguishes income from expense.
type Transaction struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"-"`
	AccountID     int64     `json:"account_id"`
	CategoryID    *int64    `json:"category_id,omitempty"`
	CategoryName  string    `json:"category_name,omitempty"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Note          string    `json:"note,omitempty"`
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionFilter narrows transaction queries.
type TransactionFilter struct {
	From       *time.Time
	To         *time.Time
	AccountID  *int64
	CategoryID *int64
	Type       string
}

// CategoryTotal aggregates spend per category.
type CategoryTotal struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	Total        int64  `json:"total_amount"`
	Count        int    `json:"transaction_count"`
}

// FinancialSummary is the dashboard aggregate: accounts with balances, the
// income/expense totals over the requested range, and the latest activity.
type FinancialSummary struct {
	Accounts           []Account       `json:"accounts"`
	TotalBalance       int64           `json:"total_balance"`
	BaseCurrency       string          `json:"base_currency"`
	TotalIncome        int64           `json:"total_income"`
	TotalExpenses      int64           `json:"total_expenses"`
	TransactionCount   int             `json:"total_transactions"`
	AverageTransaction int64           `json:"average_transaction"`
	RecentTransactions []Transaction   `json:"recent_transactions"`
	TopCategories      []CategoryTotal `json:"top_categories"`
}

// ExpenseSummary holds the headline numbers for the expenses view.
type ExpenseSummary struct {
	TotalExpenses     int64   `json:"total_expenses"`
	LastMonthExpenses int64   `json:"last_month_expenses"`
	MonthOverMonthPct float64 `json:"month_over_month_pct"`
	CategoryCount     int     `json:"category_count"`
}

// ExpenseChartPoint is one bar of the per-month, per-category expense chart.
type ExpenseChartPoint struct {
	Month        string `json:"month"`
	CategoryName string `json:"category_name"`
	Total        int64  `json:"total_amount"`
}
