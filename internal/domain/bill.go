package domain

import (
	"time"
)

// Bill statuses.
const (
	BillStatusUpcoming = "upcoming"
	BillStatusOverdue  = "overdue"
	BillStatusPaid     = "paid"
)

// Billing frequencies.
const (
	BillFrequencyMonthly   = "monthly"
	BillFrequencyQuarterly = "quarterly"
	BillFrequencyYearly    = "yearly"
)

// Bill is a recurring obligation tracked for a user. Amounts are in minor
// units (cents).
type Bill struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"-"`
	Company        string     `json:"company"`
	Plan           string     `json:"plan,omitempty"`
	ServiceName    string     `json:"service_name,omitempty"`
	Description    string     `json:"description,omitempty"`
	Amount         int64      `json:"amount"`
	Currency       string     `json:"currency"`
	Frequency      string     `json:"frequency"`
	NextDueDate    time.Time  `json:"next_due_date"`
	LastPaidDate   *time.Time `json:"last_paid_date,omitempty"`
	LastPaidAmount *int64     `json:"last_paid_amount,omitempty"`
	Status         string     `json:"status"`
	LogoURL        string     `json:"logo,omitempty"`
	AccountName    string     `json:"account_name,omitempty"`
	CategoryName   string     `json:"category_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BillFilter narrows bill queries. Zero-valued fields are ignored.
type BillFilter struct {
	Statuses     []string
	AmountMin    *int64
	AmountMax    *int64
	DueDateStart *time.Time
	DueDateEnd   *time.Time
	Companies    []string
	Frequencies  []string
	Search       string
}
