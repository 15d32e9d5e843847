package models

import "time"

// LoanAccount mirrors a loan record owned by the backend.
type LoanAccount struct {
	ID               int64     `json:"id"`
	Lender           string    `json:"lender"`
	LoanType         string    `json:"loan_type"`
	PrincipalAmount  float64   `json:"principal_amount"`
	InterestRate     float64   `json:"interest_rate"`
	TermMonths       int       `json:"term_months"`
	StartDate        string    `json:"start_date,omitempty"`
	EndDate          string    `json:"end_date,omitempty"`
	MonthlyPayment   float64   `json:"monthly_payment"`
	RemainingBalance float64   `json:"remaining_balance"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// LoanInput carries raw form values for loan creation. Numeric fields are
// strings because they arrive comma-formatted from upstream forms; the sync
// layer validates and normalizes them before any network call.
type LoanInput struct {
	Lender           string `json:"lender"`
	LoanType         string `json:"loan_type"`
	PrincipalAmount  string `json:"principal_amount"`
	InterestRate     string `json:"interest_rate"`
	TermMonths       string `json:"term_months"`
	MonthlyPayment   string `json:"monthly_payment"`
	RemainingBalance string `json:"remaining_balance"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
}
