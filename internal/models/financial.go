package models

import "time"

// FinancialProfile holds the user-supplied financial details plus the
// derived loan totals the sync layer keeps consistent with the loan list.
// User-supplied numeric fields are nullable until the user provides them.
type FinancialProfile struct {
	Income              *float64 `json:"income,omitempty"`
	Age                 *int     `json:"age,omitempty"`
	EmploymentLength    *float64 `json:"employment_length,omitempty"`
	DebtToIncome        *float64 `json:"debt_to_income,omitempty"`
	CreditUtilization   *float64 `json:"credit_utilization,omitempty"`
	PaymentHistory      *float64 `json:"payment_history,omitempty"`
	CreditHistoryLength *float64 `json:"credit_history_length,omitempty"`
	CreditMix           *float64 `json:"credit_mix,omitempty"`
	NewCredit           *float64 `json:"new_credit,omitempty"`
	MonthlyDebtPayment  *float64 `json:"monthly_debt_payment,omitempty"`
	PublicRecords       int      `json:"public_records"`
	DelinquentAccounts  int      `json:"delinquent_accounts"`

	// Derived from the loan account set; rewritten by reconciliation.
	TotalLoanAmount     float64 `json:"loan_amount"`
	TotalMonthlyPayment float64 `json:"monthly_payment"`
	TotalAccounts       int     `json:"total_accounts"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Normalize clamps ratio fields to their valid [0, 1] range.
func (p *FinancialProfile) Normalize() {
	p.DebtToIncome = clampRatio(p.DebtToIncome)
	p.CreditUtilization = clampRatio(p.CreditUtilization)
}

func clampRatio(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := *v
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return &r
}

// Float returns a pointer to v, for populating nullable profile fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// FloatValue dereferences v, returning 0 when nil.
func FloatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
