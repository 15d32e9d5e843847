package sync

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/bobmcallan/credsync/internal/models"
)

// scoreField is one entry of the score-relevant field list. The list below is
// the single source of truth for which profile fields invalidate a cached
// credit score; extend it here, nowhere else.
type scoreField struct {
	name  string
	value func(p *models.FinancialProfile) float64
}

var scoreFields = []scoreField{
	{"income", func(p *models.FinancialProfile) float64 { return models.FloatValue(p.Income) }},
	{"age", func(p *models.FinancialProfile) float64 {
		if p.Age == nil {
			return 0
		}
		return float64(*p.Age)
	}},
	{"employment_length", func(p *models.FinancialProfile) float64 { return models.FloatValue(p.EmploymentLength) }},
	{"credit_history_length", func(p *models.FinancialProfile) float64 { return models.FloatValue(p.CreditHistoryLength) }},
	{"payment_history", func(p *models.FinancialProfile) float64 { return models.FloatValue(p.PaymentHistory) }},
	{"credit_utilization", func(p *models.FinancialProfile) float64 { return models.FloatValue(p.CreditUtilization) }},
	{"debt_to_income", func(p *models.FinancialProfile) float64 { return models.FloatValue(p.DebtToIncome) }},
	{"public_records", func(p *models.FinancialProfile) float64 { return float64(p.PublicRecords) }},
	{"delinquent_accounts", func(p *models.FinancialProfile) float64 { return float64(p.DelinquentAccounts) }},
	{"total_accounts", func(p *models.FinancialProfile) float64 { return float64(p.TotalAccounts) }},
	{"monthly_debt_payment", func(p *models.FinancialProfile) float64 { return models.FloatValue(p.MonthlyDebtPayment) }},
	{"loan_amount", func(p *models.FinancialProfile) float64 { return p.TotalLoanAmount }},
}

// ProfileHash computes a stable content hash over the score-relevant subset
// of profile fields. Equal hashes guarantee an identical score input.
func ProfileHash(p *models.FinancialProfile) string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(scoreFields))
	for _, f := range scoreFields {
		parts = append(parts, fmt.Sprintf("%s:%g", f.name, f.value(p)))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(parts, "|")))
}
