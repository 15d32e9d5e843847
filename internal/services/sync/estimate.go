package sync

import (
	"math"
	"time"

	"github.com/bobmcallan/credsync/internal/models"
)

// estimateScore produces a deterministic client-side score when the backend
// is unreachable and no cached score exists. The linear model mirrors the
// backend's weighting closely enough to be a plausible placeholder; it is
// never presented as a real score.
func estimateScore(p *models.FinancialProfile, dataHash string) *models.CreditScore {
	base := 650.0

	if p != nil {
		if p.PaymentHistory != nil {
			base += *p.PaymentHistory * 50
		}
		if p.CreditUtilization != nil {
			base -= *p.CreditUtilization * 30
		}
		if p.Income != nil {
			base += math.Min(*p.Income/20000, 30)
		}
	}

	score := models.ClampScore(int(math.Round(base)))

	return &models.CreditScore{
		Score:    score,
		Category: models.ScoreCategory(score),
		Message:  "This is an estimated score. There was an error calculating your actual score.",
		Factors: []string{
			"Estimated score based on available data",
			"Error in credit score calculation",
		},
		Fallback:     true,
		DataHash:     dataHash,
		CalculatedAt: time.Now(),
	}
}
