package models

import "time"

// Credit score bounds enforced on every computed or estimated score.
const (
	ScoreMin = 300
	ScoreMax = 850
)

// CreditScore is the derived score entity. A score is valid only for the
// profile snapshot (DataHash) that produced it; changed inputs supersede it.
type CreditScore struct {
	Score    int      `json:"score"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Factors  []string `json:"factors"`

	// Cached marks a previously calculated score returned because a fresh
	// calculation failed. Fallback marks a client-side estimate.
	Cached   bool `json:"cached,omitempty"`
	Fallback bool `json:"fallback,omitempty"`

	DataHash     string    `json:"data_hash,omitempty"`
	CalculatedAt time.Time `json:"calculated_at,omitempty"`
}

// ScoreCategory maps a score to its reporting band.
func ScoreCategory(score int) string {
	switch {
	case score >= 800:
		return "Exceptional"
	case score >= 740:
		return "Excellent"
	case score >= 670:
		return "Good"
	case score >= 580:
		return "Fair"
	case score >= 500:
		return "Poor"
	default:
		return "Very Poor"
	}
}

// ClampScore bounds a score to the valid range.
func ClampScore(score int) int {
	if score < ScoreMin {
		return ScoreMin
	}
	if score > ScoreMax {
		return ScoreMax
	}
	return score
}

// ScoreHistoryEntry is one point of the backend's score history series.
type ScoreHistoryEntry struct {
	Score           int       `json:"score"`
	CalculationDate time.Time `json:"calculation_date"`
}
