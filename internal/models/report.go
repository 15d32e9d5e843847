package models

import "time"

// CreditReport is a backend-generated report reference. Report content and
// rendering are the backend's concern; the client only lists and requests them.
type CreditReport struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchReportItem records the outcome of one user in a batch generation run.
type BatchReportItem struct {
	JobID     string `json:"job_id"`
	UserID    string `json:"user_id"`
	Attempts  int    `json:"attempts"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// BatchReportResult summarizes a batch generation run.
type BatchReportResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Items     []BatchReportItem `json:"items"`
}

// DashboardMetrics are the headline numbers shown on the dashboard.
type DashboardMetrics struct {
	ActiveLoans            int    `json:"active_loans"`
	CreditReportsGenerated int    `json:"credit_reports_generated"`
	ScoreChange            string `json:"score_change"`
}

// NewDashboardMetrics returns zeroed metrics with the placeholder score change.
func NewDashboardMetrics() DashboardMetrics {
	return DashboardMetrics{ScoreChange: "N/A"}
}
