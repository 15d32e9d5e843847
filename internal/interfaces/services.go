package interfaces

import (
	"context"

	"github.com/bobmcallan/credsync/internal/models"
)

// SyncResult is the triple returned by Synchronize. FromCache distinguishes
// a best-effort cached result (some step failed) from a fully fresh one.
type SyncResult struct {
	Profile   *models.FinancialProfile `json:"profile"`
	Loans     []*models.LoanAccount    `json:"loans"`
	Score     *models.CreditScore      `json:"credit_score"`
	FromCache bool                     `json:"from_cache,omitempty"`
}

// SyncService is the single point of truth for the cached entities.
type SyncService interface {
	// GetFinancialProfile reads the profile through the cache. Returns
	// *models.NotFoundError when the backend has no profile yet.
	GetFinancialProfile(ctx context.Context) (*models.FinancialProfile, error)

	// UpdateFinancialProfile writes the profile remotely and replaces both
	// cache tiers atomically on success.
	UpdateFinancialProfile(ctx context.Context, profile *models.FinancialProfile) (*models.FinancialProfile, error)

	// CalculateCreditScore returns the cached score when the score-relevant
	// fields are unchanged, otherwise recomputes with retry and fallback.
	CalculateCreditScore(ctx context.Context, profile *models.FinancialProfile) (*models.CreditScore, error)

	// GetLoans reads the loan list through the cache. Empty list is valid.
	GetLoans(ctx context.Context) ([]*models.LoanAccount, error)

	// CreateLoan validates input, creates the loan remotely, and reconciles
	// the profile totals.
	CreateLoan(ctx context.Context, input *models.LoanInput) (*models.LoanAccount, error)

	// DeleteLoan removes the loan remotely and from both cache tiers, then
	// reconciles the profile totals.
	DeleteLoan(ctx context.Context, id int64) error

	// Synchronize reconciles profile, loans, and score. Debounced; returns
	// the best available cached triple when any step fails.
	Synchronize(ctx context.Context) (*SyncResult, error)

	// SetUser caches the session identity; ClearAll wipes every entity on logout.
	SetUser(ctx context.Context, user *models.UserIdentity) error
	CurrentUser(ctx context.Context) (*models.UserIdentity, error)
	ClearAll(ctx context.Context) error
}

// ReportService lists backend-generated reports and drives batch generation.
type ReportService interface {
	ListReports(ctx context.Context) ([]*models.CreditReport, error)
	GenerateBatch(ctx context.Context, userIDs []string) (*models.BatchReportResult, error)
}

// MetricsService derives the dashboard headline numbers.
type MetricsService interface {
	UpdateMetrics(ctx context.Context, loans []*models.LoanAccount, score *models.CreditScore) (*models.DashboardMetrics, error)
	CurrentMetrics(ctx context.Context) (*models.DashboardMetrics, error)
}
