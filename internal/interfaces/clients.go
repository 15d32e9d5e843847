// Package interfaces defines service contracts for credsync
package interfaces

import (
	"context"

	"github.com/bobmcallan/credsync/internal/models"
)

// CreditAPIClient is the remote contract the sync layer depends on.
// The backend owns all persistence and modeling; this client only moves data.
type CreditAPIClient interface {
	// GetProfile retrieves the financial profile. A backend 404 is returned
	// as *models.NotFoundError, signalling "no profile yet".
	GetProfile(ctx context.Context) (*models.FinancialProfile, error)

	// UpdateProfile writes profile fields and returns the updated profile.
	UpdateProfile(ctx context.Context, profile *models.FinancialProfile) (*models.FinancialProfile, error)

	// CalculateScore asks the backend to score the given profile fields.
	CalculateScore(ctx context.Context, profile *models.FinancialProfile) (*models.CreditScore, error)

	// ListLoans retrieves all loan accounts. No loans is an empty slice.
	ListLoans(ctx context.Context) ([]*models.LoanAccount, error)

	// CreateLoan creates a loan account and returns the created record.
	CreateLoan(ctx context.Context, loan *models.LoanAccount) (*models.LoanAccount, error)

	// DeleteLoan removes a loan account by id.
	DeleteLoan(ctx context.Context, id int64) error

	// ListReports retrieves generated credit report references.
	ListReports(ctx context.Context) ([]*models.CreditReport, error)

	// GenerateReport requests report generation for a user (admin batch path).
	GenerateReport(ctx context.Context, userID string) (*models.CreditReport, error)

	// GetScoreHistory retrieves the backend's score history series.
	GetScoreHistory(ctx context.Context) ([]*models.ScoreHistoryEntry, error)
}
