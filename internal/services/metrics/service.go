// Package metrics derives the dashboard headline numbers from loan, report,
// and score-history data.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/events"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/models"
)

// Service implements MetricsService.
type Service struct {
	client  interfaces.CreditAPIClient
	durable interfaces.CacheStore
	bus     *events.Bus
	logger  *common.Logger
}

// NewService creates the metrics service.
func NewService(storage interfaces.StorageManager, client interfaces.CreditAPIClient, bus *events.Bus, logger *common.Logger) *Service {
	return &Service{
		client:  client,
		durable: storage.CacheStore(),
		bus:     bus,
		logger:  logger,
	}
}

// UpdateMetrics recomputes the dashboard metrics from the given loan set plus
// the backend's report list and score history, and caches the result. Each
// input degrades independently; a failed lookup leaves its metric at its
// previous or zero value rather than failing the whole update.
func (s *Service) UpdateMetrics(ctx context.Context, loans []*models.LoanAccount, score *models.CreditScore) (*models.DashboardMetrics, error) {
	m := models.NewDashboardMetrics()

	for _, loan := range loans {
		if loan.IsActive {
			m.ActiveLoans++
		}
	}

	if reports, err := s.client.ListReports(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Report listing failed, reports metric unavailable")
	} else {
		m.CreditReportsGenerated = reportsThisMonth(reports, time.Now())
	}

	if score != nil {
		if history, err := s.client.GetScoreHistory(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Score history unavailable, score change metric unavailable")
		} else {
			m.ScoreChange = scoreChange(score.Score, history, time.Now())
		}
	}

	if data, err := json.Marshal(m); err == nil {
		if serr := s.durable.Set(ctx, interfaces.CacheKeyMetrics, string(data)); serr != nil {
			s.logger.Warn().Err(serr).Msg("Failed to persist dashboard metrics")
		}
	}
	s.bus.Publish(events.TopicMetrics, &m)

	s.logger.Debug().
		Int("active_loans", m.ActiveLoans).
		Int("reports", m.CreditReportsGenerated).
		Str("score_change", m.ScoreChange).
		Msg("Dashboard metrics updated")

	return &m, nil
}

// CurrentMetrics returns the last computed metrics, or zeroed placeholders
// when none have been computed yet.
func (s *Service) CurrentMetrics(ctx context.Context) (*models.DashboardMetrics, error) {
	raw, err := s.durable.Get(ctx, interfaces.CacheKeyMetrics)
	if err != nil {
		m := models.NewDashboardMetrics()
		return &m, nil
	}
	var m models.DashboardMetrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		m = models.NewDashboardMetrics()
	}
	return &m, nil
}

// reportsThisMonth counts reports created in the current calendar month.
func reportsThisMonth(reports []*models.CreditReport, now time.Time) int {
	count := 0
	for _, r := range reports {
		if r.CreatedAt.Year() == now.Year() && r.CreatedAt.Month() == now.Month() {
			count++
		}
	}
	return count
}

// scoreChange formats the signed difference between the current score and the
// oldest score recorded within the last 30 days.
func scoreChange(current int, history []*models.ScoreHistoryEntry, now time.Time) string {
	cutoff := now.AddDate(0, 0, -30)

	var baseline *models.ScoreHistoryEntry
	for _, entry := range history {
		if entry.CalculationDate.Before(cutoff) {
			continue
		}
		if baseline == nil || entry.CalculationDate.Before(baseline.CalculationDate) {
			baseline = entry
		}
	}
	if baseline == nil {
		return "N/A"
	}

	diff := current - baseline.Score
	if diff >= 0 {
		return fmt.Sprintf("+%d", diff)
	}
	return fmt.Sprintf("%d", diff)
}

// Ensure Service implements MetricsService
var _ interfaces.MetricsService = (*Service)(nil)
