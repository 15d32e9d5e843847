// Package report lists backend-generated credit reports and drives batch
// generation runs over a set of users.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/events"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/models"
)

// Service implements ReportService with the same cache-aside pattern as the
// sync layer: fresh memory first, then network, then durable fallback.
type Service struct {
	client    interfaces.CreditAPIClient
	durable   interfaces.CacheStore
	bus       *events.Bus
	logger    *common.Logger
	freshness time.Duration

	attempts int
	delay    time.Duration
}

// NewService creates the report service.
func NewService(storage interfaces.StorageManager, client interfaces.CreditAPIClient, bus *events.Bus, cfg common.SyncConfig, logger *common.Logger) *Service {
	return &Service{
		client:    client,
		durable:   storage.CacheStore(),
		bus:       bus,
		logger:    logger,
		freshness: common.FreshnessReports,
		attempts:  cfg.RetryAttempts + 1,
		delay:     cfg.GetRetryDelay(),
	}
}

// ListReports returns the report references for the current user.
func (s *Service) ListReports(ctx context.Context) ([]*models.CreditReport, error) {
	if ts, cached, ok := s.loadCached(ctx); ok && common.IsFresh(ts, s.freshness) {
		return cached, nil
	}

	reports, err := s.client.ListReports(ctx)
	if err != nil {
		if _, cached, ok := s.loadCached(ctx); ok {
			s.logger.Warn().Err(err).Msg("Report listing failed, serving durable cache")
			return cached, nil
		}
		return nil, err
	}

	if data, merr := json.Marshal(reports); merr == nil {
		if serr := s.durable.Set(ctx, interfaces.CacheKeyReports, string(data)); serr != nil {
			s.logger.Warn().Err(serr).Msg("Failed to persist report list")
		}
	}
	s.bus.Publish(events.TopicReports, reports)

	return reports, nil
}

func (s *Service) loadCached(ctx context.Context) (time.Time, []*models.CreditReport, bool) {
	raw, err := s.durable.Get(ctx, interfaces.CacheKeyReports)
	if err != nil {
		return time.Time{}, nil, false
	}
	reports := make([]*models.CreditReport, 0)
	if err := json.Unmarshal([]byte(raw), &reports); err != nil {
		return time.Time{}, nil, false
	}
	ts, _ := s.durable.GetTimestamp(ctx, interfaces.CacheKeyReports)
	return ts, reports, true
}

// GenerateBatch requests report generation for each user, retrying transient
// failures per user. One user's failure never aborts the rest of the batch.
func (s *Service) GenerateBatch(ctx context.Context, userIDs []string) (*models.BatchReportResult, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("no users given for batch report generation")
	}

	result := &models.BatchReportResult{
		Total: len(userIDs),
		Items: make([]models.BatchReportItem, 0, len(userIDs)),
	}

	for _, userID := range userIDs {
		item := models.BatchReportItem{
			JobID:  uuid.NewString(),
			UserID: userID,
		}

		var lastErr error
		for attempt := 1; attempt <= s.attempts; attempt++ {
			item.Attempts = attempt
			if _, err := s.client.GenerateReport(ctx, userID); err != nil {
				lastErr = err
				s.logger.Warn().Err(err).
					Str("job_id", item.JobID).
					Str("user_id", userID).
					Int("attempt", attempt).
					Msg("Report generation attempt failed")
				if attempt < s.attempts {
					select {
					case <-ctx.Done():
						lastErr = ctx.Err()
						attempt = s.attempts
					case <-time.After(s.delay):
					}
				}
				continue
			}
			lastErr = nil
			break
		}

		if lastErr != nil {
			item.Error = lastErr.Error()
			result.Failed++
		} else {
			item.Succeeded = true
			result.Succeeded++
		}
		result.Items = append(result.Items, item)
	}

	s.logger.Info().
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Batch report generation completed")

	return result, nil
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
