package sync

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/credsync/internal/clients/creditapi"
	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/models"
)

// retryPolicy applies fixed-count, fixed-delay retry to mutation operations.
// One policy instance is shared by every call site so retry behavior cannot
// drift between operations.
type retryPolicy struct {
	maxAttempts int
	delay       time.Duration
	logger      *common.Logger
}

func newRetryPolicy(cfg common.SyncConfig, logger *common.Logger) *retryPolicy {
	return &retryPolicy{
		maxAttempts: cfg.RetryAttempts,
		delay:       cfg.GetRetryDelay(),
		logger:      logger,
	}
}

// Do runs fn, retrying transient failures up to maxAttempts extra times.
// NotFound, validation, auth, and other 4xx failures are never retried.
func (r *retryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxAttempts; attempt++ {
		if attempt > 0 {
			r.logger.Debug().Str("op", op).Int("attempt", attempt).Msg("Retrying operation")
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

// retryable reports whether an error is worth another attempt. Only transport
// failures and 5xx responses qualify.
func retryable(err error) bool {
	var netErr *models.NetworkError
	var srvErr *models.ServerError
	if errors.As(err, &netErr) || errors.As(err, &srvErr) {
		return true
	}
	var apiErr *creditapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
