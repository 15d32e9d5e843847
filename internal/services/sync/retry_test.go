package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/credsync/internal/clients/creditapi"
	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/models"
)

func testRetryPolicy() *retryPolicy {
	return newRetryPolicy(testConfig(), common.NewSilentLogger())
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := testRetryPolicy().Do(context.Background(), "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_TransientFailureRetried(t *testing.T) {
	calls := 0
	err := testRetryPolicy().Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return &models.NetworkError{URL: "http://api", Err: errors.New("reset")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustedReturnsLastError(t *testing.T) {
	calls := 0
	err := testRetryPolicy().Do(context.Background(), "op", func() error {
		calls++
		return &models.ServerError{Detail: models.ErrorDetail{StatusCode: 500}}
	})
	var srvErr *models.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"validation", &models.ValidationError{Reason: "bad input"}},
		{"auth", &models.AuthError{}},
		{"not found", &models.NotFoundError{Entity: "loan"}},
		{"client 4xx", &creditapi.APIError{StatusCode: 422}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := testRetryPolicy().Do(context.Background(), "op", func() error {
				calls++
				return tc.err
			})
			assert.Equal(t, tc.err, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRetry_ServerSideAPIErrorRetried(t *testing.T) {
	calls := 0
	_ = testRetryPolicy().Do(context.Background(), "op", func() error {
		calls++
		return &creditapi.APIError{StatusCode: 502}
	})
	assert.Equal(t, 3, calls)
}

func TestRetry_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := testRetryPolicy().Do(ctx, "op", func() error {
		calls++
		cancel()
		return &models.NetworkError{URL: "http://api", Err: errors.New("reset")}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
