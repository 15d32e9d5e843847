package metrics

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/events"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/models"
)

type fakeClient struct {
	interfaces.CreditAPIClient

	reports    []*models.CreditReport
	reportsErr error
	history    []*models.ScoreHistoryEntry
	historyErr error
}

func (f *fakeClient) ListReports(ctx context.Context) ([]*models.CreditReport, error) {
	return f.reports, f.reportsErr
}

func (f *fakeClient) GetScoreHistory(ctx context.Context) ([]*models.ScoreHistoryEntry, error) {
	return f.history, f.historyErr
}

type memStore struct {
	mu     gosync.Mutex
	values map[string]string
}

func newMemStore() *memStore { return &memStore{values: make(map[string]string)} }

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found", key)
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memStore) GetTimestamp(_ context.Context, key string) (time.Time, error) {
	return time.Time{}, nil
}

func (m *memStore) SetTimestamp(_ context.Context, key string, ts time.Time) error {
	return nil
}

func (m *memStore) Close() error { return nil }

type memStorage struct{ cache *memStore }

func (s *memStorage) CacheStore() interfaces.CacheStore { return s.cache }
func (s *memStorage) Close() error                      { return nil }

func newTestService(client *fakeClient, store *memStore) *Service {
	return NewService(&memStorage{cache: store}, client, events.NewBus(), common.NewSilentLogger())
}

func activeLoan(active bool) *models.LoanAccount {
	return &models.LoanAccount{Lender: "Bank", IsActive: active}
}

func TestUpdateMetrics_CountsActiveLoans(t *testing.T) {
	svc := newTestService(&fakeClient{}, newMemStore())

	loans := []*models.LoanAccount{activeLoan(true), activeLoan(false), activeLoan(true)}
	m, err := svc.UpdateMetrics(context.Background(), loans, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.ActiveLoans)
	assert.Equal(t, "N/A", m.ScoreChange, "no score given means no change to report")
}

func TestUpdateMetrics_ReportsThisMonth(t *testing.T) {
	now := time.Now()
	client := &fakeClient{
		reports: []*models.CreditReport{
			{ID: "r1", CreatedAt: now},
			{ID: "r2", CreatedAt: now.AddDate(0, -2, 0)},
		},
	}
	svc := newTestService(client, newMemStore())

	m, err := svc.UpdateMetrics(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, m.CreditReportsGenerated)
}

func TestUpdateMetrics_ScoreChangeFrom30DayBaseline(t *testing.T) {
	now := time.Now()
	client := &fakeClient{
		history: []*models.ScoreHistoryEntry{
			{Score: 680, CalculationDate: now.AddDate(0, 0, -20)},
			{Score: 700, CalculationDate: now.AddDate(0, 0, -5)},
			{Score: 640, CalculationDate: now.AddDate(0, 0, -60)}, // outside the window
		},
	}
	svc := newTestService(client, newMemStore())

	m, err := svc.UpdateMetrics(context.Background(), nil, &models.CreditScore{Score: 710})
	require.NoError(t, err)
	assert.Equal(t, "+30", m.ScoreChange, "change against the oldest in-window entry")
}

func TestUpdateMetrics_NegativeScoreChange(t *testing.T) {
	now := time.Now()
	client := &fakeClient{
		history: []*models.ScoreHistoryEntry{
			{Score: 720, CalculationDate: now.AddDate(0, 0, -10)},
		},
	}
	svc := newTestService(client, newMemStore())

	m, err := svc.UpdateMetrics(context.Background(), nil, &models.CreditScore{Score: 700})
	require.NoError(t, err)
	assert.Equal(t, "-20", m.ScoreChange)
}

func TestUpdateMetrics_EmptyHistoryIsNA(t *testing.T) {
	svc := newTestService(&fakeClient{}, newMemStore())

	m, err := svc.UpdateMetrics(context.Background(), nil, &models.CreditScore{Score: 700})
	require.NoError(t, err)
	assert.Equal(t, "N/A", m.ScoreChange)
}

func TestUpdateMetrics_FailedLookupsDegradeQuietly(t *testing.T) {
	client := &fakeClient{
		reportsErr: &models.NetworkError{URL: "http://api", Err: errors.New("down")},
		historyErr: &models.NetworkError{URL: "http://api", Err: errors.New("down")},
	}
	svc := newTestService(client, newMemStore())

	m, err := svc.UpdateMetrics(context.Background(), []*models.LoanAccount{activeLoan(true)}, &models.CreditScore{Score: 700})
	require.NoError(t, err, "metric inputs degrade independently")
	assert.Equal(t, 1, m.ActiveLoans)
	assert.Equal(t, 0, m.CreditReportsGenerated)
	assert.Equal(t, "N/A", m.ScoreChange)
}

func TestCurrentMetrics_RoundTripsThroughCache(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(&fakeClient{}, store)

	_, err := svc.UpdateMetrics(ctx, []*models.LoanAccount{activeLoan(true)}, nil)
	require.NoError(t, err)

	m, err := svc.CurrentMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, m.ActiveLoans)
}

func TestCurrentMetrics_EmptyCacheReturnsPlaceholders(t *testing.T) {
	svc := newTestService(&fakeClient{}, newMemStore())

	m, err := svc.CurrentMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, m.ActiveLoans)
	assert.Equal(t, "N/A", m.ScoreChange)
}
