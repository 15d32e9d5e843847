package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/events"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/models"
)

// memStore is an in-memory CacheStore for tests.
type memStore struct {
	mu     gosync.Mutex
	values map[string]string
	times  map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		values: make(map[string]string),
		times:  make(map[string]time.Time),
	}
}

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
	m.times[key] = time.Now()
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.times, key)
	return nil
}

func (m *memStore) GetTimestamp(_ context.Context, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.times[key], nil
}

func (m *memStore) SetTimestamp(_ context.Context, key string, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times[key] = ts
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

type memStorage struct {
	cache *memStore
}

func (s *memStorage) CacheStore() interfaces.CacheStore { return s.cache }
func (s *memStorage) Close() error                      { return nil }

// fakeClient is a scriptable CreditAPIClient with call counters.
type fakeClient struct {
	mu gosync.Mutex

	profile      *models.FinancialProfile
	profileErr   error
	profileDelay time.Duration
	loans        []*models.LoanAccount
	loansErr     error
	score        *models.CreditScore
	scoreErr     error
	createErr    error
	deleteErr    error
	nextLoanID   int64
	updateErr    error
	reports      []*models.CreditReport
	reportsErr   error
	generateErr  error
	history      []*models.ScoreHistoryEntry
	historyErr   error

	calls map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{nextLoanID: 1, calls: make(map[string]int)}
}

func (f *fakeClient) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeClient) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeClient) GetProfile(ctx context.Context) (*models.FinancialProfile, error) {
	f.count("GetProfile")
	f.mu.Lock()
	delay := f.profileDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p := *f.profile
	return &p, nil
}

func (f *fakeClient) UpdateProfile(ctx context.Context, profile *models.FinancialProfile) (*models.FinancialProfile, error) {
	f.count("UpdateProfile")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p := *profile
	f.profile = &p
	return &p, nil
}

func (f *fakeClient) CalculateScore(ctx context.Context, profile *models.FinancialProfile) (*models.CreditScore, error) {
	f.count("CalculateScore")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scoreErr != nil {
		return nil, f.scoreErr
	}
	s := *f.score
	return &s, nil
}

func (f *fakeClient) ListLoans(ctx context.Context) ([]*models.LoanAccount, error) {
	f.count("ListLoans")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loansErr != nil {
		return nil, f.loansErr
	}
	out := make([]*models.LoanAccount, len(f.loans))
	copy(out, f.loans)
	return out, nil
}

func (f *fakeClient) CreateLoan(ctx context.Context, loan *models.LoanAccount) (*models.LoanAccount, error) {
	f.count("CreateLoan")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *loan
	created.ID = f.nextLoanID
	f.nextLoanID++
	f.loans = append(f.loans, &created)
	return &created, nil
}

func (f *fakeClient) DeleteLoan(ctx context.Context, id int64) error {
	f.count("DeleteLoan")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.loans[:0]
	for _, l := range f.loans {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	f.loans = kept
	return nil
}

func (f *fakeClient) ListReports(ctx context.Context) ([]*models.CreditReport, error) {
	f.count("ListReports")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports, f.reportsErr
}

func (f *fakeClient) GenerateReport(ctx context.Context, userID string) (*models.CreditReport, error) {
	f.count("GenerateReport")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return &models.CreditReport{ID: "r-" + userID, UserID: userID}, nil
}

func (f *fakeClient) GetScoreHistory(ctx context.Context) ([]*models.ScoreHistoryEntry, error) {
	f.count("GetScoreHistory")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, f.historyErr
}

var _ interfaces.CreditAPIClient = (*fakeClient)(nil)

func testConfig() common.SyncConfig {
	return common.SyncConfig{
		FreshnessWindow:    "5m",
		SyncDebounce:       "60s",
		ReconcileTolerance: 100,
		RetryAttempts:      2,
		RetryDelay:         "1ms",
	}
}

// newTestService builds a service over an in-memory store and fake client.
func newTestService(client *fakeClient, store *memStore) *Service {
	return NewService(&memStorage{cache: store}, client, events.NewBus(), testConfig(), common.NewSilentLogger())
}
