// Package sync implements the client-side data synchronization and caching
// layer: a single point of truth for the user identity, financial profile,
// loan accounts, and credit score, backed by the remote API and a durable
// local cache.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	gosync "sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/events"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/models"
)

// Service implements SyncService.
type Service struct {
	client  interfaces.CreditAPIClient
	durable interfaces.CacheStore
	bus     *events.Bus
	logger  *common.Logger

	freshness time.Duration
	debounce  time.Duration
	tolerance float64
	retry     *retryPolicy

	mu         gosync.Mutex
	user       *models.UserIdentity
	profile    *models.FinancialProfile
	profileAt  time.Time
	loans      []*models.LoanAccount
	loansAt    time.Time
	score      *models.CreditScore
	scoreHash  string
	states     map[string]State
	lastSync   time.Time
	lastResult *interfaces.SyncResult

	flight singleflight.Group
}

// NewService creates the sync service and warms the in-memory cache from the
// durable store so cached data is served before the first network call.
func NewService(storage interfaces.StorageManager, client interfaces.CreditAPIClient, bus *events.Bus, cfg common.SyncConfig, logger *common.Logger) *Service {
	s := &Service{
		client:    client,
		durable:   storage.CacheStore(),
		bus:       bus,
		logger:    logger,
		freshness: cfg.GetFreshnessWindow(),
		debounce:  cfg.GetSyncDebounce(),
		tolerance: cfg.ReconcileTolerance,
		retry:     newRetryPolicy(cfg, logger),
		states:    make(map[string]State),
	}
	s.warmStart(context.Background())
	return s
}

// EntityState returns the cache state of the entity behind a durable key.
func (s *Service) EntityState(key string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[key]
}

func (s *Service) setState(key string, state State) {
	s.mu.Lock()
	s.states[key] = state
	s.mu.Unlock()
}

// warmStart hydrates memory from the durable cache. Failures are harmless;
// the next read just goes to the network.
func (s *Service) warmStart(ctx context.Context) {
	var user models.UserIdentity
	if _, ok := s.loadDurable(ctx, interfaces.CacheKeyUser, &user); ok {
		s.user = &user
	}

	var profile models.FinancialProfile
	if ts, ok := s.loadDurable(ctx, interfaces.CacheKeyProfile, &profile); ok {
		s.profile = &profile
		s.profileAt = ts
		s.states[interfaces.CacheKeyProfile] = s.freshOrStale(ts)
	}

	loans := make([]*models.LoanAccount, 0)
	if ts, ok := s.loadDurable(ctx, interfaces.CacheKeyLoans, &loans); ok {
		s.loans = loans
		s.loansAt = ts
		s.states[interfaces.CacheKeyLoans] = s.freshOrStale(ts)
	}

	var score models.CreditScore
	if ts, ok := s.loadDurable(ctx, interfaces.CacheKeyScore, &score); ok && common.IsFresh(ts, common.FreshnessScore) {
		s.score = &score
		if hash, err := s.durable.Get(ctx, interfaces.CacheKeyScoreHash); err == nil {
			s.scoreHash = hash
		}
		s.states[interfaces.CacheKeyScore] = StateFresh
	}

	// Rebuild the debounced sync result when the last run is still current.
	if raw, err := s.durable.Get(ctx, interfaces.CacheKeyLastSync); err == nil {
		if unix, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			last := time.Unix(unix, 0)
			if time.Since(last) < s.debounce && s.profile != nil {
				s.lastSync = last
				s.lastResult = &interfaces.SyncResult{
					Profile:   s.profile,
					Loans:     s.loans,
					Score:     s.score,
					FromCache: true,
				}
			}
		}
	}

	s.logger.Debug().
		Bool("profile", s.profile != nil).
		Int("loans", len(s.loans)).
		Bool("score", s.score != nil).
		Msg("Cache warmed from durable store")
}

func (s *Service) freshOrStale(ts time.Time) State {
	if common.IsFresh(ts, s.freshness) {
		return StateFresh
	}
	return StateStale
}

// loadDurable reads and decodes a JSON value from the durable store,
// returning its freshness timestamp.
func (s *Service) loadDurable(ctx context.Context, key string, v interface{}) (time.Time, bool) {
	raw, err := s.durable.Get(ctx, key)
	if err != nil {
		return time.Time{}, false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Corrupt durable cache entry, ignoring")
		return time.Time{}, false
	}
	ts, _ := s.durable.GetTimestamp(ctx, key)
	return ts, true
}

// storeDurable encodes and writes a JSON value to the durable store.
func (s *Service) storeDurable(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.durable.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

func (s *Service) deleteDurable(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.durable.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete durable cache entry")
		}
	}
}

// GetFinancialProfile reads the profile through the cache.
func (s *Service) GetFinancialProfile(ctx context.Context) (*models.FinancialProfile, error) {
	s.mu.Lock()
	if s.profile != nil && common.IsFresh(s.profileAt, s.freshness) {
		p := s.profile
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	// Concurrent callers share a single in-flight fetch.
	v, err, _ := s.flight.Do(interfaces.CacheKeyProfile, func() (interface{}, error) {
		return s.fetchProfile(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FinancialProfile), nil
}

func (s *Service) fetchProfile(ctx context.Context) (*models.FinancialProfile, error) {
	s.setState(interfaces.CacheKeyProfile, StateLoading)

	profile, err := s.client.GetProfile(ctx)
	if err == nil {
		profile.Normalize()
		if serr := s.storeDurable(ctx, interfaces.CacheKeyProfile, profile); serr != nil {
			// Cache tiers update together or not at all.
			s.setState(interfaces.CacheKeyProfile, s.freshOrStale(s.profileAt))
			return nil, serr
		}
		s.mu.Lock()
		s.profile = profile
		s.profileAt = time.Now()
		s.mu.Unlock()
		s.setState(interfaces.CacheKeyProfile, StateFresh)
		s.bus.Publish(events.TopicProfile, profile)
		return profile, nil
	}

	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		// Backend has no profile yet: a valid state. Clear every cache tier
		// so no stale profile survives.
		s.mu.Lock()
		s.profile = nil
		s.profileAt = time.Time{}
		s.mu.Unlock()
		s.deleteDurable(ctx, interfaces.CacheKeyProfile)
		s.setState(interfaces.CacheKeyProfile, StateEmpty)
		s.bus.Publish(events.TopicProfile, (*models.FinancialProfile)(nil))
		return nil, err
	}

	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		// Session expiry always surfaces immediately for forced logout.
		return nil, err
	}

	// Fallback order: in-memory → durable → typed error.
	s.mu.Lock()
	if s.profile != nil {
		p := s.profile
		s.mu.Unlock()
		s.setState(interfaces.CacheKeyProfile, StateStale)
		s.logger.Warn().Err(err).Msg("Profile fetch failed, serving in-memory cache")
		return p, nil
	}
	s.mu.Unlock()

	var cached models.FinancialProfile
	if ts, ok := s.loadDurable(ctx, interfaces.CacheKeyProfile, &cached); ok {
		s.mu.Lock()
		s.profile = &cached
		s.profileAt = ts
		s.mu.Unlock()
		s.setState(interfaces.CacheKeyProfile, StateStale)
		s.logger.Warn().Err(err).Msg("Profile fetch failed, serving durable cache")
		return &cached, nil
	}

	s.setState(interfaces.CacheKeyProfile, StateError)
	return nil, err
}

// UpdateFinancialProfile writes the profile remotely and replaces both cache
// tiers on success. A failed call leaves the cache untouched.
func (s *Service) UpdateFinancialProfile(ctx context.Context, profile *models.FinancialProfile) (*models.FinancialProfile, error) {
	profile.Normalize()

	var updated *models.FinancialProfile
	err := s.retry.Do(ctx, "update-profile", func() error {
		up, uerr := s.client.UpdateProfile(ctx, profile)
		if uerr != nil {
			return uerr
		}
		updated = up
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated.Normalize()

	if err := s.storeDurable(ctx, interfaces.CacheKeyProfile, updated); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.profile = updated
	s.profileAt = time.Now()
	s.mu.Unlock()
	s.setState(interfaces.CacheKeyProfile, StateFresh)
	s.bus.Publish(events.TopicProfile, updated)

	return updated, nil
}

// GetLoans reads the loan list through the cache. An empty list is a valid
// result, never a NotFound.
func (s *Service) GetLoans(ctx context.Context) ([]*models.LoanAccount, error) {
	s.mu.Lock()
	if s.loans != nil && common.IsFresh(s.loansAt, s.freshness) {
		l := s.loans
		s.mu.Unlock()
		return l, nil
	}
	s.mu.Unlock()

	v, err, _ := s.flight.Do(interfaces.CacheKeyLoans, func() (interface{}, error) {
		return s.fetchLoans(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.LoanAccount), nil
}

func (s *Service) fetchLoans(ctx context.Context) ([]*models.LoanAccount, error) {
	s.setState(interfaces.CacheKeyLoans, StateLoading)

	loans, err := s.client.ListLoans(ctx)
	if err == nil {
		if serr := s.storeDurable(ctx, interfaces.CacheKeyLoans, loans); serr != nil {
			s.setState(interfaces.CacheKeyLoans, s.freshOrStale(s.loansAt))
			return nil, serr
		}
		s.mu.Lock()
		s.loans = loans
		s.loansAt = time.Now()
		s.mu.Unlock()
		s.setState(interfaces.CacheKeyLoans, StateFresh)
		s.bus.Publish(events.TopicLoans, loans)
		return loans, nil
	}

	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		return nil, err
	}

	s.mu.Lock()
	if s.loans != nil {
		l := s.loans
		s.mu.Unlock()
		s.setState(interfaces.CacheKeyLoans, StateStale)
		s.logger.Warn().Err(err).Msg("Loan fetch failed, serving in-memory cache")
		return l, nil
	}
	s.mu.Unlock()

	cached := make([]*models.LoanAccount, 0)
	if ts, ok := s.loadDurable(ctx, interfaces.CacheKeyLoans, &cached); ok {
		s.mu.Lock()
		s.loans = cached
		s.loansAt = ts
		s.mu.Unlock()
		s.setState(interfaces.CacheKeyLoans, StateStale)
		s.logger.Warn().Err(err).Msg("Loan fetch failed, serving durable cache")
		return cached, nil
	}

	s.setState(interfaces.CacheKeyLoans, StateError)
	return nil, err
}

// CalculateCreditScore returns the cached score when the score-relevant
// fields are unchanged; identical inputs never trigger a second calculation.
func (s *Service) CalculateCreditScore(ctx context.Context, profile *models.FinancialProfile) (*models.CreditScore, error) {
	hash := ProfileHash(profile)

	s.mu.Lock()
	if s.score != nil && s.scoreHash == hash {
		sc := s.score
		s.mu.Unlock()
		s.logger.Debug().Str("hash", hash).Msg("Using cached credit score (same financial data)")
		return sc, nil
	}
	s.mu.Unlock()

	// Cross-restart hash hit: durable score still valid for these inputs.
	if storedHash, err := s.durable.Get(ctx, interfaces.CacheKeyScoreHash); err == nil && storedHash == hash {
		var cached models.CreditScore
		if _, ok := s.loadDurable(ctx, interfaces.CacheKeyScore, &cached); ok {
			s.mu.Lock()
			s.score = &cached
			s.scoreHash = hash
			s.mu.Unlock()
			s.setState(interfaces.CacheKeyScore, StateFresh)
			return &cached, nil
		}
	}

	v, err, _ := s.flight.Do("score:"+hash, func() (interface{}, error) {
		return s.fetchScore(ctx, profile, hash)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CreditScore), nil
}

func (s *Service) fetchScore(ctx context.Context, profile *models.FinancialProfile, hash string) (*models.CreditScore, error) {
	s.setState(interfaces.CacheKeyScore, StateLoading)

	var score *models.CreditScore
	err := s.retry.Do(ctx, "calculate-score", func() error {
		sc, cerr := s.client.CalculateScore(ctx, profile)
		if cerr != nil {
			return cerr
		}
		score = sc
		return nil
	})

	if err == nil {
		score.Cached = false
		score.Fallback = false
		score.DataHash = hash
		score.CalculatedAt = time.Now()
		if serr := s.cacheScore(ctx, score, hash); serr != nil {
			return nil, serr
		}
		s.logger.Info().Int("score", score.Score).Str("category", score.Category).Msg("Credit score calculated")
		return score, nil
	}

	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		return nil, err
	}

	s.logger.Warn().Err(err).Msg("Credit score calculation failed, falling back")

	// Last cached score, any hash: memory first, then durable.
	s.mu.Lock()
	cached := s.score
	s.mu.Unlock()
	if cached == nil {
		var durable models.CreditScore
		if _, ok := s.loadDurable(ctx, interfaces.CacheKeyScore, &durable); ok {
			cached = &durable
		}
	}
	if cached != nil {
		c := *cached
		c.Cached = true
		if c.Message == "" {
			c.Message = "This is a previously calculated score. There was an error calculating a new score."
		}
		s.setState(interfaces.CacheKeyScore, StateStale)
		return &c, nil
	}

	// No cache anywhere: synthesize a client-side estimate and cache it under
	// the new hash so repeated failures don't recompute it either.
	est := estimateScore(profile, hash)
	if serr := s.cacheScore(ctx, est, hash); serr != nil {
		s.setState(interfaces.CacheKeyScore, StateError)
		return nil, serr
	}
	return est, nil
}

// cacheScore writes a score to both cache tiers along with its input hash.
func (s *Service) cacheScore(ctx context.Context, score *models.CreditScore, hash string) error {
	if err := s.storeDurable(ctx, interfaces.CacheKeyScore, score); err != nil {
		return err
	}
	if err := s.durable.Set(ctx, interfaces.CacheKeyScoreHash, hash); err != nil {
		return fmt.Errorf("failed to persist score hash: %w", err)
	}
	s.mu.Lock()
	s.score = score
	s.scoreHash = hash
	s.mu.Unlock()
	s.setState(interfaces.CacheKeyScore, StateFresh)
	s.bus.Publish(events.TopicScore, score)
	return nil
}

// Required loan-input fields, in reporting order. Wire names are used so
// validation messages match the backend's field naming.
var requiredLoanFields = []struct {
	name  string
	value func(in *models.LoanInput) string
}{
	{"lender", func(in *models.LoanInput) string { return in.Lender }},
	{"principal_amount", func(in *models.LoanInput) string { return in.PrincipalAmount }},
	{"interest_rate", func(in *models.LoanInput) string { return in.InterestRate }},
	{"term_months", func(in *models.LoanInput) string { return in.TermMonths }},
	{"monthly_payment", func(in *models.LoanInput) string { return in.MonthlyPayment }},
}

// buildLoan validates the raw input and normalizes comma-formatted numbers.
func buildLoan(input *models.LoanInput) (*models.LoanAccount, error) {
	missing := make([]string, 0)
	for _, f := range requiredLoanFields {
		if strings.TrimSpace(f.value(input)) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &models.ValidationError{MissingFields: missing}
	}

	principal, err := parseAmount(input.PrincipalAmount)
	if err != nil {
		return nil, &models.ValidationError{Reason: fmt.Sprintf("principal_amount is not a number: %q", input.PrincipalAmount)}
	}
	rate, err := parseAmount(input.InterestRate)
	if err != nil {
		return nil, &models.ValidationError{Reason: fmt.Sprintf("interest_rate is not a number: %q", input.InterestRate)}
	}
	term, err := parseAmount(input.TermMonths)
	if err != nil {
		return nil, &models.ValidationError{Reason: fmt.Sprintf("term_months is not a number: %q", input.TermMonths)}
	}
	payment, err := parseAmount(input.MonthlyPayment)
	if err != nil {
		return nil, &models.ValidationError{Reason: fmt.Sprintf("monthly_payment is not a number: %q", input.MonthlyPayment)}
	}

	remaining := principal
	if strings.TrimSpace(input.RemainingBalance) != "" {
		remaining, err = parseAmount(input.RemainingBalance)
		if err != nil {
			return nil, &models.ValidationError{Reason: fmt.Sprintf("remaining_balance is not a number: %q", input.RemainingBalance)}
		}
	}

	return &models.LoanAccount{
		Lender:           strings.TrimSpace(input.Lender),
		LoanType:         strings.TrimSpace(input.LoanType),
		PrincipalAmount:  principal,
		InterestRate:     rate,
		TermMonths:       int(term),
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		MonthlyPayment:   payment,
		RemainingBalance: remaining,
		IsActive:         true,
	}, nil
}

// parseAmount converts a possibly comma-formatted numeric string.
func parseAmount(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 64)
}

// CreateLoan validates input, creates the loan remotely with retry, appends
// it to both cache tiers, and reconciles the profile totals.
func (s *Service) CreateLoan(ctx context.Context, input *models.LoanInput) (*models.LoanAccount, error) {
	loan, err := buildLoan(input)
	if err != nil {
		return nil, err
	}

	var created *models.LoanAccount
	err = s.retry.Do(ctx, "create-loan", func() error {
		c, cerr := s.client.CreateLoan(ctx, loan)
		if cerr != nil {
			return cerr
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	loans := append(append(make([]*models.LoanAccount, 0, len(s.loans)+1), s.loans...), created)
	s.loans = loans
	s.loansAt = time.Now()
	s.mu.Unlock()
	if serr := s.storeDurable(ctx, interfaces.CacheKeyLoans, loans); serr != nil {
		s.logger.Warn().Err(serr).Msg("Failed to persist loans after creation")
	}
	s.setState(interfaces.CacheKeyLoans, StateFresh)
	s.bus.Publish(events.TopicLoans, loans)

	s.logger.Info().Str("lender", created.Lender).Float64("principal", created.PrincipalAmount).Msg("Loan created")

	if rerr := s.reconcileProfile(ctx, loans); rerr != nil {
		s.logger.Warn().Err(rerr).Msg("Profile reconciliation after loan creation failed")
	}

	return created, nil
}

// DeleteLoan removes a loan remotely, then from both cache tiers, then
// reconciles the profile totals.
func (s *Service) DeleteLoan(ctx context.Context, id int64) error {
	err := s.retry.Do(ctx, "delete-loan", func() error {
		return s.client.DeleteLoan(ctx, id)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	loans := make([]*models.LoanAccount, 0, len(s.loans))
	for _, l := range s.loans {
		if l.ID != id {
			loans = append(loans, l)
		}
	}
	s.loans = loans
	s.loansAt = time.Now()
	s.mu.Unlock()
	if serr := s.storeDurable(ctx, interfaces.CacheKeyLoans, loans); serr != nil {
		s.logger.Warn().Err(serr).Msg("Failed to persist loans after deletion")
	}
	s.bus.Publish(events.TopicLoans, loans)

	s.logger.Info().Int64("id", id).Msg("Loan deleted")

	if rerr := s.reconcileProfile(ctx, loans); rerr != nil {
		s.logger.Warn().Err(rerr).Msg("Profile reconciliation after loan deletion failed")
	}

	return nil
}

// loanTotals sums remaining balances and monthly payments over a loan set.
func loanTotals(loans []*models.LoanAccount) (balance, payment float64) {
	for _, l := range loans {
		balance += l.RemainingBalance
		payment += l.MonthlyPayment
	}
	return balance, payment
}

// reconcileTotals returns a profile whose derived totals match the loan set,
// and whether anything exceeded the discrepancy tolerance.
func (s *Service) reconcileTotals(profile *models.FinancialProfile, loans []*models.LoanAccount) (*models.FinancialProfile, bool) {
	totalBalance, totalPayment := loanTotals(loans)

	balanceDrift := abs(totalBalance - profile.TotalLoanAmount)
	paymentDrift := abs(totalPayment - profile.TotalMonthlyPayment)
	if balanceDrift <= s.tolerance && paymentDrift <= s.tolerance && profile.TotalAccounts == len(loans) {
		return profile, false
	}

	updated := *profile
	updated.TotalLoanAmount = totalBalance
	updated.TotalMonthlyPayment = totalPayment
	updated.TotalAccounts = len(loans)

	if profile.Income != nil && *profile.Income > 0 {
		dti := totalPayment / *profile.Income
		if dti > 1 {
			dti = 1
		}
		updated.DebtToIncome = &dti
	}

	return &updated, true
}

// reconcileProfile rewrites the profile totals after a loan mutation. Skipped
// quietly when no profile exists yet.
func (s *Service) reconcileProfile(ctx context.Context, loans []*models.LoanAccount) error {
	s.mu.Lock()
	profile := s.profile
	s.mu.Unlock()
	if profile == nil {
		var cached models.FinancialProfile
		if _, ok := s.loadDurable(ctx, interfaces.CacheKeyProfile, &cached); !ok {
			return nil
		}
		profile = &cached
	}

	updated, changed := s.reconcileTotals(profile, loans)
	if !changed {
		return nil
	}

	s.logger.Info().
		Float64("loan_amount", updated.TotalLoanAmount).
		Float64("monthly_payment", updated.TotalMonthlyPayment).
		Int("accounts", updated.TotalAccounts).
		Msg("Updating profile to match loan data")

	_, err := s.UpdateFinancialProfile(ctx, updated)
	return err
}

// Synchronize reconciles profile, loans, and credit score. Calls within the
// debounce window return the previous result without re-fetching.
func (s *Service) Synchronize(ctx context.Context) (*interfaces.SyncResult, error) {
	s.mu.Lock()
	if s.lastResult != nil && time.Since(s.lastSync) < s.debounce {
		r := s.lastResult
		s.mu.Unlock()
		s.logger.Debug().Msg("Synchronize debounced, returning last result")
		return r, nil
	}
	s.mu.Unlock()

	var (
		profile *models.FinancialProfile
		loans   []*models.LoanAccount
		perr    error
		lerr    error
		wg      gosync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, perr = s.GetFinancialProfile(ctx)
	}()
	go func() {
		defer wg.Done()
		loans, lerr = s.GetLoans(ctx)
	}()
	wg.Wait()

	var authErr *models.AuthError
	if errors.As(perr, &authErr) || errors.As(lerr, &authErr) {
		return nil, authErr
	}

	profileMissing := false
	var nf *models.NotFoundError
	if errors.As(perr, &nf) {
		profileMissing = true
		perr = nil
		profile = nil
	}

	if perr != nil || lerr != nil {
		return s.syncFallback(perr, lerr)
	}

	if profileMissing {
		return nil, &models.SyncError{
			Code:    models.SyncCodeNoFinancialData,
			Message: "Please enter your financial information in the Dashboard first. This data is required for credit score calculation.",
		}
	}

	fromCache := false

	// Reconciliation write completes before the score recomputation reads
	// the profile.
	if profile != nil && len(loans) > 0 {
		updated, changed := s.reconcileTotals(profile, loans)
		if changed {
			s.logger.Info().Msg("Reconciling profile totals with loan data")
			if up, uerr := s.UpdateFinancialProfile(ctx, updated); uerr != nil {
				s.logger.Warn().Err(uerr).Msg("Profile reconciliation write failed, continuing with fetched profile")
			} else {
				profile = up
			}
		}
	}

	var score *models.CreditScore
	if profile != nil {
		sc, serr := s.CalculateCreditScore(ctx, profile)
		if serr != nil {
			if errors.As(serr, &authErr) {
				return nil, serr
			}
			s.logger.Warn().Err(serr).Msg("Score calculation failed during synchronize, using cached score")
			s.mu.Lock()
			sc = s.score
			s.mu.Unlock()
			if sc != nil {
				fromCache = true
			}
		}
		score = sc
	}

	result := &interfaces.SyncResult{
		Profile:   profile,
		Loans:     loans,
		Score:     score,
		FromCache: fromCache,
	}

	now := time.Now()
	s.mu.Lock()
	s.lastSync = now
	s.lastResult = result
	s.mu.Unlock()
	if err := s.durable.Set(ctx, interfaces.CacheKeyLastSync, strconv.FormatInt(now.Unix(), 10)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist sync timestamp")
	}

	s.logger.Info().
		Int("loans", len(loans)).
		Bool("from_cache", fromCache).
		Msg("Data synchronization completed")

	return result, nil
}

// syncFallback returns the best available cached triple, or a SyncError when
// no cache of any kind exists.
func (s *Service) syncFallback(perr, lerr error) (*interfaces.SyncResult, error) {
	s.mu.Lock()
	profile := s.profile
	loans := s.loans
	score := s.score
	s.mu.Unlock()

	cause := perr
	if cause == nil {
		cause = lerr
	}

	if profile == nil {
		return nil, &models.SyncError{
			Code:    models.SyncCodeNoFinancialData,
			Message: "Please enter your financial information in the Dashboard first. This data is required for credit score calculation.",
			Err:     cause,
		}
	}
	if lerr != nil && loans == nil {
		return nil, &models.SyncError{
			Code:    models.SyncCodeNoLoanData,
			Message: "No loan accounts found. Please add a loan account first to see it reflected in your credit score.",
			Err:     lerr,
		}
	}

	s.logger.Warn().Err(cause).Msg("Synchronization failed, returning cached data")
	return &interfaces.SyncResult{
		Profile:   profile,
		Loans:     loans,
		Score:     score,
		FromCache: true,
	}, nil
}

// SetUser caches the session identity in both tiers.
func (s *Service) SetUser(ctx context.Context, user *models.UserIdentity) error {
	if err := s.storeDurable(ctx, interfaces.CacheKeyUser, user); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.bus.Publish(events.TopicUser, user)
	return nil
}

// CurrentUser returns the cached session identity.
func (s *Service) CurrentUser(ctx context.Context) (*models.UserIdentity, error) {
	s.mu.Lock()
	if s.user != nil {
		u := s.user
		s.mu.Unlock()
		return u, nil
	}
	s.mu.Unlock()

	var user models.UserIdentity
	if _, ok := s.loadDurable(ctx, interfaces.CacheKeyUser, &user); ok {
		s.mu.Lock()
		s.user = &user
		s.mu.Unlock()
		return &user, nil
	}
	return nil, &models.NotFoundError{Entity: "user"}
}

// ClearAll wipes every entity from both cache tiers. Logout path.
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.profile = nil
	s.profileAt = time.Time{}
	s.loans = nil
	s.loansAt = time.Time{}
	s.score = nil
	s.scoreHash = ""
	s.lastSync = time.Time{}
	s.lastResult = nil
	s.states = make(map[string]State)
	s.mu.Unlock()

	s.deleteDurable(ctx,
		interfaces.CacheKeyUser,
		interfaces.CacheKeyProfile,
		interfaces.CacheKeyLoans,
		interfaces.CacheKeyScore,
		interfaces.CacheKeyScoreHash,
		interfaces.CacheKeyReports,
		interfaces.CacheKeyMetrics,
		interfaces.CacheKeyLastSync,
		interfaces.CacheKeyToken,
	)

	s.bus.Publish(events.TopicUser, (*models.UserIdentity)(nil))
	s.bus.Publish(events.TopicProfile, (*models.FinancialProfile)(nil))
	s.bus.Publish(events.TopicLoans, []*models.LoanAccount{})
	s.bus.Publish(events.TopicScore, (*models.CreditScore)(nil))

	s.logger.Info().Msg("All cached data cleared")
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Ensure Service implements SyncService
var _ interfaces.SyncService = (*Service)(nil)
