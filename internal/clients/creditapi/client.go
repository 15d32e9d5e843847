// Package creditapi provides a client for the credit backend API
package creditapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/models"
)

const (
	DefaultBaseURL   = "http://127.0.0.1:8000/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// TokenSource supplies the bearer token for each request. The token lives in
// the durable store and may change when the user re-authenticates.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client implements the CreditAPIClient interface
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new credit API client
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a 4xx API error carrying the backend's validation map.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("credit API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// do performs a rate-limited request and decodes the JSON response into
// result (when non-nil). Failures are classified into the typed error
// taxonomy: no response is a NetworkError, 401 an AuthError, 404 a
// NotFoundError, 5xx a ServerError, and remaining 4xx an APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &models.AuthError{Detail: models.ErrorDetail{URL: reqURL}}
	}
	if expired, expErr := tokenExpired(token); expErr == nil && expired {
		// Short-circuit locally: a dead token never reaches the wire.
		return &models.AuthError{Detail: models.ErrorDetail{URL: reqURL}}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", path).Msg("Credit API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.NetworkError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		detail := models.ErrorDetail{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Body:       string(raw),
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return &models.AuthError{Detail: detail}
		case resp.StatusCode == http.StatusNotFound:
			return &models.NotFoundError{Entity: path}
		case resp.StatusCode >= 500:
			return &models.ServerError{Detail: detail}
		default:
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    string(raw),
				Endpoint:   path,
			}
		}
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetProfile retrieves the financial profile.
func (c *Client) GetProfile(ctx context.Context) (*models.FinancialProfile, error) {
	var profile models.FinancialProfile
	if err := c.do(ctx, http.MethodGet, "/financial/profile/", nil, &profile); err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			return nil, &models.NotFoundError{Entity: "financial profile"}
		}
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile writes profile fields and returns the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, profile *models.FinancialProfile) (*models.FinancialProfile, error) {
	var updated models.FinancialProfile
	if err := c.do(ctx, http.MethodPost, "/financial/profile/", profile, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// CalculateScore asks the backend to score the given profile fields.
func (c *Client) CalculateScore(ctx context.Context, profile *models.FinancialProfile) (*models.CreditScore, error) {
	var score models.CreditScore
	if err := c.do(ctx, http.MethodPost, "/financial/calculate-credit-score/", profile, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// ListLoans retrieves all loan accounts.
func (c *Client) ListLoans(ctx context.Context) ([]*models.LoanAccount, error) {
	loans := make([]*models.LoanAccount, 0)
	if err := c.do(ctx, http.MethodGet, "/financial/loans/", nil, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// CreateLoan creates a loan account and returns the created record.
func (c *Client) CreateLoan(ctx context.Context, loan *models.LoanAccount) (*models.LoanAccount, error) {
	var created models.LoanAccount
	if err := c.do(ctx, http.MethodPost, "/financial/loans/", loan, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteLoan removes a loan account by id.
func (c *Client) DeleteLoan(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/financial/loans/%d/", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			return &models.NotFoundError{Entity: fmt.Sprintf("loan %d", id)}
		}
		return err
	}
	return nil
}

// ListReports retrieves generated credit report references.
func (c *Client) ListReports(ctx context.Context) ([]*models.CreditReport, error) {
	reports := make([]*models.CreditReport, 0)
	if err := c.do(ctx, http.MethodGet, "/credit-report/reports/", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GenerateReport requests report generation for a user.
func (c *Client) GenerateReport(ctx context.Context, userID string) (*models.CreditReport, error) {
	var report models.CreditReport
	payload := map[string]string{"user_id": userID}
	if err := c.do(ctx, http.MethodPost, "/credit-report/reports/", payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetScoreHistory retrieves the backend's score history series.
func (c *Client) GetScoreHistory(ctx context.Context) ([]*models.ScoreHistoryEntry, error) {
	history := make([]*models.ScoreHistoryEntry, 0)
	if err := c.do(ctx, http.MethodGet, "/financial/credit-history/", nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Ensure Client implements CreditAPIClient
var _ interfaces.CreditAPIClient = (*Client)(nil)
