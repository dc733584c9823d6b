// Package oddsapi is a client for The Odds API v4.
package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.the-odds-api.com"

	defaultRateLimit = 2.0
	defaultBurst     = 2
	defaultAttempts  = 3
	defaultBackoff   = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("odds api error %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying may help.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is an Odds API client with rate limiting, bounded retries and a
// circuit breaker.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.SugaredLogger

	maxAttempts int
	backoff     time.Duration
}

// ClientOption configures the client.
type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the total attempts per call and the first backoff delay.
func WithRetry(maxAttempts int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		c.maxAttempts = maxAttempts
		c.backoff = backoff
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.Sugar()
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:      zap.NewNop().Sugar(),
		maxAttempts: defaultAttempts,
		backoff:     defaultBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "odds-api",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		// Client errors say nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warnw("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c
}

// OddsQuery selects games and markets for GetOdds.
type OddsQuery struct {
	Regions string
	Markets []string
	From    time.Time
	To      time.Time
}

// GetOdds fetches upcoming games with their markets in American odds.
func (c *Client) GetOdds(ctx context.Context, sport string, q OddsQuery) ([]Event, error) {
	params := url.Values{}
	params.Set("regions", q.Regions)
	if params.Get("regions") == "" {
		params.Set("regions", "us")
	}
	markets := q.Markets
	if len(markets) == 0 {
		markets = []string{MarketH2H, MarketSpreads, MarketTotals}
	}
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")
	if !q.From.IsZero() {
		params.Set("commenceTimeFrom", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		params.Set("commenceTimeTo", q.To.UTC().Format(time.RFC3339))
	}

	var events []Event
	if err := c.get(ctx, "/v4/sports/"+url.PathEscape(sport)+"/odds", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetScores fetches live and completed games from the last daysFrom days (1-3).
func (c *Client) GetScores(ctx context.Context, sport string, daysFrom int) ([]ScoreEvent, error) {
	params := url.Values{}
	if daysFrom > 0 {
		params.Set("daysFrom", strconv.Itoa(daysFrom))
	}
	params.Set("dateFormat", "iso")

	var scores []ScoreEvent
	if err := c.get(ctx, "/v4/sports/"+url.PathEscape(sport)+"/scores", params, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// get performs a GET with retries. Only network errors, 429 and 5xx are
// retried, and never more than maxAttempts times.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	delay := c.backoff
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.do(ctx, path, params, result)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == c.maxAttempts {
			break
		}

		c.logger.Warnw("Odds API request failed, retrying",
			"path", path,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * 1.5)
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}

	return fmt.Errorf("odds api %s: %w", path, lastErr)
}

func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var decodeErr *json.SyntaxError
	return !errors.As(err, &decodeErr)
}

func (c *Client) do(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		c.logger.Debugw("Odds API quota", "remaining", remaining, "used", resp.Header.Get("x-requests-used"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
