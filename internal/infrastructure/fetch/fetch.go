// Package fetch performs single time-boxed JSON calls against remote services
// and normalizes their failures into the domain error taxonomy.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tumeware/SnackBar/internal/domain"
)

// DefaultTimeout applies when a caller passes no timeout
const DefaultTimeout = 15 * time.Second

const defaultUserAgent = "SnackBar/1.0"

// Request describes one outbound call
type Request struct {
	Method  string
	URL     string
	Body    interface{}
	Headers map[string]string
}

// Config holds the tunables of a Fetcher
type Config struct {
	UserAgent string
	// RateLimit is the sustained number of requests per second; zero disables limiting
	RateLimit float64
	RateBurst int
}

// Fetcher issues HTTP calls with an enforced per-call deadline
type Fetcher struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	logger      zerolog.Logger
}

// New creates a Fetcher. Deadlines come from each call, so the
// underlying http.Client carries no global timeout.
func New(config Config, logger zerolog.Logger) *Fetcher {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Fetcher{
		httpClient:  &http.Client{},
		rateLimiter: limiter,
		userAgent:   userAgent,
		logger:      logger.With().Str("component", "fetch").Logger(),
	}
}

// Fetch executes the request and decodes a 2xx JSON answer into out.
// It fails with domain.ErrTimedOut, domain.ErrTransportFailure,
// *domain.RemoteError or domain.ErrInvalidResponse.
func (f *Fetcher) Fetch(ctx context.Context, request Request, timeout time.Duration, out interface{}) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The limiter refuses up front when the wait would outlast the deadline
	if err := f.rateLimiter.Wait(reqCtx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		f.logger.Warn().Err(err).Msg("rate limiter wait exceeded the deadline")
		return fmt.Errorf("%w: %v", domain.ErrTimedOut, err)
	}

	req, err := f.newRequest(reqCtx, request)
	if err != nil {
		return err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return f.classify(ctx, reqCtx, request, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return f.classify(ctx, reqCtx, request, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remoteErr := domain.NewRemoteError(resp.StatusCode, string(body))
		f.logger.Warn().
			Str("method", req.Method).
			Str("host", req.URL.Host).
			Int("status", resp.StatusCode).
			Str("body", remoteErr.BodyExcerpt).
			Msg("remote returned an error status")
		return remoteErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	return nil
}

// newRequest builds the http.Request with JSON headers, letting caller headers win
func (f *Fetcher) newRequest(ctx context.Context, request Request) (*http.Request, error) {
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if request.Body != nil {
		payload, err := json.Marshal(request.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, request.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)
	for name, value := range request.Headers {
		req.Header.Set(name, value)
	}

	return req, nil
}

// classify maps a failed call onto the domain taxonomy.
// A cancelled parent context is passed through untouched.
func (f *Fetcher) classify(parent, reqCtx context.Context, request Request, err error) error {
	event := f.logger.Warn().Str("method", request.Method).Err(err)

	if errors.Is(parent.Err(), context.Canceled) {
		event.Msg("request cancelled by caller")
		return fmt.Errorf("request cancelled: %w", parent.Err())
	}

	if reqCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		event.Msg("request timed out")
		return fmt.Errorf("%w: %v", domain.ErrTimedOut, err)
	}

	event.Msg("request failed")
	return fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
}
