package downstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/middleware"
)

const maxErrorBody = 64 << 10

type Options struct {
	BaseURL string
	// Timeout bounds every request; zero means 10s.
	Timeout time.Duration
	// SlowThreshold triggers a warning log; zero means 1s.
	SlowThreshold time.Duration
	// Transport defaults to a tracing transport over http.DefaultTransport.
	Transport http.RoundTripper
}

// SessionSource resolves the session whose token authenticates a request.
type SessionSource interface {
	Session(ctx context.Context) (*domain.Session, error)
}

// ContextSessionSource reads the session the Session middleware stored in the request context.
type ContextSessionSource struct{}

func (ContextSessionSource) Session(ctx context.Context) (*domain.Session, error) {
	return middleware.GetSession(ctx), nil
}

// Client is the JSON transport to the KafeLog API. A client built with
// NewAuthClient attaches the caller's bearer token; NewPublicClient never does.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	slowThreshold time.Duration
	sessions      SessionSource
}

func NewPublicClient(opts Options) *Client {
	return newClient(opts, nil)
}

func NewAuthClient(opts Options, sessions SessionSource) *Client {
	if sessions == nil {
		sessions = ContextSessionSource{}
	}
	return newClient(opts, sessions)
}

func newClient(opts Options, sessions SessionSource) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = time.Second
	}
	transport := opts.Transport
	if transport == nil {
		transport = &middleware.TracingTransport{Base: http.DefaultTransport}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		slowThreshold: opts.SlowThreshold,
		sessions:      sessions,
	}
}

// GetJSON issues GET baseURL+path?query and decodes the 2xx body into out.
// Failures are logged and returned; nothing is retried here.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.HeaderXRequestID, reqID)
	}

	log := logger.Ctx(ctx).With().
		Str("method", req.Method).
		Str("path", path).
		Logger()

	if c.sessions != nil {
		c.attachSession(ctx, req)
	}

	log.Debug().Str("query", req.URL.RawQuery).Msg("api_request")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Int64("duration_ms", elapsed.Milliseconds()).Msg("api_network_error")
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := decodeError(resp)
		log.Error().
			Int("status", se.StatusCode).
			Str("upstream_error", se.Message).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("api_error")
		if c.sessions != nil && resp.StatusCode == http.StatusUnauthorized {
			log.Error().Msg("authentication failed, token may be invalid or expired")
		}
		return se
	}

	log.Info().
		Int("status", resp.StatusCode).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("api_response")
	if elapsed > c.slowThreshold {
		log.Warn().
			Int64("duration_ms", elapsed.Milliseconds()).
			Int64("threshold_ms", c.slowThreshold.Milliseconds()).
			Msg("api_slow_response")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) attachSession(ctx context.Context, req *http.Request) {
	log := logger.Ctx(ctx)

	s, err := c.sessions.Session(ctx)
	if err != nil {
		log.Error().Err(err).Msg("session lookup failed")
	}
	if s == nil || s.AccessToken == "" {
		log.Warn().Str("path", req.URL.Path).Msg("no session found, request sent without auth token")
		return
	}

	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	log.Debug().Msg("authorization header added to request")
}

func mapTransportError(err error) error {
	var ue *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ue) && ue.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func decodeError(resp *http.Response) *StatusError {
	se := &StatusError{
		StatusCode: resp.StatusCode,
		Code:       statusCode(resp.StatusCode),
		Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env domain.Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil {
		if msg := env.FailureMessage(); msg != "" {
			se.Message = msg
		}
	}
	return se
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "resource_not_found"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= 500 {
		return "upstream_error"
	}
	return "request_failed"
}
