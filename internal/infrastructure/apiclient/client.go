// Package apiclient is the HTTP collaborator for the remote shop API. It
// injects the bearer credential, tags every request with an X-Request-ID and
// normalises failures into the domain error taxonomy.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements ports.AuthAPI, ports.CatalogAPI and ports.OrderAPI over
// HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// New creates a new API client.
func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		log:        log.With().Str("component", "apiclient").Logger(),
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// call describes one remote operation.
type call struct {
	operation string
	method    string
	path      string
	token     string
	body      any
	// fallback is the message surfaced when the server gives none.
	fallback string
}

// do performs c and decodes a successful JSON body into out (which may be
// nil). Every failure comes back as a *domain.APIError.
func (c *Client) do(ctx context.Context, req call, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(req.operation).Observe(time.Since(start).Seconds())
		metrics.APIRequestsTotal.WithLabelValues(req.operation, outcome(err)).Inc()
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return domain.NewAPIError(domain.ErrFetch, 0, req.fallback)
		}
	}

	var body io.Reader
	if req.body != nil {
		payload, merr := json.Marshal(req.body)
		if merr != nil {
			return fmt.Errorf("marshal request: %w", merr)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn().Err(err).
			Str("operation", req.operation).
			Str("request_id", requestID).
			Msg("remote API unreachable")
		return domain.NewAPIError(domain.ErrFetch, 0, req.fallback)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := domain.NewAPIError(kindFor(resp.StatusCode), resp.StatusCode, errorMessage(raw, req.fallback))
		c.log.Debug().
			Str("operation", req.operation).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Str("message", apiErr.Message).
			Msg("remote API rejected request")
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn().Err(err).Str("operation", req.operation).Msg("undecodable response")
		return domain.NewAPIError(domain.ErrUnexpected, resp.StatusCode, req.fallback)
	}
	return nil
}

// kindFor maps an HTTP status onto the error taxonomy.
func kindFor(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuth
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrUnexpected
	}
}

// errorMessage extracts the server's "error" (or "message") field, falling
// back to the operation-specific text.
func errorMessage(raw []byte, fallback string) string {
	if gjson.ValidBytes(raw) {
		for _, field := range []string{"error", "message"} {
			if msg := gjson.GetBytes(raw, field); msg.Type == gjson.String && msg.Str != "" {
				return msg.Str
			}
		}
	}
	return fallback
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrFetch):
		return "fetch"
	default:
		return "unexpected"
	}
}
