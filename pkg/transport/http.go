// Package transport performs authenticated GET requests against the compute
// API and hands back the decoded JSON document. It does not interpret the
// document structure and it never retries; both are the caller's concern.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/bcls/bcls/pkg/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Prometheus metrics for upstream API requests.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bcls_api_requests_total",
		Help: "Total compute API requests by status",
	}, []string{"status"})

	apiRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bcls_api_request_duration_seconds",
		Help:    "Compute API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})
)

// Document is the decoded JSON tree of one API response.
type Document = map[string]interface{}

// Error represents a transport-level failure: the request never completed,
// the status was non-success, or the body was not JSON.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("transport error for %s: %s: %v", e.URL, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("transport error for %s: %s (status %d)", e.URL, e.Message, e.StatusCode)
	default:
		return fmt.Sprintf("transport error for %s: %s", e.URL, e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Client issues bearer-authenticated GET requests returning decoded JSON.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a transport client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.NewLogger("transport"),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetJSON performs one authenticated GET and decodes the response body.
func (c *Client) GetJSON(ctx context.Context, token, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Message: "create request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	apiRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		apiRequestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Error().Err(err).Str("url", url).Msg("Request failed")
		return nil, &Error{URL: url, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error().
			Str("url", url).
			Int("status", resp.StatusCode).
			Msg("Non-success status")
		return nil, &Error{
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", firstLine(body)),
		}
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		c.logger.Error().Err(err).Str("url", url).Msg("Response body is not JSON")
		return nil, &Error{URL: url, Message: "decode response", Err: err}
	}

	c.logger.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request complete")

	return doc, nil
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
