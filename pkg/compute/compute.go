// Package compute lists VM instances of a project through the aggregated
// compute API: a token-chained sequence of pages, each keyed by zone, each
// zone carrying raw instance objects that are strictly decoded into
// Instance records.
//
// The listing is all-or-nothing: if any record in any page fails to decode
// the whole call fails with a single AggregateDecodeError, so an incomplete
// fleet view is never presented as complete.
package compute

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/bcls/bcls/pkg/auth"
	"github.com/bcls/bcls/pkg/logging"
	"github.com/bcls/bcls/pkg/transport"
)

// DefaultBaseURL is the production compute API endpoint.
const DefaultBaseURL = "https://compute.googleapis.com/compute/v1"

// Prometheus metrics for listing traversals.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bcls_pages_fetched_total",
		Help: "Total aggregated-list pages fetched",
	})

	decodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bcls_decode_errors_total",
		Help: "Total instance records that failed to decode",
	})

	instancesListedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bcls_instances_listed_total",
		Help: "Total instances returned by successful listings",
	})
)

// Getter is the HTTP collaborator: one authenticated GET returning the
// decoded JSON document. Implemented by *transport.Client; tests inject
// fixed-response fakes.
type Getter interface {
	GetJSON(ctx context.Context, token, url string) (transport.Document, error)
}

// Config holds the listing service configuration.
type Config struct {
	// Project is the GCP project to list.
	Project string

	// Transport performs the HTTP requests.
	Transport Getter

	// Tokens provides the bearer token, fetched once per listing call.
	Tokens auth.TokenSource

	// BaseURL overrides the API endpoint (for tests). Defaults to
	// DefaultBaseURL.
	BaseURL string
}

// Service lists instances and zones of one project.
type Service struct {
	project   string
	transport Getter
	tokens    auth.TokenSource
	baseURL   string
	logger    zerolog.Logger
}

// New creates a listing service.
func New(cfg Config) (*Service, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("project is required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Service{
		project:   cfg.Project,
		transport: cfg.Transport,
		tokens:    cfg.Tokens,
		baseURL:   baseURL,
		logger:    logging.NewLogger("compute"),
	}, nil
}

// ListInstances lists the instances whose names match pattern, using the
// server-side filter expression (name eq .*pattern.*). An empty pattern
// lists the full fleet.
func (s *Service) ListInstances(ctx context.Context, pattern string) ([]Instance, error) {
	return s.list(ctx, pattern)
}

// ListAllInstances lists the full fleet without any name filter.
func (s *Service) ListAllInstances(ctx context.Context) ([]Instance, error) {
	return s.list(ctx, "")
}

func (s *Service) list(ctx context.Context, filter string) ([]Instance, error) {
	// One token per invocation, reused across all pages. A credential
	// failure aborts before any fetch.
	token, err := s.tokens.Token(ctx, s.project)
	if err != nil {
		return nil, err
	}

	p := &pager{
		transport: s.transport,
		logger:    s.logger,
		project:   s.project,
		baseURL:   s.baseURL,
		filter:    filter,
		authToken: token,
	}

	var instances []Instance
	var decodeErrs []error
	pages := 0
	for {
		result, err := p.next(ctx)
		if err != nil {
			return nil, err
		}
		if result == nil {
			break
		}
		pages++
		instances = append(instances, result.instances...)
		decodeErrs = append(decodeErrs, result.decodeErrs...)
	}

	if len(decodeErrs) > 0 {
		s.logger.Error().
			Str("project", s.project).
			Int("failed_records", len(decodeErrs)).
			Msg("Listing failed, discarding partial results")
		return nil, &AggregateDecodeError{Causes: decodeErrs}
	}

	instancesListedTotal.Add(float64(len(instances)))
	s.logger.Debug().
		Str("project", s.project).
		Int("pages", pages).
		Int("instances", len(instances)).
		Msg("Listing complete")

	return instances, nil
}

// ListZones lists the zone names available to the project.
func (s *Service) ListZones(ctx context.Context) ([]string, error) {
	token, err := s.tokens.Token(ctx, s.project)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/projects/%s/zones", s.baseURL, s.project)
	doc, err := s.transport.GetJSON(ctx, token, url)
	if err != nil {
		return nil, err
	}

	items, ok := doc["items"].([]interface{})
	if !ok {
		return nil, &transport.Error{URL: url, Message: ErrNoItems.Error(), Err: ErrNoItems}
	}

	zones := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, &MissingFieldError{Field: "name"}
		}
		name, ok := obj["name"].(string)
		if !ok {
			return nil, &MissingFieldError{Field: "name"}
		}
		zones = append(zones, name)
	}

	return zones, nil
}
