// bclsd exposes the instance listing as a small read-only HTTP service:
//
//	GET /healthz                              liveness
//	GET /metrics                              Prometheus metrics
//	GET /v1/{habitat}/instances?pattern=...   instance listing
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/bcls/bcls/pkg/auth"
	"github.com/bcls/bcls/pkg/compute"
	"github.com/bcls/bcls/pkg/config"
	"github.com/bcls/bcls/pkg/logging"
	"github.com/bcls/bcls/pkg/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type server struct {
	cfg       *config.File
	transport *transport.Client
	tokens    auth.TokenSource
	logger    zerolog.Logger

	// baseURL overrides the default API endpoint; tests point it at a mock.
	baseURL string
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/", s.handleInstances)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleInstances serves GET /v1/{habitat}/instances. Without a pattern
// query parameter it lists the habitat's whole fleet.
func (s *server) handleInstances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "v1" || parts[2] != "instances" {
		http.NotFound(w, r)
		return
	}
	habitatName := parts[1]

	habitat, err := s.cfg.Habitat(habitatName)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	svc, err := compute.New(compute.Config{
		Project:   habitat.Project,
		Transport: s.transport,
		Tokens:    s.tokens,
		BaseURL:   s.baseURL,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	start := time.Now()
	pattern := r.URL.Query().Get("pattern")

	var instances []compute.Instance
	if pattern == "" {
		instances, err = svc.ListAllInstances(r.Context())
	} else {
		instances, err = svc.ListInstances(r.Context(), pattern)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("habitat", habitatName).
			Str("pattern", pattern).
			Msg("Listing failed")
		s.writeError(w, listingStatus(err), err)
		return
	}

	s.logger.Debug().
		Str("habitat", habitatName).
		Str("pattern", pattern).
		Int("count", len(instances)).
		Dur("duration", time.Since(start)).
		Msg("Listing served")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"habitat":   habitatName,
		"count":     len(instances),
		"instances": instances,
	})
}

// listingStatus maps listing failures onto response codes: upstream and
// credential trouble is a gateway problem, malformed upstream data too.
func listingStatus(err error) int {
	var credErr *auth.CredentialError
	if errors.As(err, &credErr) {
		return http.StatusBadGateway
	}
	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		return http.StatusBadGateway
	}
	var decodeErr *compute.AggregateDecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func main() {
	addr := pflag.String("addr", ":8080", "listen address")
	configPath := pflag.String("config-path", "", "habitat config file (default ~/.bcls/config.toml)")
	authMode := pflag.String("auth", "gcloud", "token source: gcloud or adc")
	verbose := pflag.BoolP("verbose", "v", false, "verbose logging")
	pflag.Parse()

	level := logging.LevelInfo
	if *verbose {
		level = logging.LevelDebug
	}
	logging.Setup(logging.Config{Level: level})
	logger := logging.NewLogger("bclsd")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	var tokens auth.TokenSource
	switch *authMode {
	case "gcloud":
		tokens = auth.NewGcloudSource()
	case "adc":
		tokens = auth.NewADCSource()
	default:
		logger.Fatal().Str("auth", *authMode).Msg("Unknown auth mode")
	}

	srv := &server{
		cfg:       cfg,
		transport: transport.New(),
		tokens:    tokens,
		logger:    logger,
	}

	logger.Info().
		Str("addr", *addr).
		Strs("habitats", cfg.Habitats()).
		Msg("Starting bclsd")

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      srv.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "bclsd: %v\n", err)
		os.Exit(1)
	}
}
