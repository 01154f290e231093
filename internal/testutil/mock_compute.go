// Package testutil provides testing utilities for the compute listing
// client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
)

// MockCompute is a configurable mock of the aggregated-instances API for
// testing. Pages are registered by continuation token ("" for the first
// page); the zones endpoint serves a fixed body.
type MockCompute struct {
	server *httptest.Server
	mu     sync.RWMutex

	pages     map[string]string
	zonesBody string
	status    int

	// Tracking
	RequestCount   int
	AuthHeaders    []string
	Queries        []url.Values
	RequestedPaths []string
}

// NewMockCompute creates a new mock compute API server.
func NewMockCompute() *MockCompute {
	mock := &MockCompute{
		pages:  make(map[string]string),
		status: http.StatusOK,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.AuthHeaders = append(mock.AuthHeaders, r.Header.Get("Authorization"))
		mock.Queries = append(mock.Queries, r.URL.Query())
		mock.RequestedPaths = append(mock.RequestedPaths, r.URL.Path)
		status := mock.status
		mock.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": {"code": ` + strconv.Itoa(status) + `}}`))
			return
		}

		mock.mu.RLock()
		defer mock.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")

		if isZonesPath(r.URL.Path) && mock.zonesBody != "" {
			w.Write([]byte(mock.zonesBody))
			return
		}

		body, ok := mock.pages[r.URL.Query().Get("pageToken")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": {"code": 404}}`))
			return
		}
		w.Write([]byte(body))
	}))

	return mock
}

func isZonesPath(path string) bool {
	return len(path) >= len("/zones") && path[len(path)-len("/zones"):] == "/zones"
}

// URL returns the mock server URL, usable as the service base URL.
func (m *MockCompute) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCompute) Close() {
	m.server.Close()
}

// SetPage registers the response body served for the given page token.
func (m *MockCompute) SetPage(token, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[token] = body
}

// SetZones registers the response body of the zones endpoint.
func (m *MockCompute) SetZones(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zonesBody = body
}

// SetStatus makes every subsequent response fail with the given status.
func (m *MockCompute) SetStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Reset clears tracking counters and registered responses.
func (m *MockCompute) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.AuthHeaders = nil
	m.Queries = nil
	m.RequestedPaths = nil
	m.pages = make(map[string]string)
	m.zonesBody = ""
	m.status = http.StatusOK
}
