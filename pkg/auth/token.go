// Package auth provides bearer token sources for the compute API.
//
// A listing invocation obtains exactly one token up front and reuses it for
// every page of the traversal. Token acquisition failures abort the call
// before any request is made.
package auth

import (
	"context"
	"fmt"
)

// TokenSource retrieves a bearer token for the given project.
type TokenSource interface {
	Token(ctx context.Context, project string) (string, error)
}

// CredentialError wraps a token acquisition failure for a project.
type CredentialError struct {
	Project string
	Err     error
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential error for project %q: %v", e.Project, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CredentialError) Unwrap() error {
	return e.Err
}

// StaticSource returns a fixed token. Intended for tests and for callers
// that manage credentials themselves.
type StaticSource struct {
	token string
}

// NewStaticSource creates a StaticSource returning the given token.
func NewStaticSource(token string) *StaticSource {
	return &StaticSource{token: token}
}

// Token returns the configured token.
func (s *StaticSource) Token(_ context.Context, _ string) (string, error) {
	return s.token, nil
}
