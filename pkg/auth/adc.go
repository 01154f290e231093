package auth

import (
	"context"

	"golang.org/x/oauth2/google"
)

// ComputeReadOnlyScope is the OAuth scope needed for listing instances.
const ComputeReadOnlyScope = "https://www.googleapis.com/auth/compute.readonly"

// ADCSource obtains tokens from Application Default Credentials
// (GOOGLE_APPLICATION_CREDENTIALS, the gcloud ADC file, or the metadata
// server when running on GCP) without shelling out.
type ADCSource struct {
	scopes []string
}

// NewADCSource creates an ADC-backed token source. With no scopes given the
// read-only compute scope is requested.
func NewADCSource(scopes ...string) *ADCSource {
	if len(scopes) == 0 {
		scopes = []string{ComputeReadOnlyScope}
	}
	return &ADCSource{scopes: scopes}
}

// Token resolves default credentials and returns a fresh access token.
func (s *ADCSource) Token(ctx context.Context, project string) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, s.scopes...)
	if err != nil {
		return "", &CredentialError{Project: project, Err: err}
	}

	tok, err := creds.TokenSource.Token()
	if err != nil {
		return "", &CredentialError{Project: project, Err: err}
	}

	return tok.AccessToken, nil
}
