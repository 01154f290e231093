package auth

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bcls/bcls/pkg/logging"
)

// GcloudSource obtains tokens by shelling out to the gcloud credential
// helper, the same credentials `gcloud compute` itself would use.
type GcloudSource struct {
	// binary is the gcloud executable to invoke. Overridable for tests.
	binary string
	logger zerolog.Logger
}

// NewGcloudSource creates a token source backed by the gcloud CLI.
func NewGcloudSource() *GcloudSource {
	return &GcloudSource{
		binary: "gcloud",
		logger: logging.NewLogger("auth"),
	}
}

// Token runs `gcloud auth application-default print-access-token` for the
// project and returns the trimmed token from stdout.
func (s *GcloudSource) Token(ctx context.Context, project string) (string, error) {
	s.logger.Debug().Str("project", project).Msg("Fetching access token via gcloud")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary, gcloudArgs(project)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return "", &CredentialError{Project: project, Err: err}
	}

	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", &CredentialError{Project: project, Err: fmt.Errorf("gcloud returned an empty token")}
	}

	return token, nil
}

func gcloudArgs(project string) []string {
	return []string{
		"auth",
		"application-default",
		"print-access-token",
		"--project",
		project,
	}
}
