package git

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestExecRunner_Run(t *testing.T) {
	requireGit(t)
	out, err := NewExecRunner().Run(context.Background(), "", "--version")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(out, "git version") {
		t.Errorf("output = %q, want git version prefix", out)
	}
}

func TestExecRunner_FailureCarriesStderr(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()

	_, err := NewExecRunner().Run(context.Background(), dir, "rev-parse", "--show-toplevel")
	if err == nil {
		t.Fatal("expected error outside a repository")
	}
	if !errors.Is(err, ticket.ErrGit) {
		t.Errorf("expected ErrGit, got %v", err)
	}
	var gitErr *ticket.GitError
	if !errors.As(err, &gitErr) {
		t.Fatalf("expected *ticket.GitError, got %T", err)
	}
	if gitErr.Stderr == "" {
		t.Error("expected stderr to be captured")
	}
	if strings.Join(gitErr.Args, " ") != "rev-parse --show-toplevel" {
		t.Errorf("args = %v", gitErr.Args)
	}
}

func TestNewExecRunnerWithTimeout_DefaultsNonPositive(t *testing.T) {
	r := NewExecRunnerWithTimeout(0)
	if r.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, DefaultTimeout)
	}
	r = NewExecRunnerWithTimeout(5 * time.Second)
	if r.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", r.timeout)
	}
}
