// Package git runs the git CLI on behalf of the worktree service. Commands
// target a directory through "git -C <dir>", so callers never depend on the
// process working directory.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
)

// DefaultTimeout bounds a single git invocation, including fetch and push.
const DefaultTimeout = 2 * time.Minute

// Runner executes a git command in dir and returns its trimmed stdout.
// A non-zero exit is reported as *ticket.GitError carrying stderr.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct {
	binary  string
	timeout time.Duration
	execute func(ctx context.Context, d time.Duration, fn func(context.Context) (string, error)) (string, error)
}

// NewExecRunner returns a runner with the default per-command timeout.
func NewExecRunner() *ExecRunner {
	return NewExecRunnerWithTimeout(DefaultTimeout)
}

// NewExecRunnerWithTimeout returns a runner whose commands are cancelled after d.
func NewExecRunnerWithTimeout(d time.Duration) *ExecRunner {
	if d <= 0 {
		d = DefaultTimeout
	}
	limiter := timeout.New[string](timeout.Config{DefaultTimeout: d})
	return &ExecRunner{
		binary:  "git",
		timeout: d,
		execute: limiter.Execute,
	}
}

// Run executes git -C dir args...
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	return r.execute(ctx, r.timeout, func(ctx context.Context) (string, error) {
		fullArgs := args
		if dir != "" {
			fullArgs = append([]string{"-C", dir}, args...)
		}

		var stdout, stderr bytes.Buffer
		// #nosec G204 -- arguments are passed as argv, never through a shell
		command := exec.CommandContext(ctx, r.binary, fullArgs...)
		command.Stdout = &stdout
		command.Stderr = &stderr

		if err := command.Run(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return "", &ticket.GitError{
				Args:   args,
				Stderr: strings.TrimSpace(stderr.String()),
				Err:    err,
			}
		}
		return strings.TrimSpace(stdout.String()), nil
	})
}
