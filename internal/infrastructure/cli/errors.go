package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var cfgErr *ticket.ConfigError
	if errors.As(err, &cfgErr) {
		return NewCLIError(
			"missing configuration",
			fmt.Sprintf("Set %s in the environment or run 'golem config init'", strings.Join(cfgErr.Missing, ", ")),
			err,
		)
	}

	var notFound *ticket.NotFoundError
	if errors.As(err, &notFound) {
		return NewCLIError(
			fmt.Sprintf("ticket %s not found", notFound.ID),
			fmt.Sprintf("Run 'golem ticket list' to see local tickets, or 'golem ticket import %s'", notFound.ID),
			err,
		)
	}

	var remoteErr *ticket.RemoteError
	if errors.As(err, &remoteErr) {
		return NewCLIError(
			fmt.Sprintf("%s request failed", remoteErr.Service),
			fmt.Sprintf("Run 'golem %s test' to check credentials and connectivity", remoteCommand(remoteErr.Service)),
			err,
		)
	}

	var gitErr *ticket.GitError
	if errors.As(err, &gitErr) {
		return NewCLIError("git command failed", "Check the repository state with 'git status' in the worktree", err)
	}

	switch {
	case errors.Is(err, ticket.ErrTicketNotFound):
		return NewCLIError("ticket not found", "Run 'golem ticket list' to see local tickets", err)
	case errors.Is(err, ticket.ErrInvalidFormat):
		return NewCLIError("invalid ticket id", "Use a display id such as INC-4521 or SR-77, or the bare ticket number", err)
	case errors.Is(err, ticket.ErrInvalidStatus):
		return NewCLIError("invalid status", "Use one of: "+joinStatuses(), err)
	case errors.Is(err, ticket.ErrInvalidCommitType):
		return NewCLIError("invalid type", "Use one of: "+joinCommitTypes(), err)
	case errors.Is(err, ticket.ErrInvalidPriority):
		return NewCLIError("invalid priority", "Use 1 (urgent) to 4 (low)", err)
	}

	return err
}

func remoteCommand(service string) string {
	if service == "gitea" {
		return "gitea"
	}
	return "fresh"
}

func joinStatuses() string {
	names := make([]string, len(ticket.Statuses))
	for i, s := range ticket.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func joinCommitTypes() string {
	names := make([]string, len(ticket.CommitTypes))
	for i, t := range ticket.CommitTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
