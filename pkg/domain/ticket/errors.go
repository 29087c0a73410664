package ticket

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for ticket synchronization.
var (
	// ErrTicketNotFound indicates no local record exists for the id.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrInvalidFormat indicates a display id does not match PREFIX-digits.
	ErrInvalidFormat = errors.New("invalid ticket id format")

	// ErrRemote indicates a remote system answered with a non-success status.
	ErrRemote = errors.New("remote api error")

	// ErrGit indicates a git command exited non-zero.
	ErrGit = errors.New("git command failed")

	// ErrConfig indicates required configuration is missing.
	ErrConfig = errors.New("missing configuration")

	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidCommitType = errors.New("invalid commit type")
	ErrInvalidPriority   = errors.New("invalid priority")
)

// NotFoundError names the ticket that has no local record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "ticket " + e.ID + " not found"
}

// Is allows errors.Is to work with NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTicketNotFound
}

// InvalidFormatError carries the rejected input.
type InvalidFormatError struct {
	Input string
}

func (e *InvalidFormatError) Error() string {
	return "invalid ticket id format: " + e.Input
}

// Is allows errors.Is to work with InvalidFormatError.
func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// RemoteError is a non-2xx answer from the helpdesk or forge API.
type RemoteError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Service, e.StatusCode, e.Body)
}

// Is allows errors.Is to work with RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// GitError wraps a failed git invocation with its stderr.
type GitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	msg := "git " + strings.Join(e.Args, " ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to work with GitError.
func (e *GitError) Is(target error) bool {
	return target == ErrGit
}

// ConfigError lists the configuration keys that were required but absent.
type ConfigError struct {
	Component string
	Missing   []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Component, strings.Join(e.Missing, ", "))
}

// Is allows errors.Is to work with ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
