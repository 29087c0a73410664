package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

const GolemDir = ".golem"
const TicketsDir = "tickets"
const ConfigFile = "config.yaml"
const TicketExt = ".yaml"

// recordIDPattern restricts record ids to a single safe path segment.
var recordIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
	logger      *slog.Logger
	now         func() time.Time
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
}

// WithLogger sets the logger used for soft failures.
func (r *FilesystemRepository) WithLogger(logger *slog.Logger) *FilesystemRepository {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithClock overrides the clock used to stamp updated times.
func (r *FilesystemRepository) WithClock(now func() time.Time) *FilesystemRepository {
	if now != nil {
		r.now = now
	}
	return r
}

// Root returns the project root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// Dir returns the .golem directory.
func (r *FilesystemRepository) Dir() string {
	return filepath.Join(r.root, GolemDir)
}

// TicketsDir returns the directory holding one record per ticket.
func (r *FilesystemRepository) TicketsDir() string {
	return filepath.Join(r.root, GolemDir, TicketsDir)
}

// ResolvePath ensures the path is a direct child of the .golem directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := r.Dir()
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

// TicketPath returns the record file for a ticket id.
func (r *FilesystemRepository) TicketPath(id string) (string, error) {
	if !recordIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid ticket id for record path: %q", id)
	}
	return filepath.Join(r.TicketsDir(), id+TicketExt), nil
}

func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(r.TicketsDir(), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", GolemDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(r.Dir())
	return err == nil
}
