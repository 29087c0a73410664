package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

var _ ticket.Store = (*FilesystemRepository)(nil)

// Load reads a ticket record. Missing, unreadable, invalid or unparseable
// records are reported as absent rather than as errors.
func (r *FilesystemRepository) Load(id string) (*ticket.State, bool) {
	path, err := r.TicketPath(id)
	if err != nil {
		r.logger.Debug("ticket record path rejected", "ticket_id", id, "error", err)
		return nil, false
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Debug("ticket record not accessible", "ticket_id", id, "error", err)
		}
		return nil, false
	}

	retryer := retry.New[[]byte](r.retryConfig)
	data, err := retryer.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is built from a validated id via TicketPath
		return os.ReadFile(path)
	})
	if err != nil {
		r.logger.Debug("failed to read ticket record", "ticket_id", id, "error", err)
		return nil, false
	}

	state, err := decodeRecord(data)
	if err != nil {
		r.logger.Debug("ignoring unparseable ticket record", "ticket_id", id, "error", err)
		return nil, false
	}
	return state, true
}

// Exists reports whether a readable record exists for id.
func (r *FilesystemRepository) Exists(id string) bool {
	_, ok := r.Load(id)
	return ok
}

// Save writes the full record, stamping its updated time. The file is replaced
// atomically so readers never observe a partial record.
func (r *FilesystemRepository) Save(s *ticket.State) error {
	if s == nil {
		return fmt.Errorf("ticket state is nil")
	}
	path, err := r.TicketPath(s.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.TicketsDir(), 0700); err != nil {
		return fmt.Errorf("failed to create tickets directory: %w", err)
	}

	s.Updated = r.now().UTC()
	if s.Created.IsZero() {
		s.Created = s.Updated
	}
	if s.Git.Commits == nil {
		s.Git.Commits = []string{}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket %s: %w", s.ID, err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write ticket %s: %w", s.ID, err)
	}
	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set permissions on ticket %s: %w", s.ID, err)
	}
	return nil
}

// AppendCommit records a commit against an existing ticket.
func (r *FilesystemRepository) AppendCommit(id, sha string) error {
	state, ok := r.Load(id)
	if !ok {
		return &ticket.NotFoundError{ID: id}
	}
	state.AppendCommit(sha)
	return r.Save(state)
}

// List returns every readable record in directory order.
func (r *FilesystemRepository) List() ([]*ticket.State, error) {
	entries, err := os.ReadDir(r.TicketsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*ticket.State{}, nil
		}
		return nil, fmt.Errorf("failed to read tickets directory: %w", err)
	}

	states := make([]*ticket.State, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, TicketExt) {
			continue
		}
		if state, ok := r.Load(strings.TrimSuffix(name, TicketExt)); ok {
			states = append(states, state)
		}
	}
	return states, nil
}

// ListByStatus returns records whose status matches; an empty status matches all.
func (r *FilesystemRepository) ListByStatus(status ticket.Status) ([]*ticket.State, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	filtered := make([]*ticket.State, 0, len(all))
	for _, s := range all {
		if s.Status == status {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// IDs returns the ids of all record files, sorted.
func (r *FilesystemRepository) IDs() ([]string, error) {
	entries, err := os.ReadDir(r.TicketsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tickets directory: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name := entry.Name(); !entry.IsDir() && strings.HasSuffix(name, TicketExt) {
			ids = append(ids, strings.TrimSuffix(name, TicketExt))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func decodeRecord(data []byte) (*ticket.State, error) {
	if err := validateRecord(data); err != nil {
		return nil, err
	}
	var s ticket.State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket: %w", err)
	}
	if s.Git.Commits == nil {
		s.Git.Commits = []string{}
	}
	return &s, nil
}
