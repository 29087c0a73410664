package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/felixgeelhaar/golem/pkg/storage"
)

type eventSink struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (s *eventSink) add(batch []ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
}

func (s *eventSink) waitFor(t *testing.T, id string) ChangeEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		for _, e := range s.events {
			if e.TicketID == id {
				s.mu.Unlock()
				return e
			}
		}
		s.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no change event for %s", id)
	return ChangeEvent{}
}

func (s *eventSink) ids() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]bool{}
	for _, e := range s.events {
		out[e.TicketID] = true
	}
	return out
}

func startWatcher(t *testing.T, dir string, sink *eventSink) context.CancelFunc {
	t.Helper()
	w, err := NewTicketWatcher(dir, 50*time.Millisecond, sink.add)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	t.Cleanup(cancel)
	time.Sleep(50 * time.Millisecond)
	return cancel
}

func TestTicketWatcher_ReportsSavedRecords(t *testing.T) {
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)
	sink := &eventSink{}
	startWatcher(t, repo.TicketsDir(), sink)

	state := ticket.NewState("INC-7", "watch-me", ticket.TypeFeat, time.Now())
	if err := repo.Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e := sink.waitFor(t, "INC-7")
	if e.Path != filepath.Join(repo.TicketsDir(), "INC-7.yaml") {
		t.Errorf("unexpected path %s", e.Path)
	}
	if e.Type == "" {
		t.Error("expected a change type")
	}
}

func TestTicketWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tickets")
	sink := &eventSink{}
	startWatcher(t, dir, sink)

	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SR-2.yaml"), []byte("id: SR-2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	sink.waitFor(t, "SR-2")
	for id := range sink.ids() {
		if id != "SR-2" {
			t.Errorf("unexpected event for %q", id)
		}
	}
}

func TestTicketWatcher_ContextCancellation(t *testing.T) {
	w, err := NewTicketWatcher(t.TempDir(), 50*time.Millisecond, func([]ChangeEvent) {})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop after context cancellation")
	}
}
