package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType names what happened to a record file.
type ChangeType string

const (
	ChangeCreated ChangeType = "create"
	ChangeWritten ChangeType = "write"
	ChangeRemoved ChangeType = "remove"
	ChangeRenamed ChangeType = "rename"
)

// ChangeEvent is a settled change to one ticket record.
type ChangeEvent struct {
	TicketID string
	Path     string
	Type     ChangeType
}

// TicketWatcher watches the tickets directory and reports changed records in
// batches, one event per ticket.
type TicketWatcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	filter   *Filter
	debounce time.Duration
	onChange func([]ChangeEvent)
	logger   *slog.Logger
}

// NewTicketWatcher creates the directory if needed and starts watching it.
func NewTicketWatcher(dir string, debounce time.Duration, onChange func([]ChangeEvent)) (*TicketWatcher, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create tickets directory: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if debounce == 0 {
		debounce = 300 * time.Millisecond
	}
	return &TicketWatcher{
		watcher:  w,
		dir:      dir,
		filter:   DefaultFilter(),
		debounce: debounce,
		onChange: onChange,
		logger:   slog.Default(),
	}, nil
}

// WithFilter replaces the record filter.
func (w *TicketWatcher) WithFilter(f *Filter) *TicketWatcher {
	w.filter = f
	return w
}

// WithLogger sets the logger used for skipped events.
func (w *TicketWatcher) WithLogger(logger *slog.Logger) *TicketWatcher {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// Dir returns the watched directory.
func (w *TicketWatcher) Dir() string {
	return w.dir
}

// Run blocks until the context is cancelled or the watcher fails.
func (w *TicketWatcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	batcher := NewBatcher(w.debounce, func(batch map[string]ChangeEvent) {
		if w.onChange == nil {
			return
		}
		events := make([]ChangeEvent, 0, len(batch))
		for _, e := range batch {
			events = append(events, e)
		}
		sort.Slice(events, func(i, j int) bool { return events[i].TicketID < events[j].TicketID })
		w.onChange(events)
	})
	defer batcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}
			id, ok := w.filter.TicketID(event.Name)
			if !ok {
				w.logger.Debug("ignoring non-record change", "path", event.Name, "op", event.Op.String())
				continue
			}
			batcher.Add(id, ChangeEvent{TicketID: id, Path: event.Name, Type: changeType})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func opToChangeType(op fsnotify.Op) ChangeType {
	switch {
	case op.Has(fsnotify.Create):
		return ChangeCreated
	case op.Has(fsnotify.Write):
		return ChangeWritten
	case op.Has(fsnotify.Remove):
		return ChangeRemoved
	case op.Has(fsnotify.Rename):
		return ChangeRenamed
	default:
		return ""
	}
}
