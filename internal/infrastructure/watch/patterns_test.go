package watch_test

import (
	"testing"

	"github.com/felixgeelhaar/golem/internal/infrastructure/watch"
)

func TestDefaultFilter_TicketID(t *testing.T) {
	f := watch.DefaultFilter()

	tests := []struct {
		path string
		id   string
		ok   bool
	}{
		{"/repo/.golem/tickets/INC-4521.yaml", "INC-4521", true},
		{"SR-7.yaml", "SR-7", true},
		{"/repo/.golem/tickets/INC-4521.yaml123456", "", false},
		{"/repo/.golem/tickets/.INC-1.yaml", "", false},
		{"/repo/.golem/tickets/INC-1.yaml~", "", false},
		{"/repo/.golem/tickets/notes.md", "", false},
		{".yaml", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			id, ok := f.TicketID(tt.path)
			if id != tt.id || ok != tt.ok {
				t.Errorf("TicketID(%q) = %q, %v; want %q, %v", tt.path, id, ok, tt.id, tt.ok)
			}
		})
	}
}

func TestFilter_ExcludeTakesPrecedence(t *testing.T) {
	f := watch.NewFilter([]string{"*.yaml"}, []string{"draft-*"})

	if f.Matches("draft-INC-1.yaml") {
		t.Error("excluded file should not match")
	}
	if !f.Matches("INC-1.yaml") {
		t.Error("included file should match")
	}
}

func TestFilter_Empty(t *testing.T) {
	f := watch.NewFilter(nil, nil)
	if !f.Matches("anything.txt") {
		t.Error("empty filter should match everything")
	}
}
