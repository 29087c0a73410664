package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/golem/internal/infrastructure/watch"
	"github.com/felixgeelhaar/golem/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
)

func dashboardTickets() []*ticket.State {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := ticket.NewState("INC-1", "login-bug", ticket.TypeFix, now)
	a.Status = ticket.StatusInProgress
	a.Fresh = &ticket.FreshRef{ID: "INC-1", Subject: "Fix login bug"}
	b := ticket.NewState("SR-2", "export", ticket.TypeFeat, now)
	b.Status = ticket.StatusInProgress
	b.Pending = true
	c := ticket.NewState("INC-3", "docs", ticket.TypeDocs, now)
	c.Status = ticket.StatusDone
	return []*ticket.State{a, b, c}
}

func TestDashboardModel_View(t *testing.T) {
	m := newDashboardModel("/repo", dashboardTickets(), nil)

	if m.counts[ticket.StatusInProgress] != 2 || m.counts[ticket.StatusDone] != 1 || m.pending != 1 {
		t.Fatalf("unexpected counts %v pending=%d", m.counts, m.pending)
	}

	view := m.View()
	for _, want := range []string{"golem /repo", "in-progress 2", "done 1", "Fix login bug", "1 pending"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDashboardModel_Error(t *testing.T) {
	m := newDashboardModel("/repo", nil, errors.New("boom"))
	if !strings.Contains(m.View(), "Error loading dashboard: boom") {
		t.Errorf("unexpected view %q", m.View())
	}
}

func TestDashboardModel_Quit(t *testing.T) {
	m := newDashboardModel("/repo", dashboardTickets(), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestDescribeChange(t *testing.T) {
	unsetRemoteEnv(t)
	root := t.TempDir()
	seedTicket(t, root, "INC-1", ticket.StatusReview)

	services, err := wiring.BuildAppServices(root, nil)
	if err != nil {
		t.Fatalf("BuildAppServices: %v", err)
	}

	line := describeChange(services.Tickets, watch.ChangeEvent{TicketID: "INC-1", Type: watch.ChangeWritten})
	if !strings.Contains(line, "INC-1 [review] login-bug") {
		t.Errorf("unexpected line %q", line)
	}

	line = describeChange(services.Tickets, watch.ChangeEvent{TicketID: "INC-1", Type: watch.ChangeRemoved})
	if !strings.Contains(line, "removed") {
		t.Errorf("unexpected line %q", line)
	}

	line = describeChange(services.Tickets, watch.ChangeEvent{TicketID: "INC-9", Type: watch.ChangeCreated})
	if !strings.Contains(line, "unreadable") {
		t.Errorf("unexpected line %q", line)
	}
}
