package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/golem/pkg/application"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI of local tickets",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		tickets, err := services.Tickets.List(application.StatusFilter{})
		m := newDashboardModel(services.Workspace.Root, tickets, err)

		if os.Getenv("GOLEM_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Print(m.View())
			return nil
		}
		p := tea.NewProgram(m)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

type dashboardModel struct {
	table   table.Model
	root    string
	counts  map[ticket.Status]int
	pending int
	err     error
}

func newDashboardModel(root string, tickets []*ticket.State, err error) dashboardModel {
	if err != nil {
		return dashboardModel{root: root, err: err}
	}

	columns := []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Status", Width: 12},
		{Title: "Type", Width: 9},
		{Title: "Subject", Width: 40},
		{Title: "Commits", Width: 7},
		{Title: "Branch", Width: 40},
	}

	counts := make(map[ticket.Status]int)
	pending := 0
	rows := make([]table.Row, 0, len(tickets))
	for _, t := range tickets {
		counts[t.Status]++
		if t.Pending {
			pending++
		}
		rows = append(rows, table.Row{
			t.ID,
			string(t.Status),
			string(t.Type),
			t.Subject(),
			fmt.Sprintf("%d", len(t.Git.Commits)),
			t.Git.Branch,
		})
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	tbl.SetStyles(s)

	return dashboardModel{
		table:   tbl,
		root:    root,
		counts:  counts,
		pending: pending,
	}
}

func (m dashboardModel) Init() tea.Cmd { return nil }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m dashboardModel) summary() string {
	parts := make([]string, 0, len(ticket.Statuses))
	for _, s := range ticket.Statuses {
		if n := m.counts[s]; n > 0 {
			parts = append(parts, statusStyle(s).Render(fmt.Sprintf("%s %d", s, n)))
		}
	}
	if len(parts) == 0 {
		return dimStyle.Render("No tickets yet")
	}
	return strings.Join(parts, "  ")
}

func (m dashboardModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", m.err)
	}

	header := headerStyle.Render("golem " + m.root)

	pendingView := statusDone.Render("All tickets linked")
	if m.pending > 0 {
		pendingView = statusErr.Render(fmt.Sprintf("%d pending: run 'golem ticket resume <id>'", m.pending))
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			m.summary(),
			"",
			m.table.View(),
			pendingView,
		),
	) + "\n" + dimStyle.Render("↑/↓ to move, q to quit") + "\n"
}
