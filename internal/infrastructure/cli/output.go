package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	boldStyle  = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusDone = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusWIP  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func statusStyle(s ticket.Status) lipgloss.Style {
	switch s {
	case ticket.StatusDone:
		return statusDone
	case ticket.StatusInProgress:
		return statusWIP
	case ticket.StatusBlocked:
		return statusErr
	default:
		return dimStyle
	}
}

func printJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func printSuccess(format string, args ...any) {
	fmt.Println(okStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

func printDetail(format string, args ...any) {
	fmt.Println(dimStyle.Render("  " + fmt.Sprintf(format, args...)))
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render("! "+w))
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func printTicketSummary(verb string, state *ticket.State) {
	printSuccess("%s ticket %s", verb, state.ID)
	if state.Fresh != nil {
		printDetail("Fresh: %s", state.Fresh.URL)
	}
	if state.Gitea != nil {
		printDetail("Gitea: %s", state.Gitea.URL)
	}
	printDetail("Branch: %s", state.Git.Branch)
	if state.Pending {
		printDetail("Pending: run 'golem ticket resume %s' to finish linking", state.ID)
	}
}
