package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath string
	jsonOutput  bool
	verbose     bool
	noColor     bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "golem",
	Version: Version,
	Short:   "Keep helpdesk tickets, forge issues and git branches in lockstep",
	Long: `Golem links a Freshservice ticket, a Gitea issue and a git branch under one
display id (INC-4521, SR-77) and keeps the local record authoritative.

Every ticket gets its own worktree under .golem/worktrees so work on
several tickets can proceed side by side.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(verbose))
		if noColor || os.Getenv("NO_COLOR") != "" {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err == nil {
		return nil
	}

	err = MapError(err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cliErr.Hint)
	}
	return err
}

func init() {
	RootCmd.SetVersionTemplate(fmt.Sprintf("golem %s (commit %s, built %s)\n", Version, Commit, Date))
	RootCmd.PersistentFlags().StringVar(&projectPath, "project", "", "Project root (defaults to the current directory)")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine readable JSON")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output (also honors NO_COLOR)")
}
