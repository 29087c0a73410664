package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/golem/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/golem/pkg/application"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/spf13/cobra"
)

var worktreeCmd = &cobra.Command{
	Use:   "worktree",
	Short: "Manage per-ticket git worktrees",
}

// ticketWorktree loads the ticket record and a worktree service rooted at the
// enclosing repository.
func ticketWorktree(ctx context.Context, arg string) (*wiring.AppServices, *application.WorktreeService, *ticket.State, error) {
	id, err := normalizeID(arg)
	if err != nil {
		return nil, nil, nil, err
	}
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return nil, nil, nil, err
	}
	state, err := services.Tickets.Get(id)
	if err != nil {
		return nil, nil, nil, err
	}
	wt, err := services.BuildWorktreeService(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return services, wt, state, nil
}

// baseBranch prefers the flag, then the configured base. Empty means the
// repository default.
func baseBranch(services *wiring.AppServices, flag string) string {
	if flag != "" {
		return flag
	}
	return services.Workspace.Config.Git.BaseBranch
}

var worktreeBase string

var worktreeCreateCmd = &cobra.Command{
	Use:   "create <ticket>",
	Short: "Create the worktree for a ticket and print its path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, wt, state, err := ticketWorktree(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}

		result, err := wt.Create(cmd.Context(), state, baseBranch(services, worktreeBase))
		if err != nil {
			return MapError(fmt.Errorf("failed to create worktree: %w", err))
		}
		if jsonOutput {
			return printJSON(result)
		}
		printWarnings(result.Warnings)
		if result.Existing {
			fmt.Println(dimStyle.Render("Worktree already exists"))
		}
		// Bare path last so scripts can capture it.
		fmt.Println(result.Path)
		return nil
	},
}

var worktreeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List worktrees of the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		wt, err := services.BuildWorktreeService(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		worktrees, err := wt.ListWorktrees(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		if jsonOutput {
			return printJSON(worktrees)
		}
		for _, w := range worktrees {
			fmt.Println(boldStyle.Render(w.Branch))
			printDetail("%s", w.Path)
		}
		return nil
	},
}

var worktreeRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Force-remove a worktree; the branch is kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		wt, err := services.BuildWorktreeService(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", args[0], err)
		}
		if err := wt.Remove(cmd.Context(), path); err != nil {
			return MapError(fmt.Errorf("failed to remove worktree: %w", err))
		}
		printSuccess("Removed worktree")
		return nil
	},
}

func init() {
	worktreeCreateCmd.Flags().StringVarP(&worktreeBase, "base", "b", "", "Base branch (defaults to the repository default)")

	worktreeCmd.AddCommand(worktreeCreateCmd, worktreeListCmd, worktreeRemoveCmd)
	RootCmd.AddCommand(worktreeCmd)
}
