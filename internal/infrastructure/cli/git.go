package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var gitCmd = &cobra.Command{
	Use:   "git",
	Short: "Commit, squash and push inside a ticket worktree",
}

var (
	squashMessage string
	squashBase    string
)

var gitSquashCmd = &cobra.Command{
	Use:   "squash <ticket>",
	Short: "Collapse the ticket's commits into one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, wt, state, err := ticketWorktree(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}

		sha, err := wt.Squash(cmd.Context(), wt.WorktreePath(state), squashMessage, baseBranch(services, squashBase))
		if err != nil {
			return MapError(fmt.Errorf("failed to squash: %w", err))
		}
		printSuccess("Squashed to %s", shortSHA(sha))
		fmt.Println(sha)
		return nil
	},
}

var pushForce bool

var gitPushCmd = &cobra.Command{
	Use:   "push <ticket>",
	Short: "Push the ticket branch to the remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, wt, state, err := ticketWorktree(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}
		if err := wt.Push(cmd.Context(), wt.WorktreePath(state), pushForce); err != nil {
			return MapError(fmt.Errorf("failed to push: %w", err))
		}
		printSuccess("Pushed %s", state.Git.Branch)
		return nil
	},
}

var commitMessage string

var gitCommitCmd = &cobra.Command{
	Use:   "commit <ticket>",
	Short: "Stage everything in the worktree, commit it and record the hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, wt, state, err := ticketWorktree(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}

		path := wt.WorktreePath(state)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return NewCLIError("worktree does not exist", fmt.Sprintf("Run 'golem worktree create %s' first", state.ID), err)
			}
			return err
		}

		sha, err := wt.CreateCommit(cmd.Context(), path, commitMessage)
		if err != nil {
			return MapError(fmt.Errorf("failed to commit: %w", err))
		}
		if sha == "" {
			fmt.Println(dimStyle.Render("Nothing to commit"))
			return nil
		}
		if err := services.Tickets.RecordCommit(cmd.Context(), state.ID, sha); err != nil {
			return MapError(err)
		}
		printSuccess("Committed %s", shortSHA(sha))
		return nil
	},
}

var gitRecordCmd = &cobra.Command{
	Use:   "record <ticket> <sha>",
	Short: "Record an existing commit against a ticket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := normalizeID(args[0])
		if err != nil {
			return MapError(err)
		}
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		if err := services.Tickets.RecordCommit(cmd.Context(), id, args[1]); err != nil {
			return MapError(err)
		}
		printSuccess("Recorded commit %s", shortSHA(args[1]))
		return nil
	},
}

func init() {
	gitSquashCmd.Flags().StringVarP(&squashMessage, "message", "m", "", "Message for the squashed commit")
	gitSquashCmd.Flags().StringVarP(&squashBase, "base", "b", "", "Base branch (defaults to the repository default)")
	_ = gitSquashCmd.MarkFlagRequired("message")

	gitPushCmd.Flags().BoolVarP(&pushForce, "force", "f", false, "Force push with lease")

	gitCommitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message")
	_ = gitCommitCmd.MarkFlagRequired("message")

	gitCmd.AddCommand(gitSquashCmd, gitPushCmd, gitCommitCmd, gitRecordCmd)
	RootCmd.AddCommand(gitCmd)
}
