package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/felixgeelhaar/golem/pkg/infrastructure/git"
)

const defaultRemote = "origin"

// WorktreeOptions configures a WorktreeService.
type WorktreeOptions struct {
	// Remote defaults to origin.
	Remote string
	Logger *slog.Logger
}

// CreateWorktreeResult reports where a ticket's worktree lives and any
// best-effort steps that failed on the way.
type CreateWorktreeResult struct {
	Path     string   `json:"path"`
	Branch   string   `json:"branch"`
	Existing bool     `json:"existing"`
	Warnings []string `json:"warnings,omitempty"`
}

// WorktreeService maps tickets to isolated git worktrees and rewrites their history.
type WorktreeService struct {
	runner git.Runner
	root   string
	remote string
	logger *slog.Logger
}

// NewWorktreeService resolves the repository containing dir once. It fails
// with a *ticket.GitError when dir is not inside a git repository.
func NewWorktreeService(ctx context.Context, runner git.Runner, dir string, opts WorktreeOptions) (*WorktreeService, error) {
	root, err := runner.Run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %w", err)
	}
	if root == "" {
		return nil, &ticket.GitError{Args: []string{"rev-parse", "--show-toplevel"}, Err: errors.New("empty repository root")}
	}

	if opts.Remote == "" {
		opts.Remote = defaultRemote
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &WorktreeService{
		runner:       runner,
		root:         root,
		remote:       opts.Remote,
		logger:       opts.Logger,
	}, nil
}

// RepoRoot returns the resolved repository root.
func (s *WorktreeService) RepoRoot() string {
	return s.root
}

// WorktreePath returns the absolute path a ticket's worktree should live at.
func (s *WorktreeService) WorktreePath(state *ticket.State) string {
	if filepath.IsAbs(state.Git.Worktree) {
		return state.Git.Worktree
	}
	return filepath.Join(s.root, filepath.FromSlash(state.Git.Worktree))
}

// DefaultBranch resolves the remote's default branch, falling back to a local
// main and then master.
func (s *WorktreeService) DefaultBranch(ctx context.Context) (string, error) {
	prefix := "refs/remotes/" + s.remote + "/"
	if ref, err := s.runner.Run(ctx, s.root, "symbolic-ref", prefix+"HEAD"); err == nil && ref != "" {
		return strings.TrimPrefix(ref, prefix), nil
	}

	var lastErr error
	for _, candidate := range []string{"main", "master"} {
		if _, err := s.runner.Run(ctx, s.root, "rev-parse", "--verify", candidate); err != nil {
			lastErr = err
			continue
		}
		return candidate, nil
	}
	return "", fmt.Errorf("no default branch found: %w", lastErr)
}

func (s *WorktreeService) resolveBase(ctx context.Context, base string) (string, error) {
	if base != "" {
		return base, nil
	}
	return s.DefaultBranch(ctx)
}

// ListWorktrees returns every worktree git reports with a path, branch and head.
// Detached and bare entries are skipped.
func (s *WorktreeService) ListWorktrees(ctx context.Context) ([]ticket.WorktreeInfo, error) {
	out, err := s.runner.Run(ctx, s.root, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseWorktreeList(out), nil
}

func parseWorktreeList(out string) []ticket.WorktreeInfo {
	var worktrees []ticket.WorktreeInfo
	var current ticket.WorktreeInfo

	flush := func() {
		if current.Path != "" && current.Branch != "" && current.CommitSHA != "" {
			worktrees = append(worktrees, current)
		}
		current = ticket.WorktreeInfo{}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			current.CommitSHA = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		}
	}
	flush()

	return worktrees
}

// FindWorktree returns the live worktree checked out on branch, or nil.
func (s *WorktreeService) FindWorktree(ctx context.Context, branch string) (*ticket.WorktreeInfo, error) {
	worktrees, err := s.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	for i := range worktrees {
		if worktrees[i].Branch == branch {
			return &worktrees[i], nil
		}
	}
	return nil, nil
}

// Create makes the ticket's worktree on a new branch cut from
// {remote}/{base}. If a worktree for the branch already exists its path is
// returned unchanged. A failed fetch is reported as a warning.
func (s *WorktreeService) Create(ctx context.Context, state *ticket.State, base string) (*CreateWorktreeResult, error) {
	branch := state.Git.Branch
	if branch == "" {
		return nil, fmt.Errorf("ticket %s has no branch", state.ID)
	}

	path := s.WorktreePath(state)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create worktrees directory: %w", err)
	}

	existing, err := s.FindWorktree(ctx, branch)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &CreateWorktreeResult{Path: existing.Path, Branch: branch, Existing: true}, nil
	}

	result := &CreateWorktreeResult{Path: path, Branch: branch}

	if _, err := s.runner.Run(ctx, s.root, "fetch", s.remote); err != nil {
		s.logger.Warn("fetch failed, continuing offline", "remote", s.remote, "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("fetch %s failed: %v", s.remote, err))
	}

	base, err = s.resolveBase(ctx, base)
	if err != nil {
		return nil, err
	}

	if _, err := s.runner.Run(ctx, s.root, "worktree", "add", "-b", branch, result.Path, s.remote+"/"+base); err != nil {
		return nil, err
	}

	s.logger.Info("worktree created", "ticket_id", state.ID, "branch", branch, "path", result.Path)
	return result, nil
}

// Remove force-removes a worktree registration. A path that no longer exists
// is treated as already removed. The branch is kept.
func (s *WorktreeService) Remove(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to access worktree %s: %w", path, err)
	}
	_, err := s.runner.Run(ctx, s.root, "worktree", "remove", path, "--force")
	return err
}

// CurrentBranch returns the branch checked out in a worktree.
func (s *WorktreeService) CurrentBranch(ctx context.Context, path string) (string, error) {
	return s.runner.Run(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
}

// CommitsSinceBase lists hashes on HEAD that are not on {remote}/{base}, newest first.
func (s *WorktreeService) CommitsSinceBase(ctx context.Context, path, base string) ([]string, error) {
	base, err := s.resolveBase(ctx, base)
	if err != nil {
		return nil, err
	}
	out, err := s.runner.Run(ctx, path, "log", s.remote+"/"+base+"..HEAD", "--format=%H")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Squash collapses every commit since the merge base with {remote}/{base}
// into a single commit and returns its hash. No backup ref is kept.
func (s *WorktreeService) Squash(ctx context.Context, path, message, base string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("squash message cannot be empty")
	}
	base, err := s.resolveBase(ctx, base)
	if err != nil {
		return "", err
	}

	mergeBase, err := s.runner.Run(ctx, path, "merge-base", s.remote+"/"+base, "HEAD")
	if err != nil {
		return "", err
	}
	if _, err := s.runner.Run(ctx, path, "reset", "--soft", mergeBase); err != nil {
		return "", err
	}
	if _, err := s.runner.Run(ctx, path, "commit", "-m", message); err != nil {
		return "", err
	}
	return s.runner.Run(ctx, path, "rev-parse", "HEAD")
}

// CreateCommit stages everything and commits it. An empty hash means there
// was nothing to commit.
func (s *WorktreeService) CreateCommit(ctx context.Context, path, message string) (string, error) {
	if _, err := s.runner.Run(ctx, path, "add", "-A"); err != nil {
		return "", err
	}
	// diff --cached --quiet exits 0 when nothing is staged.
	if _, err := s.runner.Run(ctx, path, "diff", "--cached", "--quiet"); err == nil {
		return "", nil
	}
	if _, err := s.runner.Run(ctx, path, "commit", "-m", message); err != nil {
		return "", err
	}
	return s.runner.Run(ctx, path, "rev-parse", "HEAD")
}

// Push publishes HEAD to a same-named upstream branch. Forced pushes use
// --force-with-lease so a remote that moved since the last fetch is not clobbered.
func (s *WorktreeService) Push(ctx context.Context, path string, force bool) error {
	args := []string{"push", "-u", s.remote, "HEAD"}
	if force {
		args = append(args, "--force-with-lease")
	}
	_, err := s.runner.Run(ctx, path, args...)
	return err
}

func splitLines(out string) []string {
	lines := []string{}
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
