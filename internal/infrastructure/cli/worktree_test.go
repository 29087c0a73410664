package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/felixgeelhaar/golem/pkg/infrastructure/git"
)

// cloneProject builds an upstream repository with one commit on main and
// returns a clone of it to act as the project root.
func cloneProject(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Dev")
	t.Setenv("GIT_AUTHOR_EMAIL", "dev@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Dev")
	t.Setenv("GIT_COMMITTER_EMAIL", "dev@example.com")

	runner := git.NewExecRunner()
	run := func(dir string, args ...string) {
		t.Helper()
		if _, err := runner.Run(context.Background(), dir, args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}

	base := t.TempDir()
	upstream := filepath.Join(base, "upstream")
	if err := os.MkdirAll(upstream, 0750); err != nil {
		t.Fatal(err)
	}
	run(upstream, "init")
	run(upstream, "symbolic-ref", "HEAD", "refs/heads/main")
	if err := os.WriteFile(filepath.Join(upstream, "README.md"), []byte("golem\n"), 0600); err != nil {
		t.Fatal(err)
	}
	run(upstream, "add", "-A")
	run(upstream, "commit", "-m", "initial")

	clone := filepath.Join(base, "clone")
	run(base, "clone", upstream, clone)

	// The clone may resolve through a symlinked temp dir; use git's view of it.
	root, err := runner.Run(context.Background(), clone, "rev-parse", "--show-toplevel")
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestWorktreeCreateCommitAndList(t *testing.T) {
	unsetRemoteEnv(t)
	root := cloneProject(t)
	seedTicket(t, root, "INC-1", ticket.StatusInProgress)

	out, err := runCLI(t, root, "worktree", "create", "INC-1")
	if err != nil {
		t.Fatalf("worktree create: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	path := lines[len(lines)-1]
	want := filepath.Join(root, ".golem", "worktrees", "fix", "INC-1-login-bug")
	if path != want {
		t.Fatalf("worktree path = %q, want %q", path, want)
	}

	// Second create reuses the worktree.
	out, err = runCLI(t, root, "worktree", "create", "INC-1")
	if err != nil {
		t.Fatalf("second worktree create: %v", err)
	}
	if !strings.Contains(out, "Worktree already exists") {
		t.Errorf("expected existing worktree, got %q", out)
	}

	out, err = runCLI(t, root, "git", "commit", "INC-1", "-m", "nothing yet")
	if err != nil {
		t.Fatalf("git commit: %v", err)
	}
	if !strings.Contains(out, "Nothing to commit") {
		t.Errorf("unexpected output %q", out)
	}

	if err := os.WriteFile(filepath.Join(path, "fix.txt"), []byte("fixed\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, root, "git", "commit", "INC-1", "-m", "fix: login"); err != nil {
		t.Fatalf("git commit: %v", err)
	}
	if commits := loadTicket(t, root, "INC-1").Git.Commits; len(commits) != 1 || len(commits[0]) != 40 {
		t.Errorf("expected one recorded commit, got %v", commits)
	}

	out, err = runCLI(t, root, "--json", "worktree", "list")
	if err != nil {
		t.Fatalf("worktree list: %v", err)
	}
	var worktrees []ticket.WorktreeInfo
	if err := json.Unmarshal([]byte(out), &worktrees); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	found := false
	for _, w := range worktrees {
		if w.Branch == "fix/INC-1-login-bug" && w.Path == want {
			found = true
		}
	}
	if !found {
		t.Errorf("worktree not listed: %+v", worktrees)
	}

	if _, err := runCLI(t, root, "worktree", "remove", path); err != nil {
		t.Fatalf("worktree remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected worktree directory removed, stat err = %v", err)
	}
}

func TestGitCommit_WithoutWorktree(t *testing.T) {
	unsetRemoteEnv(t)
	root := cloneProject(t)
	seedTicket(t, root, "INC-1", ticket.StatusInProgress)

	_, err := runCLI(t, root, "git", "commit", "INC-1", "-m", "msg")
	cliErr, ok := err.(*CLIError)
	if !ok || !strings.Contains(cliErr.Hint, "golem worktree create INC-1") {
		t.Errorf("expected hint to create the worktree, got %v", err)
	}
}
