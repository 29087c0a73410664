package ticket

import (
	"errors"
	"testing"
	"time"
)

func TestNewState_DerivesBranchOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewState("INC-4521", "login-bug", TypeFix, now)

	if s.Git.Branch != "fix/INC-4521-login-bug" {
		t.Errorf("branch = %q", s.Git.Branch)
	}
	if s.Git.Worktree != ".golem/worktrees/fix/INC-4521-login-bug" {
		t.Errorf("worktree = %q", s.Git.Worktree)
	}
	if s.Status != StatusNew {
		t.Errorf("status = %q, want new", s.Status)
	}
	if s.Git.Commits == nil || len(s.Git.Commits) != 0 {
		t.Errorf("commits = %#v, want empty non-nil slice", s.Git.Commits)
	}

	// Changing slug or type later must not move the branch.
	s.Slug = "renamed"
	s.Type = TypeFeat
	if s.Git.Branch != "fix/INC-4521-login-bug" {
		t.Errorf("branch changed to %q", s.Git.Branch)
	}
}

func TestState_AppendCommit(t *testing.T) {
	s := NewState("SR-1", "x", TypeChore, time.Now())
	s.AppendCommit("aaa")
	s.AppendCommit("bbb")
	if len(s.Git.Commits) != 2 || s.Git.Commits[0] != "aaa" || s.Git.Commits[1] != "bbb" {
		t.Errorf("commits = %v", s.Git.Commits)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	if got, err := ParseStatus(" In-Progress "); err != nil || got != StatusInProgress {
		t.Errorf("ParseStatus mixed case = %q, %v", got, err)
	}
	if _, err := ParseStatus("closed"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestParseCommitTypeAndPriority(t *testing.T) {
	if got, err := ParseCommitType("FIX"); err != nil || got != TypeFix {
		t.Errorf("ParseCommitType = %q, %v", got, err)
	}
	if _, err := ParseCommitType("perf"); !errors.Is(err, ErrInvalidCommitType) {
		t.Errorf("expected ErrInvalidCommitType, got %v", err)
	}
	if p, err := ParsePriority("1"); err != nil || p != PriorityUrgent {
		t.Errorf("ParsePriority(1) = %d, %v", p, err)
	}
	for _, bad := range []string{"0", "5", "high"} {
		if _, err := ParsePriority(bad); !errors.Is(err, ErrInvalidPriority) {
			t.Errorf("ParsePriority(%q) expected ErrInvalidPriority, got %v", bad, err)
		}
	}
}

func TestErrors_Is(t *testing.T) {
	if !errors.Is(&NotFoundError{ID: "INC-1"}, ErrTicketNotFound) {
		t.Error("NotFoundError should match ErrTicketNotFound")
	}
	if !errors.Is(&RemoteError{Service: "gitea", StatusCode: 500}, ErrRemote) {
		t.Error("RemoteError should match ErrRemote")
	}
	if !errors.Is(&GitError{Args: []string{"status"}}, ErrGit) {
		t.Error("GitError should match ErrGit")
	}
	if !errors.Is(&ConfigError{Component: "gitea", Missing: []string{"GITEA_TOKEN"}}, ErrConfig) {
		t.Error("ConfigError should match ErrConfig")
	}
	gitErr := &GitError{Args: []string{"worktree", "add"}, Stderr: "fatal: already exists", Err: errors.New("exit status 128")}
	if got := gitErr.Error(); got != "git worktree add: exit status 128 (stderr: fatal: already exists)" {
		t.Errorf("GitError.Error() = %q", got)
	}
}
