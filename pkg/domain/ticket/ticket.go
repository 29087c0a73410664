// Package ticket holds the local ticket record that links a helpdesk ticket,
// a forge issue and a git branch, together with the capability interfaces the
// sync engine needs from the two remote systems.
package ticket

import (
	"path"
	"time"
)

// WorktreesDir is the project-relative directory holding per-ticket worktrees.
const WorktreesDir = ".golem/worktrees"

// State is the authoritative local record for one ticket.
type State struct {
	ID      string     `yaml:"id" json:"id"`
	Slug    string     `yaml:"slug" json:"slug"`
	Fresh   *FreshRef  `yaml:"fresh" json:"fresh"`
	Gitea   *GiteaRef  `yaml:"gitea" json:"gitea"`
	Git     GitRef     `yaml:"git" json:"git"`
	Status  Status     `yaml:"status" json:"status"`
	Type    CommitType `yaml:"type" json:"type"`
	Created time.Time  `yaml:"created" json:"created"`
	Updated time.Time  `yaml:"updated" json:"updated"`

	SpecFile string `yaml:"specFile,omitempty" json:"specFile,omitempty"`
	PlanFile string `yaml:"planFile,omitempty" json:"planFile,omitempty"`

	// Pending is set while remote entities exist but the link-back step
	// has not completed.
	Pending bool `yaml:"pending,omitempty" json:"pending,omitempty"`
}

// FreshRef mirrors the helpdesk ticket.
type FreshRef struct {
	ID          string `yaml:"id" json:"id"`
	URL         string `yaml:"url" json:"url"`
	Subject     string `yaml:"subject" json:"subject"`
	Description string `yaml:"description" json:"description"`
	Priority    int    `yaml:"priority" json:"priority"`
	Status      int    `yaml:"status" json:"status"`
}

// GiteaRef mirrors the forge issue and, once opened, its pull request.
type GiteaRef struct {
	Repo        string `yaml:"repo" json:"repo"`
	IssueNumber int    `yaml:"issueNumber" json:"issueNumber"`
	URL         string `yaml:"url" json:"url"`
	PRNumber    int    `yaml:"prNumber,omitempty" json:"prNumber,omitempty"`
	PRURL       string `yaml:"prUrl,omitempty" json:"prUrl,omitempty"`
}

// GitRef is the intended worktree mapping plus the commits recorded against the ticket.
type GitRef struct {
	Worktree string   `yaml:"worktree" json:"worktree"`
	Branch   string   `yaml:"branch" json:"branch"`
	Commits  []string `yaml:"commits" json:"commits"`
}

// WorktreeInfo describes a live worktree as reported by git. It is never persisted.
type WorktreeInfo struct {
	Path      string `json:"path"`
	Branch    string `json:"branch"`
	CommitSHA string `json:"commitSha"`
}

// BranchName derives the branch for a ticket: {type}/{id}-{slug}.
func BranchName(t CommitType, id, slug string) string {
	return string(t) + "/" + id + "-" + slug
}

// WorktreePath returns the project-relative worktree location for a branch.
func WorktreePath(branch string) string {
	return path.Join(WorktreesDir, branch)
}

// NewState builds a fresh record with the branch and worktree derived once.
func NewState(id, slug string, t CommitType, now time.Time) *State {
	branch := BranchName(t, id, slug)
	return &State{
		ID:   id,
		Slug: slug,
		Git: GitRef{
			Worktree: WorktreePath(branch),
			Branch:   branch,
			Commits:  []string{},
		},
		Status:  StatusNew,
		Type:    t,
		Created: now,
		Updated: now,
	}
}

// AppendCommit records a commit hash. Commits are never removed.
func (s *State) AppendCommit(sha string) {
	s.Git.Commits = append(s.Git.Commits, sha)
}

// Subject returns the helpdesk subject, falling back to the slug.
func (s *State) Subject() string {
	if s.Fresh != nil && s.Fresh.Subject != "" {
		return s.Fresh.Subject
	}
	return s.Slug
}
