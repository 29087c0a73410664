package ticket

import (
	"context"
	"time"
)

// FreshTicket is the subset of a helpdesk ticket the engine reads.
type FreshTicket struct {
	ID              int64          `json:"id"`
	Subject         string         `json:"subject"`
	Description     string         `json:"description"`
	DescriptionText string         `json:"description_text"`
	Status          int            `json:"status"`
	Priority        int            `json:"priority"`
	TicketType      string         `json:"ticket_type"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	RequesterID     int64          `json:"requester_id"`
	ResponderID     int64          `json:"responder_id"`
	CustomFields    map[string]any `json:"custom_fields,omitempty"`
}

// DisplayID renders the ticket's number with its type prefix.
func (t *FreshTicket) DisplayID() string {
	return FormatDisplayID(t.ID, t.TicketType)
}

// FreshTicketCreate is the creation payload, including the installation
// specific fields the helpdesk requires.
type FreshTicketCreate struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Priority    int    `json:"priority,omitempty"`
	Status      int    `json:"status,omitempty"`
	Source      int    `json:"source,omitempty"`
	Email       string `json:"email,omitempty"`
	RequesterID int64  `json:"requester_id,omitempty"`
	GroupID     int64  `json:"group_id,omitempty"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
}

// FreshTicketUpdate carries the fields to change; zero values are omitted.
type FreshTicketUpdate struct {
	Subject     string `json:"subject,omitempty"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	Status      int    `json:"status,omitempty"`
	GroupID     int64  `json:"group_id,omitempty"`
	ResponderID int64  `json:"responder_id,omitempty"`
}

// Helpdesk is the capability surface consumed from the helpdesk service.
type Helpdesk interface {
	CreateTicket(ctx context.Context, payload FreshTicketCreate) (*FreshTicket, error)
	GetTicket(ctx context.Context, id int64) (*FreshTicket, error)
	UpdateTicket(ctx context.Context, id int64, update FreshTicketUpdate) (*FreshTicket, error)
	AddNote(ctx context.Context, id int64, body string, private bool) error
	// CloseTicket adds the resolution as a note when non-empty, then sets the closed status.
	CloseTicket(ctx context.Context, id int64, resolution string) (*FreshTicket, error)
	ListMyTickets(ctx context.Context) ([]FreshTicket, error)
	// TicketURL is the agent-facing URL for a ticket number.
	TicketURL(id int64) string
}

// Label is a forge issue label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Issue is the subset of a forge issue the engine reads.
type Issue struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Labels    []Label   `json:"labels"`
}

// IssueCreate is the forge issue creation payload.
type IssueCreate struct {
	Title  string  `json:"title"`
	Body   string  `json:"body"`
	Labels []int64 `json:"labels,omitempty"`
}

// IssueUpdate carries the fields to change on an issue; nil fields are left alone.
type IssueUpdate struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
	State *string `json:"state,omitempty"`
}

// ListIssuesOptions filters ListIssues.
type ListIssuesOptions struct {
	State  string // open, closed or all
	Labels []string
}

// PullRequest is the subset of a forge pull request the tool reads.
type PullRequest struct {
	ID        int64  `json:"id"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	HTMLURL   string `json:"html_url"`
	Head      PRRef  `json:"head"`
	Base      PRRef  `json:"base"`
	Merged    bool   `json:"merged"`
	Mergeable bool   `json:"mergeable"`
}

// PRRef names a pull request branch.
type PRRef struct {
	Ref string `json:"ref"`
}

// PullRequestCreate is the pull request creation payload.
type PullRequestCreate struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// MergeStyle selects how a pull request is merged.
type MergeStyle string

const (
	MergeStyleMerge  MergeStyle = "merge"
	MergeStyleRebase MergeStyle = "rebase"
	MergeStyleSquash MergeStyle = "squash"
)

// MergeOptions configures MergePullRequest. An empty style means squash.
type MergeOptions struct {
	Style   MergeStyle
	Title   string
	Message string
}

// Repository is a forge repository summary.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
}

// Forge is the capability surface consumed from the source forge. Repository
// identifiers without an owner are qualified with the configured organization.
type Forge interface {
	GetIssue(ctx context.Context, repo string, number int) (*Issue, error)
	ListIssues(ctx context.Context, repo string, opts ListIssuesOptions) ([]Issue, error)
	CreateIssue(ctx context.Context, repo string, payload IssueCreate) (*Issue, error)
	UpdateIssue(ctx context.Context, repo string, number int, update IssueUpdate) (*Issue, error)
	AddComment(ctx context.Context, repo string, number int, body string) error
	CloseIssue(ctx context.Context, repo string, number int) (*Issue, error)
	// FindIssueByTicketID returns the issue tagged with the display id, or nil.
	FindIssueByTicketID(ctx context.Context, repo, displayID string) (*Issue, error)
	GetPullRequest(ctx context.Context, repo string, number int) (*PullRequest, error)
	CreatePullRequest(ctx context.Context, repo string, payload PullRequestCreate) (*PullRequest, error)
	MergePullRequest(ctx context.Context, repo string, number int, opts MergeOptions) error
	ListOrgRepos(ctx context.Context) ([]Repository, error)
	GetRepo(ctx context.Context, repo string) (*Repository, error)
}

// Store persists ticket records, one per id.
type Store interface {
	// Load returns the record and true, or nil and false when it is missing or unreadable.
	Load(id string) (*State, bool)
	Save(s *State) error
	AppendCommit(id, sha string) error
	List() ([]*State, error)
}
