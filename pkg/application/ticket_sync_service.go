package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/google/uuid"
)

const (
	linkNotePrefix   = "🔗 Gitea Issue: "
	statusNotePrefix = "🤖 Golem: "
)

// SyncConfig holds the installation specific values the helpdesk requires
// on ticket creation, and the forge repository tickets are mirrored into.
type SyncConfig struct {
	DefaultGroupID       int64
	DefaultCategory      string
	DefaultEmail         string
	DefaultSourceChannel int
	HelpdeskDomain       string
	OpenStatusCode       int
	Repo                 string
}

// DefaultSyncConfig returns the stock routing values.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		DefaultGroupID:       38000120203,
		DefaultCategory:      "Applications",
		DefaultEmail:         "ace-bot@pearlriverresort.com",
		DefaultSourceChannel: 1002,
		OpenStatusCode:       2,
	}
}

// CreateParams describes a brand new ticket.
type CreateParams struct {
	Subject     string
	Description string
	Type        ticket.CommitType
	Slug        string
	Priority    int
}

// ImportParams describes how an existing helpdesk ticket is adopted.
type ImportParams struct {
	Type ticket.CommitType
	Slug string
}

// CreateResult is the outcome of CreateLinked, ImportExisting and ResumePending.
type CreateResult struct {
	State *ticket.State `json:"state"`
	// Existing is set when an import found a local record and changed nothing.
	Existing bool     `json:"existing"`
	Warnings []string `json:"warnings,omitempty"`
}

// SyncResult reports which of the local record and the two remotes took a
// status update.
type SyncResult struct {
	Success      bool     `json:"success"`
	FreshUpdated bool     `json:"freshUpdated"`
	GiteaUpdated bool     `json:"giteaUpdated"`
	LocalUpdated bool     `json:"localUpdated"`
	Error        string   `json:"error,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Err          error    `json:"-"`
}

// StatusFilter narrows List. The zero value matches every record.
type StatusFilter struct {
	Status      ticket.Status
	PendingOnly bool
}

// TicketSyncService keeps the local record authoritative and mirrors it into
// the helpdesk and the forge on a best-effort basis.
type TicketSyncService struct {
	cfg      SyncConfig
	helpdesk ticket.Helpdesk
	forge    ticket.Forge
	store    ticket.Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewTicketSyncService wires the engine. helpdesk and forge may be nil for
// read-only use; operations that need them then fail with a ConfigError.
func NewTicketSyncService(cfg SyncConfig, helpdesk ticket.Helpdesk, forge ticket.Forge, store ticket.Store, logger *slog.Logger) *TicketSyncService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OpenStatusCode == 0 {
		cfg.OpenStatusCode = DefaultSyncConfig().OpenStatusCode
	}
	return &TicketSyncService{
		cfg:      cfg,
		helpdesk: helpdesk,
		forge:    forge,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the clock used for created timestamps.
func (s *TicketSyncService) WithClock(now func() time.Time) *TicketSyncService {
	s.now = now
	return s
}

// ForRepo returns a copy that mirrors tickets into another forge repository.
// An empty repo returns the receiver.
func (s *TicketSyncService) ForRepo(repo string) *TicketSyncService {
	if repo == "" {
		return s
	}
	clone := *s
	clone.cfg.Repo = repo
	return &clone
}

// Config returns the engine configuration.
func (s *TicketSyncService) Config() SyncConfig {
	return s.cfg
}

func (s *TicketSyncService) opLogger(op, id string) *slog.Logger {
	l := s.logger.With("op", op, "op_id", uuid.NewString())
	if id != "" {
		l = l.With("ticket_id", id)
	}
	return l
}

func (s *TicketSyncService) requireRemotes() error {
	var missing []string
	if s.helpdesk == nil {
		missing = append(missing, "helpdesk client")
	}
	if s.forge == nil {
		missing = append(missing, "forge client")
	}
	if s.cfg.Repo == "" {
		missing = append(missing, "GITEA_REPO")
	}
	if len(missing) > 0 {
		return &ticket.ConfigError{Component: "sync", Missing: missing}
	}
	return nil
}

func validateNaming(t ticket.CommitType, slug string) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: %q", ticket.ErrInvalidCommitType, t)
	}
	if strings.TrimSpace(slug) == "" {
		return errors.New("slug is required")
	}
	if strings.ContainsAny(slug, " /\\") {
		return fmt.Errorf("slug %q must not contain spaces or slashes", slug)
	}
	return nil
}

func (s *TicketSyncService) recordURL(id int64) string {
	if s.cfg.HelpdeskDomain == "" {
		return s.helpdesk.TicketURL(id)
	}
	return fmt.Sprintf("https://%s/helpdesk/tickets/%d", s.cfg.HelpdeskDomain, id)
}

func issueTitle(displayID, subject string) string {
	return fmt.Sprintf("[%s] %s", displayID, subject)
}

func issueBody(description, displayID, ticketURL string, t ticket.CommitType) string {
	return fmt.Sprintf("%s\n\n---\n**Freshservice:** [%s](%s)\n**Type:** %s", description, displayID, ticketURL, t)
}

func (s *TicketSyncService) buildState(displayID string, params ImportParams, fresh *ticket.FreshTicket, description string, issue *ticket.Issue) *ticket.State {
	priority := fresh.Priority
	if priority < ticket.PriorityUrgent || priority > ticket.PriorityLow {
		priority = ticket.DefaultPriority
	}

	state := ticket.NewState(displayID, params.Slug, params.Type, s.now().UTC())
	state.Fresh = &ticket.FreshRef{
		ID:          displayID,
		URL:         s.recordURL(fresh.ID),
		Subject:     fresh.Subject,
		Description: description,
		Priority:    priority,
		Status:      fresh.Status,
	}
	state.Gitea = &ticket.GiteaRef{
		Repo:        s.cfg.Repo,
		IssueNumber: issue.Number,
		URL:         issue.HTMLURL,
	}
	return state
}

// CreateLinked creates the helpdesk ticket and its forge issue, then persists
// the local record. A failure creating either remote entity aborts with
// nothing persisted. The record is saved as pending before the link-back note
// is attempted; a failed note leaves it pending and is reported as a warning.
func (s *TicketSyncService) CreateLinked(ctx context.Context, params CreateParams) (*CreateResult, error) {
	log := s.opLogger("create", "")
	if err := s.requireRemotes(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Subject) == "" {
		return nil, errors.New("subject is required")
	}
	if err := validateNaming(params.Type, params.Slug); err != nil {
		return nil, err
	}
	if params.Priority == 0 {
		params.Priority = ticket.DefaultPriority
	}
	if params.Priority < ticket.PriorityUrgent || params.Priority > ticket.PriorityLow {
		return nil, fmt.Errorf("%w: %d", ticket.ErrInvalidPriority, params.Priority)
	}

	fresh, err := s.helpdesk.CreateTicket(ctx, ticket.FreshTicketCreate{
		Subject:     params.Subject,
		Description: params.Description,
		Priority:    params.Priority,
		Status:      s.cfg.OpenStatusCode,
		Source:      s.cfg.DefaultSourceChannel,
		GroupID:     s.cfg.DefaultGroupID,
		Category:    s.cfg.DefaultCategory,
		Email:       s.cfg.DefaultEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create helpdesk ticket: %w", err)
	}

	displayID := fresh.DisplayID()
	log = log.With("ticket_id", displayID)
	log.Info("helpdesk ticket created", "fresh_id", fresh.ID)

	issue, err := s.forge.CreateIssue(ctx, s.cfg.Repo, ticket.IssueCreate{
		Title: issueTitle(displayID, params.Subject),
		Body:  issueBody(params.Description, displayID, s.helpdesk.TicketURL(fresh.ID), params.Type),
	})
	if err != nil {
		log.Error("forge issue creation failed, helpdesk ticket has no local record", "fresh_id", fresh.ID, "error", err)
		return nil, fmt.Errorf("failed to create forge issue for %s: %w", displayID, err)
	}
	log.Info("forge issue created", "repo", s.cfg.Repo, "issue", issue.Number)

	description := fresh.DescriptionText
	if description == "" {
		description = params.Description
	}
	if fresh.Priority == 0 {
		fresh.Priority = params.Priority
	}
	state := s.buildState(displayID, ImportParams{Type: params.Type, Slug: params.Slug}, fresh, description, issue)

	return s.persistAndLink(ctx, log, state, fresh.ID, issue.HTMLURL)
}

// persistAndLink saves the record as pending, posts the link-back note and
// clears the pending flag once the note is delivered.
func (s *TicketSyncService) persistAndLink(ctx context.Context, log *slog.Logger, state *ticket.State, freshID int64, issueURL string) (*CreateResult, error) {
	state.Pending = true
	if err := s.store.Save(state); err != nil {
		return nil, fmt.Errorf("failed to persist %s: %w", state.ID, err)
	}

	result := &CreateResult{State: state}
	if err := s.helpdesk.AddNote(ctx, freshID, linkNotePrefix+issueURL, true); err != nil {
		log.Warn("link note failed, record left pending", "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("link note on helpdesk ticket failed: %v (run 'golem ticket resume %s')", err, state.ID))
		return result, nil
	}

	state.Pending = false
	if err := s.store.Save(state); err != nil {
		log.Warn("failed to clear pending flag", "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed to clear pending flag: %v", err))
	}
	return result, nil
}

// ImportExisting adopts a helpdesk ticket given as a number or display id.
// An existing local record is returned unchanged without touching the forge.
// Otherwise an issue already tagged with the display id is reused, or a new
// one is created and linked back.
func (s *TicketSyncService) ImportExisting(ctx context.Context, input string, params ImportParams) (*CreateResult, error) {
	log := s.opLogger("import", "")
	if err := s.requireRemotes(); err != nil {
		return nil, err
	}
	number, err := ticket.ResolveTicketNumber(input)
	if err != nil {
		return nil, err
	}
	if err := validateNaming(params.Type, params.Slug); err != nil {
		return nil, err
	}

	fresh, err := s.helpdesk.GetTicket(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch helpdesk ticket %d: %w", number, err)
	}
	displayID := fresh.DisplayID()
	log = log.With("ticket_id", displayID)

	if existing, ok := s.store.Load(displayID); ok {
		log.Info("ticket already imported")
		return &CreateResult{State: existing, Existing: true}, nil
	}

	issue, err := s.forge.FindIssueByTicketID(ctx, s.cfg.Repo, displayID)
	if err != nil {
		return nil, fmt.Errorf("failed to search forge issues for %s: %w", displayID, err)
	}

	if issue != nil {
		log.Info("reusing forge issue", "issue", issue.Number)
		state := s.buildState(displayID, params, fresh, fresh.DescriptionText, issue)
		if err := s.store.Save(state); err != nil {
			return nil, fmt.Errorf("failed to persist %s: %w", displayID, err)
		}
		return &CreateResult{State: state}, nil
	}

	issue, err = s.forge.CreateIssue(ctx, s.cfg.Repo, ticket.IssueCreate{
		Title: issueTitle(displayID, fresh.Subject),
		Body:  issueBody(fresh.DescriptionText, displayID, s.helpdesk.TicketURL(fresh.ID), params.Type),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create forge issue for %s: %w", displayID, err)
	}
	log.Info("forge issue created", "repo", s.cfg.Repo, "issue", issue.Number)

	state := s.buildState(displayID, params, fresh, fresh.DescriptionText, issue)
	return s.persistAndLink(ctx, log, state, fresh.ID, issue.HTMLURL)
}

// UpdateStatus moves a ticket to a new status, annotates both remotes and
// closes them on done. Remote failures never block the local save. A missing
// ticket is reported in the result rather than as an error.
func (s *TicketSyncService) UpdateStatus(ctx context.Context, id string, status ticket.Status, note string) SyncResult {
	log := s.opLogger("status", id)

	state, ok := s.store.Load(id)
	if !ok {
		return SyncResult{Error: "ticket not found", Err: &ticket.NotFoundError{ID: id}}
	}

	workflow, err := ticket.NewWorkflow(id, state.Status)
	if err != nil {
		return SyncResult{Error: err.Error(), Err: err}
	}
	if err := workflow.MoveTo(status); err != nil {
		return SyncResult{Error: err.Error(), Err: err}
	}

	old := state.Status
	state.Status = workflow.Current()

	message := note
	if message == "" {
		message = ticket.DescribeTransition(old, status)
	}

	// Helpdesk first, then forge. A failed mirror does not skip the next one.
	var helpdeskErr, forgeErr error
	if state.Fresh != nil {
		helpdeskErr = s.mirrorToHelpdesk(ctx, state, message)
	}
	if state.Gitea != nil {
		forgeErr = s.mirrorToForge(ctx, state, message)
	}

	var result SyncResult
	if state.Fresh != nil {
		if helpdeskErr != nil {
			log.Warn("helpdesk update failed", "service", "freshservice", "error", helpdeskErr)
			result.Warnings = append(result.Warnings, fmt.Sprintf("helpdesk update failed: %v", helpdeskErr))
		} else {
			result.FreshUpdated = true
		}
	}
	if state.Gitea != nil {
		if forgeErr != nil {
			log.Warn("forge update failed", "service", "gitea", "error", forgeErr)
			result.Warnings = append(result.Warnings, fmt.Sprintf("forge update failed: %v", forgeErr))
		} else {
			result.GiteaUpdated = true
		}
	}

	if err := s.store.Save(state); err != nil {
		log.Error("failed to save status", "error", err)
		result.Error = err.Error()
		result.Err = err
		return result
	}

	result.LocalUpdated = true
	result.Success = true
	log.Info("status updated", "from", old, "to", status, "fresh", result.FreshUpdated, "gitea", result.GiteaUpdated)
	return result
}

func (s *TicketSyncService) mirrorToHelpdesk(ctx context.Context, state *ticket.State, message string) error {
	if s.helpdesk == nil {
		return &ticket.ConfigError{Component: "sync", Missing: []string{"helpdesk client"}}
	}
	freshID, err := ticket.ParseDisplayID(state.Fresh.ID)
	if err != nil {
		return err
	}
	if err := s.helpdesk.AddNote(ctx, freshID, statusNotePrefix+message, true); err != nil {
		return err
	}
	if state.Status != ticket.StatusDone {
		return nil
	}
	closed, err := s.helpdesk.CloseTicket(ctx, freshID, message)
	if err != nil {
		return err
	}
	if closed != nil && closed.Status != 0 {
		state.Fresh.Status = closed.Status
	}
	return nil
}

func (s *TicketSyncService) mirrorToForge(ctx context.Context, state *ticket.State, message string) error {
	if s.forge == nil {
		return &ticket.ConfigError{Component: "sync", Missing: []string{"forge client"}}
	}
	if err := s.forge.AddComment(ctx, state.Gitea.Repo, state.Gitea.IssueNumber, statusNotePrefix+message); err != nil {
		return err
	}
	if state.Status != ticket.StatusDone {
		return nil
	}
	_, err := s.forge.CloseIssue(ctx, state.Gitea.Repo, state.Gitea.IssueNumber)
	return err
}

// RecordCommit appends a commit hash to a ticket. Unknown tickets fail with
// ErrTicketNotFound and nothing is written.
func (s *TicketSyncService) RecordCommit(_ context.Context, id, sha string) error {
	if strings.TrimSpace(sha) == "" {
		return errors.New("commit hash is required")
	}
	if err := s.store.AppendCommit(id, sha); err != nil {
		return err
	}
	s.opLogger("record", id).Info("commit recorded", "sha", sha)
	return nil
}

// Get returns a ticket record or a *ticket.NotFoundError.
func (s *TicketSyncService) Get(id string) (*ticket.State, error) {
	state, ok := s.store.Load(id)
	if !ok {
		return nil, &ticket.NotFoundError{ID: id}
	}
	return state, nil
}

// List returns records matching the filter, oldest first.
func (s *TicketSyncService) List(filter StatusFilter) ([]*ticket.State, error) {
	all, err := s.store.List()
	if err != nil {
		return nil, err
	}

	out := make([]*ticket.State, 0, len(all))
	for _, st := range all {
		if filter.Status != "" && st.Status != filter.Status {
			continue
		}
		if filter.PendingOnly && !st.Pending {
			continue
		}
		out = append(out, st)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ResumePending retries the link-back note for a record left pending by an
// interrupted create or import, then clears the flag.
func (s *TicketSyncService) ResumePending(ctx context.Context, id string) (*CreateResult, error) {
	log := s.opLogger("resume", id)

	state, ok := s.store.Load(id)
	if !ok {
		return nil, &ticket.NotFoundError{ID: id}
	}
	if !state.Pending {
		return &CreateResult{State: state, Existing: true}, nil
	}
	if state.Fresh == nil || state.Gitea == nil {
		return nil, fmt.Errorf("ticket %s is pending but not linked to both remotes", id)
	}
	if s.helpdesk == nil {
		return nil, &ticket.ConfigError{Component: "sync", Missing: []string{"helpdesk client"}}
	}

	freshID, err := ticket.ParseDisplayID(state.Fresh.ID)
	if err != nil {
		return nil, err
	}
	if err := s.helpdesk.AddNote(ctx, freshID, linkNotePrefix+state.Gitea.URL, true); err != nil {
		return nil, fmt.Errorf("link note on %s failed: %w", id, err)
	}

	state.Pending = false
	if err := s.store.Save(state); err != nil {
		return nil, fmt.Errorf("failed to persist %s: %w", id, err)
	}
	log.Info("pending ticket resumed")
	return &CreateResult{State: state}, nil
}
