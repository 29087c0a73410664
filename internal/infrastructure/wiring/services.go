package wiring

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/golem/pkg/application"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/felixgeelhaar/golem/pkg/infrastructure/freshservice"
	"github.com/felixgeelhaar/golem/pkg/infrastructure/git"
	"github.com/felixgeelhaar/golem/pkg/infrastructure/gitea"
)

// AppServices exposes the application layer wired to a workspace. Remote
// clients are nil when their configuration is incomplete; the matching
// construction error is kept so commands can report what is missing.
type AppServices struct {
	Workspace *Workspace
	Tickets   *application.TicketSyncService
	Helpdesk  ticket.Helpdesk
	Forge     ticket.Forge

	helpdeskErr error
	forgeErr    error
}

// BuildAppServices constructs clients and services for a project root.
// Missing remote credentials are not an error here so that local commands
// keep working.
func BuildAppServices(root string, logger *slog.Logger) (*AppServices, error) {
	workspace, err := NewWorkspace(root, logger)
	if err != nil {
		return nil, err
	}
	cfg := workspace.Config

	services := &AppServices{Workspace: workspace}

	if client, err := freshservice.NewClient(cfg.Fresh.Domain, cfg.Fresh.APIKey); err != nil {
		services.helpdeskErr = err
	} else {
		services.Helpdesk = client
	}

	if client, err := gitea.NewClient(cfg.Gitea.URL, cfg.Gitea.Token, cfg.Gitea.Org); err != nil {
		services.forgeErr = err
	} else {
		services.Forge = client
	}

	services.Tickets = application.NewTicketSyncService(cfg.SyncConfig(), services.Helpdesk, services.Forge, workspace.Store, workspace.Logger)
	return services, nil
}

// RequireHelpdesk returns the helpdesk client or the reason it is unavailable.
func (s *AppServices) RequireHelpdesk() (ticket.Helpdesk, error) {
	if s.Helpdesk == nil {
		return nil, s.helpdeskErr
	}
	return s.Helpdesk, nil
}

// RequireForge returns the forge client or the reason it is unavailable.
func (s *AppServices) RequireForge() (ticket.Forge, error) {
	if s.Forge == nil {
		return nil, s.forgeErr
	}
	return s.Forge, nil
}

// RequireSync checks that create, import and resume can run.
func (s *AppServices) RequireSync() error {
	return s.Workspace.Config.ValidateSync()
}

// BuildWorktreeService resolves the git repository containing the workspace root.
func (s *AppServices) BuildWorktreeService(ctx context.Context) (*application.WorktreeService, error) {
	cfg := s.Workspace.Config
	runner := git.NewExecRunnerWithTimeout(cfg.Git.Timeout)
	return application.NewWorktreeService(ctx, runner, s.Workspace.Root, application.WorktreeOptions{
		Remote: cfg.Git.Remote,
		Logger: s.Workspace.Logger,
	})
}
