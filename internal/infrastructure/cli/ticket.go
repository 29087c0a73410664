package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/golem/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/golem/pkg/application"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/spf13/cobra"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Create, import and track linked tickets",
}

// normalizeID accepts inc-4521, INC4521 or INC-4521 and returns INC-4521.
func normalizeID(arg string) (string, error) {
	return ticket.CanonicalDisplayID(arg)
}

// syncServices loads services and checks every remote setting the sync
// engine needs. A non-empty repo overrides the configured forge repository.
func syncServices(repo string) (*wiring.AppServices, *application.TicketSyncService, error) {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return nil, nil, err
	}
	if repo != "" {
		services.Workspace.Config.Gitea.Repo = repo
	}
	if err := services.RequireSync(); err != nil {
		return nil, nil, err
	}
	return services, services.Tickets.ForRepo(repo), nil
}

func reportCreate(verb string, result *application.CreateResult) error {
	if jsonOutput {
		return printJSON(result)
	}
	if result.Existing {
		printSuccess("Ticket %s already tracked locally", result.State.ID)
		printDetail("Branch: %s", result.State.Git.Branch)
		return nil
	}
	printTicketSummary(verb, result.State)
	printWarnings(result.Warnings)
	return nil
}

var (
	newSubject     string
	newDescription string
	newType        string
	newSlug        string
	newPriority    string
	newRepo        string
)

var ticketNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a helpdesk ticket and a linked forge issue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		commitType, err := ticket.ParseCommitType(newType)
		if err != nil {
			return MapError(err)
		}
		priority, err := ticket.ParsePriority(newPriority)
		if err != nil {
			return MapError(err)
		}

		_, svc, err := syncServices(newRepo)
		if err != nil {
			return MapError(err)
		}

		result, err := svc.CreateLinked(cmd.Context(), application.CreateParams{
			Subject:     newSubject,
			Description: newDescription,
			Type:        commitType,
			Slug:        newSlug,
			Priority:    priority,
		})
		if err != nil {
			return MapError(fmt.Errorf("failed to create ticket: %w", err))
		}
		return reportCreate("Created", result)
	},
}

var (
	importType string
	importSlug string
	importRepo string
)

var ticketImportCmd = &cobra.Command{
	Use:   "import <ticket>",
	Short: "Adopt an existing helpdesk ticket (INC-4521, SR-77 or a bare number)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commitType, err := ticket.ParseCommitType(importType)
		if err != nil {
			return MapError(err)
		}

		_, svc, err := syncServices(importRepo)
		if err != nil {
			return MapError(err)
		}

		result, err := svc.ImportExisting(cmd.Context(), args[0], application.ImportParams{
			Type: commitType,
			Slug: importSlug,
		})
		if err != nil {
			return MapError(fmt.Errorf("failed to import ticket: %w", err))
		}
		return reportCreate("Imported", result)
	},
}

var statusNote string

var ticketStatusCmd = &cobra.Command{
	Use:   "status <ticket> <status>",
	Short: "Move a ticket to a new status and mirror it to both remotes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := normalizeID(args[0])
		if err != nil {
			return MapError(err)
		}
		status, err := ticket.ParseStatus(args[1])
		if err != nil {
			return MapError(err)
		}

		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}

		result := services.Tickets.UpdateStatus(cmd.Context(), id, status, statusNote)
		if jsonOutput {
			if err := printJSON(result); err != nil {
				return err
			}
		}
		if !result.Success {
			if result.Err != nil {
				return MapError(result.Err)
			}
			return errors.New(result.Error)
		}
		if jsonOutput {
			return nil
		}

		printSuccess("Updated %s to %s", id, status)
		if result.FreshUpdated {
			printDetail("Fresh updated")
		}
		if result.GiteaUpdated {
			printDetail("Gitea updated")
		}
		printWarnings(result.Warnings)
		return nil
	},
}

var ticketGetCmd = &cobra.Command{
	Use:   "get <ticket>",
	Short: "Print a ticket record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := normalizeID(args[0])
		if err != nil {
			return MapError(err)
		}
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		state, err := services.Tickets.Get(id)
		if err != nil {
			return MapError(err)
		}
		return printJSON(state)
	},
}

var (
	listStatus  string
	listPending bool
)

var ticketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local ticket records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := application.StatusFilter{PendingOnly: listPending}
		if listStatus != "" {
			status, err := ticket.ParseStatus(listStatus)
			if err != nil {
				return MapError(err)
			}
			filter.Status = status
		}

		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		tickets, err := services.Tickets.List(filter)
		if err != nil {
			return fmt.Errorf("failed to list tickets: %w", err)
		}

		if jsonOutput {
			return printJSON(tickets)
		}
		if len(tickets) == 0 {
			fmt.Println(dimStyle.Render("No tickets found"))
			return nil
		}
		for _, t := range tickets {
			fmt.Printf("%s %s %s\n", boldStyle.Render(t.ID), statusStyle(t.Status).Render("["+string(t.Status)+"]"), t.Subject())
			printDetail("%s", t.Git.Branch)
		}
		return nil
	},
}

var ticketResumeCmd = &cobra.Command{
	Use:   "resume <ticket>",
	Short: "Finish linking a ticket left pending by an interrupted create or import",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := normalizeID(args[0])
		if err != nil {
			return MapError(err)
		}
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		if _, err := services.RequireHelpdesk(); err != nil {
			return MapError(err)
		}

		result, err := services.Tickets.ResumePending(cmd.Context(), id)
		if err != nil {
			return MapError(fmt.Errorf("failed to resume ticket: %w", err))
		}
		if jsonOutput {
			return printJSON(result)
		}
		if result.Existing {
			printSuccess("Ticket %s is not pending", id)
			return nil
		}
		printTicketSummary("Linked", result.State)
		return nil
	},
}

func init() {
	ticketNewCmd.Flags().StringVarP(&newSubject, "subject", "s", "", "Ticket subject")
	ticketNewCmd.Flags().StringVarP(&newDescription, "description", "d", "", "Ticket description")
	ticketNewCmd.Flags().StringVarP(&newType, "type", "t", "", "Commit type (feat, fix, refactor, docs, test, chore)")
	ticketNewCmd.Flags().StringVar(&newSlug, "slug", "", "Branch slug (kebab-case)")
	ticketNewCmd.Flags().StringVarP(&newPriority, "priority", "p", "3", "Priority from 1 (urgent) to 4 (low)")
	ticketNewCmd.Flags().StringVarP(&newRepo, "repo", "r", "", "Forge repository (defaults to GITEA_REPO)")
	_ = ticketNewCmd.MarkFlagRequired("subject")
	_ = ticketNewCmd.MarkFlagRequired("description")
	_ = ticketNewCmd.MarkFlagRequired("type")
	_ = ticketNewCmd.MarkFlagRequired("slug")

	ticketImportCmd.Flags().StringVarP(&importType, "type", "t", "", "Commit type (feat, fix, refactor, docs, test, chore)")
	ticketImportCmd.Flags().StringVar(&importSlug, "slug", "", "Branch slug (kebab-case)")
	ticketImportCmd.Flags().StringVarP(&importRepo, "repo", "r", "", "Forge repository (defaults to GITEA_REPO)")
	_ = ticketImportCmd.MarkFlagRequired("type")
	_ = ticketImportCmd.MarkFlagRequired("slug")

	ticketStatusCmd.Flags().StringVarP(&statusNote, "note", "n", "", "Note to post instead of the default transition message")

	ticketListCmd.Flags().StringVar(&listStatus, "status", "", "Only show tickets with this status")
	ticketListCmd.Flags().BoolVar(&listPending, "pending", false, "Only show tickets left pending")

	ticketCmd.AddCommand(ticketNewCmd, ticketImportCmd, ticketStatusCmd, ticketGetCmd, ticketListCmd, ticketResumeCmd)
	RootCmd.AddCommand(ticketCmd)
}
