package cli

import (
	"fmt"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/spf13/cobra"
)

var freshCmd = &cobra.Command{
	Use:   "fresh",
	Short: "Inspect the Freshservice connection",
}

var freshTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check Freshservice credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		helpdesk, err := services.RequireHelpdesk()
		if err != nil {
			return MapError(err)
		}
		tickets, err := helpdesk.ListMyTickets(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		printSuccess("Connected to Freshservice")
		printDetail("Found %d tickets assigned to you", len(tickets))
		return nil
	},
}

var freshListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open Freshservice tickets assigned to you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		helpdesk, err := services.RequireHelpdesk()
		if err != nil {
			return MapError(err)
		}
		tickets, err := helpdesk.ListMyTickets(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		if jsonOutput {
			return printJSON(tickets)
		}
		for _, t := range tickets {
			fmt.Printf("%s %s\n", boldStyle.Render(t.DisplayID()), t.Subject)
			printDetail("Priority: %d | Status: %d", t.Priority, t.Status)
		}
		return nil
	},
}

var giteaCmd = &cobra.Command{
	Use:   "gitea",
	Short: "Inspect the Gitea connection",
}

var giteaTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check Gitea credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		forge, err := services.RequireForge()
		if err != nil {
			return MapError(err)
		}
		repos, err := forge.ListOrgRepos(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		printSuccess("Connected to Gitea")
		printDetail("Found %d repos in org %s", len(repos), services.Workspace.Config.Gitea.Org)
		if repo := services.Workspace.Config.Gitea.Repo; repo != "" {
			printRepoCheck(cmd, forge, repo)
		}
		return nil
	},
}

func printRepoCheck(cmd *cobra.Command, forge ticket.Forge, repo string) {
	r, err := forge.GetRepo(cmd.Context(), repo)
	if err != nil {
		printWarnings([]string{fmt.Sprintf("repository %s is not reachable: %v", repo, err)})
		return
	}
	printDetail("Tickets mirror into %s (default branch %s)", r.FullName, r.DefaultBranch)
}

func init() {
	freshCmd.AddCommand(freshTestCmd, freshListCmd)
	giteaCmd.AddCommand(giteaTestCmd)
	RootCmd.AddCommand(freshCmd, giteaCmd)
}
