package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/golem/internal/infrastructure/watch"
	"github.com/felixgeelhaar/golem/pkg/application"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var ticketWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print ticket records as they change on disk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		tickets := services.Tickets

		w, err := watch.NewTicketWatcher(services.Workspace.Store.TicketsDir(), watchDebounce, func(events []watch.ChangeEvent) {
			for _, e := range events {
				fmt.Println(describeChange(tickets, e))
			}
		})
		if err != nil {
			return err
		}
		w.WithLogger(services.Workspace.Logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s for changes... (Ctrl+C to stop)\n", w.Dir())
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// describeChange renders one change line, reading the record back when it
// still exists.
func describeChange(tickets *application.TicketSyncService, e watch.ChangeEvent) string {
	stamp := dimStyle.Render(time.Now().Format("15:04:05"))
	if e.Type == watch.ChangeRemoved || e.Type == watch.ChangeRenamed {
		return fmt.Sprintf("%s %s %s", stamp, boldStyle.Render(e.TicketID), statusErr.Render("removed"))
	}
	state, err := tickets.Get(e.TicketID)
	if err != nil {
		return fmt.Sprintf("%s %s %s", stamp, boldStyle.Render(e.TicketID), warnStyle.Render("unreadable"))
	}
	line := fmt.Sprintf("%s %s %s %s", stamp, boldStyle.Render(state.ID), statusStyle(state.Status).Render("["+string(state.Status)+"]"), state.Subject())
	if state.Pending {
		line += " " + warnStyle.Render("(pending)")
	}
	return line
}

func init() {
	ticketWatchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before a change is reported")
	ticketCmd.AddCommand(ticketWatchCmd)
}
