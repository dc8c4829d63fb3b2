package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarchand/quartermaster-go/internal/application/supply/services"
)

// NewSweepCommand creates the sweep command
func NewSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one maintenance pass",
		Long: `Run one maintenance pass over the stored state: expire overdue claims,
complete elapsed production queues and regenerate tasks for orders left
without one. The daemon runs this continuously; the manual command is
for deployments running CLI-only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep()
		},
	}
	return cmd
}

func runSweep() error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	sweeper := services.NewSweeper(rt.state, rt.cfg.Daemon.SweepInterval, time.Nanosecond)
	result, err := sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("Sweep finished in %s\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("  Expired claims:  %d\n", result.ExpiredClaims)
	fmt.Printf("  Auto-completed:  %d\n", result.AutoCompleted)
	fmt.Printf("  Follow-up tasks: %d\n", result.FollowUpTasks)
	fmt.Printf("  Orders touched:  %d\n", result.OrdersTouched)
	return nil
}
