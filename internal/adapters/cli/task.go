package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarchand/quartermaster-go/internal/application/supply/commands"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/queries"
)

// NewTaskCommand creates the task command with subcommands
func NewTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task pool operations",
		Long: `List, claim, complete and abandon supply tasks.

Tasks are ranked by the fluid priority model: blocked time compounds,
urgency bonuses stack and blocked downstream tasks bubble a share of
their priority into the upstream work that unblocks them.

Examples:
  quartermaster task list --limit 10
  quartermaster task list --level TRANSPORT_LAST_MILE
  quartermaster task claim --id <task-id> --actor hauler-7
  quartermaster task complete --id <task-id> --actor hauler-7
  quartermaster task abandon --id <task-id> --actor hauler-7
  quartermaster task trace --id <task-id>`,
	}

	cmd.AddCommand(newTaskListCommand())
	cmd.AddCommand(newTaskClaimCommand())
	cmd.AddCommand(newTaskCompleteCommand())
	cmd.AddCommand(newTaskAbandonCommand())
	cmd.AddCommand(newTaskTraceCommand())

	return cmd
}

func newTaskListCommand() *cobra.Command {
	var (
		limit int
		level string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks ranked by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskList(limit, level)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of tasks to show (0 = all)")
	cmd.Flags().StringVar(&level, "level", "", "Filter by task level")

	return cmd
}

func newTaskClaimCommand() *cobra.Command {
	var (
		taskID  string
		actor   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskClaim(taskID, actor, timeout)
		},
	}

	cmd.Flags().StringVar(&taskID, "id", "", "Task ID [required]")
	cmd.Flags().StringVar(&actor, "actor", "", "Claiming player or unit [required]")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Claim hold duration (default from config)")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("actor")

	return cmd
}

func newTaskCompleteCommand() *cobra.Command {
	var (
		taskID string
		actor  string
	)

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete a claimed task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskComplete(taskID, actor)
		},
	}

	cmd.Flags().StringVar(&taskID, "id", "", "Task ID [required]")
	cmd.Flags().StringVar(&actor, "actor", "", "Completing player or unit [required]")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("actor")

	return cmd
}

func newTaskAbandonCommand() *cobra.Command {
	var (
		taskID string
		actor  string
	)

	cmd := &cobra.Command{
		Use:   "abandon",
		Short: "Release a held claim back to the pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskAbandon(taskID, actor)
		},
	}

	cmd.Flags().StringVar(&taskID, "id", "", "Task ID [required]")
	cmd.Flags().StringVar(&actor, "actor", "", "Claim holder [required]")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("actor")

	return cmd
}

func newTaskTraceCommand() *cobra.Command {
	var taskID string

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the chain of upstream tasks blocking this one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskTrace(taskID)
		},
	}

	cmd.Flags().StringVar(&taskID, "id", "", "Task ID [required]")
	cmd.MarkFlagRequired("id")

	return cmd
}

func runTaskList(limit int, level string) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := queries.NewRankedTasksHandler(rt.state)
	result, err := handler.Handle(ctx, &queries.RankedTasksQuery{Limit: limit, Level: level})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	displayTaskList(result.(*queries.RankedTasksResponse))
	return nil
}

func runTaskClaim(taskID, actor string, timeout time.Duration) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := commands.NewClaimTaskHandler(rt.state, rt.cfg.Daemon.ClaimTimeout)
	result, err := handler.Handle(ctx, &commands.ClaimTaskCommand{
		TaskID:  taskID,
		Actor:   actor,
		Timeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to claim task: %w", err)
	}

	resp := result.(*commands.ClaimTaskResponse)
	fmt.Printf("Task %s claimed by %s until %s\n",
		resp.TaskID, resp.ClaimedBy, resp.ClaimDeadline.Format("2006-01-02 15:04:05"))
	return nil
}

func runTaskComplete(taskID, actor string) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := commands.NewCompleteTaskHandler(rt.state)
	result, err := handler.Handle(ctx, &commands.CompleteTaskCommand{TaskID: taskID, Actor: actor})
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	resp := result.(*commands.CompleteTaskResponse)
	fmt.Printf("Task %s completed\n", resp.TaskID)
	for _, id := range resp.FollowUpTaskIDs {
		fmt.Printf("  Follow-up task: %s\n", id)
	}
	for _, id := range resp.OrdersCompleted {
		fmt.Printf("  Order fulfilled: %s\n", id)
	}
	return nil
}

func runTaskAbandon(taskID, actor string) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := commands.NewAbandonTaskHandler(rt.state)
	result, err := handler.Handle(ctx, &commands.AbandonTaskCommand{TaskID: taskID, Actor: actor})
	if err != nil {
		return fmt.Errorf("failed to abandon task: %w", err)
	}

	fmt.Printf("Task %s returned to the pool\n", result.(*commands.AbandonTaskResponse).TaskID)
	return nil
}

func runTaskTrace(taskID string) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := queries.NewBlockedTraceHandler(rt.state)
	result, err := handler.Handle(ctx, &queries.BlockedTraceQuery{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("failed to trace task: %w", err)
	}

	resp := result.(*queries.BlockedTraceResponse)
	if !resp.Blocked {
		fmt.Printf("Task %s is not blocked\n", resp.TaskID)
		return nil
	}

	fmt.Printf("Task %s is blocked by %d upstream task(s):\n", resp.TaskID, len(resp.Chain))
	for _, link := range resp.Chain {
		fmt.Printf("  %s  %s %s  [%s]\n",
			link.TaskID, link.Level, link.Item, link.Status)
	}
	return nil
}

func displayTaskList(resp *queries.RankedTasksResponse) {
	if len(resp.Tasks) == 0 {
		fmt.Println("No open tasks")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Priority\tLevel\tItem\tQty\tRoute\tStatus\tClaimed By\tID")
	for _, t := range resp.Tasks {
		status := t.Status
		if t.Blocked {
			status += " (blocked)"
		}
		route := fmt.Sprintf("%s -> %s", t.Origin, t.Destination)
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			t.Priority, t.Level, t.Item, t.Quantity, route, status, orDash(t.ClaimedBy), t.ID)
	}
	w.Flush()
	fmt.Printf("Total: %d tasks\n", len(resp.Tasks))
}
