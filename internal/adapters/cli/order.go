package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmarchand/quartermaster-go/internal/application/supply/commands"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/queries"
)

// NewOrderCommand creates the order command with subcommands
func NewOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Order book operations",
		Long: `Inspect and cancel orders in the order book.

Orders are derived from propagated demand; they are created, resized and
cancelled by the engine as inventory reports arrive. Manual cancellation
sweeps up every open task serving the order.

Examples:
  quartermaster order status --id <order-id>
  quartermaster order cancel --id <order-id> --reason "front line moved"`,
	}

	cmd.AddCommand(newOrderStatusCommand())
	cmd.AddCommand(newOrderCancelCommand())

	return cmd
}

func newOrderStatusCommand() *cobra.Command {
	var orderID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show an order and the tasks serving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderStatus(orderID)
		},
	}

	cmd.Flags().StringVar(&orderID, "id", "", "Order ID [required]")
	cmd.MarkFlagRequired("id")

	return cmd
}

func newOrderCancelCommand() *cobra.Command {
	var (
		orderID string
		reason  string
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an order and its open tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderCancel(orderID, reason)
		},
	}

	cmd.Flags().StringVar(&orderID, "id", "", "Order ID [required]")
	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason [required]")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("reason")

	return cmd
}

func runOrderStatus(orderID string) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := queries.NewOrderStatusHandler(rt.state)
	result, err := handler.Handle(ctx, &queries.OrderStatusQuery{OrderID: orderID})
	if err != nil {
		return fmt.Errorf("failed to resolve order: %w", err)
	}

	displayOrderStatus(result.(*queries.OrderStatusResponse))
	return nil
}

func runOrderCancel(orderID, reason string) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := commands.NewCancelOrderHandler(rt.state)
	result, err := handler.Handle(ctx, &commands.CancelOrderCommand{OrderID: orderID, Reason: reason})
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	resp := result.(*commands.CancelOrderResponse)
	fmt.Printf("Order %s cancelled\n", resp.OrderID)
	for _, id := range resp.TasksCancelled {
		fmt.Printf("  Task cancelled: %s\n", id)
	}
	return nil
}

func displayOrderStatus(resp *queries.OrderStatusResponse) {
	fmt.Printf("\nORDER %s\n", resp.OrderID)
	fmt.Printf("  Type:        %s\n", resp.Type)
	fmt.Printf("  Item:        %s x%d\n", resp.Item, resp.Quantity)
	fmt.Printf("  Route:       %s -> %s\n", resp.Origin, resp.Destination)
	fmt.Printf("  Status:      %s\n", resp.Status)
	fmt.Printf("  Tier:        %s\n", resp.Tier)
	fmt.Printf("  Urgency:     %.2f\n", resp.Urgency)
	fmt.Printf("  Created:     %s\n", resp.CreatedAt.Format("2006-01-02 15:04:05"))
	if resp.CancelReason != "" {
		fmt.Printf("  Cancelled:   %s\n", resp.CancelReason)
	}

	if len(resp.Tasks) == 0 {
		fmt.Println("  No tasks")
		return
	}

	fmt.Printf("\nTASKS (%d)\n", len(resp.Tasks))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLevel\tQty\tStatus\tBlocked")
	for _, t := range resp.Tasks {
		blocked := "-"
		if t.Blocked {
			blocked = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", t.ID, t.Level, t.Quantity, t.Status, blocked)
	}
	w.Flush()
	fmt.Println()
}
