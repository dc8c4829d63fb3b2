package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmarchand/quartermaster-go/internal/application/supply/queries"
)

// NewDashboardCommand creates the dashboard command
func NewDashboardCommand() *cobra.Command {
	var topTasks int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Aggregate supply chain overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(topTasks)
		},
	}

	cmd.Flags().IntVar(&topTasks, "top", 5, "How many top-priority tasks to show")

	return cmd
}

func runDashboard(topTasks int) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := queries.NewDashboardHandler(rt.state)
	result, err := handler.Handle(ctx, &queries.DashboardQuery{TopTasks: topTasks})
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}

	displayDashboard(result.(*queries.DashboardResponse))
	return nil
}

func displayDashboard(resp *queries.DashboardResponse) {
	fmt.Printf("\nSUPPLY CHAIN DASHBOARD\n")
	fmt.Printf("Nodes: %d  Open orders: %d  Blocked tasks: %d\n",
		len(resp.Nodes), resp.OpenOrders, resp.BlockedTasks)

	if len(resp.Nodes) > 0 {
		fmt.Println("\nNODES")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKind\tLocation\tStatus\tDemand")
		for _, n := range resp.Nodes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				n.ID, n.Kind, orDash(n.LocationName), n.Status, n.DemandTotal)
		}
		w.Flush()
	}

	if len(resp.TasksByLevel) > 0 {
		fmt.Println("\nOPEN TASKS BY LEVEL")
		for _, level := range sortedKeys(resp.TasksByLevel) {
			fmt.Printf("  %-22s %d\n", level, resp.TasksByLevel[level])
		}
	}

	if len(resp.OrdersByType) > 0 {
		fmt.Println("\nOPEN ORDERS BY TYPE")
		for _, typ := range sortedKeys(resp.OrdersByType) {
			fmt.Printf("  %-22s %d\n", typ, resp.OrdersByType[typ])
		}
	}

	if len(resp.TopTasks) > 0 {
		fmt.Println("\nTOP PRIORITY TASKS")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Priority\tLevel\tItem\tQty\tRoute\tID")
		for _, t := range resp.TopTasks {
			route := fmt.Sprintf("%s -> %s", t.Origin, t.Destination)
			fmt.Fprintf(w, "%.2f\t%s\t%s\t%d\t%s\t%s\n",
				t.Priority, t.Level, t.Item, t.Quantity, route, t.ID)
		}
		w.Flush()
	}
	fmt.Println()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
