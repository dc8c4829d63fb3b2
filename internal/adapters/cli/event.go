package cli

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarchand/quartermaster-go/internal/adapters/ingest"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/commands"
	"github.com/dmarchand/quartermaster-go/internal/domain/demand"
)

// NewEventCommand creates the event command with subcommands
func NewEventCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Inventory event operations",
		Long: `Feed inventory change events into the demand propagation engine.

Each event reports the new absolute quantity of one item at one node.
Propagation walks upstream from the node, records per-edge demand,
refreshes the order book and generates tasks for new orders.

Examples:
  quartermaster event ingest --node frontline-1 --item Bandages --quantity 2
  quartermaster event replay --file events.ndjson`,
	}

	cmd.AddCommand(newEventIngestCommand())
	cmd.AddCommand(newEventReplayCommand())

	return cmd
}

func newEventIngestCommand() *cobra.Command {
	var (
		nodeID    string
		item      string
		quantity  int
		source    string
		timestamp string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a single inventory event",
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if timestamp != "" {
				parsed, err := time.Parse(time.RFC3339, timestamp)
				if err != nil {
					return fmt.Errorf("invalid timestamp format: %w", err)
				}
				at = parsed.UTC()
			}
			return runEventIngest(demand.InventoryEvent{
				NodeID:      nodeID,
				Item:        item,
				NewQuantity: quantity,
				Source:      source,
				Timestamp:   at,
			})
		},
	}

	cmd.Flags().StringVar(&nodeID, "node", "", "Node ID the report is for [required]")
	cmd.Flags().StringVar(&item, "item", "", "Item name [required]")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "New absolute quantity [required]")
	cmd.Flags().StringVar(&source, "source", "cli", "Report source identifier")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "Observation time (RFC3339, default now)")
	cmd.MarkFlagRequired("node")
	cmd.MarkFlagRequired("item")
	cmd.MarkFlagRequired("quantity")

	return cmd
}

func newEventReplayCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay events from an NDJSON file",
		Long: `Replay inventory events from a file, one JSON event per line.

Each line uses the same schema as the websocket source. Malformed lines
abort the replay; stale events (older than the node's last report for
the item) are skipped with a warning.

Example:
  quartermaster event replay --file events.ndjson`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventReplay(file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "NDJSON event file [required]")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runEventIngest(event demand.InventoryEvent) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := commands.NewIngestInventoryEventHandler(rt.state)
	result, err := handler.Handle(ctx, &commands.IngestInventoryEventCommand{Event: event})
	if err != nil {
		return fmt.Errorf("failed to ingest event: %w", err)
	}

	displayIngestResponse(result.(*commands.IngestInventoryEventResponse))
	return nil
}

func runEventReplay(file string) error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open event file: %w", err)
	}
	defer f.Close()

	handler := commands.NewIngestInventoryEventHandler(rt.state)
	line := 0
	applied := 0
	skipped := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		event, err := ingest.DecodeEvent(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := handler.Handle(ctx, &commands.IngestInventoryEventCommand{Event: *event}); err != nil {
			fmt.Printf("line %d skipped: %v\n", line, err)
			skipped++
			continue
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event file: %w", err)
	}

	fmt.Printf("Replay finished: %d applied, %d skipped\n", applied, skipped)
	return nil
}

func displayIngestResponse(resp *commands.IngestInventoryEventResponse) {
	fmt.Printf("Event propagated %d hops upstream\n", resp.Depth)
	fmt.Printf("  Demands placed:  %d\n", resp.DemandsPlaced)
	fmt.Printf("  Orders touched:  %d\n", resp.OrdersTouched)
	fmt.Printf("  Tasks created:   %d\n", resp.TasksCreated)
	if resp.TasksCancelled > 0 {
		fmt.Printf("  Tasks cancelled: %d\n", resp.TasksCancelled)
	}
	for _, notice := range resp.Notices {
		fmt.Printf("  Notice: %s\n", notice)
	}
}
