package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmarchand/quartermaster-go/internal/adapters/persistence"
	"github.com/dmarchand/quartermaster-go/internal/adapters/topology"
	"github.com/dmarchand/quartermaster-go/internal/domain/demand"
	"github.com/dmarchand/quartermaster-go/internal/infrastructure/config"
	"github.com/dmarchand/quartermaster-go/internal/infrastructure/database"
)

// NewTopologyCommand creates the topology command with subcommands
func NewTopologyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Supply graph topology operations",
		Long: `Load and inspect the supply graph topology.

The topology file declares nodes (fronts, depots, factories, refineries,
resource fields) and the directed edges demand propagates across.

Examples:
  quartermaster topology load --file topology.yaml
  quartermaster topology show`,
	}

	cmd.AddCommand(newTopologyLoadCommand())
	cmd.AddCommand(newTopologyShowCommand())

	return cmd
}

func newTopologyLoadCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a topology file into the database",
		Long: `Parse a YAML topology file and persist it as the active supply graph.

Loading replaces the stored graph. Open orders and tasks are kept; they
reference nodes by ID, so renaming or removing nodes with open work
against them will strand that work.

Example:
  quartermaster topology load --file topology.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopologyLoad(file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Topology YAML file [required]")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newTopologyShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the stored supply graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopologyShow()
		},
	}
	return cmd
}

func runTopologyLoad(file string) error {
	ctx := commandContext()

	g, err := topology.Load(file)
	if err != nil {
		return fmt.Errorf("failed to load topology: %w", err)
	}

	// Seed preferences carry no inventory event, so propagate them now
	// rather than waiting for the first report from each node.
	engine := demand.NewEngine(nil)
	for _, n := range g.Nodes() {
		if len(n.PreferenceItems()) == 0 {
			continue
		}
		if _, err := engine.Recompute(g, n.ID()); err != nil {
			return fmt.Errorf("failed to propagate seed demand: %w", err)
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := persistence.NewGormGraphRepository(db).Save(ctx, g); err != nil {
		return fmt.Errorf("failed to save supply graph: %w", err)
	}

	fmt.Printf("Topology loaded: %d nodes, %d edges\n", len(g.Nodes()), len(g.Edges()))
	return nil
}

func runTopologyShow() error {
	ctx := commandContext()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	nodes := rt.state.Graph.Nodes()
	edges := rt.state.Graph.Edges()
	if len(nodes) == 0 {
		fmt.Println("No topology loaded")
		return nil
	}

	fmt.Printf("\nNODES (%d)\n", len(nodes))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKind\tLocation\tStatus")
	for _, n := range nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID(), n.Kind(), orDash(n.LocationName()), n.Status())
	}
	w.Flush()

	fmt.Printf("\nEDGES (%d)\n", len(edges))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Source\tTarget\tTransport Time")
	for _, e := range edges {
		transport := "-"
		if tt := e.TransportTime(); tt != nil {
			transport = tt.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Source(), e.Target(), transport)
	}
	w.Flush()
	fmt.Println()
	return nil
}
