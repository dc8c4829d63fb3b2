package demand

import (
	"sync"
	"time"

	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// InventoryEvent is one reported inventory change at a node
type InventoryEvent struct {
	NodeID      string
	Item        string
	NewQuantity int
	Source      string
	Timestamp   time.Time
}

// PlacedDemand is one upstream order quantity recorded during propagation
type PlacedDemand struct {
	Provider string
	Consumer string
	Item     string
	Tier     graph.Tier
	Quantity int
}

// Result is everything one propagation pass produced. RawTotals accumulates
// quantities that reached terminal resource nodes; Truncations lists nodes
// where a cycle forced the walk to stop.
type Result struct {
	Event       InventoryEvent
	Placed      []PlacedDemand
	RawTotals   map[string]map[string]int
	Truncations []*shared.CycleDetectedError
	Depth       int
}

// Engine walks the supply graph upstream from a changed node and records
// per-edge order quantities. Events are processed strictly one at a time;
// partial mutation is never visible outside ProcessEvent.
type Engine struct {
	mu     sync.Mutex
	policy SplitPolicy
}

// NewEngine creates a propagation engine with the given split policy.
// A nil policy falls back to the largest-provider default.
func NewEngine(policy SplitPolicy) *Engine {
	if policy == nil {
		policy = NewLargestProviderPolicy()
	}
	return &Engine{policy: policy}
}

// ProcessEvent validates and applies one inventory event, then propagates
// the resulting demand upstream to resource nodes. Validation and staleness
// failures reject the event before any graph mutation.
func (e *Engine) ProcessEvent(g *graph.Graph, event InventoryEvent) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if event.NodeID == "" {
		return nil, shared.NewValidationError("node_id", "node id must not be empty")
	}
	if event.Item == "" {
		return nil, shared.NewValidationError("item", "item must not be empty")
	}
	if event.NewQuantity < 0 {
		return nil, shared.NewValidationError("new_quantity", "quantity must not be negative")
	}

	node := g.Node(event.NodeID)
	if node == nil {
		return nil, shared.NewValidationError("node_id", "unknown node "+event.NodeID)
	}
	if event.Timestamp.Before(node.LastUpdated()) {
		return nil, shared.NewStaleDataError(event.NodeID)
	}

	if err := g.SetInventory(event.NodeID, event.Item, event.NewQuantity, event.Timestamp); err != nil {
		return nil, err
	}

	result := &Result{
		Event:     event,
		RawTotals: make(map[string]map[string]int),
	}
	visited := map[string]bool{}
	e.propagate(g, node, event.Item, visited, 0, result)
	return result, nil
}

// Recompute re-propagates demand for every preference on a node without an
// inventory change. Used after preference edits and topology changes.
func (e *Engine) Recompute(g *graph.Graph, nodeID string) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node := g.Node(nodeID)
	if node == nil {
		return nil, shared.NewValidationError("node_id", "unknown node "+nodeID)
	}

	result := &Result{RawTotals: make(map[string]map[string]int)}
	for _, item := range node.PreferenceItems() {
		visited := map[string]bool{}
		e.propagate(g, node, item, visited, 0, result)
	}
	return result, nil
}

// tierNeeds derives the quantities a node must source from upstream, per
// tier. Nodes without a preference still relay downstream demand.
func tierNeeds(node *graph.Node, item string) (normalUp, reserveUp int) {
	pref := node.Preference(item)
	if pref == nil {
		pref = &graph.InventoryPreference{}
	}
	tiers := pref.ComputeDemand(
		node.Inventory(item),
		node.DownstreamDemandTier(item, graph.TierNormal),
		node.DownstreamDemandTier(item, graph.TierReserve),
	)
	return tiers.Normal, tiers.Reserve
}

// propagate walks upstream along eligible routes. The visited set tracks the
// current walk path only, so diamond topologies revisit shared providers with
// their updated demand while genuine cycles truncate.
func (e *Engine) propagate(g *graph.Graph, node *graph.Node, item string, visited map[string]bool, depth int, result *Result) {
	visited[node.ID()] = true
	defer delete(visited, node.ID())
	if depth > result.Depth {
		result.Depth = depth
	}

	// Resource nodes terminate the walk: they accumulate raw totals and
	// never place orders further upstream.
	if node.IsResource() {
		totals := result.RawTotals[node.ID()]
		if totals == nil {
			totals = make(map[string]int)
			result.RawTotals[node.ID()] = totals
		}
		totals[item] = node.DownstreamDemand(item)
		return
	}

	normalUp, reserveUp := tierNeeds(node, item)
	providers := g.EligibleProviders(node.ID(), item)

	for _, tier := range []graph.Tier{graph.TierNormal, graph.TierReserve} {
		qty := normalUp
		if tier == graph.TierReserve {
			qty = reserveUp
		}

		allocations := e.policy.Split(item, qty, providers)
		allocated := map[string]int{}
		for _, alloc := range allocations {
			allocated[alloc.Provider.Node.ID()] = alloc.Quantity
		}

		// Every eligible provider gets its record set, zero included, so a
		// shrinking need clears stale orders from earlier passes.
		for _, prov := range providers {
			qtyForProvider := allocated[prov.Node.ID()]
			prov.Node.RecordDemand(item, tier, node.ID(), qtyForProvider)
			if qtyForProvider > 0 {
				result.Placed = append(result.Placed, PlacedDemand{
					Provider: prov.Node.ID(),
					Consumer: node.ID(),
					Item:     item,
					Tier:     tier,
					Quantity: qtyForProvider,
				})
			}
		}
	}

	for _, prov := range providers {
		if visited[prov.Node.ID()] {
			result.Truncations = append(result.Truncations, shared.NewCycleDetectedError(prov.Node.ID()))
			continue
		}
		e.propagate(g, prov.Node, item, visited, depth+1, result)
	}
}
