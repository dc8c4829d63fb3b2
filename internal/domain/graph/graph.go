package graph

import (
	"time"

	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// Provider pairs an upstream node with the route reaching it
type Provider struct {
	Node *Node
	Edge *Edge
}

// Graph is the supply-chain topology plus per-node inventory and preference
// state. It exclusively owns node and edge mutation; callers never touch
// nodes behind its back.
//
// The graph itself is not goroutine-safe. The propagation engine serializes
// access per event; concurrent readers must coordinate there.
type Graph struct {
	nodes map[string]*Node
	edges []*Edge

	// adjacency by consumer: upstreamOf[target] lists edges whose target is
	// that node, so demand can walk toward resource nodes
	upstreamOf map[string][]*Edge

	// adjacency by provider: downstreamOf[source] mirrors the other way
	downstreamOf map[string][]*Edge
}

// NewGraph creates an empty supply-chain graph
func NewGraph() *Graph {
	return &Graph{
		nodes:        make(map[string]*Node),
		upstreamOf:   make(map[string][]*Edge),
		downstreamOf: make(map[string][]*Edge),
	}
}

// AddNode registers a node. Re-adding an existing id is a conflict.
func (g *Graph) AddNode(node *Node) error {
	if node == nil || node.ID() == "" {
		return shared.NewValidationError("node", "node id must not be empty")
	}
	if _, exists := g.nodes[node.ID()]; exists {
		return shared.NewValidationError("node", "node "+node.ID()+" already exists")
	}
	g.nodes[node.ID()] = node
	return nil
}

// AddEdge registers a directed route from provider to consumer. Both
// endpoints must exist, and resource nodes cannot have upstream providers.
func (g *Graph) AddEdge(edge *Edge) error {
	_, ok := g.nodes[edge.Source()]
	if !ok {
		return shared.NewDependencyError(edge.Source(), "edge source node "+edge.Source()+" not found")
	}
	target, ok := g.nodes[edge.Target()]
	if !ok {
		return shared.NewDependencyError(edge.Target(), "edge target node "+edge.Target()+" not found")
	}
	if target.IsResource() {
		return shared.NewValidationError("edge", "resource node "+target.ID()+" cannot have upstream providers")
	}
	g.edges = append(g.edges, edge)
	g.upstreamOf[edge.Target()] = append(g.upstreamOf[edge.Target()], edge)
	g.downstreamOf[edge.Source()] = append(g.downstreamOf[edge.Source()], edge)
	return nil
}

// Node returns a node by id, nil if absent
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns every node in the graph
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Edges returns every edge in the graph
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// SetInventory sets the stocked quantity of an item at a node and bumps the
// node's last-updated time.
func (g *Graph) SetInventory(nodeID, item string, qty int, at time.Time) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return shared.NewValidationError("node_id", "unknown node "+nodeID)
	}
	if qty < 0 {
		return shared.NewValidationError("quantity", "inventory quantity must not be negative")
	}
	node.inventory[item] = qty
	node.lastUpdated = at
	return nil
}

// SetPreference sets the desired/reserve/held stocking target for an item at
// a node. All three quantities must be non-negative.
func (g *Graph) SetPreference(nodeID, item string, desired, reserve, held int) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return shared.NewValidationError("node_id", "unknown node "+nodeID)
	}
	if desired < 0 || reserve < 0 || held < 0 {
		return shared.NewValidationError("preference", "preference quantities must not be negative")
	}
	node.preferences[item] = &InventoryPreference{
		QuantityDesired: desired,
		ReserveQuantity: reserve,
		HeldQuantity:    held,
	}
	return nil
}

// UpstreamProviders returns the providers feeding a node, with their routes
func (g *Graph) UpstreamProviders(nodeID string) []Provider {
	edges := g.upstreamOf[nodeID]
	out := make([]Provider, 0, len(edges))
	for _, edge := range edges {
		if node := g.nodes[edge.Source()]; node != nil {
			out = append(out, Provider{Node: node, Edge: edge})
		}
	}
	return out
}

// DownstreamConsumers returns the nodes a provider feeds, with their routes
func (g *Graph) DownstreamConsumers(nodeID string) []Provider {
	edges := g.downstreamOf[nodeID]
	out := make([]Provider, 0, len(edges))
	for _, edge := range edges {
		if node := g.nodes[edge.Target()]; node != nil {
			out = append(out, Provider{Node: node, Edge: edge})
		}
	}
	return out
}

// EligibleProviders filters a node's upstream providers to routes that may
// carry the item. Inactive providers are skipped.
func (g *Graph) EligibleProviders(nodeID, item string) []Provider {
	all := g.UpstreamProviders(nodeID)
	out := make([]Provider, 0, len(all))
	for _, p := range all {
		if p.Node.Status() != NodeStatusActive {
			continue
		}
		if p.Edge.CarriesItem(item) {
			out = append(out, p)
		}
	}
	return out
}
