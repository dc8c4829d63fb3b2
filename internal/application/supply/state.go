package supply

import (
	"context"
	"sync"

	"github.com/dmarchand/quartermaster-go/internal/domain/demand"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/order"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
)

// GraphStore persists the supply graph
type GraphStore interface {
	Save(ctx context.Context, g *graph.Graph) error
	Load(ctx context.Context) (*graph.Graph, error)
}

// OrderStore persists orders
type OrderStore interface {
	SaveAll(ctx context.Context, orders []*order.Order) error
	RestoreBook(ctx context.Context, book *order.Book) error
}

// TaskStore persists tasks and their blocking edges
type TaskStore interface {
	SaveRegistry(ctx context.Context, reg *task.Registry) error
	RestoreRegistry(ctx context.Context, reg *task.Registry) error
}

// State is the shared in-memory supply chain state behind every command and
// query. The mutex serializes whole operations: an inventory event's
// propagation, order collection and task generation are never interleaved
// with a claim or a sweep.
type State struct {
	mu sync.Mutex

	clock      shared.Clock
	Graph      *graph.Graph
	Engine     *demand.Engine
	Book       *order.Book
	Registry   *task.Registry
	Generator  *task.Generator
	Calculator *task.Calculator

	graphStore GraphStore
	orderStore OrderStore
	taskStore  TaskStore
}

// NewState wires a fresh state around the given graph. Stores may be nil for
// purely in-memory operation.
func NewState(
	g *graph.Graph,
	clock shared.Clock,
	priorityConfig task.PriorityConfig,
	graphStore GraphStore,
	orderStore OrderStore,
	taskStore TaskStore,
) *State {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	book := order.NewBook(clock)
	registry := task.NewRegistry(clock)
	calc := task.NewCalculator(priorityConfig, book)
	return &State{
		clock:      clock,
		Graph:      g,
		Engine:     demand.NewEngine(nil),
		Book:       book,
		Registry:   registry,
		Generator:  task.NewGenerator(clock, registry, calc),
		Calculator: calc,
		graphStore: graphStore,
		orderStore: orderStore,
		taskStore:  taskStore,
	}
}

// Restore loads persisted orders and tasks into the live book and registry
func (s *State) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orderStore != nil {
		if err := s.orderStore.RestoreBook(ctx, s.Book); err != nil {
			return err
		}
	}
	if s.taskStore != nil {
		if err := s.taskStore.RestoreRegistry(ctx, s.Registry); err != nil {
			return err
		}
	}
	return nil
}

// Lock takes the state mutex for one whole operation
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the state mutex
func (s *State) Unlock() { s.mu.Unlock() }

// Clock returns the state's time source
func (s *State) Clock() shared.Clock { return s.clock }

// HasOpenTaskFor reports whether any open task is already associated with
// the order. Callers must hold the state lock.
func (s *State) HasOpenTaskFor(orderID string) bool {
	for _, t := range s.Registry.Open() {
		for _, id := range t.AssociatedOrders() {
			if id == orderID {
				return true
			}
		}
	}
	return false
}

// OpenTasksFor returns every open task associated with the order. Callers
// must hold the state lock.
func (s *State) OpenTasksFor(orderID string) []*task.Task {
	var out []*task.Task
	for _, t := range s.Registry.Open() {
		for _, id := range t.AssociatedOrders() {
			if id == orderID {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Persist writes the graph, orders and tasks through the configured stores.
// Callers must hold the state lock.
func (s *State) Persist(ctx context.Context) error {
	if s.graphStore != nil {
		if err := s.graphStore.Save(ctx, s.Graph); err != nil {
			return err
		}
	}
	if s.orderStore != nil {
		if err := s.orderStore.SaveAll(ctx, s.Book.Orders()); err != nil {
			return err
		}
	}
	if s.taskStore != nil {
		if err := s.taskStore.SaveRegistry(ctx, s.Registry); err != nil {
			return err
		}
	}
	return nil
}
