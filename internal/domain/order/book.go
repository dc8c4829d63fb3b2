package order

import (
	"sort"
	"time"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// Urgency tuning. Deficit severity is shortage relative to the full target;
// the tiers come from the documented multiplier table. Age grows urgency up
// to a hard cap so old orders cannot starve newer critical ones forever.
const (
	UrgencyCritical = 3.0
	UrgencyHigh     = 2.0
	UrgencyModerate = 1.5
	UrgencyBase     = 1.0

	AgeUrgencyPerHour = 0.1
	MaxAgeMultiplier  = 2.0
)

type bookKey struct {
	origin      string
	destination string
	item        string
	tier        graph.Tier
}

// Book materializes Order records from the demand recorded on graph nodes.
// Re-scanning with unchanged graph state never creates duplicate open orders
// for the same (node, item, tier).
type Book struct {
	clock  shared.Clock
	orders map[string]*Order
	open   map[bookKey]string
}

// NewBook creates an empty order book
func NewBook(clock shared.Clock) *Book {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Book{
		clock:  clock,
		orders: make(map[string]*Order),
		open:   make(map[bookKey]string),
	}
}

// Collect scans every node's recorded demand and upserts orders. Existing
// open orders are resized; cleared demand cancels them; new demand creates
// them with a type inferred from context. Returns the orders touched.
func (b *Book) Collect(g *graph.Graph) []*Order {
	now := b.clock.Now()
	seen := make(map[bookKey]bool)
	var touched []*Order

	for _, node := range g.Nodes() {
		for _, rec := range node.DemandRecords() {
			key := bookKey{
				origin:      node.ID(),
				destination: rec.Consumer,
				item:        rec.Item,
				tier:        rec.Tier,
			}
			seen[key] = true

			if id, ok := b.open[key]; ok {
				existing := b.orders[id]
				if existing.Quantity() != rec.Quantity {
					existing.SetQuantity(rec.Quantity, now)
				}
				existing.SetUrgency(b.urgency(g, existing, now))
				touched = append(touched, existing)
				continue
			}

			created := NewOrder(inferType(g, node, rec), rec.Item, rec.Quantity, node.ID(), rec.Consumer, rec.Tier, now)
			created.SetUrgency(b.urgency(g, created, now))
			b.orders[created.ID()] = created
			b.open[key] = created.ID()
			touched = append(touched, created)
		}
	}

	// Demand that disappeared since the last scan cancels its order
	for key, id := range b.open {
		if seen[key] {
			continue
		}
		o := b.orders[id]
		if o.IsOpen() {
			_ = o.Cancel("demand cleared by restock", now)
		}
		delete(b.open, key)
	}

	return touched
}

// inferType classifies an order from graph context
func inferType(g *graph.Graph, origin *graph.Node, rec graph.DemandRecord) OrderType {
	if rec.Tier == graph.TierReserve {
		return TypeRefill
	}
	if origin.Inventory(rec.Item) >= rec.Quantity {
		// Stock already covers it; between two routing hubs that is a
		// container move rather than a last-mile supply run
		if dest := g.Node(rec.Consumer); dest != nil && origin.IsLogisticsHub() && dest.IsLogisticsHub() {
			return TypeTransport
		}
		return TypeSupply
	}
	if origin.CanProduce() && (catalog.Producible(rec.Item) || catalog.IsRefinedMaterial(rec.Item)) {
		return TypeProduction
	}
	return TypeSupply
}

// urgency derives the order's urgency from shortage severity at the
// destination and order age.
func (b *Book) urgency(g *graph.Graph, o *Order, now time.Time) float64 {
	severity := UrgencyBase
	if dest := g.Node(o.Destination()); dest != nil {
		if pref := dest.Preference(o.Item()); pref != nil {
			target := pref.QuantityDesired + pref.ReserveQuantity
			if target > 0 {
				shortage := target - (dest.Inventory(o.Item()) - pref.HeldQuantity)
				ratio := float64(shortage) / float64(target)
				switch {
				case ratio >= 0.9:
					severity = UrgencyCritical
				case ratio >= 0.7:
					severity = UrgencyHigh
				case ratio >= 0.5:
					severity = UrgencyModerate
				}
			}
		}
	}

	ageMult := 1.0 + o.Age(now).Hours()*AgeUrgencyPerHour
	if ageMult > MaxAgeMultiplier {
		ageMult = MaxAgeMultiplier
	}
	return severity * ageMult
}

// Order returns an order by id, nil if absent
func (b *Book) Order(id string) *Order {
	return b.orders[id]
}

// Orders returns every order, open and terminal, sorted by creation time
func (b *Book) Orders() []*Order {
	out := make([]*Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().Before(out[j].CreatedAt())
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// OpenOrders returns orders that still represent live demand
func (b *Book) OpenOrders() []*Order {
	all := b.Orders()
	out := make([]*Order, 0, len(all))
	for _, o := range all {
		if o.IsOpen() {
			out = append(out, o)
		}
	}
	return out
}

// OpenOrdersFor returns open orders destined for a node
func (b *Book) OpenOrdersFor(nodeID string) []*Order {
	var out []*Order
	for _, o := range b.OpenOrders() {
		if o.Destination() == nodeID {
			out = append(out, o)
		}
	}
	return out
}

// Complete marks an order completed
func (b *Book) Complete(id string) error {
	o := b.orders[id]
	if o == nil {
		return shared.NewDependencyError(id, "order "+id+" not found")
	}
	if err := o.Complete(b.clock.Now()); err != nil {
		return err
	}
	b.release(o)
	return nil
}

// Cancel cancels an order with a required reason
func (b *Book) Cancel(id, reason string) error {
	o := b.orders[id]
	if o == nil {
		return shared.NewDependencyError(id, "order "+id+" not found")
	}
	if err := o.Cancel(reason, b.clock.Now()); err != nil {
		return err
	}
	b.release(o)
	return nil
}

func (b *Book) release(o *Order) {
	key := bookKey{origin: o.Origin(), destination: o.Destination(), item: o.Item(), tier: o.Tier()}
	if b.open[key] == o.ID() {
		delete(b.open, key)
	}
}

// UrgencyOf resolves an order id to its current urgency. Satisfies the
// priority calculator's urgency source.
func (b *Book) UrgencyOf(id string) (float64, bool) {
	o := b.orders[id]
	if o == nil || !o.IsOpen() {
		return 0, false
	}
	return o.Urgency(), true
}

// Restore places a reconstructed order back into the book, used when loading
// persisted state.
func (b *Book) Restore(o *Order) {
	b.orders[o.ID()] = o
	if o.IsOpen() {
		b.open[bookKey{origin: o.Origin(), destination: o.Destination(), item: o.Item(), tier: o.Tier()}] = o.ID()
	}
}
