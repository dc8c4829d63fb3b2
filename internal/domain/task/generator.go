package task

import (
	"fmt"
	"time"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/order"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// Queue lead times used to set estimated completion on timed queue tasks
const (
	FactoryLeadPerCrate = 10 * time.Minute
	RefineryLeadPerUnit = 2 * time.Minute

	// FeasibilityQueueDepth is the open-queue depth past which a
	// low-urgency request draws an advisory notice
	FeasibilityQueueDepth = 5
)

// Notice is a non-fatal advisory attached to generation output
type Notice struct {
	TaskID  string
	Message string
}

// GenerationResult is everything one generation pass produced
type GenerationResult struct {
	Tasks   []*Task
	Notices []Notice
}

// Generator converts orders and deficits into tasks, cascading down through
// supply-chain levels when prerequisites are missing. Each cascade step
// records a blocking edge and passes a bubble of the downstream task's
// priority to the new upstream task.
type Generator struct {
	clock    shared.Clock
	registry *Registry
	calc     *Calculator
}

// NewGenerator creates a generator writing into the given registry
func NewGenerator(clock shared.Clock, registry *Registry, calc *Calculator) *Generator {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Generator{clock: clock, registry: registry, calc: calc}
}

// GenerateForOrder turns one open order into tasks. Transport-shaped orders
// become load-rounded transport tasks; production orders become queue tasks
// with material prerequisite cascades.
func (gen *Generator) GenerateForOrder(g *graph.Graph, o *order.Order) (*GenerationResult, error) {
	if !o.IsOpen() {
		return nil, shared.NewValidationError("order", "order "+o.ID()+" is not open")
	}
	result := &GenerationResult{}

	switch o.Type() {
	case order.TypeProduction:
		if err := gen.generateProduction(g, o, result); err != nil {
			return nil, err
		}
	default:
		if err := gen.generateTransport(g, o, result); err != nil {
			return nil, err
		}
	}

	if len(result.Tasks) > 0 && o.Status() == order.StatusPending {
		if err := o.Assign(gen.clock.Now()); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// generateTransport emits a transport task rounded up to a full load:
// container loads between routing hubs, truck loads for the last mile.
func (gen *Generator) generateTransport(g *graph.Graph, o *order.Order, result *GenerationResult) error {
	origin := g.Node(o.Origin())
	dest := g.Node(o.Destination())
	if origin == nil || dest == nil {
		return shared.NewDependencyError(o.ID(), "order endpoints missing from graph")
	}

	level := LevelTransportLastMile
	loadUnit := catalog.FullTruckLoad
	if origin.IsLogisticsHub() && dest.IsLogisticsHub() {
		level = LevelTransport
		loadUnit = catalog.FullContainerLoad
	}
	if catalog.IsRefinedMaterial(o.Item()) {
		level = LevelTransportRefined
		loadUnit = catalog.FullTruckLoad
	}

	t := NewTask(level, o.Item(), catalog.RoundUpToLoad(o.Quantity(), loadUnit), o.Origin(), o.Destination(), gen.clock.Now())
	t.AssociateOrder(o.ID())
	if err := gen.registry.Add(t); err != nil {
		return err
	}
	gen.score(t)
	result.Tasks = append(result.Tasks, t)

	// The route's transport time drives the arrival estimate. A route
	// without one gets no estimate, and the gap is reported.
	var route *graph.Edge
	for _, p := range g.UpstreamProviders(dest.ID()) {
		if p.Node.ID() == origin.ID() {
			route = p.Edge
			break
		}
	}
	if route != nil && route.TransportTime() != nil {
		t.SetEstimatedCompletion(gen.clock.Now().Add(*route.TransportTime()))
	} else {
		miss := shared.NewInsufficientDataError(o.Origin()+" -> "+o.Destination(), "no transport time on record, arrival estimate skipped")
		result.Notices = append(result.Notices, Notice{TaskID: t.ID(), Message: miss.Error()})
	}
	return nil
}

// generateProduction emits queue tasks at the producing node, batched per
// site rules, then cascades to refining and raw gathering for any missing
// inputs.
func (gen *Generator) generateProduction(g *graph.Graph, o *order.Order, result *GenerationResult) error {
	origin := g.Node(o.Origin())
	if origin == nil {
		return shared.NewDependencyError(o.Origin(), "production node missing from graph")
	}

	shortfall := o.Quantity() - origin.Inventory(o.Item())
	if shortfall <= 0 {
		// Stock appeared since the order was typed; a plain transport covers it
		return gen.generateTransport(g, o, result)
	}

	if catalog.IsRefinedMaterial(o.Item()) {
		t, err := gen.queueRefining(g, origin, o.Item(), shortfall, 0, result)
		if err != nil {
			return err
		}
		t.AssociateOrder(o.ID())
		return nil
	}

	urgent := o.Urgency() >= order.UrgencyHigh
	site := catalog.PreferredSite(o.Item(), shortfall, urgent)

	var batches []int
	switch site {
	case catalog.SiteMPF:
		batches = []int{catalog.RoundUpToMPFBatch(shortfall)}
	default:
		remaining := shortfall
		for remaining > 0 {
			batch := remaining
			if batch > catalog.FactoryMaxCratesPerTask {
				batch = catalog.FactoryMaxCratesPerTask
			}
			batches = append(batches, batch)
			remaining -= batch
		}
	}

	gen.noticeQueueDepth(origin.ID(), o, result)

	for _, batch := range batches {
		t := NewTask(LevelQueueProduction, o.Item(), batch, origin.ID(), o.Destination(), gen.clock.Now())
		t.AssociateOrder(o.ID())
		t.SetProductionSite(site)
		if site == catalog.SiteMPF {
			t.SetEstimatedCompletion(gen.clock.Now().Add(catalog.MPFQueueExpiry))
		} else {
			t.SetEstimatedCompletion(gen.clock.Now().Add(time.Duration(batch) * FactoryLeadPerCrate))
		}
		if err := gen.registry.Add(t); err != nil {
			return err
		}
		gen.score(t)
		result.Tasks = append(result.Tasks, t)

		if err := gen.ensureRefinedInputs(g, origin, t, batch, result); err != nil {
			return err
		}
	}
	return nil
}

// ensureRefinedInputs verifies the production site holds the refined
// materials the batch consumes, creating a transport task and a refining
// cascade for any shortfall. The production task blocks on each new task it
// spawns.
func (gen *Generator) ensureRefinedInputs(g *graph.Graph, site *graph.Node, production *Task, crates int, result *GenerationResult) error {
	inputs := catalog.RefinedInputsFor(production.Item())
	if len(inputs) == 0 {
		miss := shared.NewInsufficientDataError(production.Item(), "no recipe on record, material check skipped")
		result.Notices = append(result.Notices, Notice{TaskID: production.ID(), Message: miss.Error()})
		return nil
	}
	for material, perCrate := range inputs {
		needed := perCrate * crates
		have := site.Inventory(material)
		if have >= needed {
			continue
		}
		missing := needed - have

		// Source the refined material from an upstream provider when one
		// exists; otherwise the transport starts wherever refining lands.
		supplier := ""
		providers := g.EligibleProviders(site.ID(), material)
		if len(providers) > 0 {
			supplier = providers[0].Node.ID()
		}

		transport := NewTask(LevelTransportRefined, material, catalog.RoundUpToLoad(missing, catalog.FullTruckLoad), supplier, site.ID(), gen.clock.Now())
		if err := gen.registry.Add(transport); err != nil {
			return err
		}
		if err := gen.registry.AddBlockingEdge(production.ID(), transport.ID()); err != nil {
			return err
		}
		gen.score(production)
		transport.SetBubble(gen.bubble(production))
		gen.score(transport)
		result.Tasks = append(result.Tasks, transport)

		// Does the supplier actually hold the material, or must it refine?
		var supplierNode *graph.Node
		if supplier != "" {
			supplierNode = g.Node(supplier)
		}
		if supplierNode == nil || supplierNode.Inventory(material) >= missing {
			continue
		}
		refining, err := gen.queueRefining(g, supplierNode, material, missing-supplierNode.Inventory(material), gen.bubble(transport), result)
		if err != nil {
			return err
		}
		if err := gen.registry.AddBlockingEdge(transport.ID(), refining.ID()); err != nil {
			return err
		}
		gen.score(transport)
	}
	return nil
}

// queueRefining emits a refining queue task and cascades to raw gathering
// when the refinery lacks raw inputs
func (gen *Generator) queueRefining(g *graph.Graph, refinery *graph.Node, material string, units int, bubble float64, result *GenerationResult) (*Task, error) {
	t := NewTask(LevelQueueRefining, material, units, refinery.ID(), refinery.ID(), gen.clock.Now())
	t.SetProductionSite(catalog.SiteRefinery)
	t.SetBubble(bubble)
	t.SetEstimatedCompletion(gen.clock.Now().Add(time.Duration(units) * RefineryLeadPerUnit))
	if err := gen.registry.Add(t); err != nil {
		return nil, err
	}
	gen.score(t)
	result.Tasks = append(result.Tasks, t)

	for raw, perUnit := range catalog.RawInputsFor(material) {
		needed := perUnit * units
		have := refinery.Inventory(raw)
		if have >= needed {
			continue
		}
		missing := needed - have

		source := refinery.ID()
		for _, prov := range g.EligibleProviders(refinery.ID(), raw) {
			if prov.Node.IsResource() {
				source = prov.Node.ID()
				break
			}
		}

		gather := NewTask(LevelRawGather, raw, missing, source, refinery.ID(), gen.clock.Now())
		if err := gen.registry.Add(gather); err != nil {
			return nil, err
		}
		if err := gen.registry.AddBlockingEdge(t.ID(), gather.ID()); err != nil {
			return nil, err
		}
		gen.score(t)
		gather.SetBubble(gen.bubble(t))
		gen.score(gather)
		result.Tasks = append(result.Tasks, gather)
	}
	return t, nil
}

// OnCompleted runs completion fan-out: a finished production or refining
// queue deterministically spawns a linked pickup task toward the default
// downstream hub.
func (gen *Generator) OnCompleted(g *graph.Graph, completed *Task) (*GenerationResult, error) {
	result := &GenerationResult{}

	var pickupLevel Level
	switch completed.Level() {
	case LevelQueueProduction:
		pickupLevel = LevelPickupProduction
	case LevelQueueRefining:
		pickupLevel = LevelPickupRefined
	default:
		return result, nil
	}

	dest := completed.Destination()
	for _, consumer := range g.DownstreamConsumers(completed.Origin()) {
		if consumer.Node.IsLogisticsHub() && consumer.Edge.CarriesItem(completed.Item()) {
			dest = consumer.Node.ID()
			break
		}
	}

	pickup := NewTask(pickupLevel, completed.Item(), completed.Quantity(), completed.Origin(), dest, gen.clock.Now())
	pickup.SetLinkedTask(completed.ID())
	pickup.SetBubble(completed.Bubble())
	for _, orderID := range completed.AssociatedOrders() {
		pickup.AssociateOrder(orderID)
	}
	if err := gen.registry.Add(pickup); err != nil {
		return nil, err
	}
	gen.score(pickup)
	result.Tasks = append(result.Tasks, pickup)
	return result, nil
}

// noticeQueueDepth attaches an advisory when a low-urgency request lands on
// an already deep queue
func (gen *Generator) noticeQueueDepth(nodeID string, o *order.Order, result *GenerationResult) {
	if o.Urgency() > order.UrgencyBase {
		return
	}
	depth := 0
	for _, t := range gen.registry.Open() {
		if t.Origin() == nodeID && (t.Level() == LevelQueueProduction || t.Level() == LevelQueueRefining) {
			depth++
		}
	}
	if depth >= FeasibilityQueueDepth {
		result.Notices = append(result.Notices, Notice{
			Message: fmt.Sprintf("queue at %s is %d deep, low-urgency order %s may wait", nodeID, depth, o.ID()),
		})
	}
}

func (gen *Generator) score(t *Task) {
	if gen.calc != nil {
		gen.calc.Score(gen.registry, t)
	}
}

func (gen *Generator) bubble(downstream *Task) float64 {
	if gen.calc == nil {
		return 0
	}
	return gen.calc.InheritedBubble(downstream)
}
