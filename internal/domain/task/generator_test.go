package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/order"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

func generatorFixture(t *testing.T) (*graph.Graph, *Registry, *Generator, *shared.MockClock) {
	t.Helper()
	clock := testClock()
	g := graph.NewGraph()
	require.NoError(t, g.AddNode(graph.NewNode("front-1", graph.KindFacility, "Frontline Bunker")))
	require.NoError(t, g.AddNode(graph.NewNode("depot-1", graph.KindLogisticsHub, "Depot East")))
	require.NoError(t, g.AddNode(graph.NewNode("hub-1", graph.KindLogisticsHub, "Backline Hub")))
	require.NoError(t, g.AddNode(graph.NewNode("factory-1", graph.KindFactory, "Eastern Factory")))
	require.NoError(t, g.AddNode(graph.NewNode("mpf-1", graph.KindMassProductionFactory, "Eastern MPF")))
	require.NoError(t, g.AddNode(graph.NewNode("refinery-1", graph.KindRefinery, "Eastern Refinery")))
	require.NoError(t, g.AddNode(graph.NewNode("salvage-1", graph.KindResource, "Salvage Field")))
	require.NoError(t, g.AddEdge(graph.NewEdge("depot-1", "front-1", nil)))
	require.NoError(t, g.AddEdge(graph.NewEdge("hub-1", "depot-1", nil)))
	require.NoError(t, g.AddEdge(graph.NewEdge("factory-1", "depot-1", nil)))
	require.NoError(t, g.AddEdge(graph.NewEdge("refinery-1", "factory-1", nil)))
	require.NoError(t, g.AddEdge(graph.NewEdge("salvage-1", "refinery-1", nil)))
	require.NoError(t, g.AddEdge(graph.NewEdge("depot-1", "factory-1", nil)))

	reg := NewRegistry(clock)
	calc := NewCalculator(DefaultPriorityConfig(), nil)
	gen := NewGenerator(clock, reg, calc)
	return g, reg, gen, clock
}

func TestTransportRoundsUpToTruckLoad(t *testing.T) {
	g, _, gen, clock := generatorFixture(t)

	// 16 crates to the front rounds to two truck loads
	o := order.NewOrder(order.TypeSupply, "7.62mm", 16, "depot-1", "front-1", graph.TierNormal, clock.Now())
	res, err := gen.GenerateForOrder(g, o)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, LevelTransportLastMile, res.Tasks[0].Level())
	assert.Equal(t, 30, res.Tasks[0].Quantity())
	assert.Equal(t, []string{o.ID()}, res.Tasks[0].AssociatedOrders())
}

func TestTransportEstimatesFromRouteTime(t *testing.T) {
	g, _, gen, clock := generatorFixture(t)

	for _, e := range g.Edges() {
		if e.Source() == "depot-1" && e.Target() == "front-1" {
			e.SetTransportTime(45 * time.Minute)
		}
	}

	o := order.NewOrder(order.TypeSupply, "7.62mm", 15, "depot-1", "front-1", graph.TierNormal, clock.Now())
	res, err := gen.GenerateForOrder(g, o)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	require.NotNil(t, res.Tasks[0].EstimatedCompletion())
	assert.Equal(t, clock.Now().Add(45*time.Minute), *res.Tasks[0].EstimatedCompletion())
	assert.Empty(t, res.Notices)

	// An untimed route gets no estimate and reports the gap
	o2 := order.NewOrder(order.TypeTransport, "150mm", 60, "hub-1", "depot-1", graph.TierNormal, clock.Now())
	res2, err := gen.GenerateForOrder(g, o2)
	require.NoError(t, err)
	require.Len(t, res2.Tasks, 1)
	assert.Nil(t, res2.Tasks[0].EstimatedCompletion())
	require.NotEmpty(t, res2.Notices)
	assert.Contains(t, res2.Notices[0].Message, "transport time")
}

func TestProductionNoticeOnMissingRecipe(t *testing.T) {
	g, _, gen, clock := generatorFixture(t)

	o := order.NewOrder(order.TypeProduction, "Signal Flare", 2, "factory-1", "depot-1", graph.TierNormal, clock.Now())
	res, err := gen.GenerateForOrder(g, o)
	require.NoError(t, err)
	require.NotEmpty(t, res.Tasks)
	require.NotEmpty(t, res.Notices)
	assert.Contains(t, res.Notices[0].Message, "no recipe")
}

func TestHubToHubTransportUsesContainerLoads(t *testing.T) {
	g, _, gen, clock := generatorFixture(t)

	o := order.NewOrder(order.TypeTransport, "150mm", 61, "hub-1", "depot-1", graph.TierNormal, clock.Now())
	res, err := gen.GenerateForOrder(g, o)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, LevelTransport, res.Tasks[0].Level())
	assert.Equal(t, 120, res.Tasks[0].Quantity())
}

func TestFactoryBatchesSplitAtFourCrates(t *testing.T) {
	g, _, gen, clock := generatorFixture(t)

	// Bandages are factory-mandatory; 10 crates split 4+4+2. The factory
	// has materials on hand so no cascade fires.
	require.NoError(t, g.SetInventory("factory-1", catalog.BasicMaterials, 100, clock.Now()))
	o := order.NewOrder(order.TypeProduction, "Bandages", 10, "factory-1", "depot-1", graph.TierNormal, clock.Now())
	res, err := gen.GenerateForOrder(g, o)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 3)

	quantities := []int{res.Tasks[0].Quantity(), res.Tasks[1].Quantity(), res.Tasks[2].Quantity()}
	assert.ElementsMatch(t, []int{4, 4, 2}, quantities)
	for _, tk := range res.Tasks {
		assert.Equal(t, LevelQueueProduction, tk.Level())
		assert.Equal(t, catalog.SiteFactory, tk.ProductionSite())
		assert.NotNil(t, tk.EstimatedCompletion())
	}
}

func TestMPFBatchesAreMultiplesOfFive(t *testing.T) {
	g, _, gen, clock := generatorFixture(t)

	// Trucks are MPF-mandatory; 7 crates round up to 10
	require.NoError(t, g.SetInventory("mpf-1", catalog.BasicMaterials, 1000, clock.Now()))
	o := order.NewOrder(order.TypeProduction, "Truck", 7, "mpf-1", "depot-1", graph.TierNormal, clock.Now())
	res, err := gen.GenerateForOrder(g, o)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, 10, res.Tasks[0].Quantity())
	assert.Zero(t, res.Tasks[0].Quantity()%catalog.MPFBatchSize)
	assert.Equal(t, catalog.SiteMPF, res.Tasks[0].ProductionSite())
}

func TestMissingMaterialsCascadeToRefiningAndGathering(t *testing.T) {
	g, reg, gen, clock := generatorFixture(t)

	// Factory holds nothing; the refinery holds nothing; the salvage field
	// must feed the whole chain. 4 crates of bandages need 4 basic materials.
	o := order.NewOrder(order.TypeProduction, "Bandages", 4, "factory-1", "depot-1", graph.TierNormal, clock.Now())
	res, err := gen.GenerateForOrder(g, o)
	require.NoError(t, err)

	byLevel := map[Level]*Task{}
	for _, tk := range res.Tasks {
		byLevel[tk.Level()] = tk
	}
	production := byLevel[LevelQueueProduction]
	transport := byLevel[LevelTransportRefined]
	refining := byLevel[LevelQueueRefining]
	gather := byLevel[LevelRawGather]
	require.NotNil(t, production)
	require.NotNil(t, transport)
	require.NotNil(t, refining)
	require.NotNil(t, gather)

	// Chain wiring: production waits on transport waits on refining waits
	// on gathering
	assert.Contains(t, reg.BlockedBy(production.ID()), transport.ID())
	assert.Contains(t, reg.BlockedBy(transport.ID()), refining.ID())
	assert.Contains(t, reg.BlockedBy(refining.ID()), gather.ID())
	assert.True(t, production.IsBlocked())

	// Quantities: 4 basic materials missing, transport rounds to a truck
	// load, refining covers the shortfall, gathering feeds it at 2 salvage
	// per unit
	assert.Equal(t, catalog.BasicMaterials, transport.Item())
	assert.Equal(t, 15, transport.Quantity())
	assert.Equal(t, catalog.BasicMaterials, refining.Item())
	assert.Equal(t, 4, refining.Quantity())
	assert.Equal(t, catalog.Salvage, gather.Item())
	assert.Equal(t, 8, gather.Quantity())
	assert.Equal(t, "salvage-1", gather.Origin())

	// Bubble flows up the cascade
	assert.Greater(t, transport.Bubble(), 0.0)
	assert.Greater(t, gather.Bubble(), 0.0)
}

func TestCompletionFanOutCreatesPickup(t *testing.T) {
	g, reg, gen, clock := generatorFixture(t)

	queue := NewTask(LevelQueueProduction, "7.62mm", 4, "factory-1", "depot-1", clock.Now())
	require.NoError(t, reg.Add(queue))
	_, err := reg.Claim(queue.ID(), "operator", time.Hour)
	require.NoError(t, err)
	done, err := reg.Complete(queue.ID(), "operator")
	require.NoError(t, err)

	res, err := gen.OnCompleted(g, done)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)

	pickup := res.Tasks[0]
	assert.Equal(t, LevelPickupProduction, pickup.Level())
	assert.Equal(t, queue.ID(), pickup.LinkedTaskID())
	assert.Equal(t, "factory-1", pickup.Origin())
	// Default downstream hub is the factory's hub consumer
	assert.Equal(t, "depot-1", pickup.Destination())
	assert.Equal(t, queue.Quantity(), pickup.Quantity())
}

func TestCompletionFanOutIgnoresTransport(t *testing.T) {
	g, reg, gen, clock := generatorFixture(t)

	tk := NewTask(LevelTransport, "7.62mm", 60, "hub-1", "depot-1", clock.Now())
	require.NoError(t, reg.Add(tk))

	res, err := gen.OnCompleted(g, tk)
	require.NoError(t, err)
	assert.Empty(t, res.Tasks)
}

func TestClosedOrderIsRejected(t *testing.T) {
	g, _, gen, clock := generatorFixture(t)

	o := order.NewOrder(order.TypeSupply, "7.62mm", 15, "depot-1", "front-1", graph.TierNormal, clock.Now())
	require.NoError(t, o.Cancel("front overrun", clock.Now()))

	var ve *shared.ValidationError
	_, err := gen.GenerateForOrder(g, o)
	assert.ErrorAs(t, err, &ve)
}

func TestFeasibilityNoticeOnDeepQueue(t *testing.T) {
	g, reg, gen, clock := generatorFixture(t)
	require.NoError(t, g.SetInventory("factory-1", catalog.BasicMaterials, 1000, clock.Now()))

	for i := 0; i < FeasibilityQueueDepth; i++ {
		tk := NewTask(LevelQueueProduction, "7.62mm", 4, "factory-1", "depot-1", clock.Now())
		require.NoError(t, reg.Add(tk))
	}

	o := order.NewOrder(order.TypeProduction, "Bandages", 2, "factory-1", "depot-1", graph.TierNormal, clock.Now())
	res, err := gen.GenerateForOrder(g, o)
	require.NoError(t, err)
	require.NotEmpty(t, res.Notices)
	assert.Contains(t, res.Notices[0].Message, "factory-1")
}
