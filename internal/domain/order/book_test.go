package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

func testClock() *shared.MockClock {
	return shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func supplyGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph()
	require.NoError(t, g.AddNode(graph.NewNode("front-1", graph.KindFacility, "Frontline Bunker")))
	require.NoError(t, g.AddNode(graph.NewNode("depot-1", graph.KindLogisticsHub, "Depot East")))
	require.NoError(t, g.AddNode(graph.NewNode("factory-1", graph.KindFactory, "Eastern Factory")))
	require.NoError(t, g.AddEdge(graph.NewEdge("depot-1", "front-1", nil)))
	require.NoError(t, g.AddEdge(graph.NewEdge("factory-1", "depot-1", nil)))
	return g
}

func TestCollectCreatesTypedOrders(t *testing.T) {
	g := supplyGraph(t)
	clock := testClock()
	now := clock.Now()

	// Depot holds enough for the front order; factory must produce its share
	require.NoError(t, g.SetInventory("depot-1", "7.62mm", 50, now))
	g.Node("depot-1").RecordDemand("7.62mm", graph.TierNormal, "front-1", 30)
	g.Node("factory-1").RecordDemand("7.62mm", graph.TierNormal, "depot-1", 20)
	g.Node("depot-1").RecordDemand("Bandages", graph.TierReserve, "front-1", 10)

	book := NewBook(clock)
	orders := book.Collect(g)
	require.Len(t, orders, 3)

	byItem := map[string]*Order{}
	for _, o := range orders {
		if o.Tier() == graph.TierReserve {
			byItem["reserve"] = o
		} else {
			byItem[o.Origin()] = o
		}
	}

	assert.Equal(t, TypeSupply, byItem["depot-1"].Type())
	assert.Equal(t, TypeProduction, byItem["factory-1"].Type())
	assert.Equal(t, TypeRefill, byItem["reserve"].Type())
	assert.Equal(t, StatusPending, byItem["depot-1"].Status())
}

func TestCollectInfersTransportBetweenHubs(t *testing.T) {
	g := graph.NewGraph()
	clock := testClock()
	require.NoError(t, g.AddNode(graph.NewNode("hub-a", graph.KindLogisticsHub, "Hub A")))
	require.NoError(t, g.AddNode(graph.NewNode("hub-b", graph.KindLogisticsHub, "Hub B")))
	require.NoError(t, g.AddEdge(graph.NewEdge("hub-a", "hub-b", nil)))
	require.NoError(t, g.SetInventory("hub-a", "150mm", 120, clock.Now()))
	g.Node("hub-a").RecordDemand("150mm", graph.TierNormal, "hub-b", 60)

	book := NewBook(clock)
	orders := book.Collect(g)
	require.Len(t, orders, 1)
	assert.Equal(t, TypeTransport, orders[0].Type())
}

func TestCollectIsIdempotent(t *testing.T) {
	g := supplyGraph(t)
	clock := testClock()
	g.Node("depot-1").RecordDemand("7.62mm", graph.TierNormal, "front-1", 30)

	book := NewBook(clock)
	first := book.Collect(g)
	require.Len(t, first, 1)

	second := book.Collect(g)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID(), second[0].ID())
	assert.Len(t, book.OpenOrders(), 1)
}

func TestCollectResizesAndCancels(t *testing.T) {
	g := supplyGraph(t)
	clock := testClock()
	g.Node("depot-1").RecordDemand("7.62mm", graph.TierNormal, "front-1", 30)

	book := NewBook(clock)
	orders := book.Collect(g)
	id := orders[0].ID()

	// Demand shrinks: same order, new quantity
	g.Node("depot-1").RecordDemand("7.62mm", graph.TierNormal, "front-1", 15)
	book.Collect(g)
	assert.Equal(t, 15, book.Order(id).Quantity())

	// Demand cleared: the order cancels with a reason
	g.Node("depot-1").RecordDemand("7.62mm", graph.TierNormal, "front-1", 0)
	book.Collect(g)
	assert.Equal(t, StatusCancelled, book.Order(id).Status())
	assert.NotEmpty(t, book.Order(id).CancelReason())
	assert.Empty(t, book.OpenOrders())
}

func TestUrgencySeverityTiers(t *testing.T) {
	g := supplyGraph(t)
	clock := testClock()
	now := clock.Now()

	// Target 100, stock 5: 95% shortage is critical
	require.NoError(t, g.SetPreference("front-1", "7.62mm", 100, 0, 0))
	require.NoError(t, g.SetInventory("front-1", "7.62mm", 5, now))
	g.Node("depot-1").RecordDemand("7.62mm", graph.TierNormal, "front-1", 95)

	book := NewBook(clock)
	orders := book.Collect(g)
	require.Len(t, orders, 1)
	assert.InDelta(t, UrgencyCritical, orders[0].Urgency(), 1e-9)

	// Restock to a 40% shortage: base urgency
	require.NoError(t, g.SetInventory("front-1", "7.62mm", 60, now))
	book.Collect(g)
	assert.InDelta(t, UrgencyBase, orders[0].Urgency(), 1e-9)
}

func TestUrgencyGrowsWithAgeUpToCap(t *testing.T) {
	g := supplyGraph(t)
	clock := testClock()
	require.NoError(t, g.SetPreference("front-1", "7.62mm", 100, 0, 0))
	g.Node("depot-1").RecordDemand("7.62mm", graph.TierNormal, "front-1", 100)

	book := NewBook(clock)
	orders := book.Collect(g)
	initial := orders[0].Urgency()

	clock.Advance(5 * time.Hour)
	book.Collect(g)
	aged := orders[0].Urgency()
	assert.Greater(t, aged, initial)
	assert.InDelta(t, UrgencyCritical*1.5, aged, 1e-9)

	clock.Advance(100 * time.Hour)
	book.Collect(g)
	assert.InDelta(t, UrgencyCritical*MaxAgeMultiplier, orders[0].Urgency(), 1e-9)
}

func TestCancelRequiresReason(t *testing.T) {
	g := supplyGraph(t)
	clock := testClock()
	g.Node("depot-1").RecordDemand("7.62mm", graph.TierNormal, "front-1", 30)

	book := NewBook(clock)
	orders := book.Collect(g)

	assert.Error(t, book.Cancel(orders[0].ID(), ""))
	assert.NoError(t, book.Cancel(orders[0].ID(), "front overrun"))
	assert.Equal(t, "front overrun", orders[0].CancelReason())

	// Double cancel is a transition error
	var te *ErrInvalidOrderTransition
	assert.ErrorAs(t, book.Cancel(orders[0].ID(), "again"), &te)
}

func TestCompleteUnknownOrder(t *testing.T) {
	book := NewBook(testClock())
	var de *shared.DependencyError
	assert.ErrorAs(t, book.Complete("nope"), &de)
}

func TestOrderLifecycleTransitions(t *testing.T) {
	clock := testClock()
	o := NewOrder(TypeSupply, "7.62mm", 30, "depot-1", "front-1", graph.TierNormal, clock.Now())

	require.NoError(t, o.Assign(clock.Now()))
	require.NoError(t, o.Start(clock.Now()))
	require.NoError(t, o.Complete(clock.Now()))

	var te *ErrInvalidOrderTransition
	assert.ErrorAs(t, o.Assign(clock.Now()), &te)
	assert.ErrorAs(t, o.Complete(clock.Now()), &te)
}
