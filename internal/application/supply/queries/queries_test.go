package queries_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/commands"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/queries"
	"github.com/dmarchand/quartermaster-go/internal/domain/demand"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
)

func newQueryFixture(t *testing.T) (*supply.State, time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := shared.NewMockClock(now)

	g := graph.NewGraph()
	front := graph.NewNode("front-1", graph.KindFacility, "Callahans Passage")
	depot := graph.NewNode("depot-1", graph.KindLogisticsHub, "Deadlands Depot")
	require.NoError(t, g.AddNode(front))
	require.NoError(t, g.AddNode(depot))
	require.NoError(t, g.AddEdge(graph.NewEdge("depot-1", "front-1", nil)))
	require.NoError(t, g.SetInventory("depot-1", "Bandages", 40, now.Add(-time.Hour)))
	require.NoError(t, g.SetPreference("front-1", "Bandages", 10, 0, 0))

	state := supply.NewState(g, clock, task.DefaultPriorityConfig(), nil, nil, nil)

	handler := commands.NewIngestInventoryEventHandler(state)
	_, err := handler.Handle(context.Background(), &commands.IngestInventoryEventCommand{
		Event: demand.InventoryEvent{
			NodeID:      "front-1",
			Item:        "Bandages",
			NewQuantity: 2,
			Source:      "scanner",
			Timestamp:   now,
		},
	})
	require.NoError(t, err)

	return state, now
}

func TestRankedTasksFiltersByLevel(t *testing.T) {
	state, now := newQueryFixture(t)
	handler := queries.NewRankedTasksHandler(state)

	extra := task.NewTask(task.LevelQueueProduction, "Bandages", 4, "factory-1", "factory-1", now)
	require.NoError(t, state.Registry.Add(extra))

	resp, err := handler.Handle(context.Background(), &queries.RankedTasksQuery{
		Level: string(task.LevelTransportLastMile),
	})
	require.NoError(t, err)

	result := resp.(*queries.RankedTasksResponse)
	require.Len(t, result.Tasks, 1)
	view := result.Tasks[0]
	assert.Equal(t, string(task.LevelTransportLastMile), view.Level)
	assert.Equal(t, "Bandages", view.Item)
	assert.Equal(t, "depot-1", view.Origin)
	assert.Equal(t, "front-1", view.Destination)
	assert.Greater(t, view.Priority, 0.0)
}

func TestRankedTasksHonorsLimit(t *testing.T) {
	state, now := newQueryFixture(t)
	handler := queries.NewRankedTasksHandler(state)

	for i := 0; i < 3; i++ {
		extra := task.NewTask(task.LevelTransport, "Salvage", 60, "depot-1", "front-1", now)
		require.NoError(t, state.Registry.Add(extra))
	}

	resp, err := handler.Handle(context.Background(), &queries.RankedTasksQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.(*queries.RankedTasksResponse).Tasks, 2)
}

func TestOrderStatusListsServingTasks(t *testing.T) {
	state, _ := newQueryFixture(t)
	handler := queries.NewOrderStatusHandler(state)

	open := state.Book.OpenOrders()
	require.Len(t, open, 1)
	orderID := open[0].ID()

	resp, err := handler.Handle(context.Background(), &queries.OrderStatusQuery{OrderID: orderID})
	require.NoError(t, err)

	result := resp.(*queries.OrderStatusResponse)
	assert.Equal(t, orderID, result.OrderID)
	assert.Equal(t, "Bandages", result.Item)
	assert.Equal(t, "depot-1", result.Origin)
	assert.Equal(t, "front-1", result.Destination)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, string(task.LevelTransportLastMile), result.Tasks[0].Level)
}

func TestOrderStatusUnknownOrder(t *testing.T) {
	state, _ := newQueryFixture(t)
	handler := queries.NewOrderStatusHandler(state)

	_, err := handler.Handle(context.Background(), &queries.OrderStatusQuery{OrderID: "no-such-order"})
	require.Error(t, err)
	var depErr *shared.DependencyError
	assert.ErrorAs(t, err, &depErr)
}

func TestBlockedTraceWalksChain(t *testing.T) {
	state, now := newQueryFixture(t)
	handler := queries.NewBlockedTraceHandler(state)

	transport := task.NewTask(task.LevelTransport, "Bandages", 15, "depot-1", "front-1", now)
	queue := task.NewTask(task.LevelQueueProduction, "Bandages", 4, "factory-1", "factory-1", now)
	require.NoError(t, state.Registry.Add(transport))
	require.NoError(t, state.Registry.Add(queue))
	require.NoError(t, state.Registry.AddBlockingEdge(transport.ID(), queue.ID()))

	resp, err := handler.Handle(context.Background(), &queries.BlockedTraceQuery{TaskID: transport.ID()})
	require.NoError(t, err)

	result := resp.(*queries.BlockedTraceResponse)
	assert.True(t, result.Blocked)
	require.Len(t, result.Chain, 1)
	assert.Equal(t, queue.ID(), result.Chain[0].TaskID)
	assert.Equal(t, task.LevelQueueProduction, result.Chain[0].Level)
}

func TestDashboardAggregates(t *testing.T) {
	state, _ := newQueryFixture(t)
	handler := queries.NewDashboardHandler(state)

	resp, err := handler.Handle(context.Background(), &queries.DashboardQuery{TopTasks: 3})
	require.NoError(t, err)

	result := resp.(*queries.DashboardResponse)
	require.Len(t, result.Nodes, 2)
	assert.Equal(t, 1, result.OpenOrders)
	assert.Equal(t, 1, result.TasksByLevel[string(task.LevelTransportLastMile)])
	require.NotEmpty(t, result.TopTasks)
	assert.Equal(t, "Bandages", result.TopTasks[0].Item)

	// Nodes come back sorted by id so repeated renders are stable
	assert.Equal(t, "depot-1", result.Nodes[0].ID)
	assert.Equal(t, "front-1", result.Nodes[1].ID)
	assert.Equal(t, 8, result.Nodes[0].DemandTotal)
}
