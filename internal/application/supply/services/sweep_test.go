package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/services"
	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
)

func newSweepFixture(t *testing.T) (*supply.State, *shared.MockClock, time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := shared.NewMockClock(now)

	g := graph.NewGraph()
	factory := graph.NewNode("factory-1", graph.KindFactory, "Works")
	depot := graph.NewNode("depot-1", graph.KindLogisticsHub, "Depot")
	require.NoError(t, g.AddNode(factory))
	require.NoError(t, g.AddNode(depot))
	require.NoError(t, g.AddEdge(graph.NewEdge("factory-1", "depot-1", nil)))

	return supply.NewState(g, clock, task.DefaultPriorityConfig(), nil, nil, nil), clock, now
}

func TestSweepExpiresClaims(t *testing.T) {
	state, clock, now := newSweepFixture(t)
	sweeper := services.NewSweeper(state, time.Minute, time.Nanosecond)

	tk := task.NewTask(task.LevelTransportLastMile, "Bandages", 15, "depot-1", "front-1", now)
	require.NoError(t, state.Registry.Add(tk))
	_, err := state.Registry.Claim(tk.ID(), "hauler-7", 30*time.Minute)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.ExpiredClaims)
	assert.Equal(t, task.StatusUnclaimed, state.Registry.Get(tk.ID()).Status())
}

func TestSweepAutoCompletesDueQueues(t *testing.T) {
	state, clock, now := newSweepFixture(t)
	sweeper := services.NewSweeper(state, time.Minute, time.Nanosecond)

	queued := task.NewTask(task.LevelQueueProduction, "Bandages", 4, "factory-1", "factory-1", now)
	queued.SetEstimatedCompletion(now.Add(10 * time.Minute))
	require.NoError(t, state.Registry.Add(queued))

	clock.Advance(15 * time.Minute)

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.AutoCompleted)
	assert.Equal(t, 1, result.FollowUpTasks)
	assert.Equal(t, task.StatusComplete, state.Registry.Get(queued.ID()).Status())

	var pickup *task.Task
	for _, open := range state.Registry.Open() {
		if open.Level() == task.LevelPickupProduction {
			pickup = open
		}
	}
	require.NotNil(t, pickup)
	assert.Equal(t, "factory-1", pickup.Origin())
	assert.Equal(t, "depot-1", pickup.Destination())
	assert.Equal(t, queued.ID(), pickup.LinkedTaskID())
}

func TestSweepRespectsMinSpacing(t *testing.T) {
	state, _, _ := newSweepFixture(t)
	sweeper := services.NewSweeper(state, time.Minute, time.Hour)

	first, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Nil(t, second)
}
