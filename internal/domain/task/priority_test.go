package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUrgencies map[string]float64

func (s stubUrgencies) UrgencyOf(id string) (float64, bool) {
	u, ok := s[id]
	return u, ok
}

func TestTimeMultiplierCurve(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	calc := NewCalculator(DefaultPriorityConfig(), nil)

	blocked := NewTask(LevelTransportLastMile, "7.62mm", 15, "depot-1", "front-1", clock.Now())
	blocker := NewTask(LevelQueueProduction, "7.62mm", 4, "factory-1", "depot-1", clock.Now())
	require.NoError(t, reg.Add(blocked))
	require.NoError(t, reg.Add(blocker))
	require.NoError(t, reg.AddBlockingEdge(blocked.ID(), blocker.ID()))

	// Freshly blocked: 1.00x
	b := calc.Score(reg, blocked)
	assert.InDelta(t, 1.00, b.TimeMultiplier, 0.001)

	// 8 hours blocked: about 2.23x
	clock.Advance(8 * time.Hour)
	b = calc.Score(reg, blocked)
	assert.InDelta(t, 2.2255, b.TimeMultiplier, 0.01)

	// 24+ hours: capped at 5.00x
	clock.Advance(20 * time.Hour)
	b = calc.Score(reg, blocked)
	assert.InDelta(t, 5.00, b.TimeMultiplier, 0.001)
}

func TestBlockedChainWorkedExample(t *testing.T) {
	// A (base 10) blocked by B (5) blocked by C (3); after 8 hours
	// TotalBlockedWeight(A) = 8 and priority(A) is about 8 x 2.23 + 10
	clock := testClock()
	reg := NewRegistry(clock)
	calc := NewCalculator(DefaultPriorityConfig(), nil)

	a := NewTask(LevelTransportLastMile, "150mm", 15, "depot-1", "front-1", clock.Now())
	a.SetBasePriority(10)
	b := NewTask(LevelQueueProduction, "150mm", 4, "factory-1", "depot-1", clock.Now())
	b.SetBasePriority(5)
	c := NewTask(LevelQueueRefining, "High Explosive Powder", 8, "refinery-1", "refinery-1", clock.Now())
	c.SetBasePriority(3)
	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(b))
	require.NoError(t, reg.Add(c))
	require.NoError(t, reg.AddBlockingEdge(a.ID(), b.ID()))
	require.NoError(t, reg.AddBlockingEdge(b.ID(), c.ID()))

	clock.Advance(8 * time.Hour)
	breakdown := calc.Score(reg, a)

	assert.InDelta(t, 8.0, breakdown.BlockedWeight, 1e-9)
	assert.InDelta(t, 27.8, breakdown.Total, 0.1)
	assert.Equal(t, breakdown.Total, a.Priority())
}

func TestPriorityMonotonicInBlockedWeightAndTime(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	calc := NewCalculator(DefaultPriorityConfig(), nil)

	a := NewTask(LevelTransportLastMile, "7.62mm", 15, "depot-1", "front-1", clock.Now())
	b1 := NewTask(LevelQueueProduction, "7.62mm", 4, "factory-1", "depot-1", clock.Now())
	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(b1))
	require.NoError(t, reg.AddBlockingEdge(a.ID(), b1.ID()))

	first := calc.Score(reg, a).Total

	// More blocked weight raises the score
	b2 := NewTask(LevelQueueRefining, "Basic Materials", 10, "refinery-1", "factory-1", clock.Now())
	require.NoError(t, reg.Add(b2))
	require.NoError(t, reg.AddBlockingEdge(a.ID(), b2.ID()))
	withMoreWeight := calc.Score(reg, a).Total
	assert.Greater(t, withMoreWeight, first)

	// More time blocked raises it further
	clock.Advance(4 * time.Hour)
	withTime := calc.Score(reg, a).Total
	assert.Greater(t, withTime, withMoreWeight)
}

func TestCompletedBlockersStopContributing(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	calc := NewCalculator(DefaultPriorityConfig(), nil)

	a := NewTask(LevelTransportLastMile, "7.62mm", 15, "depot-1", "front-1", clock.Now())
	b := NewTask(LevelQueueProduction, "7.62mm", 4, "factory-1", "depot-1", clock.Now())
	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(b))
	require.NoError(t, reg.AddBlockingEdge(a.ID(), b.ID()))

	require.Greater(t, calc.Score(reg, a).BlockedWeight, 0.0)

	_, err := reg.Claim(b.ID(), "operator", time.Hour)
	require.NoError(t, err)
	_, err = reg.Complete(b.ID(), "operator")
	require.NoError(t, err)

	breakdown := calc.Score(reg, a)
	assert.Zero(t, breakdown.BlockedWeight)
	assert.InDelta(t, 1.0, breakdown.TimeMultiplier, 1e-9)
}

func TestUrgencyBonusSumsAssociatedOrders(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	calc := NewCalculator(DefaultPriorityConfig(), stubUrgencies{"ord-1": 3.0, "ord-2": 1.5})

	a := NewTask(LevelTransportLastMile, "7.62mm", 15, "depot-1", "front-1", clock.Now())
	a.AssociateOrder("ord-1")
	a.AssociateOrder("ord-2")
	a.AssociateOrder("ord-gone")
	require.NoError(t, reg.Add(a))

	breakdown := calc.Score(reg, a)
	assert.InDelta(t, 4.5, breakdown.UrgencyBonus, 1e-9)
}

func TestBubbleContributesAndAttenuates(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	calc := NewCalculator(DefaultPriorityConfig(), nil)

	downstream := NewTask(LevelTransportLastMile, "7.62mm", 15, "depot-1", "front-1", clock.Now())
	downstream.SetBasePriority(20)
	require.NoError(t, reg.Add(downstream))
	calc.Score(reg, downstream)

	// One hop up inherits half, two hops a quarter
	oneHop := calc.InheritedBubble(downstream)
	assert.InDelta(t, 10.0, oneHop, 1e-9)

	mid := NewTask(LevelQueueProduction, "7.62mm", 4, "factory-1", "depot-1", clock.Now())
	mid.SetBasePriority(0)
	mid.SetBubble(oneHop)
	require.NoError(t, reg.Add(mid))
	calc.Score(reg, mid)
	assert.InDelta(t, 5.0, calc.InheritedBubble(mid), 1e-9)
}

func TestScoreAllRanksHighestFirst(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	calc := NewCalculator(DefaultPriorityConfig(), nil)

	low := NewTask(LevelRawGather, "Salvage", 100, "salvage-1", "refinery-1", clock.Now())
	high := NewTask(LevelTransportLastMile, "7.62mm", 15, "depot-1", "front-1", clock.Now())
	require.NoError(t, reg.Add(low))
	require.NoError(t, reg.Add(high))

	ranked := calc.ScoreAll(reg)
	require.Len(t, ranked, 2)
	assert.Equal(t, high.ID(), ranked[0].ID())
	assert.GreaterOrEqual(t, ranked[0].Priority(), ranked[1].Priority())
}
