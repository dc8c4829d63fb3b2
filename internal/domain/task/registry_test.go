package task

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

func testClock() *shared.MockClock {
	return shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func newTestTask(clock shared.Clock) *Task {
	return NewTask(LevelTransportLastMile, "7.62mm", 30, "depot-1", "front-1", clock.Now())
}

func TestClaimLifecycle(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	tk := newTestTask(clock)
	require.NoError(t, reg.Add(tk))

	claimed, err := reg.Claim(tk.ID(), "hauler-7", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, claimed.Status())
	assert.Equal(t, "hauler-7", claimed.ClaimedBy())
	require.NotNil(t, claimed.ClaimDeadline())
	assert.Equal(t, clock.Now().Add(30*time.Minute), *claimed.ClaimDeadline())

	require.NoError(t, reg.Start(tk.ID(), "hauler-7"))
	assert.Equal(t, StatusInProgress, tk.Status())

	done, err := reg.Complete(tk.ID(), "hauler-7")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, done.Status())
	require.NotNil(t, done.CompletedAt())
}

func TestClaimConflictNamesWinner(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	tk := newTestTask(clock)
	require.NoError(t, reg.Add(tk))

	_, err := reg.Claim(tk.ID(), "hauler-7", time.Hour)
	require.NoError(t, err)

	_, err = reg.Claim(tk.ID(), "hauler-9", time.Hour)
	var ce *shared.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "hauler-7", ce.ClaimedBy)
	assert.Contains(t, ce.Error(), "already claimed by hauler-7")
}

func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	tk := newTestTask(clock)
	require.NoError(t, reg.Add(tk))

	const actors = 32
	var wg sync.WaitGroup
	results := make([]error, actors)
	for i := 0; i < actors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = reg.Claim(tk.ID(), "hauler", time.Hour)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			var ce *shared.ConflictError
			assert.ErrorAs(t, err, &ce)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestCompleteRequiresClaimant(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	tk := newTestTask(clock)
	require.NoError(t, reg.Add(tk))

	_, err := reg.Claim(tk.ID(), "hauler-7", time.Hour)
	require.NoError(t, err)

	_, err = reg.Complete(tk.ID(), "hauler-9")
	var nc *ErrNotClaimant
	require.ErrorAs(t, err, &nc)

	_, err = reg.Complete(tk.ID(), "hauler-7")
	require.NoError(t, err)

	// Double complete is a conflict
	_, err = reg.Complete(tk.ID(), "hauler-7")
	var ce *shared.ConflictError
	assert.ErrorAs(t, err, &ce)
}

func TestAbandonResetsToUnclaimed(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	tk := newTestTask(clock)
	require.NoError(t, reg.Add(tk))

	_, err := reg.Claim(tk.ID(), "hauler-7", time.Hour)
	require.NoError(t, err)

	require.NoError(t, reg.Abandon(tk.ID(), "hauler-7"))
	assert.Equal(t, StatusUnclaimed, tk.Status())
	assert.Empty(t, tk.ClaimedBy())
	assert.Nil(t, tk.ClaimDeadline())

	// Available again for somebody else
	_, err = reg.Claim(tk.ID(), "hauler-9", time.Hour)
	assert.NoError(t, err)
}

func TestExpireClaims(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)
	tk := newTestTask(clock)
	require.NoError(t, reg.Add(tk))

	_, err := reg.Claim(tk.ID(), "hauler-7", 30*time.Minute)
	require.NoError(t, err)

	assert.Empty(t, reg.ExpireClaims())

	clock.Advance(31 * time.Minute)
	expired := reg.ExpireClaims()
	require.Len(t, expired, 1)
	assert.Equal(t, StatusUnclaimed, tk.Status())

	// Idempotent: a second sweep finds nothing
	assert.Empty(t, reg.ExpireClaims())
}

func TestBlockingEdgesAndResolution(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)

	a := NewTask(LevelTransportLastMile, "150mm", 15, "depot-1", "front-1", clock.Now())
	b := NewTask(LevelQueueProduction, "150mm", 4, "factory-1", "depot-1", clock.Now())
	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(b))

	require.NoError(t, reg.AddBlockingEdge(a.ID(), b.ID()))
	assert.True(t, a.IsBlocked())
	assert.False(t, b.IsBlocked())

	// Completing the upstream blocker unblocks the downstream task
	_, err := reg.Claim(b.ID(), "operator", time.Hour)
	require.NoError(t, err)
	_, err = reg.Complete(b.ID(), "operator")
	require.NoError(t, err)
	assert.False(t, a.IsBlocked())
}

func TestBlockedChainTrace(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)

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

	chain := reg.BlockedChain(a.ID())
	require.Len(t, chain, 2)

	total := 0.0
	for _, link := range chain {
		total += link.BasePriority
	}
	assert.InDelta(t, 8.0, total, 1e-9)
}

func TestBlockedChainSurvivesCycles(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)

	a := NewTask(LevelTransport, "7.62mm", 60, "hub-a", "hub-b", clock.Now())
	b := NewTask(LevelTransport, "7.62mm", 60, "hub-b", "hub-a", clock.Now())
	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(b))
	require.NoError(t, reg.AddBlockingEdge(a.ID(), b.ID()))
	require.NoError(t, reg.AddBlockingEdge(b.ID(), a.ID()))

	// Each task appears once despite the cycle
	chain := reg.BlockedChain(a.ID())
	assert.Len(t, chain, 1)
	assert.Equal(t, b.ID(), chain[0].TaskID)
}

func TestDueQueues(t *testing.T) {
	clock := testClock()
	reg := NewRegistry(clock)

	queued := NewTask(LevelQueueProduction, "7.62mm", 4, "factory-1", "depot-1", clock.Now())
	queued.SetEstimatedCompletion(clock.Now().Add(40 * time.Minute))
	require.NoError(t, reg.Add(queued))

	transport := NewTask(LevelTransport, "7.62mm", 60, "hub-a", "hub-b", clock.Now())
	require.NoError(t, reg.Add(transport))

	assert.Empty(t, reg.DueQueues())

	clock.Advance(time.Hour)
	due := reg.DueQueues()
	require.Len(t, due, 1)
	assert.Equal(t, queued.ID(), due[0].ID())
}
