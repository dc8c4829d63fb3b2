package services

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmarchand/quartermaster-go/internal/adapters/metrics"
	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
)

// SweepResult is what one sweep pass did
type SweepResult struct {
	ExpiredClaims int
	AutoCompleted int
	FollowUpTasks int
	OrdersTouched int
	Duration      time.Duration
}

// Sweeper runs the periodic maintenance pass: expired claims return to the
// pool, due production queues auto-complete and fan out pickup tasks, the
// order book re-collects demand and every open task is re-scored. A rate
// limiter keeps manually triggered sweeps from stacking on the timer.
type Sweeper struct {
	state    *supply.State
	interval time.Duration
	limiter  *rate.Limiter
}

// NewSweeper creates a sweeper. Min spacing bounds how close together two
// passes may run regardless of what triggers them.
func NewSweeper(state *supply.State, interval, minSpacing time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if minSpacing <= 0 {
		minSpacing = 10 * time.Second
	}
	return &Sweeper{
		state:    state,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(minSpacing), 1),
	}
}

// Run sweeps on the configured interval until the context ends
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if result, err := s.Sweep(ctx); err != nil {
				logger.Log("ERROR", "sweep failed", map[string]interface{}{
					"error": err.Error(),
				})
			} else if result != nil {
				logger.Log("DEBUG", "sweep finished", map[string]interface{}{
					"expired":        result.ExpiredClaims,
					"auto_completed": result.AutoCompleted,
					"follow_ups":     result.FollowUpTasks,
					"duration_ms":    result.Duration.Milliseconds(),
				})
			}
		}
	}
}

// Sweep runs one maintenance pass. A pass arriving inside the minimum
// spacing window is skipped and returns nil.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	if !s.limiter.Allow() {
		return nil, nil
	}

	logger := logging.FromContext(ctx)
	started := time.Now()
	result := &SweepResult{}

	s.state.Lock()
	defer s.state.Unlock()

	expired := s.state.Registry.ExpireClaims()
	result.ExpiredClaims = len(expired)
	for _, t := range expired {
		logger.Log("INFO", "claim expired", map[string]interface{}{
			"task_id": t.ID(),
			"level":   string(t.Level()),
		})
	}

	// Due queue tasks complete without a claimant; each failure is isolated
	// so one bad task cannot stall the rest of the pass
	for _, due := range s.state.Registry.DueQueues() {
		completed, err := s.state.Registry.CompleteBySystem(due.ID())
		if err != nil {
			logger.Log("ERROR", "auto-completion failed", map[string]interface{}{
				"task_id": due.ID(),
				"error":   err.Error(),
			})
			continue
		}
		result.AutoCompleted++
		metrics.RecordTaskCompletion(string(completed.Level()), string(completed.Status()))

		gen, err := s.state.Generator.OnCompleted(s.state.Graph, completed)
		if err != nil {
			logger.Log("ERROR", "follow-up generation failed", map[string]interface{}{
				"task_id": completed.ID(),
				"error":   err.Error(),
			})
			continue
		}
		result.FollowUpTasks += len(gen.Tasks)
	}

	touched := s.state.Book.Collect(s.state.Graph)
	result.OrdersTouched = len(touched)
	for _, o := range touched {
		if !o.IsOpen() || s.state.HasOpenTaskFor(o.ID()) {
			continue
		}
		gen, err := s.state.Generator.GenerateForOrder(s.state.Graph, o)
		if err != nil {
			logger.Log("ERROR", "task generation failed", map[string]interface{}{
				"order_id": o.ID(),
				"error":    err.Error(),
			})
			continue
		}
		result.FollowUpTasks += len(gen.Tasks)
	}

	s.state.Calculator.ScoreAll(s.state.Registry)

	if err := s.state.Persist(ctx); err != nil {
		logger.Log("ERROR", "failed to persist state after sweep", map[string]interface{}{
			"error": err.Error(),
		})
	}

	result.Duration = time.Since(started)
	metrics.RecordSweep(result.Duration.Seconds(), result.ExpiredClaims, result.AutoCompleted)
	return result, nil
}
