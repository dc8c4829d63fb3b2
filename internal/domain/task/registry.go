package task

import (
	"sort"
	"sync"
	"time"

	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// ChainLink is one hop in a blocked-chain trace
type ChainLink struct {
	TaskID       string
	Level        Level
	Item         string
	Status       Status
	BasePriority float64
}

// Registry is the task arena: every live task keyed by id, with adjacency
// lists for blocking-dependency edges. It exclusively owns task status and
// ownership; claim, complete, and abandon serialize on its mutex so a claim
// is an atomic compare-and-swap against the current status.
type Registry struct {
	mu    sync.Mutex
	clock shared.Clock

	tasks map[string]*Task

	// blockedBy[id] lists upstream tasks id is waiting on; blocks[id] is the
	// reverse direction
	blockedBy map[string][]string
	blocks    map[string][]string
}

// NewRegistry creates an empty registry
func NewRegistry(clock shared.Clock) *Registry {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Registry{
		clock:     clock,
		tasks:     make(map[string]*Task),
		blockedBy: make(map[string][]string),
		blocks:    make(map[string][]string),
	}
}

// Add registers a task in the arena
func (r *Registry) Add(t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[t.ID()]; exists {
		return shared.NewValidationError("task", "task "+t.ID()+" already registered")
	}
	r.tasks[t.ID()] = t
	return nil
}

// Get returns a task by id, nil if absent
func (r *Registry) Get(id string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[id]
}

// All returns every task in the arena
func (r *Registry) All() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Open returns every task that is not complete or cancelled
func (r *Registry) Open() []*Task {
	all := r.All()
	out := make([]*Task, 0, len(all))
	for _, t := range all {
		if t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// AddBlockingEdge records that downstream waits on upstream. The downstream
// task enters the blocked state if it was not blocked already.
func (r *Registry) AddBlockingEdge(downstreamID, upstreamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	downstream := r.tasks[downstreamID]
	upstream := r.tasks[upstreamID]
	if downstream == nil {
		return shared.NewDependencyError(downstreamID, "task "+downstreamID+" not found")
	}
	if upstream == nil {
		return shared.NewDependencyError(upstreamID, "task "+upstreamID+" not found")
	}

	for _, existing := range r.blockedBy[downstreamID] {
		if existing == upstreamID {
			return nil
		}
	}
	r.blockedBy[downstreamID] = append(r.blockedBy[downstreamID], upstreamID)
	r.blocks[upstreamID] = append(r.blocks[upstreamID], downstreamID)

	if upstream.IsOpen() {
		downstream.markBlocked(r.clock.Now())
	}
	return nil
}

// BlockedBy returns the upstream task ids the task currently waits on
func (r *Registry) BlockedBy(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.blockedBy[id]))
	copy(out, r.blockedBy[id])
	return out
}

// Claim atomically takes ownership of an unclaimed task. Exactly one of N
// concurrent claims succeeds; the rest receive a ConflictError naming the
// winner.
func (r *Registry) Claim(id, actor string, timeout time.Duration) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tasks[id]
	if t == nil {
		return nil, shared.NewDependencyError(id, "task "+id+" not found")
	}
	if t.Status() != StatusUnclaimed {
		return nil, shared.NewConflictError(id, t.ClaimedBy())
	}
	if err := t.claim(actor, r.clock.Now().Add(timeout)); err != nil {
		return nil, err
	}
	return t, nil
}

// Start moves a claimed task into progress. Only the claimant may start it.
func (r *Registry) Start(id, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tasks[id]
	if t == nil {
		return shared.NewDependencyError(id, "task "+id+" not found")
	}
	return t.start(actor)
}

// Complete finishes a task on behalf of its claimant. A second complete on
// the same task is a conflict. Downstream tasks whose every upstream blocker
// is now resolved leave the blocked state; the completed task is returned so
// callers can run generation fan-out.
func (r *Registry) Complete(id, actor string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tasks[id]
	if t == nil {
		return nil, shared.NewDependencyError(id, "task "+id+" not found")
	}
	if t.IsComplete() {
		return nil, shared.NewConflictError(id, t.ClaimedBy())
	}
	if err := t.complete(actor, r.clock.Now()); err != nil {
		return nil, err
	}
	r.resolveBlocking(id)
	return t, nil
}

// Abandon resets a claimed or in-progress task back to unclaimed
func (r *Registry) Abandon(id, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tasks[id]
	if t == nil {
		return shared.NewDependencyError(id, "task "+id+" not found")
	}
	if t.ClaimedBy() != actor {
		return &ErrNotClaimant{TaskID: id, ClaimedBy: t.ClaimedBy(), Actor: actor}
	}
	return t.abandon()
}

// Cancel terminates an open task. Downstream tasks stop waiting on it.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tasks[id]
	if t == nil {
		return shared.NewDependencyError(id, "task "+id+" not found")
	}
	if err := t.cancel(); err != nil {
		return err
	}
	r.resolveBlocking(id)
	return nil
}

// ExpireClaims reverts every overdue claim. Idempotent: a second run at the
// same instant finds nothing to expire.
func (r *Registry) ExpireClaims() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var expired []*Task
	for _, t := range r.tasks {
		if t.expireClaim(now) {
			expired = append(expired, t)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID() < expired[j].ID() })
	return expired
}

// DueQueues returns open timed-queue tasks whose estimated completion has
// passed. The sweep completes them to trigger pickup fan-out.
func (r *Registry) DueQueues() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var due []*Task
	for _, t := range r.tasks {
		if !t.IsOpen() {
			continue
		}
		if t.Level() != LevelQueueProduction && t.Level() != LevelQueueRefining {
			continue
		}
		if t.EstimatedCompletion() != nil && !now.Before(*t.EstimatedCompletion()) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID() < due[j].ID() })
	return due
}

// CompleteBySystem finishes a due queue task without a claimant, used by the
// sweep when a timed queue elapses.
func (r *Registry) CompleteBySystem(id string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tasks[id]
	if t == nil {
		return nil, shared.NewDependencyError(id, "task "+id+" not found")
	}
	if t.IsComplete() {
		return nil, shared.NewConflictError(id, t.ClaimedBy())
	}
	now := r.clock.Now()
	t.status = StatusComplete
	t.completedAt = &now
	r.resolveBlocking(id)
	return t, nil
}

// resolveBlocking clears the blocked state of downstream tasks whose
// upstream blockers have all closed. Caller holds the mutex.
func (r *Registry) resolveBlocking(completedID string) {
	for _, downstreamID := range r.blocks[completedID] {
		downstream := r.tasks[downstreamID]
		if downstream == nil || !downstream.IsBlocked() {
			continue
		}
		stillBlocked := false
		for _, upID := range r.blockedBy[downstreamID] {
			if up := r.tasks[upID]; up != nil && up.IsOpen() {
				stillBlocked = true
				break
			}
		}
		if !stillBlocked {
			downstream.clearBlocked()
		}
	}
}

// BlockedChain traces the upstream blocking tasks of a task, each once,
// returning the chain that explains why it cannot proceed. Traversal carries
// a visited set so a miswired cycle cannot loop.
func (r *Registry) BlockedChain(id string) []ChainLink {
	r.mu.Lock()
	defer r.mu.Unlock()

	visited := map[string]bool{id: true}
	var chain []ChainLink
	var walk func(taskID string)
	walk = func(taskID string) {
		upstream := make([]string, len(r.blockedBy[taskID]))
		copy(upstream, r.blockedBy[taskID])
		sort.Strings(upstream)
		for _, upID := range upstream {
			if visited[upID] {
				continue
			}
			visited[upID] = true
			up := r.tasks[upID]
			if up == nil {
				continue
			}
			if up.IsOpen() {
				chain = append(chain, ChainLink{
					TaskID:       up.ID(),
					Level:        up.Level(),
					Item:         up.Item(),
					Status:       up.Status(),
					BasePriority: up.BasePriority(),
				})
			}
			walk(upID)
		}
	}
	walk(id)
	return chain
}
