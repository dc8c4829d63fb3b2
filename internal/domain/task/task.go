package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
)

// Level places a task in the supply chain, from raw gathering up to the
// last-mile run into a consumption point
type Level string

const (
	LevelRawGather         Level = "RAW_GATHER"
	LevelQueueRefining     Level = "QUEUE_REFINING"
	LevelPickupRefined     Level = "PICKUP_REFINED"
	LevelTransportRefined  Level = "TRANSPORT_REFINED"
	LevelQueueProduction   Level = "QUEUE_PRODUCTION"
	LevelPickupProduction  Level = "PICKUP_PRODUCTION"
	LevelTransport         Level = "TRANSPORT"
	LevelTransportLastMile Level = "TRANSPORT_LAST_MILE"
)

// Status is the task lifecycle state
type Status string

const (
	StatusUnclaimed  Status = "UNCLAIMED"
	StatusClaimed    Status = "CLAIMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusCancelled  Status = "CANCELLED"
)

// Base priorities by level. Work closer to the front ranks higher at rest;
// the fluid calculator adds blocked weight on top so starved backline work
// still rises.
var levelBasePriority = map[Level]float64{
	LevelTransportLastMile: 10,
	LevelTransport:         8,
	LevelPickupProduction:  6,
	LevelQueueProduction:   5,
	LevelTransportRefined:  5,
	LevelPickupRefined:     4,
	LevelQueueRefining:     3,
	LevelRawGather:         2,
}

// BasePriorityFor returns the resting priority for a level
func BasePriorityFor(level Level) float64 {
	return levelBasePriority[level]
}

// Task is one actionable unit of logistics work. Status and ownership are
// owned by the Registry; the priority calculator writes only the cached
// score and breakdown.
type Task struct {
	id       string
	level    Level
	item     string
	quantity int
	status   Status

	origin      string
	destination string

	claimedBy     string
	claimDeadline *time.Time

	linkedTaskID     string
	associatedOrders []string
	productionSite   catalog.ProductionSite

	estimatedCompletion *time.Time

	basePriority float64
	bubble       float64
	blockedSince *time.Time

	priority  float64
	breakdown *Breakdown

	createdAt   time.Time
	completedAt *time.Time
}

// NewTask creates an unclaimed task at the given level
func NewTask(level Level, item string, quantity int, origin, destination string, createdAt time.Time) *Task {
	return &Task{
		id:           uuid.New().String(),
		level:        level,
		item:         item,
		quantity:     quantity,
		status:       StatusUnclaimed,
		origin:       origin,
		destination:  destination,
		basePriority: BasePriorityFor(level),
		createdAt:    createdAt,
	}
}

// ReconstructTask rebuilds a task from persistence
func ReconstructTask(
	id string,
	level Level,
	item string,
	quantity int,
	status Status,
	origin, destination string,
	claimedBy string,
	claimDeadline *time.Time,
	linkedTaskID string,
	associatedOrders []string,
	productionSite catalog.ProductionSite,
	estimatedCompletion *time.Time,
	basePriority, bubble float64,
	blockedSince *time.Time,
	priority float64,
	createdAt time.Time,
	completedAt *time.Time,
) *Task {
	return &Task{
		id:                  id,
		level:               level,
		item:                item,
		quantity:            quantity,
		status:              status,
		origin:              origin,
		destination:         destination,
		claimedBy:           claimedBy,
		claimDeadline:       claimDeadline,
		linkedTaskID:        linkedTaskID,
		associatedOrders:    associatedOrders,
		productionSite:      productionSite,
		estimatedCompletion: estimatedCompletion,
		basePriority:        basePriority,
		bubble:              bubble,
		blockedSince:        blockedSince,
		priority:            priority,
		createdAt:           createdAt,
		completedAt:         completedAt,
	}
}

// Getters

func (t *Task) ID() string                             { return t.id }
func (t *Task) Level() Level                           { return t.level }
func (t *Task) Item() string                           { return t.item }
func (t *Task) Quantity() int                          { return t.quantity }
func (t *Task) Status() Status                         { return t.status }
func (t *Task) Origin() string                         { return t.origin }
func (t *Task) Destination() string                    { return t.destination }
func (t *Task) ClaimedBy() string                      { return t.claimedBy }
func (t *Task) ClaimDeadline() *time.Time              { return t.claimDeadline }
func (t *Task) LinkedTaskID() string                   { return t.linkedTaskID }
func (t *Task) AssociatedOrders() []string             { return t.associatedOrders }
func (t *Task) ProductionSite() catalog.ProductionSite { return t.productionSite }
func (t *Task) EstimatedCompletion() *time.Time        { return t.estimatedCompletion }
func (t *Task) BasePriority() float64                  { return t.basePriority }
func (t *Task) Bubble() float64                        { return t.bubble }
func (t *Task) BlockedSince() *time.Time               { return t.blockedSince }
func (t *Task) Priority() float64                      { return t.priority }
func (t *Task) Breakdown() *Breakdown                  { return t.breakdown }
func (t *Task) CreatedAt() time.Time                   { return t.createdAt }
func (t *Task) CompletedAt() *time.Time                { return t.completedAt }

func (t *Task) IsBlocked() bool  { return t.blockedSince != nil }
func (t *Task) IsComplete() bool { return t.status == StatusComplete }
func (t *Task) IsOpen() bool {
	return t.status != StatusComplete && t.status != StatusCancelled
}

// Setters used at generation time

func (t *Task) AssociateOrder(orderID string) {
	t.associatedOrders = append(t.associatedOrders, orderID)
}

func (t *Task) SetLinkedTask(taskID string)                { t.linkedTaskID = taskID }
func (t *Task) SetProductionSite(s catalog.ProductionSite) { t.productionSite = s }
func (t *Task) SetBasePriority(p float64)                  { t.basePriority = p }
func (t *Task) SetBubble(b float64)                        { t.bubble = b }

func (t *Task) SetEstimatedCompletion(at time.Time) {
	t.estimatedCompletion = &at
}

// markBlocked and clearBlocked are driven by the Registry as blocking edges
// appear and resolve

func (t *Task) markBlocked(at time.Time) {
	if t.blockedSince == nil {
		t.blockedSince = &at
	}
}

func (t *Task) clearBlocked() {
	t.blockedSince = nil
}

// setScore is written by the priority calculator only
func (t *Task) setScore(priority float64, breakdown *Breakdown) {
	t.priority = priority
	t.breakdown = breakdown
}

// State transitions. These are invoked through the Registry, which serializes
// them; they validate but do not lock.

func (t *Task) claim(actor string, deadline time.Time) error {
	if t.status != StatusUnclaimed {
		return &ErrInvalidTaskTransition{
			TaskID:      t.id,
			From:        t.status,
			To:          StatusClaimed,
			Description: "only unclaimed tasks can be claimed",
		}
	}
	t.status = StatusClaimed
	t.claimedBy = actor
	t.claimDeadline = &deadline
	return nil
}

func (t *Task) start(actor string) error {
	if t.status != StatusClaimed {
		return &ErrInvalidTaskTransition{TaskID: t.id, From: t.status, To: StatusInProgress}
	}
	if t.claimedBy != actor {
		return &ErrNotClaimant{TaskID: t.id, ClaimedBy: t.claimedBy, Actor: actor}
	}
	t.status = StatusInProgress
	return nil
}

func (t *Task) complete(actor string, at time.Time) error {
	if t.status != StatusClaimed && t.status != StatusInProgress {
		return &ErrInvalidTaskTransition{
			TaskID:      t.id,
			From:        t.status,
			To:          StatusComplete,
			Description: "only claimed or in-progress tasks can be completed",
		}
	}
	if t.claimedBy != actor {
		return &ErrNotClaimant{TaskID: t.id, ClaimedBy: t.claimedBy, Actor: actor}
	}
	t.status = StatusComplete
	t.completedAt = &at
	return nil
}

// abandon resets bookkeeping back to unclaimed. It cannot undo in-game
// actions already taken; the task simply becomes available again.
func (t *Task) abandon() error {
	if t.status != StatusClaimed && t.status != StatusInProgress {
		return &ErrInvalidTaskTransition{
			TaskID:      t.id,
			From:        t.status,
			To:          StatusUnclaimed,
			Description: "only claimed or in-progress tasks can be abandoned",
		}
	}
	t.status = StatusUnclaimed
	t.claimedBy = ""
	t.claimDeadline = nil
	return nil
}

func (t *Task) cancel() error {
	if !t.IsOpen() {
		return &ErrInvalidTaskTransition{TaskID: t.id, From: t.status, To: StatusCancelled}
	}
	t.status = StatusCancelled
	return nil
}

// expireClaim reverts an overdue claim. Returns true if the task reverted.
func (t *Task) expireClaim(now time.Time) bool {
	if t.status != StatusClaimed || t.claimDeadline == nil {
		return false
	}
	if now.Before(*t.claimDeadline) {
		return false
	}
	t.status = StatusUnclaimed
	t.claimedBy = ""
	t.claimDeadline = nil
	return true
}

// String provides a human-readable representation
func (t *Task) String() string {
	return fmt.Sprintf("Task[%s, level=%s, item=%s, qty=%d, status=%s, priority=%.1f]",
		t.id[:8], t.level, t.item, t.quantity, t.status, t.priority)
}
