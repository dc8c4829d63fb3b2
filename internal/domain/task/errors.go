package task

import "fmt"

// ErrInvalidTaskTransition is returned when a lifecycle change is not
// allowed from the task's current status
type ErrInvalidTaskTransition struct {
	TaskID      string
	From        Status
	To          Status
	Description string
}

func (e *ErrInvalidTaskTransition) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("task %s cannot transition %s -> %s: %s", e.TaskID, e.From, e.To, e.Description)
	}
	return fmt.Sprintf("task %s cannot transition %s -> %s", e.TaskID, e.From, e.To)
}

// ErrNotClaimant is returned when an actor other than the claimant tries to
// progress or complete a claimed task
type ErrNotClaimant struct {
	TaskID    string
	ClaimedBy string
	Actor     string
}

func (e *ErrNotClaimant) Error() string {
	return fmt.Sprintf("task %s is claimed by %s, not %s", e.TaskID, e.ClaimedBy, e.Actor)
}
