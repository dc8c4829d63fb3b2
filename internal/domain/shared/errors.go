package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// ValidationError indicates a malformed event or an unknown node/item.
// Ingestion-boundary validation rejects the input before any graph mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError indicates a lost claim race or a double-complete.
// Returned to the caller, never silently retried.
type ConflictError struct {
	*DomainError
	TaskID    string
	ClaimedBy string
}

func NewConflictError(taskID, claimedBy string) *ConflictError {
	msg := fmt.Sprintf("task %s already claimed by %s", taskID, claimedBy)
	if claimedBy == "" {
		msg = fmt.Sprintf("conflicting update on task %s", taskID)
	}
	return &ConflictError{
		DomainError: &DomainError{Message: msg},
		TaskID:      taskID,
		ClaimedBy:   claimedBy,
	}
}

// DependencyError indicates a missing node or edge reference
type DependencyError struct {
	*DomainError
	Reference string
}

func NewDependencyError(reference, message string) *DependencyError {
	return &DependencyError{
		DomainError: &DomainError{Message: message},
		Reference:   reference,
	}
}

// CycleDetectedError is raised when upstream traversal revisits a node. A
// well-formed supply graph is acyclic front-to-resource; on detection the
// traversal is truncated and the cycle logged.
type CycleDetectedError struct {
	*DomainError
	NodeID string
}

func NewCycleDetectedError(nodeID string) *CycleDetectedError {
	return &CycleDetectedError{
		DomainError: &DomainError{Message: fmt.Sprintf("cycle detected at node %s, traversal truncated", nodeID)},
		NodeID:      nodeID,
	}
}

// StaleDataError indicates an inventory event older than the node's last
// known state. The event is ignored with a warning and nothing is mutated.
type StaleDataError struct {
	*DomainError
	NodeID string
}

func NewStaleDataError(nodeID string) *StaleDataError {
	return &StaleDataError{
		DomainError: &DomainError{Message: fmt.Sprintf("event for node %s is older than last known state", nodeID)},
		NodeID:      nodeID,
	}
}

// InsufficientDataError indicates a missing transport time or recipe. The
// caller falls back to the production-only default policy for that route.
type InsufficientDataError struct {
	*DomainError
	Subject string
}

func NewInsufficientDataError(subject, message string) *InsufficientDataError {
	return &InsufficientDataError{
		DomainError: &DomainError{Message: message},
		Subject:     subject,
	}
}
