package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarchand/quartermaster-go/internal/adapters/metrics"
	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/domain/order"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// ClaimTaskCommand claims a task for a player
type ClaimTaskCommand struct {
	TaskID  string
	Actor   string
	Timeout time.Duration // zero falls back to the configured claim timeout
}

// ClaimTaskResponse reports the claim outcome
type ClaimTaskResponse struct {
	TaskID        string
	ClaimedBy     string
	ClaimDeadline time.Time
}

// ClaimTaskHandler performs the atomic claim
type ClaimTaskHandler struct {
	state          *supply.State
	defaultTimeout time.Duration
}

// NewClaimTaskHandler creates a new handler
func NewClaimTaskHandler(state *supply.State, defaultTimeout time.Duration) *ClaimTaskHandler {
	return &ClaimTaskHandler{state: state, defaultTimeout: defaultTimeout}
}

// Handle executes the command
func (h *ClaimTaskHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	cmd, ok := request.(*ClaimTaskCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if cmd.Actor == "" {
		return nil, shared.NewValidationError("actor", "actor must not be empty")
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = h.defaultTimeout
	}

	h.state.Lock()
	defer h.state.Unlock()

	t, err := h.state.Registry.Claim(cmd.TaskID, cmd.Actor, timeout)
	if err != nil {
		if conflict, ok := err.(*shared.ConflictError); ok {
			if existing := h.state.Registry.Get(conflict.TaskID); existing != nil {
				metrics.RecordClaimConflict(string(existing.Level()))
			}
		}
		return nil, err
	}

	// First claim on an order's work moves the order to in progress
	for _, orderID := range t.AssociatedOrders() {
		o := h.state.Book.Order(orderID)
		if o == nil || o.Status() != order.StatusAssigned {
			continue
		}
		if err := o.Start(h.state.Clock().Now()); err != nil {
			logging.FromContext(ctx).Log("WARN", "order start failed", map[string]interface{}{
				"order_id": orderID,
				"error":    err.Error(),
			})
		}
	}

	logging.FromContext(ctx).Log("INFO", "task claimed", map[string]interface{}{
		"task_id": t.ID(),
		"level":   string(t.Level()),
		"actor":   cmd.Actor,
	})

	if err := h.state.Persist(ctx); err != nil {
		logging.FromContext(ctx).Log("ERROR", "failed to persist state after claim", map[string]interface{}{
			"error": err.Error(),
		})
	}

	deadline := time.Time{}
	if t.ClaimDeadline() != nil {
		deadline = *t.ClaimDeadline()
	}
	return &ClaimTaskResponse{
		TaskID:        t.ID(),
		ClaimedBy:     t.ClaimedBy(),
		ClaimDeadline: deadline,
	}, nil
}
