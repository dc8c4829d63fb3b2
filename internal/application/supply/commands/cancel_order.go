package commands

import (
	"context"
	"fmt"

	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
)

// CancelOrderCommand cancels an open order and its outstanding tasks
type CancelOrderCommand struct {
	OrderID string
	Reason  string
}

// CancelOrderResponse reports what the cancellation swept up
type CancelOrderResponse struct {
	OrderID        string
	TasksCancelled []string
}

// CancelOrderHandler cancels an order and every open task serving it
type CancelOrderHandler struct {
	state *supply.State
}

// NewCancelOrderHandler creates a new handler
func NewCancelOrderHandler(state *supply.State) *CancelOrderHandler {
	return &CancelOrderHandler{state: state}
}

// Handle executes the command
func (h *CancelOrderHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	cmd, ok := request.(*CancelOrderCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	h.state.Lock()
	defer h.state.Unlock()

	resp := &CancelOrderResponse{OrderID: cmd.OrderID}

	for _, t := range h.state.OpenTasksFor(cmd.OrderID) {
		if err := h.state.Registry.Cancel(t.ID()); err != nil {
			return nil, err
		}
		resp.TasksCancelled = append(resp.TasksCancelled, t.ID())
	}

	if err := h.state.Book.Cancel(cmd.OrderID, cmd.Reason); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	logger.Log("INFO", "order cancelled", map[string]interface{}{
		"order_id":        cmd.OrderID,
		"reason":          cmd.Reason,
		"tasks_cancelled": len(resp.TasksCancelled),
	})

	if err := h.state.Persist(ctx); err != nil {
		logger.Log("ERROR", "failed to persist state after cancellation", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return resp, nil
}
