package commands

import (
	"context"
	"fmt"

	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
)

// AbandonTaskCommand releases a claim so the task returns to the pool
type AbandonTaskCommand struct {
	TaskID string
	Actor  string
}

// AbandonTaskResponse confirms the release
type AbandonTaskResponse struct {
	TaskID string
}

// AbandonTaskHandler releases a claim held by the acting player
type AbandonTaskHandler struct {
	state *supply.State
}

// NewAbandonTaskHandler creates a new handler
func NewAbandonTaskHandler(state *supply.State) *AbandonTaskHandler {
	return &AbandonTaskHandler{state: state}
}

// Handle executes the command
func (h *AbandonTaskHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	cmd, ok := request.(*AbandonTaskCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	h.state.Lock()
	defer h.state.Unlock()

	if err := h.state.Registry.Abandon(cmd.TaskID, cmd.Actor); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	logger.Log("INFO", "task abandoned", map[string]interface{}{
		"task_id": cmd.TaskID,
		"actor":   cmd.Actor,
	})

	if err := h.state.Persist(ctx); err != nil {
		logger.Log("ERROR", "failed to persist state after abandon", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return &AbandonTaskResponse{TaskID: cmd.TaskID}, nil
}
