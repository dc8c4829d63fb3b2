package commands

import (
	"context"
	"fmt"

	"github.com/dmarchand/quartermaster-go/internal/adapters/metrics"
	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
)

// CompleteTaskCommand marks a claimed task as done
type CompleteTaskCommand struct {
	TaskID string
	Actor  string
}

// CompleteTaskResponse reports completion and any follow-up work it spawned
type CompleteTaskResponse struct {
	TaskID          string
	FollowUpTaskIDs []string
	OrdersCompleted []string
}

// CompleteTaskHandler completes a task, fans out the next supply-chain level
// and closes orders whose delivery chain just finished
type CompleteTaskHandler struct {
	state *supply.State
}

// NewCompleteTaskHandler creates a new handler
func NewCompleteTaskHandler(state *supply.State) *CompleteTaskHandler {
	return &CompleteTaskHandler{state: state}
}

// Handle executes the command
func (h *CompleteTaskHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	cmd, ok := request.(*CompleteTaskCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	logger := logging.FromContext(ctx)

	h.state.Lock()
	defer h.state.Unlock()

	completed, err := h.state.Registry.Complete(cmd.TaskID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	metrics.RecordTaskCompletion(string(completed.Level()), string(completed.Status()))

	resp := &CompleteTaskResponse{TaskID: completed.ID()}

	gen, err := h.state.Generator.OnCompleted(h.state.Graph, completed)
	if err != nil {
		logger.Log("ERROR", "follow-up generation failed", map[string]interface{}{
			"task_id": completed.ID(),
			"error":   err.Error(),
		})
	} else {
		for _, t := range gen.Tasks {
			resp.FollowUpTaskIDs = append(resp.FollowUpTaskIDs, t.ID())
		}
	}

	// A delivery with no follow-up closes the orders it carried
	if len(resp.FollowUpTaskIDs) == 0 && isDeliveryLevel(completed.Level()) {
		for _, orderID := range completed.AssociatedOrders() {
			if h.state.HasOpenTaskFor(orderID) {
				continue
			}
			if err := h.state.Book.Complete(orderID); err == nil {
				resp.OrdersCompleted = append(resp.OrdersCompleted, orderID)
			}
		}
	}

	h.state.Calculator.ScoreAll(h.state.Registry)

	if err := h.state.Persist(ctx); err != nil {
		logger.Log("ERROR", "failed to persist state after completion", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Log("INFO", "task completed", map[string]interface{}{
		"task_id":    completed.ID(),
		"level":      string(completed.Level()),
		"actor":      cmd.Actor,
		"follow_ups": len(resp.FollowUpTaskIDs),
	})

	return resp, nil
}

func isDeliveryLevel(level task.Level) bool {
	switch level {
	case task.LevelTransport, task.LevelTransportLastMile, task.LevelTransportRefined:
		return true
	}
	return false
}
