package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarchand/quartermaster-go/internal/adapters/metrics"
	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/domain/demand"
)

// IngestInventoryEventCommand applies one inventory report to the graph
type IngestInventoryEventCommand struct {
	Event demand.InventoryEvent
}

// IngestInventoryEventResponse summarizes what one event changed
type IngestInventoryEventResponse struct {
	Depth          int      // Upstream hops the propagation reached
	DemandsPlaced  int      // Per-edge demand records written
	OrdersTouched  int      // Orders created, resized or cancelled
	TasksCreated   int      // New tasks generated
	TasksCancelled int      // Tasks cancelled because demand cleared
	Notices        []string // Feasibility advisories from generation
}

// IngestInventoryEventHandler propagates an inventory event, refreshes the
// order book and generates tasks for new orders
type IngestInventoryEventHandler struct {
	state *supply.State
}

// NewIngestInventoryEventHandler creates a new handler
func NewIngestInventoryEventHandler(state *supply.State) *IngestInventoryEventHandler {
	return &IngestInventoryEventHandler{state: state}
}

// Handle executes the command
func (h *IngestInventoryEventHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	cmd, ok := request.(*IngestInventoryEventCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	logger := logging.FromContext(ctx)
	started := time.Now()

	h.state.Lock()
	defer h.state.Unlock()

	result, err := h.state.Engine.ProcessEvent(h.state.Graph, cmd.Event)
	if err != nil {
		return nil, err
	}

	touched := h.state.Book.Collect(h.state.Graph)

	resp := &IngestInventoryEventResponse{
		Depth:         result.Depth,
		DemandsPlaced: len(result.Placed),
		OrdersTouched: len(touched),
	}

	for _, o := range touched {
		if !o.IsOpen() {
			// Cleared demand cancelled the order; its open tasks go with it
			for _, t := range h.state.OpenTasksFor(o.ID()) {
				if err := h.state.Registry.Cancel(t.ID()); err == nil {
					resp.TasksCancelled++
				}
			}
			continue
		}
		if h.state.HasOpenTaskFor(o.ID()) {
			continue
		}
		gen, err := h.state.Generator.GenerateForOrder(h.state.Graph, o)
		if err != nil {
			logger.Log("ERROR", "task generation failed", map[string]interface{}{
				"order_id": o.ID(),
				"error":    err.Error(),
			})
			continue
		}
		resp.TasksCreated += len(gen.Tasks)
		for _, notice := range gen.Notices {
			resp.Notices = append(resp.Notices, notice.Message)
		}
	}

	h.state.Calculator.ScoreAll(h.state.Registry)

	for _, truncation := range result.Truncations {
		logger.Log("WARN", "propagation truncated by cycle", map[string]interface{}{
			"node_id": truncation.NodeID,
		})
	}

	if err := h.state.Persist(ctx); err != nil {
		logger.Log("ERROR", "failed to persist state after event", map[string]interface{}{
			"error": err.Error(),
		})
	}

	metrics.RecordPropagation(result.Depth, time.Since(started).Seconds())

	logger.Log("INFO", "inventory event processed", map[string]interface{}{
		"node_id":        cmd.Event.NodeID,
		"item":           cmd.Event.Item,
		"depth":          resp.Depth,
		"orders_touched": resp.OrdersTouched,
		"tasks_created":  resp.TasksCreated,
	})

	return resp, nil
}
