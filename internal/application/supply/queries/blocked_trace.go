package queries

import (
	"context"
	"fmt"

	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
)

// BlockedTraceQuery walks the upstream blocking chain of a task
type BlockedTraceQuery struct {
	TaskID string
}

// BlockedTraceResponse lists every open upstream task holding this one up
type BlockedTraceResponse struct {
	TaskID  string
	Blocked bool
	Chain   []task.ChainLink
}

// BlockedTraceHandler resolves the blocking chain
type BlockedTraceHandler struct {
	state *supply.State
}

// NewBlockedTraceHandler creates a new handler
func NewBlockedTraceHandler(state *supply.State) *BlockedTraceHandler {
	return &BlockedTraceHandler{state: state}
}

// Handle executes the query
func (h *BlockedTraceHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	q, ok := request.(*BlockedTraceQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	h.state.Lock()
	defer h.state.Unlock()

	t := h.state.Registry.Get(q.TaskID)
	if t == nil {
		return nil, shared.NewDependencyError(q.TaskID, "task "+q.TaskID+" not found")
	}

	return &BlockedTraceResponse{
		TaskID:  t.ID(),
		Blocked: t.IsBlocked(),
		Chain:   h.state.Registry.BlockedChain(t.ID()),
	}, nil
}
