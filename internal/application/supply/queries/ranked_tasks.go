package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
)

// RankedTasksQuery returns open tasks ordered by priority
type RankedTasksQuery struct {
	Limit int    // zero means no limit
	Level string // optional level filter
}

// TaskView is one ranked task with its score breakdown
type TaskView struct {
	ID                  string
	Level               string
	Item                string
	Quantity            int
	Status              string
	Origin              string
	Destination         string
	ClaimedBy           string
	ProductionSite      string
	EstimatedCompletion *time.Time
	Blocked             bool
	Priority            float64
	Breakdown           task.Breakdown
}

// RankedTasksResponse is the ranked task list
type RankedTasksResponse struct {
	Tasks []TaskView
}

// RankedTasksHandler scores and ranks the open task pool
type RankedTasksHandler struct {
	state *supply.State
}

// NewRankedTasksHandler creates a new handler
func NewRankedTasksHandler(state *supply.State) *RankedTasksHandler {
	return &RankedTasksHandler{state: state}
}

// Handle executes the query
func (h *RankedTasksHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	q, ok := request.(*RankedTasksQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	h.state.Lock()
	defer h.state.Unlock()

	ranked := h.state.Calculator.ScoreAll(h.state.Registry)

	resp := &RankedTasksResponse{}
	for _, t := range ranked {
		if q.Level != "" && string(t.Level()) != q.Level {
			continue
		}
		view := TaskView{
			ID:                  t.ID(),
			Level:               string(t.Level()),
			Item:                t.Item(),
			Quantity:            t.Quantity(),
			Status:              string(t.Status()),
			Origin:              t.Origin(),
			Destination:         t.Destination(),
			ClaimedBy:           t.ClaimedBy(),
			ProductionSite:      string(t.ProductionSite()),
			EstimatedCompletion: t.EstimatedCompletion(),
			Blocked:             t.IsBlocked(),
			Priority:            t.Priority(),
		}
		if b := t.Breakdown(); b != nil {
			view.Breakdown = *b
		}
		resp.Tasks = append(resp.Tasks, view)
		if q.Limit > 0 && len(resp.Tasks) >= q.Limit {
			break
		}
	}
	return resp, nil
}
