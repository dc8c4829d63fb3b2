package queries

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
)

// DashboardQuery aggregates the whole supply picture for display
type DashboardQuery struct {
	TopTasks int // how many ranked tasks to include, zero for five
}

// NodeSummary is one node's headline numbers
type NodeSummary struct {
	ID           string
	Kind         string
	LocationName string
	Status       string
	DemandTotal  int // recorded downstream demand across all items
}

// DashboardResponse is the aggregate view
type DashboardResponse struct {
	Nodes         []NodeSummary
	TasksByStatus map[string]int
	TasksByLevel  map[string]int
	OrdersByType  map[string]int
	BlockedTasks  int
	OpenOrders    int
	TopTasks      []TaskView
}

// DashboardHandler builds the aggregate view
type DashboardHandler struct {
	state *supply.State
}

// NewDashboardHandler creates a new handler
func NewDashboardHandler(state *supply.State) *DashboardHandler {
	return &DashboardHandler{state: state}
}

// Handle executes the query
func (h *DashboardHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	q, ok := request.(*DashboardQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	top := q.TopTasks
	if top <= 0 {
		top = 5
	}

	h.state.Lock()
	defer h.state.Unlock()

	resp := &DashboardResponse{
		TasksByStatus: make(map[string]int),
		TasksByLevel:  make(map[string]int),
		OrdersByType:  make(map[string]int),
	}

	for _, node := range h.state.Graph.Nodes() {
		summary := NodeSummary{
			ID:           node.ID(),
			Kind:         string(node.Kind()),
			LocationName: node.LocationName(),
			Status:       string(node.Status()),
		}
		for _, rec := range node.DemandRecords() {
			summary.DemandTotal += rec.Quantity
		}
		resp.Nodes = append(resp.Nodes, summary)
	}
	sort.Slice(resp.Nodes, func(i, j int) bool { return resp.Nodes[i].ID < resp.Nodes[j].ID })

	for _, t := range h.state.Registry.All() {
		resp.TasksByStatus[string(t.Status())]++
		if t.IsOpen() {
			resp.TasksByLevel[string(t.Level())]++
			if t.IsBlocked() {
				resp.BlockedTasks++
			}
		}
	}

	for _, o := range h.state.Book.OpenOrders() {
		resp.OrdersByType[string(o.Type())]++
		resp.OpenOrders++
	}

	ranked := h.state.Calculator.ScoreAll(h.state.Registry)
	for i, t := range ranked {
		if i >= top {
			break
		}
		view := TaskView{
			ID:          t.ID(),
			Level:       string(t.Level()),
			Item:        t.Item(),
			Quantity:    t.Quantity(),
			Status:      string(t.Status()),
			Origin:      t.Origin(),
			Destination: t.Destination(),
			ClaimedBy:   t.ClaimedBy(),
			Blocked:     t.IsBlocked(),
			Priority:    t.Priority(),
		}
		if b := t.Breakdown(); b != nil {
			view.Breakdown = *b
		}
		resp.TopTasks = append(resp.TopTasks, view)
	}

	return resp, nil
}
