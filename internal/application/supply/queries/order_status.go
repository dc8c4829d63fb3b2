package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// OrderStatusQuery looks up one order and the tasks serving it
type OrderStatusQuery struct {
	OrderID string
}

// OrderTaskView is one task serving the order
type OrderTaskView struct {
	ID       string
	Level    string
	Status   string
	Quantity int
	Blocked  bool
}

// OrderStatusResponse is the order with its task fan-out
type OrderStatusResponse struct {
	OrderID      string
	Type         string
	Item         string
	Quantity     int
	Origin       string
	Destination  string
	Status       string
	Tier         string
	Urgency      float64
	CancelReason string
	CreatedAt    time.Time
	Tasks        []OrderTaskView
}

// OrderStatusHandler resolves one order
type OrderStatusHandler struct {
	state *supply.State
}

// NewOrderStatusHandler creates a new handler
func NewOrderStatusHandler(state *supply.State) *OrderStatusHandler {
	return &OrderStatusHandler{state: state}
}

// Handle executes the query
func (h *OrderStatusHandler) Handle(
	ctx context.Context,
	request mediator.Request,
) (mediator.Response, error) {
	q, ok := request.(*OrderStatusQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	h.state.Lock()
	defer h.state.Unlock()

	o := h.state.Book.Order(q.OrderID)
	if o == nil {
		return nil, shared.NewDependencyError(q.OrderID, "order "+q.OrderID+" not found")
	}

	resp := &OrderStatusResponse{
		OrderID:      o.ID(),
		Type:         string(o.Type()),
		Item:         o.Item(),
		Quantity:     o.Quantity(),
		Origin:       o.Origin(),
		Destination:  o.Destination(),
		Status:       string(o.Status()),
		Tier:         string(o.Tier()),
		Urgency:      o.Urgency(),
		CancelReason: o.CancelReason(),
		CreatedAt:    o.CreatedAt(),
	}

	for _, t := range h.state.Registry.All() {
		for _, id := range t.AssociatedOrders() {
			if id != o.ID() {
				continue
			}
			resp.Tasks = append(resp.Tasks, OrderTaskView{
				ID:       t.ID(),
				Level:    string(t.Level()),
				Status:   string(t.Status()),
				Quantity: t.Quantity(),
				Blocked:  t.IsBlocked(),
			})
			break
		}
	}
	return resp, nil
}
