package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
)

// OrderType classifies what kind of work fulfills an order
type OrderType string

const (
	// TypeSupply - upstream stock already covers the quantity, move it
	TypeSupply OrderType = "SUPPLY"

	// TypeProduction - the quantity must be manufactured first
	TypeProduction OrderType = "PRODUCTION"

	// TypeTransport - finished goods moving between logistics hubs
	TypeTransport OrderType = "TRANSPORT"

	// TypeRefill - low-priority reserve staging
	TypeRefill OrderType = "REFILL"
)

// OrderStatus tracks an order through its lifecycle
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusAssigned   OrderStatus = "ASSIGNED"
	StatusInProgress OrderStatus = "IN_PROGRESS"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// Order is the demand-side record produced by propagation. Orders outlive
// the tasks generated from them and may span several.
type Order struct {
	id           string
	orderType    OrderType
	item         string
	quantity     int
	origin       string
	destination  string
	status       OrderStatus
	tier         graph.Tier
	urgency      float64
	cancelReason string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewOrder creates a pending order
func NewOrder(orderType OrderType, item string, quantity int, origin, destination string, tier graph.Tier, createdAt time.Time) *Order {
	return &Order{
		id:          uuid.New().String(),
		orderType:   orderType,
		item:        item,
		quantity:    quantity,
		origin:      origin,
		destination: destination,
		status:      StatusPending,
		tier:        tier,
		urgency:     1.0,
		createdAt:   createdAt,
		updatedAt:   createdAt,
	}
}

// ReconstructOrder rebuilds an order from persistence
func ReconstructOrder(
	id string,
	orderType OrderType,
	item string,
	quantity int,
	origin, destination string,
	status OrderStatus,
	tier graph.Tier,
	urgency float64,
	cancelReason string,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:           id,
		orderType:    orderType,
		item:         item,
		quantity:     quantity,
		origin:       origin,
		destination:  destination,
		status:       status,
		tier:         tier,
		urgency:      urgency,
		cancelReason: cancelReason,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// Getters

func (o *Order) ID() string           { return o.id }
func (o *Order) Type() OrderType      { return o.orderType }
func (o *Order) Item() string         { return o.item }
func (o *Order) Quantity() int        { return o.quantity }
func (o *Order) Origin() string       { return o.origin }
func (o *Order) Destination() string  { return o.destination }
func (o *Order) Status() OrderStatus  { return o.status }
func (o *Order) Tier() graph.Tier     { return o.tier }
func (o *Order) Urgency() float64     { return o.urgency }
func (o *Order) CancelReason() string { return o.cancelReason }
func (o *Order) CreatedAt() time.Time { return o.createdAt }
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }

// IsOpen returns true while the order still represents live demand
func (o *Order) IsOpen() bool {
	return o.status != StatusCompleted && o.status != StatusCancelled
}

// Age returns how long the order has been open
func (o *Order) Age(now time.Time) time.Duration {
	return now.Sub(o.createdAt)
}

// ErrInvalidOrderTransition is returned on a disallowed status change
type ErrInvalidOrderTransition struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
}

func (e *ErrInvalidOrderTransition) Error() string {
	return fmt.Sprintf("order %s cannot transition %s -> %s", e.OrderID, e.From, e.To)
}

// Assign moves a pending order to assigned
func (o *Order) Assign(at time.Time) error {
	if o.status != StatusPending {
		return &ErrInvalidOrderTransition{OrderID: o.id, From: o.status, To: StatusAssigned}
	}
	o.status = StatusAssigned
	o.updatedAt = at
	return nil
}

// Start moves an assigned order to in progress
func (o *Order) Start(at time.Time) error {
	if o.status != StatusAssigned {
		return &ErrInvalidOrderTransition{OrderID: o.id, From: o.status, To: StatusInProgress}
	}
	o.status = StatusInProgress
	o.updatedAt = at
	return nil
}

// Complete terminates the order successfully from any open state
func (o *Order) Complete(at time.Time) error {
	if !o.IsOpen() {
		return &ErrInvalidOrderTransition{OrderID: o.id, From: o.status, To: StatusCompleted}
	}
	o.status = StatusCompleted
	o.updatedAt = at
	return nil
}

// Cancel terminates the order. A reason is required for observability.
func (o *Order) Cancel(reason string, at time.Time) error {
	if reason == "" {
		return fmt.Errorf("cancelling order %s requires a reason", o.id)
	}
	if !o.IsOpen() {
		return &ErrInvalidOrderTransition{OrderID: o.id, From: o.status, To: StatusCancelled}
	}
	o.status = StatusCancelled
	o.cancelReason = reason
	o.updatedAt = at
	return nil
}

// SetQuantity updates the quantity of an open order after a re-scan
func (o *Order) SetQuantity(qty int, at time.Time) {
	o.quantity = qty
	o.updatedAt = at
}

// SetUrgency updates the derived urgency score
func (o *Order) SetUrgency(urgency float64) {
	o.urgency = urgency
}

// String provides a human-readable representation
func (o *Order) String() string {
	return fmt.Sprintf("Order[%s, type=%s, item=%s, qty=%d, %s->%s, status=%s]",
		o.id[:8], o.orderType, o.item, o.quantity, o.origin, o.destination, o.status)
}
