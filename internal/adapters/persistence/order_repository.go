package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/dmarchand/quartermaster-go/internal/domain/graph"
	"github.com/dmarchand/quartermaster-go/internal/domain/order"
)

// GormOrderRepository implements order persistence using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save upserts an order
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	model := r.orderToModel(o)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll upserts a batch of orders in a single transaction
func (r *GormOrderRepository) SaveAll(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			if err := tx.Save(r.orderToModel(o)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID retrieves an order by its ID, nil if not found
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.modelToOrder(&model), nil
}

// FindOpen retrieves every order not yet completed or cancelled
func (r *GormOrderRepository) FindOpen(ctx context.Context) ([]*order.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []string{string(order.StatusCompleted), string(order.StatusCancelled)}).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = r.modelToOrder(&models[i])
	}
	return orders, nil
}

// FindAll retrieves every stored order
func (r *GormOrderRepository) FindAll(ctx context.Context) ([]*order.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = r.modelToOrder(&models[i])
	}
	return orders, nil
}

// RestoreBook loads every open order into a fresh book
func (r *GormOrderRepository) RestoreBook(ctx context.Context, book *order.Book) error {
	open, err := r.FindOpen(ctx)
	if err != nil {
		return err
	}
	for _, o := range open {
		book.Restore(o)
	}
	return nil
}

func (r *GormOrderRepository) orderToModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:           o.ID(),
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
		UpdatedAt:    o.UpdatedAt(),
	}
}

func (r *GormOrderRepository) modelToOrder(m *OrderModel) *order.Order {
	return order.ReconstructOrder(
		m.ID,
		order.OrderType(m.Type),
		m.Item,
		m.Quantity,
		m.Origin,
		m.Destination,
		order.OrderStatus(m.Status),
		graph.Tier(m.Tier),
		m.Urgency,
		m.CancelReason,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
