package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/dmarchand/quartermaster-go/internal/domain/catalog"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
)

// GormTaskRepository implements task persistence using GORM. Blocking edges
// live in a separate dependency table keyed by both task ids.
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based task repository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// Save upserts a task and its blocking edges
func (r *GormTaskRepository) Save(ctx context.Context, t *task.Task, blocksOn []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(r.taskToModel(t)).Error; err != nil {
			return err
		}
		return r.saveDependencies(tx, t.ID(), blocksOn)
	})
}

// SaveRegistry persists every task in the registry, replacing the stored set
func (r *GormTaskRepository) SaveRegistry(ctx context.Context, reg *task.Registry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&TaskDependencyModel{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&TaskModel{}).Error; err != nil {
			return err
		}
		for _, t := range reg.All() {
			if err := tx.Create(r.taskToModel(t)).Error; err != nil {
				return err
			}
			if err := r.saveDependencies(tx, t.ID(), reg.BlockedBy(t.ID())); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID retrieves a task by its ID, nil if not found
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	var model TaskModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.modelToTask(&model)
}

// FindOpen retrieves every task still available for work, highest priority
// first
func (r *GormTaskRepository) FindOpen(ctx context.Context) ([]*task.Task, error) {
	var models []TaskModel
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []string{string(task.StatusComplete), string(task.StatusCancelled)}).
		Order("priority DESC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.modelsToTasks(models)
}

// FindAll retrieves every stored task
func (r *GormTaskRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	var models []TaskModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.modelsToTasks(models)
}

// RestoreRegistry loads every stored task and dependency edge into a fresh
// registry
func (r *GormTaskRepository) RestoreRegistry(ctx context.Context, reg *task.Registry) error {
	tasks, err := r.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := reg.Add(t); err != nil {
			return err
		}
	}
	var deps []TaskDependencyModel
	if err := r.db.WithContext(ctx).Find(&deps).Error; err != nil {
		return err
	}
	for _, dep := range deps {
		if err := reg.AddBlockingEdge(dep.TaskID, dep.BlocksOnID); err != nil {
			return err
		}
	}
	return nil
}

func (r *GormTaskRepository) saveDependencies(tx *gorm.DB, taskID string, blocksOn []string) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&TaskDependencyModel{}).Error; err != nil {
		return err
	}
	for _, upstream := range blocksOn {
		dep := &TaskDependencyModel{TaskID: taskID, BlocksOnID: upstream}
		if err := tx.Create(dep).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormTaskRepository) modelsToTasks(models []TaskModel) ([]*task.Task, error) {
	tasks := make([]*task.Task, len(models))
	for i := range models {
		t, err := r.modelToTask(&models[i])
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	return tasks, nil
}

func (r *GormTaskRepository) taskToModel(t *task.Task) *TaskModel {
	return &TaskModel{
		ID:                  t.ID(),
		Level:               string(t.Level()),
		Item:                t.Item(),
		Quantity:            t.Quantity(),
		Status:              string(t.Status()),
		Origin:              t.Origin(),
		Destination:         t.Destination(),
		ClaimedBy:           t.ClaimedBy(),
		ClaimDeadline:       t.ClaimDeadline(),
		LinkedTaskID:        t.LinkedTaskID(),
		AssociatedOrders:    marshalJSON(t.AssociatedOrders()),
		ProductionSite:      string(t.ProductionSite()),
		EstimatedCompletion: t.EstimatedCompletion(),
		BasePriority:        t.BasePriority(),
		Bubble:              t.Bubble(),
		BlockedSince:        t.BlockedSince(),
		Priority:            t.Priority(),
		CreatedAt:           t.CreatedAt(),
		CompletedAt:         t.CompletedAt(),
	}
}

func (r *GormTaskRepository) modelToTask(m *TaskModel) (*task.Task, error) {
	var associatedOrders []string
	if err := unmarshalJSON(m.AssociatedOrders, &associatedOrders); err != nil {
		return nil, err
	}
	return task.ReconstructTask(
		m.ID,
		task.Level(m.Level),
		m.Item,
		m.Quantity,
		task.Status(m.Status),
		m.Origin,
		m.Destination,
		m.ClaimedBy,
		m.ClaimDeadline,
		m.LinkedTaskID,
		associatedOrders,
		catalog.ProductionSite(m.ProductionSite),
		m.EstimatedCompletion,
		m.BasePriority,
		m.Bubble,
		m.BlockedSince,
		m.Priority,
		m.CreatedAt,
		m.CompletedAt,
	), nil
}
