package persistence

import (
	"encoding/json"
	"time"
)

// NodeModel represents the nodes table. Map-shaped fields (metadata,
// inventory, preferences, delta) are JSON stored as text so the same schema
// works on SQLite and PostgreSQL.
type NodeModel struct {
	ID             string    `gorm:"column:id;primaryKey;not null"`
	LocationName   string    `gorm:"column:location_name;not null"`
	UnitSize       string    `gorm:"column:unit_size;not null;default:'crate'"`
	BaseType       string    `gorm:"column:base_type;not null"`
	Metadata       string    `gorm:"column:metadata;type:text"`
	Inventory      string    `gorm:"column:inventory;type:text"`
	Preferences    string    `gorm:"column:preferences;type:text"`
	Delta          string    `gorm:"column:delta;type:text"` // recorded downstream demand
	Status         string    `gorm:"column:status;not null;default:'ACTIVE'"`
	ProductionType string    `gorm:"column:production_type"`
	LastUpdated    time.Time `gorm:"column:last_updated"`
}

func (NodeModel) TableName() string {
	return "nodes"
}

// EdgeModel represents the edges table
type EdgeModel struct {
	ID                   int    `gorm:"column:id;primaryKey;autoIncrement"`
	Source               string `gorm:"column:source;not null;index"`
	Target               string `gorm:"column:target;not null;index"`
	AllowedItems         string `gorm:"column:allowed_items;type:text"`
	RestrictedItems      string `gorm:"column:restricted_items;type:text"`
	RestrictedCategories string `gorm:"column:restricted_categories;type:text"`
	TransportTimeSecs    *int64 `gorm:"column:transport_time_secs"`
	ProductionProcess    string `gorm:"column:production_process"`
	UserConfig           string `gorm:"column:user_config;type:text"`
}

func (EdgeModel) TableName() string {
	return "edges"
}

// OrderModel represents the orders table
type OrderModel struct {
	ID           string    `gorm:"column:id;primaryKey;not null"`
	Type         string    `gorm:"column:type;not null"`
	Item         string    `gorm:"column:item;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	Origin       string    `gorm:"column:origin;not null;index"`
	Destination  string    `gorm:"column:destination;not null;index"`
	Status       string    `gorm:"column:status;not null;index"`
	Tier         string    `gorm:"column:tier;not null"`
	Urgency      float64   `gorm:"column:urgency;not null;default:1"`
	CancelReason string    `gorm:"column:cancel_reason"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// TaskModel represents the tasks table
type TaskModel struct {
	ID                  string     `gorm:"column:id;primaryKey;not null"`
	Level               string     `gorm:"column:level;not null;index"`
	Item                string     `gorm:"column:item;not null"`
	Quantity            int        `gorm:"column:quantity;not null"`
	Status              string     `gorm:"column:status;not null;index"`
	Origin              string     `gorm:"column:origin;index"`
	Destination         string     `gorm:"column:destination"`
	ClaimedBy           string     `gorm:"column:claimed_by"`
	ClaimDeadline       *time.Time `gorm:"column:claim_deadline"`
	LinkedTaskID        string     `gorm:"column:linked_task_id"`
	AssociatedOrders    string     `gorm:"column:associated_orders;type:text"`
	ProductionSite      string     `gorm:"column:production_site"`
	EstimatedCompletion *time.Time `gorm:"column:estimated_completion"`
	BasePriority        float64    `gorm:"column:base_priority;not null;default:0"`
	Bubble              float64    `gorm:"column:bubble;not null;default:0"`
	BlockedSince        *time.Time `gorm:"column:blocked_since"`
	Priority            float64    `gorm:"column:priority;not null;default:0;index"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null"`
	CompletedAt         *time.Time `gorm:"column:completed_at"`
}

func (TaskModel) TableName() string {
	return "tasks"
}

// TaskDependencyModel represents the task_dependencies table: the blocking
// edge from a downstream task to the upstream task it waits on
type TaskDependencyModel struct {
	TaskID     string `gorm:"column:task_id;primaryKey;not null"`
	BlocksOnID string `gorm:"column:blocks_on_id;primaryKey;not null"`
}

func (TaskDependencyModel) TableName() string {
	return "task_dependencies"
}

// AuditLogModel represents the audit_logs table used by the database logger
type AuditLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// JSON text helpers shared by the repositories

func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
