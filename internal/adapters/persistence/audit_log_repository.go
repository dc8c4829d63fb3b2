package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// AuditLogRepository manages audit log persistence
type AuditLogRepository interface {
	// Log writes a log entry to the database with deduplication
	Log(ctx context.Context, level, message string, metadata map[string]interface{}) error

	// GetLogs retrieves recent entries with optional level and time filtering
	GetLogs(ctx context.Context, limit int, level *string, since *time.Time) ([]AuditLogEntry, error)
}

// AuditLogEntry represents a stored log entry
type AuditLogEntry struct {
	ID        int
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// GormAuditLogRepository is a GORM-based implementation. Repeated identical
// messages within the dedup window are dropped so the sweep loop cannot flood
// the table.
type GormAuditLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	dedupCache   map[string]time.Time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormAuditLogRepository creates a new audit log repository.
// If clock is nil, uses RealClock.
func NewGormAuditLogRepository(db *gorm.DB, clock shared.Clock) *GormAuditLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormAuditLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  60 * time.Second,
		dedupMaxSize: 10000,
	}
}

// Log writes a log entry with time-windowed deduplication
func (r *GormAuditLogRepository) Log(ctx context.Context, level, message string, metadata map[string]interface{}) error {
	now := r.clock.Now()
	cacheKey := level + "|" + message

	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists {
		if now.Sub(lastLogged) < r.dedupWindow {
			r.dedupMu.Unlock()
			return nil
		}
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache()
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	var metadataJSON string
	if len(metadata) > 0 {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	entry := &AuditLogModel{
		Timestamp: now,
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// cleanupDedupCache removes expired entries. Must be called while holding
// dedupMu.
func (r *GormAuditLogRepository) cleanupDedupCache() {
	cutoff := r.clock.Now().Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// GetLogs retrieves recent entries, newest first
func (r *GormAuditLogRepository) GetLogs(ctx context.Context, limit int, level *string, since *time.Time) ([]AuditLogEntry, error) {
	var models []AuditLogModel

	query := r.db.WithContext(ctx)
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	if since != nil {
		query = query.Where("timestamp > ?", *since)
	}
	query = query.Order("timestamp DESC").Limit(limit)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]AuditLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}
		entries[i] = AuditLogEntry{
			ID:        model.ID,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}
	return entries, nil
}

// DatabaseLogger adapts the audit log repository to the context logger
// interface used by command handlers
type DatabaseLogger struct {
	repo AuditLogRepository
}

// NewDatabaseLogger creates a logger that writes to the audit log table
func NewDatabaseLogger(repo AuditLogRepository) *DatabaseLogger {
	return &DatabaseLogger{repo: repo}
}

func (l *DatabaseLogger) Log(level, message string, metadata map[string]interface{}) {
	// Log delivery is best-effort; a failed write must not fail the operation
	// being logged
	_ = l.repo.Log(context.Background(), level, message, metadata)
}
