package cli

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dmarchand/quartermaster-go/internal/adapters/persistence"
	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
	"github.com/dmarchand/quartermaster-go/internal/infrastructure/config"
	"github.com/dmarchand/quartermaster-go/internal/infrastructure/database"
)

// runtime bundles everything a CLI command needs to operate on the
// persisted supply state
type runtime struct {
	cfg   *config.Config
	db    *gorm.DB
	state *supply.State
}

// openRuntime loads config, connects to the database and restores the full
// supply state (graph, order book, task registry) from it
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	graphRepo := persistence.NewGormGraphRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	taskRepo := persistence.NewGormTaskRepository(db)

	g, err := graphRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load supply graph: %w", err)
	}

	state := supply.NewState(g, nil, domainPriorityConfig(cfg), graphRepo, orderRepo, taskRepo)
	if err := state.Restore(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore state: %w", err)
	}

	return &runtime{cfg: cfg, db: db, state: state}, nil
}

// Close releases the database connection
func (r *runtime) Close() {
	_ = database.Close(r.db)
}

// commandContext returns a context carrying the CLI logger. Verbose mode
// lowers the threshold to debug regardless of configured level.
func commandContext() context.Context {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logging.WithLogger(context.Background(), logging.NewStderrLogger(level))
}

func domainPriorityConfig(cfg *config.Config) task.PriorityConfig {
	return task.PriorityConfig{
		TimeFactor:     cfg.Priority.TimeFactor,
		MaxMultiplier:  cfg.Priority.MaxMultiplier,
		BubbleFraction: cfg.Priority.BubbleFraction,
	}
}

// formatTime renders a timestamp for table output, or a dash when unset
func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// orDash substitutes a dash for empty display values
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
