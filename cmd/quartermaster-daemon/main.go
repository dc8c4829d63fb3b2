package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmarchand/quartermaster-go/internal/adapters/ingest"
	"github.com/dmarchand/quartermaster-go/internal/adapters/metrics"
	"github.com/dmarchand/quartermaster-go/internal/adapters/persistence"
	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/application/mediator"
	"github.com/dmarchand/quartermaster-go/internal/application/supply"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/commands"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/queries"
	"github.com/dmarchand/quartermaster-go/internal/application/supply/services"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
	"github.com/dmarchand/quartermaster-go/internal/infrastructure/config"
	"github.com/dmarchand/quartermaster-go/internal/infrastructure/database"
	"github.com/dmarchand/quartermaster-go/internal/infrastructure/pidfile"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	flag.Parse()

	fmt.Println("Quartermaster Daemon v0.1.0")
	fmt.Println("===========================")

	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configFlag)

	// PID file lock prevents a second daemon from racing the first on the
	// same database
	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		log.Fatalf("Failed to acquire PID file lock: %v", err)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config) error {
	// 1. Database connection and schema
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Println("Database connected")

	// 2. Logger. The database output keeps an audit trail with duplicate
	// suppression; stdout and stderr are plain line logs.
	var logger logging.Logger
	switch cfg.Logging.Output {
	case "database":
		logger = persistence.NewDatabaseLogger(persistence.NewGormAuditLogRepository(db, nil))
	case "stderr":
		logger = logging.NewStderrLogger(cfg.Logging.Level)
	default:
		logger = logging.NewStdoutLogger(cfg.Logging.Level)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	// 3. Repositories and state
	graphRepo := persistence.NewGormGraphRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	taskRepo := persistence.NewGormTaskRepository(db)

	g, err := graphRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load supply graph: %w", err)
	}
	fmt.Printf("Supply graph loaded: %d nodes, %d edges\n", len(g.Nodes()), len(g.Edges()))

	state := supply.NewState(g, nil, task.PriorityConfig{
		TimeFactor:     cfg.Priority.TimeFactor,
		MaxMultiplier:  cfg.Priority.MaxMultiplier,
		BubbleFraction: cfg.Priority.BubbleFraction,
	}, graphRepo, orderRepo, taskRepo)
	if err := state.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	fmt.Println("State restored")

	// 4. Mediator and handlers
	med := mediator.NewMediator()

	ingestHandler := commands.NewIngestInventoryEventHandler(state)
	if err := mediator.RegisterHandler[*commands.IngestInventoryEventCommand](med, ingestHandler); err != nil {
		return fmt.Errorf("failed to register IngestInventoryEvent handler: %w", err)
	}
	claimHandler := commands.NewClaimTaskHandler(state, cfg.Daemon.ClaimTimeout)
	if err := mediator.RegisterHandler[*commands.ClaimTaskCommand](med, claimHandler); err != nil {
		return fmt.Errorf("failed to register ClaimTask handler: %w", err)
	}
	completeHandler := commands.NewCompleteTaskHandler(state)
	if err := mediator.RegisterHandler[*commands.CompleteTaskCommand](med, completeHandler); err != nil {
		return fmt.Errorf("failed to register CompleteTask handler: %w", err)
	}
	abandonHandler := commands.NewAbandonTaskHandler(state)
	if err := mediator.RegisterHandler[*commands.AbandonTaskCommand](med, abandonHandler); err != nil {
		return fmt.Errorf("failed to register AbandonTask handler: %w", err)
	}
	cancelOrderHandler := commands.NewCancelOrderHandler(state)
	if err := mediator.RegisterHandler[*commands.CancelOrderCommand](med, cancelOrderHandler); err != nil {
		return fmt.Errorf("failed to register CancelOrder handler: %w", err)
	}
	rankedTasksHandler := queries.NewRankedTasksHandler(state)
	if err := mediator.RegisterHandler[*queries.RankedTasksQuery](med, rankedTasksHandler); err != nil {
		return fmt.Errorf("failed to register RankedTasks handler: %w", err)
	}
	orderStatusHandler := queries.NewOrderStatusHandler(state)
	if err := mediator.RegisterHandler[*queries.OrderStatusQuery](med, orderStatusHandler); err != nil {
		return fmt.Errorf("failed to register OrderStatus handler: %w", err)
	}
	blockedTraceHandler := queries.NewBlockedTraceHandler(state)
	if err := mediator.RegisterHandler[*queries.BlockedTraceQuery](med, blockedTraceHandler); err != nil {
		return fmt.Errorf("failed to register BlockedTrace handler: %w", err)
	}
	dashboardHandler := queries.NewDashboardHandler(state)
	if err := mediator.RegisterHandler[*queries.DashboardQuery](med, dashboardHandler); err != nil {
		return fmt.Errorf("failed to register Dashboard handler: %w", err)
	}
	fmt.Println("Handlers registered")

	// 5. Metrics
	var (
		collector     *metrics.SupplyMetricsCollector
		metricsServer *metrics.Server
	)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		collector = metrics.NewSupplyMetricsCollector(state.Registry, state.Book)
		if err := collector.Register(); err != nil {
			return fmt.Errorf("failed to register metrics collector: %w", err)
		}
		metrics.SetGlobalCollector(collector)
		collector.Start(ctx)
		defer collector.Stop()

		metricsServer = metrics.NewServer(cfg.Metrics.Address)
		serverErrs := metricsServer.Start()
		go func() {
			if err := <-serverErrs; err != nil {
				logger.Log("ERROR", "metrics server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
		fmt.Printf("Metrics endpoint listening on %s\n", cfg.Metrics.Address)
	}

	// 6. Websocket event source
	var source *ingest.WebsocketSource
	if cfg.Ingest.WebsocketURL != "" {
		source = ingest.NewWebsocketSource(cfg.Ingest.WebsocketURL, cfg.Ingest.ReconnectDelay, cfg.Ingest.BufferSize)
		source.Start(ctx)
		go func() {
			for event := range source.Events() {
				if _, err := med.Send(ctx, &commands.IngestInventoryEventCommand{Event: event}); err != nil {
					logger.Log("WARN", "event rejected", map[string]interface{}{
						"node":  event.NodeID,
						"item":  event.Item,
						"error": err.Error(),
					})
				}
			}
		}()
		fmt.Printf("Event source connected to %s\n", cfg.Ingest.WebsocketURL)
	}

	// 7. Background sweep
	sweeper := services.NewSweeper(state, cfg.Daemon.SweepInterval, cfg.Daemon.SweepMinSpacing)
	go sweeper.Run(ctx)
	fmt.Printf("Sweep running every %s\n", cfg.Daemon.SweepInterval)

	fmt.Println("\nDaemon is ready")
	fmt.Println("Press Ctrl+C to stop")

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownTimeout)
	defer cancel()
	shutdownCtx = logging.WithLogger(shutdownCtx, logger)

	if source != nil {
		source.Close()
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Log("WARN", "metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}

	// Final persist so nothing applied since the last sweep is lost
	state.Lock()
	err = state.Persist(shutdownCtx)
	state.Unlock()
	if err != nil {
		return fmt.Errorf("failed to persist final state: %w", err)
	}

	fmt.Println("Daemon stopped")
	return nil
}
