package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmarchand/quartermaster-go/internal/domain/order"
	"github.com/dmarchand/quartermaster-go/internal/domain/task"
)

// SupplyMetricsCollector handles all supply chain metrics
type SupplyMetricsCollector struct {
	// Dependencies
	registry *task.Registry
	book     *order.Book

	// Task metrics
	tasksOpenTotal      *prometheus.GaugeVec
	tasksBlockedTotal   *prometheus.GaugeVec
	tasksCompletedTotal *prometheus.CounterVec
	claimConflictsTotal *prometheus.CounterVec
	taskPriorityTop     prometheus.Gauge

	// Order metrics
	ordersOpenTotal *prometheus.GaugeVec

	// Propagation metrics
	propagationDepth           prometheus.Histogram
	propagationDurationSeconds prometheus.Histogram

	// Sweep metrics
	sweepDurationSeconds prometheus.Histogram
	sweepExpiredTotal    prometheus.Counter
	sweepCompletedTotal  prometheus.Counter

	// Lifecycle
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	pollInterval time.Duration
}

// NewSupplyMetricsCollector creates a new supply metrics collector
func NewSupplyMetricsCollector(registry *task.Registry, book *order.Book) *SupplyMetricsCollector {
	return &SupplyMetricsCollector{
		registry:     registry,
		book:         book,
		pollInterval: 30 * time.Second,

		tasksOpenTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_open_total",
				Help:      "Number of open tasks by level and status",
			},
			[]string{"level", "status"},
		),

		tasksBlockedTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_blocked_total",
				Help:      "Number of open tasks waiting on upstream work",
			},
			[]string{"level"},
		),

		tasksCompletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_completed_total",
				Help:      "Total tasks reaching a terminal status",
			},
			[]string{"level", "status"},
		),

		claimConflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "claim_conflicts_total",
				Help:      "Total claim attempts lost to another claimant",
			},
			[]string{"level"},
		),

		taskPriorityTop: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "task_priority_top",
				Help:      "Priority score of the highest ranked open task",
			},
		),

		ordersOpenTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_open_total",
				Help:      "Number of open orders by type",
			},
			[]string{"type"},
		),

		propagationDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "propagation_depth",
				Help:      "Upstream hops reached by one propagation pass",
				Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
			},
		),

		propagationDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "propagation_duration_seconds",
				Help:      "Propagation pass duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),

		sweepDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sweep_duration_seconds",
				Help:      "Sweep pass duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
		),

		sweepExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sweep_expired_claims_total",
				Help:      "Total claims released by sweep expiry",
			},
		),

		sweepCompletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sweep_auto_completed_total",
				Help:      "Total queue tasks auto-completed by the sweep",
			},
		),
	}
}

// Register registers all supply metrics with the Prometheus registry
func (c *SupplyMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	collectors := []prometheus.Collector{
		c.tasksOpenTotal,
		c.tasksBlockedTotal,
		c.tasksCompletedTotal,
		c.claimConflictsTotal,
		c.taskPriorityTop,
		c.ordersOpenTotal,
		c.propagationDepth,
		c.propagationDurationSeconds,
		c.sweepDurationSeconds,
		c.sweepExpiredTotal,
		c.sweepCompletedTotal,
	}
	for _, collector := range collectors {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// Start begins the polling goroutine for aggregate metrics
func (c *SupplyMetricsCollector) Start(ctx context.Context) {
	ctx, c.cancelFunc = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.pollMetrics(ctx)
}

// Stop gracefully stops the collector
func (c *SupplyMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *SupplyMetricsCollector) pollMetrics(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.updateAggregates()
		}
	}
}

func (c *SupplyMetricsCollector) updateAggregates() {
	c.tasksOpenTotal.Reset()
	c.tasksBlockedTotal.Reset()

	top := 0.0
	for _, t := range c.registry.Open() {
		c.tasksOpenTotal.WithLabelValues(string(t.Level()), string(t.Status())).Inc()
		if t.IsBlocked() {
			c.tasksBlockedTotal.WithLabelValues(string(t.Level())).Inc()
		}
		if t.Priority() > top {
			top = t.Priority()
		}
	}
	c.taskPriorityTop.Set(top)

	c.ordersOpenTotal.Reset()
	for _, o := range c.book.OpenOrders() {
		c.ordersOpenTotal.WithLabelValues(string(o.Type())).Inc()
	}
}

// RecordPropagation records one propagation pass
func (c *SupplyMetricsCollector) RecordPropagation(depth int, durationSeconds float64) {
	c.propagationDepth.Observe(float64(depth))
	c.propagationDurationSeconds.Observe(durationSeconds)
}

// RecordTaskCompletion records a task reaching a terminal status
func (c *SupplyMetricsCollector) RecordTaskCompletion(level, status string) {
	c.tasksCompletedTotal.WithLabelValues(level, status).Inc()
}

// RecordClaimConflict records a lost claim race
func (c *SupplyMetricsCollector) RecordClaimConflict(level string) {
	c.claimConflictsTotal.WithLabelValues(level).Inc()
}

// RecordSweep records one sweep pass
func (c *SupplyMetricsCollector) RecordSweep(durationSeconds float64, expired, autoCompleted int) {
	c.sweepDurationSeconds.Observe(durationSeconds)
	c.sweepExpiredTotal.Add(float64(expired))
	c.sweepCompletedTotal.Add(float64(autoCompleted))
}
