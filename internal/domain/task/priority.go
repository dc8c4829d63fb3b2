package task

import (
	"math"
	"sort"
)

// Breakdown is the cached explanation of a task's score, exposed by the
// ranked-task query
type Breakdown struct {
	BlockedWeight  float64
	TimeMultiplier float64
	BasePriority   float64
	UrgencyBonus   float64
	Bubble         float64
	Total          float64
}

// PriorityConfig tunes the fluid priority model. Defaults reproduce the
// documented curve: 0h blocked is a 1.00x multiplier, 8h is about 2.23x,
// 24h and beyond cap at 5.00x.
type PriorityConfig struct {
	TimeFactor     float64
	MaxMultiplier  float64
	BubbleFraction float64
}

// DefaultPriorityConfig returns the documented defaults
func DefaultPriorityConfig() PriorityConfig {
	return PriorityConfig{
		TimeFactor:     0.1,
		MaxMultiplier:  5.0,
		BubbleFraction: 0.5,
	}
}

// OrderUrgencies resolves order ids to their current urgency score
type OrderUrgencies interface {
	UrgencyOf(orderID string) (float64, bool)
}

// Calculator scores tasks with the fluid-dynamics model: blocked upstream
// work is pressure, time blocked amplifies it, and downstream urgency
// bubbles up the chain.
//
//	priority = TotalBlockedWeight x TimeMultiplier + BasePriority
//	         + OrderUrgencyBonus + Bubble
type Calculator struct {
	config    PriorityConfig
	urgencies OrderUrgencies
}

// NewCalculator creates a calculator. A nil urgency source scores the
// urgency bonus as zero.
func NewCalculator(config PriorityConfig, urgencies OrderUrgencies) *Calculator {
	return &Calculator{config: config, urgencies: urgencies}
}

// Score computes the task's priority and caches the breakdown on the task.
// It never mutates task status.
func (c *Calculator) Score(r *Registry, t *Task) Breakdown {
	weight := c.blockedWeight(r, t)
	mult := c.timeMultiplier(r, t)
	urgency := c.urgencyBonus(t)

	b := Breakdown{
		BlockedWeight:  weight,
		TimeMultiplier: mult,
		BasePriority:   t.BasePriority(),
		UrgencyBonus:   urgency,
		Bubble:         t.Bubble(),
	}
	b.Total = weight*mult + t.BasePriority() + urgency + t.Bubble()
	t.setScore(b.Total, &b)
	return b
}

// ScoreAll recalculates every open task and returns them ranked, highest
// priority first. Ranking ties break on task id for stable output.
func (c *Calculator) ScoreAll(r *Registry) []*Task {
	open := r.Open()
	for _, t := range open {
		c.Score(r, t)
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].Priority() != open[j].Priority() {
			return open[i].Priority() > open[j].Priority()
		}
		return open[i].ID() < open[j].ID()
	})
	return open
}

// blockedWeight sums the base priority of every incomplete upstream task
// reachable over blocking edges. The visited set guards against miswired
// cycles; a task reached twice contributes once.
func (c *Calculator) blockedWeight(r *Registry, t *Task) float64 {
	total := 0.0
	for _, link := range r.BlockedChain(t.ID()) {
		total += link.BasePriority
	}
	return total
}

// timeMultiplier grows exponentially with hours blocked, capped so ancient
// blockages saturate instead of dominating everything
func (c *Calculator) timeMultiplier(r *Registry, t *Task) float64 {
	since := t.BlockedSince()
	if since == nil {
		return 1.0
	}
	hours := r.clock.Now().Sub(*since).Hours()
	if hours < 0 {
		hours = 0
	}
	mult := 1 + (math.Exp(hours*c.config.TimeFactor) - 1)
	if mult > c.config.MaxMultiplier {
		mult = c.config.MaxMultiplier
	}
	return mult
}

func (c *Calculator) urgencyBonus(t *Task) float64 {
	if c.urgencies == nil {
		return 0
	}
	total := 0.0
	for _, orderID := range t.AssociatedOrders() {
		if u, ok := c.urgencies.UrgencyOf(orderID); ok {
			total += u
		}
	}
	return total
}

// InheritedBubble computes the bubble a new upstream task receives from the
// blocked downstream task that triggered it: a configured fraction of the
// downstream priority, attenuated per hop.
func (c *Calculator) InheritedBubble(downstream *Task) float64 {
	return c.config.BubbleFraction * downstream.Priority()
}
