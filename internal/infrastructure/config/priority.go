package config

// PriorityConfig tunes the fluid priority model and urgency derivation.
// Defaults reproduce the documented worked examples; they are exposed here
// rather than hardcoded because the source material leaves the exact curves
// open to tuning.
type PriorityConfig struct {
	// Exponent factor for the blocked-time multiplier
	TimeFactor float64 `mapstructure:"time_factor" validate:"gt=0"`

	// Cap on the blocked-time multiplier
	MaxMultiplier float64 `mapstructure:"max_multiplier" validate:"gte=1"`

	// Fraction of a blocked downstream task's priority inherited by each
	// newly created upstream task, applied per hop
	BubbleFraction float64 `mapstructure:"bubble_fraction" validate:"gte=0,lte=1"`
}
