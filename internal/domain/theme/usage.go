package theme

import "time"

// UsageEvent records a palette and mode being chosen in a given context.
type UsageEvent struct {
	PaletteID string
	Mode      Mode
	Context   string
	Timestamp time.Time
}

// Impact grades the side effects of following a recommendation.
type Impact string

const (
	ImpactNone   Impact = "none"
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Recommendation is a derived, confidence-scored suggestion. It is never persisted.
type Recommendation struct {
	PaletteID         string
	Mode              Mode
	Confidence        float64
	Reason            string
	EnergyImpact      Impact
	PerformanceImpact Impact
	LastUsed          time.Time
	Uses              int
}
