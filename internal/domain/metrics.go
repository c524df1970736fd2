package domain

import "time"

// TypeMetrics summarizes performance for one container type.
type TypeMetrics struct {
	ContainerCount   int
	YieldKg          float64
	SpaceUtilization float64
}

// Metrics is the fleet-wide performance snapshot shown above the list.
type Metrics struct {
	Physical     TypeMetrics
	Virtual      TypeMetrics
	ActiveAlerts int
	GeneratedAt  time.Time
}

// MetricsScope narrows the performance query. The zero value asks for the
// backend default.
type MetricsScope struct {
	TimeRange string
	Type      ContainerType
}

func (s MetricsScope) IsZero() bool {
	return s.TimeRange == "" && (s.Type == "" || s.Type == ContainerTypeAll)
}
