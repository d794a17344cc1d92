package models

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the bucket width used when resampling daily samples.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity validates a granularity name (case-insensitive).
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Hourly, Daily, Weekly, Monthly:
		return g, nil
	default:
		return "", fmt.Errorf("invalid granularity %q: expected hourly, daily, weekly or monthly", s)
	}
}

// AggregatedPoint is a derived, non-persisted summary of the samples falling in one bucket.
//
// Fields:
//   - PeriodStart: first day of the bucket (the date, the ISO week's Monday, or the 1st of the month).
//   - Value: arithmetic mean of close across the bucket.
//   - SampleCount: how many samples contributed.
//   - Min/Max: lowest and highest close in the bucket.
//
// swagger:model AggregatedPoint
type AggregatedPoint struct {
	Instrument  string    `json:"instrument" example:"AAPL"`
	PeriodStart time.Time `json:"period_start" example:"2023-01-02T00:00:00Z"`
	Value       float64   `json:"value" example:"104.0"`
	SampleCount int       `json:"sample_count" example:"5"`
	Min         float64   `json:"min" example:"100.0"`
	Max         float64   `json:"max" example:"108.0"`
}
