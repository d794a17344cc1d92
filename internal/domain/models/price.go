package models

import (
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// DateLayout is the calendar date format used across the API, the CSV importer and the sqlite store.
const DateLayout = "2006-01-02"

// PriceSample is one instrument's trading data for one calendar date.
//
// At most one sample exists per (Instrument, Date). Optional cells are carried as
// null values so that "not reported" is never confused with zero.
//
// swagger:model PriceSample
type PriceSample struct {
	Instrument string      `json:"instrument" example:"AAPL"`
	Date       time.Time   `json:"date" example:"2023-01-02T00:00:00Z"`
	Open       null.Float  `json:"open" swaggertype:"number" example:"150.1"`
	High       null.Float  `json:"high" swaggertype:"number" example:"153.4"`
	Low        null.Float  `json:"low" swaggertype:"number" example:"149.8"`
	Close      float64     `json:"close" example:"152.0"`
	Volume     null.Int    `json:"volume" swaggertype:"integer" example:"81200000"`
	MarketCap  null.Float  `json:"market_cap" swaggertype:"number"`
	PERatio    null.Float  `json:"pe_ratio" swaggertype:"number"`
	Name       null.String `json:"name" swaggertype:"string"`
	Industry   null.String `json:"industry" swaggertype:"string"`
	Sector     null.String `json:"sector" swaggertype:"string"`
}

// SamplePatch lists the fields of a stored sample that may be changed after the fact.
// A nil pointer leaves the stored value untouched.
type SamplePatch struct {
	Open      *float64 `json:"open,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Close     *float64 `json:"close,omitempty"`
	Volume    *int64   `json:"volume,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	PERatio   *float64 `json:"pe_ratio,omitempty"`
	Name      *string  `json:"name,omitempty"`
	Industry  *string  `json:"industry,omitempty"`
	Sector    *string  `json:"sector,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SamplePatch) IsEmpty() bool {
	return p.Open == nil && p.High == nil && p.Low == nil && p.Close == nil &&
		p.Volume == nil && p.MarketCap == nil && p.PERatio == nil &&
		p.Name == nil && p.Industry == nil && p.Sector == nil
}

// Apply returns a copy of s with the patch applied.
func (p SamplePatch) Apply(s PriceSample) PriceSample {
	if p.Open != nil {
		s.Open = null.FloatFrom(*p.Open)
	}
	if p.High != nil {
		s.High = null.FloatFrom(*p.High)
	}
	if p.Low != nil {
		s.Low = null.FloatFrom(*p.Low)
	}
	if p.Close != nil {
		s.Close = *p.Close
	}
	if p.Volume != nil {
		s.Volume = null.IntFrom(*p.Volume)
	}
	if p.MarketCap != nil {
		s.MarketCap = null.FloatFrom(*p.MarketCap)
	}
	if p.PERatio != nil {
		s.PERatio = null.FloatFrom(*p.PERatio)
	}
	if p.Name != nil {
		s.Name = null.StringFrom(*p.Name)
	}
	if p.Industry != nil {
		s.Industry = null.StringFrom(*p.Industry)
	}
	if p.Sector != nil {
		s.Sector = null.StringFrom(*p.Sector)
	}
	return s
}

// NormalizeInstrument trims and upper-cases a ticker symbol.
func NormalizeInstrument(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
