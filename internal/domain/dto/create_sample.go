package dto

import (
	"fmt"

	"github.com/guregu/null/v6"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

// CreateSampleRequest is the body of POST /api/v1/instruments/{instrument}/prices.
// Omitted optional fields are stored as absent.
type CreateSampleRequest struct {
	Date      string   `json:"date" binding:"required" example:"2023-01-03"`
	Close     *float64 `json:"close" binding:"required" example:"125.07"`
	Open      *float64 `json:"open,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Volume    *int64   `json:"volume,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	PERatio   *float64 `json:"pe_ratio,omitempty"`
	Name      *string  `json:"name,omitempty" example:"Apple Inc."`
	Industry  *string  `json:"industry,omitempty" example:"Consumer Electronics"`
	Sector    *string  `json:"sector,omitempty" example:"Technology"`
}

// ToSample converts the request into a sample for instrument.
func (r CreateSampleRequest) ToSample(instrument string) (models.PriceSample, error) {
	date, err := models.ParseDate(r.Date)
	if err != nil {
		return models.PriceSample{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", r.Date, err)
	}
	if r.Close == nil {
		return models.PriceSample{}, fmt.Errorf("close is required")
	}
	return models.PriceSample{
		Instrument: models.NormalizeInstrument(instrument),
		Date:       date,
		Open:       null.FloatFromPtr(r.Open),
		High:       null.FloatFromPtr(r.High),
		Low:        null.FloatFromPtr(r.Low),
		Close:      *r.Close,
		Volume:     null.IntFromPtr(r.Volume),
		MarketCap:  null.FloatFromPtr(r.MarketCap),
		PERatio:    null.FloatFromPtr(r.PERatio),
		Name:       null.StringFromPtr(r.Name),
		Industry:   null.StringFromPtr(r.Industry),
		Sector:     null.StringFromPtr(r.Sector),
	}, nil
}
