package dto

import "github.com/dreamjorge/StockStreamDB/internal/domain/models"

// AggregateResponse is returned by GET /api/v1/instruments/{instrument}/aggregate.
type AggregateResponse struct {
	Instrument  string                   `json:"instrument" example:"AAPL"`
	Start       string                   `json:"start" example:"2023-01-01"`
	End         string                   `json:"end" example:"2023-03-31"`
	Granularity string                   `json:"granularity" example:"weekly"`
	Points      []models.AggregatedPoint `json:"points"`
}

// PricesResponse is returned by GET /api/v1/instruments/{instrument}/prices.
type PricesResponse struct {
	Instrument string               `json:"instrument" example:"AAPL"`
	Start      string               `json:"start" example:"2023-01-01"`
	End        string               `json:"end" example:"2023-03-31"`
	Count      int                  `json:"count" example:"61"`
	Samples    []models.PriceSample `json:"samples"`
}

// FetchResponse reports the outcome of one fetch-and-store run.
type FetchResponse struct {
	Instrument string `json:"instrument" example:"AAPL"`
	Period     string `json:"period" example:"1mo"`
	State      string `json:"state" example:"done"`
	Written    int    `json:"written" example:"21"`
}

// ExistsResponse is returned by GET /api/v1/instruments/{instrument}/exists.
type ExistsResponse struct {
	Instrument string `json:"instrument" example:"AAPL"`
	Period     string `json:"period" example:"1mo"`
	Exists     bool   `json:"exists" example:"true"`
}

// InstrumentsResponse lists every instrument with at least one stored sample.
type InstrumentsResponse struct {
	Instruments []string `json:"instruments"`
}
