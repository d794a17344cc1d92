package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dreamjorge/StockStreamDB/internal/aggregate"
	"github.com/dreamjorge/StockStreamDB/internal/domain/dto"
	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/fetcher"
	"github.com/dreamjorge/StockStreamDB/internal/middleware"
	"github.com/dreamjorge/StockStreamDB/internal/service"
	"github.com/dreamjorge/StockStreamDB/internal/storage"
)

const defaultPeriod = models.Period1M

// Handler exposes the price service over HTTP.
//
// Responsibilities:
//   - Validate path and query parameters
//   - Call the service with the request context
//   - Map typed errors onto HTTP status codes
type Handler struct {
	svc service.PriceService
	now func() time.Time
}

// NewHandler builds a Handler around svc.
func NewHandler(svc service.PriceService) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// FetchInstrument godoc
// @Summary      Fetch and store history
// @Description  Fetches the period from the provider and stores it. Skipped when the period already has data, unless force=true.
// @Tags         instruments
// @Produce      json
// @Param        instrument  path      string  true   "Ticker symbol" example(AAPL)
// @Param        period      query     string  false  "Look-back period (5d,1mo,3mo,6mo,1y,2y,5y,10y,ytd)" default(1mo)
// @Param        force       query     bool    false  "Refetch even when data exists"
// @Success      200         {object}  dto.FetchResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      502         {object}  dto.ErrorResponse  "Provider unavailable after retries"
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument}/fetch [post]
func (h *Handler) FetchInstrument(c *gin.Context) {
	instrument := models.NormalizeInstrument(c.Param("instrument"))
	period, err := models.ParsePeriod(c.DefaultQuery("period", string(defaultPeriod)))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid period", err)
		return
	}
	force, err := parseBool(c.Query("force"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid force flag", err)
		return
	}

	run := h.svc.FetchAndStore
	if force {
		run = h.svc.Refresh
	}
	res, err := run(c.Request.Context(), instrument, period)
	if err != nil {
		h.fail(c, "fetch failed", err)
		return
	}

	c.JSON(http.StatusOK, dto.FetchResponse{
		Instrument: res.Instrument,
		Period:     string(res.Period),
		State:      string(res.State),
		Written:    res.Written,
	})
}

// CheckExists godoc
// @Summary      Check stored coverage
// @Description  Reports whether at least one sample is stored inside the period window.
// @Tags         instruments
// @Produce      json
// @Param        instrument  path      string  true   "Ticker symbol" example(AAPL)
// @Param        period      query     string  false  "Look-back period" default(1mo)
// @Success      200         {object}  dto.ExistsResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument}/exists [get]
func (h *Handler) CheckExists(c *gin.Context) {
	instrument := models.NormalizeInstrument(c.Param("instrument"))
	period, err := models.ParsePeriod(c.DefaultQuery("period", string(defaultPeriod)))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid period", err)
		return
	}

	exists, err := h.svc.CheckExists(c.Request.Context(), instrument, period)
	if err != nil {
		h.fail(c, "existence check failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.ExistsResponse{Instrument: instrument, Period: string(period), Exists: exists})
}

// GetAggregate godoc
// @Summary      Aggregated closes
// @Description  Buckets stored samples by granularity and returns the mean close per bucket. Without start/end the period window is used.
// @Tags         instruments
// @Produce      json
// @Param        instrument   path      string  true   "Ticker symbol" example(AAPL)
// @Param        start        query     string  false  "Start date YYYY-MM-DD" example(2023-01-01)
// @Param        end          query     string  false  "End date YYYY-MM-DD" example(2023-03-31)
// @Param        period       query     string  false  "Window used when start/end are omitted" default(1mo)
// @Param        granularity  query     string  false  "daily, weekly or monthly" default(daily)
// @Success      200          {object}  dto.AggregateResponse
// @Failure      400          {object}  dto.ErrorResponse
// @Failure      404          {object}  dto.ErrorResponse  "No data in range"
// @Failure      500          {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument}/aggregate [get]
func (h *Handler) GetAggregate(c *gin.Context) {
	instrument := models.NormalizeInstrument(c.Param("instrument"))
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}
	g, err := models.ParseGranularity(c.DefaultQuery("granularity", string(models.Daily)))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid granularity", err)
		return
	}

	points, err := h.svc.GetAggregated(c.Request.Context(), instrument, rng.Start, rng.End, g)
	if err != nil {
		h.fail(c, "aggregation failed", err)
		return
	}

	c.JSON(http.StatusOK, dto.AggregateResponse{
		Instrument:  instrument,
		Start:       rng.Start.Format(models.DateLayout),
		End:         rng.End.Format(models.DateLayout),
		Granularity: string(g),
		Points:      points,
	})
}

// GetPrices godoc
// @Summary      Stored samples
// @Description  Returns the stored daily samples in [start, end], ascending by date.
// @Tags         instruments
// @Produce      json
// @Param        instrument  path      string  true   "Ticker symbol" example(AAPL)
// @Param        start       query     string  false  "Start date YYYY-MM-DD"
// @Param        end         query     string  false  "End date YYYY-MM-DD"
// @Param        period      query     string  false  "Window used when start/end are omitted" default(1mo)
// @Success      200         {object}  dto.PricesResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument}/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	instrument := models.NormalizeInstrument(c.Param("instrument"))
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}

	samples, err := h.svc.GetRange(c.Request.Context(), instrument, rng.Start, rng.End)
	if err != nil {
		h.fail(c, "failed to read prices", err)
		return
	}
	if samples == nil {
		samples = []models.PriceSample{}
	}

	c.JSON(http.StatusOK, dto.PricesResponse{
		Instrument: instrument,
		Start:      rng.Start.Format(models.DateLayout),
		End:        rng.End.Format(models.DateLayout),
		Count:      len(samples),
		Samples:    samples,
	})
}

// GetSample godoc
// @Summary      One stored sample
// @Tags         instruments
// @Produce      json
// @Param        instrument  path      string  true  "Ticker symbol" example(AAPL)
// @Param        date        path      string  true  "Date YYYY-MM-DD" example(2023-01-03)
// @Success      200         {object}  models.PriceSample
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument}/prices/{date} [get]
func (h *Handler) GetSample(c *gin.Context) {
	instrument := models.NormalizeInstrument(c.Param("instrument"))
	date, ok := pathDate(c)
	if !ok {
		return
	}

	s, err := h.svc.GetSample(c.Request.Context(), instrument, date)
	if err != nil {
		h.fail(c, "failed to read sample", err)
		return
	}
	if s == nil {
		middleware.AbortWithError(c, http.StatusNotFound, "sample not found", nil)
		return
	}
	c.JSON(http.StatusOK, s)
}

// CreateSample godoc
// @Summary      Add one sample
// @Description  Stores a sample for a date that has none. An existing date is a conflict; use PATCH to change it.
// @Tags         instruments
// @Accept       json
// @Produce      json
// @Param        instrument  path      string                   true  "Ticker symbol" example(AAPL)
// @Param        sample      body      dto.CreateSampleRequest  true  "Sample to store"
// @Success      201         {object}  models.PriceSample
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      409         {object}  dto.ErrorResponse  "Sample already exists"
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument}/prices [post]
func (h *Handler) CreateSample(c *gin.Context) {
	instrument := models.NormalizeInstrument(c.Param("instrument"))
	var req dto.CreateSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid sample body", err)
		return
	}
	sample, err := req.ToSample(instrument)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid sample body", err)
		return
	}

	if err := h.svc.CreateSample(c.Request.Context(), sample); err != nil {
		h.fail(c, "create failed", err)
		return
	}
	c.JSON(http.StatusCreated, sample)
}

// UpdateSample godoc
// @Summary      Patch a stored sample
// @Description  Updates only the fields present in the body.
// @Tags         instruments
// @Accept       json
// @Produce      json
// @Param        instrument  path      string              true  "Ticker symbol" example(AAPL)
// @Param        date        path      string              true  "Date YYYY-MM-DD" example(2023-01-03)
// @Param        patch       body      models.SamplePatch  true  "Fields to change"
// @Success      200         {object}  models.PriceSample
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument}/prices/{date} [patch]
func (h *Handler) UpdateSample(c *gin.Context) {
	instrument := models.NormalizeInstrument(c.Param("instrument"))
	date, ok := pathDate(c)
	if !ok {
		return
	}
	var patch models.SamplePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid patch body", err)
		return
	}

	ctx := c.Request.Context()
	updated, err := h.svc.UpdateSample(ctx, instrument, date, patch)
	if err != nil {
		h.fail(c, "update failed", err)
		return
	}
	if !updated {
		middleware.AbortWithError(c, http.StatusNotFound, "sample not found", nil)
		return
	}

	s, err := h.svc.GetSample(ctx, instrument, date)
	if err != nil || s == nil {
		h.fail(c, "failed to read updated sample", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// DeleteSample godoc
// @Summary      Delete one stored sample
// @Tags         instruments
// @Param        instrument  path  string  true  "Ticker symbol" example(AAPL)
// @Param        date        path  string  true  "Date YYYY-MM-DD" example(2023-01-03)
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument}/prices/{date} [delete]
func (h *Handler) DeleteSample(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	h.delete(c, &date)
}

// DeleteInstrument godoc
// @Summary      Delete every stored sample of an instrument
// @Tags         instruments
// @Param        instrument  path  string  true  "Ticker symbol" example(AAPL)
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/v1/instruments/{instrument} [delete]
func (h *Handler) DeleteInstrument(c *gin.Context) {
	h.delete(c, nil)
}

func (h *Handler) delete(c *gin.Context, date *time.Time) {
	instrument := models.NormalizeInstrument(c.Param("instrument"))
	deleted, err := h.svc.DeleteSamples(c.Request.Context(), instrument, date)
	if err != nil {
		h.fail(c, "delete failed", err)
		return
	}
	if !deleted {
		middleware.AbortWithError(c, http.StatusNotFound, "nothing to delete", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListInstruments godoc
// @Summary      Stored instruments
// @Tags         instruments
// @Produce      json
// @Success      200  {object}  dto.InstrumentsResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/v1/instruments [get]
func (h *Handler) ListInstruments(c *gin.Context) {
	ids, err := h.svc.Instruments(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list instruments", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, dto.InstrumentsResponse{Instruments: ids})
}

// dateRange reads start/end, falling back to the period window for whichever is missing.
// It writes a 400 and returns false on bad input.
func (h *Handler) dateRange(c *gin.Context) (models.DateRange, bool) {
	period, err := models.ParsePeriod(c.DefaultQuery("period", string(defaultPeriod)))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid period", err)
		return models.DateRange{}, false
	}
	rng, err := period.Resolve(h.now())
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid period", err)
		return models.DateRange{}, false
	}

	if s := c.Query("start"); s != "" {
		if rng.Start, err = models.ParseDate(s); err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid start format, expected YYYY-MM-DD", err)
			return models.DateRange{}, false
		}
	}
	if s := c.Query("end"); s != "" {
		if rng.End, err = models.ParseDate(s); err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid end format, expected YYYY-MM-DD", err)
			return models.DateRange{}, false
		}
	}
	if rng.Start.After(rng.End) {
		middleware.AbortWithError(c, http.StatusBadRequest, "start must not be after end", service.ErrInvalidRange)
		return models.DateRange{}, false
	}
	return rng, true
}

// fail maps a service error onto a status code and writes it.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	var (
		noData    *aggregate.NoDataError
		badGran   *aggregate.UnsupportedGranularityError
		exhausted *fetcher.FetchExhaustedError
		duplicate *storage.DuplicateKeyError
	)
	switch {
	case err == nil:
		middleware.AbortWithError(c, http.StatusInternalServerError, msg, nil)
	case errors.As(err, &noData):
		middleware.AbortWithError(c, http.StatusNotFound, "no data found", err)
	case errors.As(err, &badGran):
		middleware.AbortWithError(c, http.StatusBadRequest, "unsupported granularity", err)
	case errors.As(err, &exhausted):
		middleware.AbortWithError(c, http.StatusBadGateway, "provider unavailable", err)
	case errors.As(err, &duplicate):
		middleware.AbortWithError(c, http.StatusConflict, "sample already exists", err)
	case errors.Is(err, service.ErrEmptyInstrument),
		errors.Is(err, service.ErrMissingDate),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrEmptyPatch):
		middleware.AbortWithError(c, http.StatusBadRequest, msg, err)
	case errors.Is(err, context.DeadlineExceeded):
		middleware.AbortWithError(c, http.StatusGatewayTimeout, "request timed out", err)
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, msg, err)
	}
}

func pathDate(c *gin.Context) (time.Time, bool) {
	d, err := models.ParseDate(c.Param("date"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD", err)
		return time.Time{}, false
	}
	return d, true
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected true or false, got %q", s)
	}
	return b, nil
}
