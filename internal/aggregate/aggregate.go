// Package aggregate resamples daily price samples into coarser buckets.
package aggregate

import (
	"fmt"
	"time"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

// NoDataError is returned when the requested range holds no samples.
type NoDataError struct {
	Instrument string
	Start      time.Time
	End        time.Time
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data found for %s between %s and %s",
		e.Instrument, e.Start.Format(models.DateLayout), e.End.Format(models.DateLayout))
}

// UnsupportedGranularityError is returned for granularities finer than the stored resolution.
type UnsupportedGranularityError struct {
	Granularity models.Granularity
}

func (e *UnsupportedGranularityError) Error() string {
	return fmt.Sprintf("granularity %q is not supported: stored samples are daily", string(e.Granularity))
}

// BucketStart returns the first day of the bucket that d belongs to.
//
//   - daily:   the date itself
//   - weekly:  Monday of the ISO week
//   - monthly: the 1st of the calendar month
func BucketStart(d time.Time, g models.Granularity) (time.Time, error) {
	d = models.DateOf(d)
	switch g {
	case models.Daily:
		return d, nil
	case models.Weekly:
		// Weekday: Sunday=0 ... Saturday=6; ISO weeks start on Monday.
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset), nil
	case models.Monthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case models.Hourly:
		return time.Time{}, &UnsupportedGranularityError{Granularity: g}
	default:
		return time.Time{}, fmt.Errorf("unknown granularity %q", string(g))
	}
}

// Aggregate groups samples into buckets of the given granularity and returns one point per
// non-empty bucket in ascending order. Samples must already be sorted by date.
//
// Parameters:
//   - instrument, r: used only to describe the request in a NoDataError.
//   - samples: ascending daily samples.
//   - g: bucket width.
//
// Returns:
//   - *NoDataError when samples is empty.
//   - *UnsupportedGranularityError for hourly.
func Aggregate(instrument string, r models.DateRange, samples []models.PriceSample, g models.Granularity) ([]models.AggregatedPoint, error) {
	if _, err := BucketStart(time.Time{}, g); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, &NoDataError{Instrument: instrument, Start: r.Start, End: r.End}
	}

	type bucket struct {
		start    time.Time
		sum      float64
		count    int
		min, max float64
	}

	var buckets []*bucket
	index := make(map[time.Time]*bucket)

	for _, s := range samples {
		key, _ := BucketStart(s.Date, g)
		b, ok := index[key]
		if !ok {
			b = &bucket{start: key, min: s.Close, max: s.Close}
			index[key] = b
			buckets = append(buckets, b)
		}
		b.sum += s.Close
		b.count++
		if s.Close < b.min {
			b.min = s.Close
		}
		if s.Close > b.max {
			b.max = s.Close
		}
	}

	out := make([]models.AggregatedPoint, 0, len(buckets))
	for _, b := range buckets {
		value := b.sum / float64(b.count)
		if b.count == 1 {
			value = b.min
		}
		out = append(out, models.AggregatedPoint{
			Instrument:  instrument,
			PeriodStart: b.start,
			Value:       value,
			SampleCount: b.count,
			Min:         b.min,
			Max:         b.max,
		})
	}
	return out, nil
}
