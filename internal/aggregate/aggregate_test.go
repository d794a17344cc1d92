package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func samples(start time.Time, closes ...float64) []models.PriceSample {
	out := make([]models.PriceSample, 0, len(closes))
	for i, c := range closes {
		out = append(out, models.PriceSample{Instrument: "AAPL", Date: start.AddDate(0, 0, i), Close: c})
	}
	return out
}

func TestAggregate_TableDriven(t *testing.T) {
	rng := models.DateRange{Start: day(2023, 1, 1), End: day(2023, 3, 31)}

	cases := []struct {
		name       string
		in         []models.PriceSample
		g          models.Granularity
		wantStarts []string
		wantValues []float64
		wantCounts []int
	}{
		{
			name:       "daily keeps each close",
			in:         samples(day(2023, 1, 1), 150.0, 152.0),
			g:          models.Daily,
			wantStarts: []string{"2023-01-01", "2023-01-02"},
			wantValues: []float64{150.0, 152.0},
			wantCounts: []int{1, 1},
		},
		{
			name:       "weekly mean over one ISO week",
			in:         samples(day(2023, 1, 2), 100, 102, 104, 106, 108), // Mon..Fri
			g:          models.Weekly,
			wantStarts: []string{"2023-01-02"},
			wantValues: []float64{104.0},
			wantCounts: []int{5},
		},
		{
			name:       "weekly splits on monday and sunday belongs to prior week",
			in:         samples(day(2023, 1, 1), 10, 20, 30), // Sun, Mon, Tue
			g:          models.Weekly,
			wantStarts: []string{"2022-12-26", "2023-01-02"},
			wantValues: []float64{10, 25},
			wantCounts: []int{1, 2},
		},
		{
			name: "monthly buckets",
			in: []models.PriceSample{
				{Date: day(2023, 1, 30), Close: 1},
				{Date: day(2023, 1, 31), Close: 3},
				{Date: day(2023, 2, 1), Close: 7},
			},
			g:          models.Monthly,
			wantStarts: []string{"2023-01-01", "2023-02-01"},
			wantValues: []float64{2, 7},
			wantCounts: []int{2, 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Aggregate("AAPL", rng, tc.in, tc.g)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if len(out) != len(tc.wantStarts) {
				t.Fatalf("points: want %d got %d (%+v)", len(tc.wantStarts), len(out), out)
			}
			for i, p := range out {
				if got := p.PeriodStart.Format(models.DateLayout); got != tc.wantStarts[i] {
					t.Fatalf("point %d start=%s want %s", i, got, tc.wantStarts[i])
				}
				if p.Value != tc.wantValues[i] {
					t.Fatalf("point %d value=%v want %v", i, p.Value, tc.wantValues[i])
				}
				if p.SampleCount != tc.wantCounts[i] {
					t.Fatalf("point %d count=%d want %d", i, p.SampleCount, tc.wantCounts[i])
				}
				if p.Instrument != "AAPL" {
					t.Fatalf("instrument=%q", p.Instrument)
				}
			}
		})
	}
}

func TestAggregate_SingleSampleKeepsCloseExactly(t *testing.T) {
	in := []models.PriceSample{{Date: day(2023, 6, 1), Close: 0.1 + 0.2}}
	out, err := Aggregate("X", models.DateRange{}, in, models.Monthly)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out[0].Value != in[0].Close || out[0].Min != in[0].Close || out[0].Max != in[0].Close {
		t.Fatalf("single sample must pass through unchanged: %+v", out[0])
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	rng := models.DateRange{Start: day(2023, 1, 1), End: day(2023, 1, 31)}
	_, err := Aggregate("AAPL", rng, nil, models.Daily)
	var nd *NoDataError
	if !errors.As(err, &nd) {
		t.Fatalf("want NoDataError, got %v", err)
	}
	if nd.Instrument != "AAPL" || !nd.Start.Equal(rng.Start) || !nd.End.Equal(rng.End) {
		t.Fatalf("unexpected error fields: %+v", nd)
	}
	want := "no data found for AAPL between 2023-01-01 and 2023-01-31"
	if nd.Error() != want {
		t.Fatalf("message=%q want %q", nd.Error(), want)
	}
}

func TestAggregate_HourlyRejected(t *testing.T) {
	_, err := Aggregate("AAPL", models.DateRange{}, samples(day(2023, 1, 2), 1), models.Hourly)
	var ug *UnsupportedGranularityError
	if !errors.As(err, &ug) {
		t.Fatalf("want UnsupportedGranularityError, got %v", err)
	}
	// rejected even with no samples, so callers never see NoDataError for a bad request
	_, err = Aggregate("AAPL", models.DateRange{}, nil, models.Hourly)
	if !errors.As(err, &ug) {
		t.Fatalf("want UnsupportedGranularityError for empty input, got %v", err)
	}
}

func TestAggregate_MinMax(t *testing.T) {
	out, err := Aggregate("AAPL", models.DateRange{}, samples(day(2023, 1, 2), 5, 1, 9), models.Weekly)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out[0].Min != 1 || out[0].Max != 9 || out[0].Value != 5 {
		t.Fatalf("unexpected point %+v", out[0])
	}
}

func TestBucketStart_UnknownGranularity(t *testing.T) {
	if _, err := BucketStart(day(2023, 1, 1), models.Granularity("yearly")); err == nil {
		t.Fatalf("expected error")
	}
}
