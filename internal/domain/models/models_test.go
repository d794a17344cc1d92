package models

import (
	"testing"
	"time"
)

func TestParseGranularity(t *testing.T) {
	cases := []struct {
		in      string
		want    Granularity
		wantErr bool
	}{
		{in: "daily", want: Daily},
		{in: " Weekly ", want: Weekly},
		{in: "MONTHLY", want: Monthly},
		{in: "hourly", want: Hourly},
		{in: "yearly", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseGranularity(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q err=%v, want %q", got, err, tc.want)
			}
		})
	}
}

func TestPeriodResolve(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 4, 5, 0, time.UTC)
	cases := []struct {
		token string
		start string
	}{
		{token: "5d", start: "2024-03-26"},
		{token: "1mo", start: "2024-03-02"}, // Feb 31 normalizes forward
		{token: "3mo", start: "2023-12-31"},
		{token: "1y", start: "2023-03-31"},
		{token: "5y", start: "2019-03-31"},
		{token: "ytd", start: "2024-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			p, err := ParsePeriod(tc.token)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			r, err := p.Resolve(now)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got := r.Start.Format(DateLayout); got != tc.start {
				t.Fatalf("start=%s want %s", got, tc.start)
			}
			if got := r.End.Format(DateLayout); got != "2024-03-31" {
				t.Fatalf("end=%s", got)
			}
		})
	}
}

func TestParsePeriod_Invalid(t *testing.T) {
	if _, err := ParsePeriod("7w"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Period("bogus").Resolve(time.Now()); err == nil {
		t.Fatalf("expected resolve error")
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)}
	if !r.Contains(time.Date(2023, 1, 31, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("end bound must be inclusive")
	}
	if r.Contains(time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date before start must be excluded")
	}
}

func TestSamplePatch(t *testing.T) {
	if !(SamplePatch{}).IsEmpty() {
		t.Fatalf("zero patch must be empty")
	}
	c := 10.5
	name := "Apple Inc."
	p := SamplePatch{Close: &c, Name: &name}
	if p.IsEmpty() {
		t.Fatalf("patch with fields must not be empty")
	}
	s := p.Apply(PriceSample{Instrument: "AAPL", Close: 1})
	if s.Close != 10.5 || s.Name.String != name || !s.Name.Valid {
		t.Fatalf("unexpected patched sample %+v", s)
	}
	if s.Volume.Valid {
		t.Fatalf("untouched field became valid")
	}
}

func TestNormalizeInstrumentAndDateOf(t *testing.T) {
	if got := NormalizeInstrument("  aapl "); got != "AAPL" {
		t.Fatalf("got %q", got)
	}
	d := DateOf(time.Date(2023, 5, 6, 23, 59, 0, 0, time.FixedZone("X", -3*3600)))
	if d.Format(time.RFC3339) != "2023-05-06T00:00:00Z" {
		t.Fatalf("got %s", d.Format(time.RFC3339))
	}
}
