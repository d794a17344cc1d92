package models

import (
	"fmt"
	"strings"
	"time"
)

// Period is a short look-back token such as "1mo" or "1y", resolved relative to "now".
type Period string

const (
	Period5D  Period = "5d"
	Period1M  Period = "1mo"
	Period3M  Period = "3mo"
	Period6M  Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	Period10Y Period = "10y"
	PeriodYTD Period = "ytd"
)

// Periods lists every accepted token in ascending length.
var Periods = []Period{Period5D, Period1M, Period3M, Period6M, Period1Y, Period2Y, Period5Y, Period10Y, PeriodYTD}

// DateRange is an inclusive [Start, End] calendar range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls within the range, bounds included.
func (r DateRange) Contains(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// ParsePeriod validates a period token.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid period %q", s)
}

// Resolve converts the token into a concrete date range ending on now's calendar date.
func (p Period) Resolve(now time.Time) (DateRange, error) {
	end := DateOf(now.UTC())
	var start time.Time
	switch p {
	case Period5D:
		start = end.AddDate(0, 0, -5)
	case Period1M:
		start = end.AddDate(0, -1, 0)
	case Period3M:
		start = end.AddDate(0, -3, 0)
	case Period6M:
		start = end.AddDate(0, -6, 0)
	case Period1Y:
		start = end.AddDate(-1, 0, 0)
	case Period2Y:
		start = end.AddDate(-2, 0, 0)
	case Period5Y:
		start = end.AddDate(-5, 0, 0)
	case Period10Y:
		start = end.AddDate(-10, 0, 0)
	case PeriodYTD:
		start = time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return DateRange{}, fmt.Errorf("invalid period %q", string(p))
	}
	return DateRange{Start: start, End: end}, nil
}
