package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
)

const defaultBatchSize = 500

// expectedHeaders is the column layout of a Yahoo Finance "Download" history file.
// If the header doesn't match EXACTLY (order + count), the import fails.
var expectedHeaders = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// Importer persists a batch of samples.
type Importer interface {
	Import(ctx context.Context, samples []models.PriceSample) (int, error)
}

// ImportCSV backfills one instrument from a history CSV file.
//
// It fails on:
//   - header not matching expected order/length
//   - unparseable numbers or dates
//   - a row carrying prices but no close
//
// It tolerates:
//   - empty or "null" cells (stored as absent, never zero)
//   - rows where every price cell is empty (market holidays); they are skipped
func ImportCSV(ctx context.Context, path, instrument string, imp Importer, batch int) (int, error) {
	id := models.NormalizeInstrument(instrument)
	if id == "" {
		return 0, fmt.Errorf("instrument is required")
	}
	if batch <= 0 {
		batch = defaultBatchSize
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // checked explicitly
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(expectedHeaders) {
		return 0, fmt.Errorf("invalid header length: expected %d, got %d", len(expectedHeaders), len(header))
	}
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) != expectedHeaders[i] {
			return 0, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, expectedHeaders[i], h)
		}
	}

	buf := make([]models.PriceSample, 0, batch)
	lineNumber := 1
	total := 0

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		n, err := imp.Import(ctx, buf)
		if err != nil {
			return err
		}
		total += n
		buf = buf[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read line after %d: %w", lineNumber, err)
		}
		lineNumber++

		if len(rec) != len(expectedHeaders) {
			return total, fmt.Errorf("invalid column count on line %d: expected %d got %d", lineNumber, len(expectedHeaders), len(rec))
		}

		s, ok, err := recordToSample(id, rec)
		if err != nil {
			return total, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if !ok {
			continue
		}

		buf = append(buf, s)
		if len(buf) >= batch {
			if err := flush(); err != nil {
				return total, fmt.Errorf("flush batch ending line %d: %w", lineNumber, err)
			}
		}
	}

	if err := flush(); err != nil {
		return total, fmt.Errorf("final flush: %w", err)
	}

	logger.L().Info().Str("instrument", id).Str("file", path).Int("rows", total).Msg("csv import done")
	return total, nil
}

// recordToSample converts one CSV record (already validated length==7).
// ok is false for rows with no price data at all.
//
//	0 Date       → Date (YYYY-MM-DD)
//	1 Open       → Open
//	2 High       → High
//	3 Low        → Low
//	4 Close      → Close (required when any price is present)
//	5 Adj Close  → ignored
//	6 Volume     → Volume
func recordToSample(id string, rec []string) (s models.PriceSample, ok bool, err error) {
	date, err := models.ParseDate(rec[0])
	if err != nil {
		return s, false, fmt.Errorf("invalid Date: %v", err)
	}

	var prices [4]null.Float
	for i := range prices {
		if prices[i], err = parseFloatCell(rec[i+1]); err != nil {
			return s, false, fmt.Errorf("invalid %s: %v", expectedHeaders[i+1], err)
		}
	}
	volume, err := parseIntCell(rec[6])
	if err != nil {
		return s, false, fmt.Errorf("invalid Volume: %v", err)
	}

	open, high, low, closeP := prices[0], prices[1], prices[2], prices[3]
	if !open.Valid && !high.Valid && !low.Valid && !closeP.Valid {
		return s, false, nil
	}
	if !closeP.Valid {
		return s, false, fmt.Errorf("missing Close")
	}

	return models.PriceSample{
		Instrument: id,
		Date:       date,
		Open:       open,
		High:       high,
		Low:        low,
		Close:      closeP.Float64,
		Volume:     volume,
	}, true, nil
}

func isEmptyCell(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "null")
}

func parseFloatCell(s string) (null.Float, error) {
	if isEmptyCell(s) {
		return null.Float{}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return null.Float{}, err
	}
	return null.FloatFrom(v), nil
}

func parseIntCell(s string) (null.Int, error) {
	if isEmptyCell(s) {
		return null.Int{}, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return null.Int{}, err
	}
	if v < 0 {
		return null.Int{}, fmt.Errorf("negative volume %d", v)
	}
	return null.IntFrom(v), nil
}
