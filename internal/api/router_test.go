package api

import (
	"net/http"
	"testing"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	r := newTestRouter(&fakeService{points: []models.AggregatedPoint{}})

	w := do(r, http.MethodGet, "/api/v1/instruments/AAPL/aggregate?start=2023-01-01&end=2023-01-31", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	w = do(r, http.MethodGet, "/api/v1/unknown", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
}

func TestNewRouter_PanicIsRecovered(t *testing.T) {
	// a nil service panics inside the handler
	h := NewHandler(nil)
	r := NewRouter(h, RouterOptions{})
	w := do(r, http.MethodGet, "/api/v1/instruments", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
