package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestCacheKey(t *testing.T) {
	got := cacheKey("AAPL", "/api/v1/instruments/aapl/aggregate", "granularity=weekly")
	want := "cache:GET:AAPL:/api/v1/instruments/aapl/aggregate?granularity=weekly"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResponseCache_NilClientPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	calls := 0
	r.GET("/api/v1/instruments/:instrument/prices", ResponseCache(nil, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/instruments/aapl/prices", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("code=%d", w.Code)
		}
		if w.Header().Get(CacheHeader) != "" {
			t.Fatalf("nil client should not set %s", CacheHeader)
		}
	}
	if calls != 2 {
		t.Fatalf("handler calls=%d, want 2", calls)
	}
}

func TestResponseCache_UnreachableRedisFallsThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	r := gin.New()
	cache := ResponseCache(client, time.Minute)
	r.GET("/api/v1/instruments/:instrument/prices", cache, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.DELETE("/api/v1/instruments/:instrument", cache, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/instruments/aapl/prices", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET code=%d", w.Code)
	}
	if got := w.Header().Get(CacheHeader); got != "MISS" {
		t.Fatalf("%s=%q, want MISS", CacheHeader, got)
	}
	if w.Body.String() != `{"ok":true}` {
		t.Fatalf("body=%q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/instruments/aapl", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE code=%d", w.Code)
	}
}

func TestResponseCache_KeysOnConcretePath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	r := gin.New()
	cache := ResponseCache(client, time.Minute)
	calls := map[string]int{}
	r.GET("/api/v1/instruments/:instrument/prices/:date", cache, func(c *gin.Context) {
		calls[c.Param("date")]++
		c.JSON(http.StatusOK, gin.H{"date": c.Param("date")})
	})
	r.PATCH("/api/v1/instruments/:instrument/prices/:date", cache, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"date": c.Param("date")})
	})

	steps := []struct {
		method    string
		date      string
		wantCache string
	}{
		{http.MethodGet, "2023-01-02", "MISS"},
		{http.MethodGet, "2023-01-03", "MISS"},
		{http.MethodGet, "2023-01-02", "HIT"},
		{http.MethodGet, "2023-01-03", "HIT"},
		{http.MethodPatch, "2023-01-02", ""},
		{http.MethodGet, "2023-01-02", "MISS"},
	}
	for i, st := range steps {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(st.method, "/api/v1/instruments/aapl/prices/"+st.date, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("step %d: code=%d", i, w.Code)
		}
		if got := w.Header().Get(CacheHeader); got != st.wantCache {
			t.Fatalf("step %d: %s=%q, want %q", i, CacheHeader, got, st.wantCache)
		}
		if want := `{"date":"` + st.date + `"}`; w.Body.String() != want {
			t.Fatalf("step %d: body=%q, want %q", i, w.Body.String(), want)
		}
	}
	if calls["2023-01-02"] != 2 || calls["2023-01-03"] != 1 {
		t.Fatalf("handler calls=%v", calls)
	}
}
