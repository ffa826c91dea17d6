package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/username/stationetl/src/logger"
)

type fakeReplacer struct {
	act, new string
	rows     int64
	err      error
	calls    int
}

func (f *fakeReplacer) ReplaceObservatoryID(_ context.Context, actID, newID string) (int64, error) {
	f.calls++
	f.act, f.new = actID, newID
	return f.rows, f.err
}

type keyChecker string

func (k keyChecker) Verify(candidate string) bool { return candidate == string(k) }

func newTestRouter(store *fakeReplacer, limiter *rate.Limiter) http.Handler {
	h := NewCompetitorHandler(store, keyChecker("good"), logger.Discard())
	return NewRouter(h, prometheus.NewRegistry(), limiter, logger.Discard())
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestReplaceObservatoryID(t *testing.T) {
	store := &fakeReplacer{rows: 3}
	router := newTestRouter(store, rate.NewLimiter(rate.Inf, 1))

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"success", "/updateConcorrenteOss?newOssId=300&actOssId=100&secretKey=good", http.StatusOK},
		{"prefixed params", "/updateConcorrenteOss?x_newOssId=300&x_actOssId=100&x_secretKey=good", http.StatusOK},
		{"missing param", "/updateConcorrenteOss?newOssId=300&secretKey=good", http.StatusBadRequest},
		{"bad secret", "/updateConcorrenteOss?newOssId=300&actOssId=100&secretKey=bad", http.StatusForbidden},
		{"bad id", "/updateConcorrenteOss?newOssId=3%3B00&actOssId=100&secretKey=good", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(router, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
	if store.calls != 2 || store.act != "100" || store.new != "300" {
		t.Fatalf("store = %+v", store)
	}
	rec := get(router, "/updateConcorrenteOss?newOssId=300&actOssId=100&secretKey=good")
	if !strings.Contains(rec.Body.String(), "<b>3</b>") || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("page = %s", rec.Body.String())
	}
}

func TestReplaceObservatoryIDStoreError(t *testing.T) {
	router := newTestRouter(&fakeReplacer{err: errors.New("locked")}, rate.NewLimiter(rate.Inf, 1))
	rec := get(router, "/updateConcorrenteOss?newOssId=300&actOssId=100&secretKey=good")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(&fakeReplacer{}, rate.NewLimiter(0, 1))
	target := "/updateConcorrenteOss?newOssId=300&actOssId=100&secretKey=good"
	if rec := get(router, target); rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}
	if rec := get(router, target); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(&fakeReplacer{}, rate.NewLimiter(rate.Inf, 1))
	if rec := get(router, "/"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "running") {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
	if rec := get(router, "/metrics"); rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if rec := get(router, "/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path = %d", rec.Code)
	}
}
