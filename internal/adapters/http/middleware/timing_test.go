package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flightlog/internal/adapters/http/perf"
)

func TestTiming_Records(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		handler    http.HandlerFunc
		wantStatus int
		wantLabel  string // "" means nothing recorded
	}{
		{
			name:       "explicit status",
			method:     "POST",
			path:       "/add-flight",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) },
			wantStatus: http.StatusCreated,
			wantLabel:  "POST /add-flight",
		},
		{
			name:       "implicit 200 on write",
			method:     "GET",
			path:       "/signup",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("hello")) },
			wantStatus: http.StatusOK,
			wantLabel:  "GET /signup",
		},
		{
			name:       "not found still recorded",
			method:     "GET",
			path:       "/missing",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantStatus: http.StatusNotFound,
			wantLabel:  "GET /missing",
		},
		{
			name:       "ids collapse",
			method:     "POST",
			path:       "/flights/7/delete",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: http.StatusOK,
			wantLabel:  "POST /flights/{id}/delete",
		},
		{
			name:       "static skipped",
			method:     "GET",
			path:       "/static/css/app.css",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := perf.NewCollector(10)
			rr := httptest.NewRecorder()
			Timing(collector)(tt.handler).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
			if tt.wantLabel == "" {
				if collector.TotalRecorded() != 0 {
					t.Errorf("TotalRecorded = %d, want 0", collector.TotalRecorded())
				}
				if rr.Header().Get("X-Request-ID") != "" {
					t.Error("static response carries X-Request-ID")
				}
				return
			}
			if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != tt.wantLabel {
				t.Fatalf("SlowestPaths = %+v, want one %q", snap.SlowestPaths, tt.wantLabel)
			}
			if snap.SlowestPaths[0].AvgMs < 0 {
				t.Errorf("AvgMs = %v", snap.SlowestPaths[0].AvgMs)
			}
			if rr.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
			if got := rr.Header().Get("Server-Timing"); !strings.HasPrefix(got, "app;dur=") {
				t.Errorf("Server-Timing = %q", got)
			}
		})
	}
}

func TestTiming_NilCollector(t *testing.T) {
	rr := httptest.NewRecorder()
	Timing(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest("GET", "/stats", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

// TestTiming_PanicStillRecords verifies the entry is recorded while the panic propagates.
func TestTiming_PanicStillRecords(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("panic swallowed")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/add-flight", nil))
}

// TestTiming_PooledWriterResets verifies a reused writer does not carry the
// previous request's status.
func TestTiming_PooledWriterResets(t *testing.T) {
	collector := perf.NewCollector(10)
	failing := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	silent := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/stats", nil))
	silent.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	for _, p := range collector.Snapshot(time.Now().Add(-time.Minute), 10).SlowestPaths {
		if p.Path == "GET /" && p.ErrorCount != 0 {
			t.Errorf("GET / counted %d errors", p.ErrorCount)
		}
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/":                   "/",
		"/flights/42/delete":  "/flights/{id}/delete",
		"/flights/export.csv": "/flights/export.csv",
		"/stats":              "/stats",
		"/notifications/6f1c2a4e-3b1d-4c5e-9a7b-1d2e3f4a5b6c/dismiss": "/notifications/{id}/dismiss",
	}
	for in, want := range tests {
		if got := routeLabel(in); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func BenchmarkTiming(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/stats", nil))
		}
	})
}
