package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vigil-hq/vigil/pkg/config"
)

type staticReadiness struct{ rules int }

func (s staticReadiness) Len() int { return s.rules }

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestHealthz tests the liveness endpoint.
func TestHealthz(t *testing.T) {
	srv := New(testServerConfig(), Options{Logger: testLogger()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz body = %q", rec.Body.String())
	}
}

// TestReadyz tests the readiness probe against rule availability.
func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		readiness  Readiness
		wantStatus int
		wantBody   string
	}{
		{
			name:       "rules loaded",
			readiness:  staticReadiness{rules: 7},
			wantStatus: http.StatusOK,
			wantBody:   `"rules":7`,
		},
		{
			name:       "no rules loaded",
			readiness:  staticReadiness{rules: 0},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "not_ready",
		},
		{
			name:       "no readiness source",
			readiness:  nil,
			wantStatus: http.StatusOK,
			wantBody:   `"ready"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(testServerConfig(), Options{Readiness: tt.readiness, Logger: testLogger()})

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("readyz status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("readyz body = %q, want containing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

// TestMetricsRoute tests that the metrics handler mounts at the
// configured path only when provided.
func TestMetricsRoute(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})

	srv := New(testServerConfig(), Options{
		MetricsPath:    "/metrics",
		MetricsHandler: metricsHandler,
		Logger:         testLogger(),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# metrics") {
		t.Errorf("metrics route = %d %q", rec.Code, rec.Body.String())
	}

	bare := New(testServerConfig(), Options{Logger: testLogger()})
	rec = httptest.NewRecorder()
	bare.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics route without handler = %d, want 404", rec.Code)
	}
}

// TestIntakeRoute tests that the signal intake mounts at /signals only
// when a handler is provided.
func TestIntakeRoute(t *testing.T) {
	intake := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"signalId":"sig-1"}`))
	})

	srv := New(testServerConfig(), Options{
		IntakeHandler: intake,
		Logger:        testLogger(),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signals", strings.NewReader(`{}`)))
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), "sig-1") {
		t.Errorf("intake route = %d %q", rec.Code, rec.Body.String())
	}

	bare := New(testServerConfig(), Options{Logger: testLogger()})
	rec = httptest.NewRecorder()
	bare.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signals", strings.NewReader(`{}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("intake route without handler = %d, want 404", rec.Code)
	}
}

// TestStartShutdown tests the lifecycle: Start blocks, context
// cancellation drains the listener, IsRunning flips back.
func TestStartShutdown(t *testing.T) {
	srv := New(testServerConfig(), Options{Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !srv.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !srv.IsRunning() {
		t.Fatal("server never reported running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if srv.IsRunning() {
		t.Error("IsRunning = true after shutdown")
	}
}
