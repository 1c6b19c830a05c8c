package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker()

	rec := httptest.NewRecorder()
	checker.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != healthStatusOK {
		t.Errorf("liveness status field = %q, want %q", resp.Status, healthStatusOK)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name         string
		ready        bool
		shuttingDown bool
		wantCode     int
		wantStatus   string
	}{
		{
			name:       "ready",
			ready:      true,
			wantCode:   http.StatusOK,
			wantStatus: healthStatusOK,
		},
		{
			name:       "not ready",
			ready:      false,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: healthStatusNotReady,
		},
		{
			name:         "shutting down",
			ready:        true,
			shuttingDown: true,
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   healthStatusNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker()
			checker.SetReady(tt.ready)
			if tt.shuttingDown {
				checker.SetShuttingDown()
			}

			rec := httptest.NewRecorder()
			checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("readiness status = %d, want %d", rec.Code, tt.wantCode)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("readiness status field = %q, want %q", resp.Status, tt.wantStatus)
			}
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	checker := NewHealthChecker()

	rec := httptest.NewRecorder()
	checker.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("detailed status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp DetailedHealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != healthStatusOK {
		t.Errorf("detailed status field = %q, want %q", resp.Status, healthStatusOK)
	}
	if resp.Uptime == "" {
		t.Error("detailed response missing uptime")
	}

	// Shutdown flips the detailed status
	checker.SetShuttingDown()

	rec = httptest.NewRecorder()
	checker.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("detailed status after shutdown = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHealthChecker_IsReady(t *testing.T) {
	checker := NewHealthChecker()

	if !checker.IsReady() {
		t.Error("new checker should start ready")
	}

	checker.SetReady(false)
	if checker.IsReady() {
		t.Error("IsReady() = true after SetReady(false)")
	}
}
