package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"file-management-api/internal/services/health"
	"file-management-api/internal/shared/config"
)

func TestHealthReflectsChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := health.NewService(0)
	router := NewRouter(RouterDeps{Config: config.Config{Env: "dev"}, Health: svc})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	svc.Register("metadata", func(ctx context.Context) error { return errors.New("down") })
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var report health.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.OK || report.Checks["metadata"] != "down" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestMetricsAndUnknownRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterDeps{Config: config.Config{Env: "dev"}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "uploads_total") {
		t.Fatalf("unexpected metrics response: %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id on unmatched routes")
	}
}

func TestAddr(t *testing.T) {
	for in, want := range map[string]string{"": ":8080", "9090": ":9090", ":7000": ":7000"} {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
