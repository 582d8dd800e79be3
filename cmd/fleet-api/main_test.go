package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fleet-console/internal/handlers"
	"fleet-console/internal/service"
	"fleet-console/internal/storage"
)

func testRouter(pathPrefix string) http.Handler {
	fleetService := service.NewFleetService(storage.NewMemoryFleetStorage(), nil)
	return newRouter(handlers.NewHTTPHandler(fleetService), pathPrefix)
}

func TestRouter_Preflight(t *testing.T) {
	router := testRouter("")

	for _, path := range []string{"/api/fleet/", "/api/fleet/1/dismiss/", "/api/driver/5/pending_fleets/accept/"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "DELETE")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusOK, rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s: expected Access-Control-Allow-Origin *, got %q", path, got)
		}
	}
}

func TestRouter_PathPrefix(t *testing.T) {
	router := testRouter("/fleet-api")

	req := httptest.NewRequest(http.MethodGet, "/fleet-api/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected CORS header on API responses, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d outside the prefix, got %d", http.StatusNotFound, rr.Code)
	}
}
