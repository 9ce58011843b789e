package httptransport_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	cardhandler "cardfleet/internal/cards/handler"
	cardservice "cardfleet/internal/cards/service"
	cardstore "cardfleet/internal/cards/store/card"
	vehiclestore "cardfleet/internal/cards/store/vehicle"
	fulfillmenthandler "cardfleet/internal/fulfillment/handler"
	fulfillmentservice "cardfleet/internal/fulfillment/service"
	fulfillmentstore "cardfleet/internal/fulfillment/store"
	httptransport "cardfleet/internal/transport/http"
)

func newTestRouter(t *testing.T, health func(ctx context.Context) error) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cardSvc := cardservice.New(cardstore.NewInMemory(), vehiclestore.NewInMemory(), nil, logger)
	fulfillmentSvc := fulfillmentservice.New(fulfillmentstore.NewInMemory(), logger, nil)
	return httptransport.NewRouter(
		cardhandler.New(cardSvc, cardSvc, logger),
		fulfillmenthandler.New(fulfillmentSvc, logger),
		httptransport.RouterConfig{AdminToken: "secret-token", Logger: logger, Health: health},
	)
}

func TestHealthzOK(t *testing.T) {
	router := newTestRouter(t, func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
}

func TestHealthzNoProbe(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHealthzDependencyDown(t *testing.T) {
	router := newTestRouter(t, func(context.Context) error {
		return errors.New("redis: connection refused")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestMetricsExposed(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAdminGroupGated(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/cards/inventory", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
