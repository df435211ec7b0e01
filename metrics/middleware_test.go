package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) string {
	t.Helper()

	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics: %v", err)
	}
	return string(body)
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/dose/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"paracetamol", "ibuprofen"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dose/"+id, nil))
		if rr.Code != http.StatusTeapot {
			t.Fatalf("Expected status 418, got %d", rr.Code)
		}
	}

	output := scrape(t)

	if !strings.Contains(output, `http_request_total{method="GET",path="/dose/{id}",status="418"} 2`) {
		t.Errorf("Expected both requests counted under the route pattern, got:\n%s", output)
	}
	if strings.Contains(output, `path="/dose/paracetamol"`) {
		t.Error("Raw paths must not be used as labels")
	}
	if !strings.Contains(output, `http_request_duration_seconds_count{method="GET",path="/dose/{id}"} 2`) {
		t.Error("Expected request duration observations")
	}
}

func TestMetricsUnmatchedRoute(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/outside-router", nil))

	if !strings.Contains(scrape(t), `http_request_total{method="GET",path="unmatched",status="200"}`) {
		t.Error("Requests outside a chi router should be labelled unmatched")
	}
}

func TestDomainMetricsRegistered(t *testing.T) {
	DoseCalculationsTotal.WithLabelValues("valid").Inc()
	DoseCacheRequestsTotal.WithLabelValues("hit").Inc()
	CatalogReloadsTotal.WithLabelValues("success").Inc()
	CatalogMedications.Set(6)

	output := scrape(t)
	for _, name := range []string{
		"dose_calculations_total",
		"dose_cache_requests_total",
		"catalog_reloads_total",
		"catalog_medications 6",
		"http_request_in_flight",
		"rate_limiter_buckets_total",
	} {
		if !strings.Contains(output, name) {
			t.Errorf("Expected metric %s in output", name)
		}
	}
}
