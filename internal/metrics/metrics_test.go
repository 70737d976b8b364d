package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// findMetric は名前とラベルが一致するメトリクスを返す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return nil
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", "/api/movies", 200, 30*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/movies", 200, 10*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/movies", 401, time.Millisecond)

	m := findMetric(t, reg, "cinelist_http_requests_total", map[string]string{
		"method": "GET", "route": "/api/movies", "status_code": "200",
	})
	if v := m.GetCounter().GetValue(); v != 2 {
		t.Errorf("http_requests_total{200} = %v, want 2", v)
	}

	h := findMetric(t, reg, "cinelist_http_request_duration_seconds", map[string]string{"route": "/api/movies"})
	if n := h.GetHistogram().GetSampleCount(); n != 3 {
		t.Errorf("duration sample count = %d, want 3", n)
	}
}

func TestRecordMovieWrite(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMovieWrite("create", true)
	c.RecordMovieWrite("create", false)
	c.RecordMovieWrite("create", false)

	m := findMetric(t, reg, "cinelist_movie_writes_total", map[string]string{"op": "create", "result": "failure"})
	if v := m.GetCounter().GetValue(); v != 2 {
		t.Errorf("movie_writes_total{failure} = %v, want 2", v)
	}
}

func TestRecordPageSizeAndCatalog(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPageSize(12)
	c.ObserveCatalogRequest("search", true, 200*time.Millisecond)
	c.RecordSessionsCleaned(4)

	if n := findMetric(t, reg, "cinelist_movie_page_size", nil).GetHistogram().GetSampleSum(); n != 12 {
		t.Errorf("page_size sum = %v, want 12", n)
	}
	cat := findMetric(t, reg, "cinelist_catalog_request_duration_seconds", map[string]string{"endpoint": "search", "result": "success"})
	if cat.GetHistogram().GetSampleCount() != 1 {
		t.Error("catalog latency not observed")
	}
	if v := findMetric(t, reg, "cinelist_sessions_cleaned_total", nil).GetCounter().GetValue(); v != 4 {
		t.Errorf("sessions_cleaned_total = %v, want 4", v)
	}
}

func TestRecordPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPanic("/api/movies")

	m := findMetric(t, reg, "cinelist_http_panics_total", map[string]string{"route": "/api/movies"})
	if v := m.GetCounter().GetValue(); v != 1 {
		t.Errorf("http_panics_total = %v, want 1", v)
	}
}
