package metrics

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.ObserveOperation("add", ResultOK, 25*time.Millisecond)
	m.ObserveOperation("add", "INSUFFICIENT_STOCK", time.Millisecond)
	m.ObserveConfirmation(ResultOK)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_cart_operations_total", "code", "INSUFFICIENT_STOCK"); err != nil {
		t.Fatalf("fetch operations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 insufficient stock op, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "orders_cart_operation_duration_seconds", "operation", "add"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "orders_order_confirmations_total", "code", ResultOK); err != nil || got != 1 {
		t.Fatalf("expected one confirmation, got %f err=%v", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var cart *CartMetrics
	cart.ObserveOperation("add", ResultOK, time.Second)
	cart.ObserveConfirmation(ResultOK)
	NewCartMetrics(nil).ObserveOperation("add", ResultOK, time.Second)

	var notifier *NotifierMetrics
	notifier.ObserveSend("log", "email", ResultOK)
	notifier.IncDeduplicated()

	var outbox *OutboxMetrics
	outbox.IncPublished("order_confirmed")
	outbox.ObserveBatch(time.Second)

	var httpm *HTTPMetrics
	httpm.Observe("/x", http.MethodGet, 200, time.Second)
}

func TestNotifierAndOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	n := NewNotifierMetrics(reg)
	o := NewOutboxMetrics(reg)
	n.ObserveSend("kafka", "sms", ResultError)
	n.IncDeduplicated()
	o.IncPublished("order_confirmed")
	o.IncPublished("order_confirmed")
	o.IncFailed("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, _ := fetchCounterValue(mfs, "orders_notifications_total", "driver", "kafka"); got != 1 {
		t.Fatalf("expected kafka send counted, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "orders_outbox_published_total", "event_type", "order_confirmed"); got != 2 {
		t.Fatalf("expected 2 published, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "orders_outbox_failed_total", "event_type", "unknown"); got != 1 {
		t.Fatalf("expected empty event type normalized, got %f", got)
	}
}

func TestHTTPHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/v1/cart", http.MethodGet, http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `orders_http_requests_total{method="GET",route="/api/v1/cart",status="200"} 1`) {
		t.Fatalf("metrics output missing request counter:\n%s", rec.Body.String())
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, lbl := range labels {
		if lbl.GetName() == name && lbl.GetValue() == value {
			return true
		}
	}
	return false
}

func TestOutboxBacklogGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	pending, fail := int64(3), false
	RegisterOutboxBacklog(reg, func() (int64, error) {
		if fail {
			return 0, errors.New("db down")
		}
		return pending, nil
	})

	read := func() float64 {
		mfs, err := reg.Gather()
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		for _, mf := range mfs {
			if mf.GetName() == "orders_outbox_pending" {
				return mf.GetMetric()[0].GetGauge().GetValue()
			}
		}
		t.Fatalf("orders_outbox_pending not registered")
		return 0
	}

	if got := read(); got != 3 {
		t.Fatalf("expected 3 pending, got %f", got)
	}
	fail = true
	if got := read(); !math.IsNaN(got) {
		t.Fatalf("expected NaN on count failure, got %f", got)
	}
}
