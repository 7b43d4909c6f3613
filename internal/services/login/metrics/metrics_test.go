package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}

func labelsOf(metric *dto.Metric) map[string]string {
	labels := make(map[string]string)
	for _, pair := range metric.GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	return labels
}

func TestObserveCallbackCountsByOutcome(t *testing.T) {
	m := New()
	m.ObserveCallback("google", "success")
	m.ObserveCallback("google", "success")
	m.ObserveCallback("google", "denied")

	family := gather(t, m, "oauth_login_callbacks_total")
	counts := make(map[string]float64)
	for _, metric := range family.GetMetric() {
		labels := labelsOf(metric)
		if labels["provider"] != "google" {
			t.Fatalf("provider label = %q", labels["provider"])
		}
		counts[labels["outcome"]] = metric.GetCounter().GetValue()
	}
	if counts["success"] != 2 || counts["denied"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestObserveProviderRequestUsesBuckets(t *testing.T) {
	m := New()
	m.ObserveProviderRequest("google", "token_exchange", 30*time.Millisecond)
	m.ObserveProviderRequest("google", "token_exchange", 300*time.Millisecond)

	family := gather(t, m, "oauth_login_provider_request_duration_seconds")
	if len(family.GetMetric()) != 1 {
		t.Fatalf("series = %d, want 1", len(family.GetMetric()))
	}
	histogram := family.GetMetric()[0].GetHistogram()
	if histogram.GetSampleCount() != 2 {
		t.Fatalf("sample count = %d, want 2", histogram.GetSampleCount())
	}
	var bounds []float64
	for _, bucket := range histogram.GetBucket() {
		bounds = append(bounds, bucket.GetUpperBound())
	}
	want := []float64{0.025, 0.05, 0.1, 0.2}
	if len(bounds) != len(want) {
		t.Fatalf("buckets = %v, want %v", bounds, want)
	}
	for i := range want {
		if bounds[i] != want[i] {
			t.Fatalf("buckets = %v, want %v", bounds, want)
		}
	}
	// 30ms lands in 0.05 and above; 300ms only in +Inf.
	if got := histogram.GetBucket()[1].GetCumulativeCount(); got != 1 {
		t.Fatalf("0.05 bucket = %d, want 1", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.ObserveCallback("github", "exchange_failed")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, `oauth_login_callbacks_total{outcome="exchange_failed",provider="github"} 1`) {
		t.Fatalf("exposition missing counter:\n%s", body)
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	first := New()
	second := New()
	first.ObserveCallback("google", "success")

	families, err := second.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() == "oauth_login_callbacks_total" && len(family.GetMetric()) > 0 {
			t.Fatal("expected separate registries")
		}
	}
}
