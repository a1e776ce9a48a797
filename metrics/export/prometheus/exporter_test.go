package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goPerm "github.com/MrEthical07/goPerm"
	"github.com/MrEthical07/goPerm/permission"
)

type fakeSource struct {
	snapshot goPerm.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goPerm.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPerm.MetricsSnapshot{
			Counters:   map[goPerm.MetricID]uint64{},
			Histograms: map[goPerm.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPerm.MetricsSnapshot{
			Counters: map[goPerm.MetricID]uint64{
				goPerm.MetricSubmitSuccess: 7,
			},
			Histograms: map[goPerm.MetricID][]uint64{
				goPerm.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "goperm_submit_success_total 7") {
		t.Fatalf("expected submit_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goperm_validate_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goperm_validate_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goperm_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPerm.MetricsSnapshot{
			Counters:   map[goPerm.MetricID]uint64{goPerm.MetricSubmitSuccess: 1},
			Histograms: map[goPerm.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRenderFromService(t *testing.T) {
	svc, err := goPerm.New().WithMetricsEnabled(true).WithLatencyHistograms(true).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer svc.Close()

	set, err := svc.ToggleAction(context.Background(), nil, permission.Simple("tickets"), permission.ActionDelete, true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	svc.Validate(set)

	out := NewPrometheusExporter(svc).Render()
	for _, want := range []string{
		"goperm_action_granted_total 1",
		"goperm_delete_escalated_total 1",
		"goperm_validate_latency_seconds_count 1",
		"goperm_submit_latency_seconds_count 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPerm.MetricsSnapshot{
			Counters: map[goPerm.MetricID]uint64{
				goPerm.MetricSubmitSuccess:                1000,
				goPerm.MetricSubmitFailure:                40,
				goPerm.MetricActionGranted:              800,
				goPerm.MetricActionRevoked:              10,
				goPerm.MetricSessionOpened:              800,
				goPerm.MetricSessionClosed:          20,
				goPerm.MetricMutationRejected: 3,
			},
			Histograms: map[goPerm.MetricID][]uint64{
				goPerm.MetricValidateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
