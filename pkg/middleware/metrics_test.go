package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	perrors "github.com/vango-dev/ladderpulse/internal/errors"
	"github.com/vango-dev/ladderpulse/pkg/nav"
	"github.com/vango-dev/ladderpulse/pkg/navstate"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func restoration(t *testing.T, raw string) *nav.Restoration {
	t.Helper()
	st := navstate.MustParse(raw)
	target, err := navstate.ParseTarget(st)
	if err != nil {
		t.Fatalf("ParseTarget(%q): %v", raw, err)
	}
	return &nav.Restoration{State: st, Target: target}
}

func TestPrometheus_RecordsOutcomes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resetGlobalMetricsForTest()
		reg := prometheus.NewRegistry()
		mw := Prometheus(WithRegistry(reg), WithNamespace("test"))

		r := restoration(t, "?type=ladder&season=46")
		if err := mw(func(context.Context, *nav.Restoration) error { return nil })(context.Background(), r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		m := globalMetrics
		if got := metricCounterValue(t, m.restorationsTotal.WithLabelValues("ladder", "success")); got != 1 {
			t.Errorf("restorations_total{ladder,success} = %v, want 1", got)
		}
		if got := metricHistogramCount(t, m.restorationDuration.WithLabelValues("ladder")); got != 1 {
			t.Errorf("duration samples = %d, want 1", got)
		}
	})

	t.Run("replay", func(t *testing.T) {
		resetGlobalMetricsForTest()
		mw := Prometheus(WithRegistry(prometheus.NewRegistry()))

		r := restoration(t, "#ladder-top")
		mw(func(_ context.Context, r *nav.Restoration) error {
			r.Replay = true
			return nil
		})(context.Background(), r)

		if got := metricCounterValue(t, globalMetrics.restorationsTotal.WithLabelValues("default", "replay")); got != 1 {
			t.Errorf("restorations_total{default,replay} = %v, want 1", got)
		}
	})

	t.Run("error is labelled with its code", func(t *testing.T) {
		resetGlobalMetricsForTest()
		mw := Prometheus(WithRegistry(prometheus.NewRegistry()))

		r := restoration(t, "?type=character&id=42")
		want := fmt.Errorf("load: %w", perrors.New("N102"))
		err := mw(func(context.Context, *nav.Restoration) error { return want })(context.Background(), r)
		if !errors.Is(err, want) {
			t.Fatalf("err = %v, want passthrough", err)
		}

		m := globalMetrics
		if got := metricCounterValue(t, m.restorationErrors.WithLabelValues("character", "N102")); got != 1 {
			t.Errorf("restoration_errors_total{character,N102} = %v, want 1", got)
		}
		if got := metricCounterValue(t, m.restorationsTotal.WithLabelValues("character", "error")); got != 1 {
			t.Errorf("restorations_total{character,error} = %v, want 1", got)
		}
	})
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{perrors.New("N101"), "N101"},
		{fmt.Errorf("wrapped: %w", perrors.New("N010")), "N010"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserver(t *testing.T) {
	resetGlobalMetricsForTest()
	o := Observer(WithRegistry(prometheus.NewRegistry()))

	o.HistoryCommitted(false)
	o.HistoryCommitted(true)
	o.HistoryCommitted(true)
	o.PendingChanged(2)
	o.SettleTimedOut("player-info")

	m := globalMetrics
	if got := metricCounterValue(t, m.historyCommits.WithLabelValues("replace")); got != 2 {
		t.Errorf("history_commits_total{replace} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.historyCommits.WithLabelValues("push")); got != 1 {
		t.Errorf("history_commits_total{push} = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.pending); got != 2 {
		t.Errorf("pending_restorations = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.settleTimeouts); got != 1 {
		t.Errorf("settle_timeouts_total = %v, want 1", got)
	}
}

func TestRecordSessionFunctions(t *testing.T) {
	resetGlobalMetricsForTest()
	RecordSessionCreate() // no collectors yet: must not panic

	Prometheus(WithRegistry(prometheus.NewRegistry()))
	RecordSessionCreate()
	RecordSessionCreate()
	RecordSessionDestroy()
	RecordWebSocketError("read")

	m := globalMetrics
	if got := metricGaugeValue(t, m.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.wsErrors.WithLabelValues("read")); got != 1 {
		t.Errorf("websocket_errors_total{read} = %v, want 1", got)
	}
}
