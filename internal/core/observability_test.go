package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "add_files", true, 20*time.Millisecond)
	rec.Observe(ctx, "add_files", true, 30*time.Millisecond)
	rec.Observe(ctx, "add_files", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	if snap.DurationsMS["add_files"] != 55 {
		t.Fatalf("durations = %v", snap.DurationsMS)
	}
	if snap.Results["add_files"]["success"] != 2 || snap.Results["add_files"]["error"] != 1 {
		t.Fatalf("results = %v", snap.Results)
	}
	if rec.Name() == "" {
		t.Fatal("generated name is empty")
	}
}

func TestJSONTracerEmitsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	ctx := context.Background()

	_, span := tracer.Start(ctx, "apply_template")
	span.End(nil)
	_, span = tracer.Start(ctx, "save_draft")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Operation != "apply_template" || entries[0].Status != "success" {
		t.Fatalf("first span = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("second span = %+v", entries[1])
	}
	if !strings.Contains(buf.String(), `"operation":"save_draft"`) {
		t.Fatalf("encoded output = %s", buf.String())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusMetricsRecorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "add_files", true, 10*time.Millisecond)
	rec.Observe(ctx, "add_files", false, 10*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var results *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "annotcore_upload_service_operation_results_total" {
			results = mf
		}
	}
	if results == nil {
		t.Fatalf("results counter not gathered: %v", families)
	}
	total := 0.0
	for _, m := range results.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	if total != 2 {
		t.Fatalf("counter total = %v", total)
	}
}
