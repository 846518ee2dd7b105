package datadog

import (
	"reflect"
	"testing"

	"tripetl/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("expected error for empty Addr")
	}
}

func TestNewBackend_UDP(t *testing.T) {
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "tripetl.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RecordsTotal, 3, metrics.Labels{"kind": "journeys"})
	b.ObserveHistogram(metrics.StepDuration, 0.5, metrics.Labels{"step": "load", "status": "success"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestTags(t *testing.T) {
	got := tags(metrics.Labels{"step": "load", "job": "tripetl", "status": "success"})
	want := []string{"job:tripetl", "status:success", "step:load"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	if tags(nil) != nil {
		t.Fatal("tags(nil) should be nil")
	}
}
