package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"listsel/internal/selection"
)

func TestObserverCountsEngineEvents(t *testing.T) {
	obs := NewObserver()
	list := selection.NewList("a", "b", "c")
	host := selection.NewHost(list, selection.Options{Multiple: true, Observer: obs})
	list.Subscribe(host.HandleChange)

	if _, err := host.SelectAll(); err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	host.UnselectAll()
	host.UnselectAll()
	host.SetSelectedItem("z")
	list.Append("z")

	if got := testutil.ToFloat64(obs.items.WithLabelValues("added")); got != 4 {
		t.Fatalf("expected 4 added items, got %v", got)
	}
	if got := testutil.ToFloat64(obs.items.WithLabelValues("removed")); got != 3 {
		t.Fatalf("expected 3 removed items, got %v", got)
	}
	if got := testutil.ToFloat64(obs.batches.WithLabelValues("empty")); got < 1 {
		t.Fatalf("expected at least one empty batch, got %v", got)
	}
	if got := testutil.ToFloat64(obs.deferred.WithLabelValues("queued")); got != 1 {
		t.Fatalf("expected one deferred request, got %v", got)
	}
	if got := testutil.ToFloat64(obs.deferred.WithLabelValues("promoted")); got != 1 {
		t.Fatalf("expected one promotion, got %v", got)
	}
	if got := testutil.ToFloat64(obs.selected); got != 1 {
		t.Fatalf("expected gauge of 1, got %v", got)
	}
}

func TestObserverCountsCancelledBatches(t *testing.T) {
	obs := NewObserver()
	host := selection.NewHost(selection.NewList("a"), selection.Options{Multiple: true, Observer: obs})
	if _, err := host.SetSelectedItems([]any{"missing"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if got := testutil.ToFloat64(obs.batches.WithLabelValues("cancelled")); got != 1 {
		t.Fatalf("expected one cancelled batch, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	obs := NewObserver()
	obs.BatchCommitted(selection.Change{Added: []selection.Identity{selection.Unresolved("a")}}, 1)
	rec := httptest.NewRecorder()
	obs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "listsel_selected_items 1") || !strings.Contains(body, `listsel_batches_total{outcome="changed"} 1`) {
		t.Fatalf("unexpected metrics body:\n%s", body)
	}
}

func TestServeStopsWithContext(t *testing.T) {
	obs := NewObserver()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- obs.serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected server to stop")
	}
}
