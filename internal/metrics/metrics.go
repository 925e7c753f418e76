package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"listsel/internal/selection"
)

// Observer counts selection engine events on its own registry.
type Observer struct {
	registry  *prometheus.Registry
	batches   *prometheus.CounterVec
	items     *prometheus.CounterVec
	deferred  *prometheus.CounterVec
	selected  prometheus.Gauge
	batchSize prometheus.Histogram
}

var _ selection.Observer = (*Observer)(nil)

func NewObserver() *Observer {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Observer{
		registry: reg,
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "listsel_batches_total",
			Help: "Selection batches by outcome (changed, empty, cancelled).",
		}, []string{"outcome"}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "listsel_items_total",
			Help: "Items added to or removed from the selection.",
		}, []string{"direction"}),
		deferred: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "listsel_deferred_total",
			Help: "Deferred selection requests by stage (queued, promoted).",
		}, []string{"stage"}),
		selected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "listsel_selected_items",
			Help: "Entries in the committed selection.",
		}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "listsel_batch_delta_size",
			Help:    "Added plus removed entries per changed batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

func (o *Observer) BatchCommitted(change selection.Change, selectedCount int) {
	o.selected.Set(float64(selectedCount))
	if change.Empty() {
		o.batches.WithLabelValues("empty").Inc()
		return
	}
	o.batches.WithLabelValues("changed").Inc()
	o.items.WithLabelValues("added").Add(float64(len(change.Added)))
	o.items.WithLabelValues("removed").Add(float64(len(change.Removed)))
	o.batchSize.Observe(float64(len(change.Added) + len(change.Removed)))
}

func (o *Observer) BatchCancelled() {
	o.batches.WithLabelValues("cancelled").Inc()
}

func (o *Observer) SelectionDeferred(any) {
	o.deferred.WithLabelValues("queued").Inc()
}

func (o *Observer) DeferredPromoted(any) {
	o.deferred.WithLabelValues("promoted").Inc()
}

func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (o *Observer) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return o.serve(ctx, listener)
}

func (o *Observer) serve(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
