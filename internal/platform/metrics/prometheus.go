package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus metrics.
// All recording methods are safe to call on a nil *MetricsManager.
type MetricsManager struct {
	Registry             *prometheus.Registry
	ListingsCreatedTotal prometheus.Counter
	ListingUpdatesTotal  prometheus.Counter
	ListingDeletesTotal  prometheus.Counter
	ImagesRemovedTotal   prometheus.Counter
	MediaOperationsTotal *prometheus.CounterVec
	CleanupIntentsTotal  *prometheus.CounterVec
	APIErrorsTotal       *prometheus.CounterVec
	APIRequestLatency    *prometheus.HistogramVec
}

// NewMetricsManager creates a dedicated registry and registers the service metrics on it.
// serviceName becomes the metric namespace, with dashes turned into underscores.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()
	serviceName = strings.ReplaceAll(serviceName, "-", "_")

	m := &MetricsManager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		ListingUpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listing_updates_total",
			Help:      "Total number of listings updated.",
		}),
		ListingDeletesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listing_deletes_total",
			Help:      "Total number of listings deleted.",
		}),
		ImagesRemovedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "images_removed_total",
			Help:      "Total number of single images removed from listings.",
		}),
		MediaOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "media_operations_total",
			Help:      "Object store operations by kind and result.",
		}, []string{"operation", "result"}),
		CleanupIntentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "media_cleanup_intents_total",
			Help:      "Cleanup intents by outcome (recorded, resolved, failed).",
		}, []string{"outcome"}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by route.",
		}, []string{"route", "error_type"}),
		APIRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingUpdatesTotal,
		m.ListingDeletesTotal,
		m.ImagesRemovedTotal,
		m.MediaOperationsTotal,
		m.CleanupIntentsTotal,
		m.APIErrorsTotal,
		m.APIRequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *MetricsManager) ListingCreated() {
	if m != nil {
		m.ListingsCreatedTotal.Inc()
	}
}

func (m *MetricsManager) ListingUpdated() {
	if m != nil {
		m.ListingUpdatesTotal.Inc()
	}
}

func (m *MetricsManager) ListingDeleted() {
	if m != nil {
		m.ListingDeletesTotal.Inc()
	}
}

func (m *MetricsManager) ImageRemoved() {
	if m != nil {
		m.ImagesRemovedTotal.Inc()
	}
}

// MediaOperation records one object store call. operation is "upload" or "delete".
func (m *MetricsManager) MediaOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MediaOperationsTotal.WithLabelValues(operation, result).Inc()
}

func (m *MetricsManager) CleanupIntent(outcome string, n int) {
	if m != nil && n > 0 {
		m.CleanupIntentsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *MetricsManager) APIError(route, errorType string) {
	if m != nil {
		m.APIErrorsTotal.WithLabelValues(route, errorType).Inc()
	}
}

func (m *MetricsManager) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.APIRequestLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}

// StartMetricsServer serves the registry on :port/metrics until ctx is cancelled.
// An empty port disables the server.
func StartMetricsServer(ctx context.Context, port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
