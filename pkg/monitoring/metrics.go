package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/akpsi-umich/portal-backend/shared/utils"
)

// Attribute keys for portal-specific metrics.
const (
	attrBusinessAction    = "portal.business.action"
	attrBusinessOutcome   = "portal.business.outcome"
	attrExternalTarget    = "portal.external.target"
	attrExternalOperation = "portal.external.operation"
	attrDBOperation       = "portal.db.operation"
)

var (
	httpRequestsCounter   metric.Int64Counter
	httpRequestDuration   metric.Float64Histogram
	externalCallsCounter  metric.Int64Counter
	externalCallErrors    metric.Int64Counter
	externalCallDuration  metric.Float64Histogram
	businessEventsCounter metric.Int64Counter
	dbLatency             metric.Float64Histogram
	metricsHandler        http.Handler
	meterProvider         *sdkmetric.MeterProvider
	initialized           int32
	initOnce              sync.Once

	routesMu sync.RWMutex
	routes   = make(map[string]bool)
)

// Config holds the configuration for OpenTelemetry metrics
type Config struct {
	// ExporterType is "prometheus", "otlp" or "none"
	ExporterType    string
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPHeaders     map[string]string
	OTLPTLSInsecure bool
}

// DefaultConfig reads the exporter settings from the environment
func DefaultConfig(serviceName string) Config {
	return Config{
		ExporterType:    utils.GetEnvOrDefault("OTEL_METRICS_EXPORTER", "prometheus"),
		ServiceName:     serviceName,
		ServiceVersion:  utils.GetEnvOrDefault("SERVICE_VERSION", "dev"),
		OTLPEndpoint:    utils.GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPHeaders:     parseHeaders(utils.GetEnvOrDefault("OTEL_EXPORTER_OTLP_HEADERS", "")),
		OTLPTLSInsecure: utils.GetEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
}

// Initialize sets up the meter provider and instruments. Only the first call has any effect.
// It returns a shutdown function that flushes pending metrics.
func Initialize(ctx context.Context, config Config) (func(context.Context) error, error) {
	var initErr error
	initOnce.Do(func() {
		initErr = initialize(ctx, config)
		if initErr == nil {
			atomic.StoreInt32(&initialized, 1)
		}
	})
	if initErr != nil {
		return nil, initErr
	}

	return func(ctx context.Context) error {
		if meterProvider != nil {
			return meterProvider.Shutdown(ctx)
		}
		return nil
	}, nil
}

func initialize(ctx context.Context, config Config) error {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var reader sdkmetric.Reader

	switch config.ExporterType {
	case "prometheus", "":
		reg := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(reg), otelprom.WithoutUnits())
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		reader = exporter
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		slog.Info("Initialized metrics with Prometheus exporter", "service", config.ServiceName)

	case "otlp":
		if config.OTLPEndpoint == "" {
			return fmt.Errorf("OTLP endpoint is required when using OTLP exporter")
		}
		endpointURL, err := url.Parse(config.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("invalid OTLP endpoint URL: %w", err)
		}
		if endpointURL.Scheme != "https" && !config.OTLPTLSInsecure {
			return fmt.Errorf("OTLP endpoint must use HTTPS (got: %s); set OTEL_EXPORTER_OTLP_INSECURE=true to override", endpointURL.Scheme)
		}

		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpointURL.Host)}
		if config.OTLPTLSInsecure && endpointURL.Scheme == "http" {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(config.OTLPHeaders) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(config.OTLPHeaders))
		}

		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
		metricsHandler = textHandler("# Metrics exported via OTLP\n")
		slog.Info("Initialized metrics with OTLP exporter", "service", config.ServiceName, "endpoint", config.OTLPEndpoint)

	case "none":
		reader = sdkmetric.NewManualReader()
		metricsHandler = textHandler("# Metrics disabled\n")
		slog.Info("Metrics disabled", "service", config.ServiceName)

	default:
		return fmt.Errorf("unknown exporter type: %s (supported: prometheus, otlp, none)", config.ExporterType)
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)
	meter := meterProvider.Meter("portal-backend")

	if httpRequestsCounter, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}
	if httpRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds")); err != nil {
		return fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}
	if externalCallsCounter, err = meter.Int64Counter("external_calls_total",
		metric.WithDescription("Calls to the identity provider, session store and object storage")); err != nil {
		return fmt.Errorf("failed to create external_calls_total counter: %w", err)
	}
	if externalCallErrors, err = meter.Int64Counter("external_call_errors_total",
		metric.WithDescription("Failed external calls")); err != nil {
		return fmt.Errorf("failed to create external_call_errors_total counter: %w", err)
	}
	if externalCallDuration, err = meter.Float64Histogram("external_call_duration_seconds",
		metric.WithDescription("External call duration in seconds")); err != nil {
		return fmt.Errorf("failed to create external_call_duration_seconds histogram: %w", err)
	}
	if businessEventsCounter, err = meter.Int64Counter("business_events_total",
		metric.WithDescription("Rush and membership events by action and outcome")); err != nil {
		return fmt.Errorf("failed to create business_events_total counter: %w", err)
	}
	if dbLatency, err = meter.Float64Histogram("db_latency_seconds",
		metric.WithDescription("Member record store latency by operation")); err != nil {
		return fmt.Errorf("failed to create db_latency_seconds histogram: %w", err)
	}

	return nil
}

func textHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

// IsInitialized reports whether Initialize succeeded
func IsInitialized() bool {
	return atomic.LoadInt32(&initialized) == 1
}

// RegisterRoutes declares the paths reported verbatim as the route label. Anything else is
// reported as "other" to keep label cardinality bounded.
func RegisterRoutes(routeList []string) {
	routesMu.Lock()
	defer routesMu.Unlock()
	for _, route := range routeList {
		routes[route] = true
	}
}

func routeLabel(path string) string {
	routesMu.RLock()
	defer routesMu.RUnlock()
	if routes[path] {
		return path
	}
	if trimmed := strings.TrimSuffix(path, "/"); routes[trimmed] {
		return trimmed
	}
	return "other"
}

// Handler returns the /metrics handler
func Handler() http.Handler {
	if !IsInitialized() || metricsHandler == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("# Metrics not initialized\n"))
		})
	}
	return metricsHandler
}

// HTTPMetricsMiddleware records request counts and latency
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsInitialized() {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := routeLabel(r.URL.Path)
		if rw.statusCode == http.StatusNotFound {
			route = "unknown"
		}

		ctx := context.Background()
		httpRequestsCounter.Add(ctx, 1, metric.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPResponseStatusCodeKey.Int(rw.statusCode),
		))
		httpRequestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(route),
		))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordExternalCall tracks latency and errors for the identity provider, Redis and object storage
func RecordExternalCall(ctx context.Context, target, operation string, duration time.Duration, err error) {
	if !IsInitialized() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrExternalTarget, target),
		attribute.String(attrExternalOperation, operation),
	)
	externalCallsCounter.Add(ctx, 1, attrs)
	externalCallDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		externalCallErrors.Add(ctx, 1, attrs)
	}
}

// RecordBusinessEvent counts domain actions such as "rush_submit" or "bid_accept"
func RecordBusinessEvent(ctx context.Context, action string, success bool) {
	if !IsInitialized() {
		return
	}

	outcome := "failure"
	if success {
		outcome = "success"
	}
	businessEventsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrBusinessAction, action),
		attribute.String(attrBusinessOutcome, outcome),
	))
}

// RecordDBLatency records member store latency
func RecordDBLatency(ctx context.Context, operation string, duration time.Duration) {
	if !IsInitialized() {
		return
	}
	dbLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrDBOperation, operation),
	))
}

// parseHeaders parses "k1=v1,k2=v2"
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	if raw == "" {
		return headers
	}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) == 2 && kv[0] != "" {
			headers[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return headers
}
