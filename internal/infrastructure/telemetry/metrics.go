package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration
	ServiceName       string
	Insecure          bool
}

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   MetricsConfig
}

// NewMeterProvider creates and registers a global MeterProvider with a periodic
// OTLP gRPC reader. Disabled metrics fall back to the global no-op meter.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger, config: cfg}
	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	interval := cfg.ExportInterval
	if interval == 0 {
		interval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// Shutdown flushes pending metrics and stops the provider.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp == nil || mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// Metric attribute keys.
var (
	AttrDocumentType = attribute.Key("document_type")
	AttrOutcome      = attribute.Key("outcome")
	AttrImportAction = attribute.Key("action")
)

// ProviderDurationBuckets are histogram boundaries in seconds for provider calls.
var ProviderDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// BusinessMetrics holds the instruments recorded by the application services.
type BusinessMetrics struct {
	documentsIssued  metric.Int64Counter
	providerDuration metric.Float64Histogram
	numberingRetries metric.Int64Counter
	importRows       metric.Int64Counter
	importDuration   metric.Float64Histogram
}

// NewBusinessMetrics creates the business instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	if m.documentsIssued, err = meter.Int64Counter("invoicing.documents",
		metric.WithDescription("Fiscal documents submitted to the provider"),
		metric.WithUnit("{document}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter invoicing.documents: %w", err)
	}
	if m.providerDuration, err = meter.Float64Histogram("invoicing.provider.duration",
		metric.WithDescription("Latency of provider submissions"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(ProviderDurationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create histogram invoicing.provider.duration: %w", err)
	}
	if m.numberingRetries, err = meter.Int64Counter("invoicing.numbering.retries",
		metric.WithDescription("Numbering conflicts that triggered a retry"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter invoicing.numbering.retries: %w", err)
	}
	if m.importRows, err = meter.Int64Counter("import.rows",
		metric.WithDescription("Spreadsheet rows written by bulk import"),
		metric.WithUnit("{row}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter import.rows: %w", err)
	}
	if m.importDuration, err = meter.Float64Histogram("import.duration",
		metric.WithDescription("Duration of bulk import runs"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create histogram import.duration: %w", err)
	}
	return m, nil
}

// DocumentSubmitted records one provider submission and its latency.
func (m *BusinessMetrics) DocumentSubmitted(ctx context.Context, docType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrDocumentType.String(docType), AttrOutcome.String(outcome))
	m.documentsIssued.Add(ctx, 1, attrs)
	m.providerDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// NumberingRetried records a numbering conflict retry.
func (m *BusinessMetrics) NumberingRetried(ctx context.Context, docType string) {
	if m == nil {
		return
	}
	m.numberingRetries.Add(ctx, 1, metric.WithAttributes(AttrDocumentType.String(docType)))
}

// ImportFinished records the row outcomes and duration of an import run.
func (m *BusinessMetrics) ImportFinished(ctx context.Context, created, updated, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.importRows.Add(ctx, int64(created), metric.WithAttributes(AttrImportAction.String("create")))
	m.importRows.Add(ctx, int64(updated), metric.WithAttributes(AttrImportAction.String("update")))
	m.importRows.Add(ctx, int64(failed), metric.WithAttributes(AttrImportAction.String("failed")))
	m.importDuration.Record(ctx, elapsed.Seconds())
}
