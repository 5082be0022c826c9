// Package observability wires the process-wide logging pipeline: a local
// slog handler for the terminal, optionally fanned out to an OpenTelemetry
// log exporter selected through the standard OTEL_* environment variables.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/Mohamed26Salah/Halan-Twitter-Task"

// loggerProvider is retained for Flush. Nil when no exporter is configured.
var loggerProvider *sdklog.LoggerProvider

// Instrument installs the process-wide slog default logger at the given
// level and format (text|json). When an OTLP exporter is configured through
// the environment, records are additionally shipped there.
func Instrument(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var local slog.Handler
	switch format {
	case "json":
		local = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		local = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unsupported log format: %q", format)
	}

	exporter, err := newExporterFromEnv(context.Background())
	if err != nil {
		return fmt.Errorf("creating log exporter: %w", err)
	}
	if exporter == nil {
		slog.SetDefault(slog.New(local))
		return nil
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	loggerProvider = sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	remote := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(loggerProvider))
	slog.SetDefault(slog.New(fanout{local, remote}))
	return nil
}

// Flush drains any buffered log records. Safe to call when Instrument set up
// no exporter.
func Flush(ctx context.Context) error {
	if loggerProvider == nil {
		return nil
	}
	return loggerProvider.Shutdown(ctx)
}

// newExporterFromEnv builds a log exporter from the OTEL_LOGS_EXPORTER and
// OTEL_EXPORTER_OTLP_* environment variables. Returns nil when exporting is
// not configured.
func newExporterFromEnv(ctx context.Context) (sdklog.Exporter, error) {
	switch os.Getenv("OTEL_LOGS_EXPORTER") {
	case "console":
		return stdoutlog.New()
	case "none":
		return nil, nil
	case "otlp":
		return newOTLPExporter(ctx)
	case "":
		// Exporting is opt-in, but an explicitly configured endpoint counts
		// as opting in.
		if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" || os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT") != "" {
			return newOTLPExporter(ctx)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported OTEL_LOGS_EXPORTER: %q", os.Getenv("OTEL_LOGS_EXPORTER"))
	}
}

func newOTLPExporter(ctx context.Context) (sdklog.Exporter, error) {
	protocol := os.Getenv("OTEL_EXPORTER_OTLP_LOGS_PROTOCOL")
	if protocol == "" {
		protocol = os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")
	}

	switch protocol {
	case "grpc":
		return otlploggrpc.New(ctx)
	case "http/protobuf", "":
		return otlploghttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %q", protocol)
	}
}

// severity maps a slog level to the minimum OpenTelemetry severity exported.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

// fanout duplicates each record to every wrapped handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
