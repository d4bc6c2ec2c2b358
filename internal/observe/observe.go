// Package observe bundles the logger and tracer handed to the boundary
// layers. Core stores receive the bare *zap.Logger; the HTTP server and CLI
// go through an Observer so every operation can open a span.
package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var tracer = otel.Tracer("synapse")

// Observer handles logging and tracing.
type Observer struct {
	log *zap.Logger
}

// New creates an Observer with console output for CLI use. Unless verbose,
// only warnings and errors are shown.
func New(verbose bool) *Observer {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		log = zap.NewNop()
	}
	return &Observer{log: log}
}

// NewProduction creates an Observer with JSON output for the server.
func NewProduction() *Observer {
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	return &Observer{log: log}
}

// NewWith wraps an existing logger. Tests pass a zaptest observer core
// here; a nil logger logs nowhere.
func NewWith(log *zap.Logger) *Observer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Observer{log: log}
}

// Log returns the underlying logger.
func (o *Observer) Log() *zap.Logger {
	return o.log
}

// StartSpan starts a new OTel span.
func (o *Observer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// Close flushes buffered log output. Sync failures on console sinks are not
// actionable and are dropped.
func (o *Observer) Close() error {
	_ = o.log.Sync()
	return nil
}
