// Package notify carries user-facing progress and outcome messages from the
// application services to whatever delivers them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
)

// Kind identifies what a notification is about.
type Kind string

const (
	KindDocumentIssued   Kind = "document.issued"
	KindDocumentRejected Kind = "document.rejected"
	KindImportStarted    Kind = "import.started"
	KindImportProgress   Kind = "import.progress"
	KindImportFinished   Kind = "import.finished"
	KindImportAborted    Kind = "import.aborted"
)

// Level mirrors the toast variants shown to the operator.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single message for the operator.
type Notification struct {
	Kind    Kind           `json:"kind"`
	Level   Level          `json:"level"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
}

// Sink receives notifications. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Nop discards every notification.
var Nop Sink = SinkFunc(func(context.Context, Notification) error { return nil })

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink. A nil logger discards output.
func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{logger: log}
}

func (s *LogSink) Notify(ctx context.Context, n Notification) error {
	fields := []zap.Field{
		zap.String("kind", string(n.Kind)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	if len(n.Data) > 0 {
		fields = append(fields, zap.Any("data", n.Data))
	}
	log := logger.For(ctx, s.logger)
	switch n.Level {
	case LevelError:
		log.Error("Notification", fields...)
	case LevelWarning:
		log.Warn("Notification", fields...)
	default:
		log.Info("Notification", fields...)
	}
	return nil
}

// MultiSink fans a notification out to every sink. A failing or panicking
// sink does not stop the others.
type MultiSink struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewMultiSink creates a MultiSink over sinks, skipping nil entries.
func NewMultiSink(log *zap.Logger, sinks ...Sink) *MultiSink {
	if log == nil {
		log = zap.NewNop()
	}
	m := &MultiSink{logger: log}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m.sinks {
		if err := m.dispatch(ctx, s, n); err != nil {
			m.logger.Warn("Notification sink failed",
				zap.String("kind", string(n.Kind)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) dispatch(ctx context.Context, s Sink, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification sink panicked: %v", r)
		}
	}()
	return s.Notify(ctx, n)
}

// Send stamps n and delivers it, logging instead of returning a delivery
// failure. Notifications never fail the operation that emits them.
func Send(ctx context.Context, sink Sink, log *zap.Logger, n Notification) {
	if sink == nil {
		return
	}
	if n.At.IsZero() {
		n.At = time.Now()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}
	if err := sink.Notify(ctx, n); err != nil && log != nil {
		logger.For(ctx, log).Warn("Failed to deliver notification",
			zap.String("kind", string(n.Kind)),
			zap.Error(err),
		)
	}
}
