// Package diagnostics implements the injected diagnostic sink the codec
// reports non-fatal findings to, without aborting the read: a document
// symbol table whose max_id matches neither accepted convention, an entity
// annotation fid that disagrees with the fid derived from the value, and a
// $739 symbol used as a $100 list_style value. References to deprecated
// symbols are not reported, and overlapping style runs are not reported
// here either (ValidateStyleEvents returns them as an error).
package diagnostics

import (
	"sync"

	"go.uber.org/zap"
)

// Sink receives diagnostic events as the codec runs. Implementations must
// be safe for concurrent use; a single Sink is typically shared across a
// batch of containers processed in parallel.
type Sink interface {
	Warn(msg string, fields ...Field)
	Info(msg string, fields ...Field)
}

// Field is a structured key/value attached to a diagnostic event.
type Field = zap.Field

// String, Int and Err build Fields without requiring callers to import zap
// directly.
func String(key, value string) Field { return zap.String(key, value) }
func Int(key string, value int) Field { return zap.Int(key, value) }
func Err(err error) Field             { return zap.Error(err) }

// zapSink adapts a *zap.Logger to Sink.
type zapSink struct{ log *zap.Logger }

// NewZapSink wraps an existing *zap.Logger as a Sink.
func NewZapSink(log *zap.Logger) Sink { return &zapSink{log: log} }

func (s *zapSink) Warn(msg string, fields ...Field) { s.log.Warn(msg, fields...) }
func (s *zapSink) Info(msg string, fields ...Field) { s.log.Info(msg, fields...) }

// noopSink discards every event.
type noopSink struct{}

// Noop is a Sink that discards everything, for callers that don't want
// diagnostics (or tests that don't want to construct a logger).
var Noop Sink = noopSink{}

func (noopSink) Warn(string, ...Field) {}
func (noopSink) Info(string, ...Field) {}

// CollectingSink accumulates every event it receives, in order, for
// callers (such as tests) that want to inspect findings after the fact
// rather than stream them.
type CollectingSink struct {
	mu     sync.Mutex
	Events []Event
}

// Event is one recorded diagnostic.
type Event struct {
	Level  string
	Msg    string
	Fields []Field
}

func (c *CollectingSink) Warn(msg string, fields ...Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, Event{Level: "warn", Msg: msg, Fields: fields})
}

func (c *CollectingSink) Info(msg string, fields ...Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, Event{Level: "info", Msg: msg, Fields: fields})
}
