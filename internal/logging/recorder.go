// Package logging defines the event sink trading components report into.
package logging

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level classifies event severity.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is one structured log event. Details carry enough context to
// reconstruct a failure offline (session id, order id, mint, error).
type Event struct {
	Time     time.Time
	Level    Level
	Category string
	Message  string
	Details  map[string]any
}

// Recorder consumes events. Recording is fire-and-forget: implementations
// must not block trading and must never return an error to the caller.
type Recorder interface {
	Record(e Event)
}

// LogRecorder writes events to a standard logger in key=value form.
type LogRecorder struct {
	logger *log.Logger
}

// NewLogRecorder creates a recorder writing to logger.
func NewLogRecorder(logger *log.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

var _ Recorder = (*LogRecorder)(nil)

// Record formats and writes one event.
func (r *LogRecorder) Record(e Event) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", strings.ToUpper(string(e.Level)), e.Category, e.Message)

	// Deterministic key order keeps log lines diffable
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Details[k])
	}

	r.logger.Println(b.String())
}

// NopRecorder discards all events.
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

func (NopRecorder) Record(Event) {}

// MemoryRecorder retains events for inspection in tests.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Recorder = (*MemoryRecorder)(nil)

func (r *MemoryRecorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events.
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
