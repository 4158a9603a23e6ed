package storage

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/qepting91/hotfeed/internal/domain"
)

// EventLog is an EventSink that appends events to a file as NDJSON.
// Emit never blocks; events are dropped when the buffer is full.
type EventLog struct {
	FilePath string

	ch      chan domain.Event
	dropped atomic.Uint64
	mu      sync.RWMutex
	closed  bool
}

func NewEventLog(path string, buffer int) *EventLog {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventLog{FilePath: path, ch: make(chan domain.Event, buffer)}
}

func (l *EventLog) Emit(ev domain.Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.ch <- ev:
	default:
		l.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded.
func (l *EventLog) Dropped() uint64 { return l.dropped.Load() }

// Close stops intake; Start returns once the buffer is drained.
func (l *EventLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
}

// Start drains events to FilePath until Close is called.
func (l *EventLog) Start(wg *sync.WaitGroup) {
	defer wg.Done()

	f, err := os.OpenFile(l.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("Event log unavailable", "path", l.FilePath, "err", err)
		for range l.ch {
			l.dropped.Add(1)
		}
		return
	}
	defer f.Close()

	l.drain(f)
}

func (l *EventLog) drain(w io.Writer) {
	enc := json.NewEncoder(w)
	for ev := range l.ch {
		// Write as NDJSON
		if err := enc.Encode(ev); err != nil {
			l.dropped.Add(1)
		}
	}
}
