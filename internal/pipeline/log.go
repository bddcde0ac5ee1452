package pipeline

import (
	"fmt"
	"sync"
)

// Log is an ordered, append-only run log. Every notable pipeline step emits
// one line; the full sequence is returned with the run result so callers see
// the same narrative the UI streamed. An optional sink receives each line as
// it is appended.
type Log struct {
	mu    sync.Mutex
	lines []string
	sink  func(string)
}

// NewLog creates a run log. sink may be nil.
func NewLog(sink func(string)) *Log {
	return &Log{sink: sink}
}

// Addf formats and appends one line.
func (l *Log) Addf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.lines = append(l.lines, line)
	sink := l.sink
	l.mu.Unlock()
	if sink != nil {
		sink(line)
	}
}

// Lines returns a copy of the accumulated lines in append order.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
