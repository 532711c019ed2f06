package display

import (
	"fmt"
	"sync"
	"time"
)

// DefaultCapacity is how many diagnostic lines are kept.
const DefaultCapacity = 500

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// Entry is one diagnostic line.
type Entry struct {
	Time     time.Time
	Severity Severity
	Message  string
}

// Diagnostics is a bounded, thread-safe log of operator-facing messages.
// Once full, the oldest entry is dropped for each new one.
type Diagnostics struct {
	mu      sync.RWMutex
	entries []Entry
	start   int
	size    int
	seq     uint64
	now     func() time.Time
}

// NewDiagnostics creates a log holding at most capacity entries.
func NewDiagnostics(capacity int) *Diagnostics {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Diagnostics{
		entries: make([]Entry, capacity),
		now:     time.Now,
	}
}

// Add appends a message.
func (d *Diagnostics) Add(message string, severity Severity) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := Entry{Time: d.now(), Severity: severity, Message: message}
	capacity := len(d.entries)
	if d.size < capacity {
		d.entries[(d.start+d.size)%capacity] = e
		d.size++
	} else {
		d.entries[d.start] = e
		d.start = (d.start + 1) % capacity
	}
	d.seq++
}

func (d *Diagnostics) Info(message string) {
	d.Add(message, SeverityInfo)
}

func (d *Diagnostics) Infof(format string, args ...any) {
	d.Add(fmt.Sprintf(format, args...), SeverityInfo)
}

func (d *Diagnostics) Error(message string) {
	d.Add(message, SeverityError)
}

func (d *Diagnostics) Errorf(format string, args ...any) {
	d.Add(fmt.Sprintf(format, args...), SeverityError)
}

// All returns the retained entries, oldest first.
func (d *Diagnostics) All() []Entry {
	return d.Recent(-1)
}

// Recent returns up to count of the newest entries, oldest first. A
// negative count returns everything.
func (d *Diagnostics) Recent(count int) []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if count < 0 || count > d.size {
		count = d.size
	}

	capacity := len(d.entries)
	out := make([]Entry, count)
	skip := d.size - count
	for i := range count {
		out[i] = d.entries[(d.start+skip+i)%capacity]
	}
	return out
}

func (d *Diagnostics) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.size
}

// Version increases with every Add, so viewers can tell when to redraw.
func (d *Diagnostics) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.seq
}

// Format renders an entry as a plain line.
func Format(e Entry) string {
	line := e.Time.Format("15:04:05.000") + " " + e.Message
	if e.Severity == SeverityError {
		return line + " [error]"
	}
	return line
}

// Styled renders an entry with error lines in red.
func Styled(e Entry) string {
	line := e.Time.Format("15:04:05.000") + " " + e.Message
	if e.Severity == SeverityError {
		return ErrorStyle.Render(line)
	}
	return line
}
