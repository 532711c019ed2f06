package metrics

import (
	"sync"
	"time"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/logger"
)

// Metric is the last known state of one named metric.
type Metric struct {
	Name      string
	Timestamp time.Time
	Value     Value
}

// IsSet reports whether an update has been applied since startup or the
// last Reset.
func (m Metric) IsSet() bool {
	return m.Value.IsSet()
}

// Subscriber is called after each applied update. changed reports whether
// the value differs from the previous one.
type Subscriber func(m Metric, changed bool)

// Store holds the current value of every known metric. Keys are fixed at
// construction and never removed.
type Store struct {
	mu      sync.RWMutex
	index   map[string]int
	metrics []Metric
	subs    []Subscriber
}

// NewStore creates a store tracking names, in the order given.
func NewStore(names []string) *Store {
	s := &Store{
		index:   make(map[string]int, len(names)),
		metrics: make([]Metric, 0, len(names)),
	}
	for _, name := range names {
		if _, dup := s.index[name]; dup {
			continue
		}
		s.index[name] = len(s.metrics)
		s.metrics = append(s.metrics, Metric{Name: name})
	}
	return s
}

// NewDefaultStore creates a store tracking KnownNames.
func NewDefaultStore() *Store {
	return NewStore(KnownNames())
}

// Update replaces the value and timestamp of name. Unknown names leave the
// store untouched and return ErrUnknownMetric.
func (s *Store) Update(name string, ts time.Time, v Value) (bool, error) {
	s.mu.Lock()
	i, ok := s.index[name]
	if !ok {
		s.mu.Unlock()
		logger.Warn().Str("metric", name).Msg("Ignoring update for unknown metric")
		return false, errors.New().WithData(ErrUnknownMetric, name)
	}

	prev := s.metrics[i].Value
	changed := prev != v
	s.metrics[i].Timestamp = ts
	s.metrics[i].Value = v
	m := s.metrics[i]
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(m, changed)
	}

	return changed, nil
}

// Get returns a copy of the metric named name.
func (s *Store) Get(name string) (Metric, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[name]
	if !ok {
		return Metric{}, false
	}
	return s.metrics[i], true
}

// All returns a copy of every metric in display order.
func (s *Store) All() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Metric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Reset marks every metric unset. Subscribers are not notified.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.metrics {
		s.metrics[i] = Metric{Name: s.metrics[i].Name}
	}
}

// Subscribe registers fn for every subsequent update.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]Subscriber, len(s.subs), len(s.subs)+1)
	copy(subs, s.subs)
	s.subs = append(subs, fn)
}

// Len returns the number of tracked metrics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.metrics)
}
