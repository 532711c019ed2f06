package session

import (
	"fmt"
	"sync"

	"codeberg.org/mutker/vcmclient/internal/sparkplug"
)

const (
	// SeqModulo is the wrap point of the Sparkplug message sequence.
	SeqModulo = 256

	// DeviceID is the device every VCM node exposes its test bench as.
	DeviceID = "TESTBENCH"
)

// NodeID returns the Sparkplug edge node id of a module.
func NodeID(module int) string {
	return fmt.Sprintf("ADC%d", module)
}

// State is the client's view of the selected module's Sparkplug session.
type State struct {
	mu sync.RWMutex

	module     int
	alive      bool
	compatible bool
	seq        uint64
	bdSeq      uint64
	hasBdSeq   bool
	aliases    map[uint64]string
	types      map[string]sparkplug.DataType
}

// Snapshot is a consistent copy of State for display.
type Snapshot struct {
	Module     int
	NodeID     string
	Alive      bool
	Compatible bool
	Seq        uint64
	BdSeq      uint64
	HasBdSeq   bool
}

func New(module int) *State {
	return &State{
		module:  module,
		aliases: make(map[uint64]string),
		types:   make(map[string]sparkplug.DataType),
	}
}

func (s *State) Module() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.module
}

func (s *State) NodeID() string {
	return NodeID(s.Module())
}

// CanCommand reports whether DAC and reboot commands may be issued.
func (s *State) CanCommand() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alive && s.compatible
}

// NextSeq returns the sequence number for the next outbound payload.
func (s *State) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seq
	s.seq = (s.seq + 1) % SeqModulo
	return seq
}

// Birth records an NBIRTH. Aliases and datatypes learned from a previous
// birth are dropped.
func (s *State) Birth(bdSeq uint64, hasBdSeq, compatible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alive = true
	s.compatible = compatible
	s.bdSeq = bdSeq
	s.hasBdSeq = hasBdSeq
	clear(s.aliases)
	clear(s.types)
}

// Death records an NDEATH and reports whether it ended the current session.
// A death whose bdSeq differs from the last birth belongs to an older
// session and is ignored.
func (s *State) Death(bdSeq uint64, hasBdSeq bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasBdSeq && hasBdSeq && s.bdSeq != bdSeq {
		return false
	}
	s.alive = false
	return true
}

// LastBdSeq returns the bdSeq of the last birth, if any.
func (s *State) LastBdSeq() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bdSeq, s.hasBdSeq
}

// LearnAlias records the name a birth certificate assigned to alias.
func (s *State) LearnAlias(alias uint64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[alias] = name
}

// ResolveAlias returns the metric name bound to alias.
func (s *State) ResolveAlias(alias uint64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.aliases[alias]
	return name, ok
}

// LearnType records the datatype a birth certificate declared for name.
func (s *State) LearnType(name string, dt sparkplug.DataType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[name] = dt
}

// DataType returns the datatype declared for name in the last birth.
func (s *State) DataType(name string) (sparkplug.DataType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dt, ok := s.types[name]
	return dt, ok
}

// SetModule selects another module and starts a fresh session for it.
func (s *State) SetModule(module int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.module = module
	s.alive = false
	s.compatible = false
	s.seq = 0
	s.bdSeq = 0
	s.hasBdSeq = false
	clear(s.aliases)
	clear(s.types)
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Module:     s.module,
		NodeID:     NodeID(s.module),
		Alive:      s.alive,
		Compatible: s.compatible,
		Seq:        s.seq,
		BdSeq:      s.bdSeq,
		HasBdSeq:   s.hasBdSeq,
	}
}
