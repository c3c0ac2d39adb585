// Package switcher holds the program/preview source index for a golf
// broadcast and notifies observers on change. It performs no throttling
// of its own — the auto-cut controller owns cooldown behaviour.
package switcher

import "sync"

// SourceIndex identifies one of the two broadcast sources: the golfer
// camera (0) or the simulator feed (1).
type SourceIndex int

const (
	SourceGolfer    SourceIndex = 0
	SourceSimulator SourceIndex = 1
)

// ChangeHandler is called synchronously, in registration order, on the
// thread that triggered the change — matching the spec's "switcher
// events are serialised through the switcher's internal lock; observers
// are called synchronously in registration order" ordering guarantee.
type ChangeHandler func(old, new SourceIndex)

// Switcher is the single source of truth for which feed is currently
// live. Grounded on the teacher's internal/relay channel-state holder
// (a mutex-guarded current value plus registered observer callbacks,
// called synchronously rather than through a broadcast channel, since
// ordering across observers is a hard guarantee here).
type Switcher struct {
	mu       sync.Mutex
	current  SourceIndex
	handlers []ChangeHandler
}

// New creates a Switcher defaulting to the golfer camera.
func New() *Switcher {
	return &Switcher{current: SourceGolfer}
}

// ProgramSourceIndex returns the current program source.
func (s *Switcher) ProgramSourceIndex() SourceIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetProgramSourceIndex sets the program source. Handlers fire only on
// an actual change, never on a redundant set to the current value.
func (s *Switcher) SetProgramSourceIndex(idx SourceIndex) {
	s.mu.Lock()
	old := s.current
	if old == idx {
		s.mu.Unlock()
		return
	}
	s.current = idx
	handlers := append([]ChangeHandler(nil), s.handlers...)
	s.mu.Unlock()

	for _, h := range handlers {
		h(old, idx)
	}
}

// OnProgramSourceChanged registers a handler invoked on every future
// change. Handlers are never deregistered individually; the switcher is
// expected to live for the process's lifetime.
func (s *Switcher) OnProgramSourceChanged(h ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}
