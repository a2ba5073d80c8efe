// Package sessionstate implements the session lifecycle state machine
// described in spec.md §3 and §4.7.
package sessionstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/tanujdesk/remotedesk/internal/logging"
)

// State is one of the session lifecycle states.
type State int

const (
	Idle State = iota
	Connecting
	Authenticating
	Active
	Paused
	Disconnecting
	Disconnected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case Authenticating:
		return "Authenticating"
	case Active:
		return "Active"
	case Paused:
		return "Paused"
	case Disconnecting:
		return "Disconnecting"
	case Disconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// MaxHistory bounds the recorded transition history (spec.md §3).
const MaxHistory = 100

var validEdges = map[State][]State{
	Idle:           {Connecting, Disconnected},
	Connecting:     {Authenticating, Disconnecting, Disconnected},
	Authenticating: {Active, Disconnecting, Disconnected},
	Active:         {Paused, Disconnecting, Disconnected},
	Paused:         {Active, Disconnecting, Disconnected},
	Disconnecting:  {Disconnected},
	Disconnected:   {},
}

// InvalidStateTransitionError is returned for any attempted edge not
// listed in validEdges.
type InvalidStateTransitionError struct {
	From, To State
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("sessionstate: invalid transition %s -> %s", e.From, e.To)
}

// Transition records one state change and when it happened.
type Transition struct {
	From, To State
	At       time.Time
	Forced   bool
	Reason   string
}

// Machine is a single-writer, many-reader session state machine
// (spec.md §3 Ownership).
type Machine struct {
	mu        sync.RWMutex
	current   State
	enteredAt time.Time
	history   []Transition
	log       func(msg string, args ...any)
}

// New constructs a Machine starting in Idle.
func New() *Machine {
	return &Machine{current: Idle, enteredAt: time.Now()}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// EnteredAt returns when the current state was entered.
func (m *Machine) EnteredAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enteredAt
}

// History returns a snapshot of the recorded transitions, oldest first.
func (m *Machine) History() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// Transition moves the machine from its current state to to. Fails with
// *InvalidStateTransitionError if the edge is not listed in §4.7's table;
// the machine remains in its current state on failure.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !edgeAllowed(m.current, to) {
		return &InvalidStateTransitionError{From: m.current, To: to}
	}
	m.apply(m.current, to, false, "")
	return nil
}

// ForceTransition bypasses the transition table for error recovery only and
// MUST be logged (spec.md §4.7).
func (m *Machine) ForceTransition(to State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	m.apply(from, to, true, reason)
	logging.L("sessionstate").Warn("forced state transition",
		"from", from.String(), "to", to.String(), "reason", reason)
}

func (m *Machine) apply(from, to State, forced bool, reason string) {
	now := time.Now()
	m.current = to
	m.enteredAt = now

	m.history = append(m.history, Transition{From: from, To: to, At: now, Forced: forced, Reason: reason})
	if len(m.history) > MaxHistory {
		m.history = m.history[len(m.history)-MaxHistory:]
	}
}

func edgeAllowed(from, to State) bool {
	for _, candidate := range validEdges[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
