package sessionstate

import "testing"

func TestValidTransitionSequence(t *testing.T) {
	m := New()
	steps := []State{Connecting, Authenticating, Active, Paused, Active, Disconnecting, Disconnected}
	for _, to := range steps {
		if err := m.Transition(to); err != nil {
			t.Fatalf("Transition(%s): %v", to, err)
		}
	}
	if m.Current() != Disconnected {
		t.Fatalf("Current() = %s, want Disconnected", m.Current())
	}

	history := m.History()
	if len(history) != len(steps) {
		t.Fatalf("History() length = %d, want %d", len(history), len(steps))
	}
	for _, tr := range history {
		if !edgeAllowed(tr.From, tr.To) {
			t.Errorf("recorded transition %s -> %s is not in the allowed table", tr.From, tr.To)
		}
	}
}

// TestIdleToActiveRejected mirrors scenario S6.
func TestIdleToActiveRejected(t *testing.T) {
	m := New()
	err := m.Transition(Active)
	if err == nil {
		t.Fatal("expected InvalidStateTransitionError")
	}
	ise, ok := err.(*InvalidStateTransitionError)
	if !ok {
		t.Fatalf("expected *InvalidStateTransitionError, got %T", err)
	}
	if ise.From != Idle || ise.To != Active {
		t.Errorf("error = %+v, want From=Idle To=Active", ise)
	}
	if m.Current() != Idle {
		t.Errorf("Current() = %s, want Idle (unchanged)", m.Current())
	}
}

func TestDisconnectedHasNoOutgoingEdge(t *testing.T) {
	m := New()
	_ = m.Transition(Connecting)
	_ = m.Transition(Disconnected)
	if err := m.Transition(Idle); err == nil {
		t.Fatal("expected Disconnected to have no outgoing edge")
	}
}

func TestHistoryBounded(t *testing.T) {
	m := New()
	_ = m.Transition(Connecting)
	for i := 0; i < MaxHistory+20; i++ {
		_ = m.Transition(Authenticating)
		_ = m.Transition(Connecting)
	}
	if len(m.History()) > MaxHistory {
		t.Fatalf("History() length = %d, want <= %d", len(m.History()), MaxHistory)
	}
}

func TestForceTransitionBypassesTable(t *testing.T) {
	m := New()
	m.ForceTransition(Disconnected, "fatal capture error")
	if m.Current() != Disconnected {
		t.Fatalf("Current() = %s, want Disconnected", m.Current())
	}
	history := m.History()
	if len(history) != 1 || !history[0].Forced {
		t.Fatalf("expected one forced transition, got %+v", history)
	}
}
