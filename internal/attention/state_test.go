package attention

import (
	"testing"
	"time"
)

const frameInterval = 100 * time.Millisecond

// feed pushes counts one frame apart starting at start and returns the final
// state, every event and the time of the last frame.
func feed(s State, start time.Time, counts ...int) (State, []Event, time.Time) {
	var all []Event
	now := start
	for i, c := range counts {
		now = start.Add(time.Duration(i) * frameInterval)
		var events []Event
		s, events = Advance(s, DefaultTiming(), Input{AttentionCount: c, Now: now})
		all = append(all, events...)
	}
	return s, all, now
}

func repeat(count, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = count
	}
	return out
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestAdvance_Transitions(t *testing.T) {
	timing := DefaultTiming()
	active := State{StartTime: t0}
	grace := State{StartTime: t0, DisappearanceTime: t0.Add(time.Second)}

	tests := []struct {
		name      string
		state     State
		input     Input
		wantPhase Phase
		wantStart time.Time
		wantEvent []EventKind
	}{
		{"idle stays idle", State{}, Input{0, t0}, PhaseIdle, time.Time{}, nil},
		{"idle to active", State{}, Input{1, t0}, PhaseActive, t0, []EventKind{EventSessionStarted}},
		{"active stays active", active, Input{2, t0.Add(time.Second)}, PhaseActive, t0, nil},
		{"active to grace", active, Input{0, t0.Add(time.Second)}, PhaseGrace, t0, []EventKind{EventAttentionLost}},
		{"grace resumes without reset", grace, Input{1, t0.Add(2 * time.Second)}, PhaseActive, t0, []EventKind{EventSessionResumed}},
		{"grace within window", grace, Input{0, t0.Add(3 * time.Second)}, PhaseGrace, t0, nil},
		{"grace expires", grace, Input{0, t0.Add(3*time.Second + time.Millisecond)}, PhaseIdle, time.Time{}, []EventKind{EventSessionEnded}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, events := Advance(tc.state, timing, tc.input)
			if next.Phase() != tc.wantPhase {
				t.Errorf("phase: got %v, want %v", next.Phase(), tc.wantPhase)
			}
			if !next.StartTime.Equal(tc.wantStart) {
				t.Errorf("start: got %v, want %v", next.StartTime, tc.wantStart)
			}
			got := kinds(events)
			if len(got) != len(tc.wantEvent) {
				t.Fatalf("events: got %v, want %v", got, tc.wantEvent)
			}
			for i := range got {
				if got[i] != tc.wantEvent[i] {
					t.Errorf("event %d: got %v, want %v", i, got[i], tc.wantEvent[i])
				}
			}
		})
	}
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	s := State{}
	Advance(s, DefaultTiming(), Input{AttentionCount: 1, Now: t0})
	if !s.StartTime.IsZero() {
		t.Error("Advance modified its input state")
	}
}

func TestAdvance_GracePeriodPreservesDwell(t *testing.T) {
	// 20 attentive frames, 15 empty frames (1.5s <= 2s), then attention again
	counts := append(append(repeat(1, 20), repeat(0, 15)...), 1)
	s, _, last := feed(State{}, t0, counts...)

	if s.Phase() != PhaseActive {
		t.Fatalf("phase: got %v, want active", s.Phase())
	}
	if !s.StartTime.Equal(t0) {
		t.Errorf("start time reset to %v, want %v", s.StartTime, t0)
	}
	if got, want := s.Dwell(last), last.Sub(t0); got != want {
		t.Errorf("dwell: got %v, want %v", got, want)
	}
}

func TestAdvance_GraceExpiryStartsFreshSession(t *testing.T) {
	// 25 empty frames = 2.4s since disappearance > 2s
	counts := append(repeat(1, 20), repeat(0, 25)...)
	s, events, last := feed(State{}, t0, counts...)

	if s.Phase() != PhaseIdle {
		t.Fatalf("phase: got %v, want idle", s.Phase())
	}
	if s.Dwell(last) != 0 {
		t.Errorf("idle dwell: got %v, want 0", s.Dwell(last))
	}
	ended := 0
	for _, e := range events {
		if e.Kind == EventSessionEnded {
			ended++
			if e.Dwell != 2*time.Second {
				t.Errorf("ended session dwell: got %v, want 2s", e.Dwell)
			}
		}
	}
	if ended != 1 {
		t.Errorf("session ended events: got %d, want 1", ended)
	}

	restart := last.Add(frameInterval)
	s, events = Advance(s, DefaultTiming(), Input{AttentionCount: 1, Now: restart})
	if !s.StartTime.Equal(restart) || s.Dwell(restart) != 0 {
		t.Errorf("fresh session: start %v dwell %v", s.StartTime, s.Dwell(restart))
	}
	if len(events) != 1 || events[0].Kind != EventSessionStarted {
		t.Errorf("events: got %v, want session_started", kinds(events))
	}
}

func TestAdvance_ImpactFiresOncePerSession(t *testing.T) {
	// counts fluctuate 1..3 over 15 seconds with a short dropout in the middle
	var counts []int
	for i := 0; i < 150; i++ {
		switch {
		case i >= 60 && i < 70:
			counts = append(counts, 0)
		default:
			counts = append(counts, 1+i%3)
		}
	}

	s, events, _ := feed(State{}, t0, counts...)

	var impacts []Event
	for _, e := range events {
		if e.Kind == EventImpact {
			impacts = append(impacts, e)
		}
	}
	if len(impacts) != 1 {
		t.Fatalf("impact events: got %d, want 1", len(impacts))
	}

	// first frame with dwell > 10s is i=101, count 1+101%3 = 3
	impact := impacts[0]
	if !impact.At.Equal(t0.Add(101 * frameInterval)) {
		t.Errorf("impact at %v, want %v", impact.At, t0.Add(101*frameInterval))
	}
	if impact.Count != 3 {
		t.Errorf("impact count: got %d, want 3", impact.Count)
	}
	if s.Impacts != 3 {
		t.Errorf("counter: got %d, want 3 (count at the qualifying frame, not cumulative)", s.Impacts)
	}
	if !s.ImpactCounted {
		t.Error("session should be marked as counted")
	}
}

func TestAdvance_ImpactNeedsStrictlyLongerDwell(t *testing.T) {
	s := State{StartTime: t0}

	s, events := Advance(s, DefaultTiming(), Input{AttentionCount: 1, Now: t0.Add(10 * time.Second)})
	if len(events) != 0 || s.Impacts != 0 {
		t.Errorf("impact fired at exactly the threshold: %v", kinds(events))
	}

	s, events = Advance(s, DefaultTiming(), Input{AttentionCount: 1, Now: t0.Add(10*time.Second + time.Millisecond)})
	if len(events) != 1 || events[0].Kind != EventImpact || s.Impacts != 1 {
		t.Errorf("expected impact just past the threshold, got %v", kinds(events))
	}
}

func TestAdvance_NoImpactDuringGrace(t *testing.T) {
	s := State{StartTime: t0, DisappearanceTime: t0.Add(9500 * time.Millisecond)}

	s, events := Advance(s, DefaultTiming(), Input{AttentionCount: 0, Now: t0.Add(11 * time.Second)})
	if len(events) != 0 || s.Impacts != 0 {
		t.Errorf("impact fired without attention: %v", kinds(events))
	}

	s, events = Advance(s, DefaultTiming(), Input{AttentionCount: 2, Now: t0.Add(11100 * time.Millisecond)})
	got := kinds(events)
	if len(got) != 2 || got[0] != EventSessionResumed || got[1] != EventImpact {
		t.Fatalf("events: got %v, want [session_resumed impact]", got)
	}
	if s.Impacts != 2 {
		t.Errorf("counter: got %d, want 2", s.Impacts)
	}
}

func TestAdvance_CounterAccumulatesAcrossSessions(t *testing.T) {
	session := repeat(1, 110)
	gap := repeat(0, 25)
	counts := append(append(append([]int{}, session...), gap...), session...)

	s, events, _ := feed(State{}, t0, counts...)

	impacts := 0
	for _, e := range events {
		if e.Kind == EventImpact {
			impacts++
		}
	}
	if impacts != 2 || s.Impacts != 2 {
		t.Errorf("two separate visits: got %d events, counter %d; want 2, 2", impacts, s.Impacts)
	}
}

func TestMachine_Snapshot(t *testing.T) {
	m := NewMachine(DefaultTiming())

	m.Advance(1, t0)
	snap := m.Snapshot(t0.Add(3 * time.Second))
	if snap.Phase != PhaseActive || snap.Dwell != 3*time.Second || !snap.StartTime.Equal(t0) {
		t.Errorf("snapshot: got %+v", snap)
	}

	events := m.Advance(2, t0.Add(11*time.Second))
	if len(events) != 1 || events[0].Kind != EventImpact {
		t.Fatalf("events: got %v, want impact", kinds(events))
	}
	if got := m.State().Impacts; got != 2 {
		t.Errorf("impacts: got %d, want 2", got)
	}
}

func TestPhaseAndEventNames(t *testing.T) {
	if PhaseGrace.String() != "grace" || PhaseIdle.String() != "idle" || PhaseActive.String() != "active" {
		t.Error("unexpected phase names")
	}
	if EventImpact.String() != "impact" || EventKind(99).String() != "unknown" {
		t.Error("unexpected event names")
	}
}
