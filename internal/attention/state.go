package attention

import (
	"sync"
	"time"
)

const (
	// DefaultGracePeriod tolerates short detection dropouts.
	DefaultGracePeriod = 2 * time.Second
	// DefaultImpactAfter is the dwell time that turns a session into an impact.
	DefaultImpactAfter = 10 * time.Second
)

// Phase is the attention state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseGrace
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseGrace:
		return "grace"
	default:
		return "idle"
	}
}

// Timing holds the debounce window and the dwell threshold.
type Timing struct {
	GracePeriod time.Duration
	ImpactAfter time.Duration
}

// DefaultTiming returns the kiosk defaults.
func DefaultTiming() Timing {
	return Timing{
		GracePeriod: DefaultGracePeriod,
		ImpactAfter: DefaultImpactAfter,
	}
}

// State is the single scene-level attention session plus the impact counter.
// Zero times mean "unset".
type State struct {
	StartTime         time.Time
	DisappearanceTime time.Time
	ImpactCounted     bool
	Impacts           int
}

// Phase derives the machine position from the session timestamps.
func (s State) Phase() Phase {
	switch {
	case s.StartTime.IsZero():
		return PhaseIdle
	case !s.DisappearanceTime.IsZero():
		return PhaseGrace
	default:
		return PhaseActive
	}
}

// Dwell returns the time since the session started, or zero when idle.
func (s State) Dwell(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return now.Sub(s.StartTime)
}

// Input is what the machine observes for one rendered frame.
type Input struct {
	AttentionCount int
	Now            time.Time
}

// EventKind identifies a state machine transition of interest.
type EventKind int

const (
	EventSessionStarted EventKind = iota
	EventAttentionLost
	EventSessionResumed
	EventSessionEnded
	EventImpact
)

func (k EventKind) String() string {
	switch k {
	case EventSessionStarted:
		return "session_started"
	case EventAttentionLost:
		return "attention_lost"
	case EventSessionResumed:
		return "session_resumed"
	case EventSessionEnded:
		return "session_ended"
	case EventImpact:
		return "impact"
	default:
		return "unknown"
	}
}

// Event is emitted by Advance. Count is the attention count for impacts,
// Dwell the session length at the time of the event.
type Event struct {
	Kind  EventKind
	At    time.Time
	Count int
	Dwell time.Duration
}

// Advance applies one frame of input to s and returns the new state together
// with the events the frame produced. It does not modify s.
func Advance(s State, timing Timing, in Input) (State, []Event) {
	var events []Event
	now := in.Now
	active := in.AttentionCount > 0

	switch s.Phase() {
	case PhaseIdle:
		if active {
			s.StartTime = now
			s.ImpactCounted = false
			events = append(events, Event{Kind: EventSessionStarted, At: now})
		}

	case PhaseActive:
		if !active {
			s.DisappearanceTime = now
			events = append(events, Event{Kind: EventAttentionLost, At: now, Dwell: s.Dwell(now)})
		}

	case PhaseGrace:
		if active {
			// the dwell clock keeps running from the original start
			s.DisappearanceTime = time.Time{}
			events = append(events, Event{Kind: EventSessionResumed, At: now, Dwell: s.Dwell(now)})
		} else if now.Sub(s.DisappearanceTime) > timing.GracePeriod {
			dwell := s.DisappearanceTime.Sub(s.StartTime)
			s.StartTime = time.Time{}
			s.DisappearanceTime = time.Time{}
			s.ImpactCounted = false
			events = append(events, Event{Kind: EventSessionEnded, At: now, Dwell: dwell})
		}
	}

	if !s.StartTime.IsZero() && !s.ImpactCounted && active && s.Dwell(now) > timing.ImpactAfter {
		s.Impacts += in.AttentionCount
		s.ImpactCounted = true
		events = append(events, Event{Kind: EventImpact, At: now, Count: in.AttentionCount, Dwell: s.Dwell(now)})
	}

	return s, events
}

// Snapshot is a read-only view of the machine for dashboards and APIs.
type Snapshot struct {
	Phase     Phase
	StartTime time.Time
	Dwell     time.Duration
	Impacts   int
}

// Machine guards a State so the capture loop can advance it while other
// goroutines read snapshots.
type Machine struct {
	mu     sync.RWMutex
	state  State
	timing Timing
}

// NewMachine creates an idle machine.
func NewMachine(timing Timing) *Machine {
	return &Machine{timing: timing}
}

// Advance feeds one frame to the machine.
func (m *Machine) Advance(attentionCount int, now time.Time) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, events := Advance(m.state, m.timing, Input{AttentionCount: attentionCount, Now: now})
	m.state = next
	return events
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Snapshot returns the phase, dwell and counter as seen at now.
func (m *Machine) Snapshot(now time.Time) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Phase:     m.state.Phase(),
		StartTime: m.state.StartTime,
		Dwell:     m.state.Dwell(now),
		Impacts:   m.state.Impacts,
	}
}
