// Package lifecycle tracks whether the application is ready to reveal page
// content. Subscribers receive typed transitions instead of polling a flag.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Phase is an application lifecycle phase.
type Phase string

// Phases, in order.
const (
	Idle    Phase = "idle"
	Loading Phase = "loading"
	Ready   Phase = "ready"
)

// ErrInvalidTransition is returned when a transition skips or reverses a phase.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Transition describes one phase change.
type Transition struct {
	From Phase     `json:"from"`
	To   Phase     `json:"to"`
	At   time.Time `json:"at"`
}

var allowed = map[Phase]Phase{
	Idle:    Loading,
	Loading: Ready,
}

// Machine is the lifecycle state machine. The zero value is not usable; use New.
type Machine struct {
	mu     sync.Mutex
	phase  Phase
	subs   map[int]chan Transition
	nextID int
	now    func() time.Time
}

// New returns a machine in the Idle phase.
func New() *Machine {
	return &Machine{
		phase: Idle,
		subs:  make(map[int]chan Transition),
		now:   time.Now,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Start moves Idle to Loading.
func (m *Machine) Start() error { return m.advance(Loading) }

// MarkReady moves Loading to Ready.
func (m *Machine) MarkReady() error { return m.advance(Ready) }

// Reset returns to Idle from any phase, e.g. when a new page starts loading.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == Idle {
		return
	}
	m.publish(Idle)
}

func (m *Machine) advance(to Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if allowed[m.phase] != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.phase, to)
	}
	m.publish(to)
	return nil
}

// publish sets the phase and notifies subscribers. Callers hold m.mu.
// Subscribers that are not keeping up drop transitions rather than block.
func (m *Machine) publish(to Phase) {
	tr := Transition{From: m.phase, To: to, At: m.now()}
	m.phase = to
	for _, ch := range m.subs {
		select {
		case ch <- tr:
		default:
		}
	}
}

// Subscribe returns the current phase and a channel of subsequent
// transitions. The channel closes when ctx is done.
func (m *Machine) Subscribe(ctx context.Context) (Phase, <-chan Transition) {
	ch := make(chan Transition, 8)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	current := m.phase
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, id)
		close(ch)
		m.mu.Unlock()
	}()

	return current, ch
}

// Subscribers returns the number of active subscriptions.
func (m *Machine) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
