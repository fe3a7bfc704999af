// Package loader tracks whether the dashboard is waiting on network work.
//
// A single State is created by the application context and shared by every
// guarded request. Observers subscribe to idle/busy transitions to drive a
// global busy indicator.
package loader

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/panelkit/panelkit/internal/metrics"
	"github.com/panelkit/panelkit/internal/observability"
)

// Policy selects how overlapping Begin/End calls are combined.
type Policy string

const (
	// PolicyFlag keeps one shared boolean. End always returns to idle, even
	// when another request that began later is still outstanding.
	PolicyFlag Policy = "flag"

	// PolicyCounted keeps a reference count and reports busy while any
	// request is outstanding.
	PolicyCounted Policy = "counted"
)

// ParsePolicy converts a config value into a Policy. Empty means counted.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyCounted:
		return PolicyCounted, nil
	case PolicyFlag:
		return PolicyFlag, nil
	default:
		return "", fmt.Errorf("unknown loader policy %q (want %q or %q)", value, PolicyFlag, PolicyCounted)
	}
}

// Snapshot is a point-in-time view of the loading state.
type Snapshot struct {
	Active    bool      `json:"active"`
	InFlight  int       `json:"in_flight"`
	Policy    Policy    `json:"policy"`
	ChangedAt time.Time `json:"changed_at"`
}

// State holds the "is work in flight" flag.
type State struct {
	mu        sync.Mutex
	policy    Policy
	count     int
	active    bool
	changedAt time.Time
	seq       uint64

	// notifyMu guards the observers and the delivery cursor. Commits are
	// delivered strictly in seq order; mu is never held while waiting here.
	notifyMu  sync.Mutex
	turn      *sync.Cond
	delivered uint64
	observers map[int]func(bool)
	nextID    int

	clock func() time.Time
}

// New returns an idle State using the given policy.
func New(policy Policy) *State {
	if policy == "" {
		policy = PolicyCounted
	}
	s := &State{
		policy:    policy,
		observers: make(map[int]func(bool)),
		clock:     func() time.Time { return time.Now().UTC() },
	}
	s.turn = sync.NewCond(&s.notifyMu)
	return s
}

// Policy reports the combining policy.
func (s *State) Policy() Policy {
	return s.policy
}

// Begin marks one unit of work as started.
func (s *State) Begin() {
	s.mu.Lock()
	s.count++
	s.commit(true)
}

// End marks one unit of work as finished. In flag mode it always returns to
// idle; in counted mode it returns to idle once the count reaches zero.
// Calling End while idle is a no-op.
func (s *State) End() {
	s.mu.Lock()
	if s.count > 0 {
		s.count--
	}
	if s.policy == PolicyFlag {
		s.count = 0
	}
	s.commit(s.count > 0)
}

// Acquire begins a unit of work and returns its release function. Release is
// safe to call more than once; only the first call ends the work.
func (s *State) Acquire() (release func()) {
	s.Begin()
	var once sync.Once
	return func() {
		once.Do(s.End)
	}
}

// Active reports whether any work is in flight.
func (s *State) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// InFlight reports the number of outstanding units of work. Flag mode can
// only ever report 0 or 1.
func (s *State) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlightLocked()
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Active:    s.active,
		InFlight:  s.inFlightLocked(),
		Policy:    s.policy,
		ChangedAt: s.changedAt,
	}
}

// Subscribe registers fn for idle/busy transitions. The returned function
// removes the observer. Observers run synchronously and may read the state,
// but must not call Begin, End or Subscribe.
func (s *State) Subscribe(fn func(active bool)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	s.notifyMu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.notifyMu.Unlock()

	return func() {
		s.notifyMu.Lock()
		delete(s.observers, id)
		s.notifyMu.Unlock()
	}
}

// commit applies the new flag and releases mu. It must be called with mu
// held. Each commit takes a ticket under mu and publishes once every earlier
// ticket has been delivered, so observers see transitions in commit order
// and can call Active or Snapshot without deadlocking.
func (s *State) commit(active bool) {
	changed := s.active != active
	if changed {
		s.active = active
		s.changedAt = s.clock()
	}
	inFlight := s.inFlightLocked()
	s.seq++
	ticket := s.seq
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for s.delivered != ticket-1 {
		s.turn.Wait()
	}
	defer func() {
		s.delivered = ticket
		s.turn.Broadcast()
	}()

	s.publish(changed, active, inFlight)
}

func (s *State) inFlightLocked() int {
	if s.policy == PolicyFlag {
		if s.active {
			return 1
		}
		return 0
	}
	return s.count
}

func (s *State) publish(changed, active bool, inFlight int) {
	metrics.SetLoaderInFlight(inFlight)
	if !changed {
		return
	}

	metrics.RecordLoaderTransition(active)
	if logger := observability.Logger(); logger != nil {
		logger.Debug("Loading state changed",
			zap.Bool("active", active),
			zap.Int("in_flight", inFlight),
			zap.String("policy", string(s.policy)))
	}

	for _, fn := range s.observers {
		fn(active)
	}
}
