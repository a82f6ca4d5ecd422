package chatrelay

import (
	"errors"
	"fmt"
	"time"

	"rolebot/models"
)

// ErrInvalidTransition is returned when an event is not allowed in the current state
var ErrInvalidTransition = errors.New("invalid relay state transition")

// Event drives the relay connection state machine
type Event string

const (
	EventInit        Event = "init"
	EventPairingCode Event = "pairing_code"
	EventReady       Event = "ready"
	EventDisconnect  Event = "disconnect"
	EventAuthFailure Event = "auth_failure"
	EventReconnect   Event = "reconnect"
)

// ReconnectPolicy bounds automatic reconnection after an unexpected disconnect.
// Delays grow exponentially from BaseDelay and are capped at MaxDelay.
type ReconnectPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultReconnectPolicy retries five times, from 2s up to 1m
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxDelay:    time.Minute,
	}
}

// Delay returns the wait before reconnect attempt n (1-based)
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Transition describes the outcome of a fired event
type Transition struct {
	From      models.RelayState
	To        models.RelayState
	Reconnect bool
	Delay     time.Duration
	Attempt   int
}

// Changed reports whether the state moved
func (t Transition) Changed() bool {
	return t.From != t.To
}

// StateMachine tracks the relay connection lifecycle. It is not safe for concurrent use;
// the owning Client serialises access.
type StateMachine struct {
	state    models.RelayState
	policy   ReconnectPolicy
	attempts int
}

func NewStateMachine(policy ReconnectPolicy) *StateMachine {
	return &StateMachine{
		state:  models.RelayStateUninitialized,
		policy: policy,
	}
}

func (m *StateMachine) State() models.RelayState {
	return m.state
}

// Attempts returns the number of reconnects scheduled since the last Ready
func (m *StateMachine) Attempts() int {
	return m.attempts
}

// Fire applies an event and returns the resulting transition
func (m *StateMachine) Fire(event Event) (Transition, error) {
	from := m.state
	t := Transition{From: from, To: from}

	switch event {
	case EventInit:
		switch from {
		case models.RelayStateUninitialized, models.RelayStateDisconnected:
			m.attempts = 0
			t.To = models.RelayStatePairing
		case models.RelayStatePairing, models.RelayStateReady:
			// already in progress or connected
		}

	case EventPairingCode:
		if from != models.RelayStatePairing {
			return t, invalid(from, event)
		}

	case EventReady:
		switch from {
		case models.RelayStatePairing, models.RelayStateReady:
			m.attempts = 0
			t.To = models.RelayStateReady
		default:
			return t, invalid(from, event)
		}

	case EventDisconnect:
		switch from {
		case models.RelayStatePairing, models.RelayStateReady:
			t.To = models.RelayStateDisconnected
			if m.attempts < m.policy.MaxAttempts {
				m.attempts++
				t.Reconnect = true
				t.Attempt = m.attempts
				t.Delay = m.policy.Delay(m.attempts)
			}
		case models.RelayStateDisconnected, models.RelayStateUninitialized:
			// duplicate disconnect notifications are ignored
		}

	case EventAuthFailure:
		if from == models.RelayStateUninitialized {
			return t, invalid(from, event)
		}
		m.attempts = 0
		t.To = models.RelayStateDisconnected

	case EventReconnect:
		if from != models.RelayStateDisconnected {
			return t, invalid(from, event)
		}
		t.To = models.RelayStatePairing

	default:
		return t, fmt.Errorf("unknown relay event %q: %w", event, ErrInvalidTransition)
	}

	m.state = t.To
	return t, nil
}

func invalid(state models.RelayState, event Event) error {
	return fmt.Errorf("event %q in state %q: %w", event, state, ErrInvalidTransition)
}
