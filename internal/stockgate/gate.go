// Package stockgate makes the operator acknowledge twice before an
// out-of-stock product lands on a bill.
package stockgate

import (
	"errors"
	"fmt"

	"github.com/noah-isme/backend-kasir/internal/catalog"
)

// ErrInvalidTransition is returned when an action does not apply to the current state.
var ErrInvalidTransition = errors.New("stockgate: invalid transition")

// State is the position of the gate.
type State int

const (
	// Normal holds no candidate; selections are accepted.
	Normal State = iota
	// WarningShown holds an out-of-stock candidate awaiting "continue".
	WarningShown
	// ConfirmShown awaits the final confirmation before the candidate is added.
	ConfirmShown
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case WarningShown:
		return "warning_shown"
	case ConfirmShown:
		return "confirm_shown"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Decision tells the caller what to do with a selection.
type Decision int

const (
	// DecisionAdd means the candidate may be added straight away.
	DecisionAdd Decision = iota
	// DecisionWarn means the candidate is held until confirmed.
	DecisionWarn
)

func (d Decision) String() string {
	if d == DecisionWarn {
		return "warn"
	}
	return "add"
}

// Candidate is the selection the gate is deciding on.
type Candidate struct {
	Product     catalog.Product
	Unit        string
	RawQuantity string
}

// Gate is a small state machine. It is not safe for concurrent use.
type Gate struct {
	state   State
	pending *Candidate
}

// State returns the current state.
func (g *Gate) State() State { return g.state }

// Pending returns the held candidate, if any.
func (g *Gate) Pending() (Candidate, bool) {
	if g.pending == nil {
		return Candidate{}, false
	}
	return *g.pending, true
}

// Select evaluates a new selection. In-stock products bypass the gate in any
// state and leave a pending warning untouched. A second out-of-stock product
// cannot be held while one is already waiting.
func (g *Gate) Select(c Candidate) (Decision, error) {
	if c.Product.InStock() {
		return DecisionAdd, nil
	}
	if g.state != Normal {
		return DecisionAdd, fmt.Errorf("select in %s: %w", g.state, ErrInvalidTransition)
	}
	g.pending = &c
	g.state = WarningShown
	return DecisionWarn, nil
}

// Continue moves past the warning to the confirmation step.
func (g *Gate) Continue() error {
	if g.state != WarningShown {
		return fmt.Errorf("continue in %s: %w", g.state, ErrInvalidTransition)
	}
	g.state = ConfirmShown
	return nil
}

// Confirm releases the held candidate and resets the gate.
func (g *Gate) Confirm() (Candidate, error) {
	if g.state != ConfirmShown || g.pending == nil {
		return Candidate{}, fmt.Errorf("confirm in %s: %w", g.state, ErrInvalidTransition)
	}
	c := *g.pending
	g.reset()
	return c, nil
}

// Cancel drops any held candidate. It is valid in every state.
func (g *Gate) Cancel() {
	g.reset()
}

func (g *Gate) reset() {
	g.state = Normal
	g.pending = nil
}
