// Package redistrict implements spec.md §4.9's redistricting state
// machine: Stable -> ChangeDetected -> Rebuilding -> DualValid -> Stable,
// and the minimum-rebuild-scope bookkeeping that goes with it.
package redistrict

import (
	"time"

	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/shared/atlaserr"
)

// State is one step in the per-layer/jurisdiction state machine.
type State string

const (
	StateStable         State = "Stable"
	StateChangeDetected State = "ChangeDetected"
	StateRebuilding     State = "Rebuilding"
	StateDualValid      State = "DualValid"
)

// Scope is the minimum rebuild scope spec.md §4.9 requires: the lowest
// level of change determines how much of the tree must be recomputed.
type Scope string

const (
	ScopeCell    Scope = "cell"    // cell content change: recompute the cell's leaf and ancestors
	ScopeRegion  Scope = "region"  // region-layer change: recompute region root and ancestors
	ScopeCountry Scope = "country" // country-layer change: recompute country root and ancestors
)

// Trigger records why a ChangeDetected transition fired.
type Trigger string

const (
	TriggerExternalEvent   Trigger = "external_event" // court order, legislative ping
	TriggerHasChangedSince Trigger = "has_changed_since"
	TriggerManual          Trigger = "manual"
)

// RedistrictingEvent is the append-only record an external validator
// consults to decide whether to accept a proof against the old or new
// root during a DualValid window (spec.md §4.9, §6).
type RedistrictingEvent struct {
	Jurisdiction      string
	Scope             Scope
	Trigger           Trigger
	State             State
	OldRoot           *poseidon.Field // nil until Rebuilding completes
	NewRoot           *poseidon.Field // nil until Rebuilding completes
	EffectiveDate     time.Time
	DualValidityUntil time.Time // zero until Rebuilding -> DualValid
}

// Machine drives one jurisdiction's state transitions. It holds no
// storage of its own and only enforces valid transitions;
// snapshot.Repository has no method for persisting a RedistrictingEvent.
type Machine struct {
	event              RedistrictingEvent
	dualValidityWindow time.Duration
}

// NewMachine starts a jurisdiction in StateStable.
func NewMachine(jurisdiction string, dualValidityWindow time.Duration) *Machine {
	return &Machine{
		event:              RedistrictingEvent{Jurisdiction: jurisdiction, State: StateStable},
		dualValidityWindow: dualValidityWindow,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.event.State
}

// Event returns a copy of the current event record for persistence.
func (m *Machine) Event() RedistrictingEvent {
	return m.event
}

// DetectChange transitions Stable -> ChangeDetected.
func (m *Machine) DetectChange(scope Scope, trigger Trigger) error {
	const op = "redistrict.DetectChange"
	if m.event.State != StateStable {
		return atlaserr.New(atlaserr.KindInvalidInput, op, "change can only be detected from Stable")
	}
	m.event.State = StateChangeDetected
	m.event.Scope = scope
	m.event.Trigger = trigger
	return nil
}

// BeginRebuild transitions ChangeDetected -> Rebuilding.
func (m *Machine) BeginRebuild() error {
	const op = "redistrict.BeginRebuild"
	if m.event.State != StateChangeDetected {
		return atlaserr.New(atlaserr.KindInvalidInput, op, "rebuild can only begin from ChangeDetected")
	}
	m.event.State = StateRebuilding
	return nil
}

// CompleteRebuild transitions Rebuilding -> DualValid, recording both
// roots and opening the dual-validity window (spec.md §4.9: "old root
// retained as also valid for dual_validity_until = effective_date +
// window").
func (m *Machine) CompleteRebuild(oldRoot, newRoot poseidon.Field, effectiveDate time.Time) error {
	const op = "redistrict.CompleteRebuild"
	if m.event.State != StateRebuilding {
		return atlaserr.New(atlaserr.KindInvalidInput, op, "rebuild can only complete from Rebuilding")
	}
	m.event.State = StateDualValid
	m.event.OldRoot = &oldRoot
	m.event.NewRoot = &newRoot
	m.event.EffectiveDate = effectiveDate
	m.event.DualValidityUntil = effectiveDate.Add(m.dualValidityWindow)
	return nil
}

// Settle transitions DualValid -> Stable once now is past
// DualValidityUntil.
func (m *Machine) Settle(now time.Time) error {
	const op = "redistrict.Settle"
	if m.event.State != StateDualValid {
		return atlaserr.New(atlaserr.KindInvalidInput, op, "can only settle from DualValid")
	}
	if now.Before(m.event.DualValidityUntil) {
		return atlaserr.New(atlaserr.KindInvalidInput, op, "dual validity window has not elapsed")
	}
	m.event.State = StateStable
	m.event.OldRoot = nil
	return nil
}

// AcceptsRoot reports whether root is currently an acceptable proof root
// for this jurisdiction: the current root always is; the superseded root
// is too, for as long as the DualValid window is open.
func (m *Machine) AcceptsRoot(root poseidon.Field, now time.Time) bool {
	if m.event.NewRoot != nil && root.Equal(*m.event.NewRoot) {
		return true
	}
	if m.event.State == StateDualValid && m.event.OldRoot != nil && root.Equal(*m.event.OldRoot) {
		return now.Before(m.event.DualValidityUntil)
	}
	return false
}
