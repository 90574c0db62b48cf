// Package staffimport runs the two-step staff list import. A parsed list can
// be merged straight away; replacing the list is destructive and needs a
// second, explicit confirmation.
package staffimport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"park-ops/internal/models"
)

type State int

const (
	Idle State = iota
	PendingImport
	AwaitingReplaceConfirmation
	Merged
	Replaced
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingImport:
		return "pendingImport"
	case AwaitingReplaceConfirmation:
		return "awaitingReplaceConfirmation"
	case Merged:
		return "merged"
	case Replaced:
		return "replaced"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the import is over.
func (s State) Terminal() bool {
	return s == Merged || s == Replaced || s == Cancelled
}

var ErrInvalidTransition = errors.New("staffimport: invalid transition")

// Applier writes an accepted import to the store.
type Applier interface {
	Merge(ctx context.Context, kind models.StaffKind, names []string, user string) (Outcome, error)
	Replace(ctx context.Context, kind models.StaffKind, names []string, user string) (Outcome, error)
}

// Machine holds one import from upload to its outcome.
type Machine struct {
	mu      sync.Mutex
	applier Applier
	state   State
	kind    models.StaffKind
	names   []string
	outcome *Outcome
}

func NewMachine(applier Applier) *Machine {
	return &Machine{applier: applier, state: Idle}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Names returns the parsed list waiting to be applied.
func (m *Machine) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}

func (m *Machine) Kind() models.StaffKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind
}

// Outcome is set once the import was merged or replaced.
func (m *Machine) Outcome() *Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Load starts an import from Idle, or from a finished import.
func (m *Machine) Load(kind models.StaffKind, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle && !m.state.Terminal() {
		return m.invalid("load")
	}
	if len(names) == 0 {
		return fmt.Errorf("staffimport: no names to import")
	}
	m.kind = kind
	m.names = append([]string(nil), names...)
	m.outcome = nil
	m.state = PendingImport
	return nil
}

func (m *Machine) Merge(ctx context.Context, user string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != PendingImport {
		return Outcome{}, m.invalid("merge")
	}
	out, err := m.applier.Merge(ctx, m.kind, m.names, user)
	if err != nil {
		return Outcome{}, err
	}
	m.outcome = &out
	m.state = Merged
	return out, nil
}

// RequestReplace asks for the destructive path. Nothing is written yet.
func (m *Machine) RequestReplace() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != PendingImport {
		return m.invalid("request replace")
	}
	m.state = AwaitingReplaceConfirmation
	return nil
}

func (m *Machine) ConfirmReplace(ctx context.Context, user string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != AwaitingReplaceConfirmation {
		return Outcome{}, m.invalid("confirm replace")
	}
	out, err := m.applier.Replace(ctx, m.kind, m.names, user)
	if err != nil {
		return Outcome{}, err
	}
	m.outcome = &out
	m.state = Replaced
	return out, nil
}

func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != PendingImport && m.state != AwaitingReplaceConfirmation {
		return m.invalid("cancel")
	}
	m.state = Cancelled
	return nil
}

// Reset returns a finished import to Idle.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Terminal() && m.state != Idle {
		return m.invalid("reset")
	}
	m.state = Idle
	m.names = nil
	return nil
}

func (m *Machine) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, m.state)
}
