package component

import (
	"context"
	"log/slog"
	"time"
)

// Behavior is the contract every unit implements. Hooks run on the tick goroutine.
type Behavior interface {
	Inputs() Schema
	Outputs() Schema
	Events() []EventType

	OnInit(u *Unit) error
	OnTick(u *Unit, delta time.Duration)
	OnInputsUpdated(u *Unit, old Snapshot)
	OnEvent(u *Unit, e Event) error
	OnDestroy(u *Unit)
}

// Base provides no-op hooks and empty schemas for embedding
type Base struct{}

func (Base) Inputs() Schema { return Schema{} }
func (Base) Outputs() Schema { return Schema{} }
func (Base) Events() []EventType { return nil }
func (Base) OnInit(*Unit) error { return nil }
func (Base) OnTick(*Unit, time.Duration) {}
func (Base) OnInputsUpdated(*Unit, Snapshot) {}
func (Base) OnEvent(*Unit, Event) error { return nil }
func (Base) OnDestroy(*Unit) {}

// Unit is the runtime's record of one attached behavior.
// Hooks see inputs read-only and outputs writable.
type Unit struct {
	rt       *Runtime
	handle   ComponentHandle
	node     NodeHandle
	tag      string
	kind     Kind
	behavior Behavior
	state    State

	inputs   *Record
	outputs  *Record
	baseline Snapshot
	events   map[EventType]bool

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// Handle returns the unit's handle
func (u *Unit) Handle() ComponentHandle { return u.handle }

// Node returns the owning node
func (u *Unit) Node() NodeHandle { return u.node }

// Tag returns the host type tag
func (u *Unit) Tag() string { return u.tag }

// Kind returns the unit kind
func (u *Unit) Kind() Kind { return u.kind }

// State returns the lifecycle state
func (u *Unit) State() State { return u.state }

// Inputs returns the read-only input record
func (u *Unit) Inputs() View { return u.inputs.View() }

// Outputs returns the writable output record
func (u *Unit) Outputs() *Record { return u.outputs }

// Context is cancelled when the unit is destroyed
func (u *Unit) Context() context.Context { return u.ctx }

// Logger returns a logger carrying the unit's identity
func (u *Unit) Logger() *slog.Logger { return u.logger }

// Runtime returns the owning runtime
func (u *Unit) Runtime() *Runtime { return u.rt }

// Alive reports whether the unit has not been destroyed
func (u *Unit) Alive() bool { return u.state != StateDestroyed }

func (u *Unit) declares(t EventType) bool {
	return u.events[t]
}
