package component

import (
	"fmt"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

type spyKey struct {
	unit  ComponentHandle
	event EventType
}

type spyEntry struct {
	id  SpyID
	spy Spy
}

// spyTable maps (unit, event type) to listeners in registration order
type spyTable struct {
	next  SpyID
	byKey map[spyKey][]spyEntry
	index map[SpyID]spyKey
}

func newSpyTable() spyTable {
	return spyTable{
		byKey: make(map[spyKey][]spyEntry),
		index: make(map[SpyID]spyKey),
	}
}

func (t *spyTable) add(key spyKey, spy Spy) SpyID {
	t.next++
	id := t.next
	t.byKey[key] = append(t.byKey[key], spyEntry{id: id, spy: spy})
	t.index[id] = key
	return id
}

func (t *spyTable) remove(id SpyID) bool {
	key, ok := t.index[id]
	if !ok {
		return false
	}
	delete(t.index, id)
	entries := t.byKey[key]
	for i, e := range entries {
		if e.id == id {
			entries = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(t.byKey, key)
	} else {
		t.byKey[key] = entries
	}
	return true
}

func (t *spyTable) removeUnit(h ComponentHandle) {
	for key, entries := range t.byKey {
		if key.unit != h {
			continue
		}
		for _, e := range entries {
			delete(t.index, e.id)
		}
		delete(t.byKey, key)
	}
}

func (t *spyTable) list(key spyKey) []spyEntry {
	entries := t.byKey[key]
	out := make([]spyEntry, len(entries))
	copy(out, entries)
	return out
}

func (t *spyTable) count(h ComponentHandle) int {
	n := 0
	for key, entries := range t.byKey {
		if key.unit == h {
			n += len(entries)
		}
	}
	return n
}

// SpyOnEvent registers spy for its event type on the unit. The type must be one the
// unit declares. Registering the same spy twice yields two deliveries per event.
func (rt *Runtime) SpyOnEvent(h ComponentHandle, spy Spy) (SpyID, error) {
	u, err := rt.unit(h, "SpyOnEvent")
	if err != nil {
		return 0, err
	}
	if spy == nil {
		return 0, errors.WrapInvalid(fmt.Errorf("nil spy"), "Runtime", "SpyOnEvent", "spy validation")
	}
	if !u.declares(spy.EventType()) {
		return 0, errors.WrapInvalid(
			fmt.Errorf("%w: %s on %s", errors.ErrEventNotDeclared, spy.EventType(), u.tag),
			"Runtime", "SpyOnEvent", "event check")
	}
	return rt.spies.add(spyKey{unit: h, event: spy.EventType()}, spy), nil
}

// Unspy removes a registration; it reports whether the id was registered
func (rt *Runtime) Unspy(id SpyID) bool {
	return rt.spies.remove(id)
}

// SpyCount returns the number of spies registered on the unit
func (rt *Runtime) SpyCount(h ComponentHandle) int {
	return rt.spies.count(h)
}

// Interact raises an interaction event on a started unit. The unit's OnEvent runs
// first, then every spy for (unit, type) in registration order. A failing spy does
// not stop delivery; failures come back joined under errors.ErrSpyFailed.
func (rt *Runtime) Interact(h ComponentHandle, e Event) error {
	u, err := rt.unit(h, "Interact")
	if err != nil {
		return err
	}
	switch u.state {
	case StateStarted:
	case StateUninitialized:
		return errors.WrapInvalid(
			fmt.Errorf("%w: component %s", errors.ErrNotInitialized, h),
			"Runtime", "Interact", "state check")
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: component %s is %s", errors.ErrNotStarted, h, u.state),
			"Runtime", "Interact", "state check")
	}
	if !u.declares(e.Type) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s on %s", errors.ErrEventNotDeclared, e.Type, u.tag),
			"Runtime", "Interact", "event check")
	}

	e.Node = u.node
	e.Component = h
	rt.metrics.RecordEventDispatched(string(e.Type))

	var unitErr error
	if err := u.behavior.OnEvent(u, e); err != nil {
		u.logger.Warn("Unit event handler failed", "event", string(e.Type), "error", err)
		unitErr = errors.Wrap(err, "Runtime", "Interact", fmt.Sprintf("%s on %s", e.Type, u.tag))
	}

	var failures []error
	for _, entry := range rt.spies.list(spyKey{unit: h, event: e.Type}) {
		if err := invokeSpy(entry.spy, e); err != nil {
			rt.logger.Warn("Event spy failed",
				"spy", uint64(entry.id), "event", string(e.Type), "target", h.String(), "error", err)
			rt.metrics.RecordSpyFailure(string(e.Type))
			failures = append(failures, fmt.Errorf("spy %d: %w", entry.id, err))
		}
	}

	if len(failures) == 0 {
		return unitErr
	}
	spyErr := fmt.Errorf("%w: %w", errors.ErrSpyFailed, errors.Join(failures...))
	return errors.Join(unitErr, errors.Wrap(spyErr, "Runtime", "Interact", "spy dispatch"))
}

func invokeSpy(spy Spy, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return spy.OnEvent(e)
}
