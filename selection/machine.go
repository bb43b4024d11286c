// Package selection implements the slot selection state machine driven by clicks
// on selection boxes.
//
// At most one slot is selected. Clicking an unselected slot selects it and focuses
// the camera on it, clicking the selected slot deselects it, and clicking another
// slot moves the selection. Boxes that belong to no slot are ignored.
package selection

import (
	"log/slog"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/catalog"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/discovery"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/metric"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/box"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/camera"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/model"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/slot"
)

// Palettes re-exported for callers that only import selection
var (
	SelectedPalette   = box.Selected
	UnselectedPalette = box.Unselected
)

// Config wires a Machine
type Config struct {
	// CameraInput receives focus and suppressClick writes; the zero handle disables them
	CameraInput component.ComponentHandle
	Catalog     *catalog.Catalog
	Logger      *slog.Logger
	Metrics     *metric.Metrics
	Notifiers   []Notifier
}

// Machine is the selection state. It is driven from the runtime loop and is not
// safe for concurrent use.
type Machine struct {
	rt          *component.Runtime
	cameraInput component.ComponentHandle
	catalog     *catalog.Catalog
	notifiers   []Notifier
	logger      *slog.Logger
	metrics     *metric.Metrics

	slots   []discovery.SlotNode
	current int
}

// New creates a machine in the NoSelection state
func New(rt *component.Runtime, cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		rt:          rt,
		cameraInput: cfg.CameraInput,
		catalog:     cfg.Catalog,
		notifiers:   cfg.Notifiers,
		logger:      logger.With("component", "selection"),
		metrics:     cfg.Metrics,
		current:     -1,
	}
}

// SetSlots replaces the known slot nodes and clears the selection
func (m *Machine) SetSlots(slots []discovery.SlotNode) {
	m.slots = append(m.slots[:0], slots...)
	m.current = -1
}

// AddNotifier appends a notifier
func (m *Machine) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// ClickSpy returns the spy registered on every selection box for clicks
func (m *Machine) ClickSpy() component.Spy {
	return component.SpyFunc(component.EventClick, m.HandleClick)
}

// HoverSpy returns the spy registered on every selection box for hover changes
func (m *Machine) HoverSpy() component.Spy {
	return component.SpyFunc(component.EventHover, m.HandleHover)
}

// Spies returns both box spies
func (m *Machine) Spies() []component.Spy {
	return []component.Spy{m.ClickSpy(), m.HoverSpy()}
}

// Selected returns the selected slot
func (m *Machine) Selected() (discovery.SlotNode, bool) {
	if m.current < 0 {
		return discovery.SlotNode{}, false
	}
	return m.slots[m.current], true
}

// Category returns the catalog category of the selected slot
func (m *Machine) Category() (string, bool) {
	s, ok := m.Selected()
	if !ok || m.catalog == nil {
		return "", false
	}
	return m.catalog.CategoryOf(s.Name)
}

// Items returns the catalog items offered for the selected slot
func (m *Machine) Items() []catalog.Item {
	category, ok := m.Category()
	if !ok {
		return nil
	}
	return m.catalog.ItemsFor(category)
}

// HandleClick applies a box click to the selection
func (m *Machine) HandleClick(e component.Event) error {
	target := m.slotIndex(e.Node)
	if target < 0 {
		m.logger.Debug("Click outside any slot ignored", "component_handle", e.Component.String())
		return nil
	}

	// every handle is checked before anything is written, so a failed click
	// leaves the previous selection intact
	previous := m.current
	if err := m.check(previous, target); err != nil {
		return err
	}

	var transition string
	switch {
	case previous == target:
		if err := m.paint(previous, box.Unselected); err != nil {
			return err
		}
		m.current = -1
		transition = TransitionDeselect
		if err := m.focus(nil); err != nil {
			return err
		}
	default:
		pos, err := m.rt.Position(m.slots[target].Node)
		if err != nil {
			return errors.Wrap(err, "Machine", "HandleClick", "read slot position")
		}
		if err := m.paint(target, box.Selected); err != nil {
			return err
		}
		if previous >= 0 {
			if err := m.paint(previous, box.Unselected); err != nil {
				_ = m.paint(target, box.Unselected)
				return err
			}
		}
		m.current = target
		transition = TransitionSelect
		if previous >= 0 {
			transition = TransitionSwitch
		}
		if err := m.focus(pos); err != nil {
			return err
		}
	}

	m.metrics.RecordSelectionTransition(transition)
	m.notify(m.change(transition, previous))
	return nil
}

// HandleHover suppresses camera click handling while the pointer is over a box
func (m *Machine) HandleHover(e component.Event) error {
	if !m.hasCamera() {
		return nil
	}
	if err := m.rt.SetInput(m.cameraInput, camera.InputSuppressClick, !e.Hover); err != nil {
		return errors.Wrap(err, "Machine", "HandleHover", "write suppressClick")
	}
	return nil
}

// Assign places item into the selected slot: the slot's model reference and the
// model unit's url and local transform.
func (m *Machine) Assign(item catalog.Item) error {
	s, ok := m.Selected()
	if !ok {
		return errors.WrapInvalid(errors.ErrNoSelection, "Machine", "Assign", "check selection")
	}

	if err := m.rt.SetInput(s.Slot, slot.InputModel, item.URL); err != nil {
		return errors.Wrap(err, "Machine", "Assign", "write slot model")
	}

	in, err := m.rt.Inputs(s.Model)
	if err != nil {
		return errors.Wrap(err, "Machine", "Assign", "model inputs")
	}
	writes := []struct {
		name  string
		value any
	}{
		{model.InputURL, item.URL},
		{model.InputLocalPosition, item.Position},
		{model.InputLocalRotation, item.Rotation},
		{model.InputLocalScale, item.Scale},
	}
	for _, w := range writes {
		if err := in.Set(w.name, w.value); err != nil {
			return errors.Wrap(err, "Machine", "Assign", "write model "+w.name)
		}
	}

	m.logger.Info("Item assigned", "slot", s.Name, "item", item.Name)
	return nil
}

// AssignByName looks item up in the catalog and assigns it
func (m *Machine) AssignByName(name string) error {
	if m.catalog == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Machine", "AssignByName", "catalog lookup")
	}
	item, ok := m.catalog.Item(name)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidData, "Machine", "AssignByName", "unknown item "+name)
	}
	return m.Assign(item)
}

func (m *Machine) slotIndex(n component.NodeHandle) int {
	for i, s := range m.slots {
		if s.Node == n && s.HasBox {
			return i
		}
	}
	return -1
}

// check verifies the camera input and the boxes and nodes of the given slots are live
func (m *Machine) check(slots ...int) error {
	if m.hasCamera() {
		if _, err := m.rt.Inputs(m.cameraInput); err != nil {
			return errors.Wrap(err, "Machine", "HandleClick", "camera input lookup")
		}
	}
	for _, i := range slots {
		if i < 0 {
			continue
		}
		s := m.slots[i]
		if _, err := m.rt.Position(s.Node); err != nil {
			return errors.Wrap(err, "Machine", "HandleClick", "slot node lookup")
		}
		if !s.HasBox {
			continue
		}
		if _, err := m.rt.Inputs(s.Box); err != nil {
			return errors.Wrap(err, "Machine", "HandleClick", "slot box lookup")
		}
	}
	return nil
}

func (m *Machine) paint(i int, p box.Palette) error {
	s := m.slots[i]
	if !s.HasBox {
		return nil
	}
	if err := box.Apply(m.rt, s.Box, p); err != nil {
		return errors.Wrap(err, "Machine", "HandleClick", "apply palette")
	}
	return nil
}

func (m *Machine) hasCamera() bool {
	return m.cameraInput.IsValid()
}

func (m *Machine) focus(v any) error {
	if !m.hasCamera() {
		return nil
	}
	if err := m.rt.SetInput(m.cameraInput, camera.InputFocus, v); err != nil {
		return errors.Wrap(err, "Machine", "HandleClick", "write camera focus")
	}
	return nil
}

func (m *Machine) change(transition string, previous int) Change {
	c := Change{Transition: transition}
	if previous >= 0 {
		c.Previous = m.slots[previous].Name
	}
	if s, ok := m.Selected(); ok {
		c.Slot = s.Name
		c.Node = s.Node
		c.Category, _ = m.Category()
		c.Items = m.Items()
	}
	return c
}

func (m *Machine) notify(c Change) {
	for _, n := range m.notifiers {
		err := n.SelectionChanged(c)
		m.metrics.RecordNotification(sinkName(n), err)
		if err != nil {
			m.logger.Warn("Selection notification failed", "sink", sinkName(n), "error", err)
		}
	}
}
