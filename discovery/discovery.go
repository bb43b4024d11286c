// Package discovery finds slot nodes in a loaded scene: nodes carrying both a slot and
// a model unit, optionally with a selection box.
package discovery

import (
	"log/slog"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/box"
)

// SlotNode groups the units of one slot. It is not modified after discovery.
type SlotNode struct {
	Node   component.NodeHandle
	Name   string
	Slot   component.ComponentHandle
	Model  component.ComponentHandle
	Box    component.ComponentHandle
	HasBox bool
}

// Discoverer is the per-node visitor handed to the scene loader.
// Every box it sees gets the spies and the unselected palette, whether or not its
// node turns out to be a slot node.
type Discoverer struct {
	rt     *component.Runtime
	spies  []component.Spy
	logger *slog.Logger
	slots  []SlotNode
}

// New creates a discoverer that registers spies on every box it finds
func New(rt *component.Runtime, logger *slog.Logger, spies ...component.Spy) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{
		rt:     rt,
		spies:  spies,
		logger: logger.With("component", "discovery"),
	}
}

// Visit classifies one node's units. It is called once per node.
func (d *Discoverer) Visit(n component.NodeHandle) error {
	comps, err := d.rt.Components(n)
	if err != nil {
		return errors.Wrap(err, "Discoverer", "Visit", "list components")
	}

	var found SlotNode
	var hasSlot, hasModel bool
	for _, h := range comps {
		kind, err := d.rt.Kind(h)
		if err != nil {
			return errors.Wrap(err, "Discoverer", "Visit", "read kind")
		}

		switch kind {
		case component.KindSlot:
			found.Slot, hasSlot = h, true
		case component.KindModel:
			found.Model, hasModel = h, true
		case component.KindBox:
			found.Box, found.HasBox = h, true
			if err := d.prepareBox(h); err != nil {
				return err
			}
		case component.KindCamera, component.KindCameraInput, component.KindCapture, component.KindOther:
		}
	}

	if !hasSlot || !hasModel {
		return nil
	}

	found.Node = n
	found.Name, _ = d.rt.NodeName(n)
	d.slots = append(d.slots, found)
	d.logger.Debug("Slot discovered", "node", found.Name, "has_box", found.HasBox)
	return nil
}

func (d *Discoverer) prepareBox(h component.ComponentHandle) error {
	for _, spy := range d.spies {
		if _, err := d.rt.SpyOnEvent(h, spy); err != nil {
			return errors.Wrap(err, "Discoverer", "Visit", "register box spy")
		}
	}
	if err := box.Apply(d.rt, h, box.Unselected); err != nil {
		return errors.Wrap(err, "Discoverer", "Visit", "apply unselected palette")
	}
	return nil
}

// Slots returns the slot nodes found so far, in visit order
func (d *Discoverer) Slots() []SlotNode {
	out := make([]SlotNode, len(d.slots))
	copy(out, d.slots)
	return out
}

// Discover visits every node once and returns the slot nodes
func Discover(rt *component.Runtime, nodes []component.NodeHandle, spies ...component.Spy) ([]SlotNode, error) {
	d := New(rt, nil, spies...)
	for _, n := range nodes {
		if err := d.Visit(n); err != nil {
			return nil, err
		}
	}
	return d.Slots(), nil
}
