// Package unitregistry registers every showroom unit with a component registry.
package unitregistry

import (
	"errors"

	capdev "github.com/rodvb29/Furniture-Adding-by-Matterport/capture"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	pkgerrors "github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/box"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/camera"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/capture"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/model"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/slot"
)

// Options carries the external collaborators some units need
type Options struct {
	Devices  capdev.Devices  // Capture devices for the preview unit (can be nil)
	PoseSink camera.PoseSink // Receives applied camera poses (can be nil)
}

// Register registers all showroom units:
//   - slot, model loader and oriented box (the slot triple found by discovery)
//   - camera input and camera control
//   - capture preview
func Register(registry *component.Registry, opts Options) error {
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"UnitRegistry", "Register", "registry validation")
	}

	if err := slot.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "UnitRegistry", "Register", "slot unit registration")
	}
	if err := model.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "UnitRegistry", "Register", "model unit registration")
	}
	if err := box.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "UnitRegistry", "Register", "box unit registration")
	}
	if err := camera.Register(registry, opts.PoseSink); err != nil {
		return pkgerrors.WrapInvalid(err, "UnitRegistry", "Register", "camera unit registration")
	}
	if err := capture.Register(registry, opts.Devices); err != nil {
		return pkgerrors.WrapInvalid(err, "UnitRegistry", "Register", "capture unit registration")
	}
	return nil
}
