// Package slot implements the slot container (mp.slot): a placeholder whose model
// asset can be swapped at runtime.
package slot

import (
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
)

// Input and output field names
const (
	InputModel = "model"

	OutputModel  = "model"
	OutputFilled = "filled"
)

// Slot publishes the asset URL it holds so the node's model loader can follow it
type Slot struct {
	component.Base
}

// New is the unit factory
func New(component.Dependencies) (component.Behavior, error) {
	return &Slot{}, nil
}

// Register registers the slot factory
func Register(registry *component.Registry) error {
	return registry.Register(component.Registration{
		Tag:         component.TagSlot,
		Kind:        component.KindSlot,
		Description: "Slot holding a swappable model asset",
		Factory:     New,
	})
}

// Inputs implements component.Behavior
func (s *Slot) Inputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: InputModel, Type: component.FieldString, Nullable: true,
			Description: "Asset URL of the model shown in the slot"},
	)
}

// Outputs implements component.Behavior
func (s *Slot) Outputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: OutputModel, Type: component.FieldString, Nullable: true},
		component.Field{Name: OutputFilled, Type: component.FieldBool, Default: false},
	)
}

// OnInit publishes the initial asset
func (s *Slot) OnInit(u *component.Unit) error {
	return s.publish(u)
}

// OnInputsUpdated publishes a changed asset
func (s *Slot) OnInputsUpdated(u *component.Unit, _ component.Snapshot) {
	if err := s.publish(u); err != nil {
		u.Logger().Warn("Slot publish failed", "error", err)
	}
}

func (s *Slot) publish(u *component.Unit) error {
	url, ok := component.Get[string](u.Inputs(), InputModel)
	if !ok || url == "" {
		if err := u.Outputs().Set(OutputModel, nil); err != nil {
			return err
		}
		return u.Outputs().Set(OutputFilled, false)
	}
	if err := u.Outputs().Set(OutputModel, url); err != nil {
		return err
	}
	return u.Outputs().Set(OutputFilled, true)
}
