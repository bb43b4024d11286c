// Package box implements the oriented box selection volume (mp.orientedBox)
package box

import (
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// Input and output field names
const (
	InputColor       = "color"
	InputOpacity     = "opacity"
	InputLineOpacity = "lineOpacity"
	InputSize        = "size"
	InputVisible     = "visible"

	OutputHovered = "hovered"
)

// Box is a translucent, outlined box that raises click and hover events
type Box struct {
	component.Base
}

// New is the unit factory
func New(component.Dependencies) (component.Behavior, error) {
	return &Box{}, nil
}

// Register registers the box factory
func Register(registry *component.Registry) error {
	return registry.Register(component.Registration{
		Tag:         component.TagBox,
		Kind:        component.KindBox,
		Description: "Oriented box selection volume",
		Factory:     New,
	})
}

// Inputs implements component.Behavior
func (b *Box) Inputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: InputColor, Type: component.FieldColor, Default: 0xffffff},
		component.Field{Name: InputOpacity, Type: component.FieldFloat, Default: 0.1},
		component.Field{Name: InputLineOpacity, Type: component.FieldFloat, Default: 1.0},
		component.Field{Name: InputSize, Type: component.FieldVector3, Default: types.One},
		component.Field{Name: InputVisible, Type: component.FieldBool, Default: true},
	)
}

// Outputs implements component.Behavior
func (b *Box) Outputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: OutputHovered, Type: component.FieldBool, Default: false},
	)
}

// Events implements component.Behavior
func (b *Box) Events() []component.EventType {
	return []component.EventType{component.EventClick, component.EventHover}
}

// OnEvent tracks the hover state
func (b *Box) OnEvent(u *component.Unit, e component.Event) error {
	if e.Type == component.EventHover {
		return u.Outputs().Set(OutputHovered, e.Hover)
	}
	return nil
}
