package box

import (
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// Palette is the highlight state written to a box's inputs
type Palette struct {
	Color       types.Color
	Opacity     float64
	LineOpacity float64
}

var (
	// Selected highlights the active slot
	Selected = Palette{Color: 0xffff00, Opacity: 0.1, LineOpacity: 1.0}
	// Unselected is the resting look of every other slot
	Unselected = Palette{Color: 0xffffff, Opacity: 0.04, LineOpacity: 0.4}
)

// Apply writes p to the box's inputs
func Apply(rt *component.Runtime, h component.ComponentHandle, p Palette) error {
	in, err := rt.Inputs(h)
	if err != nil {
		return err
	}
	if err := in.Set(InputColor, p.Color); err != nil {
		return err
	}
	if err := in.Set(InputOpacity, p.Opacity); err != nil {
		return err
	}
	return in.Set(InputLineOpacity, p.LineOpacity)
}

// Current reads the palette currently on the box's inputs
func Current(rt *component.Runtime, h component.ComponentHandle) (Palette, error) {
	in, err := rt.Inputs(h)
	if err != nil {
		return Palette{}, err
	}
	var p Palette
	p.Color, _ = component.Get[types.Color](in, InputColor)
	p.Opacity, _ = component.Get[float64](in, InputOpacity)
	p.LineOpacity, _ = component.Get[float64](in, InputLineOpacity)
	return p, nil
}
