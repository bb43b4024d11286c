// Package model implements the displayed model loader (mp.fbxLoader)
package model

import (
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// Input and output field names
const (
	InputURL           = "url"
	InputLocalPosition = "localPosition"
	InputLocalRotation = "localRotation"
	InputLocalScale    = "localScale"
	InputVisible       = "visible"

	OutputLoadedURL     = "loadedUrl"
	OutputStatus        = "status"
	OutputLocalPosition = "localPosition"
	OutputLocalRotation = "localRotation"
	OutputLocalScale    = "localScale"
)

// Load status values
const (
	StatusEmpty  = "empty"
	StatusLoaded = "loaded"
)

// Model shows one asset with a local transform relative to its node
type Model struct {
	component.Base
	loads int
}

// New is the unit factory
func New(component.Dependencies) (component.Behavior, error) {
	return &Model{}, nil
}

// Register registers the model loader factory
func Register(registry *component.Registry) error {
	return registry.Register(component.Registration{
		Tag:         component.TagModel,
		Kind:        component.KindModel,
		Description: "FBX model loader",
		Factory:     New,
	})
}

// Inputs implements component.Behavior
func (m *Model) Inputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: InputURL, Type: component.FieldString, Nullable: true},
		component.Field{Name: InputLocalPosition, Type: component.FieldVector3, Default: types.Vector3{}},
		component.Field{Name: InputLocalRotation, Type: component.FieldVector3, Default: types.Vector3{},
			Description: "Euler degrees"},
		component.Field{Name: InputLocalScale, Type: component.FieldVector3, Default: types.One},
		component.Field{Name: InputVisible, Type: component.FieldBool, Default: true},
	)
}

// Outputs implements component.Behavior
func (m *Model) Outputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: OutputLoadedURL, Type: component.FieldString, Nullable: true},
		component.Field{Name: OutputStatus, Type: component.FieldString, Default: StatusEmpty},
		component.Field{Name: OutputLocalPosition, Type: component.FieldVector3, Default: types.Vector3{}},
		component.Field{Name: OutputLocalRotation, Type: component.FieldVector3, Default: types.Vector3{}},
		component.Field{Name: OutputLocalScale, Type: component.FieldVector3, Default: types.One},
	)
}

// Loads returns how many distinct assets were loaded
func (m *Model) Loads() int {
	return m.loads
}

// OnInit applies the initial inputs
func (m *Model) OnInit(u *component.Unit) error {
	return m.apply(u, "")
}

// OnInputsUpdated reloads when the URL changed and reapplies the transform
func (m *Model) OnInputsUpdated(u *component.Unit, old component.Snapshot) {
	prev, _ := component.Get[string](old, InputURL)
	if err := m.apply(u, prev); err != nil {
		u.Logger().Warn("Model update failed", "error", err)
	}
}

func (m *Model) apply(u *component.Unit, prevURL string) error {
	in := u.Inputs()
	out := u.Outputs()

	url, _ := component.Get[string](in, InputURL)
	switch {
	case url == "":
		if err := out.Set(OutputLoadedURL, nil); err != nil {
			return err
		}
		if err := out.Set(OutputStatus, StatusEmpty); err != nil {
			return err
		}
	case url != prevURL:
		m.loads++
		u.Logger().Info("Model loaded", "url", url)
		if err := out.Set(OutputLoadedURL, url); err != nil {
			return err
		}
		if err := out.Set(OutputStatus, StatusLoaded); err != nil {
			return err
		}
	}

	for _, name := range []string{InputLocalPosition, InputLocalRotation, InputLocalScale} {
		v, _ := component.Get[types.Vector3](in, name)
		if err := out.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}
