package types

import (
	"fmt"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

// ComponentConfig describes one component attached to a scene node in a scene asset.
// Type is the host SDK type tag (e.g. "mp.slot"); Inputs are written onto the
// component's input record before the node starts.
type ComponentConfig struct {
	Type   string         `json:"type" yaml:"type"`
	Inputs map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Validate ensures the component configuration is valid
func (c ComponentConfig) Validate() error {
	if c.Type == "" {
		return errors.WrapInvalid(
			errors.ErrMissingConfig,
			"ComponentConfig",
			"Validate",
			"component type cannot be empty",
		)
	}
	return nil
}

// NodeConfig describes a scene node: its name, transform and components in
// attachment order. Rotation is Euler degrees (YXZ).
type NodeConfig struct {
	Name       string            `json:"name" yaml:"name"`
	Position   Vector3           `json:"position" yaml:"position"`
	Rotation   Vector3           `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Scale      *Vector3          `json:"scale,omitempty" yaml:"scale,omitempty"`
	Components []ComponentConfig `json:"components" yaml:"components"`
}

// Validate ensures the node configuration is valid
func (n NodeConfig) Validate() error {
	if n.Name == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "NodeConfig", "Validate", "node name cannot be empty")
	}
	for i, c := range n.Components {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("node %s component %d: %w", n.Name, i, err)
		}
	}
	return nil
}

// ScaleOrOne returns the configured scale, or the identity scale when unset
func (n NodeConfig) ScaleOrOne() Vector3 {
	if n.Scale == nil {
		return One
	}
	return *n.Scale
}
