package camera

import (
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// Camera fields
const (
	InputCamera = "camera"

	OutputPose = "pose"
)

// PoseSink receives every pose the camera applies
type PoseSink func(types.Pose)

// Camera applies the pose bound to its input
type Camera struct {
	component.Base
	sink    PoseSink
	applied int
}

// NewFactory returns a camera factory that forwards applied poses to sink
func NewFactory(sink PoseSink) component.Factory {
	return func(component.Dependencies) (component.Behavior, error) {
		return &Camera{sink: sink}, nil
	}
}

// Register registers both camera units. sink may be nil.
func Register(registry *component.Registry, sink PoseSink) error {
	if err := registry.Register(component.Registration{
		Tag:         component.TagCameraInput,
		Kind:        component.KindCameraInput,
		Description: "Virtual camera input",
		Factory:     NewInput,
	}); err != nil {
		return err
	}
	return registry.Register(component.Registration{
		Tag:         component.TagCamera,
		Kind:        component.KindCamera,
		Description: "Host camera control",
		Factory:     NewFactory(sink),
	})
}

// Inputs implements component.Behavior
func (c *Camera) Inputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: InputCamera, Type: component.FieldPose, Nullable: true},
	)
}

// Outputs implements component.Behavior
func (c *Camera) Outputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: OutputPose, Type: component.FieldPose, Nullable: true},
	)
}

// Applied returns how many poses were applied
func (c *Camera) Applied() int {
	return c.applied
}

// OnInputsUpdated applies the new pose
func (c *Camera) OnInputsUpdated(u *component.Unit, _ component.Snapshot) {
	pose, ok := component.Get[types.Pose](u.Inputs(), InputCamera)
	if !ok {
		return
	}
	c.applied++
	if err := u.Outputs().Set(OutputPose, pose); err != nil {
		u.Logger().Warn("Camera output failed", "error", err)
		return
	}
	if c.sink != nil {
		c.sink(pose)
	}
}
