// Package camera implements the camera control pair: a camera input unit that owns
// the virtual camera pose (mp.cameraInput) and a camera unit that applies a bound pose
// to the host camera (mp.camera).
package camera

import (
	"math"
	"time"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// Camera input fields
const (
	InputFocus         = "focus"
	InputSuppressClick = "suppressClick"
	InputFocusDistance = "focusDistance"
	InputFocusSpeed    = "focusSpeed"
	InputStartPose     = "startPose"

	OutputCamera    = "camera"
	OutputLastClick = "lastClick"
)

const (
	dragRadiansPerUnit = 0.005
	maxPitch           = math.Pi/2 - 0.01
)

// Input moves the virtual camera: it eases towards a focus point when one is set and
// turns on drag events.
type Input struct {
	component.Base
	pose       types.Pose
	yaw, pitch float64
}

// NewInput is the camera input factory
func NewInput(component.Dependencies) (component.Behavior, error) {
	return &Input{pose: types.Pose{Rotation: types.IdentityQuaternion}}, nil
}

// Inputs implements component.Behavior
func (c *Input) Inputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: InputFocus, Type: component.FieldVector3, Nullable: true,
			Description: "World point to move towards; nil releases focus"},
		component.Field{Name: InputSuppressClick, Type: component.FieldBool, Default: false},
		component.Field{Name: InputFocusDistance, Type: component.FieldFloat, Default: 2.5},
		component.Field{Name: InputFocusSpeed, Type: component.FieldFloat, Default: 4.0},
		component.Field{Name: InputStartPose, Type: component.FieldPose, Nullable: true},
	)
}

// Outputs implements component.Behavior
func (c *Input) Outputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: OutputCamera, Type: component.FieldPose, Nullable: true},
		component.Field{Name: OutputLastClick, Type: component.FieldVector3, Nullable: true},
	)
}

// Events implements component.Behavior
func (c *Input) Events() []component.EventType {
	return []component.EventType{component.EventClick, component.EventDrag}
}

// OnInit adopts the start pose
func (c *Input) OnInit(u *component.Unit) error {
	c.adoptStartPose(u)
	return u.Outputs().Set(OutputCamera, c.pose)
}

// OnInputsUpdated re-seeds the pose when a new start pose arrives
func (c *Input) OnInputsUpdated(u *component.Unit, old component.Snapshot) {
	prev, _ := old.Get(InputStartPose)
	cur, _ := u.Inputs().Get(InputStartPose)
	if cur != nil && cur != prev {
		c.adoptStartPose(u)
		if err := u.Outputs().Set(OutputCamera, c.pose); err != nil {
			u.Logger().Warn("Camera output failed", "error", err)
		}
	}
}

func (c *Input) adoptStartPose(u *component.Unit) {
	p, ok := component.Get[types.Pose](u.Inputs(), InputStartPose)
	if !ok {
		return
	}
	c.pose = p
}

// OnTick eases the camera towards the focus point
func (c *Input) OnTick(u *component.Unit, delta time.Duration) {
	focus, ok := component.Get[types.Vector3](u.Inputs(), InputFocus)
	if !ok {
		return
	}
	distance, _ := component.Get[float64](u.Inputs(), InputFocusDistance)
	speed, _ := component.Get[float64](u.Inputs(), InputFocusSpeed)

	target := focus.Add(types.Vec3(
		distance*math.Sin(c.yaw),
		0,
		distance*math.Cos(c.yaw),
	))
	t := speed * delta.Seconds()
	c.pose.Position = c.pose.Position.Lerp(target, t)
	if err := u.Outputs().Set(OutputCamera, c.pose); err != nil {
		u.Logger().Warn("Camera output failed", "error", err)
	}
}

// OnEvent handles clicks unless suppressed, and turns the camera on drag
func (c *Input) OnEvent(u *component.Unit, e component.Event) error {
	switch e.Type {
	case component.EventClick:
		if suppressed, _ := component.Get[bool](u.Inputs(), InputSuppressClick); suppressed {
			return nil
		}
		return u.Outputs().Set(OutputLastClick, e.Point)
	case component.EventDrag:
		dx, _ := e.Data["dx"].(float64)
		dy, _ := e.Data["dy"].(float64)
		c.yaw -= dx * dragRadiansPerUnit
		c.pitch = math.Max(-maxPitch, math.Min(maxPitch, c.pitch-dy*dragRadiansPerUnit))
		c.pose.Rotation = types.QuaternionFromEuler(c.pitch, c.yaw, 0)
		return u.Outputs().Set(OutputCamera, c.pose)
	}
	return nil
}
