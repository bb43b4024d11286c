// Package capture implements the capture preview unit (mp.customComponent): a panel
// that shows a live stream from a capture device.
package capture

import (
	"context"

	capdev "github.com/rodvb29/Furniture-Adding-by-Matterport/capture"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/metric"
)

// Input and output field names
const (
	InputDeviceID = "deviceId"
	InputEnabled  = "enabled"

	OutputStream = "stream"
	OutputAspect = "aspect"
	OutputError  = "error"
)

// Preview acquires a stream on demand and releases it when disabled, when the device
// changes and on destroy.
type Preview struct {
	component.Base
	devices capdev.Devices
	metrics *metric.Metrics

	stream  *capdev.Stream
	pending bool
	seq     uint64
}

// NewFactory returns a preview factory bound to devices
func NewFactory(devices capdev.Devices) component.Factory {
	return func(deps component.Dependencies) (component.Behavior, error) {
		return &Preview{devices: devices, metrics: deps.Metrics}, nil
	}
}

// Register registers the capture preview factory
func Register(registry *component.Registry, devices capdev.Devices) error {
	return registry.Register(component.Registration{
		Tag:         component.TagCapture,
		Kind:        component.KindCapture,
		Description: "Capture device preview panel",
		Factory:     NewFactory(devices),
	})
}

// Inputs implements component.Behavior
func (p *Preview) Inputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: InputDeviceID, Type: component.FieldString, Nullable: true,
			Description: "Capture device id, nil for the default video device"},
		component.Field{Name: InputEnabled, Type: component.FieldBool, Default: false},
	)
}

// Outputs implements component.Behavior
func (p *Preview) Outputs() component.Schema {
	return component.NewSchema(
		component.Field{Name: OutputStream, Type: component.FieldAny},
		component.Field{Name: OutputAspect, Type: component.FieldFloat, Default: 1.0},
		component.Field{Name: OutputError, Type: component.FieldString, Nullable: true},
	)
}

// Events implements component.Behavior
func (p *Preview) Events() []component.EventType {
	return []component.EventType{component.EventClick}
}

// Stream returns the current stream, if any
func (p *Preview) Stream() *capdev.Stream {
	return p.stream
}

// OnInputsUpdated follows the enabled flag and the selected device
func (p *Preview) OnInputsUpdated(u *component.Unit, old component.Snapshot) {
	if enabled, _ := component.Get[bool](u.Inputs(), InputEnabled); !enabled {
		p.release(u)
		return
	}

	prevID, _ := old.Get(InputDeviceID)
	curID, _ := u.Inputs().Get(InputDeviceID)
	if prevID != curID {
		p.release(u)
	}
	p.acquire(u)
}

// OnEvent acquires a stream on click
func (p *Preview) OnEvent(u *component.Unit, e component.Event) error {
	if e.Type == component.EventClick {
		p.acquire(u)
	}
	return nil
}

// OnDestroy releases the stream
func (p *Preview) OnDestroy(u *component.Unit) {
	p.release(u)
}

func (p *Preview) acquire(u *component.Unit) {
	if p.pending || (p.stream != nil && p.stream.Active()) {
		return
	}
	if p.devices == nil {
		p.fail(u, "no capture devices configured")
		return
	}

	deviceID, _ := component.Get[string](u.Inputs(), InputDeviceID)
	constraints := capdev.Constraints{DeviceID: deviceID, Video: true}
	p.pending = true
	p.seq++
	seq := p.seq

	component.Async(u,
		func(ctx context.Context) (*capdev.Stream, error) {
			return p.devices.Request(ctx, constraints)
		},
		func(stream *capdev.Stream, err error) {
			if seq != p.seq {
				// superseded by a release while the request was in flight
				if stream != nil {
					stream.Stop()
				}
				return
			}
			p.pending = false
			p.metrics.RecordCaptureAcquisition(err == nil)
			if err != nil {
				p.fail(u, err.Error())
				return
			}
			p.attach(u, stream)
		},
		func(stream *capdev.Stream) {
			if stream != nil {
				stream.Stop()
			}
		},
	)
}

func (p *Preview) attach(u *component.Unit, stream *capdev.Stream) {
	p.stream = stream
	aspect := 1.0
	if tracks := stream.VideoTracks(); len(tracks) > 0 && tracks[0].Settings.AspectRatio > 0 {
		aspect = tracks[0].Settings.AspectRatio
	}
	out := u.Outputs()
	_ = out.Set(OutputStream, stream)
	_ = out.Set(OutputAspect, aspect)
	_ = out.Set(OutputError, nil)
	u.Logger().Info("Capture stream acquired", "stream", stream.ID, "aspect", aspect)
}

func (p *Preview) fail(u *component.Unit, msg string) {
	u.Logger().Warn("Capture acquisition failed", "error", msg)
	_ = u.Outputs().Set(OutputError, msg)
}

func (p *Preview) release(u *component.Unit) {
	if p.pending {
		p.pending = false
		p.seq++
	}
	if p.stream == nil {
		return
	}
	p.stream.Stop()
	u.Logger().Debug("Capture stream released", "stream", p.stream.ID)
	p.stream = nil
	_ = u.Outputs().Set(OutputStream, nil)
}
