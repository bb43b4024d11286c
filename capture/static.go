package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

// StaticDevices is a fixed device set. Requests for an unknown device id fall back
// to the first video device.
type StaticDevices struct {
	mu       sync.Mutex
	devices  []Device
	reject   error
	requests int
	tracks   tracker
}

// NewStaticDevices creates a device set
func NewStaticDevices(devices ...Device) *StaticDevices {
	return &StaticDevices{devices: devices}
}

// Enumerate lists the devices
func (d *StaticDevices) Enumerate(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "StaticDevices", "Enumerate", "context check")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Device, len(d.devices))
	copy(out, d.devices)
	return out, nil
}

// Request acquires a stream with one track per requested kind
func (d *StaticDevices) Request(ctx context.Context, c Constraints) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "StaticDevices", "Request", "context check")
	}

	d.mu.Lock()
	d.requests++
	reject := d.reject
	devices := d.devices
	d.mu.Unlock()

	if reject != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrAcquisitionRejected, reject),
			"StaticDevices", "Request", "acquire stream")
	}

	stream := &Stream{ID: uuid.NewString()}
	if c.Video || !c.Audio {
		dev, ok := pick(devices, VideoInput, c.DeviceID)
		if !ok {
			return nil, errors.WrapInvalid(errors.ErrNoDevice, "StaticDevices", "Request", "select video device")
		}
		stream.Tracks = append(stream.Tracks, d.newTrack(dev))
	}
	if c.Audio {
		dev, ok := pick(devices, AudioInput, "")
		if !ok {
			stream.Stop()
			return nil, errors.WrapInvalid(errors.ErrNoDevice, "StaticDevices", "Request", "select audio device")
		}
		stream.Tracks = append(stream.Tracks, d.newTrack(dev))
	}
	return stream, nil
}

func (d *StaticDevices) newTrack(dev Device) *Track {
	return &Track{
		ID:   uuid.NewString(),
		Kind: dev.Kind,
		Settings: Settings{
			DeviceID:    dev.ID,
			Width:       dev.Width,
			Height:      dev.Height,
			AspectRatio: dev.Aspect(),
		},
		onStop: d.tracks.open(),
	}
}

func pick(devices []Device, kind DeviceKind, id string) (Device, bool) {
	var fallback *Device
	for i := range devices {
		if devices[i].Kind != kind {
			continue
		}
		if id != "" && devices[i].ID == id {
			return devices[i], true
		}
		if fallback == nil {
			fallback = &devices[i]
		}
	}
	if fallback == nil {
		return Device{}, false
	}
	return *fallback, true
}

// Reject makes every following request fail with err; nil restores normal behavior
func (d *StaticDevices) Reject(err error) {
	d.mu.Lock()
	d.reject = err
	d.mu.Unlock()
}

// Requests returns how many requests were made
func (d *StaticDevices) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

// LiveTracks returns the number of acquired tracks not yet stopped
func (d *StaticDevices) LiveTracks() int {
	return d.tracks.count()
}
