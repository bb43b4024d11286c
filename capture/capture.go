// Package capture defines the capture-device contract used by the capture preview
// unit, and an in-memory device set.
package capture

import (
	"context"
	"sync"
	"sync/atomic"
)

// DeviceKind mirrors the host's media device kinds
type DeviceKind string

const (
	VideoInput DeviceKind = "videoinput"
	AudioInput DeviceKind = "audioinput"
)

// Device describes one capture device
type Device struct {
	ID     string     `json:"id" yaml:"id" toml:"id"`
	Label  string     `json:"label" yaml:"label" toml:"label"`
	Kind   DeviceKind `json:"kind" yaml:"kind" toml:"kind"`
	Width  int        `json:"width" yaml:"width" toml:"width"`
	Height int        `json:"height" yaml:"height" toml:"height"`
}

// Aspect returns width / height, or 1 when unknown
func (d Device) Aspect() float64 {
	if d.Width <= 0 || d.Height <= 0 {
		return 1
	}
	return float64(d.Width) / float64(d.Height)
}

// Constraints select the device for a request. An empty DeviceID means the default
// video device.
type Constraints struct {
	DeviceID string
	Video    bool
	Audio    bool
}

// Settings are the negotiated properties of a track
type Settings struct {
	DeviceID    string
	Width       int
	Height      int
	AspectRatio float64
}

// Track is one media track of a stream
type Track struct {
	ID       string
	Kind     DeviceKind
	Settings Settings

	stopped atomic.Bool
	onStop  func()
}

// Stop releases the track. Calling it more than once is a no-op.
func (t *Track) Stop() {
	if !t.stopped.CompareAndSwap(false, true) {
		return
	}
	if t.onStop != nil {
		t.onStop()
	}
}

// Stopped reports whether Stop was called
func (t *Track) Stopped() bool {
	return t.stopped.Load()
}

// Stream is an acquired set of tracks
type Stream struct {
	ID     string
	Tracks []*Track
}

// VideoTracks returns the stream's video tracks
func (s *Stream) VideoTracks() []*Track {
	var out []*Track
	for _, t := range s.Tracks {
		if t.Kind == VideoInput {
			out = append(out, t)
		}
	}
	return out
}

// Stop stops every track
func (s *Stream) Stop() {
	for _, t := range s.Tracks {
		t.Stop()
	}
}

// Active reports whether any track is still running
func (s *Stream) Active() bool {
	for _, t := range s.Tracks {
		if !t.Stopped() {
			return true
		}
	}
	return false
}

// Devices is the host capture API
type Devices interface {
	Enumerate(ctx context.Context) ([]Device, error)
	Request(ctx context.Context, c Constraints) (*Stream, error)
}

// tracker counts live tracks so owners can assert nothing leaked
type tracker struct {
	mu   sync.Mutex
	live int
}

func (t *tracker) open() func() {
	t.mu.Lock()
	t.live++
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		t.live--
		t.mu.Unlock()
	}
}

func (t *tracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}
