package hostbridge

import (
	"encoding/json"
	"time"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

// Inbound frame types
const (
	FrameTick   = "tick"
	FrameClick  = "click"
	FrameHover  = "hover"
	FrameAssign = "assign"
)

// Outbound frame types
const (
	FrameAck       = "ack"
	FrameError     = "error"
	FrameSelection = "selection"
	FrameCamera    = "camera"
	FrameWelcome   = "welcome"
)

// Metric labels for inbound frames that are not dispatched by type
const (
	labelMalformed   = "malformed"
	labelRateLimited = "rate_limited"
	labelUnknown     = "unknown"
)

// inboundLabel bounds the frame type label to the known inbound types
func inboundLabel(frameType string) string {
	switch frameType {
	case FrameTick, FrameClick, FrameHover, FrameAssign:
		return frameType
	}
	return labelUnknown
}

// Frame is the JSON envelope of every message on the bridge
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"` // Unix milliseconds
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// TickPayload advances the runtime by DeltaMS milliseconds
type TickPayload struct {
	DeltaMS float64 `json:"delta_ms"`
}

// Delta returns the tick length
func (p TickPayload) Delta() time.Duration {
	return time.Duration(p.DeltaMS * float64(time.Millisecond))
}

// ClickPayload raises a click on a component reference ("<index>:<generation>")
type ClickPayload struct {
	Component string `json:"component"`
}

// HoverPayload raises a hover change on a component reference
type HoverPayload struct {
	Component string `json:"component"`
	Hover     bool   `json:"hover"`
}

// AssignPayload places a catalog item into the selected slot
type AssignPayload struct {
	Item string `json:"item"`
}

// ErrorPayload reports a failed inbound frame
type ErrorPayload struct {
	Message string `json:"message"`
	Class   string `json:"class,omitempty"`
}

// WelcomePayload is the first frame a session receives
type WelcomePayload struct {
	Session string `json:"session"`
}

// NewFrame marshals payload into a frame stamped with the current time
func NewFrame(frameType, id string, payload any) (Frame, error) {
	f := Frame{Type: frameType, ID: id, Timestamp: time.Now().UnixMilli()}
	if payload == nil {
		return f, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, errors.WrapInvalid(err, "Frame", "NewFrame", "marshal payload")
	}
	f.Payload = data
	return f, nil
}

// Decode unmarshals the frame payload into v
func (f Frame) Decode(v any) error {
	if len(f.Payload) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "Frame", "Decode", "empty payload")
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return errors.WrapInvalid(err, "Frame", "Decode", "unmarshal "+f.Type+" payload")
	}
	return nil
}
