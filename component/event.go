package component

import (
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// EventType identifies an interaction event; values match the host's strings
type EventType string

const (
	EventClick             EventType = "INTERACTION.CLICK"
	EventHover             EventType = "INTERACTION.HOVER"
	EventDrag              EventType = "INTERACTION.DRAG"
	EventDragBegin         EventType = "INTERACTION.DRAG_BEGIN"
	EventDragEnd           EventType = "INTERACTION.DRAG_END"
	EventPointerMove       EventType = "INTERACTION.POINTER_MOVE"
	EventPointerButtonDown EventType = "INTERACTION.POINTER_BUTTON_DOWN"
	EventPointerButtonUp   EventType = "INTERACTION.POINTER_BUTTON_UP"
)

// EventTypes lists every interaction type
var EventTypes = []EventType{
	EventClick, EventHover, EventDrag, EventDragBegin, EventDragEnd,
	EventPointerMove, EventPointerButtonDown, EventPointerButtonUp,
}

// ParseEventType validates a host event string
func ParseEventType(s string) (EventType, bool) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Event is the payload delivered to a unit and its spies.
// Node and Component are filled in by the runtime.
type Event struct {
	Type      EventType
	Node      NodeHandle
	Component ComponentHandle
	Hover     bool
	Point     types.Vector3
	Data      map[string]any
}

// Spy observes events of one type raised on one unit
type Spy interface {
	EventType() EventType
	OnEvent(e Event) error
}

// SpyID identifies a spy registration
type SpyID uint64

type funcSpy struct {
	t  EventType
	fn func(Event) error
}

func (s funcSpy) EventType() EventType { return s.t }
func (s funcSpy) OnEvent(e Event) error { return s.fn(e) }

// SpyFunc adapts a function to the Spy interface
func SpyFunc(t EventType, fn func(Event) error) Spy {
	return funcSpy{t: t, fn: fn}
}
