package selection

import (
	"fmt"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/catalog"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
)

// Transition names, also used as metric labels
const (
	TransitionSelect   = "select"
	TransitionDeselect = "deselect"
	TransitionSwitch   = "switch"
)

// Change describes one selection transition. Slot is empty after a deselect.
type Change struct {
	Transition string               `json:"transition"`
	Slot       string               `json:"slot,omitempty"`
	Node       component.NodeHandle `json:"node"`
	Previous   string               `json:"previous,omitempty"`
	Category   string               `json:"category,omitempty"`
	Items      []catalog.Item       `json:"items,omitempty"`
}

// Selected reports whether the change leaves a slot selected
func (c Change) Selected() bool {
	return c.Slot != ""
}

// Notifier receives selection changes. Implementations must not block the caller;
// they run on the runtime loop.
type Notifier interface {
	SelectionChanged(c Change) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Change) error

// SelectionChanged implements Notifier
func (f NotifierFunc) SelectionChanged(c Change) error {
	return f(c)
}

type namer interface {
	Name() string
}

func sinkName(n Notifier) string {
	if nn, ok := n.(namer); ok {
		return nn.Name()
	}
	return fmt.Sprintf("%T", n)
}
