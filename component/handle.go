package component

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

// NodeHandle addresses a scene node. The zero value is invalid.
type NodeHandle struct {
	index uint32
	gen   uint32
}

// IsValid reports whether the handle was issued by a runtime
func (h NodeHandle) IsValid() bool { return h.gen != 0 }

// String formats the handle as "<index>:<generation>"
func (h NodeHandle) String() string { return fmt.Sprintf("%d:%d", h.index, h.gen) }

// MarshalText implements encoding.TextMarshaler. The zero handle encodes as "".
func (h NodeHandle) MarshalText() ([]byte, error) {
	if !h.IsValid() {
		return []byte{}, nil
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *NodeHandle) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*h = NodeHandle{}
		return nil
	}
	idx, gen, err := parseHandle(string(b), "NodeHandle")
	if err != nil {
		return err
	}
	*h = NodeHandle{index: idx, gen: gen}
	return nil
}

// ComponentHandle addresses an attached unit. The zero value is invalid.
type ComponentHandle struct {
	index uint32
	gen   uint32
}

// IsValid reports whether the handle was issued by a runtime
func (h ComponentHandle) IsValid() bool { return h.gen != 0 }

// String formats the handle as "<index>:<generation>"
func (h ComponentHandle) String() string { return fmt.Sprintf("%d:%d", h.index, h.gen) }

// MarshalText implements encoding.TextMarshaler. The zero handle encodes as "".
func (h ComponentHandle) MarshalText() ([]byte, error) {
	if !h.IsValid() {
		return []byte{}, nil
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *ComponentHandle) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*h = ComponentHandle{}
		return nil
	}
	parsed, err := ParseComponentHandle(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseComponentHandle parses the "<index>:<generation>" form
func ParseComponentHandle(s string) (ComponentHandle, error) {
	idx, gen, err := parseHandle(s, "ComponentHandle")
	if err != nil {
		return ComponentHandle{}, err
	}
	return ComponentHandle{index: idx, gen: gen}, nil
}

func parseHandle(s, owner string) (uint32, uint32, error) {
	idx, gen, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, errors.WrapInvalid(
			fmt.Errorf("%w: handle reference %q", errors.ErrInvalidData, s),
			owner, "Parse", "split reference")
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return 0, 0, errors.WrapInvalid(err, owner, "Parse", "parse index")
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil || g == 0 {
		return 0, 0, errors.WrapInvalid(
			fmt.Errorf("%w: generation %q", errors.ErrInvalidData, gen),
			owner, "Parse", "parse generation")
	}
	return uint32(i), uint32(g), nil
}
