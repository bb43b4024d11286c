package component

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

func recorderFactory(Dependencies) (Behavior, error) {
	return &recorder{name: "factory"}, nil
}

func TestRegistryRegister(t *testing.T) {
	tests := []struct {
		name    string
		reg     Registration
		wantErr bool
	}{
		{name: "valid", reg: Registration{Tag: TagSlot, Kind: KindSlot, Factory: recorderFactory}},
		{name: "empty tag", reg: Registration{Factory: recorderFactory}, wantErr: true},
		{name: "nil factory", reg: Registration{Tag: TagBox}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.reg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistryDuplicateAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Registration{Tag: TagSlot, Kind: KindSlot, Factory: recorderFactory}))
	require.NoError(t, r.Register(Registration{Tag: TagModel, Kind: KindModel, Factory: recorderFactory}))

	err := r.Register(Registration{Tag: TagSlot, Kind: KindSlot, Factory: recorderFactory})
	require.Error(t, err)

	reg, ok := r.Lookup(TagModel)
	require.True(t, ok)
	assert.Equal(t, KindModel, reg.Kind)
	assert.Equal(t, []string{TagModel, TagSlot}, r.Tags())
}

func TestRuntimeAddComponent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Registration{Tag: TagSlot, Kind: KindSlot, Factory: recorderFactory}))
	require.NoError(t, r.Register(Registration{
		Tag:  "mp.broken",
		Kind: KindOther,
		Factory: func(Dependencies) (Behavior, error) {
			return nil, fmt.Errorf("cannot build")
		},
	}))

	rt := NewRuntime(r, Dependencies{})
	defer rt.Close()
	n := rt.CreateNode("slot-1")

	h, err := rt.AddComponent(n, TagSlot)
	require.NoError(t, err)
	kind, err := rt.Kind(h)
	require.NoError(t, err)
	assert.Equal(t, KindSlot, kind)

	_, err = rt.AddComponent(n, "mp.unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownComponentType)

	_, err = rt.AddComponent(n, "mp.broken")
	assert.Error(t, err)
}

func TestParseComponentHandle(t *testing.T) {
	h := ComponentHandle{index: 3, gen: 2}
	parsed, err := ParseComponentHandle(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	text, err := h.MarshalText()
	require.NoError(t, err)
	var back ComponentHandle
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, h, back)

	for _, bad := range []string{"", "3", "a:1", "3:0", "3:x"} {
		_, err := ParseComponentHandle(bad)
		assert.Error(t, err, bad)
	}
}

func TestHandleJSON(t *testing.T) {
	type wire struct {
		Node      NodeHandle      `json:"node"`
		Component ComponentHandle `json:"component"`
	}

	in := wire{Node: NodeHandle{index: 1, gen: 4}, Component: ComponentHandle{index: 7, gen: 1}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"node":"1:4","component":"7:1"}`, string(data))

	var out wire
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	data, err = json.Marshal(wire{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"node":"","component":""}`, string(data))
	require.NoError(t, json.Unmarshal(data, &out))
	assert.False(t, out.Node.IsValid())
	assert.False(t, out.Component.IsValid())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "slot", KindSlot.String())
	assert.Equal(t, "camera-input", KindCameraInput.String())
	assert.Equal(t, "other", Kind(99).String())
	assert.Equal(t, "failed", StateFailed.String())
}

func TestParseEventType(t *testing.T) {
	et, ok := ParseEventType("INTERACTION.HOVER")
	assert.True(t, ok)
	assert.Equal(t, EventHover, et)
	_, ok = ParseEventType("INTERACTION.NOPE")
	assert.False(t, ok)
}
