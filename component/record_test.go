package component

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

func testSchema() Schema {
	return NewSchema(
		Field{Name: "enabled", Type: FieldBool, Default: true},
		Field{Name: "opacity", Type: FieldFloat, Default: 0.5},
		Field{Name: "count", Type: FieldInt, Default: 0},
		Field{Name: "color", Type: FieldColor, Default: 0xffffff},
		Field{Name: "deviceId", Type: FieldString, Nullable: true},
		Field{Name: "focus", Type: FieldVector3, Nullable: true},
		Field{Name: "payload", Type: FieldAny},
	)
}

func TestNewRecordDefaults(t *testing.T) {
	r := NewRecord(testSchema())

	enabled, ok := Get[bool](r, "enabled")
	require.True(t, ok)
	assert.True(t, enabled)

	color, ok := Get[types.Color](r, "color")
	require.True(t, ok)
	assert.Equal(t, types.Color(0xffffff), color)

	_, ok = Get[string](r, "deviceId")
	assert.False(t, ok, "nullable field defaults to nil")

	v, ok := r.Get("deviceId")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestRecordSet(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		wantErr error
		want    any
	}{
		{name: "bool", field: "enabled", value: false, want: false},
		{name: "int widened to float", field: "opacity", value: 1, want: 1.0},
		{name: "integral float to int", field: "count", value: 3.0, want: 3},
		{name: "fractional float to int", field: "count", value: 3.5, wantErr: errors.ErrFieldType},
		{name: "color from int", field: "color", value: 0xffff00, want: types.Color(0xffff00)},
		{name: "color from string", field: "color", value: "#00ff00", want: types.Color(0x00ff00)},
		{name: "nullable string nil", field: "deviceId", value: nil, want: nil},
		{name: "non-nullable nil", field: "enabled", value: nil, wantErr: errors.ErrFieldType},
		{name: "wrong type", field: "enabled", value: "yes", wantErr: errors.ErrFieldType},
		{name: "vector", field: "focus", value: types.Vec3(1, 2, 3), want: types.Vec3(1, 2, 3)},
		{name: "vector from map", field: "focus", value: map[string]any{"x": 1, "y": 2.5, "z": -1.0}, want: types.Vec3(1, 2.5, -1)},
		{name: "vector from list", field: "focus", value: []any{1.0, 2.0, 3}, want: types.Vec3(1, 2, 3)},
		{name: "vector map missing axis", field: "focus", value: map[string]any{"x": 1.0}, wantErr: errors.ErrFieldType},
		{name: "color from decoded number", field: "color", value: float64(0xff), want: types.Color(0xff)},
		{name: "NaN float", field: "opacity", value: math.NaN(), wantErr: errors.ErrFieldType},
		{name: "infinite float", field: "opacity", value: math.Inf(1), wantErr: errors.ErrFieldType},
		{name: "infinite float to int", field: "count", value: math.Inf(-1), wantErr: errors.ErrFieldType},
		{name: "NaN vector axis", field: "focus", value: types.Vec3(0, math.NaN(), 0), wantErr: errors.ErrFieldType},
		{name: "NaN in vector list", field: "focus", value: []any{1.0, math.NaN(), 3.0}, wantErr: errors.ErrFieldType},
		{name: "any", field: "payload", value: []int{1}, want: []int{1}},
		{name: "unknown field", field: "nope", value: 1, wantErr: errors.ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord(testSchema())
			err := r.Set(tt.field, tt.value)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
			got, _ := r.Get(tt.field)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotChanged(t *testing.T) {
	r := NewRecord(testSchema())
	before := r.Snapshot()

	require.NoError(t, r.Set("opacity", 0.1))
	require.NoError(t, r.Set("focus", types.Vec3(0, 1, 0)))
	after := r.Snapshot()

	assert.False(t, before.Equal(after))
	assert.Equal(t, []string{"opacity", "focus"}, before.Changed(after))

	// snapshots are copies
	require.NoError(t, r.Set("opacity", 0.9))
	v, _ := after.Get("opacity")
	assert.Equal(t, 0.1, v)

	want := before.Map()
	want["opacity"] = 0.1
	want["focus"] = types.Vec3(0, 1, 0)
	if diff := cmp.Diff(want, after.Map()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotEqualAfterRevert(t *testing.T) {
	r := NewRecord(testSchema())
	base := r.Snapshot()

	require.NoError(t, r.Set("enabled", false))
	require.NoError(t, r.Set("enabled", true))
	assert.True(t, base.Equal(r.Snapshot()))
}

func TestViewReadsThrough(t *testing.T) {
	r := NewRecord(testSchema())
	v := r.View()

	require.NoError(t, r.Set("count", 7))
	n, ok := Get[int](v, "count")
	require.True(t, ok)
	assert.Equal(t, 7, n)

	var empty View
	_, ok = empty.Get("count")
	assert.False(t, ok)
}

func TestGetWrongType(t *testing.T) {
	r := NewRecord(testSchema())
	_, ok := Get[string](r, "enabled")
	assert.False(t, ok)
	_, ok = Get[bool](r, "missing")
	assert.False(t, ok)
}
