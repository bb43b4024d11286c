package component

import (
	"fmt"
	"math"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// FieldType is the value type of a record field
type FieldType int

const (
	FieldAny FieldType = iota
	FieldBool
	FieldInt
	FieldFloat
	FieldString
	FieldColor
	FieldVector3
	FieldPose
)

// String returns the type name used in error messages
func (t FieldType) String() string {
	switch t {
	case FieldBool:
		return "bool"
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldString:
		return "string"
	case FieldColor:
		return "color"
	case FieldVector3:
		return "vector3"
	case FieldPose:
		return "pose"
	default:
		return "any"
	}
}

// Field describes one named value of an input or output record
type Field struct {
	Name        string
	Type        FieldType
	Default     any
	Nullable    bool
	Description string
}

// Schema is the ordered field list of a record
type Schema struct {
	Fields []Field
}

// NewSchema builds a schema from fields
func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// Field looks up a field by name
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// normalize checks v against the field type and returns the stored form.
// Integers are widened for float fields; integral floats are accepted for int fields
// because decoded JSON carries every number as float64. NaN and infinities are
// rejected for every numeric type.
func (f Field) normalize(v any) (any, error) {
	if v == nil {
		if f.Nullable || f.Type == FieldAny {
			return nil, nil
		}
		return nil, f.typeError(v)
	}

	switch f.Type {
	case FieldAny:
		return v, nil
	case FieldBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case FieldInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int32:
			return int(n), nil
		case int64:
			return int(n), nil
		case float64:
			if finite(n) && n == math.Trunc(n) {
				return int(n), nil
			}
		}
	case FieldFloat:
		switch n := v.(type) {
		case float64:
			if finite(n) {
				return n, nil
			}
		case float32:
			if finite(float64(n)) {
				return float64(n), nil
			}
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case FieldString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case FieldColor:
		switch c := v.(type) {
		case types.Color:
			return c, nil
		case int:
			if c >= 0 && c <= 0xffffff {
				return types.Color(c), nil
			}
		case float64:
			if c == math.Trunc(c) && c >= 0 && c <= 0xffffff {
				return types.Color(c), nil
			}
		case string:
			parsed, err := types.ParseColor(c)
			if err == nil {
				return parsed, nil
			}
		}
	case FieldVector3:
		if vec, ok := decodeVector3(v); ok && finite(vec.X, vec.Y, vec.Z) {
			return vec, nil
		}
	case FieldPose:
		if p, ok := v.(types.Pose); ok && finite(
			p.Position.X, p.Position.Y, p.Position.Z,
			p.Rotation.X, p.Rotation.Y, p.Rotation.Z, p.Rotation.W) {
			return p, nil
		}
	}
	return nil, f.typeError(v)
}

// decodeVector3 accepts a Vector3, a decoded {x,y,z} map or a three element list
func decodeVector3(v any) (types.Vector3, bool) {
	switch vec := v.(type) {
	case types.Vector3:
		return vec, true
	case map[string]any:
		var out types.Vector3
		for key, dst := range map[string]*float64{"x": &out.X, "y": &out.Y, "z": &out.Z} {
			n, ok := toFloat(vec[key])
			if !ok {
				return types.Vector3{}, false
			}
			*dst = n
		}
		return out, true
	case []any:
		if len(vec) != 3 {
			return types.Vector3{}, false
		}
		var c [3]float64
		for i, e := range vec {
			n, ok := toFloat(e)
			if !ok {
				return types.Vector3{}, false
			}
			c[i] = n
		}
		return types.Vec3(c[0], c[1], c[2]), true
	}
	return types.Vector3{}, false
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (f Field) typeError(v any) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: field %q expects %s, got %T", errors.ErrFieldType, f.Name, f.Type, v),
		"Record", "Set", "type check")
}
