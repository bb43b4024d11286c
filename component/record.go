package component

import (
	"fmt"
	"reflect"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

// Getter is implemented by every readable record form
type Getter interface {
	Get(name string) (any, bool)
}

// Record is a mutable set of named values conforming to a schema
type Record struct {
	schema Schema
	values map[string]any
}

// NewRecord creates a record holding the schema defaults
func NewRecord(schema Schema) *Record {
	r := &Record{schema: schema, values: make(map[string]any, len(schema.Fields))}
	for _, f := range schema.Fields {
		v, err := f.normalize(f.Default)
		if err != nil {
			v = f.Default
		}
		r.values[f.Name] = v
	}
	return r
}

// Schema returns the record's schema
func (r *Record) Schema() Schema {
	return r.schema
}

// Get returns the current value of a field
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set writes a field after checking it against the schema
func (r *Record) Set(name string, v any) error {
	f, ok := r.schema.Field(name)
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownField, name),
			"Record", "Set", "field lookup")
	}
	nv, err := f.normalize(v)
	if err != nil {
		return err
	}
	r.values[name] = nv
	return nil
}

// Snapshot copies the current values
func (r *Record) Snapshot() Snapshot {
	values := make(map[string]any, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return Snapshot{names: r.schema.Names(), values: values}
}

// View returns a read-only view of the record
func (r *Record) View() View {
	return View{r: r}
}

// View is a read-only record
type View struct {
	r *Record
}

// Get returns the current value of a field
func (v View) Get(name string) (any, bool) {
	if v.r == nil {
		return nil, false
	}
	return v.r.Get(name)
}

// Snapshot copies the current values
func (v View) Snapshot() Snapshot {
	if v.r == nil {
		return Snapshot{}
	}
	return v.r.Snapshot()
}

// Snapshot is an immutable copy of a record's values
type Snapshot struct {
	names  []string
	values map[string]any
}

// Get returns the captured value of a field
func (s Snapshot) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Map returns a copy of the captured values
func (s Snapshot) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Equal reports whether both snapshots hold the same values
func (s Snapshot) Equal(o Snapshot) bool {
	return len(s.Changed(o)) == 0
}

// Changed returns the names of fields whose values differ from o, in schema order
func (s Snapshot) Changed(o Snapshot) []string {
	var changed []string
	seen := make(map[string]bool, len(s.names))
	for _, name := range s.names {
		seen[name] = true
		a, aok := s.values[name]
		b, bok := o.values[name]
		if aok != bok || !reflect.DeepEqual(a, b) {
			changed = append(changed, name)
		}
	}
	for _, name := range o.names {
		if !seen[name] {
			changed = append(changed, name)
		}
	}
	return changed
}

// Get reads a field from any record form and asserts its type.
// It reports false when the field is missing, nil or of another type.
func Get[T any](g Getter, name string) (T, bool) {
	var zero T
	v, ok := g.Get(name)
	if !ok || v == nil {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
