package simulate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
)

// Element is the abstract value of a stack slot or local variable: the set
// of values it may hold and the set of types it may have. An Element with
// types and no values stands for "some instance of these types".
//
// Elements are values. Operations return new Elements and never modify the
// receiver's sets; structured values inside are shared by pointer.
type Element struct {
	types  []jaxrsflow.TypeIdentifier
	values []any
}

// NewElement builds an Element from the given types and values.
func NewElement(types []jaxrsflow.TypeIdentifier, values ...any) Element {
	var e Element
	for _, t := range types {
		e.types = addType(e.types, t)
	}
	for _, v := range values {
		e.values = addValue(e.values, v)
	}
	return e
}

// Typed returns a typed-only Element for the given descriptors.
func Typed(descs ...string) Element {
	types := make([]jaxrsflow.TypeIdentifier, 0, len(descs))
	for _, d := range descs {
		if d == "" || d == jaxrsflow.Void {
			continue
		}
		types = append(types, jaxrsflow.TypeOf(d))
	}
	return NewElement(types)
}

// Literal returns the Element holding exactly v, normalized to the Java
// representation of desc.
func Literal(v any, desc string) Element {
	return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(desc)}, normalizeLiteral(v, desc))
}

// Of returns an Element holding structured value v typed as desc.
func Of(v any, desc string) Element {
	return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(desc)}, v)
}

// Union is the join of the lattice: the set union of both components.
func (e Element) Union(o Element) Element {
	out := Element{
		types:  append([]jaxrsflow.TypeIdentifier(nil), e.types...),
		values: append([]any(nil), e.values...),
	}
	for _, t := range o.types {
		out.types = addType(out.types, t)
	}
	for _, v := range o.values {
		out.values = addValue(out.values, v)
	}
	return out
}

// Union joins all elements.
func Union(elems ...Element) Element {
	var out Element
	for _, e := range elems {
		out = out.Union(e)
	}
	return out
}

// Types returns the possible types sorted by name.
func (e Element) Types() []jaxrsflow.TypeIdentifier {
	return append([]jaxrsflow.TypeIdentifier(nil), e.types...)
}

// Values returns the possible values in insertion order.
func (e Element) Values() []any {
	return append([]any(nil), e.values...)
}

func (e Element) HasValues() bool { return len(e.values) > 0 }

func (e Element) IsEmpty() bool { return len(e.types) == 0 && len(e.values) == 0 }

// Single returns the only possible value.
func (e Element) Single() (any, bool) {
	if len(e.values) != 1 {
		return nil, false
	}
	return e.values[0], true
}

// HasType reports whether desc is among the possible types.
func (e Element) HasType(desc string) bool {
	for _, t := range e.types {
		if t.Type == desc {
			return true
		}
	}
	return false
}

// WithTypes returns e with its types replaced by descs.
func (e Element) WithTypes(descs ...string) Element {
	out := Typed(descs...)
	out.values = append([]any(nil), e.values...)
	return out
}

// TypeDescriptors returns the descriptors of the possible types.
func (e Element) TypeDescriptors() []string {
	out := make([]string, 0, len(e.types))
	for _, t := range e.types {
		out = append(out, t.Type)
	}
	return out
}

// Equal reports set equality of both components.
func (e Element) Equal(o Element) bool {
	if len(e.types) != len(o.types) || len(e.values) != len(o.values) {
		return false
	}
	for i := range e.types {
		if e.types[i] != o.types[i] {
			return false
		}
	}
	for _, v := range e.values {
		if !containsValue(o.values, v) {
			return false
		}
	}
	return true
}

func (e Element) String() string {
	names := make([]string, 0, len(e.types))
	for _, t := range e.types {
		names = append(names, t.Name)
	}
	vals := make([]string, 0, len(e.values))
	for _, v := range e.values {
		vals = append(vals, valueString(v))
	}
	return fmt.Sprintf("Element{types=[%s] values=[%s]}", strings.Join(names, ","), strings.Join(vals, ","))
}

func addType(types []jaxrsflow.TypeIdentifier, t jaxrsflow.TypeIdentifier) []jaxrsflow.TypeIdentifier {
	i := sort.Search(len(types), func(i int) bool { return types[i].Name >= t.Name })
	if i < len(types) && types[i] == t {
		return types
	}
	types = append(types, jaxrsflow.TypeIdentifier{})
	copy(types[i+1:], types[i:])
	types[i] = t
	return types
}

func addValue(values []any, v any) []any {
	if containsValue(values, v) {
		return values
	}
	return append(values, v)
}

func containsValue(values []any, v any) bool {
	for _, x := range values {
		if sameValue(x, v) {
			return true
		}
	}
	return false
}

// sameValue compares structured values by content and literals by value.
func sameValue(a, b any) bool {
	switch x := a.(type) {
	case *HttpResponse:
		y, ok := b.(*HttpResponse)
		return ok && (x == y || x.Equal(y))
	case *JSONObject:
		y, ok := b.(*JSONObject)
		return ok && (x == y || x.Equal(y))
	case *JSONArray:
		y, ok := b.(*JSONArray)
		return ok && (x == y || x.Equal(y))
	case *Instance:
		y, ok := b.(*Instance)
		return ok && (x == y || x.Equal(y))
	}
	switch b.(type) {
	case *HttpResponse, *JSONObject, *JSONArray, *Instance:
		return false
	}
	return a == b
}

// withoutConstants keeps the types and the structured values of e and
// drops its scalar constants.
func (e Element) withoutConstants() Element {
	out := Element{types: append([]jaxrsflow.TypeIdentifier(nil), e.types...)}
	for _, v := range e.values {
		switch v.(type) {
		case int32, int64, float32, float64, string, bool:
			continue
		}
		out.values = append(out.values, v)
	}
	return out
}

// normalizeLiteral converts decoded constants to the Go type the simulator
// uses for the descriptor: int32 for I/Z/B/C/S, int64 for J, float32 for F,
// float64 for D.
func normalizeLiteral(v any, desc string) any {
	if v == nil {
		return Null{}
	}
	switch desc {
	case jaxrsflow.Int, jaxrsflow.Boolean, jaxrsflow.Byte, jaxrsflow.Char, jaxrsflow.Short:
		if n, ok := toInt64(v); ok {
			return int32(n)
		}
	case jaxrsflow.Long:
		if n, ok := toInt64(v); ok {
			return n
		}
	case jaxrsflow.Float:
		if f, ok := toFloat64(v); ok {
			return float32(f)
		}
	case jaxrsflow.Double:
		if f, ok := toFloat64(v); ok {
			return f
		}
	}
	return v
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func valueString(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
