package simulate

import (
	"github.com/speakeasy-api/jaxrsflow"
)

// invokeJSON replays Json factory calls and JsonObjectBuilder /
// JsonArrayBuilder chains. args holds the receiver first for instance
// methods.
func invokeJSON(m jaxrsflow.MethodIdentifier, args []Element) (Element, bool) {
	switch jaxrsflow.Canonical(m.ContainingClass) {
	case jaxrsflow.ClassJSON:
		if !m.Static {
			return Element{}, false
		}
		switch m.Name {
		case "createObjectBuilder":
			objs := jsonObjects(args)
			if len(objs) == 0 {
				objs = []any{NewJSONObject()}
			}
			return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONObjectBuilder)}, objs...), true
		case "createArrayBuilder":
			arrs := jsonArrays(args)
			if len(arrs) == 0 {
				arrs = []any{&JSONArray{}}
			}
			return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONArrayBuilder)}, arrs...), true
		}
	case jaxrsflow.ClassJSONObjectBuild:
		if m.Static || len(args) == 0 {
			return Element{}, false
		}
		return objectBuilderCall(m, args[0], args[1:])
	case jaxrsflow.ClassJSONArrayBuild:
		if m.Static || len(args) == 0 {
			return Element{}, false
		}
		return arrayBuilderCall(m, args[0], args[1:])
	}
	return Element{}, false
}

func objectBuilderCall(m jaxrsflow.MethodIdentifier, receiver Element, args []Element) (Element, bool) {
	objs := receiverValues(receiver, func() any { return NewJSONObject() }, func(v any) bool {
		_, ok := v.(*JSONObject)
		return ok
	})
	switch m.Name {
	case "build":
		return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONObject)}, objs...), true
	case "add", "addNull":
		if len(args) == 0 {
			return Element{}, false
		}
		value := NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONValue)}, Null{})
		if m.Name == "add" && len(args) > 1 {
			value = jsonValue(args[len(args)-1])
		}
		for _, name := range stringValues(args[0]) {
			for _, o := range objs {
				o.(*JSONObject).Put(name, value)
			}
		}
	case "addAll":
		if len(args) == 0 {
			return Element{}, false
		}
		c := newCopier()
		for _, v := range args[0].values {
			src, ok := v.(*JSONObject)
			if !ok {
				continue
			}
			for _, k := range src.Keys() {
				e, _ := src.Get(k)
				for _, o := range objs {
					o.(*JSONObject).Put(k, c.element(e))
				}
			}
		}
	case "remove":
	default:
		return Element{}, false
	}
	return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONObjectBuilder)}, objs...), true
}

func arrayBuilderCall(m jaxrsflow.MethodIdentifier, receiver Element, args []Element) (Element, bool) {
	arrs := receiverValues(receiver, func() any { return &JSONArray{} }, func(v any) bool {
		_, ok := v.(*JSONArray)
		return ok
	})
	switch m.Name {
	case "build":
		return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONArray)}, arrs...), true
	case "add":
		if len(args) == 0 {
			return Element{}, false
		}
		value := jsonValue(args[len(args)-1])
		for _, a := range arrs {
			a.(*JSONArray).Add(value)
		}
	case "addNull":
		for _, a := range arrs {
			a.(*JSONArray).Add(NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONValue)}, Null{}))
		}
	case "addAll":
		if len(args) == 0 {
			return Element{}, false
		}
		c := newCopier()
		for _, v := range args[0].values {
			if src, ok := v.(*JSONArray); ok {
				for _, a := range arrs {
					a.(*JSONArray).Add(c.element(src.Items))
				}
			}
		}
	case "remove", "set", "setNull":
	default:
		return Element{}, false
	}
	return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONArrayBuilder)}, arrs...), true
}

// receiverValues returns the values of receiver accepted by keep, or a fresh
// value when the receiver is unknown.
func receiverValues(receiver Element, fresh func() any, keep func(any) bool) []any {
	var out []any
	for _, v := range receiver.values {
		if keep(v) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = append(out, fresh())
	}
	return out
}

// jsonValue snapshots a value added to a builder. Nested builders are built
// at that point, so their types become the built JSON types.
func jsonValue(e Element) Element {
	e = CopyElement(e)
	types := make([]string, 0, len(e.types))
	for _, t := range e.types {
		switch jaxrsflow.Canonical(t.Type) {
		case jaxrsflow.JSONObjectBuilder:
			types = append(types, jaxrsflow.JSONObject)
		case jaxrsflow.JSONArrayBuilder:
			types = append(types, jaxrsflow.JSONArray)
		default:
			types = append(types, t.Type)
		}
	}
	return e.WithTypes(types...)
}

func jsonObjects(args []Element) []any {
	var out []any
	for _, a := range args {
		for _, v := range a.values {
			if o, ok := v.(*JSONObject); ok {
				out = append(out, newCopier().value(o))
			}
		}
	}
	return out
}

func jsonArrays(args []Element) []any {
	var out []any
	for _, a := range args {
		for _, v := range a.values {
			if arr, ok := v.(*JSONArray); ok {
				out = append(out, newCopier().value(arr))
			}
		}
	}
	return out
}
