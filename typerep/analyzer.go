package typerep

import (
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/simulate"
)

// jdkPackages hold types that are rendered by name, never by their fields.
var jdkPackages = []string{"java/", "javax/", "jakarta/", "sun/", "jdk/"}

// Analyzer builds representations of declared types from the class catalog
// and of synthesized JSON structures, registering them in the registry.
type Analyzer struct {
	registry *Registry
	catalog  ClassCatalog
}

// NewAnalyzer returns an analyzer writing to registry. catalog may be nil, in
// which case every class is treated as opaque.
func NewAnalyzer(registry *Registry, catalog ClassCatalog) *Analyzer {
	if catalog == nil {
		catalog = MapCatalog{}
	}
	return &Analyzer{registry: registry, catalog: catalog}
}

func (a *Analyzer) Registry() *Registry { return a.registry }

// Analyze registers the representation of desc, and of every type it refers
// to, and returns its identifier. Types already known to the registry are
// not analyzed again.
func (a *Analyzer) Analyze(desc string) jaxrsflow.TypeIdentifier {
	desc = normalizeDescriptor(desc)
	id := jaxrsflow.TypeOf(desc)
	if err := a.registry.Reserve(id); err != nil {
		return id
	}
	// Release is a no-op once the entry is filled.
	defer a.registry.Release(id)

	if rep, ok := a.build(id, desc); ok {
		a.registry.Fill(rep)
	}
	return id
}

func (a *Analyzer) build(id jaxrsflow.TypeIdentifier, desc string) (Representation, bool) {
	switch {
	case desc == jaxrsflow.Void:
		return nil, false
	case jaxrsflow.IsArray(desc):
		return &Collection{ID: id, Element: a.Analyze(jaxrsflow.ComponentType(desc))}, true
	case jaxrsflow.IsCollection(desc):
		elem := jaxrsflow.Object
		if params := jaxrsflow.TypeParameters(desc); len(params) > 0 {
			elem = params[0]
		}
		return &Collection{ID: id, Element: a.Analyze(elem)}, true
	case jaxrsflow.IsPrimitive(desc):
		return NewConcrete(id), true
	}

	class := jaxrsflow.ClassName(desc)
	info, known := a.catalog.Class(class)
	if !known || isJDKClass(class) {
		return NewConcrete(id), true
	}
	if info.IsEnum() {
		return &Enum{ID: id, Values: append([]string(nil), info.EnumConstants...)}, true
	}

	c := NewConcrete(id)
	c.XML = info.XML
	for _, f := range a.fields(info) {
		c.Set(f.Name, a.Analyze(f.Type), f.XML)
	}
	return c, true
}

// fields returns the fields of c followed by the inherited ones it does not
// shadow.
func (a *Analyzer) fields(c Class) []Field {
	var out []Field
	seen := make(map[string]bool)
	for depth := 0; depth < 32; depth++ {
		for _, f := range c.Fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			out = append(out, f)
		}
		if c.Super == "" || isJDKClass(c.Super) {
			break
		}
		next, ok := a.catalog.Class(c.Super)
		if !ok {
			break
		}
		c = next
	}
	return out
}

// AnalyzeJSON registers the shape of a synthesized JSON structure under a
// dynamic identifier. Structurally equal shapes share one identifier.
func (a *Analyzer) AnalyzeJSON(v simulate.JSONValue) jaxrsflow.TypeIdentifier {
	switch j := v.(type) {
	case *simulate.JSONObject:
		c := NewConcrete(jaxrsflow.DynamicType(0))
		for _, k := range j.Keys() {
			e, _ := j.Get(k)
			c.Set(k, a.AnalyzeElement(e), nil)
		}
		return a.registry.InternDynamic(c)
	case *simulate.JSONArray:
		id := jaxrsflow.DynamicType(0)
		id.Type = jaxrsflow.JSONArray
		return a.registry.InternDynamic(&Collection{ID: id, Element: a.AnalyzeElement(j.Items)})
	}
	return a.Analyze(jaxrsflow.JSONValue)
}

// AnalyzeElement picks the most specific description of e: a JSON structure
// among its values, else its first declared type, else Object.
func (a *Analyzer) AnalyzeElement(e simulate.Element) jaxrsflow.TypeIdentifier {
	for _, v := range e.Values() {
		if j, ok := v.(simulate.JSONValue); ok {
			return a.AnalyzeJSON(j)
		}
	}
	types := e.Types()
	if len(types) == 0 {
		return a.Analyze(jaxrsflow.Object)
	}
	if types[0].IsDynamic() {
		return types[0]
	}
	return a.Analyze(types[0].Type)
}

func isJDKClass(class string) bool {
	for _, p := range jdkPackages {
		if strings.HasPrefix(class, p) {
			return true
		}
	}
	return false
}

// normalizeDescriptor canonicalizes jakarta names and erases type variables.
func normalizeDescriptor(desc string) string {
	desc = jaxrsflow.Canonical(desc)
	if strings.HasPrefix(desc, "T") && strings.HasSuffix(desc, ";") {
		return jaxrsflow.Object
	}
	if strings.HasPrefix(desc, "*") || strings.HasPrefix(desc, "+") || strings.HasPrefix(desc, "-") {
		// wildcards: ? extends X and ? super X both describe X here
		if len(desc) == 1 {
			return jaxrsflow.Object
		}
		return normalizeDescriptor(desc[1:])
	}
	return desc
}
