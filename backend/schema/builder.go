// Package schema renders inferred types as OpenAPI 3 schemas. Object types
// become named definitions referenced through $ref; primitives, enums and
// collections are rendered inline.
package schema

import (
	"sort"
	"strconv"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/speakeasy-api/jaxrsflow/typerep"
	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"github.com/speakeasy-api/openapi/pointer"
	"github.com/speakeasy-api/openapi/references"
	"github.com/speakeasy-api/openapi/sequencedmap"
	"gopkg.in/yaml.v3"
)

// RefPrefix is where definitions live in the rendered document.
const RefPrefix = "#/components/schemas/"

// dynamicDefinition names every shape synthesized from JSON construction.
const dynamicDefinition = "JsonObject"

type definition struct {
	owner  jaxrsflow.TypeIdentifier
	schema *oas3.Schema
}

// Builder converts type identifiers into schemas. Definitions accumulate as
// identifiers are built and are read with Definitions afterwards.
type Builder struct {
	reps map[jaxrsflow.TypeIdentifier]typerep.Representation
	defs map[string]*definition
	// names remembers the definition chosen for an identifier.
	names map[jaxrsflow.TypeIdentifier]string
}

// NewBuilder snapshots the filled representations of registry.
func NewBuilder(registry *typerep.Registry) *Builder {
	b := &Builder{
		reps:  make(map[jaxrsflow.TypeIdentifier]typerep.Representation),
		defs:  make(map[string]*definition),
		names: make(map[jaxrsflow.TypeIdentifier]string),
	}
	if registry != nil {
		for _, rep := range registry.All() {
			b.reps[rep.Identifier()] = rep
		}
	}
	return b
}

// Build returns the schema describing id. Object types are registered as
// definitions and referenced.
func (b *Builder) Build(id jaxrsflow.TypeIdentifier) *oas3.Schema {
	if s := primitive(id.Type); s != nil {
		return s
	}

	switch rep := b.reps[id].(type) {
	case *typerep.Concrete:
		return b.object(rep)
	case *typerep.Collection:
		return arrayOf(b.Build(rep.Element))
	case *typerep.Enum:
		return enumOf(rep.Values)
	}
	return objectType()
}

// InlineSchema describes a JSON structure built in a resource method
// without registering a definition for it.
func (b *Builder) InlineSchema(v simulate.JSONValue) *oas3.Schema {
	switch j := v.(type) {
	case *simulate.JSONObject:
		s := objectType()
		s.Properties = sequencedmap.New[string, *oas3.JSONSchema[oas3.Referenceable]]()
		for _, k := range j.Keys() {
			e, _ := j.Get(k)
			s.Properties.Set(k, wrap(b.element(e)))
		}
		return s
	case *simulate.JSONArray:
		return arrayOf(b.element(j.Items))
	}
	return objectType()
}

func (b *Builder) element(e simulate.Element) *oas3.Schema {
	for _, v := range e.Values() {
		if j, ok := v.(simulate.JSONValue); ok {
			return b.InlineSchema(j)
		}
	}
	if types := e.Types(); len(types) > 0 {
		return b.Build(types[0])
	}
	return objectType()
}

// Definitions returns the definitions created so far, sorted by name.
func (b *Builder) Definitions() *sequencedmap.Map[string, *oas3.JSONSchema[oas3.Referenceable]] {
	names := make([]string, 0, len(b.defs))
	for n := range b.defs {
		names = append(names, n)
	}
	sort.Strings(names)

	out := sequencedmap.New[string, *oas3.JSONSchema[oas3.Referenceable]]()
	for _, n := range names {
		out.Set(n, wrap(b.defs[n].schema))
	}
	return out
}

// DefinitionName returns the definition chosen for id, if it has one.
func (b *Builder) DefinitionName(id jaxrsflow.TypeIdentifier) (string, bool) {
	n, ok := b.names[id]
	return n, ok
}

func (b *Builder) object(rep *typerep.Concrete) *oas3.Schema {
	id := rep.Identifier()
	if name, ok := b.names[id]; ok {
		return ref(name)
	}

	name := b.definitionName(id)
	// Reserved before the properties are built so that self references
	// resolve to this definition.
	def := &definition{owner: id, schema: objectType()}
	b.defs[name] = def
	b.names[id] = name

	def.schema.Properties = sequencedmap.New[string, *oas3.JSONSchema[oas3.Referenceable]]()
	for _, prop := range rep.Names() {
		pid, _ := rep.Property(prop)
		ps := b.Build(pid)
		if x := mergeXML(rep.XML, rep.PropertyXML[prop]); x != nil {
			ps = withXML(ps, x)
		}
		def.schema.Properties.Set(prop, wrap(ps))
	}
	def.schema.XML = mergeXML(rep.XML, nil)
	return ref(name)
}

// definitionName picks the simple class name, suffixed with _2, _3, ... when
// another type already owns it.
func (b *Builder) definitionName(id jaxrsflow.TypeIdentifier) string {
	base := dynamicDefinition
	if !id.IsDynamic() {
		base = jaxrsflow.SimpleName(jaxrsflow.Erase(id.Type))
	}

	name := base
	for n := 2; ; n++ {
		d, taken := b.defs[name]
		if !taken || d.owner == id {
			return name
		}
		name = base + "_" + strconv.Itoa(n)
	}
}

// mergeXML combines the metadata of a type with the metadata of one of its
// properties. Property namespace and prefix always win; its name only when set.
func mergeXML(typ, prop *typerep.XMLMetadata) *oas3.XML {
	var namespace, name, prefix string
	attribute := false
	if typ != nil {
		namespace, name, prefix = typ.Namespace, typ.Name, typ.Prefix
	}
	if prop != nil {
		namespace = prop.Namespace
		prefix = prop.Prefix
		if prop.Name != "" {
			name = prop.Name
		}
		attribute = prop.Attribute
	}
	if namespace == "" && name == "" && prefix == "" && !attribute {
		return nil
	}

	x := &oas3.XML{}
	if namespace != "" {
		x.Namespace = pointer.From(namespace)
	}
	if name != "" {
		x.Name = pointer.From(name)
	}
	if prefix != "" {
		x.Prefix = pointer.From(prefix)
	}
	if attribute {
		x.Attribute = pointer.From(true)
	}
	return x
}

// withXML attaches metadata to a property schema. References are wrapped so
// the shared definition stays untouched.
func withXML(s *oas3.Schema, x *oas3.XML) *oas3.Schema {
	if s.Ref != nil {
		return &oas3.Schema{
			AllOf: []*oas3.JSONSchema[oas3.Referenceable]{wrap(s)},
			XML:   x,
		}
	}
	s.XML = x
	return s
}

func primitive(desc string) *oas3.Schema {
	switch jaxrsflow.Erase(desc) {
	case jaxrsflow.Int, jaxrsflow.BoxInt, jaxrsflow.Short, jaxrsflow.BoxShort, jaxrsflow.Byte, jaxrsflow.BoxByte:
		return withFormat(oas3.SchemaTypeInteger, "int32")
	case jaxrsflow.Long, jaxrsflow.BoxLong:
		return withFormat(oas3.SchemaTypeInteger, "int64")
	case jaxrsflow.BigInteger:
		return &oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeInteger)}
	case jaxrsflow.Float, jaxrsflow.BoxFloat:
		return withFormat(oas3.SchemaTypeNumber, "float")
	case jaxrsflow.Double, jaxrsflow.BoxDouble:
		return withFormat(oas3.SchemaTypeNumber, "double")
	case jaxrsflow.BigDecimal:
		return &oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeNumber)}
	case jaxrsflow.Boolean, jaxrsflow.BoxBoolean:
		return &oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeBoolean)}
	case jaxrsflow.String, jaxrsflow.Char, jaxrsflow.BoxChar:
		return &oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeString)}
	}
	return nil
}

func withFormat(t oas3.SchemaType, format string) *oas3.Schema {
	return &oas3.Schema{Type: oas3.NewTypeFromString(t), Format: pointer.From(format)}
}

func objectType() *oas3.Schema {
	return &oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeObject)}
}

func arrayOf(items *oas3.Schema) *oas3.Schema {
	return &oas3.Schema{
		Type:  oas3.NewTypeFromString(oas3.SchemaTypeArray),
		Items: wrap(items),
	}
}

func enumOf(values []string) *oas3.Schema {
	s := &oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeString)}
	if len(values) == 0 {
		return s
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	for _, v := range sorted {
		s.Enum = append(s.Enum, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	return s
}

func ref(name string) *oas3.Schema {
	return &oas3.Schema{Ref: pointer.From(references.Reference(RefPrefix + name))}
}

func wrap(s *oas3.Schema) *oas3.JSONSchema[oas3.Referenceable] {
	return oas3.NewJSONSchemaFromSchema[oas3.Referenceable](s)
}
