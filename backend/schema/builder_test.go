package schema

import (
	"bytes"
	"testing"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/speakeasy-api/jaxrsflow/typerep"
	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	modelType = "Lcom/sebastian_daschner/jaxrs_test/Model;"
	stateType = "Lcom/sebastian_daschner/jaxrs_test/State;"
)

func testRegistry() *typerep.Registry {
	c := typerep.MapCatalog{}
	c.Add(typerep.Class{
		Name: "com/sebastian_daschner/jaxrs_test/Model",
		Fields: []typerep.Field{
			{Name: "name", Type: jaxrsflow.String},
			{Name: "count", Type: jaxrsflow.Int},
			{Name: "tags", Type: "Ljava/util/List<Ljava/lang/String;>;"},
			{Name: "parent", Type: modelType},
			{Name: "state", Type: stateType},
		},
	})
	c.Add(typerep.Class{
		Name:          "com/sebastian_daschner/jaxrs_test/State",
		EnumConstants: []string{"DISABLED", "ACTIVE"},
	})
	r := typerep.NewRegistry()
	typerep.NewAnalyzer(r, c).Analyze(modelType)
	return r
}

func render(t *testing.T, s *oas3.Schema) string {
	t.Helper()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	require.NoError(t, enc.Encode(RenderYAML(s)))
	require.NoError(t, enc.Close())
	return buf.String()
}

func definitionSchema(t *testing.T, b *Builder, name string) *oas3.Schema {
	t.Helper()
	s, ok := b.Definitions().Get(name)
	require.True(t, ok, "definition %s", name)
	return s.Left
}

func TestBuildConcreteType(t *testing.T) {
	b := NewBuilder(testRegistry())

	s := b.Build(jaxrsflow.TypeOf(modelType))
	require.NotNil(t, s.Ref)
	assert.Equal(t, RefPrefix+"Model", string(*s.Ref))

	want := `type: object
properties:
  name:
    type: string
  count:
    type: integer
    format: int32
  tags:
    type: array
    items:
      type: string
  parent:
    $ref: '#/components/schemas/Model'
  state:
    type: string
    enum:
      - ACTIVE
      - DISABLED
`
	assert.Equal(t, want, render(t, definitionSchema(t, b, "Model")))
	assert.Equal(t, 1, b.Definitions().Len(), "enums and collections stay inline")

	name, ok := b.DefinitionName(jaxrsflow.TypeOf(modelType))
	assert.True(t, ok)
	assert.Equal(t, "Model", name)
}

func TestBuildPrimitives(t *testing.T) {
	b := NewBuilder(nil)
	tests := []struct {
		desc   string
		typ    oas3.SchemaType
		format string
	}{
		{jaxrsflow.Int, oas3.SchemaTypeInteger, "int32"},
		{jaxrsflow.BoxLong, oas3.SchemaTypeInteger, "int64"},
		{jaxrsflow.BigInteger, oas3.SchemaTypeInteger, ""},
		{jaxrsflow.Double, oas3.SchemaTypeNumber, "double"},
		{jaxrsflow.BigDecimal, oas3.SchemaTypeNumber, ""},
		{jaxrsflow.BoxBoolean, oas3.SchemaTypeBoolean, ""},
		{jaxrsflow.String, oas3.SchemaTypeString, ""},
		{"Lcom/example/Unknown;", oas3.SchemaTypeObject, ""},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			s := b.Build(jaxrsflow.TypeOf(tt.desc))
			assert.Equal(t, []oas3.SchemaType{tt.typ}, s.GetType())
			if tt.format == "" {
				assert.Nil(t, s.Format)
			} else {
				require.NotNil(t, s.Format)
				assert.Equal(t, tt.format, *s.Format)
			}
		})
	}
	assert.Equal(t, 0, b.Definitions().Len())
}

func TestDefinitionCollisions(t *testing.T) {
	r := typerep.NewRegistry()
	ids := []jaxrsflow.TypeIdentifier{
		jaxrsflow.TypeOf("Lcom/a/Model;"),
		jaxrsflow.TypeOf("Lcom/b/Model;"),
		jaxrsflow.TypeOf("Lcom/c/Model;"),
		r.NewDynamicIdentifier(),
		r.NewDynamicIdentifier(),
	}
	for _, id := range ids {
		r.Fill(typerep.NewConcrete(id))
	}

	b := NewBuilder(r)
	var refs []string
	for _, id := range ids {
		refs = append(refs, string(*b.Build(id).Ref))
	}
	assert.Equal(t, []string{
		RefPrefix + "Model",
		RefPrefix + "Model_2",
		RefPrefix + "Model_3",
		RefPrefix + "JsonObject",
		RefPrefix + "JsonObject_2",
	}, refs)

	again := b.Build(ids[1])
	assert.Equal(t, RefPrefix+"Model_2", string(*again.Ref), "building twice reuses the definition")

	var names []string
	for name := range b.Definitions().All() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"JsonObject", "JsonObject_2", "Model", "Model_2", "Model_3"}, names)
}

func TestXMLMetadataMerge(t *testing.T) {
	id := jaxrsflow.TypeOf(modelType)
	c := typerep.NewConcrete(id)
	c.XML = &typerep.XMLMetadata{Namespace: "urn:test", Name: "model", Prefix: "t"}
	c.Set("id", jaxrsflow.TypeOf(jaxrsflow.Long), &typerep.XMLMetadata{Name: "identifier", Attribute: true})
	c.Set("name", jaxrsflow.TypeOf(jaxrsflow.String), nil)
	r := typerep.NewRegistry()
	r.Fill(c)

	b := NewBuilder(r)
	b.Build(id)

	want := `type: object
properties:
  id:
    type: integer
    format: int64
    xml:
      name: identifier
      attribute: true
  name:
    type: string
    xml:
      namespace: urn:test
      name: model
      prefix: t
xml:
  namespace: urn:test
  name: model
  prefix: t
`
	assert.Equal(t, want, render(t, definitionSchema(t, b, "Model")))
}

func TestXMLOnReferencedProperty(t *testing.T) {
	id := jaxrsflow.TypeOf(modelType)
	c := typerep.NewConcrete(id)
	c.Set("parent", id, &typerep.XMLMetadata{Name: "up"})
	r := typerep.NewRegistry()
	r.Fill(c)

	b := NewBuilder(r)
	b.Build(id)

	want := `type: object
properties:
  parent:
    allOf:
      - $ref: '#/components/schemas/Model'
    xml:
      name: up
`
	assert.Equal(t, want, render(t, definitionSchema(t, b, "Model")))
}

func TestInlineSchema(t *testing.T) {
	b := NewBuilder(testRegistry())

	obj := simulate.NewJSONObject()
	obj.Put("key", simulate.Typed(jaxrsflow.String))
	obj.Put("model", simulate.Typed(modelType))
	arr := &simulate.JSONArray{}
	arr.Add(simulate.Of(obj, jaxrsflow.JSONObject))

	want := `type: array
items:
  type: object
  properties:
    key:
      type: string
    model:
      $ref: '#/components/schemas/Model'
`
	assert.Equal(t, want, render(t, b.InlineSchema(arr)))
	_, ok := b.Definitions().Get("JsonObject")
	assert.False(t, ok, "inline structures get no definition")
}
