package analysis

import (
	"context"
	"testing"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/typerep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretResponses(t *testing.T) {
	a := newTestAnalyzer()
	class := &ClassResult{
		OriginalClass:   resourceClass,
		ResourcePath:    "/test/",
		ApplicationPath: "/rest",
		Produces:        []string{"application/json"},
	}

	list := helperThrowingMethod()
	list.Path = "{id: \\d+}"
	class.AddMethod(list)

	del := NewMethodResult(jaxrsflow.InstanceMethod(resourceClass, "delete", jaxrsflow.Void), "DELETE", []jaxrsflow.Instruction{jaxrsflow.ReturnVoid()})
	del.Path = "{id}"
	class.AddMethod(del)

	json := resourceMethod("json", jaxrsflow.Response,
		jaxrsflow.Load(0, jaxrsflow.Object),
		jaxrsflow.Invoke(buildJSONArray),
		jaxrsflow.Invoke(responseOk),
		jaxrsflow.Invoke(builderBuild),
		jaxrsflow.Return(),
	)
	json.HTTPMethod = "POST"
	json.RequestBody = "L" + modelClass + ";"
	class.AddMethod(json)

	require.NoError(t, AnalyzeAll(context.Background(), a, Methods(class), 2))
	res := Interpret(a.Context().Types, class)

	assert.Equal(t, "rest", res.BasePath)

	methods, ok := res.Paths.Get("test/{id}")
	require.True(t, ok)
	require.Len(t, methods, 2)
	assert.Equal(t, "GET", methods[0].Method)
	assert.Equal(t, "DELETE", methods[1].Method)

	get := methods[0]
	assert.Equal(t, []string{"application/json"}, get.ResponseMediaTypes)
	require.Len(t, get.Responses, 2)
	assert.Equal(t, 200, get.Responses[0].Status)
	require.NotNil(t, get.Responses[0].Entity)
	assert.Equal(t, jaxrsflow.TypeOf(listOfModel), *get.Responses[0].Entity)
	assert.Equal(t, 404, get.Responses[1].Status)
	assert.Nil(t, get.Responses[1].Entity)

	require.Len(t, methods[1].Responses, 1)
	assert.Equal(t, 204, methods[1].Responses[0].Status)

	post, ok := res.Paths.Get("test")
	require.True(t, ok)
	require.Len(t, post, 1)
	require.NotNil(t, post[0].RequestBody)
	resp := post[0].Response(200)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Entity)
	assert.True(t, resp.Entity.IsDynamic(), "inline JSON gets a synthesized type")

	rep, ok := a.Context().Registry.Get(*resp.Entity)
	require.True(t, ok)
	_, isCollection := rep.(*typerep.Collection)
	assert.True(t, isCollection)
}

func TestInterpretReusesInlineJSONTypes(t *testing.T) {
	a := newTestAnalyzer()
	class := &ClassResult{OriginalClass: resourceClass, ResourcePath: "json"}
	m := resourceMethod("json", jaxrsflow.Response,
		jaxrsflow.Load(0, jaxrsflow.Object),
		jaxrsflow.Invoke(buildJSONArray),
		jaxrsflow.Invoke(responseOk),
		jaxrsflow.Invoke(builderBuild),
		jaxrsflow.Return(),
	)
	class.AddMethod(m)
	require.NoError(t, a.Analyze(context.Background(), m))
	registered := a.Context().Registry.Len()

	entity := func() jaxrsflow.TypeIdentifier {
		methods, ok := Interpret(a.Context().Types, class).Paths.Get("json")
		require.True(t, ok)
		resp := methods[0].Response(200)
		require.NotNil(t, resp)
		require.NotNil(t, resp.Entity)
		return *resp.Entity
	}
	first := entity()
	second := entity()

	assert.Equal(t, first, second)
	assert.Equal(t, registered, a.Context().Registry.Len(), "inline JSON is registered while analyzing")
}

func TestFullPathThroughLocator(t *testing.T) {
	root := &ClassResult{OriginalClass: resourceClass, ResourcePath: "root"}
	locator := NewMethodResult(jaxrsflow.InstanceMethod(resourceClass, "sub", "Lcom/example/Sub;"), "", nil)
	locator.Path = "/sub/{name: [a-z]+}"
	root.AddMethod(locator)

	sub := &ClassResult{OriginalClass: "com/example/Sub", ParentSubResourceLocator: locator}
	locator.SubResource = sub
	leaf := NewMethodResult(jaxrsflow.InstanceMethod("com/example/Sub", "get", jaxrsflow.String), "GET", nil)
	leaf.Path = "leaf"
	sub.AddMethod(leaf)

	assert.Equal(t, "root/sub/{name}/leaf", FullPath(leaf))
	assert.Equal(t, []*MethodResult{locator, leaf}, Methods(root))

	res := Interpret(typerep.NewAnalyzer(typerep.NewRegistry(), nil), root)
	_, ok := res.Paths.Get("root/sub/{name}")
	assert.False(t, ok, "locators are not resource methods")
	_, ok = res.Paths.Get("root/sub/{name}/leaf")
	assert.True(t, ok)
}
