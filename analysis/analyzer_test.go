package analysis

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/speakeasy-api/jaxrsflow/typerep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	resourceClass = "com/sebastian_daschner/jaxrs_test/TestResource"
	modelClass    = "com/sebastian_daschner/jaxrs_test/Model"
	listOfModel   = "Ljava/util/List<Lcom/sebastian_daschner/jaxrs_test/Model;>;"
	wae           = "javax/ws/rs/WebApplicationException"
)

var (
	handleResponse = jaxrsflow.InstanceMethod(resourceClass, "handleResponse", listOfModel)
	buildJSONArray = jaxrsflow.InstanceMethod(resourceClass, "buildJsonArray", jaxrsflow.JSONArray)
	toJSONObject   = jaxrsflow.InstanceMethod(resourceClass, "toObject", jaxrsflow.JSONObject, jaxrsflow.Object)
	responseOk     = jaxrsflow.StaticMethod(jaxrsflow.ClassResponse, "ok", jaxrsflow.ResponseBuilder, jaxrsflow.Object)
	builderBuild   = jaxrsflow.InstanceMethod(jaxrsflow.ClassResponseBuilder, "build", jaxrsflow.Response)
)

func testCatalog() typerep.MapCatalog {
	c := typerep.MapCatalog{}
	c.Add(typerep.Class{
		Name:   modelClass,
		Fields: []typerep.Field{{Name: "name", Type: jaxrsflow.String}, {Name: "value", Type: jaxrsflow.Int}},
	})
	c.Add(typerep.Class{
		Name: resourceClass,
		Methods: []typerep.Method{
			{Identifier: handleResponse, Instructions: []jaxrsflow.Instruction{
				jaxrsflow.New(wae),
				jaxrsflow.Dup(),
				jaxrsflow.GetStatic(jaxrsflow.ClassResponseStatus, "NOT_FOUND", jaxrsflow.ResponseStatus),
				jaxrsflow.Invoke(jaxrsflow.InstanceMethod(wae, jaxrsflow.Constructor, jaxrsflow.Void, jaxrsflow.ResponseStatus)),
				jaxrsflow.Throw(),
			}},
			{Identifier: buildJSONArray, Instructions: []jaxrsflow.Instruction{
				jaxrsflow.Invoke(jaxrsflow.StaticMethod(jaxrsflow.ClassJSON, "createArrayBuilder", jaxrsflow.JSONArrayBuilder)),
				jaxrsflow.Load(0, jaxrsflow.Object),
				jaxrsflow.Load(0, jaxrsflow.Object),
				jaxrsflow.GetField(resourceClass, "tasks", jaxrsflow.List),
				jaxrsflow.Invoke(toJSONObject),
				jaxrsflow.Invoke(jaxrsflow.InstanceMethod(jaxrsflow.ClassJSONArrayBuild, "add", jaxrsflow.JSONArrayBuilder, jaxrsflow.JSONValue)),
				jaxrsflow.Invoke(jaxrsflow.InstanceMethod(jaxrsflow.ClassJSONArrayBuild, "build", jaxrsflow.JSONArray)),
				jaxrsflow.Return(),
			}},
			{Identifier: toJSONObject, Instructions: []jaxrsflow.Instruction{
				jaxrsflow.Invoke(jaxrsflow.StaticMethod(jaxrsflow.ClassJSON, "createObjectBuilder", jaxrsflow.JSONObjectBuilder)),
				jaxrsflow.Push("key", jaxrsflow.String),
				jaxrsflow.Load(1, jaxrsflow.Object),
				jaxrsflow.Invoke(jaxrsflow.InstanceMethod("java/lang/Object", "toString", jaxrsflow.String)),
				jaxrsflow.Invoke(jaxrsflow.InstanceMethod(jaxrsflow.ClassJSONObjectBuild, "add", jaxrsflow.JSONObjectBuilder, jaxrsflow.String, jaxrsflow.String)),
				jaxrsflow.Invoke(jaxrsflow.InstanceMethod(jaxrsflow.ClassJSONObjectBuild, "build", jaxrsflow.JSONObject)),
				jaxrsflow.Return(),
			}},
		},
	})
	return c
}

func newTestAnalyzer() *ResourceMethodAnalyzer {
	opts := simulate.DefaultOptions()
	opts.Logger = simulate.NopLogger()
	return NewResourceMethodAnalyzer(NewContext(testCatalog(), opts))
}

func resourceMethod(name, returnType string, code ...jaxrsflow.Instruction) *MethodResult {
	class := &ClassResult{OriginalClass: resourceClass, ResourcePath: "test"}
	m := NewMethodResult(jaxrsflow.InstanceMethod(resourceClass, name, returnType), "GET", code)
	class.AddMethod(m)
	return m
}

// helperThrowingMethod returns a list on one path and calls a helper that
// throws a 404 on the other.
func helperThrowingMethod() *MethodResult {
	equals := jaxrsflow.InstanceMethod("java/lang/String", "equals", jaxrsflow.Boolean, jaxrsflow.Object)
	linkedList := "java/util/LinkedList"
	return resourceMethod("method", listOfModel,
		jaxrsflow.Push("", jaxrsflow.String),
		jaxrsflow.Push("", jaxrsflow.String),
		jaxrsflow.Invoke(equals),
		jaxrsflow.Branch("IFEQ", 1, 7),
		jaxrsflow.Load(0, jaxrsflow.Object),
		jaxrsflow.Invoke(handleResponse),
		jaxrsflow.Return(),
		jaxrsflow.New(linkedList),
		jaxrsflow.Dup(),
		jaxrsflow.Invoke(jaxrsflow.InstanceMethod(linkedList, jaxrsflow.Constructor, jaxrsflow.Void)),
		jaxrsflow.Return(),
	)
}

func TestAnalyzeHelperThrowingStatus(t *testing.T) {
	a := newTestAnalyzer()
	m := helperThrowingMethod()
	require.NoError(t, a.Analyze(context.Background(), m))

	rs := m.Responses.All()
	require.Len(t, rs, 2)

	def := rs[0]
	assert.Empty(t, def.Statuses)
	assert.Equal(t, []jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(listOfModel)}, def.EntityTypes)

	notFound := rs[1]
	assert.Equal(t, []int{404}, notFound.Statuses)
	assert.Empty(t, notFound.EntityTypes)

	assert.True(t, a.Context().Pool.Contains(handleResponse), "called project methods join the pool")

	_, ok := a.Context().Registry.Get(jaxrsflow.TypeOf(listOfModel))
	assert.True(t, ok, "entity types are registered")
	model, ok := a.Context().Registry.Get(jaxrsflow.TypeOf("L" + modelClass + ";"))
	require.True(t, ok)
	assert.Equal(t, []string{"name", "value"}, model.(*typerep.Concrete).Names())
}

func TestAnalyzeJSONArrayResponse(t *testing.T) {
	a := newTestAnalyzer()
	m := resourceMethod("method", jaxrsflow.Response,
		jaxrsflow.Load(0, jaxrsflow.Object),
		jaxrsflow.Invoke(buildJSONArray),
		jaxrsflow.Invoke(responseOk),
		jaxrsflow.Invoke(builderBuild),
		jaxrsflow.Return(),
	)
	require.NoError(t, a.Analyze(context.Background(), m))

	rs := m.Responses.All()
	require.Len(t, rs, 1)
	r := rs[0]
	assert.Equal(t, []int{200}, r.Statuses)
	assert.Equal(t, []jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.JSONArray)}, r.EntityTypes)
	require.Len(t, r.InlineEntities, 1)

	obj := simulate.NewJSONObject()
	obj.Put("key", simulate.Typed(jaxrsflow.String))
	want := &simulate.JSONArray{Items: simulate.Of(obj, jaxrsflow.JSONObject)}
	assert.True(t, want.Equal(r.InlineEntities[0].(*simulate.JSONArray)), "got %s", r.InlineEntities[0])
}

func TestAnalyzeAbstractMethod(t *testing.T) {
	a := newTestAnalyzer()
	m := resourceMethod("get", jaxrsflow.String)
	require.NoError(t, a.Analyze(context.Background(), m))

	rs := m.Responses.All()
	require.Len(t, rs, 1)
	assert.Equal(t, []jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.String)}, rs[0].EntityTypes)
	assert.Empty(t, rs[0].Statuses)
}

func TestAnalyzeVoidMethod(t *testing.T) {
	a := newTestAnalyzer()
	m := resourceMethod("delete", jaxrsflow.Void, jaxrsflow.ReturnVoid())
	require.NoError(t, a.Analyze(context.Background(), m))
	assert.Equal(t, 0, m.Responses.Len())
}

func TestAnalyzeObjectReturnUsesInferredTypes(t *testing.T) {
	a := newTestAnalyzer()
	m := resourceMethod("any", jaxrsflow.Object,
		jaxrsflow.Load(1, jaxrsflow.Boolean),
		jaxrsflow.Branch("IFEQ", 1, 4),
		jaxrsflow.Push("text", jaxrsflow.String),
		jaxrsflow.Return(),
		jaxrsflow.Push(1, jaxrsflow.Int),
		jaxrsflow.Invoke(jaxrsflow.StaticMethod("java/lang/Integer", "valueOf", jaxrsflow.BoxInt, jaxrsflow.Int)),
		jaxrsflow.Return(),
	)
	m.Signature.Parameters = []string{jaxrsflow.Boolean}
	require.NoError(t, a.Analyze(context.Background(), m))

	rs := m.Responses.All()
	require.Len(t, rs, 1)
	assert.ElementsMatch(t, []jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.String), jaxrsflow.TypeOf(jaxrsflow.BoxInt)}, rs[0].EntityTypes)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	a := newTestAnalyzer()
	m := helperThrowingMethod()
	require.NoError(t, a.Analyze(context.Background(), m))
	first := NewResponseSet()
	for _, r := range m.Responses.All() {
		first.Add(r)
	}

	require.NoError(t, a.Analyze(context.Background(), m))
	assert.Equal(t, 2, m.Responses.Len(), "no duplicates")
	assert.True(t, first.Equal(m.Responses))

	fresh := helperThrowingMethod()
	require.NoError(t, a.Analyze(context.Background(), fresh))
	assert.True(t, first.Equal(fresh.Responses))

	responseComparer := cmp.Comparer(func(x, y *simulate.HttpResponse) bool { return x.Equal(y) })
	if diff := cmp.Diff(first.All(), fresh.Responses.All(), responseComparer); diff != "" {
		t.Errorf("responses differ between runs (-first +second):\n%s", diff)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	a := newTestAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := helperThrowingMethod()
	err := a.Analyze(ctx, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Responses.Len())
}

func TestAnalyzeRecoversFromPanic(t *testing.T) {
	a := newTestAnalyzer()
	m := resourceMethod("broken", listOfModel,
		jaxrsflow.Load(0, jaxrsflow.Object),
		jaxrsflow.Invoke(handleResponse),
		jaxrsflow.Return(),
	)
	a.run.Catalog = panickingCatalog{}

	err := a.Analyze(context.Background(), m)
	require.Error(t, err)
	assert.Contains(t, m.Warnings[0], "analysis aborted")

	// the lock was released
	a.run.Catalog = testCatalog()
	require.NoError(t, a.Analyze(context.Background(), helperThrowingMethod()))
}

type panickingCatalog struct{}

func (panickingCatalog) Class(string) (typerep.Class, bool) { panic("catalog unavailable") }

func (panickingCatalog) Method(jaxrsflow.MethodIdentifier) (typerep.Method, bool) {
	panic("catalog unavailable")
}

// flakyCatalog panics on class lookups while fail is set.
type flakyCatalog struct {
	typerep.MapCatalog
	fail bool
}

func (c *flakyCatalog) Class(name string) (typerep.Class, bool) {
	if c.fail {
		panic("catalog unavailable")
	}
	return c.MapCatalog.Class(name)
}

func TestAnalyzeRegistryUsableAfterPanic(t *testing.T) {
	catalog := &flakyCatalog{MapCatalog: testCatalog(), fail: true}
	opts := simulate.DefaultOptions()
	opts.Logger = simulate.NopLogger()
	a := NewResourceMethodAnalyzer(NewContext(catalog, opts))
	model := jaxrsflow.TypeOf("L" + modelClass + ";")

	require.Error(t, a.Analyze(context.Background(), resourceMethod("get", model.Type)))
	assert.False(t, a.Context().Registry.Known(model), "no reservation outlives the panic")

	catalog.fail = false
	require.NoError(t, a.Analyze(context.Background(), resourceMethod("get", model.Type)))
	rep, ok := a.Context().Registry.Get(model)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "value"}, rep.(*typerep.Concrete).Names())
}

func TestAnalyzeAllSerializes(t *testing.T) {
	a := newTestAnalyzer()
	var methods []*MethodResult
	for i := 0; i < 8; i++ {
		methods = append(methods, helperThrowingMethod())
	}

	require.NoError(t, AnalyzeAll(context.Background(), a, methods, 4))
	for _, m := range methods {
		assert.Equal(t, 2, m.Responses.Len())
	}
}

func TestAnalyzeConcurrentCallers(t *testing.T) {
	a := newTestAnalyzer()
	m := helperThrowingMethod()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Analyze(context.Background(), m)
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, m.Responses.Len())
}
