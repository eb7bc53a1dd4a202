package fixture

import (
	"context"
	"strings"
	"testing"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/analysis"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	fx, err := LoadFile("testdata/tasks.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"com/example/tasks/CommentResource",
		"com/example/tasks/State",
		"com/example/tasks/Task",
		"com/example/tasks/TaskResource",
		"com/example/tasks/TaskStore",
	}, fx.Catalog.Names())

	task, ok := fx.Catalog.Class("com/example/tasks/Task")
	require.True(t, ok)
	require.NotNil(t, task.XML)
	assert.Equal(t, "task", task.XML.Name)
	require.Len(t, task.Fields, 3)
	assert.True(t, task.Fields[0].XML.Attribute)

	state, _ := fx.Catalog.Class("com/example/tasks/State")
	assert.True(t, state.IsEnum())

	require.Len(t, fx.Resources, 1)
	res := fx.Resources[0]
	assert.Equal(t, "tasks", res.ResourcePath)
	assert.Equal(t, "/api/", res.ApplicationPath)
	assert.Equal(t, []string{"application/json"}, res.Produces)
	require.Len(t, res.Methods, 4)

	list := res.Methods[0]
	assert.Equal(t, "GET", list.HTTPMethod, "http methods are upper-cased")
	assert.Same(t, res, list.Parent)
	assert.Equal(t, "Ljava/util/List<Lcom/example/tasks/Task;>;", list.Signature.ReturnType)

	create := res.Methods[2]
	assert.Equal(t, "Lcom/example/tasks/Task;", create.RequestBody)
	assert.Equal(t, []string{"application/json"}, create.RequestMediaTypes)

	locator := res.Methods[3]
	assert.True(t, locator.IsSubResourceLocator())
	require.NotNil(t, locator.SubResource)
	assert.Same(t, locator, locator.SubResource.ParentSubResourceLocator)
	require.Len(t, locator.SubResource.Methods, 1)
	assert.Equal(t, "DELETE", locator.SubResource.Methods[0].HTTPMethod)
}

func TestInstructions(t *testing.T) {
	fx, err := LoadFile("testdata/tasks.yaml")
	require.NoError(t, err)

	find, ok := fx.Lookup("com/example/tasks/TaskStore", "find")
	require.True(t, ok)
	code := find.Instructions
	require.Len(t, code, 12)

	assert.Equal(t, jaxrsflow.KindLoad, code[0].Kind())
	assert.Equal(t, jaxrsflow.Long, code[0].Type())
	assert.Equal(t, jaxrsflow.KindGeneric, code[2].Kind())
	assert.Equal(t, 2, code[2].Pops())
	assert.Equal(t, []int{8}, code[3].Targets())
	assert.Equal(t, 1, code[3].Pops(), "branches pop one operand unless told otherwise")
	assert.Equal(t, jaxrsflow.KindDup, code[5].Kind(), "bare op names decode")
	assert.Equal(t, jaxrsflow.Constructor, code[6].Method().Name)
	assert.Equal(t, jaxrsflow.KindThrow, code[7].Kind())

	del, ok := fx.Lookup("com/example/tasks/CommentResource", "delete")
	require.True(t, ok)
	assert.True(t, del.Instructions[0].IsVoid())

	_, ok = fx.Lookup("com/example/tasks/TaskStore", "missing")
	assert.False(t, ok)

	assert.Len(t, fx.ProjectMethods(), 6)
}

func TestPushTypes(t *testing.T) {
	fx, err := Load(strings.NewReader(`
classes:
  - name: com/example/Consts
    methods:
      - name: run
        signature: ()V
        code:
          - {op: push, value: hello}
          - {op: push, value: 3}
          - {op: push, value: 1.5}
          - {op: push, value: true}
          - {op: push, value: null}
          - {op: push, value: 7, type: J}
`))
	require.NoError(t, err)
	m, ok := fx.Lookup("com/example/Consts", "run")
	require.True(t, ok)

	var types []string
	for _, ins := range m.Instructions {
		types = append(types, ins.Type())
	}
	assert.Equal(t, []string{jaxrsflow.String, jaxrsflow.Int, jaxrsflow.Double, jaxrsflow.Boolean, jaxrsflow.Object, jaxrsflow.Long}, types)
	assert.Nil(t, m.Instructions[4].Value())
}

func TestStackEffects(t *testing.T) {
	method := func(code string) string {
		return "classes:\n  - name: com/example/Counter\n    methods:\n      - name: run\n        signature: ()V\n        code:\n          - " + code + "\n"
	}

	fx, err := Load(strings.NewReader(method("{op: generic, name: iinc, slot: 2, value: -1}")))
	require.NoError(t, err)
	m, ok := fx.Lookup("com/example/Counter", "run")
	require.True(t, ok)
	iinc := m.Instructions[0]
	assert.Equal(t, "IINC", iinc.Name())
	assert.Equal(t, 2, iinc.Slot())
	assert.Equal(t, -1, iinc.Value())
	assert.Equal(t, 0, iinc.Pops())

	for _, code := range []string{
		"{op: generic, name: IINC, slot: 0}",
		"{op: generic, name: POP, pops: -1}",
		"{op: generic, name: DUP2, pushes: -2}",
		"{op: branch, name: IFEQ, pops: -1, target: 0}",
	} {
		_, err := Load(strings.NewReader(method(code)))
		assert.Error(t, err, code)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFile("testdata/bad_op.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Contains(t, err.Error(), "bad_op.yaml")

	_, err = LoadFile("testdata/bad_target.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = Load(strings.NewReader("classes:\n  - name: com/example/A\n    color: blue\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(strings.NewReader("resources:\n  - path: x\n    methods: []\n"))
	assert.Error(t, err)

	_, err = LoadFile("testdata/missing.yaml")
	assert.Error(t, err)

	fx, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fx.Resources)
}

func TestLoadDir(t *testing.T) {
	fx, err := LoadDir(context.Background(), "testdata/dir")
	require.NoError(t, err)

	assert.Equal(t, []string{"com/example/a/Model", "com/example/a/ModelResource"}, fx.Catalog.Names())
	require.Len(t, fx.Resources, 1)
	assert.Equal(t, "models", fx.Resources[0].ResourcePath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LoadDir(ctx, "testdata/dir")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixtureAnalysis(t *testing.T) {
	fx, err := LoadFile("testdata/tasks.yaml")
	require.NoError(t, err)

	opts := simulate.DefaultOptions()
	opts.Logger = simulate.NopLogger()
	a := analysis.NewResourceMethodAnalyzer(analysis.NewContext(fx.Catalog, opts))
	require.NoError(t, analysis.AnalyzeAll(context.Background(), a, analysis.Methods(fx.Resources...), 4))

	res := analysis.Interpret(a.Context().Types, fx.Resources...)
	assert.Equal(t, "api", res.BasePath)
	var paths []string
	for p := range res.Paths.All() {
		paths = append(paths, p)
	}
	assert.Equal(t, []string{"tasks", "tasks/{id}", "tasks/{id}/comments"}, paths)

	collection, _ := res.Paths.Get("tasks")
	require.Len(t, collection, 2)
	assert.Equal(t, "GET", collection[0].Method)
	ok := collection[0].Response(200)
	require.NotNil(t, ok)
	require.NotNil(t, ok.Entity)
	assert.Equal(t, "Ljava/util/List<Lcom/example/tasks/Task;>;", ok.Entity.Type)

	created := collection[1].Response(201)
	require.NotNil(t, created)
	assert.Equal(t, []string{"Location"}, created.Headers)
	assert.Nil(t, created.Entity)

	item, _ := res.Paths.Get("tasks/{id}")
	require.Len(t, item, 1)
	require.NotNil(t, item[0].Response(200))
	assert.Equal(t, jaxrsflow.TypeOf("Lcom/example/tasks/Task;"), *item[0].Response(200).Entity)
	assert.NotNil(t, item[0].Response(404), "the store throws NotFoundException")

	comments, _ := res.Paths.Get("tasks/{id}/comments")
	require.Len(t, comments, 1)
	assert.NotNil(t, comments[0].Response(204))
}
