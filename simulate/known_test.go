package simulate

import (
	"testing"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseFactories(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		params  []string
		args    []Element
		status  []int
		headers []string
	}{
		{"ok", "ok", nil, nil, []int{200}, nil},
		{"created", "created", []string{jaxrsflow.URI}, []Element{Typed(jaxrsflow.URI)}, []int{201}, []string{"Location"}},
		{"no content", "noContent", nil, nil, []int{204}, nil},
		{"not modified with tag", "notModified", []string{jaxrsflow.EntityTag}, []Element{Typed(jaxrsflow.EntityTag)}, []int{304}, []string{"ETag"}},
		{"server error", "serverError", nil, nil, []int{500}, nil},
		{"status from constant", "status", []string{jaxrsflow.ResponseStatus}, []Element{Of(StatusCode(418), jaxrsflow.ResponseStatus)}, []int{418}, nil},
		{"status unknown", "status", []string{jaxrsflow.Int}, []Element{Typed(jaxrsflow.Int)}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := jaxrsflow.StaticMethod("jakarta/ws/rs/core/Response", tt.method, jaxrsflow.ResponseBuilder, tt.params...)
			e, ok := invokeResponse(m, tt.args)
			require.True(t, ok)
			rs := responsesOf(e)
			require.Len(t, rs, 1)
			assert.Equal(t, tt.status, rs[0].Statuses)
			assert.Equal(t, tt.headers, rs[0].Headers)
		})
	}
}

func TestResponseOkWithMediaType(t *testing.T) {
	m := jaxrsflow.StaticMethod(jaxrsflow.ClassResponse, "ok", jaxrsflow.ResponseBuilder, jaxrsflow.Object, jaxrsflow.String)
	e, ok := invokeResponse(m, []Element{Typed(jaxrsflow.String), Literal("text/plain", jaxrsflow.String)})
	require.True(t, ok)
	r := responsesOf(e)[0]
	assert.Equal(t, []string{"text/plain"}, r.ContentTypes)
	assert.Equal(t, []jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.String)}, r.EntityTypes)
}

func TestBuilderOnUnknownReceiver(t *testing.T) {
	m := jaxrsflow.InstanceMethod(jaxrsflow.ClassResponseBuilder, "cookie", jaxrsflow.ResponseBuilder, "[Ljavax/ws/rs/core/NewCookie;")
	e, ok := invokeResponse(m, []Element{Typed(jaxrsflow.ResponseBuilder), Typed("[Ljavax/ws/rs/core/NewCookie;")})
	require.True(t, ok)
	rs := responsesOf(e)
	require.Len(t, rs, 1)
	assert.Equal(t, []string{"Set-Cookie"}, rs[0].Headers)
}

func TestBuilderClone(t *testing.T) {
	r := &HttpResponse{}
	r.AddStatus(200)
	m := jaxrsflow.InstanceMethod(jaxrsflow.ClassResponseBuilder, "clone", jaxrsflow.ResponseBuilder)
	e, ok := invokeResponse(m, []Element{Of(r, jaxrsflow.ResponseBuilder)})
	require.True(t, ok)
	c := responsesOf(e)[0]
	assert.NotSame(t, r, c)
	assert.True(t, r.Equal(c))
}

func TestStatusLookups(t *testing.T) {
	from := jaxrsflow.StaticMethod(jaxrsflow.ClassResponseStatus, "fromStatusCode", jaxrsflow.ResponseStatus, jaxrsflow.Int)
	e, ok := invokeResponse(from, []Element{Literal(404, jaxrsflow.Int)})
	require.True(t, ok)
	assert.Equal(t, []any{StatusCode(404)}, e.Values())

	code := jaxrsflow.InstanceMethod(jaxrsflow.ClassResponseStatus, "getStatusCode", jaxrsflow.Int)
	e, ok = invokeResponse(code, []Element{e})
	require.True(t, ok)
	assert.Equal(t, []any{int32(404)}, e.Values())

	assert.Equal(t, "NOT_FOUND(404)", StatusCode(404).String())
	assert.Equal(t, "Status(299)", StatusCode(299).String())
	n, ok := StatusByName("I_AM_A_TEAPOT")
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestGetStaticConstants(t *testing.T) {
	e, ok := getStatic("javax/ws/rs/core/MediaType", "APPLICATION_JSON", jaxrsflow.String)
	require.True(t, ok)
	assert.Equal(t, []any{"application/json"}, e.Values())
	assert.True(t, e.HasType(jaxrsflow.String))

	e, ok = getStatic("jakarta/ws/rs/core/MediaType", "TEXT_PLAIN_TYPE", jaxrsflow.MediaType)
	require.True(t, ok)
	assert.True(t, e.HasType(jaxrsflow.MediaType))

	_, ok = getStatic("com/example/Constants", "OK", jaxrsflow.String)
	assert.False(t, ok)
}

func TestJSONObjectBuilderAddAll(t *testing.T) {
	src := NewJSONObject()
	src.Put("a", Typed(jaxrsflow.String))
	dst := NewJSONObject()
	dst.Put("b", Typed(jaxrsflow.Int))

	m := jaxrsflow.InstanceMethod(jaxrsflow.ClassJSONObjectBuild, "addAll", jaxrsflow.JSONObjectBuilder, jaxrsflow.JSONObjectBuilder)
	e, ok := invokeJSON(m, []Element{Of(dst, jaxrsflow.JSONObjectBuilder), Of(src, jaxrsflow.JSONObjectBuilder)})
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, dst.Keys())
	assert.Same(t, dst, e.Values()[0])
}

func TestJSONNestedBuilderIsSnapshot(t *testing.T) {
	inner := NewJSONObject()
	outer := NewJSONObject()

	add := jaxrsflow.InstanceMethod(jaxrsflow.ClassJSONObjectBuild, "add", jaxrsflow.JSONObjectBuilder, jaxrsflow.String, jaxrsflow.JSONObjectBuilder)
	_, ok := invokeJSON(add, []Element{Of(outer, jaxrsflow.JSONObjectBuilder), Literal("child", jaxrsflow.String), Of(inner, jaxrsflow.JSONObjectBuilder)})
	require.True(t, ok)

	inner.Put("late", Typed(jaxrsflow.String))

	child, ok := outer.Get("child")
	require.True(t, ok)
	assert.True(t, child.HasType(jaxrsflow.JSONObject), "nested builders are stored built")
	assert.Equal(t, 0, child.Values()[0].(*JSONObject).Len())
}

func TestBoxingKeepsLiterals(t *testing.T) {
	valueOf := jaxrsflow.StaticMethod("java/lang/Integer", "valueOf", jaxrsflow.BoxInt, jaxrsflow.Int)
	e, ok := invokeBoxing(valueOf, []Element{Literal(5, jaxrsflow.Int)})
	require.True(t, ok)
	assert.True(t, e.HasType(jaxrsflow.BoxInt))

	longValue := jaxrsflow.InstanceMethod("java/lang/Integer", "longValue", jaxrsflow.Long)
	e, ok = invokeBoxing(longValue, []Element{e})
	require.True(t, ok)
	assert.Equal(t, []any{int64(5)}, e.Values())
}
