package simulate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/speakeasy-api/jaxrsflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var elementComparer = cmp.Comparer(func(a, b Element) bool { return a.Equal(b) })

func TestElementUnion(t *testing.T) {
	a := Literal(1, jaxrsflow.Int)
	b := Literal(2, jaxrsflow.Int)
	s := Typed(jaxrsflow.String)

	u := a.Union(b).Union(s)
	assert.Equal(t, []any{int32(1), int32(2)}, u.Values())
	assert.Equal(t, []string{jaxrsflow.Int, jaxrsflow.String}, u.TypeDescriptors())

	// union leaves its operands alone
	assert.Equal(t, []any{int32(1)}, a.Values())

	// idempotent and commutative
	assert.True(t, u.Union(u).Equal(u))
	assert.True(t, b.Union(a).Equal(a.Union(b)))

	if diff := cmp.Diff(u, Union(s, b, a), elementComparer); diff != "" {
		t.Errorf("Union mismatch (-want +got):\n%s", diff)
	}
}

func TestElementEmptyAndSingle(t *testing.T) {
	var e Element
	assert.True(t, e.IsEmpty())
	_, ok := e.Single()
	assert.False(t, ok)

	v, ok := Literal("x", jaxrsflow.String).Single()
	require.True(t, ok)
	assert.Equal(t, "x", v)

	assert.False(t, Typed(jaxrsflow.Int).HasValues())
	assert.True(t, Typed(jaxrsflow.Void).IsEmpty())
}

func TestLiteralNormalization(t *testing.T) {
	assert.Equal(t, []any{int32(7)}, Literal(7, jaxrsflow.Int).Values())
	assert.Equal(t, []any{int32(1)}, Literal(true, jaxrsflow.Boolean).Values())
	assert.Equal(t, []any{int64(7)}, Literal(7, jaxrsflow.Long).Values())
	assert.Equal(t, []any{float32(1.5)}, Literal(1.5, jaxrsflow.Float).Values())
	assert.Equal(t, []any{Null{}}, Literal(nil, jaxrsflow.Object).Values())
}

func TestStructuredValuesCompareByContent(t *testing.T) {
	r1 := &HttpResponse{}
	r1.AddStatus(404)
	r2 := &HttpResponse{}
	r2.AddStatus(404)

	e := NewElement(nil, r1, r2)
	assert.Len(t, e.Values(), 1)

	r2.AddHeader("ETag")
	assert.False(t, r1.Equal(r2))
}

func TestHttpResponseSortedSets(t *testing.T) {
	r := &HttpResponse{}
	r.AddStatus(404)
	r.AddStatus(200)
	r.AddStatus(404)
	r.AddHeader("X-B")
	r.AddHeader("X-A")
	r.AddEntityType(jaxrsflow.TypeOf(jaxrsflow.String))
	r.AddEntityType(jaxrsflow.TypeOf(jaxrsflow.String))

	assert.Equal(t, []int{200, 404}, r.Statuses)
	assert.Equal(t, []string{"X-A", "X-B"}, r.Headers)
	assert.Len(t, r.EntityTypes, 1)

	o := &HttpResponse{}
	o.AddContentType("application/json")
	r.Merge(o)
	assert.Equal(t, []string{"application/json"}, r.ContentTypes)
}

func TestCopyPreservesAliasing(t *testing.T) {
	obj := NewJSONObject()
	obj.Put("key", Typed(jaxrsflow.String))

	st := newExecState(nil)
	st.push(Of(obj, jaxrsflow.JSONObjectBuilder))
	st.locals[1] = Of(obj, jaxrsflow.JSONObjectBuilder)

	c := st.clone()
	top, ok := c.top()
	require.True(t, ok)
	copied := top.Values()[0].(*JSONObject)
	local := c.locals[1].Values()[0].(*JSONObject)

	assert.Same(t, copied, local, "stack and local must still share one object")
	assert.NotSame(t, obj, copied)

	copied.Put("other", Typed(jaxrsflow.Int))
	assert.Equal(t, []string{"key"}, obj.Keys())
	assert.Equal(t, []string{"key", "other"}, local.Keys())
}

func TestJSONObjectPutUnions(t *testing.T) {
	obj := NewJSONObject()
	obj.Put("a", Typed(jaxrsflow.String))
	obj.Put("b", Typed(jaxrsflow.Int))
	obj.Put("a", Typed(jaxrsflow.Int))

	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	a, _ := obj.Get("a")
	assert.Equal(t, []string{jaxrsflow.Int, jaxrsflow.String}, a.TypeDescriptors())
	assert.Equal(t, "JsonObject{a: Element{types=[I,Ljava/lang/String;] values=[]}, b: Element{types=[I] values=[]}}", obj.String())
}

func TestFingerprintIgnoresOrder(t *testing.T) {
	a := NewJSONObject()
	a.Put("x", Typed(jaxrsflow.String))
	a.Put("y", Typed(jaxrsflow.Int))
	b := NewJSONObject()
	b.Put("y", Typed(jaxrsflow.Int))
	b.Put("x", Typed(jaxrsflow.String))
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	e1 := NewElement(nil, "a", "b")
	e2 := NewElement(nil, "b", "a")
	assert.Equal(t, Fingerprint(e1), Fingerprint(e2))
	assert.NotEqual(t, Fingerprint(e1), Fingerprint(NewElement(nil, "a")))
}
