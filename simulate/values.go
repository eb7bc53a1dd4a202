package simulate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/openapi/sequencedmap"
)

// StatusCode is a Response.Status constant.
type StatusCode int

func (s StatusCode) String() string {
	if name, ok := statusNames[int(s)]; ok {
		return fmt.Sprintf("%s(%d)", name, int(s))
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Null is the null reference.
type Null struct{}

func (Null) String() string { return "null" }

// HttpResponse is a synthesized description of one possible HTTP response.
// All slices are kept sorted and free of duplicates.
type HttpResponse struct {
	Statuses       []int
	Headers        []string
	ContentTypes   []string
	EntityTypes    []jaxrsflow.TypeIdentifier
	InlineEntities []JSONValue
}

func (r *HttpResponse) AddStatus(code int) {
	i := sort.SearchInts(r.Statuses, code)
	if i < len(r.Statuses) && r.Statuses[i] == code {
		return
	}
	r.Statuses = append(r.Statuses, 0)
	copy(r.Statuses[i+1:], r.Statuses[i:])
	r.Statuses[i] = code
}

func (r *HttpResponse) AddHeader(name string) {
	r.Headers = addSortedString(r.Headers, name)
}

func (r *HttpResponse) AddContentType(mediaType string) {
	r.ContentTypes = addSortedString(r.ContentTypes, mediaType)
}

func (r *HttpResponse) AddEntityType(t jaxrsflow.TypeIdentifier) {
	r.EntityTypes = addType(r.EntityTypes, t)
}

func (r *HttpResponse) AddInlineEntity(v JSONValue) {
	for _, x := range r.InlineEntities {
		if sameValue(x, v) {
			return
		}
	}
	r.InlineEntities = append(r.InlineEntities, v)
}

// AddEntity records an entity Element: its types become entity types and
// JSON values among its possible values become inline entities.
func (r *HttpResponse) AddEntity(e Element) {
	for _, t := range e.types {
		r.AddEntityType(t)
	}
	for _, v := range e.values {
		if j, ok := v.(JSONValue); ok {
			r.AddInlineEntity(j)
		}
	}
}

// Merge adds everything o describes to r.
func (r *HttpResponse) Merge(o *HttpResponse) {
	if o == nil || o == r {
		return
	}
	for _, s := range o.Statuses {
		r.AddStatus(s)
	}
	for _, h := range o.Headers {
		r.AddHeader(h)
	}
	for _, c := range o.ContentTypes {
		r.AddContentType(c)
	}
	for _, t := range o.EntityTypes {
		r.AddEntityType(t)
	}
	for _, j := range o.InlineEntities {
		r.AddInlineEntity(j)
	}
}

// Clone returns a deep copy.
func (r *HttpResponse) Clone() *HttpResponse {
	return newCopier().value(r).(*HttpResponse)
}

// IsEmpty reports whether nothing is known about the response.
func (r *HttpResponse) IsEmpty() bool {
	return len(r.Statuses) == 0 && len(r.Headers) == 0 && len(r.ContentTypes) == 0 &&
		len(r.EntityTypes) == 0 && len(r.InlineEntities) == 0
}

// Equal compares content, ignoring the order of inline entities.
func (r *HttpResponse) Equal(o *HttpResponse) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Fingerprint() == o.Fingerprint()
}

// Fingerprint returns a stable content hash.
func (r *HttpResponse) Fingerprint() string {
	return Fingerprint(r)
}

func (r *HttpResponse) String() string {
	entities := make([]string, 0, len(r.EntityTypes))
	for _, t := range r.EntityTypes {
		entities = append(entities, t.Name)
	}
	inline := make([]string, 0, len(r.InlineEntities))
	for _, j := range r.InlineEntities {
		inline = append(inline, valueString(j))
	}
	return fmt.Sprintf("HttpResponse{statuses=%v headers=%v contentTypes=%v entityTypes=[%s] inline=[%s]}",
		r.Statuses, r.Headers, r.ContentTypes, strings.Join(entities, ","), strings.Join(inline, ","))
}

// JSONValue is a structure synthesized from JSON-P builder calls.
type JSONValue interface {
	isJSONValue()
	String() string
}

// JSONObject maps property names to the Elements added under them, in
// insertion order.
type JSONObject struct {
	structure *sequencedmap.Map[string, Element]
}

func NewJSONObject() *JSONObject {
	return &JSONObject{structure: sequencedmap.New[string, Element]()}
}

func (*JSONObject) isJSONValue() {}

// Put joins e into the property name.
func (o *JSONObject) Put(name string, e Element) {
	if o.structure == nil {
		o.structure = sequencedmap.New[string, Element]()
	}
	if prev, ok := o.structure.Get(name); ok {
		e = prev.Union(e)
	}
	o.structure.Set(name, e)
}

func (o *JSONObject) Get(name string) (Element, bool) {
	if o.structure == nil {
		return Element{}, false
	}
	return o.structure.Get(name)
}

// Keys returns the property names in insertion order.
func (o *JSONObject) Keys() []string {
	if o.structure == nil {
		return nil
	}
	keys := make([]string, 0)
	for k := range o.structure.All() {
		keys = append(keys, k)
	}
	return keys
}

func (o *JSONObject) Len() int {
	return len(o.Keys())
}

func (o *JSONObject) Equal(x *JSONObject) bool {
	if o == nil || x == nil {
		return o == x
	}
	return Fingerprint(o) == Fingerprint(x)
}

func (o *JSONObject) String() string {
	parts := make([]string, 0)
	for _, k := range o.Keys() {
		e, _ := o.Get(k)
		parts = append(parts, k+": "+e.String())
	}
	return "JsonObject{" + strings.Join(parts, ", ") + "}"
}

// JSONArray holds the union of all Elements added to the array.
type JSONArray struct {
	Items Element
}

func (*JSONArray) isJSONValue() {}

func (a *JSONArray) Add(e Element) {
	a.Items = a.Items.Union(e)
}

func (a *JSONArray) Equal(x *JSONArray) bool {
	if a == nil || x == nil {
		return a == x
	}
	return Fingerprint(a) == Fingerprint(x)
}

func (a *JSONArray) String() string {
	return "JsonArray[" + a.Items.String() + "]"
}

// Instance is an object created by a New instruction whose construction the
// simulator tracks. Exceptions that carry a response status get Response set
// by their constructor.
type Instance struct {
	Class    string
	Response *HttpResponse
}

func (i *Instance) Equal(o *Instance) bool {
	if i == nil || o == nil {
		return i == o
	}
	return i.Class == o.Class && i.Response.Equal(o.Response)
}

func (i *Instance) String() string {
	if i.Response != nil {
		return fmt.Sprintf("Instance{%s %s}", i.Class, i.Response)
	}
	return "Instance{" + i.Class + "}"
}

// copier deep-copies structured values. Values reachable more than once are
// copied once, so aliasing inside one state survives a fork.
type copier struct {
	seen map[any]any
}

func newCopier() *copier {
	return &copier{seen: make(map[any]any)}
}

func (c *copier) element(e Element) Element {
	if len(e.values) == 0 {
		return e
	}
	out := Element{types: e.types, values: make([]any, len(e.values))}
	for i, v := range e.values {
		out.values[i] = c.value(v)
	}
	return out
}

func (c *copier) value(v any) any {
	switch x := v.(type) {
	case *HttpResponse:
		if y, ok := c.seen[x]; ok {
			return y
		}
		n := &HttpResponse{
			Statuses:     append([]int(nil), x.Statuses...),
			Headers:      append([]string(nil), x.Headers...),
			ContentTypes: append([]string(nil), x.ContentTypes...),
			EntityTypes:  append([]jaxrsflow.TypeIdentifier(nil), x.EntityTypes...),
		}
		c.seen[x] = n
		for _, j := range x.InlineEntities {
			n.InlineEntities = append(n.InlineEntities, c.value(j).(JSONValue))
		}
		return n
	case *JSONObject:
		if y, ok := c.seen[x]; ok {
			return y
		}
		n := NewJSONObject()
		c.seen[x] = n
		for _, k := range x.Keys() {
			e, _ := x.Get(k)
			n.structure.Set(k, c.element(e))
		}
		return n
	case *JSONArray:
		if y, ok := c.seen[x]; ok {
			return y
		}
		n := &JSONArray{}
		c.seen[x] = n
		n.Items = c.element(x.Items)
		return n
	case *Instance:
		if y, ok := c.seen[x]; ok {
			return y
		}
		n := &Instance{Class: x.Class}
		c.seen[x] = n
		if x.Response != nil {
			n.Response = c.value(x.Response).(*HttpResponse)
		}
		return n
	default:
		return v
	}
}

// CopyElement deep-copies the structured values of e.
func CopyElement(e Element) Element {
	return newCopier().element(e)
}

func addSortedString(list []string, s string) []string {
	i := sort.SearchStrings(list, s)
	if i < len(list) && list[i] == s {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = s
	return list
}
