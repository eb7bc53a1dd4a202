package analysis

import (
	"sort"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/pkg/pathnorm"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/speakeasy-api/jaxrsflow/typerep"
	"github.com/speakeasy-api/openapi/sequencedmap"
)

var httpMethodOrder = map[string]int{
	"GET": 0, "POST": 1, "PUT": 2, "PATCH": 3, "DELETE": 4, "HEAD": 5, "OPTIONS": 6,
}

// Resources is the REST view of an analysis run.
type Resources struct {
	BasePath string
	// Paths maps normalized resource paths, sorted, to their methods.
	Paths *sequencedmap.Map[string, []*ResourceMethod]
}

// ResourceMethod is one HTTP method on a resource path.
type ResourceMethod struct {
	Method             string
	Path               string
	Signature          jaxrsflow.MethodIdentifier
	RequestMediaTypes  []string
	ResponseMediaTypes []string
	RequestBody        *jaxrsflow.TypeIdentifier
	// Responses by status code, sorted.
	Responses []*Response
	Warnings  []string
}

// Response is what a method answers with one status code.
type Response struct {
	Status       int
	Headers      []string
	ContentTypes []string
	Entity       *jaxrsflow.TypeIdentifier
}

// Response returns the response for status, or nil.
func (m *ResourceMethod) Response(status int) *Response {
	for _, r := range m.Responses {
		if r.Status == status {
			return r
		}
	}
	return nil
}

// Interpret builds the REST view of classes. Entity types and inline JSON
// structures are registered through types, so the registry holds every type
// the view refers to.
func Interpret(types *typerep.Analyzer, classes ...*ClassResult) *Resources {
	appPaths := make([]string, 0, len(classes))
	for _, c := range classes {
		appPaths = append(appPaths, c.ApplicationPath)
	}

	byPath := make(map[string][]*ResourceMethod)
	for _, m := range Methods(classes...) {
		if m.IsSubResourceLocator() {
			continue
		}
		rm := interpretMethod(types, m)
		byPath[rm.Path] = append(byPath[rm.Path], rm)
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := &Resources{
		BasePath: pathnorm.ApplicationPath(appPaths...),
		Paths:    sequencedmap.New[string, []*ResourceMethod](),
	}
	for _, p := range paths {
		methods := byPath[p]
		sort.SliceStable(methods, func(i, j int) bool {
			return methodRank(methods[i].Method) < methodRank(methods[j].Method)
		})
		out.Paths.Set(p, methods)
	}
	return out
}

// FullPath joins the paths of m, of its class and of every sub-resource
// locator leading to it.
func FullPath(m *MethodResult) string {
	var pieces []string
	current := m
	for depth := 0; current != nil && depth < 64; depth++ {
		pieces = append(pieces, current.Path)
		parent := current.Parent
		if parent == nil {
			break
		}
		if parent.ParentSubResourceLocator == nil {
			pieces = append(pieces, parent.ResourcePath)
			break
		}
		current = parent.ParentSubResourceLocator
	}
	for i, j := 0, len(pieces)-1; i < j; i, j = i+1, j-1 {
		pieces[i], pieces[j] = pieces[j], pieces[i]
	}
	return pathnorm.Join(pieces...)
}

func interpretMethod(types *typerep.Analyzer, m *MethodResult) *ResourceMethod {
	rm := &ResourceMethod{
		Method:             m.HTTPMethod,
		Path:               FullPath(m),
		Signature:          m.Signature,
		RequestMediaTypes:  mediaTypes(m.RequestMediaTypes, m.Parent, true),
		ResponseMediaTypes: mediaTypes(m.ResponseMediaTypes, m.Parent, false),
		Warnings:           append([]string(nil), m.Warnings...),
	}
	if m.RequestBody != "" {
		id := types.Analyze(m.RequestBody)
		rm.RequestBody = &id
	}

	for _, r := range m.Responses.All() {
		entity := entityOf(types, r)
		statuses := r.Statuses
		if len(statuses) == 0 {
			if entity == nil {
				statuses = []int{204}
			} else {
				statuses = []int{200}
			}
		}
		for _, s := range statuses {
			mergeResponse(rm, &Response{
				Status:       s,
				Headers:      append([]string(nil), r.Headers...),
				ContentTypes: append([]string(nil), r.ContentTypes...),
				Entity:       entity,
			})
		}
	}
	if len(rm.Responses) == 0 && jaxrsflow.Erase(m.Signature.ReturnType) == jaxrsflow.Void {
		rm.Responses = append(rm.Responses, &Response{Status: 204})
	}
	sort.Slice(rm.Responses, func(i, j int) bool { return rm.Responses[i].Status < rm.Responses[j].Status })
	return rm
}

// entityOf picks the entity of r: an inline JSON structure if there is one,
// else its most specific entity type.
func entityOf(types *typerep.Analyzer, r *simulate.HttpResponse) *jaxrsflow.TypeIdentifier {
	if len(r.InlineEntities) > 0 {
		id := types.AnalyzeJSON(r.InlineEntities[0])
		return &id
	}
	var picked *jaxrsflow.TypeIdentifier
	for _, t := range r.EntityTypes {
		if t.Type == jaxrsflow.Void {
			continue
		}
		if picked == nil || picked.Type == jaxrsflow.Object {
			picked = &t
		}
	}
	if picked != nil && !picked.IsDynamic() {
		id := types.Analyze(picked.Type)
		picked = &id
	}
	return picked
}

func mergeResponse(rm *ResourceMethod, r *Response) {
	prev := rm.Response(r.Status)
	if prev == nil {
		rm.Responses = append(rm.Responses, r)
		return
	}
	for _, h := range r.Headers {
		prev.Headers = addSorted(prev.Headers, h)
	}
	for _, c := range r.ContentTypes {
		prev.ContentTypes = addSorted(prev.ContentTypes, c)
	}
	if prev.Entity == nil {
		prev.Entity = r.Entity
	}
}

// mediaTypes falls back to the class level declaration.
func mediaTypes(own []string, parent *ClassResult, consumes bool) []string {
	if len(own) > 0 || parent == nil {
		return append([]string(nil), own...)
	}
	if consumes {
		return append([]string(nil), parent.Consumes...)
	}
	return append([]string(nil), parent.Produces...)
}

func methodRank(method string) int {
	if r, ok := httpMethodOrder[method]; ok {
		return r
	}
	return len(httpMethodOrder)
}

func addSorted(list []string, s string) []string {
	i := sort.SearchStrings(list, s)
	if i < len(list) && list[i] == s {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = s
	return list
}
