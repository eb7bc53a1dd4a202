package analysis

import (
	"fmt"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/speakeasy-api/openapi/sequencedmap"
)

// ClassResult is a resource class as found by class analysis.
type ClassResult struct {
	OriginalClass   string // internal name
	ResourcePath    string
	ApplicationPath string
	Consumes        []string
	Produces        []string

	// ParentSubResourceLocator is set when the class is reached through a
	// sub-resource locator method rather than a root path.
	ParentSubResourceLocator *MethodResult

	Methods []*MethodResult
}

// AddMethod appends m and links it to c.
func (c *ClassResult) AddMethod(m *MethodResult) {
	m.Parent = c
	c.Methods = append(c.Methods, m)
}

// MethodResult is one resource method. Its Responses are filled in by the
// ResourceMethodAnalyzer.
type MethodResult struct {
	Signature          jaxrsflow.MethodIdentifier
	HTTPMethod         string // empty for sub-resource locators
	Path               string
	RequestMediaTypes  []string
	ResponseMediaTypes []string
	RequestBody        string // descriptor of the entity parameter, if any
	Instructions       []jaxrsflow.Instruction

	Parent      *ClassResult
	SubResource *ClassResult // class returned by a sub-resource locator

	Responses *ResponseSet
	Warnings  []string
}

// NewMethodResult returns a method result with an empty response set.
func NewMethodResult(signature jaxrsflow.MethodIdentifier, httpMethod string, code []jaxrsflow.Instruction) *MethodResult {
	return &MethodResult{
		Signature:    signature,
		HTTPMethod:   httpMethod,
		Instructions: code,
		Responses:    NewResponseSet(),
	}
}

// IsSubResourceLocator reports whether m has no HTTP method of its own.
func (m *MethodResult) IsSubResourceLocator() bool {
	return m.HTTPMethod == ""
}

func (m *MethodResult) addWarnings(ws ...string) {
	for _, w := range ws {
		dup := false
		for _, x := range m.Warnings {
			if x == w {
				dup = true
				break
			}
		}
		if !dup {
			m.Warnings = append(m.Warnings, w)
		}
	}
}

func (m *MethodResult) String() string {
	return fmt.Sprintf("MethodResult{%s %s %s, responses=%d}", m.HTTPMethod, m.Path, m.Signature, m.Responses.Len())
}

// ResponseSet holds distinct responses in insertion order. Responses that
// fingerprint equal are stored once.
type ResponseSet struct {
	byFingerprint *sequencedmap.Map[string, *simulate.HttpResponse]
}

func NewResponseSet() *ResponseSet {
	return &ResponseSet{byFingerprint: sequencedmap.New[string, *simulate.HttpResponse]()}
}

// Add stores a copy of r and reports whether it was new.
func (s *ResponseSet) Add(r *simulate.HttpResponse) bool {
	if s.byFingerprint == nil {
		s.byFingerprint = sequencedmap.New[string, *simulate.HttpResponse]()
	}
	fp := r.Fingerprint()
	if _, ok := s.byFingerprint.Get(fp); ok {
		return false
	}
	s.byFingerprint.Set(fp, r.Clone())
	return true
}

// All returns the responses in insertion order.
func (s *ResponseSet) All() []*simulate.HttpResponse {
	out := make([]*simulate.HttpResponse, 0)
	if s == nil || s.byFingerprint == nil {
		return out
	}
	for _, r := range s.byFingerprint.All() {
		out = append(out, r)
	}
	return out
}

func (s *ResponseSet) Len() int {
	if s == nil || s.byFingerprint == nil {
		return 0
	}
	return s.byFingerprint.Len()
}

// Equal compares the sets regardless of insertion order.
func (s *ResponseSet) Equal(o *ResponseSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, r := range s.All() {
		if _, ok := o.byFingerprint.Get(r.Fingerprint()); !ok {
			return false
		}
	}
	return true
}
