// Package typerep describes the structure of the types that flow out of
// resource methods. Each analyzed type gets one Representation in a Registry
// shared by a whole analysis run; renderers read the registry afterwards.
package typerep

import (
	"fmt"
	"sort"
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/openapi/sequencedmap"
)

// Representation is one of *Concrete, *Collection or *Enum.
type Representation interface {
	Identifier() jaxrsflow.TypeIdentifier
	String() string
	isRepresentation()
}

// XMLMetadata carries the XML binding of a type or property. Empty strings
// mean the binding does not set that part.
type XMLMetadata struct {
	Namespace string
	Name      string
	Prefix    string
	Attribute bool
}

// Equal treats two nil metadata as equal.
func (m *XMLMetadata) Equal(o *XMLMetadata) bool {
	if m == nil || o == nil {
		return m == o
	}
	return *m == *o
}

func (m *XMLMetadata) String() string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s|%s|%t|%s", m.Namespace, m.Name, m.Attribute, m.Prefix)
}

// Concrete is an object type with named properties.
type Concrete struct {
	ID          jaxrsflow.TypeIdentifier
	Properties  *sequencedmap.Map[string, jaxrsflow.TypeIdentifier]
	XML         *XMLMetadata
	PropertyXML map[string]*XMLMetadata
}

// NewConcrete returns a Concrete without properties.
func NewConcrete(id jaxrsflow.TypeIdentifier) *Concrete {
	return &Concrete{
		ID:          id,
		Properties:  sequencedmap.New[string, jaxrsflow.TypeIdentifier](),
		PropertyXML: make(map[string]*XMLMetadata),
	}
}

func (*Concrete) isRepresentation() {}

func (c *Concrete) Identifier() jaxrsflow.TypeIdentifier { return c.ID }

// Set adds or replaces a property. xml may be nil.
func (c *Concrete) Set(name string, id jaxrsflow.TypeIdentifier, xml *XMLMetadata) {
	if c.Properties == nil {
		c.Properties = sequencedmap.New[string, jaxrsflow.TypeIdentifier]()
	}
	c.Properties.Set(name, id)
	if xml == nil {
		return
	}
	if c.PropertyXML == nil {
		c.PropertyXML = make(map[string]*XMLMetadata)
	}
	c.PropertyXML[name] = xml
}

func (c *Concrete) Property(name string) (jaxrsflow.TypeIdentifier, bool) {
	if c.Properties == nil {
		return jaxrsflow.TypeIdentifier{}, false
	}
	return c.Properties.Get(name)
}

// Names returns the property names in registration order.
func (c *Concrete) Names() []string {
	names := make([]string, 0)
	if c.Properties == nil {
		return names
	}
	for k := range c.Properties.All() {
		names = append(names, k)
	}
	return names
}

func (c *Concrete) Len() int {
	if c.Properties == nil {
		return 0
	}
	return c.Properties.Len()
}

func (c *Concrete) String() string {
	parts := make([]string, 0, c.Len())
	for _, k := range c.Names() {
		id, _ := c.Property(k)
		parts = append(parts, k+": "+id.String())
	}
	return fmt.Sprintf("Concrete{%s, properties={%s}}", c.ID, strings.Join(parts, ", "))
}

// Collection wraps the identifier of its element type.
type Collection struct {
	ID      jaxrsflow.TypeIdentifier
	Element jaxrsflow.TypeIdentifier
}

func (*Collection) isRepresentation() {}

func (c *Collection) Identifier() jaxrsflow.TypeIdentifier { return c.ID }

func (c *Collection) String() string {
	return fmt.Sprintf("Collection{%s, element=%s}", c.ID, c.Element)
}

// Enum lists the constants of an enum type. Its component is the enum type
// itself.
type Enum struct {
	ID     jaxrsflow.TypeIdentifier
	Values []string
}

func (*Enum) isRepresentation() {}

func (e *Enum) Identifier() jaxrsflow.TypeIdentifier { return e.ID }

func (e *Enum) Component() jaxrsflow.TypeIdentifier { return e.ID }

func (e *Enum) String() string {
	return fmt.Sprintf("Enum{%s, values=%v}", e.ID, e.Values)
}

// Equal reports whether a and b are the same variant with the same
// identifier and structurally equal content. Property and constant order is
// irrelevant.
func Equal(a, b Representation) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Identifier() != b.Identifier() {
		return false
	}
	switch x := a.(type) {
	case *Concrete:
		y, ok := b.(*Concrete)
		return ok && sameProperties(x, y)
	case *Collection:
		y, ok := b.(*Collection)
		return ok && x.Element == y.Element
	case *Enum:
		y, ok := b.(*Enum)
		return ok && sameStrings(x.Values, y.Values)
	default:
		panic(fmt.Sprintf("unknown representation %T", a))
	}
}

// withIdentifier returns a shallow copy of rep filed under id.
func withIdentifier(rep Representation, id jaxrsflow.TypeIdentifier) Representation {
	switch x := rep.(type) {
	case *Concrete:
		c := *x
		c.ID = id
		return &c
	case *Collection:
		c := *x
		c.ID = id
		return &c
	case *Enum:
		c := *x
		c.ID = id
		return &c
	default:
		panic(fmt.Sprintf("unknown representation %T", rep))
	}
}

// MetadataEqual compares the XML binding of two Concrete representations.
// Any other pair is equal as long as neither side is Concrete.
func MetadataEqual(a, b Representation) bool {
	x, xok := a.(*Concrete)
	y, yok := b.(*Concrete)
	if !xok || !yok {
		return !xok && !yok
	}
	if !x.XML.Equal(y.XML) {
		return false
	}
	if len(nonNil(x.PropertyXML)) != len(nonNil(y.PropertyXML)) {
		return false
	}
	for name, m := range nonNil(x.PropertyXML) {
		if !m.Equal(y.PropertyXML[name]) {
			return false
		}
	}
	return true
}

// moreComplete reports whether next carries strictly more than prev while
// agreeing with everything prev already knows.
func moreComplete(prev, next Representation) bool {
	switch p := prev.(type) {
	case *Concrete:
		n, ok := next.(*Concrete)
		if !ok || n.Len() <= p.Len() {
			return false
		}
		for _, name := range p.Names() {
			pid, _ := p.Property(name)
			nid, ok := n.Property(name)
			if !ok || nid != pid {
				return false
			}
		}
		return true
	case *Enum:
		n, ok := next.(*Enum)
		if !ok || len(n.Values) <= len(p.Values) {
			return false
		}
		for _, v := range p.Values {
			if !containsString(n.Values, v) {
				return false
			}
		}
		return true
	case *Collection:
		n, ok := next.(*Collection)
		return ok && p.Element.Type == jaxrsflow.Object && n.Element.Type != jaxrsflow.Object
	}
	return false
}

func sameProperties(a, b *Concrete) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, name := range a.Names() {
		x, _ := a.Property(name)
		y, ok := b.Property(name)
		if !ok || x != y {
			return false
		}
	}
	return true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func nonNil(m map[string]*XMLMetadata) map[string]*XMLMetadata {
	out := make(map[string]*XMLMetadata, len(m))
	for k, v := range m {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
