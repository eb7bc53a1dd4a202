package typerep

import (
	"sort"

	"github.com/speakeasy-api/jaxrsflow"
)

// Field is a serialized field of a class.
type Field struct {
	Name string
	Type string // descriptor, possibly generic
	XML  *XMLMetadata
}

// Method is a method body known to the catalog.
type Method struct {
	Identifier   jaxrsflow.MethodIdentifier
	Instructions []jaxrsflow.Instruction
}

// Class is what the catalog knows about one class of the analyzed code base.
type Class struct {
	Name          string // internal name, e.g. com/example/Model
	Super         string // internal name of the superclass, empty for none
	Fields        []Field
	EnumConstants []string
	XML           *XMLMetadata
	Methods       []Method
}

// IsEnum reports whether the class declares enum constants.
func (c Class) IsEnum() bool {
	return len(c.EnumConstants) > 0
}

// ClassCatalog looks up classes of the analyzed code base by internal name.
type ClassCatalog interface {
	Class(name string) (Class, bool)
	Method(id jaxrsflow.MethodIdentifier) (Method, bool)
}

// MapCatalog is an in-memory ClassCatalog.
type MapCatalog map[string]Class

// Add stores c under its canonical internal name, replacing an earlier
// class of that name.
func (m MapCatalog) Add(c Class) {
	c.Name = jaxrsflow.Canonical(c.Name)
	m[c.Name] = c
}

func (m MapCatalog) Class(name string) (Class, bool) {
	c, ok := m[jaxrsflow.Canonical(jaxrsflow.ClassName(jaxrsflow.Descriptor(name)))]
	return c, ok
}

func (m MapCatalog) Method(id jaxrsflow.MethodIdentifier) (Method, bool) {
	c, ok := m.Class(id.ContainingClass)
	if !ok {
		return Method{}, false
	}
	for _, method := range c.Methods {
		if method.Identifier.Equal(id) {
			return method, true
		}
	}
	return Method{}, false
}

// Names returns the class names in sorted order.
func (m MapCatalog) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
