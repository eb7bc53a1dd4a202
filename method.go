package jaxrsflow

import (
	"fmt"
	"strings"
)

// Constructor is the JVM name of instance initializers.
const Constructor = "<init>"

// MethodIdentifier names a method by its declaring class (internal name),
// name, parameter and return descriptors and whether it is static.
type MethodIdentifier struct {
	ContainingClass string
	Name            string
	Parameters      []string
	ReturnType      string
	Static          bool
}

// MethodOf parses signature into a MethodIdentifier.
func MethodOf(class, name, signature string, static bool) (MethodIdentifier, error) {
	params, ret, err := ParseMethodDescriptor(signature)
	if err != nil {
		return MethodIdentifier{}, err
	}
	return MethodIdentifier{
		ContainingClass: class,
		Name:            name,
		Parameters:      params,
		ReturnType:      ret,
		Static:          static,
	}, nil
}

// StaticMethod builds the identifier of a static method.
func StaticMethod(class, name, returnType string, params ...string) MethodIdentifier {
	return MethodIdentifier{ContainingClass: class, Name: name, Parameters: params, ReturnType: returnType, Static: true}
}

// InstanceMethod builds the identifier of an instance method.
func InstanceMethod(class, name, returnType string, params ...string) MethodIdentifier {
	return MethodIdentifier{ContainingClass: class, Name: name, Parameters: params, ReturnType: returnType}
}

// Signature renders the method descriptor, e.g. (ILjava/lang/String;)V.
func (m MethodIdentifier) Signature() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Parameters {
		b.WriteString(p)
	}
	b.WriteByte(')')
	b.WriteString(m.ReturnType)
	return b.String()
}

// Equal compares structurally. Identifiers whose parameter lists differ only
// in generic arguments are still equal when their erasures match, since call
// sites may reference one method through different generic views.
func (m MethodIdentifier) Equal(o MethodIdentifier) bool {
	if m.Static != o.Static || m.ContainingClass != o.ContainingClass || m.Name != o.Name {
		return false
	}
	if len(m.Parameters) != len(o.Parameters) {
		return false
	}
	for i := range m.Parameters {
		if m.Parameters[i] != o.Parameters[i] && ClassName(m.Parameters[i]) != ClassName(o.Parameters[i]) {
			return false
		}
	}
	return m.ReturnType == o.ReturnType || ClassName(m.ReturnType) == ClassName(o.ReturnType)
}

// Key is a map key consistent with Equal: it is built from erased types.
func (m MethodIdentifier) Key() string {
	var b strings.Builder
	if m.Static {
		b.WriteString("static ")
	}
	b.WriteString(m.ContainingClass)
	b.WriteByte('#')
	b.WriteString(m.Name)
	b.WriteByte('(')
	for _, p := range m.Parameters {
		b.WriteString(Erase(p))
	}
	b.WriteByte(')')
	return b.String()
}

// ArgumentSlots is the number of local variable slots the receiver and the
// parameters occupy on entry.
func (m MethodIdentifier) ArgumentSlots() int {
	n := 0
	if !m.Static {
		n++
	}
	for _, p := range m.Parameters {
		n += SlotSize(p)
	}
	return n
}

// IsConstructor reports whether m is an instance initializer.
func (m MethodIdentifier) IsConstructor() bool {
	return m.Name == Constructor
}

// Matches reports whether m is the method name declared on class, ignoring
// the descriptor. Class names are compared in their canonical form.
func (m MethodIdentifier) Matches(class, name string) bool {
	return m.Name == name && Canonical(m.ContainingClass) == class
}

func (m MethodIdentifier) String() string {
	prefix := ""
	if m.Static {
		prefix = "static "
	}
	return fmt.Sprintf("%s%s.%s%s", prefix, m.ContainingClass, m.Name, m.Signature())
}
