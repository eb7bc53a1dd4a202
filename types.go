package jaxrsflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Primitive descriptors.
const (
	Void    = "V"
	Boolean = "Z"
	Byte    = "B"
	Char    = "C"
	Short   = "S"
	Int     = "I"
	Long    = "J"
	Float   = "F"
	Double  = "D"
)

// Well-known reference descriptors.
const (
	Object     = "Ljava/lang/Object;"
	String     = "Ljava/lang/String;"
	Throwable  = "Ljava/lang/Throwable;"
	Class      = "Ljava/lang/Class;"
	Enum       = "Ljava/lang/Enum;"
	BoxBoolean = "Ljava/lang/Boolean;"
	BoxByte    = "Ljava/lang/Byte;"
	BoxChar    = "Ljava/lang/Character;"
	BoxShort   = "Ljava/lang/Short;"
	BoxInt     = "Ljava/lang/Integer;"
	BoxLong    = "Ljava/lang/Long;"
	BoxFloat   = "Ljava/lang/Float;"
	BoxDouble  = "Ljava/lang/Double;"
	BigInteger = "Ljava/math/BigInteger;"
	BigDecimal = "Ljava/math/BigDecimal;"
	Date       = "Ljava/util/Date;"
	URI        = "Ljava/net/URI;"
	Locale     = "Ljava/util/Locale;"

	List       = "Ljava/util/List;"
	Set        = "Ljava/util/Set;"
	Collection = "Ljava/util/Collection;"
	Map        = "Ljava/util/Map;"

	Response          = "Ljavax/ws/rs/core/Response;"
	ResponseBuilder   = "Ljavax/ws/rs/core/Response$ResponseBuilder;"
	ResponseStatus    = "Ljavax/ws/rs/core/Response$Status;"
	StatusType        = "Ljavax/ws/rs/core/Response$StatusType;"
	MediaType         = "Ljavax/ws/rs/core/MediaType;"
	EntityTag         = "Ljavax/ws/rs/core/EntityTag;"
	CacheControl      = "Ljavax/ws/rs/core/CacheControl;"
	NewCookie         = "Ljavax/ws/rs/core/NewCookie;"
	WebAppException   = "Ljavax/ws/rs/WebApplicationException;"
	JSON              = "Ljavax/json/Json;"
	JSONValue         = "Ljavax/json/JsonValue;"
	JSONStructure     = "Ljavax/json/JsonStructure;"
	JSONObject        = "Ljavax/json/JsonObject;"
	JSONArray         = "Ljavax/json/JsonArray;"
	JSONObjectBuilder = "Ljavax/json/JsonObjectBuilder;"
	JSONArrayBuilder  = "Ljavax/json/JsonArrayBuilder;"
)

// Internal class names of the APIs the simulator replays.
const (
	ClassResponse        = "javax/ws/rs/core/Response"
	ClassResponseBuilder = "javax/ws/rs/core/Response$ResponseBuilder"
	ClassResponseStatus  = "javax/ws/rs/core/Response$Status"
	ClassStatusType      = "javax/ws/rs/core/Response$StatusType"
	ClassMediaType       = "javax/ws/rs/core/MediaType"
	ClassJSON            = "javax/json/Json"
	ClassJSONObjectBuild = "javax/json/JsonObjectBuilder"
	ClassJSONArrayBuild  = "javax/json/JsonArrayBuilder"
)

var collectionClasses = map[string]bool{
	"java/util/Collection":    true,
	"java/util/List":          true,
	"java/util/Set":           true,
	"java/util/SortedSet":     true,
	"java/util/Queue":         true,
	"java/util/Deque":         true,
	"java/util/ArrayList":     true,
	"java/util/LinkedList":    true,
	"java/util/HashSet":       true,
	"java/util/LinkedHashSet": true,
	"java/util/TreeSet":       true,
	"java/util/ArrayDeque":    true,
	"java/lang/Iterable":      true,
}

// Canonical rewrites the jakarta namespace of JAX-RS and JSON-P into the javax
// one so both generations match the same replay tables.
func Canonical(s string) string {
	if !strings.Contains(s, "jakarta/") {
		return s
	}
	s = strings.ReplaceAll(s, "jakarta/ws/rs/", "javax/ws/rs/")
	return strings.ReplaceAll(s, "jakarta/json/", "javax/json/")
}

// IsPrimitive reports whether desc is a primitive descriptor (void included).
func IsPrimitive(desc string) bool {
	if len(desc) != 1 {
		return false
	}
	switch desc {
	case Void, Boolean, Byte, Char, Short, Int, Long, Float, Double:
		return true
	}
	return false
}

// IsArray reports whether desc describes an array.
func IsArray(desc string) bool {
	return strings.HasPrefix(desc, "[")
}

// ComponentType strips one array dimension.
func ComponentType(desc string) string {
	return strings.TrimPrefix(desc, "[")
}

// SlotSize is the number of local variable slots a value of desc occupies.
func SlotSize(desc string) int {
	if desc == Long || desc == Double {
		return 2
	}
	return 1
}

// Erase drops generic type arguments: Ljava/util/List<LFoo;>; becomes
// Ljava/util/List;. Type variables erase to Object.
func Erase(desc string) string {
	if strings.HasPrefix(desc, "T") && strings.HasSuffix(desc, ";") {
		return Object
	}
	if !strings.Contains(desc, "<") {
		return desc
	}
	var b strings.Builder
	depth := 0
	for _, r := range desc {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ClassName returns the erased internal class name of a reference
// descriptor (java/util/List). Primitive and array descriptors are returned
// erased but otherwise unchanged.
func ClassName(desc string) string {
	e := Erase(desc)
	if strings.HasPrefix(e, "L") && strings.HasSuffix(e, ";") {
		return e[1 : len(e)-1]
	}
	return e
}

// Descriptor turns an internal class name into a reference descriptor.
func Descriptor(class string) string {
	if IsPrimitive(class) || IsArray(class) || strings.HasSuffix(class, ";") {
		return class
	}
	return "L" + strings.ReplaceAll(class, ".", "/") + ";"
}

// SimpleName is the class name without its package.
func SimpleName(desc string) string {
	c := ClassName(desc)
	if i := strings.LastIndexByte(c, '/'); i >= 0 {
		c = c[i+1:]
	}
	return c
}

// Package returns the slash separated package of an internal class name.
func Package(class string) string {
	class = ClassName(Descriptor(class))
	if i := strings.LastIndexByte(class, '/'); i >= 0 {
		return class[:i]
	}
	return ""
}

// TypeParameters returns the top-level generic arguments of desc.
func TypeParameters(desc string) []string {
	start := strings.IndexByte(desc, '<')
	end := strings.LastIndexByte(desc, '>')
	if start < 0 || end < start {
		return nil
	}
	args, err := splitDescriptors(desc[start+1 : end])
	if err != nil {
		return nil
	}
	return args
}

// IsCollection reports whether desc is one of the JDK collection types.
func IsCollection(desc string) bool {
	return collectionClasses[ClassName(desc)]
}

// IsNumeric reports whether desc is a primitive or boxed number.
func IsNumeric(desc string) bool {
	switch desc {
	case Byte, Char, Short, Int, Long, Float, Double,
		BoxByte, BoxShort, BoxInt, BoxLong, BoxFloat, BoxDouble, BigInteger, BigDecimal:
		return true
	}
	return false
}

// ParseMethodDescriptor splits a (possibly generic) method descriptor into
// its parameter descriptors and return descriptor.
func ParseMethodDescriptor(sig string) ([]string, string, error) {
	// generic methods carry a <T:...> declaration before the parameter list
	if strings.HasPrefix(sig, "<") {
		depth := 0
		for i, r := range sig {
			if r == '<' {
				depth++
			} else if r == '>' {
				depth--
				if depth == 0 {
					sig = sig[i+1:]
					break
				}
			}
		}
	}
	if !strings.HasPrefix(sig, "(") {
		return nil, "", fmt.Errorf("invalid method descriptor: %s", sig)
	}
	end := closingParen(sig)
	if end < 0 {
		return nil, "", fmt.Errorf("invalid method descriptor: %s", sig)
	}
	params, err := splitDescriptors(sig[1:end])
	if err != nil {
		return nil, "", fmt.Errorf("invalid method descriptor %s: %w", sig, err)
	}
	ret := sig[end+1:]
	// drop a trailing throws clause
	if i := strings.IndexByte(ret, '^'); i >= 0 {
		ret = ret[:i]
	}
	if ret == "" {
		return nil, "", fmt.Errorf("invalid method descriptor: %s", sig)
	}
	return params, ret, nil
}

func closingParen(sig string) int {
	depth := 0
	for i, r := range sig {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ')':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitDescriptors splits a concatenation of field descriptors.
func splitDescriptors(s string) ([]string, error) {
	var out []string
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && s[i] == '[' {
			i++
		}
		if i >= len(s) {
			return nil, fmt.Errorf("dangling array marker in %q", s)
		}
		switch s[i] {
		case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V', '*':
			i++
		case '+', '-':
			// wildcard bounds: skip the marker, the bound follows
			i++
			continue
		case 'L', 'T':
			depth := 0
			for i < len(s) {
				c := s[i]
				i++
				if c == '<' {
					depth++
				} else if c == '>' {
					depth--
				} else if c == ';' && depth == 0 {
					break
				}
			}
		default:
			return nil, fmt.Errorf("invalid type descriptor char '%c' in %s", s[i], s)
		}
		out = append(out, s[start:i])
	}
	return out, nil
}

// DynamicPrefix marks the names of types synthesized from JSON construction.
const DynamicPrefix = "$"

// TypeIdentifier is the canonical handle of an inferred type. Identifiers
// derived from the same descriptor, or from the same synthesized origin,
// compare equal.
type TypeIdentifier struct {
	Type string // descriptor of the Java type
	Name string // descriptor, or DynamicPrefix+n for synthesized shapes
}

// TypeOf returns the identifier of a declared type.
func TypeOf(desc string) TypeIdentifier {
	return TypeIdentifier{Type: desc, Name: desc}
}

// DynamicType returns the n-th synthesized identifier.
func DynamicType(n int) TypeIdentifier {
	return TypeIdentifier{Type: JSONObject, Name: DynamicPrefix + strconv.Itoa(n)}
}

func (t TypeIdentifier) IsDynamic() bool {
	return strings.HasPrefix(t.Name, DynamicPrefix)
}

func (t TypeIdentifier) IsZero() bool {
	return t.Type == "" && t.Name == ""
}

func (t TypeIdentifier) String() string {
	return t.Name
}
