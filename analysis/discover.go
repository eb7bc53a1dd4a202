package analysis

import (
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/speakeasy-api/jaxrsflow/typerep"
)

// prefixDepth is the number of package segments that identify the project.
const prefixDepth = 3

// PackagePrefix returns the first package segments of class, which calls
// must share to count as calls into the project.
func PackagePrefix(class string) string {
	pkg := jaxrsflow.Package(jaxrsflow.Canonical(class))
	if pkg == "" {
		return ""
	}
	segments := strings.Split(pkg, "/")
	if len(segments) > prefixDepth {
		segments = segments[:prefixDepth]
	}
	return strings.Join(segments, "/")
}

// InProject reports whether class lies under prefix. With an empty prefix
// every class outside the JDK and the JAX-RS and JSON-P APIs counts.
func InProject(prefix, class string) bool {
	if prefix == "" {
		return !isPlatformClass(class)
	}
	return class == prefix || strings.HasPrefix(class, prefix+"/")
}

func isPlatformClass(class string) bool {
	for _, p := range []string{"java/", "javax/", "jakarta/", "sun/", "jdk/"} {
		if strings.HasPrefix(class, p) {
			return true
		}
	}
	return false
}

// ProjectMethods registers the project methods invoked by code in pool and
// returns their identifiers in order of first call. Methods whose body the
// catalog knows are added with it and scanned in turn; the others are
// registered pending.
func ProjectMethods(pool *simulate.MethodPool, catalog typerep.ClassCatalog, prefix string, code []jaxrsflow.Instruction) []jaxrsflow.MethodIdentifier {
	var found []jaxrsflow.MethodIdentifier
	seen := make(map[string]bool)

	queue := [][]jaxrsflow.Instruction{code}
	for len(queue) > 0 {
		body := queue[0]
		queue = queue[1:]
		for _, ins := range body {
			if ins.Kind() != jaxrsflow.KindInvoke {
				continue
			}
			id := ins.Method()
			if !InProject(prefix, jaxrsflow.Canonical(id.ContainingClass)) || seen[id.Key()] {
				continue
			}
			seen[id.Key()] = true
			found = append(found, id)

			if _, ok := pool.Get(id); ok {
				continue
			}
			var method typerep.Method
			var known bool
			if catalog != nil {
				method, known = catalog.Method(id)
			}
			if !known {
				pool.Register(id)
				continue
			}
			pool.Add(simulate.ProjectMethod{Identifier: method.Identifier, Instructions: method.Instructions})
			queue = append(queue, method.Instructions)
		}
	}
	return found
}
