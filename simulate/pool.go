package simulate

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/speakeasy-api/jaxrsflow"
)

// ProjectMethod is a method of the analyzed code base whose body is known.
type ProjectMethod struct {
	Identifier   jaxrsflow.MethodIdentifier
	Instructions []jaxrsflow.Instruction
}

type poolEntry struct {
	method  ProjectMethod
	pending bool // registered by identifier, body not known yet
}

// MethodPool is the registry of project methods that calls may be resolved
// against, with a memo of their simulation results. One pool lives for one
// analysis run.
type MethodPool struct {
	methods    *xsync.Map[string, poolEntry]
	memo       *xsync.Map[string, *Result]
	inProgress *xsync.Map[string, bool]
}

func NewMethodPool() *MethodPool {
	return &MethodPool{
		methods:    xsync.NewMap[string, poolEntry](),
		memo:       xsync.NewMap[string, *Result](),
		inProgress: xsync.NewMap[string, bool](),
	}
}

// Add registers a method with its body. The first body registered for an
// identifier wins; a pending registration is completed. It reports whether
// the pool changed.
func (p *MethodPool) Add(m ProjectMethod) bool {
	key := m.Identifier.Key()
	prev, loaded := p.methods.LoadOrStore(key, poolEntry{method: m})
	if !loaded {
		return true
	}
	if !prev.pending {
		return false
	}
	p.methods.Store(key, poolEntry{method: m})
	p.memo.Delete(key)
	return true
}

// Register records that id belongs to the project before its body is
// known. Calls to it resolve to its declared return type until Add
// supplies the body.
func (p *MethodPool) Register(id jaxrsflow.MethodIdentifier) bool {
	_, loaded := p.methods.LoadOrStore(id.Key(), poolEntry{method: ProjectMethod{Identifier: id}, pending: true})
	return !loaded
}

// Get returns the method registered for id with its body.
func (p *MethodPool) Get(id jaxrsflow.MethodIdentifier) (ProjectMethod, bool) {
	e, ok := p.methods.Load(id.Key())
	if !ok || e.pending {
		return ProjectMethod{}, false
	}
	return e.method, true
}

// Contains reports whether id is a project method, pending or not.
func (p *MethodPool) Contains(id jaxrsflow.MethodIdentifier) bool {
	_, ok := p.methods.Load(id.Key())
	return ok
}

func (p *MethodPool) Len() int {
	return p.methods.Size()
}

// Methods returns the registered identifiers sorted by key.
func (p *MethodPool) Methods() []jaxrsflow.MethodIdentifier {
	out := make([]jaxrsflow.MethodIdentifier, 0, p.methods.Size())
	p.methods.Range(func(_ string, e poolEntry) bool {
		out = append(out, e.method.Identifier)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Forget drops all memoized results.
func (p *MethodPool) Forget() {
	p.memo.Clear()
}

func (p *MethodPool) lookup(id jaxrsflow.MethodIdentifier) (poolEntry, bool) {
	return p.methods.Load(id.Key())
}

func (p *MethodPool) memoized(id jaxrsflow.MethodIdentifier) (*Result, bool) {
	return p.memo.Load(id.Key())
}

func (p *MethodPool) remember(id jaxrsflow.MethodIdentifier, r *Result) {
	p.memo.Store(id.Key(), r)
}

// enter marks id as being resolved. It returns false when id already is,
// which means the call is recursive.
func (p *MethodPool) enter(id jaxrsflow.MethodIdentifier) bool {
	_, loaded := p.inProgress.LoadOrStore(id.Key(), true)
	return !loaded
}

func (p *MethodPool) leave(id jaxrsflow.MethodIdentifier) {
	p.inProgress.Delete(id.Key())
}
