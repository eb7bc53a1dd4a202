package typerep

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/speakeasy-api/jaxrsflow"
)

// ErrReserved is returned by Reserve when the identifier already has an
// entry, reserved or filled.
var ErrReserved = errors.New("type already registered")

type registryEntry struct {
	rep      Representation
	reserved bool // placeholder, not filled yet
}

// Registry maps type identifiers to their representation for one analysis
// run. An entry is reserved before it is built so a type that refers to
// itself sees the reservation instead of building again; Get only returns
// filled entries.
type Registry struct {
	entries *xsync.Map[jaxrsflow.TypeIdentifier, registryEntry]
	dynamic atomic.Int64
	intern  sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{entries: xsync.NewMap[jaxrsflow.TypeIdentifier, registryEntry]()}
}

// Reserve claims id for the caller, who is expected to Fill or Release it.
func (r *Registry) Reserve(id jaxrsflow.TypeIdentifier) error {
	if _, loaded := r.entries.LoadOrStore(id, registryEntry{reserved: true}); loaded {
		return fmt.Errorf("%s: %w", id, ErrReserved)
	}
	return nil
}

// Fill stores rep under its identifier. A filled entry is only replaced by a
// strictly more complete representation of the same variant. It reports
// whether rep was stored.
func (r *Registry) Fill(rep Representation) bool {
	id := rep.Identifier()
	prev, ok := r.entries.Load(id)
	if ok && !prev.reserved && !moreComplete(prev.rep, rep) {
		return false
	}
	r.entries.Store(id, registryEntry{rep: rep})
	return true
}

// Release drops a reservation that will not be filled. Filled entries stay.
func (r *Registry) Release(id jaxrsflow.TypeIdentifier) {
	if e, ok := r.entries.Load(id); ok && e.reserved {
		r.entries.Delete(id)
	}
}

// Known reports whether id is reserved or filled.
func (r *Registry) Known(id jaxrsflow.TypeIdentifier) bool {
	_, ok := r.entries.Load(id)
	return ok
}

func (r *Registry) Get(id jaxrsflow.TypeIdentifier) (Representation, bool) {
	e, ok := r.entries.Load(id)
	if !ok || e.reserved {
		return nil, false
	}
	return e.rep, true
}

// Len counts filled entries.
func (r *Registry) Len() int {
	n := 0
	r.entries.Range(func(_ jaxrsflow.TypeIdentifier, e registryEntry) bool {
		if !e.reserved {
			n++
		}
		return true
	})
	return n
}

// Identifiers returns the filled identifiers sorted by name.
func (r *Registry) Identifiers() []jaxrsflow.TypeIdentifier {
	ids := make([]jaxrsflow.TypeIdentifier, 0)
	r.entries.Range(func(id jaxrsflow.TypeIdentifier, e registryEntry) bool {
		if !e.reserved {
			ids = append(ids, id)
		}
		return true
	})
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Name != ids[j].Name {
			return ids[i].Name < ids[j].Name
		}
		return ids[i].Type < ids[j].Type
	})
	return ids
}

// All returns the filled representations in Identifiers order.
func (r *Registry) All() []Representation {
	ids := r.Identifiers()
	out := make([]Representation, 0, len(ids))
	for _, id := range ids {
		if rep, ok := r.Get(id); ok {
			out = append(out, rep)
		}
	}
	return out
}

// NewDynamicIdentifier returns a fresh identifier for a shape synthesized
// from JSON construction.
func (r *Registry) NewDynamicIdentifier() jaxrsflow.TypeIdentifier {
	return jaxrsflow.DynamicType(int(r.dynamic.Add(1)))
}

// InternDynamic returns the dynamic identifier of a registered shape equal
// to rep, or registers rep under a fresh one. Only the Type of the
// identifier rep carries is used.
func (r *Registry) InternDynamic(rep Representation) jaxrsflow.TypeIdentifier {
	r.intern.Lock()
	defer r.intern.Unlock()

	typ := rep.Identifier().Type
	var found jaxrsflow.TypeIdentifier
	r.entries.Range(func(id jaxrsflow.TypeIdentifier, e registryEntry) bool {
		if e.reserved || !id.IsDynamic() || id.Type != typ {
			return true
		}
		if Equal(e.rep, withIdentifier(rep, id)) {
			found = id
			return false
		}
		return true
	})
	if !found.IsZero() {
		return found
	}

	id := r.NewDynamicIdentifier()
	id.Type = typ
	r.Fill(withIdentifier(rep, id))
	return id
}
