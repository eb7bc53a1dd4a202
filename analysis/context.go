// Package analysis turns resource methods into the set of HTTP responses they
// may produce. A Context holds the state shared by all methods of one run:
// the method pool, the type registry and the class catalog.
package analysis

import (
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/speakeasy-api/jaxrsflow/typerep"
)

// Context is the state of one analysis run.
type Context struct {
	Pool     *simulate.MethodPool
	Registry *typerep.Registry
	Catalog  typerep.ClassCatalog
	Types    *typerep.Analyzer
	Options  simulate.Options
	Logger   simulate.Logger
}

// NewContext returns a fresh run context. Project methods enter the pool as
// resource methods calling them are analyzed.
func NewContext(catalog typerep.ClassCatalog, opts simulate.Options) *Context {
	registry := typerep.NewRegistry()
	c := &Context{
		Pool:     simulate.NewMethodPool(),
		Registry: registry,
		Catalog:  catalog,
		Types:    typerep.NewAnalyzer(registry, catalog),
		Options:  opts,
	}
	c.Logger = opts.Logger
	if c.Logger == nil {
		c.Logger = simulate.NewSimulator(c.Pool, opts).Logger()
	}
	c.Options.Logger = c.Logger
	return c
}
