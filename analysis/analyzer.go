package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"golang.org/x/sync/errgroup"
)

// ResourceMethodAnalyzer computes the responses of resource methods. Calls
// to Analyze are serialized: the method pool and the type registry of the
// run are only touched by one analysis at a time.
type ResourceMethodAnalyzer struct {
	mu  sync.Mutex
	run *Context
	sim *simulate.Simulator
}

func NewResourceMethodAnalyzer(run *Context) *ResourceMethodAnalyzer {
	return &ResourceMethodAnalyzer{
		run: run,
		sim: simulate.NewSimulator(run.Pool, run.Options),
	}
}

func (a *ResourceMethodAnalyzer) Context() *Context { return a.run }

// Analyze adds the responses m may produce to m.Responses. Imprecision is
// reported through m.Warnings; the only errors are a cancelled ctx and a
// panic inside the simulation, which leave m with the responses recorded so
// far.
func (a *ResourceMethodAnalyzer) Analyze(ctx context.Context, m *MethodResult) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := a.run.Logger.With(map[string]any{"method": m.Signature.String()})
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Analysis panicked: %v\n%s", r, debug.Stack())
			m.addWarnings(fmt.Sprintf("analysis aborted: %v", r))
			err = fmt.Errorf("analyzing %s: %v", m.Signature, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analyzing %s: %w", m.Signature, err)
	}
	if m.Responses == nil {
		m.Responses = NewResponseSet()
	}

	class := m.Signature.ContainingClass
	if m.Parent != nil && m.Parent.OriginalClass != "" {
		class = m.Parent.OriginalClass
	}
	code := Reduce(m.Instructions)
	called := ProjectMethods(a.run.Pool, a.run.Catalog, PackagePrefix(class), code)
	logger.Debugf("Reduced %d instructions to %d, %d project methods called", len(m.Instructions), len(code), len(called))

	result := a.sim.Simulate(ctx, m.Signature, code)
	m.addWarnings(result.Warnings...)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analyzing %s: %w", m.Signature, err)
	}

	returnType := jaxrsflow.Erase(jaxrsflow.Canonical(m.Signature.ReturnType))
	if returnType == jaxrsflow.Void {
		return nil
	}

	var responses []*simulate.HttpResponse
	var others []any
	for _, v := range result.Element.Values() {
		if r, ok := v.(*simulate.HttpResponse); ok {
			responses = append(responses, r)
		} else {
			others = append(others, v)
		}
	}

	if returnType != jaxrsflow.Response {
		def := &simulate.HttpResponse{}
		if returnType == jaxrsflow.Object {
			for _, t := range result.Element.Types() {
				def.AddEntityType(t)
			}
		} else {
			def.AddEntityType(jaxrsflow.TypeOf(jaxrsflow.Canonical(m.Signature.ReturnType)))
		}
		for _, v := range others {
			if j, ok := v.(simulate.JSONValue); ok {
				def.AddInlineEntity(j)
			}
		}
		a.record(m, def)
	}
	for _, r := range responses {
		a.record(m, r)
	}

	logger.Infof("Recorded %d responses", m.Responses.Len())
	return nil
}

// record adds r to m and registers the types of its entities, inline JSON
// structures included.
func (a *ResourceMethodAnalyzer) record(m *MethodResult, r *simulate.HttpResponse) {
	for _, t := range r.EntityTypes {
		if !t.IsDynamic() {
			a.run.Types.Analyze(t.Type)
		}
	}
	for _, j := range r.InlineEntities {
		a.run.Types.AnalyzeJSON(j)
	}
	m.Responses.Add(r)
}

// AnalyzeAll analyzes methods with up to concurrency submitters. The
// analyses themselves still run one at a time. Errors of single methods
// are joined; the first one does not stop the others.
func AnalyzeAll(ctx context.Context, a *ResourceMethodAnalyzer, methods []*MethodResult, concurrency int) error {
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	errs := make([]error, len(methods))
	for i, m := range methods {
		g.Go(func() error {
			errs[i] = a.Analyze(ctx, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// Methods returns the methods of classes and of the sub-resource classes
// their locators return, each once.
func Methods(classes ...*ClassResult) []*MethodResult {
	var out []*MethodResult
	seenClass := make(map[*ClassResult]bool)
	var walk func(c *ClassResult)
	walk = func(c *ClassResult) {
		if c == nil || seenClass[c] {
			return
		}
		seenClass[c] = true
		for _, m := range c.Methods {
			out = append(out, m)
			walk(m.SubResource)
		}
	}
	for _, c := range classes {
		walk(c)
	}
	return out
}
