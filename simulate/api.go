// Package simulate abstractly executes JVM method bodies over the Element
// lattice. Paths are explored with a worklist of forked states; the outcome
// of a method is the union of what its paths return, plus the responses of
// status-bearing exceptions they throw.
//
// Calls against the JAX-RS Response API and the JSON-P builders are replayed
// symbolically into HttpResponse and JSON values. Calls into the analyzed
// code base are resolved through a MethodPool and memoized for the run.
package simulate

import (
	"context"
	"fmt"

	"github.com/speakeasy-api/jaxrsflow"
)

// Simulate runs a one-off simulation with an empty method pool.
func Simulate(ctx context.Context, method jaxrsflow.MethodIdentifier, code []jaxrsflow.Instruction, opts ...Options) (*Result, error) {
	// Use default options if none provided
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if err := validateMethod(method); err != nil {
		return nil, fmt.Errorf("invalid method: %w", err)
	}
	return NewSimulator(nil, opt).Simulate(ctx, method, code), nil
}

// validateMethod checks that the identifier is complete enough to seed the
// initial locals.
func validateMethod(m jaxrsflow.MethodIdentifier) error {
	if m.Name == "" {
		return fmt.Errorf("method name cannot be empty")
	}
	if m.ReturnType == "" {
		return fmt.Errorf("return type of %s cannot be empty", m.Name)
	}
	if !m.Static && m.ContainingClass == "" {
		return fmt.Errorf("instance method %s needs a containing class", m.Name)
	}
	return nil
}
