package simulate

import (
	"fmt"
	"strings"
)

// Options configures the simulator.
type Options struct {
	// Limits that bound exploration
	MaxSteps      int // Max instructions executed over all paths of one method (default: 10000)
	MaxStackDepth int // Max abstract stack depth before a path is cut (default: 512)
	MaxCallDepth  int // Max nesting of resolved project methods (default: 32)

	// Behavior flags
	EnableWarnings bool // If true, collect warnings about precision loss (default: true)

	// Logging configuration
	LogLevel        string // Log level: "error", "warn", "info", "debug" (default: "warn")
	LogMaxValues    int    // Max values of an element to show in logs (default: 3)
	LogTimeFormat   string // strftime layout of log timestamps (default: DefaultTimeFormat)
	Logger          Logger // If set, used instead of a logger built from LogLevel
	LogStackPreview int    // Max stack elements to preview in debug logs (default: 3)
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		MaxSteps:        10000,
		MaxStackDepth:   512,
		MaxCallDepth:    32,
		EnableWarnings:  true,
		LogLevel:        "warn",
		LogMaxValues:    3,
		LogTimeFormat:   DefaultTimeFormat,
		LogStackPreview: 3,
	}
}

// withDefaults fills unset limits with their defaults.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxSteps <= 0 {
		o.MaxSteps = d.MaxSteps
	}
	if o.MaxStackDepth <= 0 {
		o.MaxStackDepth = d.MaxStackDepth
	}
	if o.MaxCallDepth <= 0 {
		o.MaxCallDepth = d.MaxCallDepth
	}
	if o.LogMaxValues <= 0 {
		o.LogMaxValues = d.LogMaxValues
	}
	if o.LogStackPreview <= 0 {
		o.LogStackPreview = d.LogStackPreview
	}
	return o
}

// logger returns the configured logger, building one from LogLevel when
// none is set.
func (o Options) logger() Logger {
	if o.Logger != nil {
		return o.Logger
	}
	if o.LogLevel == "" {
		return NopLogger()
	}
	return NewLogger(ParseLogLevel(o.LogLevel), nil, WithTimeFormat(o.LogTimeFormat))
}

// Result is the outcome of simulating one method.
type Result struct {
	// Element is the union of all return candidates and of the responses
	// carried by thrown status exceptions.
	Element Element

	Returned bool            // At least one path reached a Return
	Returns  []Element       // Return candidate of each returning path
	Thrown   []*HttpResponse // Responses of thrown status exceptions, deduplicated
	Warnings []string        // Warnings about precision loss or unsupported instructions

	Paths int // Terminal paths explored
	Steps int // Instructions executed
}

// HasElement reports whether any path produced a candidate.
func (r *Result) HasElement() bool {
	return len(r.Returns) > 0 || len(r.Thrown) > 0
}

// clone deep-copies the candidates so that callers may extend them.
func (r *Result) clone() *Result {
	c := newCopier()
	out := &Result{
		Element:  c.element(r.Element),
		Returned: r.Returned,
		Returns:  make([]Element, len(r.Returns)),
		Thrown:   make([]*HttpResponse, len(r.Thrown)),
		Warnings: append([]string(nil), r.Warnings...),
		Paths:    r.Paths,
		Steps:    r.Steps,
	}
	for i, e := range r.Returns {
		out.Returns[i] = c.element(e)
	}
	for i, t := range r.Thrown {
		out.Thrown[i] = c.value(t).(*HttpResponse)
	}
	return out
}

// String returns a string representation of the result for debugging.
func (r *Result) String() string {
	if r == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Element: %s\n", r.Element)
	fmt.Fprintf(&b, "Paths: %d, Steps: %d\n", r.Paths, r.Steps)
	for _, t := range r.Thrown {
		fmt.Fprintf(&b, "Thrown: %s\n", t)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "Warnings (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	return b.String()
}
