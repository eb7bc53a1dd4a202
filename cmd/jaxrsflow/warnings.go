package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/speakeasy-api/jaxrsflow/analysis"
)

var (
	pcRe     = regexp.MustCompile(`\bpc=(\d+)`)
	calleeRe = regexp.MustCompile(`\bbody of (?:static )?(\S+) not available`)
)

// methodWarning is a warning together with the endpoint it was raised for.
type methodWarning struct {
	Endpoint string
	Message  string
}

func collectWarnings(res *analysis.Resources) []methodWarning {
	var out []methodWarning
	for path, methods := range res.Paths.All() {
		for _, m := range methods {
			for _, w := range m.Warnings {
				out = append(out, methodWarning{
					Endpoint: fmt.Sprintf("%s /%s (%s)", m.Method, path, m.Signature),
					Message:  w,
				})
			}
		}
	}
	return out
}

// formatWarnings turns simulator warnings into a user-facing report.
func formatWarnings(warnings []methodWarning) string {
	if len(warnings) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis produced %d warning(s) (strict mode).\n", len(warnings))
	for _, w := range warnings {
		msg, hint := classifyWarning(w.Message)
		fmt.Fprintf(&b, "- %s\n", msg)
		fmt.Fprintf(&b, "  Location: %s\n", location(w))
		if hint != "" {
			fmt.Fprintf(&b, "  How to fix: %s\n", hint)
		}
		fmt.Fprintf(&b, "  Details: %s\n", strings.TrimSpace(w.Message))
	}
	return b.String()
}

func location(w methodWarning) string {
	if m := pcRe.FindStringSubmatch(w.Message); len(m) == 2 {
		return w.Endpoint + " at instruction " + m[1]
	}
	return w.Endpoint
}

func classifyWarning(s string) (msg, hint string) {
	switch {
	case strings.Contains(s, "step limit"):
		return "Step limit reached; some paths of the method were not explored.",
			"Raise simulation.maxSteps in the configuration file."
	case strings.Contains(s, "stack depth"):
		return "Operand stack grew beyond the configured limit.",
			"Check the method for unbalanced pushes, or raise simulation.maxStackDepth."
	case strings.Contains(s, "call depth"):
		return "Nested project calls exceeded the configured depth.",
			"Raise simulation.maxCallDepth."
	case strings.Contains(s, "not available"):
		callee := ""
		if m := calleeRe.FindStringSubmatch(s); len(m) == 2 {
			callee = m[1]
		}
		msg = "A called project method has no body; its declared return type was used."
		if callee != "" {
			msg = fmt.Sprintf("Method %s has no body; its declared return type was used.", callee)
		}
		return msg, "Add the method's code to the fixture."
	case strings.Contains(s, "unsupported instruction"):
		return "An instruction could not be simulated and was skipped.", ""
	case strings.Contains(s, "analysis aborted"):
		return "The analysis of this method failed.", "The stack trace is in the error log."
	}
	return "Analysis warning.", ""
}
