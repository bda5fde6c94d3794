package schema

import (
	wireform "github.com/wireform/wireform"
)

// DecodeContext carries the state shared by every field of one decode pass:
// the collected substitution warnings, the fail-fast flag and the nesting
// guard. Envelope families and nested records receive the caller's context so
// depth and warnings accumulate across schema boundaries.
type DecodeContext struct {
	failFast bool
	maxDepth int
	depth    int
	warnings wireform.Issues
}

// NewDecodeContext builds a context from decode options.
func NewDecodeContext(opts ...wireform.DecodeOpt) *DecodeContext {
	var opt wireform.DecodeOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	md := opt.MaxDepth
	if md <= 0 {
		md = wireform.DefaultMaxDepth
	}
	return &DecodeContext{failFast: opt.FailFast, maxDepth: md}
}

// FailFast reports whether the current decode should stop on the first issue.
func (dc *DecodeContext) FailFast() bool { return dc.failFast }

// Warn records a substitution warning (soft-default fill, enum fallback,
// unknown envelope tag). Warnings are not errors.
func (dc *DecodeContext) Warn(is wireform.Issue) {
	dc.warnings = wireform.AppendIssues(dc.warnings, is)
}

// Warnings returns the warnings collected so far.
func (dc *DecodeContext) Warnings() wireform.Issues { return dc.warnings }

// Enter pushes one nesting level, returning a too_deep issue past the ceiling.
// Schemas with unbounded recursion are rejected at build time, so hitting the
// ceiling here means the input itself is pathological.
func (dc *DecodeContext) Enter(at string) wireform.Issues {
	dc.depth++
	if dc.depth > dc.maxDepth {
		return wireform.Issues{{Path: at, Code: wireform.CodeTooDeep, Message: "value tree nesting exceeds ceiling"}}
	}
	return nil
}

// Leave pops one nesting level.
func (dc *DecodeContext) Leave() { dc.depth-- }
