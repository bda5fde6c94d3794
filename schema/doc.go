// Package schema provides the record builder and the prepared, immutable
// schemas that drive wireform encoding and decoding.
//
// A schema is declared once per record type with the fluent builder and built
// eagerly; Build is the only place reflection runs (it binds declared fields
// to struct fields and validates defaults, storage keys and nesting), after
// which encode/decode reuse the cached plan. The process-wide registry in
// cache.go makes the "build once, share read-only" contract safe to reach
// from many goroutines.
package schema
