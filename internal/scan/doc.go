// Package scan implements the lenient source scanner used to find
// federation settings inside Vite configuration files.
//
// There is no grammar and no AST here. The scanner answers one
// question at a time ("where is the exposes object?", "where is the
// federation(...) call?") with a single forward pass that:
//
//   - skips strings, template literals (including nested ${...}
//     substitutions) and comments via SkipNonCode, and
//   - counts delimiter depth everywhere else.
//
// Every locator either returns a fully balanced region or reports not found.
// Malformed input (an unterminated string or comment) saturates the scan to
// the end of the file, which surfaces as not found instead of an error, so
// callers can fall back to injecting or regenerating text.
//
// All functions are pure functions of their input string. Located offsets
// are only valid for the exact text they were computed from.
package scan
