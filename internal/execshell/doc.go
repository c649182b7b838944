// Package execshell runs the external audit command without blocking the caller.
//
// StreamingRunner starts a shell command line on a background goroutine, merges the
// process standard output and error into a single line stream, and reports completion
// exactly once. Callers can consume either callbacks (Run) or channels (Start), and may
// request cooperative termination of the active process.
package execshell
