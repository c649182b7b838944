// Package scan turns a Scan Configuration into an SMBeagle command line and drives its
// execution.
//
// BuildCommand is a pure renderer, Preview bounds the displayed command, ClassifyProgress
// maps output lines to coarse percentages, and Controller owns the toggle state, the run
// state machine, and the log of the current run.
package scan
