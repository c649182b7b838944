// Package ui renders command lifecycle and scan run events for terminal users.
//
// Output lines of the audit tool are written verbatim to the output writer, while
// lifecycle and progress notices flow through a zap logger so they stay separate from
// the tool's own text.
package ui
