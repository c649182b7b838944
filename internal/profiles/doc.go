// Package profiles persists named option presets in a YAML document.
//
// Store exposes load, save, delete, and lookup operations over the whole document and
// writes the built-in presets through InitializeIfAbsent when no document exists yet.
package profiles
