// Package filesystem abstracts the operating system file operations used by persistence
// code so tests can substitute failing implementations.
package filesystem
