// Package cli constructs the beagle command-line interface, wiring the Cobra command
// hierarchy, configuration loader, profile store, and structured logging primitives.
// Subcommands print the SMBeagle command line, run it with streamed output and progress,
// manage saved option profiles, and open an interactive configuration form.
package cli
