package execshell

import "errors"

// ErrLoggerNotConfigured indicates the runner was constructed without a logger.
var ErrLoggerNotConfigured = errors.New("shell runner logger not configured")

// ShellCommand describes a command line handed to the platform shell.
type ShellCommand struct {
	CommandLine          string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// ExecutionResult captures the observable outcome of a finished command.
type ExecutionResult struct {
	// ExitCode is -1 when the process never started or was ended by a signal.
	ExitCode int
	// Terminated reports that termination was requested while the process ran.
	Terminated bool
	// Failure holds the error reported as an "Error:" line, if any.
	Failure error
}

// LineHandler receives one output line without its trailing newline.
type LineHandler func(line string)

// CompletionHandler receives the result once the process has exited.
type CompletionHandler func(result ExecutionResult)
