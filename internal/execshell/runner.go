package execshell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	errorLineTemplateConstant             = "Error: %v"
	environmentAssignmentTemplateConstant = "%s=%s"
	lineDelimiterConstant                 = '\n'
	windowsLineTerminatorConstant         = "\r\n"
	unixLineTerminatorConstant            = "\n"
	lineChannelCapacityConstant           = 64
	unknownExitCodeConstant               = -1
	commandStartedMessageConstant         = "audit command started"
	commandFinishedMessageConstant        = "audit command finished"
	commandFailedMessageConstant          = "audit command failed"
	terminationRequestedMessageConstant   = "termination requested"
	terminationFailedMessageConstant      = "termination request failed"
	logFieldCommandLineConstant           = "command_line"
	logFieldProcessIdentifierConstant     = "pid"
	logFieldExitCodeConstant              = "exit_code"
	logFieldTerminatedConstant            = "terminated"
	pipeCreationErrorTemplateConstant     = "unable to create output pipe: %w"
	outputReadErrorTemplateConstant       = "unable to read command output: %w"
	processWaitErrorTemplateConstant      = "unable to wait for command: %w"
	processStartErrorTemplateConstant     = "unable to start command: %w"
)

// StreamingRunner executes one command at a time on a background goroutine.
//
// The runner keeps a single active-process slot. Only the background goroutine sets and
// clears it; Terminate only reads it. Starting a new command while another is active is
// not supported and not prevented.
type StreamingRunner struct {
	logger   *zap.Logger
	observer CommandEventObserver

	processMutex         sync.Mutex
	activeProcess        *os.Process
	terminationRequested bool
}

// NewStreamingRunner constructs a runner. A nil observer discards lifecycle events.
func NewStreamingRunner(logger *zap.Logger, observer CommandEventObserver) (*StreamingRunner, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if observer == nil {
		observer = noopCommandEventObserver{}
	}
	return &StreamingRunner{logger: logger, observer: observer}, nil
}

// Run starts the command and returns immediately. onLine is invoked on the runner
// goroutine for every output line in emission order; onComplete follows the last line
// exactly once after the process has exited.
func (runner *StreamingRunner) Run(executionContext context.Context, command ShellCommand, onLine LineHandler, onComplete CompletionHandler) {
	if onLine == nil {
		onLine = func(string) {}
	}
	if onComplete == nil {
		onComplete = func(ExecutionResult) {}
	}

	go func() {
		result := runner.execute(executionContext, command, onLine)
		onComplete(result)
	}()
}

// Run is a handle over one started command. Lines is closed after the last line; Done
// then yields the result once.
type Run struct {
	lines chan string
	done  chan ExecutionResult
}

// Lines streams output lines. The stream is finite and cannot be restarted.
func (run *Run) Lines() <-chan string {
	return run.lines
}

// Done delivers the execution result after Lines has been closed.
func (run *Run) Done() <-chan ExecutionResult {
	return run.done
}

// Start launches the command and exposes its output through channels. Lines must be
// drained for the command to make progress.
func (runner *StreamingRunner) Start(executionContext context.Context, command ShellCommand) *Run {
	run := &Run{
		lines: make(chan string, lineChannelCapacityConstant),
		done:  make(chan ExecutionResult, 1),
	}

	go func() {
		result := runner.execute(executionContext, command, func(line string) {
			run.lines <- line
		})
		close(run.lines)
		run.done <- result
		close(run.done)
	}()

	return run
}

// Terminate asks the active process to stop and returns without waiting. It reports
// whether a process was active. Completion is still reported by the running goroutine.
func (runner *StreamingRunner) Terminate() bool {
	runner.processMutex.Lock()
	defer runner.processMutex.Unlock()

	if runner.activeProcess == nil {
		return false
	}

	runner.terminationRequested = true
	processIdentifier := runner.activeProcess.Pid
	runner.logger.Info(terminationRequestedMessageConstant, zap.Int(logFieldProcessIdentifierConstant, processIdentifier))
	if stopError := requestStop(runner.activeProcess); stopError != nil {
		runner.logger.Warn(terminationFailedMessageConstant, zap.Int(logFieldProcessIdentifierConstant, processIdentifier), zap.Error(stopError))
	}
	return true
}

// Active reports whether a process currently occupies the slot.
func (runner *StreamingRunner) Active() bool {
	runner.processMutex.Lock()
	defer runner.processMutex.Unlock()
	return runner.activeProcess != nil
}

func (runner *StreamingRunner) execute(executionContext context.Context, command ShellCommand, emit LineHandler) ExecutionResult {
	if executionContext == nil {
		executionContext = context.Background()
	}

	runner.observer.CommandStarted(command)

	outputReader, outputWriter, pipeError := os.Pipe()
	if pipeError != nil {
		return runner.fail(command, emit, fmt.Errorf(pipeCreationErrorTemplateConstant, pipeError))
	}

	executable := newShellProcess(executionContext, command.CommandLine)
	executable.Cancel = func() error {
		return requestStop(executable.Process)
	}
	if len(command.WorkingDirectory) > 0 {
		executable.Dir = command.WorkingDirectory
	}
	if len(command.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentValue))
		}
		executable.Env = mergedEnvironment
	}
	executable.Stdout = outputWriter
	executable.Stderr = outputWriter

	startError := executable.Start()
	_ = outputWriter.Close()
	if startError != nil {
		_ = outputReader.Close()
		return runner.fail(command, emit, fmt.Errorf(processStartErrorTemplateConstant, startError))
	}

	runner.occupySlot(executable.Process)
	runner.logger.Info(
		commandStartedMessageConstant,
		zap.String(logFieldCommandLineConstant, command.CommandLine),
		zap.Int(logFieldProcessIdentifierConstant, executable.Process.Pid),
	)

	var executionFailure error
	if readError := streamLines(outputReader, emit); readError != nil {
		executionFailure = fmt.Errorf(outputReadErrorTemplateConstant, readError)
		emit(fmt.Sprintf(errorLineTemplateConstant, executionFailure))
	}

	waitError := executable.Wait()
	_ = outputReader.Close()

	exitCode := unknownExitCodeConstant
	if executable.ProcessState != nil {
		exitCode = executable.ProcessState.ExitCode()
	}
	exitError := &exec.ExitError{}
	if waitError != nil && !errors.As(waitError, &exitError) && executionFailure == nil && executionContext.Err() == nil {
		executionFailure = fmt.Errorf(processWaitErrorTemplateConstant, waitError)
		emit(fmt.Sprintf(errorLineTemplateConstant, executionFailure))
	}

	terminated := runner.releaseSlot()
	result := ExecutionResult{ExitCode: exitCode, Terminated: terminated, Failure: executionFailure}

	runner.logger.Info(
		commandFinishedMessageConstant,
		zap.String(logFieldCommandLineConstant, command.CommandLine),
		zap.Int(logFieldExitCodeConstant, exitCode),
		zap.Bool(logFieldTerminatedConstant, terminated),
	)
	if executionFailure != nil {
		runner.observer.CommandExecutionFailed(command, executionFailure)
	}
	runner.observer.CommandCompleted(command, result)

	return result
}

func (runner *StreamingRunner) fail(command ShellCommand, emit LineHandler, failure error) ExecutionResult {
	runner.logger.Error(commandFailedMessageConstant, zap.String(logFieldCommandLineConstant, command.CommandLine), zap.Error(failure))
	emit(fmt.Sprintf(errorLineTemplateConstant, failure))
	runner.observer.CommandExecutionFailed(command, failure)
	result := ExecutionResult{ExitCode: unknownExitCodeConstant, Failure: failure}
	runner.observer.CommandCompleted(command, result)
	return result
}

func (runner *StreamingRunner) occupySlot(process *os.Process) {
	runner.processMutex.Lock()
	defer runner.processMutex.Unlock()
	runner.activeProcess = process
	runner.terminationRequested = false
}

func (runner *StreamingRunner) releaseSlot() bool {
	runner.processMutex.Lock()
	defer runner.processMutex.Unlock()
	terminated := runner.terminationRequested
	runner.activeProcess = nil
	runner.terminationRequested = false
	return terminated
}

// stripLineTerminator removes one trailing "\r\n" or "\n". A lone carriage return is kept.
func stripLineTerminator(line string) string {
	if strings.HasSuffix(line, windowsLineTerminatorConstant) {
		return strings.TrimSuffix(line, windowsLineTerminatorConstant)
	}
	return strings.TrimSuffix(line, unixLineTerminatorConstant)
}

func streamLines(reader io.Reader, emit LineHandler) error {
	bufferedReader := bufio.NewReader(reader)
	for {
		line, readError := bufferedReader.ReadString(lineDelimiterConstant)
		if len(line) > 0 {
			emit(stripLineTerminator(line))
		}
		if readError == nil {
			continue
		}
		if errors.Is(readError, io.EOF) {
			return nil
		}
		return readError
	}
}
