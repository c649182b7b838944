package scan

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/beagle/internal/execshell"
	"github.com/temirov/beagle/internal/options"
)

const (
	statusReadyConstant                = "Ready"
	statusStartingConstant             = "Starting..."
	statusCompletedConstant            = "Completed"
	statusTerminatedConstant           = "Terminated"
	processFinishedLineConstant        = "Process finished"
	completePercentConstant            = 100
	runStartedMessageConstant          = "scan started"
	runCompletedMessageConstant        = "scan completed"
	runTerminationMessageConstant      = "scan termination requested"
	progressChangedMessageConstant     = "scan progress"
	logFieldCommandConstant            = "command"
	logFieldProgressConstant           = "progress"
	logFieldStateConstant              = "state"
	logFieldExitCodeConstant           = "exit_code"
	runActiveMessageConstant           = "a scan is already running"
	runnerNotConfiguredMessageConstant = "command runner not configured"
)

var (
	// ErrRunActive indicates a run is already starting or running.
	ErrRunActive = errors.New(runActiveMessageConstant)
	// ErrRunnerNotConfigured indicates the controller has no command runner.
	ErrRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// RunState enumerates the phases of a single run.
type RunState string

// Run states.
const (
	RunStateIdle      RunState = "idle"
	RunStateStarting  RunState = "starting"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
)

// CommandRunner executes a command line asynchronously and reports lines and completion.
type CommandRunner interface {
	Run(executionContext context.Context, command execshell.ShellCommand, onLine execshell.LineHandler, onComplete execshell.CompletionHandler)
	Terminate() bool
}

// RunObserver receives run events. Methods are invoked on the runner goroutine.
type RunObserver interface {
	LineReceived(line string)
	ProgressChanged(percent int, status string)
	RunCompleted(snapshot Snapshot)
}

// Snapshot captures the observable controller state.
type Snapshot struct {
	State    RunState
	Progress int
	Status   string
	Command  string
	Log      []string
	ExitCode int
}

// Controller owns the scan configuration and the state of the current run. Callers
// serialize their own calls; the mutex only fences state written by the run goroutine.
type Controller struct {
	runner   CommandRunner
	observer RunObserver
	logger   *zap.Logger

	mutex         sync.Mutex
	configuration Configuration
	state         RunState
	progress      int
	status        string
	command       string
	logLines      []string
	exitCode      int
	runFinished   chan struct{}
}

// NewController constructs a controller over the supplied runner and initial configuration.
func NewController(runner CommandRunner, configuration Configuration, observer RunObserver, logger *zap.Logger) (*Controller, error) {
	if runner == nil {
		return nil, ErrRunnerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if configuration.Metadata == nil {
		configuration.Metadata = options.Set{}
	}
	finished := make(chan struct{})
	close(finished)
	return &Controller{
		runner:        runner,
		observer:      observer,
		logger:        logger,
		configuration: configuration,
		state:         RunStateIdle,
		status:        statusReadyConstant,
		runFinished:   finished,
	}, nil
}

// Start launches the current command. The log and progress of the previous run are
// discarded. An effectively empty command is accepted.
func (controller *Controller) Start(executionContext context.Context) error {
	controller.mutex.Lock()
	if controller.state == RunStateStarting || controller.state == RunStateRunning {
		controller.mutex.Unlock()
		return ErrRunActive
	}

	command := BuildCommand(controller.configuration)
	controller.state = RunStateStarting
	controller.progress = 0
	controller.status = statusStartingConstant
	controller.command = command
	controller.logLines = nil
	controller.exitCode = 0
	controller.runFinished = make(chan struct{})
	controller.mutex.Unlock()

	controller.logger.Info(runStartedMessageConstant, zap.String(logFieldCommandConstant, command))

	controller.runner.Run(executionContext, execshell.ShellCommand{CommandLine: command}, controller.handleLine, controller.handleCompletion)

	controller.mutex.Lock()
	if controller.state == RunStateStarting {
		controller.state = RunStateRunning
	}
	controller.mutex.Unlock()
	return nil
}

// Terminate requests a cooperative stop of the active run. The run reaches its final
// state only once the process output ends.
func (controller *Controller) Terminate() bool {
	requested := controller.runner.Terminate()
	if requested {
		controller.logger.Info(runTerminationMessageConstant)
	}
	return requested
}

// Wait blocks until the current run has completed or the context ends.
func (controller *Controller) Wait(executionContext context.Context) error {
	controller.mutex.Lock()
	finished := controller.runFinished
	controller.mutex.Unlock()

	select {
	case <-finished:
		return nil
	case <-executionContext.Done():
		return executionContext.Err()
	}
}

// Snapshot returns a copy of the run state, progress, status, and log.
func (controller *Controller) Snapshot() Snapshot {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.snapshotLocked()
}

func (controller *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:    controller.state,
		Progress: controller.progress,
		Status:   controller.status,
		Command:  controller.command,
		Log:      append([]string{}, controller.logLines...),
		ExitCode: controller.exitCode,
	}
}

func (controller *Controller) handleLine(line string) {
	controller.mutex.Lock()
	if controller.state == RunStateStarting {
		controller.state = RunStateRunning
	}
	controller.logLines = append(controller.logLines, line)
	percent, matched := ClassifyProgress(line)
	if matched {
		controller.progress = percent
		controller.status = line
	}
	controller.mutex.Unlock()

	if controller.observer != nil {
		controller.observer.LineReceived(line)
		if matched {
			controller.observer.ProgressChanged(percent, line)
		}
	}
	if matched {
		controller.logger.Debug(progressChangedMessageConstant, zap.Int(logFieldProgressConstant, percent))
	}
}

func (controller *Controller) handleCompletion(result execshell.ExecutionResult) {
	controller.mutex.Lock()
	controller.logLines = append(controller.logLines, processFinishedLineConstant)
	controller.exitCode = result.ExitCode
	if result.Terminated {
		controller.state = RunStateIdle
		controller.status = statusTerminatedConstant
	} else {
		controller.state = RunStateCompleted
		controller.progress = completePercentConstant
		controller.status = statusCompletedConstant
	}
	snapshot := controller.snapshotLocked()
	finished := controller.runFinished
	controller.mutex.Unlock()

	controller.logger.Info(
		runCompletedMessageConstant,
		zap.String(logFieldStateConstant, string(snapshot.State)),
		zap.Int(logFieldExitCodeConstant, snapshot.ExitCode),
	)

	if controller.observer != nil {
		controller.observer.LineReceived(processFinishedLineConstant)
		controller.observer.RunCompleted(snapshot)
	}
	close(finished)
}
