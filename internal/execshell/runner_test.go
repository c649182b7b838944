//go:build !windows

package execshell_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/beagle/internal/execshell"
)

const (
	testCompletionTimeout            = 10 * time.Second
	testOrderedOutputCommandConstant = "printf 'one\\ntwo\\n'; printf 'three\\n' 1>&2; printf 'four'"
	testCarriageReturnCommandLine    = "printf 'windows\\r\\nstyle\\r\\ndouble\\r\\r\\n  padded  \\npartial\\r'"
	testExitCodeCommandConstant      = "echo failing; exit 3"
	testLongRunningCommandConstant   = "echo started; sleep 30; echo never"
	testMissingDirectoryConstant     = "/nonexistent/beagle/working/directory"
	testEnvironmentCommandConstant   = "printf '%s\\n' \"$BEAGLE_TEST_VALUE\""
	testEnvironmentKeyConstant       = "BEAGLE_TEST_VALUE"
	testEnvironmentValueConstant     = "propagated"
	testErrorLinePrefixConstant      = "Error: "
	testStartedLineConstant          = "started"
)

type runRecorder struct {
	mutex       sync.Mutex
	lines       []string
	completions []execshell.ExecutionResult
	activeAtEnd []bool
	done        chan struct{}
}

func newRunRecorder() *runRecorder {
	return &runRecorder{done: make(chan struct{})}
}

func (recorder *runRecorder) onLine(line string) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.lines = append(recorder.lines, line)
}

func (recorder *runRecorder) completionHandler(runner *execshell.StreamingRunner) execshell.CompletionHandler {
	return func(result execshell.ExecutionResult) {
		recorder.mutex.Lock()
		recorder.completions = append(recorder.completions, result)
		recorder.activeAtEnd = append(recorder.activeAtEnd, runner.Active())
		recorder.mutex.Unlock()
		close(recorder.done)
	}
}

func (recorder *runRecorder) wait(testInstance *testing.T) {
	testInstance.Helper()
	select {
	case <-recorder.done:
	case <-time.After(testCompletionTimeout):
		testInstance.Fatal("command did not complete")
	}
}

func newTestRunner(testInstance *testing.T, eventObserver execshell.CommandEventObserver) *execshell.StreamingRunner {
	testInstance.Helper()
	runner, creationError := execshell.NewStreamingRunner(zap.NewNop(), eventObserver)
	require.NoError(testInstance, creationError)
	return runner
}

func TestNewStreamingRunnerRequiresLogger(testInstance *testing.T) {
	runner, creationError := execshell.NewStreamingRunner(nil, nil)
	require.ErrorIs(testInstance, creationError, execshell.ErrLoggerNotConfigured)
	require.Nil(testInstance, runner)
}

func TestRunDeliversMergedLinesInOrder(testInstance *testing.T) {
	runner := newTestRunner(testInstance, nil)
	recorder := newRunRecorder()

	runner.Run(context.Background(), execshell.ShellCommand{CommandLine: testOrderedOutputCommandConstant}, recorder.onLine, recorder.completionHandler(runner))
	recorder.wait(testInstance)

	require.Equal(testInstance, []string{"one", "two", "three", "four"}, recorder.lines)
	require.Len(testInstance, recorder.completions, 1)
	require.Equal(testInstance, 0, recorder.completions[0].ExitCode)
	require.NoError(testInstance, recorder.completions[0].Failure)
	require.Equal(testInstance, []bool{false}, recorder.activeAtEnd)
}

func TestRunStripsCarriageReturns(testInstance *testing.T) {
	runner := newTestRunner(testInstance, nil)
	recorder := newRunRecorder()

	runner.Run(context.Background(), execshell.ShellCommand{CommandLine: testCarriageReturnCommandLine}, recorder.onLine, recorder.completionHandler(runner))
	recorder.wait(testInstance)

	require.Equal(testInstance, []string{"windows", "style", "double\r", "  padded  ", "partial\r"}, recorder.lines)
}

func TestRunReportsExitCodeWithoutErrorLine(testInstance *testing.T) {
	runner := newTestRunner(testInstance, nil)
	recorder := newRunRecorder()

	runner.Run(context.Background(), execshell.ShellCommand{CommandLine: testExitCodeCommandConstant}, recorder.onLine, recorder.completionHandler(runner))
	recorder.wait(testInstance)

	require.Equal(testInstance, []string{"failing"}, recorder.lines)
	require.Equal(testInstance, 3, recorder.completions[0].ExitCode)
	require.NoError(testInstance, recorder.completions[0].Failure)
}

func TestRunReportsStartFailureAsErrorLine(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	runner, creationError := execshell.NewStreamingRunner(zap.New(observerCore), nil)
	require.NoError(testInstance, creationError)
	recorder := newRunRecorder()

	command := execshell.ShellCommand{CommandLine: testStartedLineConstant, WorkingDirectory: testMissingDirectoryConstant}
	runner.Run(context.Background(), command, recorder.onLine, recorder.completionHandler(runner))
	recorder.wait(testInstance)

	require.Len(testInstance, recorder.lines, 1)
	require.True(testInstance, strings.HasPrefix(recorder.lines[0], testErrorLinePrefixConstant))
	require.Len(testInstance, recorder.completions, 1)
	require.Error(testInstance, recorder.completions[0].Failure)
	require.Equal(testInstance, 1, observerLogs.FilterLevelExact(zap.ErrorLevel).Len())
}

func TestRunPropagatesEnvironment(testInstance *testing.T) {
	runner := newTestRunner(testInstance, nil)
	recorder := newRunRecorder()

	command := execshell.ShellCommand{
		CommandLine:          testEnvironmentCommandConstant,
		EnvironmentVariables: map[string]string{testEnvironmentKeyConstant: testEnvironmentValueConstant},
	}
	runner.Run(context.Background(), command, recorder.onLine, recorder.completionHandler(runner))
	recorder.wait(testInstance)

	require.Equal(testInstance, []string{testEnvironmentValueConstant}, recorder.lines)
}

func TestTerminateStopsActiveProcess(testInstance *testing.T) {
	runner := newTestRunner(testInstance, nil)
	recorder := newRunRecorder()
	started := make(chan struct{})
	var startedOnce sync.Once

	onLine := func(line string) {
		recorder.onLine(line)
		if line == testStartedLineConstant {
			startedOnce.Do(func() { close(started) })
		}
	}

	runner.Run(context.Background(), execshell.ShellCommand{CommandLine: testLongRunningCommandConstant}, onLine, recorder.completionHandler(runner))

	select {
	case <-started:
	case <-time.After(testCompletionTimeout):
		testInstance.Fatal("command did not start")
	}

	require.True(testInstance, runner.Terminate())
	recorder.wait(testInstance)

	require.Equal(testInstance, []string{testStartedLineConstant}, recorder.lines)
	require.Len(testInstance, recorder.completions, 1)
	require.True(testInstance, recorder.completions[0].Terminated)
	require.False(testInstance, runner.Active())
	require.False(testInstance, runner.Terminate())
}

func TestTerminateWithoutActiveProcess(testInstance *testing.T) {
	runner := newTestRunner(testInstance, nil)
	require.False(testInstance, runner.Terminate())
}

func TestStartExposesChannels(testInstance *testing.T) {
	runner := newTestRunner(testInstance, nil)

	run := runner.Start(context.Background(), execshell.ShellCommand{CommandLine: testOrderedOutputCommandConstant})

	collectedLines := []string{}
	for line := range run.Lines() {
		collectedLines = append(collectedLines, line)
	}

	select {
	case result := <-run.Done():
		require.Equal(testInstance, 0, result.ExitCode)
	case <-time.After(testCompletionTimeout):
		testInstance.Fatal("command did not complete")
	}

	require.Equal(testInstance, []string{"one", "two", "three", "four"}, collectedLines)
}

func TestContextCancellationStopsProcess(testInstance *testing.T) {
	runner := newTestRunner(testInstance, nil)
	executionContext, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := runner.Start(executionContext, execshell.ShellCommand{CommandLine: testLongRunningCommandConstant})

	firstLine := <-run.Lines()
	require.Equal(testInstance, testStartedLineConstant, firstLine)
	cancel()

	for range run.Lines() {
	}

	select {
	case result := <-run.Done():
		require.NotEqual(testInstance, 0, result.ExitCode)
		require.NoError(testInstance, result.Failure)
	case <-time.After(testCompletionTimeout):
		testInstance.Fatal("command did not stop")
	}
}

type recordingObserver struct {
	mutex  sync.Mutex
	events []string
}

func (eventObserver *recordingObserver) record(event string) {
	eventObserver.mutex.Lock()
	defer eventObserver.mutex.Unlock()
	eventObserver.events = append(eventObserver.events, event)
}

func (eventObserver *recordingObserver) CommandStarted(execshell.ShellCommand) {
	eventObserver.record("started")
}

func (eventObserver *recordingObserver) CommandCompleted(execshell.ShellCommand, execshell.ExecutionResult) {
	eventObserver.record("completed")
}

func (eventObserver *recordingObserver) CommandExecutionFailed(execshell.ShellCommand, error) {
	eventObserver.record("failed")
}

func TestObserverReceivesLifecycleEvents(testInstance *testing.T) {
	testCases := []struct {
		name           string
		command        execshell.ShellCommand
		expectedEvents []string
	}{
		{
			name:           "successful_command",
			command:        execshell.ShellCommand{CommandLine: testExitCodeCommandConstant},
			expectedEvents: []string{"started", "completed"},
		},
		{
			name:           "start_failure",
			command:        execshell.ShellCommand{CommandLine: testStartedLineConstant, WorkingDirectory: testMissingDirectoryConstant},
			expectedEvents: []string{"started", "failed", "completed"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			eventObserver := &recordingObserver{}
			runner := newTestRunner(testInstance, eventObserver)
			recorder := newRunRecorder()

			runner.Run(context.Background(), testCase.command, recorder.onLine, recorder.completionHandler(runner))
			recorder.wait(testInstance)

			eventObserver.mutex.Lock()
			defer eventObserver.mutex.Unlock()
			require.Equal(testInstance, testCase.expectedEvents, eventObserver.events)
		})
	}
}
