package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/temirov/beagle/internal/execshell"
	"github.com/temirov/beagle/internal/scan"
	"github.com/temirov/beagle/internal/ui"
)

const (
	scanCommandUseConstant              = "scan"
	scanCommandShortDescriptionConstant = "Run SMBeagle and stream its output"
	scanCommandLongDescriptionConstant  = "scan builds the SMBeagle command line, runs it through the platform shell, streams every output line to stdout, and reports progress inferred from the output. Interrupting beagle asks SMBeagle to stop."
)

// ScanCommandBuilder assembles the command that runs a scan.
type ScanCommandBuilder struct {
	Dependencies CommandDependencies
	// Runner overrides the shell runner, mainly for tests.
	Runner scan.CommandRunner
}

// Build constructs the cobra command.
func (builder *ScanCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   scanCommandUseConstant,
		Short: scanCommandShortDescriptionConstant,
		Long:  scanCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
	}

	scanFlags := registerScanFlags(command.Flags())
	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, scanFlags)
	}

	return command, nil
}

func (builder *ScanCommandBuilder) run(command *cobra.Command, scanFlags *scanFlagValues) error {
	configuration, resolveError := builder.Dependencies.buildScanConfiguration(scanFlags)
	if resolveError != nil {
		return resolveError
	}

	controller, controllerError := builder.newController(command, configuration)
	if controllerError != nil {
		return controllerError
	}

	return runScan(command.Context(), controller)
}

func (builder *ScanCommandBuilder) newController(command *cobra.Command, configuration scan.Configuration) (*scan.Controller, error) {
	logger := builder.Dependencies.resolveLogger()
	consoleLogger := builder.Dependencies.resolveConsoleLogger()

	runner := builder.Runner
	if runner == nil {
		streamingRunner, runnerError := execshell.NewStreamingRunner(logger, ui.NewConsoleCommandEventLogger(consoleLogger))
		if runnerError != nil {
			return nil, runnerError
		}
		runner = streamingRunner
	}

	reporter := ui.NewRunReporter(command.OutOrStdout(), consoleLogger)
	return scan.NewController(runner, configuration, reporter, logger)
}

// runScan starts the controller and waits for the run to end. The first interrupt
// requests a cooperative stop and restores default signal handling, so a second
// interrupt ends beagle itself.
func runScan(executionContext context.Context, controller *scan.Controller) error {
	if executionContext == nil {
		executionContext = context.Background()
	}

	interruptSignals := make(chan os.Signal, 1)
	signal.Notify(interruptSignals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interruptSignals)

	if startError := controller.Start(executionContext); startError != nil {
		return startError
	}

	waitDone := make(chan struct{})
	defer close(waitDone)
	go forwardFirstInterrupt(interruptSignals, func() { controller.Terminate() }, waitDone)

	return controller.Wait(executionContext)
}

// forwardFirstInterrupt calls terminate on the first signal and then unregisters the channel.
func forwardFirstInterrupt(interruptSignals chan os.Signal, terminate func(), done <-chan struct{}) {
	select {
	case <-interruptSignals:
		terminate()
		signal.Stop(interruptSignals)
	case <-done:
	}
}
