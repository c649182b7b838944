package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/beagle/internal/scan"
)

const (
	printCommandUseConstant              = "command"
	printCommandShortDescriptionConstant = "Print the SMBeagle command line"
	printCommandLongDescriptionConstant  = "command resolves the configured defaults, an optional profile, and toggle flags into the SMBeagle command line and prints it."
	previewFlagNameConstant              = "preview"
	previewFlagUsageConstant             = "Print the width-bounded preview instead of the full command."
	commandBuiltMessageConstant          = "command built"
	logFieldCommandLineConstant          = "command_line"
	logFieldTruncatedConstant            = "truncated"
)

// PrintCommandBuilder assembles the command that prints the built command line.
type PrintCommandBuilder struct {
	Dependencies CommandDependencies
}

// Build constructs the cobra command.
func (builder *PrintCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   printCommandUseConstant,
		Short: printCommandShortDescriptionConstant,
		Long:  printCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
	}

	scanFlags := registerScanFlags(command.Flags())
	command.Flags().Bool(previewFlagNameConstant, false, previewFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, scanFlags)
	}

	return command, nil
}

func (builder *PrintCommandBuilder) run(command *cobra.Command, scanFlags *scanFlagValues) error {
	configuration, resolveError := builder.Dependencies.buildScanConfiguration(scanFlags)
	if resolveError != nil {
		return resolveError
	}

	preview := scan.Preview(scan.BuildCommand(configuration), builder.Dependencies.resolveScanSettings().PreviewWidth)
	builder.Dependencies.resolveLogger().Debug(
		commandBuiltMessageConstant,
		zap.String(logFieldCommandLineConstant, preview.Full),
		zap.Bool(logFieldTruncatedConstant, preview.Truncated),
	)

	previewRequested, _ := command.Flags().GetBool(previewFlagNameConstant)
	if previewRequested {
		_, printError := fmt.Fprintln(command.OutOrStdout(), preview.Display)
		return printError
	}
	_, printError := fmt.Fprintln(command.OutOrStdout(), preview.Full)
	return printError
}
