package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/beagle/internal/interactive"
	"github.com/temirov/beagle/internal/scan"
)

const (
	configureCommandUseConstant              = "configure"
	configureCommandShortDescriptionConstant = "Edit scan toggles in an interactive form"
	configureCommandLongDescriptionConstant  = "configure opens a terminal form seeded from the configured defaults and flags, lets you pick or save a profile, and prints the resulting SMBeagle command line."
	runFlagNameConstant                      = "run"
	runFlagUsageConstant                     = "Run the configured command instead of printing it."
)

// ConfigureCommandBuilder assembles the interactive configuration command.
type ConfigureCommandBuilder struct {
	Dependencies CommandDependencies
	FormRunner   interactive.FormRunner
	// Runner overrides the shell runner used with --run.
	Runner scan.CommandRunner
}

// Build constructs the cobra command.
func (builder *ConfigureCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   configureCommandUseConstant,
		Short: configureCommandShortDescriptionConstant,
		Long:  configureCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
	}

	scanFlags := registerScanFlags(command.Flags())
	command.Flags().Bool(runFlagNameConstant, false, runFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, scanFlags)
	}

	return command, nil
}

func (builder *ConfigureCommandBuilder) run(command *cobra.Command, scanFlags *scanFlagValues) error {
	seed, resolveError := builder.Dependencies.buildScanConfiguration(scanFlags)
	if resolveError != nil {
		return resolveError
	}

	var profileCatalog interactive.ProfileCatalog
	if profileStore, storeError := builder.Dependencies.resolveProfileStore(); storeError == nil {
		profileCatalog = profileStore
	}

	session, sessionError := interactive.NewSession(builder.FormRunner, profileCatalog, builder.Dependencies.resolveLogger())
	if sessionError != nil {
		return sessionError
	}

	configuration, formError := session.Run(command.Context(), seed)
	if formError != nil {
		return formError
	}

	runRequested, _ := command.Flags().GetBool(runFlagNameConstant)
	if !runRequested {
		_, printError := fmt.Fprintln(command.OutOrStdout(), scan.BuildCommand(configuration))
		return printError
	}

	scanBuilder := ScanCommandBuilder{Dependencies: builder.Dependencies, Runner: builder.Runner}
	controller, controllerError := scanBuilder.newController(command, configuration)
	if controllerError != nil {
		return controllerError
	}
	return runScan(command.Context(), controller)
}
