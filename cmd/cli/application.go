package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/beagle/internal/filesystem"
	"github.com/temirov/beagle/internal/interactive"
	"github.com/temirov/beagle/internal/profiles"
	"github.com/temirov/beagle/internal/scan"
	"github.com/temirov/beagle/internal/utils"
	"github.com/temirov/beagle/internal/utils/flags"
	pathutils "github.com/temirov/beagle/internal/utils/path"
)

const (
	applicationNameConstant                 = "beagle"
	applicationShortDescriptionConstant     = "Build and run SMBeagle file-share audits"
	applicationLongDescriptionConstant      = "beagle assembles SMBeagle command lines from option toggles and saved profiles, runs them, and reports progress inferred from the audit output."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	scanConfigurationKeyConstant            = "scan"
	scanExecutableConfigKeyConstant         = scanConfigurationKeyConstant + ".executable"
	scanCSVFileConfigKeyConstant            = scanConfigurationKeyConstant + ".csv_file"
	scanPreviewWidthConfigKeyConstant       = scanConfigurationKeyConstant + ".preview_width"
	profilesFileConfigKeyConstant           = "profiles.file"
	environmentPrefixConstant               = "BEAGLE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	userConfigurationDirectoryNameConstant  = "beagle"
	profilesDocumentNameConstant            = "profiles.yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationProfilesFieldConstant      = "profiles_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	profileStoreErrorTemplateConstant       = "unable to prepare profile store: %w"
	profilesLocationErrorTemplateConstant   = "unable to resolve profile document location: %w"
	profileStoreUnavailableMessageConstant  = "profile store not initialized"
	defaultConfigurationSearchPathConstant  = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration   `mapstructure:"common"`
	Scan     ApplicationScanConfiguration     `mapstructure:"scan"`
	Profiles ApplicationProfilesConfiguration `mapstructure:"profiles"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationScanConfiguration stores defaults applied to every built command.
type ApplicationScanConfiguration struct {
	Executable   string `mapstructure:"executable"`
	CSVFile      string `mapstructure:"csv_file"`
	PreviewWidth int    `mapstructure:"preview_width"`
}

// ApplicationProfilesConfiguration locates the profile document.
type ApplicationProfilesConfiguration struct {
	File string `mapstructure:"file"`
}

// BaseScanConfiguration returns the scan configuration a command starts from before
// profiles and flags are applied.
func (configuration ApplicationScanConfiguration) BaseScanConfiguration() scan.Configuration {
	base := scan.DefaultConfiguration()
	if len(configuration.Executable) > 0 {
		base.ProgramName = configuration.Executable
	}
	if len(configuration.CSVFile) > 0 {
		base.CSVFile = configuration.CSVFile
	}
	return base
}

// DefaultConfigurationValues returns the configuration defaults keyed by their dotted path.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		commonLogLevelConfigKeyConstant:   string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:  string(utils.LogFormatConsole),
		scanExecutableConfigKeyConstant:   scan.DefaultProgramName,
		scanCSVFileConfigKeyConstant:      scan.DefaultCSVFile,
		scanPreviewWidthConfigKeyConstant: scan.DefaultPreviewWidth,
		profilesFileConfigKeyConstant:     "",
	}
}

// ApplicationOption customizes an Application during construction.
type ApplicationOption func(application *Application)

// WithFormRunner replaces the terminal form used by the configure command.
func WithFormRunner(formRunner interactive.FormRunner) ApplicationOption {
	return func(application *Application) {
		application.formRunner = formRunner
	}
}

// WithOutput redirects command output and error streams.
func WithOutput(outputWriter io.Writer, errorWriter io.Writer) ApplicationOption {
	return func(application *Application) {
		application.outputWriter = outputWriter
		application.errorWriter = errorWriter
	}
}

// Application wires the Cobra root command, configuration loader, profile store, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	consoleLogger         *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	homeExpander          *pathutils.HomeExpander
	profileStore          *profiles.Store
	formRunner            interactive.FormRunner
	outputWriter          io.Writer
	errorWriter           io.Writer
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication(applicationOptions ...ApplicationOption) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		consoleLogger:       zap.NewNop(),
		homeExpander:        pathutils.NewHomeExpander(),
		formRunner:          interactive.TerminalFormRunner{Input: os.Stdin, Output: os.Stderr},
	}
	for _, applicationOption := range applicationOptions {
		applicationOption(application)
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	if application.outputWriter != nil {
		cobraCommand.SetOut(application.outputWriter)
	}
	if application.errorWriter != nil {
		cobraCommand.SetErr(application.errorWriter)
	}
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	dependencies := CommandDependencies{
		LoggerProvider:        func() *zap.Logger { return application.logger },
		ConsoleLoggerProvider: func() *zap.Logger { return application.consoleLogger },
		ConfigurationProvider: func() ApplicationScanConfiguration { return application.configuration.Scan },
		ProfileStoreProvider:  application.resolveProfileStore,
		HomeExpander:          application.homeExpander,
	}

	printBuilder := PrintCommandBuilder{Dependencies: dependencies}
	if printCommand, buildError := printBuilder.Build(); buildError == nil {
		cobraCommand.AddCommand(printCommand)
	}

	scanBuilder := ScanCommandBuilder{Dependencies: dependencies}
	if scanCommand, buildError := scanBuilder.Build(); buildError == nil {
		cobraCommand.AddCommand(scanCommand)
	}

	profilesBuilder := ProfilesCommandBuilder{Dependencies: dependencies}
	if profilesCommand, buildError := profilesBuilder.Build(); buildError == nil {
		cobraCommand.AddCommand(profilesCommand)
	}

	configureBuilder := ConfigureCommandBuilder{Dependencies: dependencies, FormRunner: application.formRunner}
	if configureCommand, buildError := configureBuilder.Build(); buildError == nil {
		cobraCommand.AddCommand(configureCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the command hierarchy with the process arguments and ensures logger flushing.
func (application *Application) Execute() error {
	return application.ExecuteWithArguments(os.Args[1:])
}

// ExecuteWithArguments runs the command hierarchy with the supplied arguments.
func (application *Application) ExecuteWithArguments(arguments []string) error {
	normalizedArguments := flags.NormalizeToggleArguments(arguments)
	if normalizedArguments == nil {
		normalizedArguments = []string{}
	}
	application.rootCommand.SetArgs(normalizedArguments)

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Configuration returns the configuration resolved by the last execution.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, userConfigurationDirectoryNameConstant))
	}
	return searchPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, DefaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	profilesDocumentPath, locationError := application.profilesDocumentPath()
	if locationError != nil {
		return fmt.Errorf(profilesLocationErrorTemplateConstant, locationError)
	}

	profileStore, storeError := profiles.NewStore(profilesDocumentPath, filesystem.OSFileSystem{}, application.logger)
	if storeError != nil {
		return fmt.Errorf(profileStoreErrorTemplateConstant, storeError)
	}
	if initializationError := profileStore.InitializeIfAbsent(); initializationError != nil {
		return fmt.Errorf(profileStoreErrorTemplateConstant, initializationError)
	}
	application.profileStore = profileStore

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationProfilesFieldConstant, profilesDocumentPath),
	)

	return nil
}

func (application *Application) profilesDocumentPath() (string, error) {
	configuredPath := strings.TrimSpace(application.configuration.Profiles.File)
	if len(configuredPath) > 0 {
		return application.homeExpander.Expand(configuredPath), nil
	}

	userConfigurationDirectory, directoryError := os.UserConfigDir()
	if directoryError != nil {
		return "", directoryError
	}
	return filepath.Join(userConfigurationDirectory, userConfigurationDirectoryNameConstant, profilesDocumentNameConstant), nil
}

func (application *Application) resolveProfileStore() (*profiles.Store, error) {
	if application.profileStore == nil {
		return nil, errProfileStoreNotConfigured
	}
	return application.profileStore, nil
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return application.syncLoggerInstance(application.consoleLogger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
