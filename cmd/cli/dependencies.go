package cli

import (
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/beagle/internal/profiles"
	"github.com/temirov/beagle/internal/scan"
	pathutils "github.com/temirov/beagle/internal/utils/path"
)

var errProfileStoreNotConfigured = errors.New(profileStoreUnavailableMessageConstant)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ScanSettingsProvider supplies the configured scan defaults.
type ScanSettingsProvider func() ApplicationScanConfiguration

// ProfileStoreProvider supplies the initialized profile store.
type ProfileStoreProvider func() (*profiles.Store, error)

// CommandDependencies groups the collaborators shared by beagle subcommands.
type CommandDependencies struct {
	LoggerProvider        LoggerProvider
	ConsoleLoggerProvider LoggerProvider
	ConfigurationProvider ScanSettingsProvider
	ProfileStoreProvider  ProfileStoreProvider
	HomeExpander          *pathutils.HomeExpander
}

func (dependencies CommandDependencies) resolveLogger() *zap.Logger {
	return resolveProvidedLogger(dependencies.LoggerProvider)
}

func (dependencies CommandDependencies) resolveConsoleLogger() *zap.Logger {
	return resolveProvidedLogger(dependencies.ConsoleLoggerProvider)
}

func resolveProvidedLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (dependencies CommandDependencies) resolveScanSettings() ApplicationScanConfiguration {
	if dependencies.ConfigurationProvider == nil {
		return ApplicationScanConfiguration{}
	}
	return dependencies.ConfigurationProvider()
}

func (dependencies CommandDependencies) resolveProfileStore() (*profiles.Store, error) {
	if dependencies.ProfileStoreProvider == nil {
		return nil, errProfileStoreNotConfigured
	}
	return dependencies.ProfileStoreProvider()
}

func (dependencies CommandDependencies) resolveHomeExpander() *pathutils.HomeExpander {
	if dependencies.HomeExpander == nil {
		return pathutils.NewHomeExpander()
	}
	return dependencies.HomeExpander
}

// buildScanConfiguration resolves the configured defaults, the selected profile, and explicit flags.
func (dependencies CommandDependencies) buildScanConfiguration(scanFlags *scanFlagValues) (scan.Configuration, error) {
	base := dependencies.resolveScanSettings().BaseScanConfiguration()

	var profileSource ProfileSource
	if profileStore, storeError := dependencies.resolveProfileStore(); storeError == nil {
		profileSource = profileStore
	}

	return scanFlags.resolve(base, profileSource, dependencies.resolveHomeExpander())
}
