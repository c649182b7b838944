package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/beagle/cmd/cli"
	"github.com/temirov/beagle/internal/interactive"
	"github.com/temirov/beagle/internal/options"
	"github.com/temirov/beagle/internal/profiles"
)

const (
	testProfilesFileEnvironmentConstant   = "BEAGLE_PROFILES_FILE"
	testExecutableEnvironmentConstant     = "BEAGLE_SCAN_EXECUTABLE"
	testLogLevelEnvironmentConstant       = "BEAGLE_COMMON_LOG_LEVEL"
	testProfilesFileNameConstant          = "profiles.yaml"
	testConfigurationFileNameConstant     = "config.yaml"
	testSavedProfileNameConstant          = "Share Sweep"
	testCommandSubcommandConstant         = "command"
	testReferenceCommandConstant          = `SMBeagle --local-path "/data" --sizefile --file-signature -c "out.csv"`
	testDefaultCommandConstant            = `SMBeagle -c "audit_output.csv"`
	testCustomExecutableConstant          = "/opt/smbeagle/SMBeagle"
	testPreviewConfigurationTemplate      = "scan:\n  preview_width: 40\n"
	testExpectedPreviewDisplayConstant    = `SMBeagle --local-path "/srv/very/long...`
	testQuickScanWithoutAccessTimeCommand = `SMBeagle --local-path "/data" --sizefile -c "audit_output.csv"`
)

type applicationHarness struct {
	profilesPath string
	output       *bytes.Buffer
}

func newApplicationHarness(testInstance *testing.T) applicationHarness {
	testInstance.Helper()

	homeDirectory := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectory)
	testInstance.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDirectory, ".config"))

	profilesPath := filepath.Join(testInstance.TempDir(), testProfilesFileNameConstant)
	testInstance.Setenv(testProfilesFileEnvironmentConstant, profilesPath)
	testInstance.Setenv(testLogLevelEnvironmentConstant, "error")

	return applicationHarness{profilesPath: profilesPath, output: &bytes.Buffer{}}
}

func (harness applicationHarness) execute(testInstance *testing.T, arguments ...string) error {
	testInstance.Helper()
	return harness.executeWith(testInstance, nil, arguments...)
}

func (harness applicationHarness) executeWith(testInstance *testing.T, formRunner interactive.FormRunner, arguments ...string) error {
	testInstance.Helper()
	harness.output.Reset()

	applicationOptions := []cli.ApplicationOption{cli.WithOutput(harness.output, harness.output)}
	if formRunner != nil {
		applicationOptions = append(applicationOptions, cli.WithFormRunner(formRunner))
	}
	return cli.NewApplication(applicationOptions...).ExecuteWithArguments(arguments)
}

func (harness applicationHarness) outputLines() []string {
	return strings.Split(strings.TrimRight(harness.output.String(), "\n"), "\n")
}

func TestCommandPrintsBuiltCommandLine(testInstance *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		expectedCommand string
	}{
		{
			name:            "defaults",
			arguments:       []string{testCommandSubcommandConstant},
			expectedCommand: testDefaultCommandConstant,
		},
		{
			name:            "reference_toggles",
			arguments:       []string{testCommandSubcommandConstant, "--local-path", "/data", "--sizefile", "--file-signature", "--csv", "out.csv"},
			expectedCommand: testReferenceCommandConstant,
		},
		{
			name:            "explicit_yes_no_values",
			arguments:       []string{testCommandSubcommandConstant, "--local-path", "/data", "--sizefile", "yes", "--file-signature=on", "--fasthash", "no", "--csv", "out.csv"},
			expectedCommand: testReferenceCommandConstant,
		},
		{
			name:            "profile_with_override",
			arguments:       []string{testCommandSubcommandConstant, "--profile", profiles.ProfileQuickScan, "--local-path", "/data", "--access-time", "no"},
			expectedCommand: testQuickScanWithoutAccessTimeCommand,
		},
		{
			name:            "network_telemetry_verbose_without_csv",
			arguments:       []string{testCommandSubcommandConstant, "--local-scan=no", "--network", "--elasticsearch", "http://es:9200", "--verbose", "--csv", ""},
			expectedCommand: "SMBeagle --network -e http://es:9200 -v",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			harness := newApplicationHarness(testInstance)

			executionError := harness.execute(testInstance, testCase.arguments...)
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, []string{testCase.expectedCommand}, harness.outputLines())
		})
	}
}

func TestCommandPreviewTruncatesToConfiguredWidth(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance)

	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testPreviewConfigurationTemplate), 0o600))

	executionError := harness.execute(testInstance, "--config", configurationPath, testCommandSubcommandConstant, "--preview", "--local-path", "/srv/very/long/share/path")
	require.NoError(testInstance, executionError)

	previewLines := harness.outputLines()
	require.Len(testInstance, previewLines, 1)
	require.Equal(testInstance, testExpectedPreviewDisplayConstant, previewLines[0])
	require.Len(testInstance, previewLines[0], 40)
}

func TestCommandHonorsEnvironmentExecutable(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance)
	testInstance.Setenv(testExecutableEnvironmentConstant, testCustomExecutableConstant)

	require.NoError(testInstance, harness.execute(testInstance, testCommandSubcommandConstant))
	require.Equal(testInstance, []string{testCustomExecutableConstant + ` -c "audit_output.csv"`}, harness.outputLines())
}

func TestCommandRejectsUnknownProfile(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance)

	executionError := harness.execute(testInstance, testCommandSubcommandConstant, "--profile", "Missing")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), `profile "Missing" not found`)
}

func TestCommandRejectsInvalidToggleValue(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance)

	executionError := harness.execute(testInstance, testCommandSubcommandConstant, "--sizefile=maybe")
	require.Error(testInstance, executionError)
}

func TestStartupWritesDefaultProfiles(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance)

	require.NoError(testInstance, harness.execute(testInstance, "profiles", "list"))
	require.Equal(testInstance, []string{profiles.ProfileAuditComplete, profiles.ProfileForensicDeep, profiles.ProfileQuickScan}, harness.outputLines())

	_, statError := os.Stat(harness.profilesPath)
	require.NoError(testInstance, statError)
}

func TestProfilesLifecycle(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance)

	require.NoError(testInstance, harness.execute(testInstance, "profiles", "save", testSavedProfileNameConstant, "--ownerfile", "--local-scan", "no", "--verbose"))
	require.Equal(testInstance, []string{`saved profile "Share Sweep"`}, harness.outputLines())

	require.NoError(testInstance, harness.execute(testInstance, "profiles", "show", testSavedProfileNameConstant))
	require.Equal(testInstance, []string{
		"local_path: false",
		"sizefile: false",
		"access_time: false",
		"fileattributes: false",
		"ownerfile: true",
		"fasthash: false",
		"file_signature: false",
		"verbose: true",
	}, harness.outputLines())

	require.NoError(testInstance, harness.execute(testInstance, testCommandSubcommandConstant, "--profile", testSavedProfileNameConstant))
	require.Equal(testInstance, []string{`SMBeagle --ownerfile -c "audit_output.csv" -v`}, harness.outputLines())

	require.NoError(testInstance, harness.execute(testInstance, "profiles", "delete", testSavedProfileNameConstant))
	require.NoError(testInstance, harness.execute(testInstance, "profiles", "list"))
	require.NotContains(testInstance, harness.outputLines(), testSavedProfileNameConstant)

	showError := harness.execute(testInstance, "profiles", "show", testSavedProfileNameConstant)
	require.Error(testInstance, showError)
}

type scriptedFormRunner struct {
	edit func(values *interactive.FormValues)
}

func (runner scriptedFormRunner) Run(_ context.Context, values *interactive.FormValues, _ []string) error {
	runner.edit(values)
	return nil
}

func TestConfigurePrintsEditedCommand(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance)

	formRunner := scriptedFormRunner{edit: func(values *interactive.FormValues) {
		values.ProfileName = profiles.ProfileAuditComplete
		values.LocalPath = "/data"
	}}

	require.NoError(testInstance, harness.executeWith(testInstance, formRunner, "configure"))
	require.Equal(testInstance, []string{
		`SMBeagle --local-path "/data" --sizefile --access_time --fileattributes --ownerfile --fasthash --file-signature -c "audit_output.csv"`,
	}, harness.outputLines())
}

func TestEmbeddedDefaultConfigurationDecodes(testInstance *testing.T) {
	configurationContent, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)

	var rawConfiguration map[string]any
	require.NoError(testInstance, yaml.Unmarshal(configurationContent, &rawConfiguration))

	var decodedConfiguration cli.ApplicationConfiguration
	require.NoError(testInstance, mapstructure.Decode(rawConfiguration, &decodedConfiguration))

	require.Equal(testInstance, "info", decodedConfiguration.Common.LogLevel)
	require.Equal(testInstance, "console", decodedConfiguration.Common.LogFormat)
	require.Equal(testInstance, "SMBeagle", decodedConfiguration.Scan.Executable)
	require.Equal(testInstance, "audit_output.csv", decodedConfiguration.Scan.CSVFile)
	require.Equal(testInstance, 80, decodedConfiguration.Scan.PreviewWidth)
	require.Empty(testInstance, decodedConfiguration.Profiles.File)

	base := decodedConfiguration.Scan.BaseScanConfiguration()
	require.True(testInstance, base.LocalScanEnabled)
	require.Equal(testInstance, options.Set{}, base.Metadata)
}

func TestDefaultConfigurationValuesMatchEmbeddedDefaults(testInstance *testing.T) {
	defaultValues := cli.DefaultConfigurationValues()
	require.Equal(testInstance, "SMBeagle", defaultValues["scan.executable"])
	require.Equal(testInstance, "audit_output.csv", defaultValues["scan.csv_file"])
	require.Equal(testInstance, 80, defaultValues["scan.preview_width"])
}
