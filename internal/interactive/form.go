package interactive

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/temirov/beagle/internal/options"
	"github.com/temirov/beagle/internal/scan"
)

const (
	customProfileLabelConstant       = "Custom (use the toggles below)"
	profileSelectTitleConstant       = "Profile"
	profileSelectDescriptionConstant = "A saved profile replaces the option toggles"
	localScanTitleConstant           = "Scan local drives?"
	localPathTitleConstant           = "Local path"
	localPathPlaceholderConstant     = "/srv/share"
	networkScanTitleConstant         = "Scan network shares?"
	metadataTitleConstant            = "Metadata to collect"
	metadataDescriptionConstant      = "space: toggle, enter: confirm"
	metadataOptionLabelTemplate      = "%s (%s)"
	csvFileTitleConstant             = "CSV output file"
	telemetryEndpointTitleConstant   = "Elasticsearch endpoint"
	telemetryEndpointPlaceholder     = "http://localhost:9200"
	verboseTitleConstant             = "Verbose output?"
	saveAsProfileTitleConstant       = "Save as profile"
	saveAsProfileDescriptionConstant = "Leave empty to skip saving"
	affirmativeLabelConstant         = "Yes"
	negativeLabelConstant            = "No"
	formAbortedErrorTemplateConstant = "configuration cancelled: %w"
)

// FormValues holds the editable fields bound to the form widgets.
type FormValues struct {
	ProfileName       string
	LocalScanEnabled  bool
	LocalPath         string
	NetworkScan       bool
	Metadata          []options.Key
	CSVFile           string
	TelemetryEndpoint string
	Verbose           bool
	SaveAsProfile     string
}

// NewFormValues seeds form values from a scan configuration.
func NewFormValues(configuration scan.Configuration) FormValues {
	enabledMetadata := make([]options.Key, 0, len(options.MetadataKeys()))
	for _, key := range options.MetadataKeys() {
		if configuration.Metadata.Enabled(key) {
			enabledMetadata = append(enabledMetadata, key)
		}
	}

	return FormValues{
		LocalScanEnabled:  configuration.LocalScanEnabled,
		LocalPath:         configuration.LocalPath,
		NetworkScan:       configuration.NetworkScan,
		Metadata:          enabledMetadata,
		CSVFile:           configuration.CSVFile,
		TelemetryEndpoint: configuration.TelemetryEndpoint,
		Verbose:           configuration.Verbose,
	}
}

// Apply folds the form values into base. The profile selection is not applied here.
func (values FormValues) Apply(base scan.Configuration) scan.Configuration {
	updated := base
	updated.LocalScanEnabled = values.LocalScanEnabled
	updated.LocalPath = values.LocalPath
	updated.NetworkScan = values.NetworkScan
	updated.CSVFile = values.CSVFile
	updated.TelemetryEndpoint = values.TelemetryEndpoint
	updated.Verbose = values.Verbose

	metadata := make(options.Set, len(options.MetadataKeys()))
	for _, key := range options.MetadataKeys() {
		metadata[key] = false
	}
	for _, key := range values.Metadata {
		if key.IsKnown() {
			metadata[key] = true
		}
	}
	updated.Metadata = metadata
	return updated
}

// BuildForm assembles the huh form bound to values.
func BuildForm(values *FormValues, profileNames []string) *huh.Form {
	profileOptions := make([]huh.Option[string], 0, len(profileNames)+1)
	profileOptions = append(profileOptions, huh.NewOption(customProfileLabelConstant, ""))
	for _, profileName := range profileNames {
		profileOptions = append(profileOptions, huh.NewOption(profileName, profileName))
	}

	metadataOptions := make([]huh.Option[options.Key], 0, len(options.MetadataKeys()))
	for _, key := range options.MetadataKeys() {
		label := fmt.Sprintf(metadataOptionLabelTemplate, key, key.Description())
		metadataOptions = append(metadataOptions, huh.NewOption(label, key).Selected(containsKey(values.Metadata, key)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(profileSelectTitleConstant).
				Description(profileSelectDescriptionConstant).
				Options(profileOptions...).
				Value(&values.ProfileName),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title(localScanTitleConstant).
				Description(options.KeyLocalPath.Description()).
				Affirmative(affirmativeLabelConstant).
				Negative(negativeLabelConstant).
				Value(&values.LocalScanEnabled),
			huh.NewInput().
				Title(localPathTitleConstant).
				Placeholder(localPathPlaceholderConstant).
				Value(&values.LocalPath),
			huh.NewConfirm().
				Title(networkScanTitleConstant).
				Affirmative(affirmativeLabelConstant).
				Negative(negativeLabelConstant).
				Value(&values.NetworkScan),
		),
		huh.NewGroup(
			huh.NewMultiSelect[options.Key]().
				Title(metadataTitleConstant).
				Description(metadataDescriptionConstant).
				Options(metadataOptions...).
				Value(&values.Metadata),
		),
		huh.NewGroup(
			huh.NewInput().
				Title(csvFileTitleConstant).
				Value(&values.CSVFile),
			huh.NewInput().
				Title(telemetryEndpointTitleConstant).
				Placeholder(telemetryEndpointPlaceholder).
				Value(&values.TelemetryEndpoint),
			huh.NewConfirm().
				Title(verboseTitleConstant).
				Description(options.KeyVerbose.Description()).
				Affirmative(affirmativeLabelConstant).
				Negative(negativeLabelConstant).
				Value(&values.Verbose),
			huh.NewInput().
				Title(saveAsProfileTitleConstant).
				Description(saveAsProfileDescriptionConstant).
				Value(&values.SaveAsProfile),
		),
	)
}

func containsKey(keys []options.Key, candidate options.Key) bool {
	for _, key := range keys {
		if key == candidate {
			return true
		}
	}
	return false
}

// FormRunner fills values interactively.
type FormRunner interface {
	Run(executionContext context.Context, values *FormValues, profileNames []string) error
}

// TerminalFormRunner runs the huh form against the provided terminal streams.
type TerminalFormRunner struct {
	Input  io.Reader
	Output io.Writer
}

// Run displays the form and blocks until it is submitted or aborted.
func (runner TerminalFormRunner) Run(executionContext context.Context, values *FormValues, profileNames []string) error {
	form := BuildForm(values, profileNames)
	if runner.Input != nil {
		form = form.WithInput(runner.Input)
	}
	if runner.Output != nil {
		form = form.WithOutput(runner.Output)
	}
	if runError := form.RunWithContext(executionContext); runError != nil {
		return fmt.Errorf(formAbortedErrorTemplateConstant, runError)
	}
	return nil
}
