package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/temirov/beagle/internal/options"
	"github.com/temirov/beagle/internal/scan"
	"github.com/temirov/beagle/internal/utils/flags"
	pathutils "github.com/temirov/beagle/internal/utils/path"
)

const (
	profileFlagNameConstant            = "profile"
	profileFlagUsageConstant           = "Saved profile whose toggles seed this scan; explicit toggle flags override it."
	localScanFlagNameConstant          = "local-scan"
	localPathFlagNameConstant          = "local-path"
	localPathFlagUsageConstant         = "Local path to audit."
	networkFlagNameConstant            = "network"
	networkFlagUsageConstant           = "Scan network shares."
	csvFlagNameConstant                = "csv"
	csvFlagUsageConstant               = "CSV output file. An empty value omits CSV output."
	elasticsearchFlagNameConstant      = "elasticsearch"
	elasticsearchFlagUsageConstant     = "Elasticsearch endpoint that receives audit records."
	verboseFlagNameConstant            = "verbose"
	flagNameSeparatorOldConstant       = "_"
	flagNameSeparatorNewConstant       = "-"
	profileNotFoundErrorTemplate       = "profile %q not found"
	profileLookupErrorTemplateConstant = "unable to load profile %q: %w"
)

// ProfileSource resolves saved profiles by name.
type ProfileSource interface {
	Get(profileName string) (options.Set, bool, error)
}

// metadataFlagName converts an option key to its beagle flag name.
func metadataFlagName(key options.Key) string {
	return strings.ReplaceAll(string(key), flagNameSeparatorOldConstant, flagNameSeparatorNewConstant)
}

type scanFlagValues struct {
	flagSet           *pflag.FlagSet
	profileName       string
	localPath         string
	csvFile           string
	telemetryEndpoint string
	toggles           *flags.ToggleBindings
}

// registerScanFlags adds the toggle and value flags shared by commands that build a scan.
func registerScanFlags(flagSet *pflag.FlagSet) *scanFlagValues {
	values := &scanFlagValues{flagSet: flagSet}

	flagSet.StringVar(&values.profileName, profileFlagNameConstant, "", profileFlagUsageConstant)
	flagSet.StringVar(&values.localPath, localPathFlagNameConstant, "", localPathFlagUsageConstant)
	flagSet.StringVar(&values.csvFile, csvFlagNameConstant, "", csvFlagUsageConstant)
	flagSet.StringVar(&values.telemetryEndpoint, elasticsearchFlagNameConstant, "", elasticsearchFlagUsageConstant)

	definitions := []flags.ToggleDefinition{
		{Name: localScanFlagNameConstant, DefaultValue: true, Usage: options.KeyLocalPath.Description()},
		{Name: networkFlagNameConstant, Usage: networkFlagUsageConstant},
		{Name: verboseFlagNameConstant, Usage: options.KeyVerbose.Description()},
	}
	for _, key := range options.MetadataKeys() {
		definitions = append(definitions, flags.ToggleDefinition{Name: metadataFlagName(key), Usage: key.Description()})
	}
	values.toggles = flags.BindToggles(flagSet, definitions)

	return values
}

// resolve layers the selected profile and then the explicitly set flags over base.
func (values *scanFlagValues) resolve(base scan.Configuration, profileSource ProfileSource, homeExpander *pathutils.HomeExpander) (scan.Configuration, error) {
	resolved := base

	profileName := strings.TrimSpace(values.profileName)
	if len(profileName) > 0 {
		if profileSource == nil {
			return base, fmt.Errorf(profileNotFoundErrorTemplate, profileName)
		}
		profile, exists, lookupError := profileSource.Get(profileName)
		if lookupError != nil {
			return base, fmt.Errorf(profileLookupErrorTemplateConstant, profileName, lookupError)
		}
		if !exists {
			return base, fmt.Errorf(profileNotFoundErrorTemplate, profileName)
		}
		resolved = resolved.ApplyProfile(profile)
	}

	if values.flagSet.Changed(localPathFlagNameConstant) {
		resolved.LocalPath = homeExpander.Expand(strings.TrimSpace(values.localPath))
	}
	if values.flagSet.Changed(csvFlagNameConstant) {
		resolved.CSVFile = strings.TrimSpace(values.csvFile)
	}
	if values.flagSet.Changed(elasticsearchFlagNameConstant) {
		resolved.TelemetryEndpoint = strings.TrimSpace(values.telemetryEndpoint)
	}

	changedToggles := values.toggles.Changed()
	if enabled, changed := changedToggles[localScanFlagNameConstant]; changed {
		resolved.LocalScanEnabled = enabled
	}
	if enabled, changed := changedToggles[networkFlagNameConstant]; changed {
		resolved.NetworkScan = enabled
	}
	if enabled, changed := changedToggles[verboseFlagNameConstant]; changed {
		resolved.Verbose = enabled
	}

	metadata := resolved.Metadata.Clone()
	for _, key := range options.MetadataKeys() {
		if enabled, changed := changedToggles[metadataFlagName(key)]; changed {
			metadata[key] = enabled
		}
	}
	resolved.Metadata = metadata

	return resolved, nil
}
