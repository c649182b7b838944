package scan

import (
	"strings"

	"github.com/temirov/beagle/internal/options"
)

const (
	// DefaultProgramName is the executable invoked when no override is configured.
	DefaultProgramName = "SMBeagle"
	// DefaultCSVFile is the CSV output path used when none is chosen.
	DefaultCSVFile = "audit_output.csv"
	// DefaultPreviewWidth bounds the displayed command preview.
	DefaultPreviewWidth = 80
)

// Configuration holds the transient toggle state rendered into a command line.
type Configuration struct {
	ProgramName       string
	LocalScanEnabled  bool
	LocalPath         string
	NetworkScan       bool
	Metadata          options.Set
	CSVFile           string
	TelemetryEndpoint string
	Verbose           bool
}

// DefaultConfiguration returns the initial toggle state: local scan on, CSV output to
// DefaultCSVFile, every metadata option off.
func DefaultConfiguration() Configuration {
	return Configuration{
		ProgramName:      DefaultProgramName,
		LocalScanEnabled: true,
		Metadata:         options.Set{},
		CSVFile:          DefaultCSVFile,
	}
}

// ApplyProfile overwrites the profile-controlled toggles. Keys absent from the profile
// switch their toggle off.
func (configuration Configuration) ApplyProfile(profile options.Set) Configuration {
	updated := configuration
	updated.LocalScanEnabled = profile.Enabled(options.KeyLocalPath)
	updated.Verbose = profile.Enabled(options.KeyVerbose)

	metadata := make(options.Set, len(options.MetadataKeys()))
	for _, key := range options.MetadataKeys() {
		metadata[key] = profile.Enabled(key)
	}
	updated.Metadata = metadata
	return updated
}

// CollectProfile snapshots the profile-controlled toggles into a complete Option Set.
func (configuration Configuration) CollectProfile() options.Set {
	profile := options.Set{
		options.KeyLocalPath: configuration.LocalScanEnabled,
		options.KeyVerbose:   configuration.Verbose,
	}
	for _, key := range options.MetadataKeys() {
		profile[key] = configuration.Metadata.Enabled(key)
	}
	return profile
}

func (configuration Configuration) programName() string {
	trimmedName := strings.TrimSpace(configuration.ProgramName)
	if len(trimmedName) == 0 {
		return DefaultProgramName
	}
	return trimmedName
}
