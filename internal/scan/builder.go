package scan

import (
	"strings"

	"github.com/temirov/beagle/internal/options"
)

const (
	localPathFlagConstant       = "--local-path"
	networkFlagConstant         = "--network"
	longFlagPrefixConstant      = "--"
	csvFlagConstant             = "-c"
	telemetryFlagConstant       = "-e"
	verboseFlagConstant         = "-v"
	quoteConstant               = `"`
	tokenSeparatorConstant      = " "
	previewEllipsisConstant     = "..."
	minimumPreviewWidthConstant = len(previewEllipsisConstant) + 1
)

// BuildCommand renders the configuration into a single command line. Paths are wrapped
// in double quotes verbatim; embedded quotes are not escaped. The output depends only on
// the configuration.
func BuildCommand(configuration Configuration) string {
	tokens := []string{configuration.programName()}

	if configuration.LocalScanEnabled && len(configuration.LocalPath) > 0 {
		tokens = append(tokens, localPathFlagConstant, quote(configuration.LocalPath))
	}

	if configuration.NetworkScan {
		tokens = append(tokens, networkFlagConstant)
	}

	for _, key := range options.MetadataKeys() {
		if configuration.Metadata.Enabled(key) {
			tokens = append(tokens, longFlagPrefixConstant+key.CLIName())
		}
	}

	if len(configuration.CSVFile) > 0 {
		tokens = append(tokens, csvFlagConstant, quote(configuration.CSVFile))
	}

	if len(configuration.TelemetryEndpoint) > 0 {
		tokens = append(tokens, telemetryFlagConstant, configuration.TelemetryEndpoint)
	}

	if configuration.Verbose {
		tokens = append(tokens, verboseFlagConstant)
	}

	return strings.Join(tokens, tokenSeparatorConstant)
}

// CommandPreview pairs the bounded display text with the command that actually runs.
type CommandPreview struct {
	Display   string
	Full      string
	Truncated bool
}

// Preview bounds the command to width characters, ending truncated text with "...".
// A width below four falls back to DefaultPreviewWidth.
func Preview(command string, width int) CommandPreview {
	if width < minimumPreviewWidthConstant {
		width = DefaultPreviewWidth
	}

	commandRunes := []rune(command)
	if len(commandRunes) <= width {
		return CommandPreview{Display: command, Full: command}
	}

	visibleRunes := commandRunes[:width-len(previewEllipsisConstant)]
	return CommandPreview{
		Display:   string(visibleRunes) + previewEllipsisConstant,
		Full:      command,
		Truncated: true,
	}
}

func quote(value string) string {
	return quoteConstant + value + quoteConstant
}
