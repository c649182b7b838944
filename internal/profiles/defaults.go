package profiles

import "github.com/temirov/beagle/internal/options"

// Built-in profile names.
const (
	ProfileAuditComplete = "Audit Complete"
	ProfileQuickScan     = "Quick Scan"
	ProfileForensicDeep  = "Forensic Deep"
)

// DefaultProfiles returns the presets written when no profile document exists.
func DefaultProfiles() map[string]options.Set {
	auditComplete := options.Set{
		options.KeyLocalPath:      true,
		options.KeySizeFile:       true,
		options.KeyAccessTime:     true,
		options.KeyFileAttributes: true,
		options.KeyOwnerFile:      true,
		options.KeyFastHash:       true,
		options.KeyFileSignature:  true,
	}

	forensicDeep := auditComplete.Clone()
	forensicDeep[options.KeyVerbose] = true

	return map[string]options.Set{
		ProfileAuditComplete: auditComplete,
		ProfileQuickScan: {
			options.KeyLocalPath:  true,
			options.KeySizeFile:   true,
			options.KeyAccessTime: true,
		},
		ProfileForensicDeep: forensicDeep,
	}
}
