package options

import "sort"

const (
	keyLocalPathConstant      = "local_path"
	keySizeFileConstant       = "sizefile"
	keyAccessTimeConstant     = "access_time"
	keyFileAttributesConstant = "fileattributes"
	keyOwnerFileConstant      = "ownerfile"
	keyFastHashConstant       = "fasthash"
	keyFileSignatureConstant  = "file_signature"
	keyVerboseConstant        = "verbose"
	cliNameFileSignature      = "file-signature"
)

// Key identifies a boolean option understood by the audit tool front-end.
type Key string

// Supported option keys.
const (
	KeyLocalPath      Key = Key(keyLocalPathConstant)
	KeySizeFile       Key = Key(keySizeFileConstant)
	KeyAccessTime     Key = Key(keyAccessTimeConstant)
	KeyFileAttributes Key = Key(keyFileAttributesConstant)
	KeyOwnerFile      Key = Key(keyOwnerFileConstant)
	KeyFastHash       Key = Key(keyFastHashConstant)
	KeyFileSignature  Key = Key(keyFileSignatureConstant)
	KeyVerbose        Key = Key(keyVerboseConstant)
)

// metadataKeys lists metadata collection options in the order they are rendered.
var metadataKeys = []Key{
	KeySizeFile,
	KeyAccessTime,
	KeyFileAttributes,
	KeyOwnerFile,
	KeyFastHash,
	KeyFileSignature,
}

var allKeys = append([]Key{KeyLocalPath}, append(append([]Key{}, metadataKeys...), KeyVerbose)...)

// cliNames is an exact-match table. Keys missing from it are passed to the tool unchanged.
var cliNames = map[Key]string{
	KeyFileSignature: cliNameFileSignature,
}

var descriptions = map[Key]string{
	KeyLocalPath:      "Scan the local path instead of only network shares.",
	KeySizeFile:       "Collects the exact file size in bytes for each discovered file.",
	KeyAccessTime:     "Captures the last access timestamp (when file was read).",
	KeyFileAttributes: "Gathers Windows file system attributes (Hidden, ReadOnly, System, etc.).",
	KeyOwnerFile:      "Determines file ownership information (DOMAIN\\Username).",
	KeyFastHash:       "Generates xxHash64 checksum of first 64KB for file identification.",
	KeyFileSignature:  "Identifies actual file type by analyzing magic bytes in file header.",
	KeyVerbose:        "Enables verbose audit tool output.",
}

// MetadataKeys returns the metadata option keys in declared order.
func MetadataKeys() []Key {
	return append([]Key{}, metadataKeys...)
}

// AllKeys returns every known option key.
func AllKeys() []Key {
	return append([]Key{}, allKeys...)
}

// IsKnown reports whether the key belongs to the fixed option set.
func (key Key) IsKnown() bool {
	for _, knownKey := range allKeys {
		if knownKey == key {
			return true
		}
	}
	return false
}

// CLIName returns the flag name passed to the audit tool for the key.
func (key Key) CLIName() string {
	if cliName, mapped := cliNames[key]; mapped {
		return cliName
	}
	return string(key)
}

// Description returns the human-readable explanation of the option.
func (key Key) Description() string {
	return descriptions[key]
}

// Set maps option keys to enabled flags.
type Set map[Key]bool

// Normalize returns a copy with unknown keys dropped and every known key present.
func Normalize(raw map[Key]bool) Set {
	normalized := make(Set, len(allKeys))
	for _, key := range allKeys {
		normalized[key] = raw[key]
	}
	return normalized
}

// Enabled reports whether the key is switched on. Missing keys are disabled.
func (set Set) Enabled(key Key) bool {
	if set == nil {
		return false
	}
	return set[key]
}

// EnabledKeys returns the switched-on keys sorted by name.
func (set Set) EnabledKeys() []Key {
	enabled := make([]Key, 0, len(set))
	for key, value := range set {
		if value && key.IsKnown() {
			enabled = append(enabled, key)
		}
	}
	sort.Slice(enabled, func(left int, right int) bool {
		return enabled[left] < enabled[right]
	})
	return enabled
}

// Clone returns an independent copy of the set.
func (set Set) Clone() Set {
	cloned := make(Set, len(set))
	for key, value := range set {
		cloned[key] = value
	}
	return cloned
}
