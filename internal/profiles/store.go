package profiles

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/beagle/internal/filesystem"
	"github.com/temirov/beagle/internal/options"
)

const (
	documentPermissionsConstant        = fs.FileMode(0o644)
	directoryPermissionsConstant       = fs.FileMode(0o755)
	temporaryFileSuffixConstant        = ".tmp"
	documentPathRequiredMessage        = "profile document path must be provided"
	documentReadErrorTemplate          = "failed to read profile document %s: %w"
	documentParseErrorTemplate         = "%w %s: %v"
	documentEncodeErrorTemplate        = "failed to encode profile document: %w"
	documentWriteErrorTemplate         = "failed to write profile document %s: %w"
	documentDirectoryErrorTemplate     = "failed to create profile directory %s: %w"
	documentStatErrorTemplate          = "failed to inspect profile document %s: %w"
	profilesInitializedMessageConstant = "default profiles written"
	profileSavedMessageConstant        = "profile saved"
	profileDeletedMessageConstant      = "profile deleted"
	logFieldPathConstant               = "profiles_file"
	logFieldProfileConstant            = "profile"
	logFieldProfileCountConstant       = "profile_count"
)

var (
	// ErrMalformedDocument indicates the persisted profile document could not be parsed.
	ErrMalformedDocument = errors.New("malformed profile document")
	// ErrDocumentPathMissing indicates the store was constructed without a document path.
	ErrDocumentPathMissing = errors.New(documentPathRequiredMessage)
)

// Store persists profiles in a single YAML document. It assumes a single writer.
type Store struct {
	documentPath string
	fileSystem   filesystem.FileSystem
	logger       *zap.Logger
}

// NewStore constructs a Store for the document at documentPath.
func NewStore(documentPath string, fileSystem filesystem.FileSystem, logger *zap.Logger) (*Store, error) {
	if len(documentPath) == 0 {
		return nil, ErrDocumentPathMissing
	}
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{documentPath: documentPath, fileSystem: fileSystem, logger: logger}, nil
}

// DocumentPath returns the location of the persisted document.
func (store *Store) DocumentPath() string {
	return store.documentPath
}

// InitializeIfAbsent writes the built-in presets when no document exists yet.
func (store *Store) InitializeIfAbsent() error {
	_, statError := store.fileSystem.Stat(store.documentPath)
	if statError == nil {
		return nil
	}
	if !errors.Is(statError, fs.ErrNotExist) {
		return fmt.Errorf(documentStatErrorTemplate, store.documentPath, statError)
	}

	defaults := DefaultProfiles()
	if saveError := store.SaveAll(defaults); saveError != nil {
		return saveError
	}

	store.logger.Info(
		profilesInitializedMessageConstant,
		zap.String(logFieldPathConstant, store.documentPath),
		zap.Int(logFieldProfileCountConstant, len(defaults)),
	)
	return nil
}

// Load reads every profile. A missing or empty document yields an empty mapping.
func (store *Store) Load() (map[string]options.Set, error) {
	contentBytes, readError := store.fileSystem.ReadFile(store.documentPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return map[string]options.Set{}, nil
		}
		return nil, fmt.Errorf(documentReadErrorTemplate, store.documentPath, readError)
	}

	if len(bytes.TrimSpace(contentBytes)) == 0 {
		return map[string]options.Set{}, nil
	}

	var document map[string]map[options.Key]bool
	if unmarshalError := yaml.Unmarshal(contentBytes, &document); unmarshalError != nil {
		return nil, fmt.Errorf(documentParseErrorTemplate, ErrMalformedDocument, store.documentPath, unmarshalError)
	}

	profiles := make(map[string]options.Set, len(document))
	for profileName, rawSet := range document {
		profiles[profileName] = knownKeysOnly(rawSet)
	}
	return profiles, nil
}

// SaveAll replaces the persisted document with the supplied profiles.
func (store *Store) SaveAll(profiles map[string]options.Set) error {
	document := make(map[string]map[options.Key]bool, len(profiles))
	for profileName, set := range profiles {
		document[profileName] = knownKeysOnly(set)
	}

	contentBytes, encodeError := yaml.Marshal(document)
	if encodeError != nil {
		return fmt.Errorf(documentEncodeErrorTemplate, encodeError)
	}

	directoryPath := filepath.Dir(store.documentPath)
	if mkdirError := store.fileSystem.MkdirAll(directoryPath, directoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(documentDirectoryErrorTemplate, directoryPath, mkdirError)
	}

	temporaryPath := store.documentPath + temporaryFileSuffixConstant
	if writeError := store.fileSystem.WriteFile(temporaryPath, contentBytes, documentPermissionsConstant); writeError != nil {
		return fmt.Errorf(documentWriteErrorTemplate, store.documentPath, writeError)
	}
	if renameError := store.fileSystem.Rename(temporaryPath, store.documentPath); renameError != nil {
		_ = store.fileSystem.Remove(temporaryPath)
		return fmt.Errorf(documentWriteErrorTemplate, store.documentPath, renameError)
	}
	return nil
}

// SaveOne creates or overwrites a single profile.
func (store *Store) SaveOne(profileName string, set options.Set) error {
	profiles, loadError := store.Load()
	if loadError != nil {
		return loadError
	}

	profiles[profileName] = set
	if saveError := store.SaveAll(profiles); saveError != nil {
		return saveError
	}

	store.logger.Debug(profileSavedMessageConstant, zap.String(logFieldProfileConstant, profileName))
	return nil
}

// Delete removes a profile. Deleting an unknown profile leaves the document untouched.
func (store *Store) Delete(profileName string) error {
	profiles, loadError := store.Load()
	if loadError != nil {
		return loadError
	}

	if _, exists := profiles[profileName]; !exists {
		return nil
	}

	delete(profiles, profileName)
	if saveError := store.SaveAll(profiles); saveError != nil {
		return saveError
	}

	store.logger.Debug(profileDeletedMessageConstant, zap.String(logFieldProfileConstant, profileName))
	return nil
}

// ListNames returns the stored profile names in ascending order.
func (store *Store) ListNames() ([]string, error) {
	profiles, loadError := store.Load()
	if loadError != nil {
		return nil, loadError
	}

	names := make([]string, 0, len(profiles))
	for profileName := range profiles {
		names = append(names, profileName)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the profile stored under profileName.
func (store *Store) Get(profileName string) (options.Set, bool, error) {
	profiles, loadError := store.Load()
	if loadError != nil {
		return nil, false, loadError
	}

	set, exists := profiles[profileName]
	return set, exists, nil
}

func knownKeysOnly(raw map[options.Key]bool) options.Set {
	filtered := make(options.Set, len(raw))
	for key, value := range raw {
		if key.IsKnown() {
			filtered[key] = value
		}
	}
	return filtered
}
