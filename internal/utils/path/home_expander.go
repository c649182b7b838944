package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander converts user home shortcuts in scan and profile paths to absolute paths.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand resolves a leading tilde to the user's home directory. Paths without a tilde
// prefix, and "~user" forms, are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	relativePath, hasHomePrefix := trimHomePrefix(candidatePath)
	if !hasHomePrefix {
		return candidatePath
	}

	resolvedHomeDirectory := expander.resolveHomeDirectory()
	if len(resolvedHomeDirectory) == 0 {
		return candidatePath
	}

	if len(relativePath) == 0 {
		return resolvedHomeDirectory
	}
	return filepath.Join(resolvedHomeDirectory, relativePath)
}

func trimHomePrefix(candidatePath string) (string, bool) {
	switch {
	case candidatePath == tildeSymbolConstant:
		return "", true
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		return strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant), true
	case strings.HasPrefix(candidatePath, tildeWithPathSeparatorPrefix):
		return strings.TrimPrefix(candidatePath, tildeWithPathSeparatorPrefix), true
	default:
		return candidatePath, false
	}
}

func (expander *HomeExpander) resolveHomeDirectory() string {
	expander.initializationGuard.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
