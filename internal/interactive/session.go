package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/beagle/internal/options"
	"github.com/temirov/beagle/internal/scan"
)

const (
	profileListErrorTemplateConstant   = "unable to list profiles: %w"
	profileLookupErrorTemplateConstant = "unable to load profile %q: %w"
	profileMissingErrorTemplate        = "profile %q not found"
	profileSaveErrorTemplateConstant   = "unable to save profile %q: %w"
	profileAppliedMessageConstant      = "profile applied"
	profileStoredMessageConstant       = "profile stored"
	logFieldProfileNameConstant        = "profile"
)

// ErrFormRunnerNotConfigured indicates the session has no form to display.
var ErrFormRunnerNotConfigured = errors.New("interactive form runner not configured")

// ProfileCatalog is the subset of the profile store the session needs.
type ProfileCatalog interface {
	ListNames() ([]string, error)
	Get(profileName string) (options.Set, bool, error)
	SaveOne(profileName string, set options.Set) error
}

// Session edits a scan configuration through a form, applying and saving profiles on the way.
type Session struct {
	form     FormRunner
	profiles ProfileCatalog
	logger   *zap.Logger
}

// NewSession constructs a Session. A nil catalog disables profile selection and saving.
func NewSession(form FormRunner, profiles ProfileCatalog, logger *zap.Logger) (*Session, error) {
	if form == nil {
		return nil, ErrFormRunnerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{form: form, profiles: profiles, logger: logger}, nil
}

// Run shows the form seeded from base and returns the edited configuration. A chosen
// profile replaces the option toggles entered in the form.
func (session *Session) Run(executionContext context.Context, base scan.Configuration) (scan.Configuration, error) {
	profileNames, listError := session.listProfileNames()
	if listError != nil {
		return base, listError
	}

	values := NewFormValues(base)
	if runError := session.form.Run(executionContext, &values, profileNames); runError != nil {
		return base, runError
	}

	edited := values.Apply(base)

	selectedProfile := strings.TrimSpace(values.ProfileName)
	if len(selectedProfile) > 0 && session.profiles != nil {
		profile, exists, lookupError := session.profiles.Get(selectedProfile)
		if lookupError != nil {
			return base, fmt.Errorf(profileLookupErrorTemplateConstant, selectedProfile, lookupError)
		}
		if !exists {
			return base, fmt.Errorf(profileMissingErrorTemplate, selectedProfile)
		}
		edited = edited.ApplyProfile(profile)
		session.logger.Debug(profileAppliedMessageConstant, zap.String(logFieldProfileNameConstant, selectedProfile))
	}

	saveAsProfile := strings.TrimSpace(values.SaveAsProfile)
	if len(saveAsProfile) > 0 && session.profiles != nil {
		if saveError := session.profiles.SaveOne(saveAsProfile, edited.CollectProfile()); saveError != nil {
			return base, fmt.Errorf(profileSaveErrorTemplateConstant, saveAsProfile, saveError)
		}
		session.logger.Info(profileStoredMessageConstant, zap.String(logFieldProfileNameConstant, saveAsProfile))
	}

	return edited, nil
}

func (session *Session) listProfileNames() ([]string, error) {
	if session.profiles == nil {
		return nil, nil
	}
	profileNames, listError := session.profiles.ListNames()
	if listError != nil {
		return nil, fmt.Errorf(profileListErrorTemplateConstant, listError)
	}
	return profileNames, nil
}
