package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/beagle/internal/options"
)

const (
	profilesCommandUseConstant              = "profiles"
	profilesCommandShortDescriptionConstant = "Manage saved option profiles"
	profilesListUseConstant                 = "list"
	profilesListShortDescriptionConstant    = "List saved profile names"
	profilesShowUseConstant                 = "show NAME"
	profilesShowShortDescriptionConstant    = "Show the toggles stored in a profile"
	profilesSaveUseConstant                 = "save NAME"
	profilesSaveShortDescriptionConstant    = "Save the toggles resolved from flags as a profile"
	profilesDeleteUseConstant               = "delete NAME"
	profilesDeleteShortDescriptionConstant  = "Delete a saved profile"
	profileEntryTemplateConstant            = "%s: %t\n"
	profileSavedTemplateConstant            = "saved profile %q\n"
	profileDeletedTemplateConstant          = "deleted profile %q\n"
	profileNameRequiredMessageConstant      = "profile name must not be empty"
)

var errProfileNameRequired = errors.New(profileNameRequiredMessageConstant)

// ProfilesCommandBuilder assembles the profile management command tree.
type ProfilesCommandBuilder struct {
	Dependencies CommandDependencies
}

// Build constructs the cobra command with its list, show, save, and delete children.
func (builder *ProfilesCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   profilesCommandUseConstant,
		Short: profilesCommandShortDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	command.AddCommand(
		&cobra.Command{
			Use:   profilesListUseConstant,
			Short: profilesListShortDescriptionConstant,
			Args:  cobra.NoArgs,
			RunE:  builder.runList,
		},
		&cobra.Command{
			Use:   profilesShowUseConstant,
			Short: profilesShowShortDescriptionConstant,
			Args:  cobra.ExactArgs(1),
			RunE:  builder.runShow,
		},
		builder.buildSaveCommand(),
		&cobra.Command{
			Use:   profilesDeleteUseConstant,
			Short: profilesDeleteShortDescriptionConstant,
			Args:  cobra.ExactArgs(1),
			RunE:  builder.runDelete,
		},
	)

	return command, nil
}

func (builder *ProfilesCommandBuilder) buildSaveCommand() *cobra.Command {
	saveCommand := &cobra.Command{
		Use:   profilesSaveUseConstant,
		Short: profilesSaveShortDescriptionConstant,
		Args:  cobra.ExactArgs(1),
	}
	scanFlags := registerScanFlags(saveCommand.Flags())
	saveCommand.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.runSave(command, arguments, scanFlags)
	}
	return saveCommand
}

func (builder *ProfilesCommandBuilder) runList(command *cobra.Command, arguments []string) error {
	profileStore, storeError := builder.Dependencies.resolveProfileStore()
	if storeError != nil {
		return storeError
	}

	profileNames, listError := profileStore.ListNames()
	if listError != nil {
		return listError
	}

	for _, profileName := range profileNames {
		if _, printError := fmt.Fprintln(command.OutOrStdout(), profileName); printError != nil {
			return printError
		}
	}
	return nil
}

func (builder *ProfilesCommandBuilder) runShow(command *cobra.Command, arguments []string) error {
	profileName, nameError := profileNameArgument(arguments)
	if nameError != nil {
		return nameError
	}

	profileStore, storeError := builder.Dependencies.resolveProfileStore()
	if storeError != nil {
		return storeError
	}

	profile, exists, lookupError := profileStore.Get(profileName)
	if lookupError != nil {
		return lookupError
	}
	if !exists {
		return fmt.Errorf(profileNotFoundErrorTemplate, profileName)
	}

	for _, key := range options.AllKeys() {
		if _, printError := fmt.Fprintf(command.OutOrStdout(), profileEntryTemplateConstant, key, profile.Enabled(key)); printError != nil {
			return printError
		}
	}
	return nil
}

func (builder *ProfilesCommandBuilder) runSave(command *cobra.Command, arguments []string, scanFlags *scanFlagValues) error {
	profileName, nameError := profileNameArgument(arguments)
	if nameError != nil {
		return nameError
	}

	profileStore, storeError := builder.Dependencies.resolveProfileStore()
	if storeError != nil {
		return storeError
	}

	configuration, resolveError := builder.Dependencies.buildScanConfiguration(scanFlags)
	if resolveError != nil {
		return resolveError
	}

	if saveError := profileStore.SaveOne(profileName, configuration.CollectProfile()); saveError != nil {
		return saveError
	}

	_, printError := fmt.Fprintf(command.OutOrStdout(), profileSavedTemplateConstant, profileName)
	return printError
}

func (builder *ProfilesCommandBuilder) runDelete(command *cobra.Command, arguments []string) error {
	profileName, nameError := profileNameArgument(arguments)
	if nameError != nil {
		return nameError
	}

	profileStore, storeError := builder.Dependencies.resolveProfileStore()
	if storeError != nil {
		return storeError
	}

	if deleteError := profileStore.Delete(profileName); deleteError != nil {
		return deleteError
	}

	_, printError := fmt.Fprintf(command.OutOrStdout(), profileDeletedTemplateConstant, profileName)
	return printError
}

func profileNameArgument(arguments []string) (string, error) {
	if len(arguments) == 0 {
		return "", errProfileNameRequired
	}
	profileName := strings.TrimSpace(arguments[0])
	if len(profileName) == 0 {
		return "", errProfileNameRequired
	}
	return profileName, nil
}
