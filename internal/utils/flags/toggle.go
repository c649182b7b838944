package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue               = "true"
	toggleFalseCanonicalValue              = "false"
	toggleValueTypeConstant                = "bool"
	toggleLongPrefixConstant               = "--"
	toggleShortPrefixConstant              = "-"
	toggleAssignmentConstant               = "="
	toggleParseErrorTemplate               = "invalid toggle value %q"
	toggleUsageTemplateConstant            = "`%s` %s"
	toggleBareUsageTemplateConstant        = "`%s`"
	toggleArgumentTruePlaceholderConstant  = "<YES|no>"
	toggleArgumentFalsePlaceholderConstant = "<yes|NO>"
)

var (
	trueLiteralSet  = map[string]struct{}{"true": {}, "yes": {}, "on": {}, "1": {}, "t": {}, "y": {}}
	falseLiteralSet = map[string]struct{}{"false": {}, "no": {}, "off": {}, "0": {}, "f": {}, "n": {}}

	toggleFlagRegistryMutex sync.RWMutex
	toggleFlagNames         = map[string]struct{}{}
	toggleFlagShorthands    = map[string]struct{}{}
)

// ToggleDefinition describes one yes/no flag.
type ToggleDefinition struct {
	Name         string
	Shorthand    string
	DefaultValue bool
	Usage        string
}

// ToggleBindings tracks a group of toggle flags registered on one flag set.
type ToggleBindings struct {
	flagSet *pflag.FlagSet
	names   []string
	values  map[string]*bool
}

// BindToggles registers every definition on the flag set and returns bindings that report
// which toggles the user set explicitly.
func BindToggles(flagSet *pflag.FlagSet, definitions []ToggleDefinition) *ToggleBindings {
	bindings := &ToggleBindings{flagSet: flagSet, values: make(map[string]*bool, len(definitions))}
	for _, definition := range definitions {
		if len(definition.Name) == 0 {
			continue
		}
		target := new(bool)
		AddToggleFlag(flagSet, target, definition.Name, definition.Shorthand, definition.DefaultValue, definition.Usage)
		bindings.names = append(bindings.names, definition.Name)
		bindings.values[definition.Name] = target
	}
	return bindings
}

// Value reports the current value of the named toggle and whether it is bound.
func (bindings *ToggleBindings) Value(name string) (bool, bool) {
	if bindings == nil {
		return false, false
	}
	target, exists := bindings.values[name]
	if !exists {
		return false, false
	}
	return *target, true
}

// Changed returns the values of toggles explicitly set on the command line, keyed by flag name.
func (bindings *ToggleBindings) Changed() map[string]bool {
	changedValues := map[string]bool{}
	if bindings == nil || bindings.flagSet == nil {
		return changedValues
	}
	for _, name := range bindings.names {
		if bindings.flagSet.Changed(name) {
			changedValues[name] = *bindings.values[name]
		}
	}
	return changedValues
}

// AddToggleFlag registers a boolean toggle flag that accepts yes/no style values.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	toggleValue := newToggleFlagValue(defaultValue, target)
	flagSet.VarP(toggleValue, name, shorthand, usage)

	flag := flagSet.Lookup(name)
	if flag == nil {
		return
	}
	flag.NoOptDefVal = toggleTrueCanonicalValue
	flag.Usage = formatToggleUsage(usage, defaultValue)

	registerToggleFlag(name, shorthand)
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleArgumentFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleArgumentTruePlaceholderConstant
	}
	trimmed := strings.TrimSpace(description)
	if len(trimmed) == 0 {
		return fmt.Sprintf(toggleBareUsageTemplateConstant, placeholder)
	}
	return fmt.Sprintf(toggleUsageTemplateConstant, placeholder, trimmed)
}

// NormalizeToggleArguments rewrites toggle flag arguments so "--flag value" becomes "--flag=value" before parsing.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); {
		current := arguments[index]
		if current == toggleLongPrefixConstant {
			normalized = append(normalized, arguments[index:]...)
			break
		}

		flagName, hasAssignment, isLong := splitFlagArgument(current)
		if !isToggleArgument(flagName, isLong) || hasAssignment || index+1 >= len(arguments) || !isToggleLiteral(arguments[index+1]) {
			normalized = append(normalized, current)
			index++
			continue
		}

		normalized = append(normalized, current+toggleAssignmentConstant+arguments[index+1])
		index += 2
	}

	return normalized
}

func splitFlagArgument(argument string) (string, bool, bool) {
	isLong := strings.HasPrefix(argument, toggleLongPrefixConstant)
	trimmed := strings.TrimPrefix(argument, toggleLongPrefixConstant)
	if !isLong {
		if !strings.HasPrefix(argument, toggleShortPrefixConstant) {
			return "", false, false
		}
		trimmed = strings.TrimPrefix(argument, toggleShortPrefixConstant)
	}
	name, _, hasAssignment := strings.Cut(trimmed, toggleAssignmentConstant)
	return name, hasAssignment, isLong
}

func isToggleArgument(flagName string, isLong bool) bool {
	if len(flagName) == 0 {
		return false
	}
	toggleFlagRegistryMutex.RLock()
	defer toggleFlagRegistryMutex.RUnlock()
	if isLong {
		_, exists := toggleFlagNames[flagName]
		return exists
	}
	if len(flagName) != 1 {
		return false
	}
	_, exists := toggleFlagShorthands[flagName]
	return exists
}

func isToggleLiteral(value string) bool {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	if _, isTrue := trueLiteralSet[normalizedValue]; isTrue {
		return true
	}
	_, isFalse := falseLiteralSet[normalizedValue]
	return isFalse
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func newToggleFlagValue(defaultValue bool, target *bool) *toggleFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleFlagValue{currentValue: defaultValue, target: target}
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}

	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || !value.currentValue {
		return toggleFalseCanonicalValue
	}
	return toggleTrueCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return toggleValueTypeConstant
}

func parseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	if _, isTrue := trueLiteralSet[normalizedValue]; isTrue {
		return true, nil
	}
	if _, isFalse := falseLiteralSet[normalizedValue]; isFalse {
		return false, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
}

func registerToggleFlag(name string, shorthand string) {
	toggleFlagRegistryMutex.Lock()
	defer toggleFlagRegistryMutex.Unlock()
	toggleFlagNames[name] = struct{}{}
	if len(shorthand) > 0 {
		toggleFlagShorthands[shorthand] = struct{}{}
	}
}
