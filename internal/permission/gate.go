package permission

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"

	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	deniedErrorTemplateConstant          = "operation blocked: %s requires difficulty '%s', current is '%s'"
	invalidOverrideErrorTemplateConstant = "invalid permission override pattern %q: %s"
	unknownLevelErrorTemplateConstant    = "unknown difficulty level %q"
)

// ErrDefaultLevelNotConfigured indicates the gate was created without a valid default level.
var ErrDefaultLevelNotConfigured = errors.New("default difficulty level not configured")

// Override binds a path glob to the difficulty level effective beneath it.
type Override struct {
	Pattern string
	Level   Level
}

// DeniedError is a typed refusal carrying the required and effective levels.
type DeniedError struct {
	Operation OperationClass
	Required  Level
	Current   Level
	Path      string
}

// Error describes the refusal.
func (deniedError DeniedError) Error() string {
	return fmt.Sprintf(deniedErrorTemplateConstant, deniedError.Operation, deniedError.Required, deniedError.Current)
}

// InvalidOverrideError reports an override pattern that does not compile.
type InvalidOverrideError struct {
	Pattern string
	Cause   error
}

// Error describes the malformed override.
func (invalidOverride InvalidOverrideError) Error() string {
	return fmt.Sprintf(invalidOverrideErrorTemplateConstant, invalidOverride.Pattern, invalidOverride.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (invalidOverride InvalidOverrideError) Unwrap() error {
	return invalidOverride.Cause
}

type compiledOverride struct {
	matcher glob.Glob
	level   Level
}

// Gate resolves the effective difficulty level for repository paths.
type Gate struct {
	defaultLevel Level
	overrides    []compiledOverride
}

// NewGate compiles the ordered overrides and validates every referenced level.
func NewGate(defaultLevel Level, overrides []Override) (*Gate, error) {
	return NewGateWithHomeExpander(defaultLevel, overrides, pathutils.NewHomeExpander())
}

// NewGateWithHomeExpander constructs a gate with an explicit home expander for
// tilde prefixes in override patterns.
func NewGateWithHomeExpander(defaultLevel Level, overrides []Override, homeExpander *pathutils.HomeExpander) (*Gate, error) {
	if _, known := ParseLevel(string(defaultLevel)); !known {
		return nil, ErrDefaultLevelNotConfigured
	}

	compiledOverrides := make([]compiledOverride, 0, len(overrides))
	for _, override := range overrides {
		if _, known := ParseLevel(string(override.Level)); !known {
			return nil, InvalidOverrideError{Pattern: override.Pattern, Cause: fmt.Errorf(unknownLevelErrorTemplateConstant, override.Level)}
		}

		expandedPattern := homeExpander.Expand(override.Pattern)
		matcher, compileError := glob.Compile(expandedPattern)
		if compileError != nil {
			return nil, InvalidOverrideError{Pattern: override.Pattern, Cause: compileError}
		}
		compiledOverrides = append(compiledOverrides, compiledOverride{matcher: matcher, level: override.Level})
	}

	return &Gate{defaultLevel: defaultLevel, overrides: compiledOverrides}, nil
}

// EffectiveLevel resolves the level for repositoryPath. The first matching
// override wins; without a match the configured default applies.
func (gate *Gate) EffectiveLevel(repositoryPath string) Level {
	for _, override := range gate.overrides {
		if override.matcher.Match(repositoryPath) {
			return override.level
		}
	}
	return gate.defaultLevel
}

// Check permits the operation when the effective level meets the class
// requirement, and returns a DeniedError otherwise.
func (gate *Gate) Check(repositoryPath string, operationClass OperationClass) error {
	effectiveLevel := gate.EffectiveLevel(repositoryPath)
	requiredLevel := operationClass.RequiredLevel()
	if effectiveLevel.Allows(requiredLevel) {
		return nil
	}
	return DeniedError{
		Operation: operationClass,
		Required:  requiredLevel,
		Current:   effectiveLevel,
		Path:      repositoryPath,
	}
}
