package repos

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gidx/internal/output"
	"github.com/temirov/gidx/internal/permission"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	permissionCommandUseConstant      = "permission <path>"
	permissionCommandShortDescription = "Show the effective permission level for a path"
	permissionCommandLongDescription  = "permission resolves the difficulty level that applies to the given path under the selected execution context and lists the operation classes that level allows."

	permissionContextFlagName        = "context"
	permissionContextFlagDescription = "Execution context to evaluate: interactive or automated"
	permissionContextInteractive     = "interactive"
	permissionContextAutomated       = "automated"
	unknownContextTemplateConstant   = "unknown execution context %q"

	permissionLevelTemplateConstant   = "  %s: %s\n"
	permissionAllowedTemplateConstant = "  allows: %s\n"
	permissionNoneAllowedConstant     = "  allows: nothing\n"
	permissionClassSeparatorConstant  = ", "
)

type permissionReport struct {
	Path             string                      `json:"path"`
	Context          string                      `json:"context"`
	Level            permission.Level            `json:"level"`
	AllowedClasses   []permission.OperationClass `json:"allowed_operations"`
	LevelDisplayName string                      `json:"level_display_name"`
}

// PermissionCommandBuilder assembles the permission cobra command with configurable dependencies.
type PermissionCommandBuilder struct {
	OutputFormatProvider OutputFormatProvider
	GatesProvider        GatesProvider
	CatModeProvider      CatModeProvider
	HomeExpander         *pathutils.HomeExpander
}

// Build constructs the cobra command evaluating permission gates.
func (builder *PermissionCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   permissionCommandUseConstant,
		Short: permissionCommandShortDescription,
		Long:  permissionCommandLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}
	command.Flags().String(permissionContextFlagName, permissionContextInteractive, permissionContextFlagDescription)
	return command, nil
}

func (builder *PermissionCommandBuilder) run(command *cobra.Command, arguments []string) error {
	interactiveGate, automatedGate, gatesError := resolveGates(builder.GatesProvider)
	if gatesError != nil {
		return gatesError
	}

	contextValue, _ := command.Flags().GetString(permissionContextFlagName)
	var gate *permission.Gate
	switch contextValue {
	case permissionContextInteractive:
		gate = interactiveGate
	case permissionContextAutomated:
		gate = automatedGate
	default:
		return fmt.Errorf(unknownContextTemplateConstant, contextValue)
	}

	homeExpander := resolveHomeExpander(builder.HomeExpander)
	evaluatedPath := homeExpander.Expand(arguments[0])
	if absolutePath, absoluteError := filepath.Abs(evaluatedPath); absoluteError == nil {
		evaluatedPath = absolutePath
	}

	effectiveLevel := gate.EffectiveLevel(evaluatedPath)
	allowedClasses := make([]permission.OperationClass, 0, len(permission.OperationClasses()))
	for _, operationClass := range permission.OperationClasses() {
		if effectiveLevel.Allows(operationClass.RequiredLevel()) {
			allowedClasses = append(allowedClasses, operationClass)
		}
	}

	catMode := resolveCatMode(builder.CatModeProvider)
	writer := command.OutOrStdout()
	if resolveOutputFormat(builder.OutputFormatProvider) == output.FormatJSON {
		return output.WriteJSON(writer, permissionReport{
			Path:             evaluatedPath,
			Context:          contextValue,
			Level:            effectiveLevel,
			AllowedClasses:   allowedClasses,
			LevelDisplayName: effectiveLevel.DisplayName(catMode),
		})
	}

	fmt.Fprintf(writer, permissionLevelTemplateConstant, contextValue, effectiveLevel.DisplayName(catMode))
	if len(allowedClasses) == 0 {
		fmt.Fprint(writer, permissionNoneAllowedConstant)
		return nil
	}
	classNames := make([]string, 0, len(allowedClasses))
	for _, operationClass := range allowedClasses {
		classNames = append(classNames, string(operationClass))
	}
	fmt.Fprintf(writer, permissionAllowedTemplateConstant, strings.Join(classNames, permissionClassSeparatorConstant))
	return nil
}
