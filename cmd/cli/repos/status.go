package repos

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gidx/internal/output"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	statusCommandUseConstant      = "status <name-or-path>"
	statusCommandShortDescription = "Show the recorded state of one repository"
	statusCommandLongDescription  = "status resolves a repository by name or path and prints its recorded worktree, branch, and tracking state together with the effective interactive permission level."
)

// StatusCommandBuilder assembles the status cobra command with configurable dependencies.
type StatusCommandBuilder struct {
	StoreProvider        StoreProvider
	OutputFormatProvider OutputFormatProvider
	GatesProvider        GatesProvider
	CatModeProvider      CatModeProvider
	HomeExpander         *pathutils.HomeExpander
}

// Build constructs the cobra command reporting a single repository's state.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   statusCommandUseConstant,
		Short: statusCommandShortDescription,
		Long:  statusCommandLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *StatusCommandBuilder) run(command *cobra.Command, arguments []string) error {
	store, storeError := resolveStore(builder.StoreProvider)
	if storeError != nil {
		return storeError
	}

	homeExpander := resolveHomeExpander(builder.HomeExpander)
	entry, lookupError := requireEntry(command.Context(), store, homeExpander, arguments[0])
	if lookupError != nil {
		return lookupError
	}

	writer := command.OutOrStdout()
	outputFormat := resolveOutputFormat(builder.OutputFormatProvider)
	if outputFormat.IsPathListing() {
		return output.WritePaths(writer, outputFormat, []string{entry.Path})
	}
	if outputFormat == output.FormatJSON {
		return output.WriteJSON(writer, entry)
	}

	renderEntryStatus(writer, *entry, homeExpander, false)

	interactiveGate, _, gatesError := resolveGates(builder.GatesProvider)
	if gatesError != nil {
		return gatesError
	}
	catMode := resolveCatMode(builder.CatModeProvider)
	effectiveLevel := interactiveGate.EffectiveLevel(entry.Path)
	fmt.Fprintf(writer, detailFieldTemplateConstant, detailPermissionFieldNameConstant, effectiveLevel.DisplayName(catMode))
	return nil
}
