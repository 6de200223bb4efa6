package repos

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gidx/internal/output"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	infoCommandUseConstant      = "info <name-or-path>"
	infoCommandShortDescription = "Show every recorded detail of one repository"
	infoCommandLongDescription  = "info resolves a repository by name or path and prints its full catalogue record including classification, tags, bookkeeping timestamps, and permission levels for both execution contexts."
)

// InfoCommandBuilder assembles the info cobra command with configurable dependencies.
type InfoCommandBuilder struct {
	StoreProvider        StoreProvider
	OutputFormatProvider OutputFormatProvider
	GatesProvider        GatesProvider
	CatModeProvider      CatModeProvider
	HomeExpander         *pathutils.HomeExpander
}

// Build constructs the cobra command reporting a repository's full record.
func (builder *InfoCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   infoCommandUseConstant,
		Short: infoCommandShortDescription,
		Long:  infoCommandLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *InfoCommandBuilder) run(command *cobra.Command, arguments []string) error {
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

	renderEntryStatus(writer, *entry, homeExpander, true)

	interactiveGate, automatedGate, gatesError := resolveGates(builder.GatesProvider)
	if gatesError != nil {
		return gatesError
	}
	catMode := resolveCatMode(builder.CatModeProvider)
	fmt.Fprintf(writer, detailFieldTemplateConstant, detailPermissionFieldNameConstant, fmt.Sprintf(
		detailPermissionTemplateConstant,
		interactiveGate.EffectiveLevel(entry.Path).DisplayName(catMode),
		automatedGate.EffectiveLevel(entry.Path).DisplayName(catMode),
	))
	return nil
}
