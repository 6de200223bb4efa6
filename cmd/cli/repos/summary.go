package repos

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gidx/internal/output"
)

const (
	summaryCommandNameConstant     = "summary"
	summaryCommandShortDescription = "Show catalogue-wide statistics"
	summaryCommandLongDescription  = "summary prints counts of catalogued repositories by worktree state and freshness, plus the time and roots of the most recent scan."

	summaryCountTemplateConstant     = "  %-10s %d\n"
	summaryTotalLabelConstant        = "repos"
	summaryDirtyLabelConstant        = "dirty"
	summaryUnpushedLabelConstant     = "unpushed"
	summaryOrphanLabelConstant       = "orphan"
	summaryLostLabelConstant         = "lost"
	summaryManagedLabelConstant      = "managed"
	summaryFreshnessTemplateConstant = "  freshness  %d active, %d recent, %d stale, %d dormant, %d ancient\n"
	summaryLastScanTemplateConstant  = "  last scan  %s (%s)\n"
	summaryNeverScannedConstant      = "  last scan  never\n"
	summaryTimestampLayoutConstant   = "2006-01-02 15:04"
	summaryRootSeparatorConstant     = ", "
)

// SummaryCommandBuilder assembles the summary cobra command with configurable dependencies.
type SummaryCommandBuilder struct {
	StoreProvider        StoreProvider
	OutputFormatProvider OutputFormatProvider
}

// Build constructs the cobra command reporting catalogue-wide statistics.
func (builder *SummaryCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   summaryCommandNameConstant,
		Short: summaryCommandShortDescription,
		Long:  summaryCommandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *SummaryCommandBuilder) run(command *cobra.Command, _ []string) error {
	store, storeError := resolveStore(builder.StoreProvider)
	if storeError != nil {
		return storeError
	}

	catalogueSummary, summaryError := store.Summarize(command.Context())
	if summaryError != nil {
		return summaryError
	}

	writer := command.OutOrStdout()
	if resolveOutputFormat(builder.OutputFormatProvider) == output.FormatJSON {
		return output.WriteJSON(writer, catalogueSummary)
	}

	fmt.Fprintf(writer, summaryCountTemplateConstant, summaryTotalLabelConstant, catalogueSummary.TotalCount)
	fmt.Fprintf(writer, summaryCountTemplateConstant, summaryDirtyLabelConstant, catalogueSummary.DirtyCount)
	fmt.Fprintf(writer, summaryCountTemplateConstant, summaryUnpushedLabelConstant, catalogueSummary.UnpushedCount)
	fmt.Fprintf(writer, summaryCountTemplateConstant, summaryOrphanLabelConstant, catalogueSummary.OrphanCount)
	fmt.Fprintf(writer, summaryCountTemplateConstant, summaryLostLabelConstant, catalogueSummary.LostCount)
	fmt.Fprintf(writer, summaryCountTemplateConstant, summaryManagedLabelConstant, catalogueSummary.ManagedCount)
	fmt.Fprintf(
		writer,
		summaryFreshnessTemplateConstant,
		catalogueSummary.Freshness.Active,
		catalogueSummary.Freshness.Recent,
		catalogueSummary.Freshness.Stale,
		catalogueSummary.Freshness.Dormant,
		catalogueSummary.Freshness.Ancient,
	)
	if catalogueSummary.LastScanTime == nil {
		fmt.Fprint(writer, summaryNeverScannedConstant)
		return nil
	}
	fmt.Fprintf(
		writer,
		summaryLastScanTemplateConstant,
		catalogueSummary.LastScanTime.Local().Format(summaryTimestampLayoutConstant),
		strings.Join(catalogueSummary.LastScanRoots, summaryRootSeparatorConstant),
	)
	return nil
}
