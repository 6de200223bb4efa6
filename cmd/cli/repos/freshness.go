package repos

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/output"
)

const (
	freshnessCommandNameConstant     = "freshness"
	freshnessCommandShortDescription = "Report how many repositories fall into each freshness tier"
	freshnessCommandLongDescription  = "freshness counts the catalogued repositories in every freshness tier, from active (touched within a week) to ancient (untouched for over two years)."

	freshnessTierTemplateConstant = "  %-8s %d\n"
)

// FreshnessCommandBuilder assembles the freshness cobra command with configurable dependencies.
type FreshnessCommandBuilder struct {
	StoreProvider        StoreProvider
	OutputFormatProvider OutputFormatProvider
}

// Build constructs the cobra command summarizing freshness tiers.
func (builder *FreshnessCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   freshnessCommandNameConstant,
		Short: freshnessCommandShortDescription,
		Long:  freshnessCommandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *FreshnessCommandBuilder) run(command *cobra.Command, _ []string) error {
	store, storeError := resolveStore(builder.StoreProvider)
	if storeError != nil {
		return storeError
	}

	freshnessSummary, summaryError := store.SummarizeFreshness(command.Context())
	if summaryError != nil {
		return summaryError
	}

	writer := command.OutOrStdout()
	if resolveOutputFormat(builder.OutputFormatProvider) == output.FormatJSON {
		return output.WriteJSON(writer, freshnessSummary)
	}

	for _, tier := range catalog.FreshnessTiers() {
		fmt.Fprintf(writer, freshnessTierTemplateConstant, tier, freshnessTierCount(freshnessSummary, tier))
	}
	return nil
}

func freshnessTierCount(freshnessSummary index.FreshnessSummary, tier catalog.Freshness) int {
	switch tier {
	case catalog.FreshnessActive:
		return freshnessSummary.Active
	case catalog.FreshnessRecent:
		return freshnessSummary.Recent
	case catalog.FreshnessStale:
		return freshnessSummary.Stale
	case catalog.FreshnessDormant:
		return freshnessSummary.Dormant
	case catalog.FreshnessAncient:
		return freshnessSummary.Ancient
	default:
		return 0
	}
}
