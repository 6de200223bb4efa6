package classify

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/output"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	commandNameConstant     = "classify"
	commandShortDescription = "Summarize, reapply, or suggest repository classifications"
	commandLongDescription  = "classify reports how catalogued repositories are classified, re-runs the configured rules across the whole catalogue, or proposes rules for clusters of unclassified repositories."

	flagReapplyName        = "reapply"
	flagReapplyDescription = "Re-run classification rules on every catalogued repository"
	flagSuggestName        = "suggest"
	flagSuggestDescription = "Suggest classification rules for clusters of unclassified repositories"

	errorMissingStoreProvider = "catalogue store provider not configured"

	summaryTotalLineTemplateConstant    = "  classify: %d repos total\n"
	summaryManagedHeadingConstant       = "  managed repos:\n"
	summaryManagedLineTemplateConstant  = "    %4d %s\n"
	summaryUnclassifiedTemplateConstant = "  note: %d repos unclassified\n"
	summarySuggestHintConstant          = "  hint: run gidx classify --suggest to see suggested rules\n"

	reapplyResultTemplateConstant = "  classify: re-classified %d repos, %d updated\n"

	suggestEmptyResultConstant            = "  suggest: no clusters found to suggest rules for\n"
	suggestHeadingTemplateConstant        = "  suggest: found %d potential classification rules:\n\n"
	suggestClusterCommentTemplateConstant = "# %d repos under %s\n"
	suggestRuleMatchOpeningConstant       = "- match:\n"
	suggestRulePathTemplateConstant       = "    path: %q\n"
	suggestRuleApplyOpeningConstant       = "  apply:\n"
	suggestRuleOwnershipLineConstant      = "    ownership: third-party\n"
	suggestRuleIntentionLineConstant      = "    intention: dependency\n"
	suggestRuleManagerLineConstant        = "    managed_by: TODO\n\n"
	suggestCopyHintConstant               = "  hint: copy the rules above into your config.yaml\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// StoreProvider supplies the opened catalogue store.
type StoreProvider func() (*index.Store, error)

// RulesProvider supplies the configured classification rules.
type RulesProvider func() []Rule

// OutputFormatProvider supplies the format selected for command output.
type OutputFormatProvider func() output.Format

// CommandBuilder assembles the classify cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider       LoggerProvider
	StoreProvider        StoreProvider
	RulesProvider        RulesProvider
	OutputFormatProvider OutputFormatProvider
	HomeExpander         *pathutils.HomeExpander
}

// Build constructs the cobra command for classification workflows.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagReapplyName, false, flagReapplyDescription)
	command.Flags().Bool(flagSuggestName, false, flagSuggestDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	suggestFlag, _ := command.Flags().GetBool(flagSuggestName)
	reapplyFlag, _ := command.Flags().GetBool(flagReapplyName)

	store, storeError := builder.resolveStore()
	if storeError != nil {
		return storeError
	}

	switch {
	case suggestFlag:
		return builder.runSuggest(command, store)
	case reapplyFlag:
		return builder.runReapply(command, store)
	default:
		return builder.runSummary(command, store)
	}
}

type classificationSummaryDocument struct {
	TotalCount        int            `json:"total"`
	ManagedCounts     map[string]int `json:"managed"`
	UnclassifiedCount int            `json:"unclassified"`
}

func (builder *CommandBuilder) runSummary(command *cobra.Command, store *index.Store) error {
	entries, listError := store.All(command.Context())
	if listError != nil {
		return listError
	}

	managedCounts := map[string]int{}
	unclassifiedCount := 0
	for _, entry := range entries {
		switch {
		case len(entry.ManagedBy) > 0:
			managedCounts[entry.ManagedBy]++
		case entry.Ownership.IsZero() && len(entry.Intention) == 0:
			unclassifiedCount++
		}
	}

	writer := command.OutOrStdout()
	if builder.resolveOutputFormat() == output.FormatJSON {
		return output.WriteJSON(writer, classificationSummaryDocument{
			TotalCount:        len(entries),
			ManagedCounts:     managedCounts,
			UnclassifiedCount: unclassifiedCount,
		})
	}

	fmt.Fprintf(writer, summaryTotalLineTemplateConstant, len(entries))
	if len(managedCounts) > 0 {
		fmt.Fprint(writer, summaryManagedHeadingConstant)
		for _, toolCount := range sortedManagedCounts(managedCounts) {
			fmt.Fprintf(writer, summaryManagedLineTemplateConstant, toolCount.count, toolCount.tool)
		}
	}
	if unclassifiedCount > 0 {
		fmt.Fprintf(writer, summaryUnclassifiedTemplateConstant, unclassifiedCount)
		fmt.Fprint(writer, summarySuggestHintConstant)
	}
	return nil
}

type reapplyResultDocument struct {
	UpdatedCount int `json:"updated"`
}

func (builder *CommandBuilder) runReapply(command *cobra.Command, store *index.Store) error {
	classifier, classifierError := builder.resolveClassifier()
	if classifierError != nil {
		return classifierError
	}

	entries, listError := store.All(command.Context())
	if listError != nil {
		return listError
	}

	processedCount := 0
	updatedCount := 0
	for _, entry := range entries {
		if entry.State == catalog.StateLost {
			continue
		}
		processedCount++

		previousManager := entry.ManagedBy
		previousOwnership := entry.Ownership
		previousIntention := entry.Intention
		previousCategory := entry.Category
		previousTagCount := len(entry.Tags)

		ResetClassification(&entry)
		classifier.Apply(&entry)

		unchanged := entry.ManagedBy == previousManager &&
			entry.Ownership == previousOwnership &&
			entry.Intention == previousIntention &&
			entry.Category == previousCategory &&
			len(entry.Tags) == previousTagCount
		if unchanged {
			continue
		}

		if _, upsertError := store.Upsert(command.Context(), entry); upsertError != nil {
			return upsertError
		}
		updatedCount++
	}

	builder.resolveLogger().Debug("Reclassified catalogue",
		zap.Int("processed_count", processedCount),
		zap.Int("updated_count", updatedCount),
	)

	writer := command.OutOrStdout()
	if builder.resolveOutputFormat() == output.FormatJSON {
		return output.WriteJSON(writer, reapplyResultDocument{UpdatedCount: updatedCount})
	}
	fmt.Fprintf(writer, reapplyResultTemplateConstant, processedCount, updatedCount)
	return nil
}

type suggestionDocument struct {
	PathPattern     string `json:"path_pattern"`
	RepositoryCount int    `json:"repo_count"`
}

func (builder *CommandBuilder) runSuggest(command *cobra.Command, store *index.Store) error {
	entries, listError := store.All(command.Context())
	if listError != nil {
		return listError
	}

	suggestions := SuggestRules(entries)
	writer := command.OutOrStdout()

	if builder.resolveOutputFormat() == output.FormatJSON {
		suggestionDocuments := make([]suggestionDocument, 0, len(suggestions))
		for _, suggestion := range suggestions {
			suggestionDocuments = append(suggestionDocuments, suggestionDocument{
				PathPattern:     suggestion.PathPattern(),
				RepositoryCount: suggestion.RepositoryCount,
			})
		}
		return output.WriteJSON(writer, suggestionDocuments)
	}

	if len(suggestions) == 0 {
		fmt.Fprint(writer, suggestEmptyResultConstant)
		return nil
	}

	homeExpander := builder.resolveHomeExpander()
	fmt.Fprintf(writer, suggestHeadingTemplateConstant, len(suggestions))
	for _, suggestion := range suggestions {
		contractedDirectory := homeExpander.Contract(suggestion.Directory)
		fmt.Fprintf(writer, suggestClusterCommentTemplateConstant, suggestion.RepositoryCount, contractedDirectory)
		fmt.Fprint(writer, suggestRuleMatchOpeningConstant)
		fmt.Fprintf(writer, suggestRulePathTemplateConstant, contractedDirectory+suggestedPatternSuffixConstant)
		fmt.Fprint(writer, suggestRuleApplyOpeningConstant)
		fmt.Fprint(writer, suggestRuleOwnershipLineConstant)
		fmt.Fprint(writer, suggestRuleIntentionLineConstant)
		fmt.Fprint(writer, suggestRuleManagerLineConstant)
	}
	fmt.Fprint(writer, suggestCopyHintConstant)
	return nil
}

type managedToolCount struct {
	tool  string
	count int
}

func sortedManagedCounts(managedCounts map[string]int) []managedToolCount {
	orderedCounts := make([]managedToolCount, 0, len(managedCounts))
	for tool, count := range managedCounts {
		orderedCounts = append(orderedCounts, managedToolCount{tool: tool, count: count})
	}
	sort.Slice(orderedCounts, func(firstIndex, secondIndex int) bool {
		if orderedCounts[firstIndex].count != orderedCounts[secondIndex].count {
			return orderedCounts[firstIndex].count > orderedCounts[secondIndex].count
		}
		return orderedCounts[firstIndex].tool < orderedCounts[secondIndex].tool
	})
	return orderedCounts
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveStore() (*index.Store, error) {
	if builder.StoreProvider == nil {
		return nil, errors.New(errorMissingStoreProvider)
	}
	return builder.StoreProvider()
}

func (builder *CommandBuilder) resolveOutputFormat() output.Format {
	if builder.OutputFormatProvider == nil {
		return output.FormatHuman
	}
	resolvedFormat := builder.OutputFormatProvider()
	if len(resolvedFormat) == 0 {
		return output.FormatHuman
	}
	return resolvedFormat
}

func (builder *CommandBuilder) resolveHomeExpander() *pathutils.HomeExpander {
	if builder.HomeExpander == nil {
		return pathutils.NewHomeExpander()
	}
	return builder.HomeExpander
}

func (builder *CommandBuilder) resolveClassifier() (*Classifier, error) {
	var configuredRules []Rule
	if builder.RulesProvider != nil {
		configuredRules = builder.RulesProvider()
	}
	compiledRules, compileError := CompileRulesWithHomeExpander(configuredRules, builder.resolveHomeExpander())
	if compileError != nil {
		return nil, compileError
	}
	return NewClassifier(compiledRules), nil
}
