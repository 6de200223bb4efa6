package repos

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/output"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	listCommandNameConstant     = "list"
	listCommandShortDescription = "List catalogued repositories matching the given filters"
	listCommandLongDescription  = "list prints catalogued repositories. Filter flags combine with AND; without flags every active repository is listed."

	flagDirtyName             = "dirty"
	flagDirtyDescription      = "Only repositories with uncommitted changes"
	flagUnpushedName          = "unpushed"
	flagUnpushedDescription   = "Only repositories with commits ahead of their upstream"
	flagOrphanName            = "orphan"
	flagOrphanDescription     = "Only repositories without a configured remote"
	flagLostName              = "lost"
	flagLostDescription       = "Only repositories whose path vanished from disk"
	flagHasRemoteName         = "has-remote"
	flagHasRemoteDescription  = "Require (true) or forbid (false) configured remotes"
	flagTagName               = "tag"
	flagTagDescription        = "Require a tag; repeat to require several"
	flagOrgName               = "org"
	flagOrgDescription        = "Only repositories with a remote under the given org"
	flagOwnershipName         = "ownership"
	flagOwnershipDescription  = "Filter by ownership (personal, work, work:LABEL, community, third-party, local)"
	flagFreshnessName         = "freshness"
	flagFreshnessDescription  = "Filter by freshness tier (active, recent, stale, dormant, ancient)"
	flagStateName             = "state"
	flagStateDescription      = "Filter by lifecycle state (active, lost, timeout)"
	flagPathPrefixName        = "path-prefix"
	flagPathPrefixDescription = "Only repositories under the given path prefix"
	flagNameName              = "name"
	flagNameDescription       = "Only repositories whose name contains the given text"
	flagManagedByName         = "managed-by"
	flagManagedByDescription  = "Only repositories managed by the given tool"
	flagManagedName           = "managed"
	flagManagedDescription    = "Only repositories managed by some tool"
	flagUnmanagedName         = "unmanaged"
	flagUnmanagedDescription  = "Only repositories not managed by any tool"
	flagIntentionName         = "intention"
	flagIntentionDescription  = "Filter by intention classification"
	flagCategoryName          = "category"
	flagCategoryDescription   = "Filter by category classification"

	unknownFreshnessTemplateConstant = "unknown freshness tier %q"
	unknownStateTemplateConstant     = "unknown state %q"

	listCountTemplateConstant = "  %d repos\n"
)

// ListCommandBuilder assembles the list cobra command with configurable dependencies.
type ListCommandBuilder struct {
	StoreProvider        StoreProvider
	OutputFormatProvider OutputFormatProvider
	HomeExpander         *pathutils.HomeExpander
}

// Build constructs the cobra command for filtered catalogue listings.
func (builder *ListCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   listCommandNameConstant,
		Short: listCommandShortDescription,
		Long:  listCommandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagDirtyName, false, flagDirtyDescription)
	command.Flags().Bool(flagUnpushedName, false, flagUnpushedDescription)
	command.Flags().Bool(flagOrphanName, false, flagOrphanDescription)
	command.Flags().Bool(flagLostName, false, flagLostDescription)
	command.Flags().Bool(flagHasRemoteName, false, flagHasRemoteDescription)
	command.Flags().StringArray(flagTagName, nil, flagTagDescription)
	command.Flags().String(flagOrgName, "", flagOrgDescription)
	command.Flags().String(flagOwnershipName, "", flagOwnershipDescription)
	command.Flags().String(flagFreshnessName, "", flagFreshnessDescription)
	command.Flags().String(flagStateName, "", flagStateDescription)
	command.Flags().String(flagPathPrefixName, "", flagPathPrefixDescription)
	command.Flags().String(flagNameName, "", flagNameDescription)
	command.Flags().String(flagManagedByName, "", flagManagedByDescription)
	command.Flags().Bool(flagManagedName, false, flagManagedDescription)
	command.Flags().Bool(flagUnmanagedName, false, flagUnmanagedDescription)
	command.Flags().String(flagIntentionName, "", flagIntentionDescription)
	command.Flags().String(flagCategoryName, "", flagCategoryDescription)

	return command, nil
}

func (builder *ListCommandBuilder) run(command *cobra.Command, _ []string) error {
	filter, filterError := buildFilterFromFlags(command)
	if filterError != nil {
		return filterError
	}

	store, storeError := resolveStore(builder.StoreProvider)
	if storeError != nil {
		return storeError
	}

	entries, listError := store.List(command.Context(), filter)
	if listError != nil {
		return listError
	}

	writer := command.OutOrStdout()
	outputFormat := resolveOutputFormat(builder.OutputFormatProvider)

	if outputFormat.IsPathListing() {
		paths := make([]string, 0, len(entries))
		for _, entry := range entries {
			paths = append(paths, entry.Path)
		}
		return output.WritePaths(writer, outputFormat, paths)
	}
	if outputFormat == output.FormatJSON {
		return output.WriteJSON(writer, entries)
	}

	homeExpander := resolveHomeExpander(builder.HomeExpander)
	for _, entry := range entries {
		renderEntryLine(writer, entry, homeExpander)
	}
	fmt.Fprintf(writer, listCountTemplateConstant, len(entries))
	return nil
}

// buildFilterFromFlags translates the list flag surface into a catalog filter.
// Boolean filters participate only when their flag was set on the command
// line so that --has-remote=false can express "no remotes required".
func buildFilterFromFlags(command *cobra.Command) (catalog.Filter, error) {
	filter := catalog.Filter{}
	flags := command.Flags()

	if flags.Changed(flagDirtyName) {
		dirtyValue, _ := flags.GetBool(flagDirtyName)
		filter.Dirty = &dirtyValue
	}
	if flags.Changed(flagUnpushedName) {
		unpushedValue, _ := flags.GetBool(flagUnpushedName)
		filter.Unpushed = &unpushedValue
	}
	if flags.Changed(flagOrphanName) {
		orphanValue, _ := flags.GetBool(flagOrphanName)
		filter.Orphan = &orphanValue
	}
	if flags.Changed(flagLostName) {
		filter.State = catalog.StateLost
	}
	if flags.Changed(flagHasRemoteName) {
		hasRemoteValue, _ := flags.GetBool(flagHasRemoteName)
		filter.HasRemote = &hasRemoteValue
	}
	if flags.Changed(flagManagedName) {
		managedValue := true
		filter.ShowManaged = &managedValue
	}
	if flags.Changed(flagUnmanagedName) {
		unmanagedValue := false
		filter.ShowManaged = &unmanagedValue
	}

	filter.Tags, _ = flags.GetStringArray(flagTagName)
	filter.Organization, _ = flags.GetString(flagOrgName)
	filter.Ownership, _ = flags.GetString(flagOwnershipName)
	filter.PathPrefix, _ = flags.GetString(flagPathPrefixName)
	filter.NameContains, _ = flags.GetString(flagNameName)
	filter.ManagedBy, _ = flags.GetString(flagManagedByName)
	filter.Intention, _ = flags.GetString(flagIntentionName)
	filter.Category, _ = flags.GetString(flagCategoryName)

	if freshnessValue, _ := flags.GetString(flagFreshnessName); len(freshnessValue) > 0 {
		parsedFreshness, known := catalog.ParseFreshness(freshnessValue)
		if !known {
			return catalog.Filter{}, fmt.Errorf(unknownFreshnessTemplateConstant, freshnessValue)
		}
		filter.Freshness = parsedFreshness
	}
	if stateValue, _ := flags.GetString(flagStateName); len(stateValue) > 0 {
		parsedState, known := catalog.ParseState(stateValue)
		if !known {
			return catalog.Filter{}, fmt.Errorf(unknownStateTemplateConstant, stateValue)
		}
		filter.State = parsedState
	}

	return filter, nil
}
