package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/permission"
)

const (
	listingHeaderTemplateConstant = "[listing] %d repos"
	listingEntryTemplateConstant  = "  %s (%s) %s%s"
	listingFlagsTemplateConstant  = " [%s]"
	listingFlagSeparatorConstant  = ","
	listingNextHintConstant       = "→ next: repo_status <name> | list_repos --dirty"

	statusHeaderTemplateConstant   = "[status] %s (%s)"
	statusPathTemplateConstant     = "  path: %s"
	statusBranchTemplateConstant   = "  branch: %s / %s"
	statusTreeTemplateConstant     = "  tree: %s"
	statusTrackingTemplateConstant = "  tracking: ↑%d ↓%d"
	statusRemoteTemplateConstant   = "  remote: %s → %s"
	statusNextHintConstant         = "→ next: list_repos | freshness_report"

	freshnessHeaderTemplateConstant  = "[freshness] %d repos"
	freshnessActiveTemplateConstant  = "  active:  %d"
	freshnessRecentTemplateConstant  = "  recent:  %d"
	freshnessStaleTemplateConstant   = "  stale:   %d"
	freshnessDormantTemplateConstant = "  dormant: %d"
	freshnessAncientTemplateConstant = "  ancient: %d"
	freshnessNextHintConstant        = "→ next: list_repos --freshness stale | list_repos --dirty"

	scanCompleteTemplateConstant = "[scan_complete] %d discovered, %d indexed in %.1fs"
	scanNextHintConstant         = "→ next: list_repos | freshness_report"

	summaryHeaderTemplateConstant   = "[summary] %d repos"
	summaryDirtyTemplateConstant    = "  dirty: %d"
	summaryUnpushedTemplateConstant = "  unpushed: %d"
	summaryOrphanTemplateConstant   = "  orphan: %d"
	summaryLostTemplateConstant     = "  lost: %d"
	summaryLastScanTemplateConstant = "  last scan: %s"
	summaryTimestampLayoutConstant  = "2006-01-02 15:04"
	summaryNextHintConstant         = "→ next: list_repos --dirty | freshness_report | scan"

	blockedHeaderTemplateConstant = "[blocked] %s requires '%s', current is '%s'"
	blockedElicitationConstant    = "? ask user: increase difficulty level or use per-path override"

	permissionAllowedTemplateConstant = "[permission] %s allowed under '%s' for %s"

	flagDirtyNameConstant     = "dirty"
	flagStagedNameConstant    = "staged"
	flagUntrackedNameConstant = "untracked"
	flagUnpushedNameConstant  = "unpushed"
	flagOrphanNameConstant    = "orphan"
	flagCleanNameConstant     = "clean"

	unknownBranchNameConstant = "?"
	treeFlagSeparatorConstant = ", "
	lineSeparatorConstant     = "\n"
)

// FormatRepoList renders a `[listing]` block: one line per entry with its
// freshness tier, path, and worktree flags.
func FormatRepoList(entries []catalog.Entry) string {
	lines := make([]string, 0, len(entries)+2)
	lines = append(lines, fmt.Sprintf(listingHeaderTemplateConstant, len(entries)))

	for _, entry := range entries {
		flags := make([]string, 0, 3)
		if entry.Dirty {
			flags = append(flags, flagDirtyNameConstant)
		}
		if entry.AheadCount > 0 {
			flags = append(flags, flagUnpushedNameConstant)
		}
		if !entry.HasRemotes() {
			flags = append(flags, flagOrphanNameConstant)
		}
		flagSuffix := ""
		if len(flags) > 0 {
			flagSuffix = fmt.Sprintf(listingFlagsTemplateConstant, strings.Join(flags, listingFlagSeparatorConstant))
		}
		lines = append(lines, fmt.Sprintf(listingEntryTemplateConstant, entry.Name, entry.Freshness, entry.Path, flagSuffix))
	}

	lines = append(lines, listingNextHintConstant)
	return strings.Join(lines, lineSeparatorConstant)
}

// FormatRepoStatus renders a `[status]` block for one entry.
func FormatRepoStatus(entry catalog.Entry) string {
	lines := make([]string, 0, 8)
	lines = append(lines, fmt.Sprintf(statusHeaderTemplateConstant, entry.Name, entry.Freshness))
	lines = append(lines, fmt.Sprintf(statusPathTemplateConstant, entry.Path))

	if len(entry.CurrentBranch) > 0 {
		defaultBranch := entry.DefaultBranch
		if len(defaultBranch) == 0 {
			defaultBranch = unknownBranchNameConstant
		}
		lines = append(lines, fmt.Sprintf(statusBranchTemplateConstant, entry.CurrentBranch, defaultBranch))
	}

	treeFlags := make([]string, 0, 3)
	if entry.Dirty {
		treeFlags = append(treeFlags, flagDirtyNameConstant)
	}
	if entry.Staged {
		treeFlags = append(treeFlags, flagStagedNameConstant)
	}
	if entry.Untracked {
		treeFlags = append(treeFlags, flagUntrackedNameConstant)
	}
	if len(treeFlags) == 0 {
		treeFlags = append(treeFlags, flagCleanNameConstant)
	}
	lines = append(lines, fmt.Sprintf(statusTreeTemplateConstant, strings.Join(treeFlags, treeFlagSeparatorConstant)))

	if entry.AheadCount > 0 || entry.BehindCount > 0 {
		lines = append(lines, fmt.Sprintf(statusTrackingTemplateConstant, entry.AheadCount, entry.BehindCount))
	}
	for _, remote := range entry.Remotes {
		lines = append(lines, fmt.Sprintf(statusRemoteTemplateConstant, remote.Name, remote.URL))
	}

	lines = append(lines, statusNextHintConstant)
	return strings.Join(lines, lineSeparatorConstant)
}

// FormatFreshness renders a `[freshness]` block with per-tier counts.
func FormatFreshness(freshnessSummary index.FreshnessSummary) string {
	totalCount := freshnessSummary.Active + freshnessSummary.Recent + freshnessSummary.Stale +
		freshnessSummary.Dormant + freshnessSummary.Ancient
	lines := []string{
		fmt.Sprintf(freshnessHeaderTemplateConstant, totalCount),
		fmt.Sprintf(freshnessActiveTemplateConstant, freshnessSummary.Active),
		fmt.Sprintf(freshnessRecentTemplateConstant, freshnessSummary.Recent),
		fmt.Sprintf(freshnessStaleTemplateConstant, freshnessSummary.Stale),
		fmt.Sprintf(freshnessDormantTemplateConstant, freshnessSummary.Dormant),
		fmt.Sprintf(freshnessAncientTemplateConstant, freshnessSummary.Ancient),
		freshnessNextHintConstant,
	}
	return strings.Join(lines, lineSeparatorConstant)
}

// FormatScanComplete renders a `[scan_complete]` block.
func FormatScanComplete(discoveredCount int, indexedCount int, duration time.Duration) string {
	lines := []string{
		fmt.Sprintf(scanCompleteTemplateConstant, discoveredCount, indexedCount, duration.Seconds()),
		scanNextHintConstant,
	}
	return strings.Join(lines, lineSeparatorConstant)
}

// FormatSummary renders a `[summary]` block of catalogue-wide counts.
func FormatSummary(catalogueSummary index.Summary) string {
	lines := []string{
		fmt.Sprintf(summaryHeaderTemplateConstant, catalogueSummary.TotalCount),
		fmt.Sprintf(summaryDirtyTemplateConstant, catalogueSummary.DirtyCount),
		fmt.Sprintf(summaryUnpushedTemplateConstant, catalogueSummary.UnpushedCount),
		fmt.Sprintf(summaryOrphanTemplateConstant, catalogueSummary.OrphanCount),
		fmt.Sprintf(summaryLostTemplateConstant, catalogueSummary.LostCount),
	}
	if catalogueSummary.LastScanTime != nil {
		lines = append(lines, fmt.Sprintf(summaryLastScanTemplateConstant, catalogueSummary.LastScanTime.Local().Format(summaryTimestampLayoutConstant)))
	}
	lines = append(lines, summaryNextHintConstant)
	return strings.Join(lines, lineSeparatorConstant)
}

// FormatBlocked renders a `[blocked]` refusal with an elicitation line asking
// the user to raise the difficulty level.
func FormatBlocked(deniedError permission.DeniedError) string {
	lines := []string{
		fmt.Sprintf(blockedHeaderTemplateConstant, deniedError.Operation, deniedError.Required, deniedError.Current),
		blockedElicitationConstant,
	}
	return strings.Join(lines, lineSeparatorConstant)
}

// FormatPermissionAllowed renders the positive check_permission answer.
func FormatPermissionAllowed(operationClass permission.OperationClass, effectiveLevel permission.Level, repositoryPath string) string {
	return fmt.Sprintf(permissionAllowedTemplateConstant, operationClass, effectiveLevel, repositoryPath)
}
