package repos

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/temirov/gidx/internal/catalog"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	entryLineTemplateConstant         = "  %-28s %-8s %s%s\n"
	entryFlagsWrapperTemplateConstant = " [%s]"
	entryFlagSeparatorConstant        = ","
	entryFlagDirtyConstant            = "dirty"
	entryFlagStagedConstant           = "staged"
	entryFlagUntrackedConstant        = "untracked"
	entryFlagUnpushedConstant         = "unpushed"
	entryFlagOrphanConstant           = "orphan"
	entryFlagBareConstant             = "bare"
	entryFlagLostConstant             = "lost"
	entryFlagCleanConstant            = "clean"

	detailHeaderTemplateConstant      = "  %s (%s)\n"
	detailFieldTemplateConstant       = "    %s: %s\n"
	detailPathFieldNameConstant       = "path"
	detailStateFieldNameConstant      = "state"
	detailBranchFieldNameConstant     = "branch"
	detailTreeFieldNameConstant       = "tree"
	detailTrackingFieldNameConstant   = "tracking"
	detailRemoteFieldNameConstant     = "remote"
	detailOwnershipFieldNameConstant  = "ownership"
	detailIntentionFieldNameConstant  = "intention"
	detailCategoryFieldNameConstant   = "category"
	detailManagedByFieldNameConstant  = "managed by"
	detailTagsFieldNameConstant       = "tags"
	detailProjectFieldNameConstant    = "project"
	detailRoleFieldNameConstant       = "role"
	detailBranchesFieldNameConstant   = "branches"
	detailLastCommitFieldNameConstant = "last commit"
	detailVerifiedFieldNameConstant   = "last verified"
	detailFirstSeenFieldNameConstant  = "first seen"
	detailPermissionFieldNameConstant = "permission"
	detailBranchPairTemplateConstant  = "%s / %s"
	detailTrackingTemplateConstant    = "ahead %d, behind %d"
	detailRemoteTemplateConstant      = "%s → %s"
	detailBranchCountTemplateConstant = "%d (%d stale)"
	detailTimestampLayoutConstant     = "2006-01-02 15:04"
	detailUnknownBranchNameConstant   = "?"
	detailValueSeparatorConstant      = ", "
	detailPermissionTemplateConstant  = "%s (interactive), %s (automated)"
)

// entryFlags collects the short state markers rendered beside an entry line.
func entryFlags(entry catalog.Entry) []string {
	flags := make([]string, 0, 4)
	if entry.State == catalog.StateLost {
		flags = append(flags, entryFlagLostConstant)
	}
	if entry.Dirty {
		flags = append(flags, entryFlagDirtyConstant)
	}
	if entry.AheadCount > 0 {
		flags = append(flags, entryFlagUnpushedConstant)
	}
	if !entry.HasRemotes() {
		flags = append(flags, entryFlagOrphanConstant)
	}
	if entry.IsBare {
		flags = append(flags, entryFlagBareConstant)
	}
	return flags
}

// renderEntryLine writes the one-line list representation of an entry.
func renderEntryLine(writer io.Writer, entry catalog.Entry, homeExpander *pathutils.HomeExpander) {
	flagSuffix := ""
	if flags := entryFlags(entry); len(flags) > 0 {
		flagSuffix = fmt.Sprintf(entryFlagsWrapperTemplateConstant, strings.Join(flags, entryFlagSeparatorConstant))
	}
	fmt.Fprintf(writer, entryLineTemplateConstant, entry.Name, entry.Freshness, homeExpander.Contract(entry.Path), flagSuffix)
}

// renderEntryStatus writes the multi-line status block shared by the status
// and info commands. Info additionally renders classification metadata and
// bookkeeping timestamps.
func renderEntryStatus(writer io.Writer, entry catalog.Entry, homeExpander *pathutils.HomeExpander, detailed bool) {
	fmt.Fprintf(writer, detailHeaderTemplateConstant, entry.Name, entry.Freshness)
	fmt.Fprintf(writer, detailFieldTemplateConstant, detailPathFieldNameConstant, homeExpander.Contract(entry.Path))
	fmt.Fprintf(writer, detailFieldTemplateConstant, detailStateFieldNameConstant, string(entry.State))

	if len(entry.CurrentBranch) > 0 || len(entry.DefaultBranch) > 0 {
		currentBranch := entry.CurrentBranch
		if len(currentBranch) == 0 {
			currentBranch = detailUnknownBranchNameConstant
		}
		defaultBranch := entry.DefaultBranch
		if len(defaultBranch) == 0 {
			defaultBranch = detailUnknownBranchNameConstant
		}
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailBranchFieldNameConstant, fmt.Sprintf(detailBranchPairTemplateConstant, currentBranch, defaultBranch))
	}

	fmt.Fprintf(writer, detailFieldTemplateConstant, detailTreeFieldNameConstant, renderWorktreeFlags(entry))

	if entry.AheadCount > 0 || entry.BehindCount > 0 {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailTrackingFieldNameConstant, fmt.Sprintf(detailTrackingTemplateConstant, entry.AheadCount, entry.BehindCount))
	}

	for _, remote := range entry.Remotes {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailRemoteFieldNameConstant, fmt.Sprintf(detailRemoteTemplateConstant, remote.Name, remote.URL))
	}

	if !detailed {
		return
	}

	if entry.BranchCount > 0 {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailBranchesFieldNameConstant, fmt.Sprintf(detailBranchCountTemplateConstant, entry.BranchCount, entry.StaleBranchCount))
	}
	if !entry.Ownership.IsZero() {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailOwnershipFieldNameConstant, entry.Ownership.String())
	}
	if len(entry.Intention) > 0 {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailIntentionFieldNameConstant, string(entry.Intention))
	}
	if len(entry.Category) > 0 {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailCategoryFieldNameConstant, string(entry.Category))
	}
	if len(entry.ManagedBy) > 0 {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailManagedByFieldNameConstant, entry.ManagedBy)
	}
	if len(entry.Tags) > 0 {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailTagsFieldNameConstant, strings.Join(entry.Tags, detailValueSeparatorConstant))
	}
	if len(entry.Project) > 0 {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailProjectFieldNameConstant, entry.Project)
	}
	if len(entry.Role) > 0 {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailRoleFieldNameConstant, entry.Role)
	}
	if entry.LastCommit != nil {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailLastCommitFieldNameConstant, formatTimestamp(*entry.LastCommit))
	}
	if entry.LastVerified != nil {
		fmt.Fprintf(writer, detailFieldTemplateConstant, detailVerifiedFieldNameConstant, formatTimestamp(*entry.LastVerified))
	}
	fmt.Fprintf(writer, detailFieldTemplateConstant, detailFirstSeenFieldNameConstant, formatTimestamp(entry.FirstSeen))
}

func renderWorktreeFlags(entry catalog.Entry) string {
	flags := make([]string, 0, 3)
	if entry.Dirty {
		flags = append(flags, entryFlagDirtyConstant)
	}
	if entry.Staged {
		flags = append(flags, entryFlagStagedConstant)
	}
	if entry.Untracked {
		flags = append(flags, entryFlagUntrackedConstant)
	}
	if len(flags) == 0 {
		flags = append(flags, entryFlagCleanConstant)
	}
	return strings.Join(flags, detailValueSeparatorConstant)
}

func formatTimestamp(value time.Time) string {
	return value.Local().Format(detailTimestampLayoutConstant)
}
