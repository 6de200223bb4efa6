package catalog

import (
	"strings"

	"github.com/temirov/gidx/internal/gitrepo"
)

// Filter narrows catalog queries. All set fields are AND-combined; zero
// values leave the corresponding dimension unconstrained.
type Filter struct {
	Dirty        *bool
	Unpushed     *bool
	Orphan       *bool
	Organization string
	Freshness    Freshness
	Ownership    string
	Intention    string
	Category     string
	Tags         []string
	PathPrefix   string
	HasRemote    *bool
	NameContains string
	State        State
	ManagedBy    string
	ShowManaged  *bool
}

// IsEmpty reports whether no filter dimensions are set.
func (filter Filter) IsEmpty() bool {
	return filter.Dirty == nil &&
		filter.Unpushed == nil &&
		filter.Orphan == nil &&
		len(filter.Organization) == 0 &&
		len(filter.Freshness) == 0 &&
		len(filter.Ownership) == 0 &&
		len(filter.Intention) == 0 &&
		len(filter.Category) == 0 &&
		filter.Tags == nil &&
		len(filter.PathPrefix) == 0 &&
		filter.HasRemote == nil &&
		len(filter.NameContains) == 0 &&
		len(filter.State) == 0 &&
		len(filter.ManagedBy) == 0 &&
		filter.ShowManaged == nil
}

// Matches tests an entry against every set filter dimension in memory.
func (filter Filter) Matches(entry Entry) bool {
	if filter.Dirty != nil && entry.Dirty != *filter.Dirty {
		return false
	}
	if filter.Unpushed != nil && *filter.Unpushed && entry.AheadCount == 0 {
		return false
	}
	if filter.Orphan != nil && *filter.Orphan && entry.HasRemotes() {
		return false
	}
	if len(filter.Freshness) > 0 && entry.Freshness != filter.Freshness {
		return false
	}
	if len(filter.PathPrefix) > 0 && !strings.HasPrefix(entry.Path, filter.PathPrefix) {
		return false
	}
	if filter.HasRemote != nil && entry.HasRemotes() != *filter.HasRemote {
		return false
	}
	if len(filter.NameContains) > 0 && !strings.Contains(strings.ToLower(entry.Name), strings.ToLower(filter.NameContains)) {
		return false
	}
	if len(filter.State) > 0 && entry.State != filter.State {
		return false
	}
	if len(filter.Organization) > 0 && !entryMatchesOrganization(entry, filter.Organization) {
		return false
	}
	if len(filter.Ownership) > 0 && !entry.Ownership.MatchesFilter(filter.Ownership) {
		return false
	}
	if len(filter.Intention) > 0 && !matchesEnumValue(string(entry.Intention), filter.Intention) {
		return false
	}
	if len(filter.Category) > 0 && !matchesEnumValue(string(entry.Category), filter.Category) {
		return false
	}
	for _, requiredTag := range filter.Tags {
		if !entry.HasTag(requiredTag) {
			return false
		}
	}
	if len(filter.ManagedBy) > 0 && !strings.EqualFold(entry.ManagedBy, filter.ManagedBy) {
		return false
	}
	if filter.ShowManaged != nil && (len(entry.ManagedBy) > 0) != *filter.ShowManaged {
		return false
	}
	return true
}

// entryMatchesOrganization reports whether any remote URL parses to the
// requested owner, compared case-insensitively.
func entryMatchesOrganization(entry Entry, organization string) bool {
	for _, remote := range entry.Remotes {
		remoteInfo, parseError := gitrepo.ParseRemoteInfo(remote.URL)
		if parseError != nil {
			continue
		}
		if strings.EqualFold(remoteInfo.Organization, organization) {
			return true
		}
	}
	return false
}

// matchesEnumValue compares a classification value with a filter string
// case-insensitively. Unclassified entries never match.
func matchesEnumValue(entryValue string, filterValue string) bool {
	if len(entryValue) == 0 {
		return false
	}
	return strings.EqualFold(entryValue, filterValue)
}
