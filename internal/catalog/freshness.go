package catalog

import (
	"strings"
	"time"
)

// Freshness buckets a repository by the age of its most recent commit.
type Freshness string

// Freshness tiers ordered from most to least recently touched.
const (
	FreshnessActive  Freshness = "active"
	FreshnessRecent  Freshness = "recent"
	FreshnessStale   Freshness = "stale"
	FreshnessDormant Freshness = "dormant"
	FreshnessAncient Freshness = "ancient"
)

// Tier boundaries measured in whole days since the last commit.
const (
	activeWindowDaysConstant  = 7
	recentWindowDaysConstant  = 30
	staleWindowDaysConstant   = 90
	dormantWindowDaysConstant = 365
)

// FreshnessTiers lists the tiers in display order.
func FreshnessTiers() []Freshness {
	return []Freshness{FreshnessActive, FreshnessRecent, FreshnessStale, FreshnessDormant, FreshnessAncient}
}

// ParseFreshness resolves a textual freshness tier, reporting whether the value is known.
func ParseFreshness(value string) (Freshness, bool) {
	switch Freshness(strings.ToLower(strings.TrimSpace(value))) {
	case FreshnessActive:
		return FreshnessActive, true
	case FreshnessRecent:
		return FreshnessRecent, true
	case FreshnessStale:
		return FreshnessStale, true
	case FreshnessDormant:
		return FreshnessDormant, true
	case FreshnessAncient:
		return FreshnessAncient, true
	default:
		return Freshness(""), false
	}
}

// FreshnessFromCommitTime buckets a last-commit timestamp relative to the
// reference time. A missing timestamp maps to the ancient tier.
func FreshnessFromCommitTime(lastCommit *time.Time, referenceTime time.Time) Freshness {
	if lastCommit == nil {
		return FreshnessAncient
	}

	elapsedDays := int(referenceTime.Sub(*lastCommit).Hours() / 24)
	switch {
	case elapsedDays <= activeWindowDaysConstant:
		return FreshnessActive
	case elapsedDays <= recentWindowDaysConstant:
		return FreshnessRecent
	case elapsedDays <= staleWindowDaysConstant:
		return FreshnessStale
	case elapsedDays <= dormantWindowDaysConstant:
		return FreshnessDormant
	default:
		return FreshnessAncient
	}
}
