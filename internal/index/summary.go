package index

import (
	"context"
	"fmt"
	"time"
)

const (
	countEntriesBaseQueryConstant     = "SELECT COUNT(*) FROM repos"
	dirtySummaryConditionConstant     = "dirty = 1"
	unpushedSummaryConditionConstant  = "ahead > 0"
	orphanSummaryConditionConstant    = "id NOT IN (SELECT DISTINCT repo_id FROM remotes)"
	lostSummaryConditionConstant      = "state = 'lost'"
	managedSummaryConditionConstant   = "managed_by IS NOT NULL"
	freshnessSummaryConditionConstant = "freshness = ?"

	summaryErrorTemplateConstant = "summarize catalogue: %w"
)

// FreshnessSummary counts entries per freshness tier.
type FreshnessSummary struct {
	Active  int `json:"active"`
	Recent  int `json:"recent"`
	Stale   int `json:"stale"`
	Dormant int `json:"dormant"`
	Ancient int `json:"ancient"`
}

// Summary aggregates catalogue-wide statistics.
type Summary struct {
	TotalCount    int              `json:"total_repos"`
	DirtyCount    int              `json:"dirty_count"`
	UnpushedCount int              `json:"unpushed_count"`
	OrphanCount   int              `json:"orphan_count"`
	LostCount     int              `json:"lost_count"`
	ManagedCount  int              `json:"managed_count"`
	Freshness     FreshnessSummary `json:"freshness"`
	LastScanTime  *time.Time       `json:"last_scan,omitempty"`
	LastScanRoots []string         `json:"roots"`
}

// Summarize computes catalogue-wide counts plus the most recent scan's
// timestamp and roots.
func (store *Store) Summarize(requestContext context.Context) (Summary, error) {
	summary := Summary{}

	countTargets := []struct {
		condition   string
		destination *int
	}{
		{condition: "", destination: &summary.TotalCount},
		{condition: dirtySummaryConditionConstant, destination: &summary.DirtyCount},
		{condition: unpushedSummaryConditionConstant, destination: &summary.UnpushedCount},
		{condition: orphanSummaryConditionConstant, destination: &summary.OrphanCount},
		{condition: lostSummaryConditionConstant, destination: &summary.LostCount},
		{condition: managedSummaryConditionConstant, destination: &summary.ManagedCount},
	}
	for _, countTarget := range countTargets {
		entryCount, countError := store.countEntries(requestContext, countTarget.condition)
		if countError != nil {
			return Summary{}, countError
		}
		*countTarget.destination = entryCount
	}

	freshnessSummary, freshnessError := store.SummarizeFreshness(requestContext)
	if freshnessError != nil {
		return Summary{}, freshnessError
	}
	summary.Freshness = freshnessSummary

	lastScanTime, lastScanError := store.LastScanTime(requestContext)
	if lastScanError != nil {
		return Summary{}, lastScanError
	}
	summary.LastScanTime = lastScanTime

	lastScanRoots, rootsError := store.lastScanRoots(requestContext)
	if rootsError != nil {
		return Summary{}, rootsError
	}
	summary.LastScanRoots = lastScanRoots

	return summary, nil
}

// SummarizeFreshness counts entries in each freshness tier.
func (store *Store) SummarizeFreshness(requestContext context.Context) (FreshnessSummary, error) {
	freshnessSummary := FreshnessSummary{}

	tierTargets := []struct {
		tier        string
		destination *int
	}{
		{tier: "active", destination: &freshnessSummary.Active},
		{tier: "recent", destination: &freshnessSummary.Recent},
		{tier: "stale", destination: &freshnessSummary.Stale},
		{tier: "dormant", destination: &freshnessSummary.Dormant},
		{tier: "ancient", destination: &freshnessSummary.Ancient},
	}
	for _, tierTarget := range tierTargets {
		entryCount, countError := store.countEntries(requestContext, freshnessSummaryConditionConstant, tierTarget.tier)
		if countError != nil {
			return FreshnessSummary{}, countError
		}
		*tierTarget.destination = entryCount
	}

	return freshnessSummary, nil
}

func (store *Store) countEntries(requestContext context.Context, condition string, arguments ...any) (int, error) {
	countQuery := countEntriesBaseQueryConstant
	if len(condition) > 0 {
		countQuery += conditionJoinKeywordConstant + condition
	}

	var entryCount int
	if scanError := store.databaseHandle.QueryRowContext(requestContext, countQuery, arguments...).Scan(&entryCount); scanError != nil {
		return 0, fmt.Errorf(summaryErrorTemplateConstant, scanError)
	}
	return entryCount, nil
}
