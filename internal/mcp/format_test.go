package mcp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/mcp"
	"github.com/temirov/gidx/internal/permission"
)

func TestFormatRepoList(testInstance *testing.T) {
	entries := []catalog.Entry{
		{
			Name:      "gadget",
			Path:      "/home/tester/code/gadget",
			Freshness: catalog.FreshnessActive,
			Dirty:     true,
			Remotes: []catalog.Remote{
				{Name: "origin", URL: "git@github.com:acme/gadget.git"},
			},
		},
		{
			Name:       "scratch",
			Path:       "/home/tester/tmp/scratch",
			Freshness:  catalog.FreshnessAncient,
			AheadCount: 1,
		},
	}

	expectedOutput := "[listing] 2 repos\n" +
		"  gadget (active) /home/tester/code/gadget [dirty]\n" +
		"  scratch (ancient) /home/tester/tmp/scratch [unpushed,orphan]\n" +
		"→ next: repo_status <name> | list_repos --dirty"
	require.Equal(testInstance, expectedOutput, mcp.FormatRepoList(entries))
}

func TestFormatRepoListEmpty(testInstance *testing.T) {
	expectedOutput := "[listing] 0 repos\n" +
		"→ next: repo_status <name> | list_repos --dirty"
	require.Equal(testInstance, expectedOutput, mcp.FormatRepoList(nil))
}

func TestFormatRepoStatus(testInstance *testing.T) {
	entry := catalog.Entry{
		Name:          "gadget",
		Path:          "/home/tester/code/gadget",
		Freshness:     catalog.FreshnessRecent,
		CurrentBranch: "feature/login",
		DefaultBranch: "main",
		Dirty:         true,
		Untracked:     true,
		AheadCount:    2,
		BehindCount:   1,
		Remotes: []catalog.Remote{
			{Name: "origin", URL: "git@github.com:acme/gadget.git"},
		},
	}

	expectedOutput := "[status] gadget (recent)\n" +
		"  path: /home/tester/code/gadget\n" +
		"  branch: feature/login / main\n" +
		"  tree: dirty, untracked\n" +
		"  tracking: ↑2 ↓1\n" +
		"  remote: origin → git@github.com:acme/gadget.git\n" +
		"→ next: list_repos | freshness_report"
	require.Equal(testInstance, expectedOutput, mcp.FormatRepoStatus(entry))
}

func TestFormatRepoStatusCleanTree(testInstance *testing.T) {
	entry := catalog.Entry{Name: "tidy", Path: "/code/tidy", Freshness: catalog.FreshnessActive}
	require.Contains(testInstance, mcp.FormatRepoStatus(entry), "  tree: clean")
}

func TestFormatFreshness(testInstance *testing.T) {
	expectedOutput := "[freshness] 10 repos\n" +
		"  active:  4\n" +
		"  recent:  3\n" +
		"  stale:   1\n" +
		"  dormant: 0\n" +
		"  ancient: 2\n" +
		"→ next: list_repos --freshness stale | list_repos --dirty"
	require.Equal(testInstance, expectedOutput, mcp.FormatFreshness(index.FreshnessSummary{
		Active:  4,
		Recent:  3,
		Stale:   1,
		Ancient: 2,
	}))
}

func TestFormatScanComplete(testInstance *testing.T) {
	rendered := mcp.FormatScanComplete(12, 9, 2340*time.Millisecond)
	require.Equal(testInstance, "[scan_complete] 12 discovered, 9 indexed in 2.3s\n→ next: list_repos | freshness_report", rendered)
}

func TestFormatSummary(testInstance *testing.T) {
	lastScanTime := time.Date(2026, time.August, 20, 7, 45, 0, 0, time.Local)
	rendered := mcp.FormatSummary(index.Summary{
		TotalCount:    6,
		DirtyCount:    2,
		UnpushedCount: 1,
		OrphanCount:   1,
		LostCount:     0,
		LastScanTime:  &lastScanTime,
	})

	expectedOutput := "[summary] 6 repos\n" +
		"  dirty: 2\n" +
		"  unpushed: 1\n" +
		"  orphan: 1\n" +
		"  lost: 0\n" +
		"  last scan: 2026-08-20 07:45\n" +
		"→ next: list_repos --dirty | freshness_report | scan"
	require.Equal(testInstance, expectedOutput, rendered)
}

func TestFormatSummaryWithoutScanHistory(testInstance *testing.T) {
	require.NotContains(testInstance, mcp.FormatSummary(index.Summary{TotalCount: 1}), "last scan")
}

func TestFormatBlocked(testInstance *testing.T) {
	rendered := mcp.FormatBlocked(permission.DeniedError{
		Operation: permission.OperationClassWrite,
		Required:  permission.LevelCommit,
		Current:   permission.LevelReadonly,
		Path:      "/code/gadget",
	})

	expectedOutput := "[blocked] write requires 'commit', current is 'readonly'\n" +
		"? ask user: increase difficulty level or use per-path override"
	require.Equal(testInstance, expectedOutput, rendered)
}
