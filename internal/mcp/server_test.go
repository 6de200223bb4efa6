package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/classify"
	"github.com/temirov/gidx/internal/config"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/permission"
	"github.com/temirov/gidx/internal/scan"
	"github.com/temirov/gidx/internal/vitals"
)

type staticVitalsCollector struct{}

func (staticVitalsCollector) Collect(_ context.Context, repositoryPath string) (vitals.Snapshot, error) {
	return vitals.Snapshot{Name: filepath.Base(repositoryPath)}, nil
}

func newServerTestStore(testInstance *testing.T) *index.Store {
	testInstance.Helper()

	store, storeError := index.NewInMemoryStore(zap.NewNop())
	require.NoError(testInstance, storeError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, store.Close())
	})
	return store
}

func newTestServer(testInstance *testing.T, store *index.Store, configuration config.Configuration) *Server {
	testInstance.Helper()

	compiledRules, compileError := classify.CompileRules(nil)
	require.NoError(testInstance, compileError)

	scanService, serviceError := scan.NewService(store, staticVitalsCollector{}, classify.NewClassifier(compiledRules), scan.ServiceOptions{
		LockPath: filepath.Join(testInstance.TempDir(), "scan.lock"),
	})
	require.NoError(testInstance, serviceError)

	automatedGate, gateError := permission.NewGate(permission.LevelReadonly, []permission.Override{
		{Pattern: "/srv/mirrors/**", Level: permission.LevelFetch},
	})
	require.NoError(testInstance, gateError)

	toolServer, buildError := NewServer(ServerOptions{
		Store:         store,
		ScanService:   scanService,
		Configuration: configuration,
		AutomatedGate: automatedGate,
	})
	require.NoError(testInstance, buildError)
	return toolServer
}

func seedServerFixtures(testInstance *testing.T, store *index.Store) {
	testInstance.Helper()

	entries := []catalog.Entry{
		{
			Name:      "gadget",
			Path:      "/code/gadget",
			Freshness: catalog.FreshnessActive,
			Dirty:     true,
			Remotes: []catalog.Remote{
				{Name: "origin", URL: "git@github.com:acme/gadget.git"},
			},
			Tags: []string{"backend"},
		},
		{
			Name:      "scratch",
			Path:      "/tmp/scratch",
			Freshness: catalog.FreshnessStale,
		},
	}
	for _, entry := range entries {
		_, upsertError := store.Upsert(context.Background(), entry)
		require.NoError(testInstance, upsertError)
	}
}

func TestHandleListRepos(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	seedServerFixtures(testInstance, store)
	toolServer := newTestServer(testInstance, store, config.Configuration{})

	dirtyOnly := true
	responseText, handlerError := toolServer.handleListRepos(context.Background(), catalog.Filter{Dirty: &dirtyOnly})
	require.NoError(testInstance, handlerError)
	require.Contains(testInstance, responseText, "[listing] 1 repos")
	require.Contains(testInstance, responseText, "gadget (active) /code/gadget [dirty]")
}

func TestHandleRepoStatus(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	seedServerFixtures(testInstance, store)
	toolServer := newTestServer(testInstance, store, config.Configuration{})

	responseText, handlerError := toolServer.handleRepoStatus(context.Background(), "gad")
	require.NoError(testInstance, handlerError)
	require.Contains(testInstance, responseText, "[status] gadget (active)")
	require.Contains(testInstance, responseText, "remote: origin → git@github.com:acme/gadget.git")
}

func TestHandleRepoStatusUnknown(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	toolServer := newTestServer(testInstance, store, config.Configuration{})

	_, handlerError := toolServer.handleRepoStatus(context.Background(), "missing")
	require.Error(testInstance, handlerError)
	require.Contains(testInstance, handlerError.Error(), "missing")
}

func TestHandleSearch(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	seedServerFixtures(testInstance, store)
	toolServer := newTestServer(testInstance, store, config.Configuration{})

	testCases := []struct {
		name          string
		query         string
		expectedMatch string
	}{
		{name: "matches_name", query: "gadget", expectedMatch: "[listing] 1 repos"},
		{name: "matches_path", query: "/tmp", expectedMatch: "scratch"},
		{name: "matches_tag", query: "backend", expectedMatch: "gadget"},
	}
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			responseText, handlerError := toolServer.handleSearch(context.Background(), testCase.query)
			require.NoError(testInstance, handlerError)
			require.Contains(testInstance, responseText, testCase.expectedMatch)
		})
	}
}

func TestHandleSearchWithoutMatches(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	seedServerFixtures(testInstance, store)
	toolServer := newTestServer(testInstance, store, config.Configuration{})

	responseText, handlerError := toolServer.handleSearch(context.Background(), "nonexistent")
	require.NoError(testInstance, handlerError)
	require.Contains(testInstance, responseText, "[listing] 0 repos")
}

func TestHandleScanIndexesRepositories(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	repositoryPath := filepath.Join(rootPath, "discovered")
	require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryPath, ".git"), 0o755))

	store := newServerTestStore(testInstance)
	configuration := config.Configuration{}
	configuration.Scan.Roots = []string{rootPath}
	configuration.Scan.CrossMounts = true
	toolServer := newTestServer(testInstance, store, configuration)

	responseText, handlerError := toolServer.handleScan(context.Background(), "", false)
	require.NoError(testInstance, handlerError)
	require.Contains(testInstance, responseText, "[scan_complete] 1 discovered, 1 indexed")

	entry, findError := store.FindByPath(context.Background(), repositoryPath)
	require.NoError(testInstance, findError)
	require.NotNil(testInstance, entry)
}

func TestHandleScanWithRootOverride(testInstance *testing.T) {
	overrideRoot := testInstance.TempDir()
	require.NoError(testInstance, os.MkdirAll(filepath.Join(overrideRoot, "extra", ".git"), 0o755))

	store := newServerTestStore(testInstance)
	configuration := config.Configuration{}
	configuration.Scan.Roots = []string{filepath.Join(testInstance.TempDir(), "unused")}
	configuration.Scan.CrossMounts = true
	toolServer := newTestServer(testInstance, store, configuration)

	responseText, handlerError := toolServer.handleScan(context.Background(), overrideRoot, false)
	require.NoError(testInstance, handlerError)
	require.Contains(testInstance, responseText, "1 discovered, 1 indexed")
}

func TestHandleFreshnessAndSummary(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	seedServerFixtures(testInstance, store)
	toolServer := newTestServer(testInstance, store, config.Configuration{})

	freshnessText, freshnessError := toolServer.handleFreshness(context.Background())
	require.NoError(testInstance, freshnessError)
	require.Contains(testInstance, freshnessText, "[freshness] 2 repos")
	require.Contains(testInstance, freshnessText, "active:  1")
	require.Contains(testInstance, freshnessText, "stale:   1")

	summaryText, summaryError := toolServer.handleSummary(context.Background())
	require.NoError(testInstance, summaryError)
	require.Contains(testInstance, summaryText, "[summary] 2 repos")
	require.Contains(testInstance, summaryText, "dirty: 1")
	require.Contains(testInstance, summaryText, "orphan: 1")
}

func TestHandleGetConfig(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	configuration := config.DefaultConfiguration()
	toolServer := newTestServer(testInstance, store, configuration)

	responseText, handlerError := toolServer.handleGetConfig()
	require.NoError(testInstance, handlerError)
	require.Contains(testInstance, responseText, "catalog:")
	require.Contains(testInstance, responseText, "permissions:")
}

func TestHandleCheckPermission(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	toolServer := newTestServer(testInstance, store, config.Configuration{})

	testCases := []struct {
		name           string
		repositoryPath string
		operation      string
		expectedOutput string
	}{
		{
			name:           "read_allowed_under_readonly",
			repositoryPath: "/code/gadget",
			operation:      "read",
			expectedOutput: "[permission] read allowed under 'readonly' for /code/gadget",
		},
		{
			name:           "write_blocked_under_readonly",
			repositoryPath: "/code/gadget",
			operation:      "write",
			expectedOutput: "[blocked] write requires 'commit', current is 'readonly'",
		},
		{
			name:           "override_raises_level",
			repositoryPath: "/srv/mirrors/linux",
			operation:      "fetch",
			expectedOutput: "[permission] fetch allowed under 'fetch' for /srv/mirrors/linux",
		},
	}
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			responseText, handlerError := toolServer.handleCheckPermission(testCase.repositoryPath, testCase.operation)
			require.NoError(testInstance, handlerError)
			require.Contains(testInstance, responseText, testCase.expectedOutput)
		})
	}
}

func TestHandleCheckPermissionUnknownOperation(testInstance *testing.T) {
	store := newServerTestStore(testInstance)
	toolServer := newTestServer(testInstance, store, config.Configuration{})

	_, handlerError := toolServer.handleCheckPermission("/code/gadget", "teleport")
	require.Error(testInstance, handlerError)
	require.Contains(testInstance, handlerError.Error(), "teleport")
}
