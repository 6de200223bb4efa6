package scan_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/classify"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/scan"
	"github.com/temirov/gidx/internal/vitals"
)

var serviceTestTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type stubVitalsCollector struct {
	mutex          sync.Mutex
	snapshots      map[string]vitals.Snapshot
	failures       map[string]error
	collectedPaths []string
}

func (collector *stubVitalsCollector) Collect(_ context.Context, repositoryPath string) (vitals.Snapshot, error) {
	collector.mutex.Lock()
	collector.collectedPaths = append(collector.collectedPaths, repositoryPath)
	collector.mutex.Unlock()

	if failure, hasFailure := collector.failures[repositoryPath]; hasFailure {
		return vitals.Snapshot{}, failure
	}
	if snapshot, hasSnapshot := collector.snapshots[repositoryPath]; hasSnapshot {
		return snapshot, nil
	}
	return vitals.Snapshot{Name: filepath.Base(repositoryPath)}, nil
}

func newServiceTestStore(testInstance *testing.T) *index.Store {
	testInstance.Helper()

	store, storeError := index.NewInMemoryStore(zap.NewNop())
	require.NoError(testInstance, storeError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, store.Close())
	})
	return store
}

func newServiceTestClassifier(testInstance *testing.T, rules []classify.Rule) *classify.Classifier {
	testInstance.Helper()

	compiledRules, compileError := classify.CompileRules(rules)
	require.NoError(testInstance, compileError)
	return classify.NewClassifier(compiledRules)
}

func newTestService(testInstance *testing.T, store *index.Store, collector *stubVitalsCollector, rules []classify.Rule, serviceOptions scan.ServiceOptions) *scan.Service {
	testInstance.Helper()

	if serviceOptions.Clock == nil {
		serviceOptions.Clock = func() time.Time { return serviceTestTime }
	}
	service, serviceError := scan.NewService(store, collector, newServiceTestClassifier(testInstance, rules), serviceOptions)
	require.NoError(testInstance, serviceError)
	return service
}

func TestScanServiceIndexesDiscoveredRepositories(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	worktreeRepositoryPath := createWorktreeRepository(testInstance, rootPath, "api-gateway")
	bareRepositoryPath := createBareRepository(testInstance, rootPath, "mirror.git")

	lastCommitTime := serviceTestTime.Add(-48 * time.Hour)
	collector := &stubVitalsCollector{snapshots: map[string]vitals.Snapshot{
		worktreeRepositoryPath: {Name: "api-gateway", CurrentBranch: "main", BranchCount: 3, Dirty: true, LastCommit: &lastCommitTime},
		bareRepositoryPath:     {Name: "mirror", IsBare: true},
	}}
	classificationRules := []classify.Rule{{
		Match: classify.Match{Path: filepath.Join(rootPath, "*")},
		Apply: classify.Effect{Ownership: "third-party", Intention: "dependency"},
	}}

	store := newServiceTestStore(testInstance)
	service := newTestService(testInstance, store, collector, classificationRules, scan.ServiceOptions{})

	outcome, scanError := service.Scan(context.Background(), scan.ScanRequest{
		Options: scan.Options{Roots: []string{rootPath}, CrossMounts: true},
	})
	require.NoError(testInstance, scanError)
	require.Equal(testInstance, 2, outcome.IndexedCount)
	require.Equal(testInstance, 0, outcome.UnchangedCount)
	require.Empty(testInstance, outcome.ExtractionErrors)
	require.Len(testInstance, outcome.Traversal.Discovered, 2)

	worktreeEntry, findError := store.FindByPath(context.Background(), worktreeRepositoryPath)
	require.NoError(testInstance, findError)
	require.NotNil(testInstance, worktreeEntry)
	require.Equal(testInstance, "api-gateway", worktreeEntry.Name)
	require.Equal(testInstance, catalog.StateActive, worktreeEntry.State)
	require.True(testInstance, worktreeEntry.Dirty)
	require.Equal(testInstance, catalog.OwnershipKindThirdParty, worktreeEntry.Ownership.Kind)
	require.Equal(testInstance, catalog.IntentionDependency, worktreeEntry.Intention)
	require.Equal(testInstance, serviceTestTime, worktreeEntry.FirstSeen)
	require.NotNil(testInstance, worktreeEntry.LastVerified)
	require.Equal(testInstance, serviceTestTime, *worktreeEntry.LastVerified)

	bareEntry, bareFindError := store.FindByPath(context.Background(), bareRepositoryPath)
	require.NoError(testInstance, bareFindError)
	require.NotNil(testInstance, bareEntry)
	require.True(testInstance, bareEntry.IsBare)

	summary, summarizeError := store.Summarize(context.Background())
	require.NoError(testInstance, summarizeError)
	require.NotNil(testInstance, summary.LastScanTime)
	require.Equal(testInstance, []string{rootPath}, summary.LastScanRoots)
}

func TestScanServiceRecordsExtractionFailures(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	healthyRepositoryPath := createWorktreeRepository(testInstance, rootPath, "healthy")
	brokenRepositoryPath := createWorktreeRepository(testInstance, rootPath, "broken")

	collector := &stubVitalsCollector{failures: map[string]error{
		brokenRepositoryPath: errors.New("git status timed out"),
	}}
	store := newServiceTestStore(testInstance)
	service := newTestService(testInstance, store, collector, nil, scan.ServiceOptions{})

	outcome, scanError := service.Scan(context.Background(), scan.ScanRequest{
		Options: scan.Options{Roots: []string{rootPath}, CrossMounts: true},
	})
	require.NoError(testInstance, scanError)
	require.Equal(testInstance, 1, outcome.IndexedCount)
	require.Equal(testInstance,
		[]scan.ExtractionFailure{{Path: brokenRepositoryPath, Message: "git status timed out"}},
		outcome.ExtractionErrors,
	)

	healthyEntry, healthyFindError := store.FindByPath(context.Background(), healthyRepositoryPath)
	require.NoError(testInstance, healthyFindError)
	require.NotNil(testInstance, healthyEntry)

	brokenEntry, brokenFindError := store.FindByPath(context.Background(), brokenRepositoryPath)
	require.NoError(testInstance, brokenFindError)
	require.Nil(testInstance, brokenEntry)
}

func TestScanServiceSkipsRecentlyVerifiedRepositories(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	repositoryPath := createWorktreeRepository(testInstance, rootPath, "api-gateway")

	recentlyVerifiedAt := serviceTestTime.Add(-time.Minute)
	store := newServiceTestStore(testInstance)
	_, seedError := store.Upsert(context.Background(), catalog.Entry{
		Name:         "api-gateway",
		Path:         repositoryPath,
		State:        catalog.StateActive,
		LastVerified: &recentlyVerifiedAt,
		FirstSeen:    serviceTestTime.Add(-24 * time.Hour),
	})
	require.NoError(testInstance, seedError)

	collector := &stubVitalsCollector{}
	service := newTestService(testInstance, store, collector, nil, scan.ServiceOptions{})

	outcome, scanError := service.Scan(context.Background(), scan.ScanRequest{
		Options: scan.Options{Roots: []string{rootPath}, CrossMounts: true},
	})
	require.NoError(testInstance, scanError)
	require.Equal(testInstance, 0, outcome.IndexedCount)
	require.Equal(testInstance, 1, outcome.UnchangedCount)
	require.Empty(testInstance, collector.collectedPaths)

	fullOutcome, fullScanError := service.Scan(context.Background(), scan.ScanRequest{
		Options: scan.Options{Roots: []string{rootPath}, CrossMounts: true},
		Full:    true,
	})
	require.NoError(testInstance, fullScanError)
	require.Equal(testInstance, 1, fullOutcome.IndexedCount)
	require.Equal(testInstance, 0, fullOutcome.UnchangedCount)
	require.Equal(testInstance, []string{repositoryPath}, collector.collectedPaths)
}

func TestScanServiceRevivesLostEntries(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	repositoryPath := createWorktreeRepository(testInstance, rootPath, "returned")

	originalFirstSeen := serviceTestTime.Add(-30 * 24 * time.Hour)
	recentlyVerifiedAt := serviceTestTime.Add(-time.Minute)
	store := newServiceTestStore(testInstance)
	_, seedError := store.Upsert(context.Background(), catalog.Entry{
		Name:         "returned",
		Path:         repositoryPath,
		State:        catalog.StateLost,
		Ownership:    catalog.Ownership{Kind: catalog.OwnershipKindPersonal},
		LastVerified: &recentlyVerifiedAt,
		FirstSeen:    originalFirstSeen,
	})
	require.NoError(testInstance, seedError)

	collector := &stubVitalsCollector{}
	service := newTestService(testInstance, store, collector, nil, scan.ServiceOptions{})

	outcome, scanError := service.Scan(context.Background(), scan.ScanRequest{
		Options: scan.Options{Roots: []string{rootPath}, CrossMounts: true},
	})
	require.NoError(testInstance, scanError)
	require.Equal(testInstance, 1, outcome.IndexedCount)
	require.Equal(testInstance, 0, outcome.UnchangedCount)

	revivedEntry, findError := store.FindByPath(context.Background(), repositoryPath)
	require.NoError(testInstance, findError)
	require.NotNil(testInstance, revivedEntry)
	require.Equal(testInstance, catalog.StateActive, revivedEntry.State)
	require.Equal(testInstance, catalog.OwnershipKindPersonal, revivedEntry.Ownership.Kind)
	require.Equal(testInstance, originalFirstSeen, revivedEntry.FirstSeen)
}

func TestScanServicePreservesUserMetadataAcrossRescans(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	repositoryPath := createWorktreeRepository(testInstance, rootPath, "platform-api")

	staleVerifiedAt := serviceTestTime.Add(-2 * time.Hour)
	store := newServiceTestStore(testInstance)
	_, seedError := store.Upsert(context.Background(), catalog.Entry{
		Name:         "platform-api",
		Path:         repositoryPath,
		State:        catalog.StateActive,
		Ownership:    catalog.Ownership{Kind: catalog.OwnershipKindWork, Label: "initech"},
		Intention:    catalog.IntentionDeveloping,
		ManagedBy:    "homebrew",
		Tags:         []string{"infra"},
		Project:      "platform",
		Role:         "service",
		LastVerified: &staleVerifiedAt,
		FirstSeen:    serviceTestTime.Add(-24 * time.Hour),
	})
	require.NoError(testInstance, seedError)

	collector := &stubVitalsCollector{snapshots: map[string]vitals.Snapshot{
		repositoryPath: {Name: "platform-api", Dirty: true, AheadCount: 3},
	}}
	service := newTestService(testInstance, store, collector, nil, scan.ServiceOptions{})

	_, scanError := service.Scan(context.Background(), scan.ScanRequest{
		Options: scan.Options{Roots: []string{rootPath}, CrossMounts: true},
	})
	require.NoError(testInstance, scanError)

	refreshedEntry, findError := store.FindByPath(context.Background(), repositoryPath)
	require.NoError(testInstance, findError)
	require.NotNil(testInstance, refreshedEntry)
	require.True(testInstance, refreshedEntry.Dirty)
	require.Equal(testInstance, 3, refreshedEntry.AheadCount)
	require.Equal(testInstance, catalog.Ownership{Kind: catalog.OwnershipKindWork, Label: "initech"}, refreshedEntry.Ownership)
	require.Equal(testInstance, catalog.IntentionDeveloping, refreshedEntry.Intention)
	require.Equal(testInstance, "homebrew", refreshedEntry.ManagedBy)
	require.Equal(testInstance, []string{"infra"}, refreshedEntry.Tags)
	require.Equal(testInstance, "platform", refreshedEntry.Project)
	require.Equal(testInstance, "service", refreshedEntry.Role)
}

func TestScanServiceRejectsConcurrentScans(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	createWorktreeRepository(testInstance, rootPath, "app")
	lockPath := filepath.Join(testInstance.TempDir(), "scan.lock")

	externalLock := flock.New(lockPath)
	locked, lockError := externalLock.TryLock()
	require.NoError(testInstance, lockError)
	require.True(testInstance, locked)
	defer func() {
		require.NoError(testInstance, externalLock.Unlock())
	}()

	store := newServiceTestStore(testInstance)
	service := newTestService(testInstance, store, &stubVitalsCollector{}, nil, scan.ServiceOptions{LockPath: lockPath})

	_, scanError := service.Scan(context.Background(), scan.ScanRequest{
		Options: scan.Options{Roots: []string{rootPath}, CrossMounts: true},
	})
	require.ErrorIs(testInstance, scanError, scan.ErrScanInProgress)
}

func TestScanServiceVerifyReconcilesCatalogue(testInstance *testing.T) {
	rootPath := testInstance.TempDir()

	changedRepositoryPath := createWorktreeRepository(testInstance, rootPath, "changed")
	require.NoError(testInstance, os.WriteFile(
		filepath.Join(changedRepositoryPath, testGitDirectoryNameConstant, testBareHeadFileNameConstant),
		[]byte(testBareHeadFileContentConstant),
		0o644,
	))
	unchangedRepositoryPath := createWorktreeRepository(testInstance, rootPath, "unchanged")
	vanishedRepositoryPath := filepath.Join(rootPath, "vanished")

	store := newServiceTestStore(testInstance)
	seedVerifyEntry(testInstance, store, "changed", changedRepositoryPath, catalog.StateActive)
	seedVerifyEntry(testInstance, store, "unchanged", unchangedRepositoryPath, catalog.StateActive)
	seedVerifyEntry(testInstance, store, "vanished", vanishedRepositoryPath, catalog.StateActive)
	seedVerifyEntry(testInstance, store, "already-lost", filepath.Join(rootPath, "already-lost"), catalog.StateLost)

	service := newTestService(testInstance, store, &stubVitalsCollector{}, nil, scan.ServiceOptions{})

	outcome, verifyError := service.Verify(context.Background())
	require.NoError(testInstance, verifyError)
	require.Equal(testInstance, 1, outcome.ChangedCount)
	require.Equal(testInstance, 1, outcome.UnchangedCount)
	require.Equal(testInstance, 1, outcome.LostCount)

	vanishedEntry, vanishedFindError := store.FindByPath(context.Background(), vanishedRepositoryPath)
	require.NoError(testInstance, vanishedFindError)
	require.NotNil(testInstance, vanishedEntry)
	require.Equal(testInstance, catalog.StateLost, vanishedEntry.State)

	changedEntry, changedFindError := store.FindByPath(context.Background(), changedRepositoryPath)
	require.NoError(testInstance, changedFindError)
	require.NotNil(testInstance, changedEntry)
	require.NotNil(testInstance, changedEntry.LastVerified)
	require.Equal(testInstance, serviceTestTime, *changedEntry.LastVerified)
}

func TestNewServiceValidatesCollaborators(testInstance *testing.T) {
	store := newServiceTestStore(testInstance)
	collector := &stubVitalsCollector{}
	classifier := classify.NewClassifier(nil)

	testCases := []struct {
		name          string
		buildService  func() (*scan.Service, error)
		expectedError error
	}{
		{
			name: "missing_store",
			buildService: func() (*scan.Service, error) {
				return scan.NewService(nil, collector, classifier, scan.ServiceOptions{})
			},
			expectedError: scan.ErrStoreNotConfigured,
		},
		{
			name: "missing_collector",
			buildService: func() (*scan.Service, error) {
				return scan.NewService(store, nil, classifier, scan.ServiceOptions{})
			},
			expectedError: scan.ErrCollectorNotConfigured,
		},
		{
			name: "missing_classifier",
			buildService: func() (*scan.Service, error) {
				return scan.NewService(store, collector, nil, scan.ServiceOptions{})
			},
			expectedError: scan.ErrClassifierNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			service, serviceError := testCase.buildService()
			require.Nil(subtestInstance, service)
			require.ErrorIs(subtestInstance, serviceError, testCase.expectedError)
		})
	}
}

func seedVerifyEntry(testInstance *testing.T, store *index.Store, name string, path string, state catalog.State) {
	testInstance.Helper()

	_, seedError := store.Upsert(context.Background(), catalog.Entry{
		Name:      name,
		Path:      path,
		State:     state,
		FirstSeen: serviceTestTime.Add(-24 * time.Hour),
	})
	require.NoError(testInstance, seedError)
}
