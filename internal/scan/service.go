package scan

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/vitals"
)

const (
	defaultExtractionWorkersConstant = 4
	defaultAutoVerifyPeriodConstant  = 300 * time.Second
)

// Service construction and locking failures.
var (
	ErrStoreNotConfigured      = errors.New("catalogue store not configured")
	ErrCollectorNotConfigured  = errors.New("vitals collector not configured")
	ErrClassifierNotConfigured = errors.New("classifier not configured")
	ErrScanInProgress          = errors.New("scan already in progress")
)

// CatalogueStore persists discovered repositories.
type CatalogueStore interface {
	Upsert(requestContext context.Context, entry catalog.Entry) (catalog.EntryIdentifier, error)
	FindByPath(requestContext context.Context, path string) (*catalog.Entry, error)
	All(requestContext context.Context) ([]catalog.Entry, error)
	MarkLost(requestContext context.Context, entryIdentifier catalog.EntryIdentifier) error
	TouchVerified(requestContext context.Context, entryIdentifier catalog.EntryIdentifier, verifiedAt time.Time) error
	RecordScan(requestContext context.Context, roots []string, repositoryCount int) error
}

// VitalsCollector extracts git vitals for one repository path.
type VitalsCollector interface {
	Collect(executionContext context.Context, repositoryPath string) (vitals.Snapshot, error)
}

// EntryClassifier fills classification fields on a catalogued entry.
type EntryClassifier interface {
	Apply(entry *catalog.Entry)
}

// ServiceOptions tune scan orchestration. Zero values select defaults.
type ServiceOptions struct {
	Logger           *zap.Logger
	Observer         TraversalObserver
	LockPath         string
	AutoVerifyPeriod time.Duration
	WorkerCount      int
	Clock            func() time.Time
}

// Service orchestrates discovery, extraction, classification, and indexing.
type Service struct {
	store            CatalogueStore
	collector        VitalsCollector
	classifier       EntryClassifier
	logger           *zap.Logger
	observer         TraversalObserver
	lockPath         string
	autoVerifyPeriod time.Duration
	workerCount      int
	clock            func() time.Time
}

// NewService constructs a scan Service around the supplied collaborators.
func NewService(store CatalogueStore, collector VitalsCollector, classifier EntryClassifier, serviceOptions ServiceOptions) (*Service, error) {
	if store == nil {
		return nil, ErrStoreNotConfigured
	}
	if collector == nil {
		return nil, ErrCollectorNotConfigured
	}
	if classifier == nil {
		return nil, ErrClassifierNotConfigured
	}

	logger := serviceOptions.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	autoVerifyPeriod := serviceOptions.AutoVerifyPeriod
	if autoVerifyPeriod <= 0 {
		autoVerifyPeriod = defaultAutoVerifyPeriodConstant
	}
	workerCount := serviceOptions.WorkerCount
	if workerCount <= 0 {
		workerCount = defaultExtractionWorkersConstant
	}
	clock := serviceOptions.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		store:            store,
		collector:        collector,
		classifier:       classifier,
		logger:           logger,
		observer:         serviceOptions.Observer,
		lockPath:         serviceOptions.LockPath,
		autoVerifyPeriod: autoVerifyPeriod,
		workerCount:      workerCount,
		clock:            clock,
	}, nil
}

// ScanRequest selects what a scan covers.
type ScanRequest struct {
	Options Options
	// Full re-extracts vitals for already-known paths even when they were
	// verified recently.
	Full bool
}

// ExtractionFailure records one repository whose vitals could not be read.
type ExtractionFailure struct {
	Path    string
	Message string
}

// ScanOutcome aggregates a completed scan.
type ScanOutcome struct {
	Traversal        Result
	IndexedCount     int
	UnchangedCount   int
	ExtractionErrors []ExtractionFailure
}

// Scan discovers repositories under the requested roots and indexes them.
// Extraction failures are recorded and skipped; storage failures abort.
func (service *Service) Scan(requestContext context.Context, request ScanRequest) (ScanOutcome, error) {
	releaseLock, lockError := service.acquireScanLock()
	if lockError != nil {
		return ScanOutcome{}, lockError
	}
	defer releaseLock()

	scanTime := service.clock().UTC()
	scanner := NewScannerWithObserver(request.Options, service.observer)
	traversalResult, traversalError := scanner.Scan(requestContext)
	if traversalError != nil {
		return ScanOutcome{}, traversalError
	}

	outcome := ScanOutcome{Traversal: traversalResult}
	outcomeMutex := &sync.Mutex{}

	extractionGroup, extractionContext := errgroup.WithContext(requestContext)
	extractionGroup.SetLimit(service.workerCount)
	for _, discovered := range traversalResult.Discovered {
		discoveredRepository := discovered
		extractionGroup.Go(func() error {
			return service.indexDiscoveredRepository(extractionContext, discoveredRepository, request.Full, scanTime, &outcome, outcomeMutex)
		})
	}
	if groupError := extractionGroup.Wait(); groupError != nil {
		return ScanOutcome{}, groupError
	}

	sort.Slice(outcome.ExtractionErrors, func(firstIndex, secondIndex int) bool {
		return outcome.ExtractionErrors[firstIndex].Path < outcome.ExtractionErrors[secondIndex].Path
	})

	if recordError := service.store.RecordScan(requestContext, request.Options.Roots, len(traversalResult.Discovered)); recordError != nil {
		return ScanOutcome{}, recordError
	}

	service.logger.Info("Scan finished",
		zap.Int("discovered_count", len(traversalResult.Discovered)),
		zap.Int("indexed_count", outcome.IndexedCount),
		zap.Int("unchanged_count", outcome.UnchangedCount),
		zap.Int("extraction_error_count", len(outcome.ExtractionErrors)),
		zap.Duration("duration", traversalResult.Duration),
	)
	return outcome, nil
}

func (service *Service) indexDiscoveredRepository(extractionContext context.Context, discovered DiscoveredRepository, fullExtraction bool, scanTime time.Time, outcome *ScanOutcome, outcomeMutex *sync.Mutex) error {
	existingEntry, lookupError := service.store.FindByPath(extractionContext, discovered.Path)
	if lookupError != nil {
		return lookupError
	}

	if !fullExtraction && service.recentlyVerified(existingEntry, scanTime) {
		outcomeMutex.Lock()
		outcome.UnchangedCount++
		outcomeMutex.Unlock()
		return nil
	}

	snapshot, collectError := service.collector.Collect(extractionContext, discovered.Path)
	if collectError != nil {
		service.logger.Warn("Vitals extraction failed",
			zap.String("repository_path", discovered.Path),
			zap.Error(collectError),
		)
		outcomeMutex.Lock()
		outcome.ExtractionErrors = append(outcome.ExtractionErrors, ExtractionFailure{Path: discovered.Path, Message: collectError.Error()})
		outcomeMutex.Unlock()
		return nil
	}

	entry := buildCataloguedEntry(existingEntry, snapshot, discovered.Path, scanTime)
	service.classifier.Apply(&entry)

	if _, upsertError := service.store.Upsert(extractionContext, entry); upsertError != nil {
		return upsertError
	}

	outcomeMutex.Lock()
	outcome.IndexedCount++
	outcomeMutex.Unlock()
	return nil
}

// recentlyVerified reports whether an entry can skip re-extraction. Lost
// entries never qualify so rediscovered repositories revive immediately.
func (service *Service) recentlyVerified(existingEntry *catalog.Entry, scanTime time.Time) bool {
	if existingEntry == nil || existingEntry.LastVerified == nil {
		return false
	}
	if existingEntry.State == catalog.StateLost {
		return false
	}
	return scanTime.Sub(*existingEntry.LastVerified) < service.autoVerifyPeriod
}

// buildCataloguedEntry merges fresh vitals with the metadata a previous
// catalogue entry carried. Classification fields, tags, project, and role
// survive re-scans; everything derived from git is replaced.
func buildCataloguedEntry(existingEntry *catalog.Entry, snapshot vitals.Snapshot, repositoryPath string, scanTime time.Time) catalog.Entry {
	verifiedAt := scanTime
	entry := catalog.Entry{
		Name:             snapshot.Name,
		Path:             repositoryPath,
		State:            catalog.StateActive,
		Remotes:          snapshot.Remotes,
		DefaultBranch:    snapshot.DefaultBranch,
		CurrentBranch:    snapshot.CurrentBranch,
		BranchCount:      snapshot.BranchCount,
		StaleBranchCount: snapshot.StaleBranchCount,
		Dirty:            snapshot.Dirty,
		Staged:           snapshot.Staged,
		Untracked:        snapshot.Untracked,
		AheadCount:       snapshot.AheadCount,
		BehindCount:      snapshot.BehindCount,
		IsBare:           snapshot.IsBare,
		LastCommit:       snapshot.LastCommit,
		LastVerified:     &verifiedAt,
		FirstSeen:        scanTime,
		Freshness:        catalog.FreshnessFromCommitTime(snapshot.LastCommit, scanTime),
	}

	if existingEntry != nil {
		entry.Identifier = existingEntry.Identifier
		entry.Ownership = existingEntry.Ownership
		entry.Intention = existingEntry.Intention
		entry.Category = existingEntry.Category
		entry.ManagedBy = existingEntry.ManagedBy
		entry.Tags = existingEntry.Tags
		entry.Project = existingEntry.Project
		entry.Role = existingEntry.Role
	}
	return entry
}

// VerifyOutcome aggregates a quick verification pass.
type VerifyOutcome struct {
	ChangedCount   int
	UnchangedCount int
	LostCount      int
}

// Verify stats every non-lost catalogued path, marks vanished repositories
// lost, and refreshes the verification timestamp of reachable ones.
func (service *Service) Verify(requestContext context.Context) (VerifyOutcome, error) {
	entries, listError := service.store.All(requestContext)
	if listError != nil {
		return VerifyOutcome{}, listError
	}

	entriesByPath := make(map[string]catalog.Entry, len(entries))
	knownPaths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.State == catalog.StateLost {
			continue
		}
		entriesByPath[entry.Path] = entry
		knownPaths = append(knownPaths, entry.Path)
	}

	verification := QuickVerify(knownPaths)
	verifiedAt := service.clock().UTC()

	for _, changedPath := range verification.Changed {
		changedEntry := entriesByPath[changedPath]
		if touchError := service.store.TouchVerified(requestContext, changedEntry.Identifier, verifiedAt); touchError != nil {
			return VerifyOutcome{}, touchError
		}
	}
	for _, lostPath := range verification.Lost {
		lostEntry := entriesByPath[lostPath]
		if markError := service.store.MarkLost(requestContext, lostEntry.Identifier); markError != nil {
			return VerifyOutcome{}, markError
		}
		service.logger.Info("Repository lost", zap.String("repository_path", lostPath))
	}

	return VerifyOutcome{
		ChangedCount:   len(verification.Changed),
		UnchangedCount: len(verification.Unchanged),
		LostCount:      len(verification.Lost),
	}, nil
}

// acquireScanLock takes the scan lock file when one is configured. The
// returned function releases it.
func (service *Service) acquireScanLock() (func(), error) {
	if len(service.lockPath) == 0 {
		return func() {}, nil
	}

	scanLock := flock.New(service.lockPath)
	locked, lockError := scanLock.TryLock()
	if lockError != nil {
		return nil, lockError
	}
	if !locked {
		return nil, ErrScanInProgress
	}

	return func() {
		if unlockError := scanLock.Unlock(); unlockError != nil {
			service.logger.Warn("Scan lock release failed", zap.Error(unlockError))
		}
	}, nil
}
