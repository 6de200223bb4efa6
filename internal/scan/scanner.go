package scan

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const (
	gitDirectoryNameConstant     = ".git"
	bareHeadFileNameConstant     = "HEAD"
	bareObjectsDirectoryConstant = "objects"
	bareRefsDirectoryConstant    = "refs"
	defaultMaximumDepthConstant  = 10
	defaultStatTimeoutConstant   = 500 * time.Millisecond
)

// SkipReason identifies why the walker refused to descend into a directory.
type SkipReason string

// Skip reasons reported through the traversal observer.
const (
	SkipReasonExcluded      SkipReason = "excluded"
	SkipReasonMountBoundary SkipReason = "mount-boundary"
	SkipReasonBlockedMount  SkipReason = "blocked-mount"
	SkipReasonMaxDepth      SkipReason = "max-depth"
	SkipReasonStatTimeout   SkipReason = "stat-timeout"
)

var errStatTimedOut = errors.New("stat timed out")

// Options bound a filesystem walk.
type Options struct {
	Roots           []string
	ExcludePatterns []string
	MaximumDepth    int
	CrossMounts     bool
	AllowedMounts   []string
	BlockedMounts   []string
	StatTimeout     time.Duration
}

// DiscoveredRepository reports one repository found during a walk.
type DiscoveredRepository struct {
	Path   string
	IsBare bool
}

// TraversalError records a filesystem failure the walker stepped over.
type TraversalError struct {
	Path    string
	Message string
}

// Result aggregates a completed filesystem walk.
type Result struct {
	Discovered      []DiscoveredRepository
	SkippedExcluded int
	SkippedMounts   int
	SkippedBlocked  int
	SkippedMaxDepth int
	SkippedTimeouts int
	Errors          []TraversalError
	Duration        time.Duration
}

// TraversalObserver receives progress notifications during a filesystem walk.
type TraversalObserver interface {
	// DirectoryEntered notifies observers that the walker descends into a directory.
	DirectoryEntered(path string)
	// RepositoryFound notifies observers that a repository was discovered.
	RepositoryFound(path string, bare bool)
	// PathSkipped notifies observers that a directory was pruned from the walk.
	PathSkipped(path string, reason SkipReason)
	// TraversalFailed reports a filesystem error the walker stepped over.
	TraversalFailed(path string, failure error)
}

// noopTraversalObserver discards all traversal events.
type noopTraversalObserver struct{}

// DirectoryEntered implements TraversalObserver for the no-op observer.
func (noopTraversalObserver) DirectoryEntered(string) {}

// RepositoryFound implements TraversalObserver for the no-op observer.
func (noopTraversalObserver) RepositoryFound(string, bool) {}

// PathSkipped implements TraversalObserver for the no-op observer.
func (noopTraversalObserver) PathSkipped(string, SkipReason) {}

// TraversalFailed implements TraversalObserver for the no-op observer.
func (noopTraversalObserver) TraversalFailed(string, error) {}

// Scanner walks configured roots looking for git repositories.
type Scanner struct {
	options      Options
	observer     TraversalObserver
	statFunction func(string) (os.FileInfo, error)
}

// NewScanner constructs a Scanner without progress reporting.
func NewScanner(options Options) *Scanner {
	return NewScannerWithObserver(options, nil)
}

// NewScannerWithObserver constructs a Scanner that reports traversal events.
// A nil observer disables reporting.
func NewScannerWithObserver(options Options, observer TraversalObserver) *Scanner {
	resolvedObserver := observer
	if resolvedObserver == nil {
		resolvedObserver = noopTraversalObserver{}
	}
	return &Scanner{options: normalizeOptions(options), observer: resolvedObserver, statFunction: os.Stat}
}

func normalizeOptions(options Options) Options {
	if options.MaximumDepth <= 0 {
		options.MaximumDepth = defaultMaximumDepthConstant
	}
	if options.StatTimeout <= 0 {
		options.StatTimeout = defaultStatTimeoutConstant
	}
	return options
}

// Scan walks every configured root in order. Filesystem failures accumulate
// in the result; the returned error is reserved for context cancellation.
func (scanner *Scanner) Scan(traversalContext context.Context) (Result, error) {
	startTime := time.Now()
	result := Result{}

	for _, rootPath := range scanner.options.Roots {
		if walkError := scanner.walkRoot(traversalContext, rootPath, &result); walkError != nil {
			// A stop signal ends the walk early; everything discovered so
			// far still counts.
			result.Duration = time.Since(startTime)
			return result, walkError
		}
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

func (scanner *Scanner) walkRoot(traversalContext context.Context, rootPath string, result *Result) error {
	rootDevice, rootDeviceKnown := scanner.rootDeviceIdentifier(rootPath)

	return filepath.WalkDir(rootPath, func(entryPath string, entry fs.DirEntry, entryError error) error {
		if contextError := traversalContext.Err(); contextError != nil {
			return contextError
		}
		if entryError != nil {
			result.Errors = append(result.Errors, TraversalError{Path: entryPath, Message: entryError.Error()})
			scanner.observer.TraversalFailed(entryPath, entryError)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}

		if scanner.isExcluded(entryPath, rootPath) {
			result.SkippedExcluded++
			scanner.observer.PathSkipped(entryPath, SkipReasonExcluded)
			return fs.SkipDir
		}

		if rootDeviceKnown && entryPath != rootPath {
			entryInfo, statError := scanner.statWithTimeout(entryPath)
			if errors.Is(statError, errStatTimedOut) {
				result.SkippedTimeouts++
				scanner.observer.PathSkipped(entryPath, SkipReasonStatTimeout)
				return fs.SkipDir
			}
			if statError == nil {
				entryDevice, deviceKnown := deviceIdentifier(entryInfo)
				if deviceKnown && entryDevice != rootDevice && !pathWithinAny(entryPath, scanner.options.AllowedMounts) {
					result.SkippedMounts++
					scanner.observer.PathSkipped(entryPath, SkipReasonMountBoundary)
					return fs.SkipDir
				}
			}
		}

		if pathWithinAny(entryPath, scanner.options.BlockedMounts) {
			result.SkippedBlocked++
			scanner.observer.PathSkipped(entryPath, SkipReasonBlockedMount)
			return fs.SkipDir
		}

		if filepath.Base(entryPath) == gitDirectoryNameConstant {
			repositoryPath := filepath.Dir(entryPath)
			result.Discovered = append(result.Discovered, DiscoveredRepository{Path: repositoryPath})
			scanner.observer.RepositoryFound(repositoryPath, false)
			return fs.SkipDir
		}

		if isBareRepositoryLayout(entryPath) {
			result.Discovered = append(result.Discovered, DiscoveredRepository{Path: entryPath, IsBare: true})
			scanner.observer.RepositoryFound(entryPath, true)
			return fs.SkipDir
		}

		scanner.observer.DirectoryEntered(entryPath)
		if entryDepth(rootPath, entryPath) >= scanner.options.MaximumDepth {
			result.SkippedMaxDepth++
			scanner.observer.PathSkipped(entryPath, SkipReasonMaxDepth)
			return fs.SkipDir
		}
		return nil
	})
}

// rootDeviceIdentifier resolves the device holding a root. Mount boundary
// checks are disabled when crossing mounts is allowed or the root cannot be
// inspected.
func (scanner *Scanner) rootDeviceIdentifier(rootPath string) (uint64, bool) {
	if scanner.options.CrossMounts {
		return 0, false
	}
	rootInfo, statError := os.Stat(rootPath)
	if statError != nil {
		return 0, false
	}
	return deviceIdentifier(rootInfo)
}

func (scanner *Scanner) isExcluded(entryPath string, rootPath string) bool {
	relativePath, relativeError := filepath.Rel(rootPath, entryPath)
	if relativeError != nil {
		relativePath = entryPath
	}
	entryName := filepath.Base(entryPath)

	for _, pattern := range scanner.options.ExcludePatterns {
		trimmedPattern := strings.TrimRight(pattern, "/")
		if len(trimmedPattern) == 0 {
			continue
		}
		if entryName == trimmedPattern {
			return true
		}
		if strings.Contains(relativePath, trimmedPattern) {
			return true
		}
	}
	return false
}

// statWithTimeout races the stat function against a timer so unresponsive
// mounts cannot stall the walk. The stranded stat result is discarded.
func (scanner *Scanner) statWithTimeout(entryPath string) (os.FileInfo, error) {
	type statOutcome struct {
		info      os.FileInfo
		statError error
	}

	outcomeChannel := make(chan statOutcome, 1)
	go func() {
		info, statError := scanner.statFunction(entryPath)
		outcomeChannel <- statOutcome{info: info, statError: statError}
	}()

	timeoutTimer := time.NewTimer(scanner.options.StatTimeout)
	defer timeoutTimer.Stop()

	select {
	case outcome := <-outcomeChannel:
		return outcome.info, outcome.statError
	case <-timeoutTimer.C:
		return nil, errStatTimedOut
	}
}

func deviceIdentifier(info os.FileInfo) (uint64, bool) {
	statValue, isUnixStat := info.Sys().(*syscall.Stat_t)
	if !isUnixStat {
		return 0, false
	}
	return uint64(statValue.Dev), true
}

func pathWithinAny(entryPath string, prefixes []string) bool {
	for _, prefix := range prefixes {
		trimmedPrefix := strings.TrimRight(prefix, "/")
		if len(trimmedPrefix) == 0 {
			if strings.HasPrefix(entryPath, "/") {
				return true
			}
			continue
		}
		if entryPath == trimmedPrefix || strings.HasPrefix(entryPath, trimmedPrefix+"/") {
			return true
		}
	}
	return false
}

func entryDepth(rootPath string, entryPath string) int {
	relativePath, relativeError := filepath.Rel(rootPath, entryPath)
	if relativeError != nil || relativePath == "." {
		return 0
	}
	return strings.Count(relativePath, string(filepath.Separator)) + 1
}

// isBareRepositoryLayout reports whether a directory looks like a bare git
// repository: a HEAD file next to objects/ and refs/ with no .git entry.
func isBareRepositoryLayout(entryPath string) bool {
	if !regularFileExists(filepath.Join(entryPath, bareHeadFileNameConstant)) {
		return false
	}
	if !directoryExists(filepath.Join(entryPath, bareObjectsDirectoryConstant)) {
		return false
	}
	if !directoryExists(filepath.Join(entryPath, bareRefsDirectoryConstant)) {
		return false
	}
	return !pathExists(filepath.Join(entryPath, gitDirectoryNameConstant))
}

func regularFileExists(candidatePath string) bool {
	info, statError := os.Stat(candidatePath)
	return statError == nil && info.Mode().IsRegular()
}

func directoryExists(candidatePath string) bool {
	info, statError := os.Stat(candidatePath)
	return statError == nil && info.IsDir()
}

func pathExists(candidatePath string) bool {
	_, statError := os.Lstat(candidatePath)
	return statError == nil
}
