package vitals

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/execshell"
	"github.com/temirov/gidx/internal/gitrepo"
)

const (
	gitStatusSubcommandConstant                   = "status"
	gitStatusPorcelainFlagConstant                = "--porcelain=v2"
	gitStatusBranchFlagConstant                   = "--branch"
	gitRevParseSubcommandConstant                 = "rev-parse"
	gitBareRepositoryFlagConstant                 = "--is-bare-repository"
	gitSymbolicRefSubcommandConstant              = "symbolic-ref"
	gitShortFlagConstant                          = "--short"
	gitHeadReferenceConstant                      = "HEAD"
	gitShowRefSubcommandConstant                  = "show-ref"
	gitVerifyFlagConstant                         = "--verify"
	gitQuietFlagConstant                          = "--quiet"
	gitRemoteSubcommandConstant                   = "remote"
	gitConfigSubcommandConstant                   = "config"
	gitConfigGetFlagConstant                      = "--get"
	gitForEachRefSubcommandConstant               = "for-each-ref"
	gitForEachRefFormatFlagConstant               = "--format=%(committerdate:unix)"
	gitHeadsReferencePrefixConstant               = "refs/heads"
	gitLogSubcommandConstant                      = "log"
	gitLogSingleEntryFlagConstant                 = "-1"
	gitLogCommitTimeFormatFlagConstant            = "--format=%ct"
	remoteURLConfigurationKeyTemplateConstant     = "remote.%s.url"
	remotePushURLConfigurationKeyTemplateConstant = "remote.%s.pushurl"
	branchReferenceTemplateConstant               = "refs/heads/%s"
	bareRepositoryTrueValueConstant               = "true"
	unknownRepositoryNameConstant                 = "unknown"
	repositoryReadErrorTemplateConstant           = "git operation failed for %s: %s"
	staleBranchWindowDaysConstant                 = 90
)

// defaultBranchCandidates are probed in order when HEAD is not attached to a branch.
var defaultBranchCandidates = []string{"main", "master", "develop", "trunk"}

// ErrExecutorNotConfigured indicates the collector was created without a git executor.
var ErrExecutorNotConfigured = errors.New("git executor not configured")

// GitExecutor exposes the subset of shell execution used to read repository state.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryReadError reports a git interrogation failure for a repository path.
type RepositoryReadError struct {
	Path  string
	Cause error
}

// Error describes the failed interrogation.
func (readError RepositoryReadError) Error() string {
	return fmt.Sprintf(repositoryReadErrorTemplateConstant, readError.Path, readError.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (readError RepositoryReadError) Unwrap() error {
	return readError.Cause
}

// Snapshot captures the read-only git state of a repository at collection time.
type Snapshot struct {
	Name             string
	IsBare           bool
	Remotes          []catalog.Remote
	DefaultBranch    string
	CurrentBranch    string
	BranchCount      int
	StaleBranchCount int
	Dirty            bool
	Staged           bool
	Untracked        bool
	AheadCount       int
	BehindCount      int
	LastCommit       *time.Time
}

// Collector reads repository vitals by shelling out to git.
type Collector struct {
	executor GitExecutor
	clock    func() time.Time
}

// NewCollector constructs a collector backed by the supplied git executor.
func NewCollector(executor GitExecutor) (*Collector, error) {
	return NewCollectorWithClock(executor, time.Now)
}

// NewCollectorWithClock constructs a collector with an explicit time source.
func NewCollectorWithClock(executor GitExecutor, clock func() time.Time) (*Collector, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if clock == nil {
		clock = time.Now
	}
	return &Collector{executor: executor, clock: clock}, nil
}

// Collect gathers the vitals for the repository at repositoryPath.
func (collector *Collector) Collect(executionContext context.Context, repositoryPath string) (Snapshot, error) {
	isBare, bareError := collector.isBareRepository(executionContext, repositoryPath)
	if bareError != nil {
		return Snapshot{}, bareError
	}

	snapshot := Snapshot{IsBare: isBare}

	remotes, remotesError := collector.collectRemotes(executionContext, repositoryPath)
	if remotesError != nil {
		return Snapshot{}, remotesError
	}
	snapshot.Remotes = remotes
	snapshot.Name = collector.inferName(repositoryPath, remotes)

	headBranch, headError := collector.resolveHeadBranch(executionContext, repositoryPath)
	if headError != nil {
		return Snapshot{}, headError
	}
	if !isBare {
		snapshot.CurrentBranch = headBranch
	}
	snapshot.DefaultBranch = headBranch
	if len(snapshot.DefaultBranch) == 0 {
		probedBranch, probeError := collector.probeDefaultBranch(executionContext, repositoryPath)
		if probeError != nil {
			return Snapshot{}, probeError
		}
		snapshot.DefaultBranch = probedBranch
	}

	if !isBare {
		worktree, worktreeError := collector.collectWorktreeStatus(executionContext, repositoryPath)
		if worktreeError != nil {
			return Snapshot{}, worktreeError
		}
		snapshot.Dirty = worktree.Dirty
		snapshot.Staged = worktree.Staged
		snapshot.Untracked = worktree.Untracked
		snapshot.AheadCount = worktree.Ahead
		snapshot.BehindCount = worktree.Behind
	}

	branchCount, staleBranchCount, branchesError := collector.collectBranchCounts(executionContext, repositoryPath)
	if branchesError != nil {
		return Snapshot{}, branchesError
	}
	snapshot.BranchCount = branchCount
	snapshot.StaleBranchCount = staleBranchCount

	lastCommit, lastCommitError := collector.collectLastCommitTime(executionContext, repositoryPath)
	if lastCommitError != nil {
		return Snapshot{}, lastCommitError
	}
	snapshot.LastCommit = lastCommit

	return snapshot, nil
}

func (collector *Collector) isBareRepository(executionContext context.Context, repositoryPath string) (bool, error) {
	bareResult, bareError := collector.runGit(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitBareRepositoryFlagConstant)
	if bareError != nil {
		return false, RepositoryReadError{Path: repositoryPath, Cause: bareError}
	}
	return strings.EqualFold(strings.TrimSpace(bareResult.StandardOutput), bareRepositoryTrueValueConstant), nil
}

func (collector *Collector) collectRemotes(executionContext context.Context, repositoryPath string) ([]catalog.Remote, error) {
	listResult, listError := collector.runGit(executionContext, repositoryPath, gitRemoteSubcommandConstant)
	if listError != nil {
		return nil, RepositoryReadError{Path: repositoryPath, Cause: listError}
	}

	remoteNames := splitNonEmptyLines(listResult.StandardOutput)
	remotes := make([]catalog.Remote, 0, len(remoteNames))
	for _, remoteName := range remoteNames {
		remote := catalog.Remote{Name: remoteName}

		remoteURL, urlError := collector.readConfigurationEntry(executionContext, repositoryPath, fmt.Sprintf(remoteURLConfigurationKeyTemplateConstant, remoteName))
		if urlError != nil {
			return nil, urlError
		}
		remote.URL = remoteURL

		pushURL, pushError := collector.readConfigurationEntry(executionContext, repositoryPath, fmt.Sprintf(remotePushURLConfigurationKeyTemplateConstant, remoteName))
		if pushError != nil {
			return nil, pushError
		}
		remote.PushURL = pushURL

		remotes = append(remotes, remote)
	}
	return remotes, nil
}

// readConfigurationEntry treats a non-zero exit as an unset key.
func (collector *Collector) readConfigurationEntry(executionContext context.Context, repositoryPath string, configurationKey string) (string, error) {
	configResult, configError := collector.runGit(executionContext, repositoryPath, gitConfigSubcommandConstant, gitConfigGetFlagConstant, configurationKey)
	if configError != nil {
		if isCommandFailure(configError) {
			return "", nil
		}
		return "", RepositoryReadError{Path: repositoryPath, Cause: configError}
	}
	return strings.TrimSpace(configResult.StandardOutput), nil
}

// resolveHeadBranch returns an empty branch name when HEAD is detached or unborn.
func (collector *Collector) resolveHeadBranch(executionContext context.Context, repositoryPath string) (string, error) {
	headResult, headError := collector.runGit(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitShortFlagConstant, gitHeadReferenceConstant)
	if headError != nil {
		if isCommandFailure(headError) {
			return "", nil
		}
		return "", RepositoryReadError{Path: repositoryPath, Cause: headError}
	}
	return strings.TrimSpace(headResult.StandardOutput), nil
}

func (collector *Collector) probeDefaultBranch(executionContext context.Context, repositoryPath string) (string, error) {
	for _, candidateBranch := range defaultBranchCandidates {
		branchReference := fmt.Sprintf(branchReferenceTemplateConstant, candidateBranch)
		_, verifyError := collector.runGit(executionContext, repositoryPath, gitShowRefSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, branchReference)
		if verifyError == nil {
			return candidateBranch, nil
		}
		if !isCommandFailure(verifyError) {
			return "", RepositoryReadError{Path: repositoryPath, Cause: verifyError}
		}
	}
	return "", nil
}

func (collector *Collector) collectWorktreeStatus(executionContext context.Context, repositoryPath string) (WorktreeStatus, error) {
	statusResult, statusError := collector.runGit(executionContext, repositoryPath, gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant, gitStatusBranchFlagConstant)
	if statusError != nil {
		return WorktreeStatus{}, RepositoryReadError{Path: repositoryPath, Cause: statusError}
	}
	return ParseWorktreeStatus(statusResult.StandardOutput), nil
}

func (collector *Collector) collectBranchCounts(executionContext context.Context, repositoryPath string) (int, int, error) {
	enumerationResult, enumerationError := collector.runGit(executionContext, repositoryPath, gitForEachRefSubcommandConstant, gitForEachRefFormatFlagConstant, gitHeadsReferencePrefixConstant)
	if enumerationError != nil {
		return 0, 0, RepositoryReadError{Path: repositoryPath, Cause: enumerationError}
	}

	staleCutoff := collector.clock().AddDate(0, 0, -staleBranchWindowDaysConstant)
	branchCount := 0
	staleBranchCount := 0
	for _, enumeratedLine := range splitNonEmptyLines(enumerationResult.StandardOutput) {
		branchCount++
		commitSeconds, parseError := strconv.ParseInt(enumeratedLine, 10, 64)
		if parseError != nil {
			continue
		}
		if time.Unix(commitSeconds, 0).Before(staleCutoff) {
			staleBranchCount++
		}
	}
	return branchCount, staleBranchCount, nil
}

// collectLastCommitTime returns nil for repositories without any commit.
func (collector *Collector) collectLastCommitTime(executionContext context.Context, repositoryPath string) (*time.Time, error) {
	logResult, logError := collector.runGit(executionContext, repositoryPath, gitLogSubcommandConstant, gitLogSingleEntryFlagConstant, gitLogCommitTimeFormatFlagConstant)
	if logError != nil {
		if isCommandFailure(logError) {
			return nil, nil
		}
		return nil, RepositoryReadError{Path: repositoryPath, Cause: logError}
	}

	trimmedOutput := strings.TrimSpace(logResult.StandardOutput)
	if len(trimmedOutput) == 0 {
		return nil, nil
	}
	commitSeconds, parseError := strconv.ParseInt(trimmedOutput, 10, 64)
	if parseError != nil {
		return nil, nil
	}
	commitTime := time.Unix(commitSeconds, 0).UTC()
	return &commitTime, nil
}

func (collector *Collector) inferName(repositoryPath string, remotes []catalog.Remote) string {
	for _, remote := range remotes {
		if remote.Name != catalog.OriginRemoteNameConstant || len(remote.URL) == 0 {
			continue
		}
		parsedRemote, parseError := gitrepo.ParseRemoteURL(remote.URL)
		if parseError == nil && len(parsedRemote.Repository) > 0 {
			return parsedRemote.Repository
		}
	}

	baseName := filepath.Base(strings.TrimRight(repositoryPath, string(filepath.Separator)))
	if len(baseName) > 0 && baseName != "." && baseName != string(filepath.Separator) {
		return baseName
	}
	return unknownRepositoryNameConstant
}

func (collector *Collector) runGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	details := execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath}
	return collector.executor.ExecuteGit(executionContext, details)
}

func isCommandFailure(candidateError error) bool {
	var commandFailure execshell.CommandFailedError
	return errors.As(candidateError, &commandFailure)
}

func splitNonEmptyLines(output string) []string {
	lines := []string{}
	for _, rawLine := range strings.Split(output, "\n") {
		trimmedLine := strings.TrimSpace(rawLine)
		if len(trimmedLine) == 0 {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	return lines
}
