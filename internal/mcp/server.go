package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/config"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/permission"
	"github.com/temirov/gidx/internal/scan"
)

const (
	serverNameConstant    = "gidx-mcp"
	serverVersionConstant = "0.1.0"

	errorMissingStore       = "catalogue store not configured"
	errorMissingScanService = "scan service not configured"
	errorMissingGate        = "automated permission gate not configured"

	repositoryNotFoundTemplateConstant = "no catalogued repository matches %q"
	unknownOperationTemplateConstant   = "unknown operation class %q"
	unknownFreshnessTemplateConstant   = "unknown freshness tier %q"
	emptySearchResultTemplateConstant  = "[listing] 0 repos\n→ next: scan | list_repos"

	scanLogMessageConstant         = "mcp scan completed"
	scanLogDiscoveredFieldConstant = "discovered"
	scanLogIndexedFieldConstant    = "indexed"

	rootsSeparatorConstant = ","
)

// Server answers MCP tool calls against the catalogue. Handlers return the
// terse text blocks directly so they stay testable without stdio plumbing.
type Server struct {
	logger        *zap.Logger
	store         *index.Store
	scanService   *scan.Service
	configuration config.Configuration
	automatedGate *permission.Gate
}

// ServerOptions carries the collaborators a Server needs.
type ServerOptions struct {
	Logger        *zap.Logger
	Store         *index.Store
	ScanService   *scan.Service
	Configuration config.Configuration
	AutomatedGate *permission.Gate
}

// NewServer validates the collaborators and assembles a tool server.
func NewServer(options ServerOptions) (*Server, error) {
	if options.Store == nil {
		return nil, errors.New(errorMissingStore)
	}
	if options.ScanService == nil {
		return nil, errors.New(errorMissingScanService)
	}
	if options.AutomatedGate == nil {
		return nil, errors.New(errorMissingGate)
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		logger:        logger,
		store:         options.Store,
		scanService:   options.ScanService,
		configuration: options.Configuration,
		automatedGate: options.AutomatedGate,
	}, nil
}

// handleScan walks the configured roots (or an explicit comma-separated
// override) and reports the outcome as a `[scan_complete]` block.
func (toolServer *Server) handleScan(requestContext context.Context, rootsArgument string, fullScan bool) (string, error) {
	options := toolServer.configuration.Scan.WalkOptions()
	if trimmedRoots := strings.TrimSpace(rootsArgument); len(trimmedRoots) > 0 {
		overrideRoots := make([]string, 0, 2)
		for _, root := range strings.Split(trimmedRoots, rootsSeparatorConstant) {
			if trimmedRoot := strings.TrimSpace(root); len(trimmedRoot) > 0 {
				overrideRoots = append(overrideRoots, trimmedRoot)
			}
		}
		options.Roots = overrideRoots
	}

	outcome, scanError := toolServer.scanService.Scan(requestContext, scan.ScanRequest{Options: options, Full: fullScan})
	if scanError != nil {
		return "", scanError
	}

	toolServer.logger.Info(
		scanLogMessageConstant,
		zap.Int(scanLogDiscoveredFieldConstant, len(outcome.Traversal.Discovered)),
		zap.Int(scanLogIndexedFieldConstant, outcome.IndexedCount),
	)
	return FormatScanComplete(len(outcome.Traversal.Discovered), outcome.IndexedCount, outcome.Traversal.Duration), nil
}

// handleListRepos lists catalogue entries matching the filter.
func (toolServer *Server) handleListRepos(requestContext context.Context, filter catalog.Filter) (string, error) {
	entries, listError := toolServer.store.List(requestContext, filter)
	if listError != nil {
		return "", listError
	}
	return FormatRepoList(entries), nil
}

// handleRepoStatus resolves one repository by fuzzy name or path.
func (toolServer *Server) handleRepoStatus(requestContext context.Context, nameArgument string) (string, error) {
	entry, lookupError := toolServer.lookupEntry(requestContext, nameArgument)
	if lookupError != nil {
		return "", lookupError
	}
	return FormatRepoStatus(*entry), nil
}

// handleFreshness reports per-tier repository counts.
func (toolServer *Server) handleFreshness(requestContext context.Context) (string, error) {
	freshnessSummary, summaryError := toolServer.store.SummarizeFreshness(requestContext)
	if summaryError != nil {
		return "", summaryError
	}
	return FormatFreshness(freshnessSummary), nil
}

// handleSummary reports the catalogue-wide summary.
func (toolServer *Server) handleSummary(requestContext context.Context) (string, error) {
	catalogueSummary, summaryError := toolServer.store.Summarize(requestContext)
	if summaryError != nil {
		return "", summaryError
	}
	return FormatSummary(catalogueSummary), nil
}

// handleSearch matches the query against entry names, paths, and tags.
func (toolServer *Server) handleSearch(requestContext context.Context, query string) (string, error) {
	entries, listError := toolServer.store.All(requestContext)
	if listError != nil {
		return "", listError
	}

	loweredQuery := strings.ToLower(strings.TrimSpace(query))
	matches := make([]catalog.Entry, 0, len(entries))
	for _, entry := range entries {
		if entryMatchesQuery(entry, loweredQuery) {
			matches = append(matches, entry)
		}
	}
	if len(matches) == 0 {
		return emptySearchResultTemplateConstant, nil
	}
	return FormatRepoList(matches), nil
}

// handleGetConfig renders the effective configuration as YAML.
func (toolServer *Server) handleGetConfig() (string, error) {
	configurationDocument, marshalError := yaml.Marshal(toolServer.configuration)
	if marshalError != nil {
		return "", marshalError
	}
	return string(configurationDocument), nil
}

// handleCheckPermission evaluates an operation class against the automated
// gate. A refusal is a valid answer, rendered as a `[blocked]` block rather
// than a tool error.
func (toolServer *Server) handleCheckPermission(repositoryPath string, operationArgument string) (string, error) {
	operationClass, knownOperation := permission.ParseOperationClass(operationArgument)
	if !knownOperation {
		return "", fmt.Errorf(unknownOperationTemplateConstant, operationArgument)
	}

	checkError := toolServer.automatedGate.Check(repositoryPath, operationClass)
	if checkError == nil {
		return FormatPermissionAllowed(operationClass, toolServer.automatedGate.EffectiveLevel(repositoryPath), repositoryPath), nil
	}

	var deniedError permission.DeniedError
	if errors.As(checkError, &deniedError) {
		return FormatBlocked(deniedError), nil
	}
	return "", checkError
}

func (toolServer *Server) lookupEntry(requestContext context.Context, argument string) (*catalog.Entry, error) {
	trimmedArgument := strings.TrimSpace(argument)

	if strings.ContainsRune(trimmedArgument, '/') {
		entry, pathLookupError := toolServer.store.FindByPath(requestContext, trimmedArgument)
		if pathLookupError != nil {
			return nil, pathLookupError
		}
		if entry != nil {
			return entry, nil
		}
	}

	entry, nameLookupError := toolServer.store.FindByName(requestContext, trimmedArgument)
	if nameLookupError != nil {
		return nil, nameLookupError
	}
	if entry == nil {
		return nil, fmt.Errorf(repositoryNotFoundTemplateConstant, argument)
	}
	return entry, nil
}

func entryMatchesQuery(entry catalog.Entry, loweredQuery string) bool {
	if len(loweredQuery) == 0 {
		return false
	}
	if strings.Contains(strings.ToLower(entry.Name), loweredQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(entry.Path), loweredQuery) {
		return true
	}
	for _, tag := range entry.Tags {
		if strings.Contains(strings.ToLower(tag), loweredQuery) {
			return true
		}
	}
	return false
}
