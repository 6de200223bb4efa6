package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/temirov/gidx/internal/catalog"
)

const (
	scanToolNameConstant            = "scan"
	listReposToolNameConstant       = "list_repos"
	repoStatusToolNameConstant      = "repo_status"
	freshnessToolNameConstant       = "freshness_report"
	summaryToolNameConstant         = "summary"
	searchToolNameConstant          = "search"
	getConfigToolNameConstant       = "get_config"
	checkPermissionToolNameConstant = "check_permission"

	scanToolDescriptionConstant            = "Scan the configured filesystem roots for git repositories and refresh the catalogue."
	listReposToolDescriptionConstant       = "List catalogued repositories. All filter arguments combine with AND."
	repoStatusToolDescriptionConstant      = "Show the recorded state of one repository, resolved by fuzzy name or exact path."
	freshnessToolDescriptionConstant       = "Count catalogued repositories per freshness tier."
	summaryToolDescriptionConstant         = "Report catalogue-wide statistics and the most recent scan."
	searchToolDescriptionConstant          = "Search catalogued repositories by name, path, or tag substring."
	getConfigToolDescriptionConstant       = "Return the effective configuration as YAML."
	checkPermissionToolDescriptionConstant = "Check whether an operation class is allowed for a path under the automated permission context."

	rootsArgumentNameConstant     = "roots"
	fullArgumentNameConstant      = "full"
	dirtyArgumentNameConstant     = "dirty"
	unpushedArgumentNameConstant  = "unpushed"
	orphanArgumentNameConstant    = "orphan"
	freshnessArgumentNameConstant = "freshness"
	orgArgumentNameConstant       = "org"
	tagArgumentNameConstant       = "tag"
	nameArgumentNameConstant      = "name"
	queryArgumentNameConstant     = "query"
	pathArgumentNameConstant      = "path"
	operationArgumentNameConstant = "operation"

	rootsArgumentDescriptionConstant     = "Comma-separated root directories overriding the configured scan roots."
	fullArgumentDescriptionConstant      = "Re-extract vitals for already-known repositories even when recently verified."
	dirtyArgumentDescriptionConstant     = "Only repositories with uncommitted changes."
	unpushedArgumentDescriptionConstant  = "Only repositories with commits ahead of their upstream."
	orphanArgumentDescriptionConstant    = "Only repositories without a configured remote."
	freshnessArgumentDescriptionConstant = "Freshness tier: active, recent, stale, dormant, or ancient."
	orgArgumentDescriptionConstant       = "Only repositories with a remote under the given org."
	tagArgumentDescriptionConstant       = "Only repositories carrying the given tag."
	nameArgumentDescriptionConstant      = "Repository name or path to resolve."
	queryArgumentDescriptionConstant     = "Substring matched against names, paths, and tags."
	pathArgumentDescriptionConstant      = "Repository path the operation would run in."
	operationArgumentDescriptionConstant = "Operation class: read, fetch, write, force, or destructive."
)

// registerTools declares every tool and binds it to a Server handler. Handler
// failures become tool-error results, never protocol failures.
func (toolServer *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool(scanToolNameConstant,
			mcp.WithDescription(scanToolDescriptionConstant),
			mcp.WithString(rootsArgumentNameConstant, mcp.Description(rootsArgumentDescriptionConstant)),
			mcp.WithBoolean(fullArgumentNameConstant, mcp.Description(fullArgumentDescriptionConstant)),
		),
		func(requestContext context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			responseText, handlerError := toolServer.handleScan(
				requestContext,
				request.GetString(rootsArgumentNameConstant, ""),
				request.GetBool(fullArgumentNameConstant, false),
			)
			if handlerError != nil {
				return toolError(handlerError)
			}
			return mcp.NewToolResultText(responseText), nil
		},
	)

	mcpServer.AddTool(
		mcp.NewTool(listReposToolNameConstant,
			mcp.WithDescription(listReposToolDescriptionConstant),
			mcp.WithBoolean(dirtyArgumentNameConstant, mcp.Description(dirtyArgumentDescriptionConstant)),
			mcp.WithBoolean(unpushedArgumentNameConstant, mcp.Description(unpushedArgumentDescriptionConstant)),
			mcp.WithBoolean(orphanArgumentNameConstant, mcp.Description(orphanArgumentDescriptionConstant)),
			mcp.WithString(freshnessArgumentNameConstant, mcp.Description(freshnessArgumentDescriptionConstant)),
			mcp.WithString(orgArgumentNameConstant, mcp.Description(orgArgumentDescriptionConstant)),
			mcp.WithString(tagArgumentNameConstant, mcp.Description(tagArgumentDescriptionConstant)),
		),
		func(requestContext context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			filter, filterError := buildToolFilter(request)
			if filterError != nil {
				return toolError(filterError)
			}
			responseText, handlerError := toolServer.handleListRepos(requestContext, filter)
			if handlerError != nil {
				return toolError(handlerError)
			}
			return mcp.NewToolResultText(responseText), nil
		},
	)

	mcpServer.AddTool(
		mcp.NewTool(repoStatusToolNameConstant,
			mcp.WithDescription(repoStatusToolDescriptionConstant),
			mcp.WithString(nameArgumentNameConstant, mcp.Description(nameArgumentDescriptionConstant), mcp.Required()),
		),
		func(requestContext context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			responseText, handlerError := toolServer.handleRepoStatus(requestContext, request.GetString(nameArgumentNameConstant, ""))
			if handlerError != nil {
				return toolError(handlerError)
			}
			return mcp.NewToolResultText(responseText), nil
		},
	)

	mcpServer.AddTool(
		mcp.NewTool(freshnessToolNameConstant,
			mcp.WithDescription(freshnessToolDescriptionConstant),
		),
		func(requestContext context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			responseText, handlerError := toolServer.handleFreshness(requestContext)
			if handlerError != nil {
				return toolError(handlerError)
			}
			return mcp.NewToolResultText(responseText), nil
		},
	)

	mcpServer.AddTool(
		mcp.NewTool(summaryToolNameConstant,
			mcp.WithDescription(summaryToolDescriptionConstant),
		),
		func(requestContext context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			responseText, handlerError := toolServer.handleSummary(requestContext)
			if handlerError != nil {
				return toolError(handlerError)
			}
			return mcp.NewToolResultText(responseText), nil
		},
	)

	mcpServer.AddTool(
		mcp.NewTool(searchToolNameConstant,
			mcp.WithDescription(searchToolDescriptionConstant),
			mcp.WithString(queryArgumentNameConstant, mcp.Description(queryArgumentDescriptionConstant), mcp.Required()),
		),
		func(requestContext context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			responseText, handlerError := toolServer.handleSearch(requestContext, request.GetString(queryArgumentNameConstant, ""))
			if handlerError != nil {
				return toolError(handlerError)
			}
			return mcp.NewToolResultText(responseText), nil
		},
	)

	mcpServer.AddTool(
		mcp.NewTool(getConfigToolNameConstant,
			mcp.WithDescription(getConfigToolDescriptionConstant),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			responseText, handlerError := toolServer.handleGetConfig()
			if handlerError != nil {
				return toolError(handlerError)
			}
			return mcp.NewToolResultText(responseText), nil
		},
	)

	mcpServer.AddTool(
		mcp.NewTool(checkPermissionToolNameConstant,
			mcp.WithDescription(checkPermissionToolDescriptionConstant),
			mcp.WithString(pathArgumentNameConstant, mcp.Description(pathArgumentDescriptionConstant), mcp.Required()),
			mcp.WithString(operationArgumentNameConstant, mcp.Description(operationArgumentDescriptionConstant), mcp.Required()),
		),
		func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			responseText, handlerError := toolServer.handleCheckPermission(
				request.GetString(pathArgumentNameConstant, ""),
				request.GetString(operationArgumentNameConstant, ""),
			)
			if handlerError != nil {
				return toolError(handlerError)
			}
			return mcp.NewToolResultText(responseText), nil
		},
	)
}

// buildToolFilter translates list_repos arguments into a catalog filter.
// Boolean arguments participate only when the caller sent them.
func buildToolFilter(request mcp.CallToolRequest) (catalog.Filter, error) {
	filter := catalog.Filter{}
	requestArguments := request.GetArguments()

	if _, present := requestArguments[dirtyArgumentNameConstant]; present {
		dirtyValue := request.GetBool(dirtyArgumentNameConstant, false)
		filter.Dirty = &dirtyValue
	}
	if _, present := requestArguments[unpushedArgumentNameConstant]; present {
		unpushedValue := request.GetBool(unpushedArgumentNameConstant, false)
		filter.Unpushed = &unpushedValue
	}
	if _, present := requestArguments[orphanArgumentNameConstant]; present {
		orphanValue := request.GetBool(orphanArgumentNameConstant, false)
		filter.Orphan = &orphanValue
	}

	if freshnessValue := request.GetString(freshnessArgumentNameConstant, ""); len(freshnessValue) > 0 {
		parsedFreshness, known := catalog.ParseFreshness(freshnessValue)
		if !known {
			return catalog.Filter{}, fmt.Errorf(unknownFreshnessTemplateConstant, freshnessValue)
		}
		filter.Freshness = parsedFreshness
	}

	filter.Organization = request.GetString(orgArgumentNameConstant, "")
	if tagValue := request.GetString(tagArgumentNameConstant, ""); len(tagValue) > 0 {
		filter.Tags = []string{tagValue}
	}

	return filter, nil
}

func toolError(handlerError error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(handlerError.Error()), nil
}
