package mcp

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gidx/internal/config"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/permission"
	"github.com/temirov/gidx/internal/scan"
)

// CommandName is the cobra command name. The CLI switches logging to a file
// when it sees this command because stdout and stderr carry the protocol.
const CommandName = "mcp"

const (
	commandShortDescription = "Serve the catalogue over the model context protocol on stdio"
	commandLongDescription  = "mcp exposes the catalogue as MCP tools (scan, list_repos, repo_status, freshness_report, summary, search, get_config, check_permission) over a stdio transport. Catalogue-mutating tools run under the automated permission context."

	errorMissingStoreProvider       = "catalogue store provider not configured"
	errorMissingScanServiceProvider = "scan service provider not configured"
	errorMissingGateProvider        = "automated permission gate provider not configured"
)

// LoggerProvider supplies the file-backed logger for the stdio server.
type LoggerProvider func() *zap.Logger

// StoreProvider supplies the opened catalogue store.
type StoreProvider func() (*index.Store, error)

// ScanServiceProvider supplies the scan service used by the scan tool.
type ScanServiceProvider func() (*scan.Service, error)

// ConfigurationProvider supplies the effective configuration.
type ConfigurationProvider func() config.Configuration

// AutomatedGateProvider supplies the permission gate for the automated context.
type AutomatedGateProvider func() *permission.Gate

// CommandBuilder assembles the mcp cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	StoreProvider         StoreProvider
	ScanServiceProvider   ScanServiceProvider
	ConfigurationProvider ConfigurationProvider
	AutomatedGateProvider AutomatedGateProvider
}

// Build constructs the cobra command running the stdio server.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   CommandName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *CommandBuilder) run(_ *cobra.Command, _ []string) error {
	toolServer, buildError := builder.buildServer()
	if buildError != nil {
		return buildError
	}

	mcpServer := server.NewMCPServer(
		serverNameConstant,
		serverVersionConstant,
		server.WithToolCapabilities(true),
	)
	toolServer.registerTools(mcpServer)

	return server.ServeStdio(mcpServer)
}

func (builder *CommandBuilder) buildServer() (*Server, error) {
	if builder.StoreProvider == nil {
		return nil, errors.New(errorMissingStoreProvider)
	}
	if builder.ScanServiceProvider == nil {
		return nil, errors.New(errorMissingScanServiceProvider)
	}
	if builder.AutomatedGateProvider == nil {
		return nil, errors.New(errorMissingGateProvider)
	}

	store, storeError := builder.StoreProvider()
	if storeError != nil {
		return nil, storeError
	}
	scanService, scanServiceError := builder.ScanServiceProvider()
	if scanServiceError != nil {
		return nil, scanServiceError
	}

	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	var configuration config.Configuration
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	return NewServer(ServerOptions{
		Logger:        logger,
		Store:         store,
		ScanService:   scanService,
		Configuration: configuration,
		AutomatedGate: builder.AutomatedGateProvider(),
	})
}
