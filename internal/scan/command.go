package scan

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gidx/internal/output"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	commandNameConstant     = "scan"
	commandShortDescription = "Discover and index git repositories under the configured roots"
	commandLongDescription  = "scan walks the configured roots, discovers git repositories, extracts their vitals, classifies them, and upserts the results into the catalogue."

	flagFullName         = "full"
	flagFullDescription  = "Re-extract vitals for already-known repositories even when recently verified"
	flagRootsName        = "roots"
	flagRootsDescription = "Override the configured scan roots"

	errorMissingServiceProvider = "scan service provider not configured"
	errorNoScanRoots            = "no scan roots configured"

	scanResultTemplateConstant    = "  scan: %d discovered, %d indexed, %d unchanged in %.1fs\n"
	scanErrorLineTemplateConstant = "  error: %s: %s\n"
)

// ServiceProvider supplies the scan service.
type ServiceProvider func() (*Service, error)

// ScanOptionsProvider supplies walk options derived from configuration.
type ScanOptionsProvider func() Options

// OutputFormatProvider supplies the format selected for command output.
type OutputFormatProvider func() output.Format

// CommandBuilder assembles the scan cobra command with configurable dependencies.
type CommandBuilder struct {
	ServiceProvider      ServiceProvider
	ScanOptionsProvider  ScanOptionsProvider
	OutputFormatProvider OutputFormatProvider
	RootSanitizer        *pathutils.RepositoryPathSanitizer
}

// Build constructs the cobra command for repository discovery.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagFullName, false, flagFullDescription)
	command.Flags().StringSlice(flagRootsName, nil, flagRootsDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	fullFlag, _ := command.Flags().GetBool(flagFullName)
	rootsFlag, _ := command.Flags().GetStringSlice(flagRootsName)

	service, serviceError := resolveService(builder.ServiceProvider)
	if serviceError != nil {
		return serviceError
	}

	options := builder.resolveScanOptions()
	if len(rootsFlag) > 0 {
		options.Roots = rootsFlag
	}
	options.Roots = builder.resolveRootSanitizer().Sanitize(options.Roots)
	if len(options.Roots) == 0 {
		return errors.New(errorNoScanRoots)
	}

	outcome, scanError := service.Scan(command.Context(), ScanRequest{Options: options, Full: fullFlag})
	if scanError != nil {
		return scanError
	}

	return builder.renderOutcome(command, outcome)
}

type scanErrorDocument struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type scanReportDocument struct {
	DiscoveredCount  int                 `json:"discovered"`
	IndexedCount     int                 `json:"indexed"`
	UnchangedCount   int                 `json:"unchanged"`
	SkippedExcluded  int                 `json:"skipped_excluded"`
	SkippedMounts    int                 `json:"skipped_mounts"`
	SkippedMaxDepth  int                 `json:"skipped_max_depth"`
	SkippedTimeouts  int                 `json:"skipped_stat_timeouts"`
	DurationSeconds  float64             `json:"duration_seconds"`
	TraversalErrors  []scanErrorDocument `json:"traversal_errors,omitempty"`
	ExtractionErrors []scanErrorDocument `json:"extraction_errors,omitempty"`
}

func (builder *CommandBuilder) renderOutcome(command *cobra.Command, outcome ScanOutcome) error {
	writer := command.OutOrStdout()
	outputFormat := resolveOutputFormat(builder.OutputFormatProvider)

	if outputFormat.IsPathListing() {
		discoveredPaths := make([]string, 0, len(outcome.Traversal.Discovered))
		for _, discovered := range outcome.Traversal.Discovered {
			discoveredPaths = append(discoveredPaths, discovered.Path)
		}
		return output.WritePaths(writer, outputFormat, discoveredPaths)
	}

	if outputFormat == output.FormatJSON {
		return output.WriteJSON(writer, buildScanReportDocument(outcome))
	}

	fmt.Fprintf(writer, scanResultTemplateConstant,
		len(outcome.Traversal.Discovered),
		outcome.IndexedCount,
		outcome.UnchangedCount,
		outcome.Traversal.Duration.Seconds(),
	)
	for _, traversalFailure := range outcome.Traversal.Errors {
		fmt.Fprintf(writer, scanErrorLineTemplateConstant, traversalFailure.Path, traversalFailure.Message)
	}
	for _, extractionFailure := range outcome.ExtractionErrors {
		fmt.Fprintf(writer, scanErrorLineTemplateConstant, extractionFailure.Path, extractionFailure.Message)
	}
	return nil
}

func buildScanReportDocument(outcome ScanOutcome) scanReportDocument {
	document := scanReportDocument{
		DiscoveredCount: len(outcome.Traversal.Discovered),
		IndexedCount:    outcome.IndexedCount,
		UnchangedCount:  outcome.UnchangedCount,
		SkippedExcluded: outcome.Traversal.SkippedExcluded,
		SkippedMounts:   outcome.Traversal.SkippedMounts + outcome.Traversal.SkippedBlocked,
		SkippedMaxDepth: outcome.Traversal.SkippedMaxDepth,
		SkippedTimeouts: outcome.Traversal.SkippedTimeouts,
		DurationSeconds: outcome.Traversal.Duration.Seconds(),
	}
	for _, traversalFailure := range outcome.Traversal.Errors {
		document.TraversalErrors = append(document.TraversalErrors, scanErrorDocument{Path: traversalFailure.Path, Message: traversalFailure.Message})
	}
	for _, extractionFailure := range outcome.ExtractionErrors {
		document.ExtractionErrors = append(document.ExtractionErrors, scanErrorDocument{Path: extractionFailure.Path, Message: extractionFailure.Message})
	}
	return document
}

func (builder *CommandBuilder) resolveScanOptions() Options {
	if builder.ScanOptionsProvider == nil {
		return Options{}
	}
	return builder.ScanOptionsProvider()
}

func (builder *CommandBuilder) resolveRootSanitizer() *pathutils.RepositoryPathSanitizer {
	if builder.RootSanitizer == nil {
		return pathutils.NewRepositoryPathSanitizerWithConfiguration(nil, pathutils.RepositoryPathSanitizerConfiguration{PruneNestedPaths: true})
	}
	return builder.RootSanitizer
}

func resolveService(provider ServiceProvider) (*Service, error) {
	if provider == nil {
		return nil, errors.New(errorMissingServiceProvider)
	}
	return provider()
}

func resolveOutputFormat(provider OutputFormatProvider) output.Format {
	if provider == nil {
		return output.FormatHuman
	}
	resolvedFormat := provider()
	if len(resolvedFormat) == 0 {
		return output.FormatHuman
	}
	return resolvedFormat
}
