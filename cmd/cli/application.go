package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gidx/cmd/cli/repos"
	"github.com/temirov/gidx/internal/classify"
	"github.com/temirov/gidx/internal/config"
	"github.com/temirov/gidx/internal/execshell"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/mcp"
	"github.com/temirov/gidx/internal/output"
	"github.com/temirov/gidx/internal/permission"
	"github.com/temirov/gidx/internal/scan"
	"github.com/temirov/gidx/internal/utils"
	pathutils "github.com/temirov/gidx/internal/utils/path"
	"github.com/temirov/gidx/internal/vitals"
)

const (
	applicationNameConstant             = "gidx"
	applicationShortDescriptionConstant = "Local catalogue of git repositories discovered on this machine"
	applicationLongDescriptionConstant  = "gidx scans configured filesystem roots for git repositories, keeps a queryable catalogue of their state and classification, and answers filtered queries over it."

	configFileFlagNameConstant    = "config"
	configFileFlagUsageConstant   = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant      = "log-level"
	logLevelFlagUsageConstant     = "Override the configured log level."
	logFormatFlagNameConstant     = "log-format"
	logFormatFlagUsageConstant    = "Override the configured log format (structured or console)."
	outputFormatFlagNameConstant  = "format"
	outputFormatFlagUsageConstant = "Output format: human, json, paths, or paths0."
	databaseFlagNameConstant      = "database"
	databaseFlagUsageConstant     = "Override the configured catalogue database path."

	environmentPrefixConstant               = "GIDX"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "gidx CLI executed"
	rootCommandDebugMessageConstant         = "gidx CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	storeNotInitializedMessageConstant      = "catalogue store requested before configuration was initialized"

	defaultConfigurationSearchPathConstant = "."
	userConfigurationSearchPathConstant    = "~/.config/gidx"
	homeConfigurationSearchPathConstant    = "~"

	scanLockFileSuffixConstant = ".lock"
	mcpLogFileNameConstant     = "mcp.log"
)

// Application wires the Cobra root command, configuration loader, catalogue
// store, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         config.Configuration
	artifacts             config.Artifacts
	configurationMetadata utils.LoadedConfiguration
	homeExpander          *pathutils.HomeExpander
	store                 *index.Store

	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	outputFormatFlagValue string
	databasePathFlagValue string
	outputFormat          output.Format
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	homeExpander := pathutils.NewHomeExpander()
	embeddedDefaults, _ := EmbeddedDefaultConfiguration()

	configurationLoader := utils.NewConfigurationLoader(utils.ConfigurationLoaderOptions{
		ConfigurationName: configurationNameConstant,
		ConfigurationType: configurationTypeConstant,
		EnvironmentPrefix: environmentPrefixConstant,
		SearchPaths: []string{
			defaultConfigurationSearchPathConstant,
			homeExpander.Expand(userConfigurationSearchPathConstant),
			homeExpander.Expand(homeConfigurationSearchPathConstant),
		},
		EmbeddedDefaults: embeddedDefaults,
	})

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		homeExpander:        homeExpander,
		outputFormat:        output.FormatHuman,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.outputFormatFlagValue, outputFormatFlagNameConstant, "", outputFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.databasePathFlagValue, databaseFlagNameConstant, "", databaseFlagUsageConstant)

	application.registerCommands(cobraCommand)
	application.rootCommand = cobraCommand

	return application
}

// RootCommand exposes the assembled Cobra root command for in-process callers.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the configured Cobra command hierarchy, closes the catalogue
// store, and flushes the logger.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if application.store != nil {
		if closeError := application.store.Close(); closeError != nil && executionError == nil {
			executionError = closeError
		}
	}
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) registerCommands(rootCommand *cobra.Command) {
	loggerProvider := func() *zap.Logger { return application.logger }
	outputFormatProvider := func() output.Format { return application.outputFormat }
	storeProvider := func() (*index.Store, error) { return application.openStore() }
	gatesProvider := func() (*permission.Gate, *permission.Gate) {
		return application.artifacts.InteractiveGate, application.artifacts.AutomatedGate
	}
	catModeProvider := func() bool { return application.configuration.Display.CatMode }

	scanBuilder := scan.CommandBuilder{
		ServiceProvider:      application.buildScanService,
		ScanOptionsProvider:  func() scan.Options { return application.configuration.Scan.WalkOptions() },
		OutputFormatProvider: outputFormatProvider,
	}
	if scanCommand, buildError := scanBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(scanCommand)
	}

	verifyBuilder := scan.VerifyCommandBuilder{
		ServiceProvider:      application.buildScanService,
		OutputFormatProvider: outputFormatProvider,
	}
	if verifyCommand, buildError := verifyBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(verifyCommand)
	}

	classifyBuilder := classify.CommandBuilder{
		LoggerProvider:       loggerProvider,
		StoreProvider:        storeProvider,
		RulesProvider:        func() []classify.Rule { return application.configuration.Rules },
		OutputFormatProvider: outputFormatProvider,
		HomeExpander:         application.homeExpander,
	}
	if classifyCommand, buildError := classifyBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(classifyCommand)
	}

	listBuilder := repos.ListCommandBuilder{
		StoreProvider:        storeProvider,
		OutputFormatProvider: outputFormatProvider,
		HomeExpander:         application.homeExpander,
	}
	if listCommand, buildError := listBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(listCommand)
	}

	statusBuilder := repos.StatusCommandBuilder{
		StoreProvider:        storeProvider,
		OutputFormatProvider: outputFormatProvider,
		GatesProvider:        gatesProvider,
		CatModeProvider:      catModeProvider,
		HomeExpander:         application.homeExpander,
	}
	if statusCommand, buildError := statusBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(statusCommand)
	}

	infoBuilder := repos.InfoCommandBuilder{
		StoreProvider:        storeProvider,
		OutputFormatProvider: outputFormatProvider,
		GatesProvider:        gatesProvider,
		CatModeProvider:      catModeProvider,
		HomeExpander:         application.homeExpander,
	}
	if infoCommand, buildError := infoBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(infoCommand)
	}

	freshnessBuilder := repos.FreshnessCommandBuilder{
		StoreProvider:        storeProvider,
		OutputFormatProvider: outputFormatProvider,
	}
	if freshnessCommand, buildError := freshnessBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(freshnessCommand)
	}

	summaryBuilder := repos.SummaryCommandBuilder{
		StoreProvider:        storeProvider,
		OutputFormatProvider: outputFormatProvider,
	}
	if summaryCommand, buildError := summaryBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(summaryCommand)
	}

	forgetBuilder := repos.ForgetCommandBuilder{
		LoggerProvider:       loggerProvider,
		StoreProvider:        storeProvider,
		OutputFormatProvider: outputFormatProvider,
		HomeExpander:         application.homeExpander,
	}
	if forgetCommand, buildError := forgetBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(forgetCommand)
	}

	permissionBuilder := repos.PermissionCommandBuilder{
		OutputFormatProvider: outputFormatProvider,
		GatesProvider:        gatesProvider,
		CatModeProvider:      catModeProvider,
		HomeExpander:         application.homeExpander,
	}
	if permissionCommand, buildError := permissionBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(permissionCommand)
	}

	configBuilder := configCommandBuilder{application: application}
	if configCommand, buildError := configBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(configCommand)
	}

	mcpBuilder := mcp.CommandBuilder{
		LoggerProvider:      loggerProvider,
		StoreProvider:       storeProvider,
		ScanServiceProvider: application.buildScanService,
		ConfigurationProvider: func() config.Configuration {
			return application.configuration
		},
		AutomatedGateProvider: func() *permission.Gate { return application.artifacts.AutomatedGate },
	}
	if mcpCommand, buildError := mcpBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(mcpCommand)
	}
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.Load(
		application.configurationFilePath,
		config.DefaultConfigurationValues(),
		&application.configuration,
	)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, databaseFlagNameConstant) {
		application.configuration.Catalog.DatabasePath = application.databasePathFlagValue
	}

	application.configuration = application.configuration.SanitizeWithHomeExpander(application.homeExpander)

	compiledArtifacts, compileError := application.configuration.Compile()
	if compileError != nil {
		return compileError
	}
	application.artifacts = compiledArtifacts

	if application.persistentFlagChanged(command, outputFormatFlagNameConstant) {
		parsedFormat, parseError := output.ParseFormat(application.outputFormatFlagValue)
		if parseError != nil {
			return parseError
		}
		application.outputFormat = parsedFormat
	}

	logger, loggerCreationError := application.createLogger(command)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

// createLogger builds the command logger. The MCP command logs to a rotating
// file because stdout and stderr belong to the stdio protocol stream.
func (application *Application) createLogger(command *cobra.Command) (*zap.Logger, error) {
	logLevel := utils.LogLevel(application.configuration.Common.LogLevel)
	if command != nil && command.Name() == mcp.CommandName {
		logFilePath := filepath.Join(filepath.Dir(application.configuration.Catalog.DatabasePath), mcpLogFileNameConstant)
		return application.loggerFactory.CreateFileLogger(logLevel, logFilePath)
	}
	return application.loggerFactory.CreateLogger(logLevel, utils.LogFormat(application.configuration.Common.LogFormat))
}

// openStore opens the catalogue database on first use and reuses the handle
// for every later provider call in the same process.
func (application *Application) openStore() (*index.Store, error) {
	if application.store != nil {
		return application.store, nil
	}
	databasePath := application.configuration.Catalog.DatabasePath
	if len(databasePath) == 0 {
		return nil, errors.New(storeNotInitializedMessageConstant)
	}
	store, openError := index.NewStore(databasePath, application.logger)
	if openError != nil {
		return nil, openError
	}
	application.store = store
	return store, nil
}

func (application *Application) buildScanService() (*scan.Service, error) {
	store, storeError := application.openStore()
	if storeError != nil {
		return nil, storeError
	}

	executor, executorError := execshell.NewShellExecutor(application.logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return nil, executorError
	}
	collector, collectorError := vitals.NewCollector(executor)
	if collectorError != nil {
		return nil, collectorError
	}
	classifier := classify.NewClassifier(application.artifacts.CompiledRules)

	return scan.NewService(store, collector, classifier, scan.ServiceOptions{
		Logger:           application.logger,
		Observer:         application.scanProgressObserver(),
		LockPath:         application.configuration.Catalog.DatabasePath + scanLockFileSuffixConstant,
		AutoVerifyPeriod: application.configuration.Scan.AutoVerifyPeriod(),
	})
}

// scanProgressObserver streams discovery progress to stderr for interactive
// runs. Structured formats keep the side channel silent so their output stays
// machine-parseable.
func (application *Application) scanProgressObserver() scan.TraversalObserver {
	if application.outputFormat != output.FormatHuman {
		return nil
	}
	return newScanProgressObserver(utils.NewFlushingWriter(application.rootCommand.ErrOrStderr()), application.homeExpander)
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}
		if flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
