package tests

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gidx/cmd/cli"
)

const (
	integrationGitExecutableConstant        = "git"
	integrationGitMissingSkipMessage        = "git executable not available"
	integrationConfigurationFileName        = "config.yaml"
	integrationDatabaseFileNameConstant     = "catalog.db"
	integrationCommitterNameConstant        = "Integration Tester"
	integrationCommitterEmailConstant       = "integration@example.invalid"
	integrationInitialCommitMessageConstant = "initial commit"
	integrationSeedFileNameConstant         = "README.md"
	integrationSeedFileContentConstant      = "seed\n"
)

// integrationEnvironment holds the shared fixture paths for one test: a
// configuration file, a database path, and a scan root.
type integrationEnvironment struct {
	configurationPath string
	databasePath      string
	scanRoot          string
}

func requireGitExecutable(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(integrationGitExecutableConstant); lookupError != nil {
		testInstance.Skip(integrationGitMissingSkipMessage)
	}
}

func newIntegrationEnvironment(testInstance *testing.T) integrationEnvironment {
	testInstance.Helper()

	stateDirectory := testInstance.TempDir()
	scanRoot := testInstance.TempDir()
	databasePath := filepath.Join(stateDirectory, integrationDatabaseFileNameConstant)
	configurationPath := filepath.Join(stateDirectory, integrationConfigurationFileName)

	configurationContent := "common:\n" +
		"  log_level: error\n" +
		"catalog:\n" +
		"  database_path: " + databasePath + "\n" +
		"scan:\n" +
		"  roots:\n" +
		"    - " + scanRoot + "\n" +
		"  cross_mounts: true\n"
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o644))

	return integrationEnvironment{
		configurationPath: configurationPath,
		databasePath:      databasePath,
		scanRoot:          scanRoot,
	}
}

// runGidxCommand executes the root command in-process with a fresh
// application instance, the way a shell invocation would.
func runGidxCommand(testInstance *testing.T, environment integrationEnvironment, standardInput io.Reader, arguments ...string) (string, error) {
	testInstance.Helper()

	application := cli.NewApplication()
	rootCommand := application.RootCommand()

	outputBuffer := &bytes.Buffer{}
	rootCommand.SetOut(outputBuffer)
	rootCommand.SetErr(outputBuffer)
	if standardInput != nil {
		rootCommand.SetIn(standardInput)
	}

	fullArguments := append([]string{"--config", environment.configurationPath}, arguments...)
	rootCommand.SetArgs(fullArguments)

	executionError := application.Execute()
	return outputBuffer.String(), executionError
}

func runGitCommand(testInstance *testing.T, repositoryPath string, arguments ...string) {
	testInstance.Helper()

	gitCommand := exec.Command(integrationGitExecutableConstant, arguments...)
	gitCommand.Dir = repositoryPath
	gitCommand.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	commandOutput, commandError := gitCommand.CombinedOutput()
	require.NoError(testInstance, commandError, string(commandOutput))
}

// initializeGitRepository creates a real repository with one commit under the
// scan root and returns its path.
func initializeGitRepository(testInstance *testing.T, scanRoot string, repositoryName string) string {
	testInstance.Helper()

	repositoryPath := filepath.Join(scanRoot, repositoryName)
	require.NoError(testInstance, os.MkdirAll(repositoryPath, 0o755))

	runGitCommand(testInstance, repositoryPath, "init", "--initial-branch=main")
	runGitCommand(testInstance, repositoryPath, "config", "user.name", integrationCommitterNameConstant)
	runGitCommand(testInstance, repositoryPath, "config", "user.email", integrationCommitterEmailConstant)

	seedFilePath := filepath.Join(repositoryPath, integrationSeedFileNameConstant)
	require.NoError(testInstance, os.WriteFile(seedFilePath, []byte(integrationSeedFileContentConstant), 0o644))
	runGitCommand(testInstance, repositoryPath, "add", integrationSeedFileNameConstant)
	runGitCommand(testInstance, repositoryPath, "commit", "-m", integrationInitialCommitMessageConstant)

	return repositoryPath
}
