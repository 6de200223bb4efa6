package tests

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	environmentLogLevelVariableConstant = "GIDX_COMMON_LOG_LEVEL"
	environmentLogLevelValueConstant    = "warn"
	permissionProbePathConstant         = "probe-target"
)

func TestConfigCommandShowsFileAndEnvironmentLayers(testInstance *testing.T) {
	environment := newIntegrationEnvironment(testInstance)

	configOutput, configError := runGidxCommand(testInstance, environment, nil, "config")
	require.NoError(testInstance, configError)
	require.Contains(testInstance, configOutput, "# loaded from "+environment.configurationPath)
	require.Contains(testInstance, configOutput, "log_level: error")
	require.Contains(testInstance, configOutput, "database_path: "+environment.databasePath)

	testInstance.Setenv(environmentLogLevelVariableConstant, environmentLogLevelValueConstant)
	overriddenOutput, overriddenError := runGidxCommand(testInstance, environment, nil, "config")
	require.NoError(testInstance, overriddenError)
	require.Contains(testInstance, overriddenOutput, "log_level: "+environmentLogLevelValueConstant)
}

func TestPermissionCommandReportsConfiguredLevels(testInstance *testing.T) {
	environment := newIntegrationEnvironment(testInstance)
	probePath := filepath.Join(environment.scanRoot, permissionProbePathConstant)

	interactiveOutput, interactiveError := runGidxCommand(testInstance, environment, nil, "permission", probePath)
	require.NoError(testInstance, interactiveError)
	require.Contains(testInstance, interactiveOutput, "interactive: commit")
	require.Contains(testInstance, interactiveOutput, "allows: read, fetch, write")

	automatedOutput, automatedError := runGidxCommand(testInstance, environment, nil, "permission", probePath, "--context", "automated")
	require.NoError(testInstance, automatedError)
	require.Contains(testInstance, automatedOutput, "automated: readonly")
	require.Contains(testInstance, automatedOutput, "allows: read")
	require.NotContains(testInstance, automatedOutput, "fetch")
}

func TestStatusForUnknownRepositoryFails(testInstance *testing.T) {
	environment := newIntegrationEnvironment(testInstance)

	_, statusError := runGidxCommand(testInstance, environment, nil, "status", "no-such-repository")
	require.Error(testInstance, statusError)
	require.Contains(testInstance, statusError.Error(), "no-such-repository")
}

func TestUnknownOutputFormatFailsBeforeRunning(testInstance *testing.T) {
	environment := newIntegrationEnvironment(testInstance)

	_, listError := runGidxCommand(testInstance, environment, nil, "list", "--format", "sideways")
	require.Error(testInstance, listError)
	require.Contains(testInstance, listError.Error(), "sideways")
}
