package execshell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCommandEnvironmentAppliesReadOnlyGuards(testInstance *testing.T) {
	environment := buildCommandEnvironment(nil)

	require.Contains(testInstance, environment, "GIT_TERMINAL_PROMPT=0")
	require.Contains(testInstance, environment, "GIT_OPTIONAL_LOCKS=0")
}

func TestBuildCommandEnvironmentLetsCommandVariablesOverrideGuards(testInstance *testing.T) {
	testInstance.Setenv("GIT_OPTIONAL_LOCKS", "ambient")

	environment := buildCommandEnvironment(map[string]string{
		"GIT_OPTIONAL_LOCKS": "1",
		"GIT_DIR":            "/srv/mirrors/tools.git",
	})

	require.Contains(testInstance, environment, "GIT_OPTIONAL_LOCKS=1")
	require.NotContains(testInstance, environment, "GIT_OPTIONAL_LOCKS=0")
	require.Contains(testInstance, environment, "GIT_DIR=/srv/mirrors/tools.git")
	require.Contains(testInstance, environment, "GIT_TERMINAL_PROMPT=0")
}
