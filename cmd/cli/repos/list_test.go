package repos_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/gidx/cmd/cli/repos"
	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/output"
)

func buildListCommand(testInstance *testing.T, store *index.Store, format output.Format) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()

	builder := &repos.ListCommandBuilder{
		StoreProvider:        storeProviderFor(store),
		OutputFormatProvider: func() output.Format { return format },
		HomeExpander:         testHomeExpander(),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	return command, outputBuffer
}

func TestListCommandFilters(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedNames []string
	}{
		{
			name:          "no_flags_lists_everything",
			arguments:     []string{},
			expectedNames: []string{"gadget", "widget", "scratch", "ghost"},
		},
		{
			name:          "dirty_only",
			arguments:     []string{"--dirty"},
			expectedNames: []string{"gadget"},
		},
		{
			name:          "unpushed_only",
			arguments:     []string{"--unpushed"},
			expectedNames: []string{"widget"},
		},
		{
			name:          "orphan_only",
			arguments:     []string{"--orphan"},
			expectedNames: []string{"scratch", "ghost"},
		},
		{
			name:          "lost_only",
			arguments:     []string{"--lost"},
			expectedNames: []string{"ghost"},
		},
		{
			name:          "organization_filter",
			arguments:     []string{"--org", "acme"},
			expectedNames: []string{"gadget", "widget"},
		},
		{
			name:          "path_prefix_filter",
			arguments:     []string{"--path-prefix", testHomeDirectoryConstant + "/tmp"},
			expectedNames: []string{"scratch"},
		},
		{
			name:          "name_contains_filter",
			arguments:     []string{"--name", "get"},
			expectedNames: []string{"gadget", "widget"},
		},
		{
			name:          "no_remote_filter",
			arguments:     []string{"--has-remote=false"},
			expectedNames: []string{"scratch", "ghost"},
		},
		{
			name:          "combined_filters",
			arguments:     []string{"--org", "acme", "--dirty"},
			expectedNames: []string{"gadget"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			store := newTestStore(testInstance)
			seedListFixtures(testInstance, store)

			command, outputBuffer := buildListCommand(testInstance, store, output.FormatJSON)
			command.SetArgs(testCase.arguments)
			require.NoError(testInstance, command.Execute())

			var entries []catalog.Entry
			require.NoError(testInstance, json.Unmarshal(outputBuffer.Bytes(), &entries))

			listedNames := make([]string, 0, len(entries))
			for _, entry := range entries {
				listedNames = append(listedNames, entry.Name)
			}
			require.Equal(testInstance, testCase.expectedNames, listedNames)
		})
	}
}

func TestListCommandRejectsUnknownFreshness(testInstance *testing.T) {
	store := newTestStore(testInstance)

	command, _ := buildListCommand(testInstance, store, output.FormatHuman)
	command.SetArgs([]string{"--freshness", "mouldy"})

	executionError := command.Execute()
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "mouldy")
}

func TestListCommandHumanOutput(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, outputBuffer := buildListCommand(testInstance, store, output.FormatHuman)
	command.SetArgs([]string{"--dirty"})
	require.NoError(testInstance, command.Execute())

	renderedOutput := outputBuffer.String()
	require.Contains(testInstance, renderedOutput, "gadget")
	require.Contains(testInstance, renderedOutput, "~/code/gadget")
	require.Contains(testInstance, renderedOutput, "[dirty]")
	require.Contains(testInstance, renderedOutput, "  1 repos\n")
}

func TestListCommandPathsOutput(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, outputBuffer := buildListCommand(testInstance, store, output.FormatPaths)
	command.SetArgs([]string{"--org", "acme"})
	require.NoError(testInstance, command.Execute())

	expectedPaths := []string{
		testHomeDirectoryConstant + "/code/gadget",
		testHomeDirectoryConstant + "/code/widget",
	}
	require.Equal(testInstance, strings.Join(expectedPaths, "\n")+"\n", outputBuffer.String())
}

func TestListCommandNullSeparatedPaths(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, outputBuffer := buildListCommand(testInstance, store, output.FormatPathsNull)
	command.SetArgs([]string{"--lost"})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, testHomeDirectoryConstant+"/code/ghost\x00", outputBuffer.String())
}
