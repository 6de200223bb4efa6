package repos_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/gidx/cmd/cli/repos"
	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/output"
	"github.com/temirov/gidx/internal/permission"
)

func buildStatusCommand(testInstance *testing.T, store *index.Store, format output.Format, catMode bool) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()

	interactiveGate, automatedGate := testGates(testInstance)
	builder := &repos.StatusCommandBuilder{
		StoreProvider:        storeProviderFor(store),
		OutputFormatProvider: func() output.Format { return format },
		GatesProvider: func() (*permission.Gate, *permission.Gate) {
			return interactiveGate, automatedGate
		},
		CatModeProvider: func() bool { return catMode },
		HomeExpander:    testHomeExpander(),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	return command, outputBuffer
}

func TestStatusCommandRendersEntryByName(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, outputBuffer := buildStatusCommand(testInstance, store, output.FormatHuman, false)
	command.SetArgs([]string{"gadget"})
	require.NoError(testInstance, command.Execute())

	renderedOutput := outputBuffer.String()
	require.Contains(testInstance, renderedOutput, "gadget")
	require.Contains(testInstance, renderedOutput, "path: ~/code/gadget")
	require.Contains(testInstance, renderedOutput, "state: active")
	require.Contains(testInstance, renderedOutput, "tree: dirty")
	require.Contains(testInstance, renderedOutput, "remote: origin → git@github.com:acme/gadget.git")
	require.Contains(testInstance, renderedOutput, "permission: commit")
}

func TestStatusCommandResolvesByPath(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, outputBuffer := buildStatusCommand(testInstance, store, output.FormatHuman, false)
	command.SetArgs([]string{"~/tmp/scratch"})
	require.NoError(testInstance, command.Execute())

	require.Contains(testInstance, outputBuffer.String(), "scratch")
}

func TestStatusCommandRendersCatModeLevel(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, outputBuffer := buildStatusCommand(testInstance, store, output.FormatHuman, true)
	command.SetArgs([]string{"gadget"})
	require.NoError(testInstance, command.Execute())

	require.Contains(testInstance, outputBuffer.String(), "permission: hunting")
}

func TestStatusCommandRendersJSON(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, outputBuffer := buildStatusCommand(testInstance, store, output.FormatJSON, false)
	command.SetArgs([]string{"widget"})
	require.NoError(testInstance, command.Execute())

	var entry catalog.Entry
	require.NoError(testInstance, json.Unmarshal(outputBuffer.Bytes(), &entry))
	require.Equal(testInstance, "widget", entry.Name)
	require.Equal(testInstance, 2, entry.AheadCount)
}

func TestStatusCommandUnknownRepository(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, _ := buildStatusCommand(testInstance, store, output.FormatHuman, false)
	command.SetArgs([]string{"no-such-repo"})

	executionError := command.Execute()
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "no-such-repo")
}

func TestStatusCommandExcludesLostFromNameLookup(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, _ := buildStatusCommand(testInstance, store, output.FormatHuman, false)
	command.SetArgs([]string{"ghost"})

	require.Error(testInstance, command.Execute())
}
