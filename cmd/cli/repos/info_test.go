package repos_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/gidx/cmd/cli/repos"
	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/output"
	"github.com/temirov/gidx/internal/permission"
)

func buildInfoCommand(testInstance *testing.T, store *index.Store, format output.Format) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()

	interactiveGate, automatedGate := testGates(testInstance)
	builder := &repos.InfoCommandBuilder{
		StoreProvider:        storeProviderFor(store),
		OutputFormatProvider: func() output.Format { return format },
		GatesProvider: func() (*permission.Gate, *permission.Gate) {
			return interactiveGate, automatedGate
		},
		CatModeProvider: func() bool { return false },
		HomeExpander:    testHomeExpander(),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	return command, outputBuffer
}

func TestInfoCommandRendersClassificationDetail(testInstance *testing.T) {
	store := newTestStore(testInstance)
	lastCommitTime := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
	seedEntry(testInstance, store, catalog.Entry{
		Name:             "platform",
		Path:             testHomeDirectoryConstant + "/code/platform",
		DefaultBranch:    "main",
		CurrentBranch:    "feature/login",
		BranchCount:      7,
		StaleBranchCount: 2,
		Remotes: []catalog.Remote{
			{Name: catalog.OriginRemoteNameConstant, URL: "git@github.com:acme/platform.git"},
		},
		LastCommit: timePointer(lastCommitTime),
		Ownership:  catalog.Ownership{Kind: catalog.OwnershipKindWork, Label: "acme"},
		Intention:  catalog.IntentionDeveloping,
		Category:   catalog.CategoryOrigin,
		ManagedBy:  "homebrew",
		Tags:       []string{"backend", "billing"},
		Project:    "payments",
		Role:       "service",
	})

	command, outputBuffer := buildInfoCommand(testInstance, store, output.FormatHuman)
	command.SetArgs([]string{"platform"})
	require.NoError(testInstance, command.Execute())

	renderedOutput := outputBuffer.String()
	require.Contains(testInstance, renderedOutput, "branch: feature/login / main")
	require.Contains(testInstance, renderedOutput, "branches: 7 (2 stale)")
	require.Contains(testInstance, renderedOutput, "ownership: work:acme")
	require.Contains(testInstance, renderedOutput, "intention: developing")
	require.Contains(testInstance, renderedOutput, "category: origin")
	require.Contains(testInstance, renderedOutput, "managed by: homebrew")
	require.Contains(testInstance, renderedOutput, "tags: backend, billing")
	require.Contains(testInstance, renderedOutput, "project: payments")
	require.Contains(testInstance, renderedOutput, "role: service")
	require.Contains(testInstance, renderedOutput, "first seen:")
	require.Contains(testInstance, renderedOutput, "permission: commit (interactive), readonly (automated)")
}

func TestInfoCommandAppliesOverrideLevels(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedEntry(testInstance, store, catalog.Entry{
		Name: "vendored-lib",
		Path: testHomeDirectoryConstant + "/vendor/vendored-lib",
	})

	command, outputBuffer := buildInfoCommand(testInstance, store, output.FormatHuman)
	command.SetArgs([]string{"vendored-lib"})
	require.NoError(testInstance, command.Execute())

	require.Contains(testInstance, outputBuffer.String(), "permission: readonly (interactive), readonly (automated)")
}
