package repos_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/gidx/cmd/cli/repos"
	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/output"
)

func buildSummaryCommand(testInstance *testing.T, store *index.Store, format output.Format) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()

	builder := &repos.SummaryCommandBuilder{
		StoreProvider:        storeProviderFor(store),
		OutputFormatProvider: func() output.Format { return format },
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	return command, outputBuffer
}

func buildFreshnessCommand(testInstance *testing.T, store *index.Store, format output.Format) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()

	builder := &repos.FreshnessCommandBuilder{
		StoreProvider:        storeProviderFor(store),
		OutputFormatProvider: func() output.Format { return format },
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	return command, outputBuffer
}

func seedFreshnessFixtures(testInstance *testing.T, store *index.Store) {
	testInstance.Helper()

	seedEntry(testInstance, store, catalog.Entry{Name: "fresh-a", Path: "/code/fresh-a", Freshness: catalog.FreshnessActive})
	seedEntry(testInstance, store, catalog.Entry{Name: "fresh-b", Path: "/code/fresh-b", Freshness: catalog.FreshnessActive})
	seedEntry(testInstance, store, catalog.Entry{Name: "stale-a", Path: "/code/stale-a", Freshness: catalog.FreshnessStale})
	seedEntry(testInstance, store, catalog.Entry{Name: "old-a", Path: "/code/old-a", Freshness: catalog.FreshnessAncient})
}

func TestSummaryCommandHumanOutput(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)
	require.NoError(testInstance, store.RecordScan(
		context.Background(),
		[]string{testHomeDirectoryConstant + "/code"},
		4,
	))

	command, outputBuffer := buildSummaryCommand(testInstance, store, output.FormatHuman)
	command.SetArgs([]string{})
	require.NoError(testInstance, command.Execute())

	renderedOutput := outputBuffer.String()
	require.Contains(testInstance, renderedOutput, "repos      4")
	require.Contains(testInstance, renderedOutput, "dirty      1")
	require.Contains(testInstance, renderedOutput, "unpushed   1")
	require.Contains(testInstance, renderedOutput, "lost       1")
	require.Contains(testInstance, renderedOutput, "last scan")
	require.Contains(testInstance, renderedOutput, testHomeDirectoryConstant+"/code")
}

func TestSummaryCommandBeforeFirstScan(testInstance *testing.T) {
	store := newTestStore(testInstance)

	command, outputBuffer := buildSummaryCommand(testInstance, store, output.FormatHuman)
	command.SetArgs([]string{})
	require.NoError(testInstance, command.Execute())

	require.Contains(testInstance, outputBuffer.String(), "last scan  never")
}

func TestSummaryCommandRendersJSON(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedListFixtures(testInstance, store)

	command, outputBuffer := buildSummaryCommand(testInstance, store, output.FormatJSON)
	command.SetArgs([]string{})
	require.NoError(testInstance, command.Execute())

	var summaryDocument index.Summary
	require.NoError(testInstance, json.Unmarshal(outputBuffer.Bytes(), &summaryDocument))
	require.Equal(testInstance, 4, summaryDocument.TotalCount)
	require.Equal(testInstance, 1, summaryDocument.DirtyCount)
	require.Equal(testInstance, 1, summaryDocument.UnpushedCount)
	require.Equal(testInstance, 1, summaryDocument.LostCount)
}

func TestFreshnessCommandCountsTiers(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedFreshnessFixtures(testInstance, store)

	command, outputBuffer := buildFreshnessCommand(testInstance, store, output.FormatHuman)
	command.SetArgs([]string{})
	require.NoError(testInstance, command.Execute())

	expectedOutput := "  active   2\n" +
		"  recent   0\n" +
		"  stale    1\n" +
		"  dormant  0\n" +
		"  ancient  1\n"
	require.Equal(testInstance, expectedOutput, outputBuffer.String())
}

func TestFreshnessCommandRendersJSON(testInstance *testing.T) {
	store := newTestStore(testInstance)
	seedFreshnessFixtures(testInstance, store)

	command, outputBuffer := buildFreshnessCommand(testInstance, store, output.FormatJSON)
	command.SetArgs([]string{})
	require.NoError(testInstance, command.Execute())

	var freshnessDocument index.FreshnessSummary
	require.NoError(testInstance, json.Unmarshal(outputBuffer.Bytes(), &freshnessDocument))
	require.Equal(testInstance, index.FreshnessSummary{Active: 2, Stale: 1, Ancient: 1}, freshnessDocument)
}
