package output_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gidx/internal/output"
)

func TestParseFormat(testInstance *testing.T) {
	testCases := []struct {
		name           string
		inputValue     string
		expectedFormat output.Format
		expectError    bool
	}{
		{name: "human", inputValue: "human", expectedFormat: output.FormatHuman},
		{name: "json", inputValue: "json", expectedFormat: output.FormatJSON},
		{name: "paths", inputValue: "paths", expectedFormat: output.FormatPaths},
		{name: "paths_null", inputValue: "paths0", expectedFormat: output.FormatPathsNull},
		{name: "mixed_case_with_spaces", inputValue: "  JSON ", expectedFormat: output.FormatJSON},
		{name: "unknown_value", inputValue: "table", expectError: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			parsedFormat, parseError := output.ParseFormat(testCase.inputValue)

			if testCase.expectError {
				require.Error(subTest, parseError)
				return
			}
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expectedFormat, parsedFormat)
		})
	}
}

func TestFormatIsPathListing(testInstance *testing.T) {
	require.True(testInstance, output.FormatPaths.IsPathListing())
	require.True(testInstance, output.FormatPathsNull.IsPathListing())
	require.False(testInstance, output.FormatHuman.IsPathListing())
	require.False(testInstance, output.FormatJSON.IsPathListing())
}

func TestWriteJSONRendersIndentedDocument(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}

	writeError := output.WriteJSON(outputBuffer, map[string]int{"total": 3})

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "{\n  \"total\": 3\n}\n", outputBuffer.String())
}

func TestWritePathsSeparatesRecordsByFormat(testInstance *testing.T) {
	testCases := []struct {
		name           string
		format         output.Format
		expectedOutput string
	}{
		{name: "newline_records", format: output.FormatPaths, expectedOutput: "/code/a\n/code/b\n"},
		{name: "nul_terminated_records", format: output.FormatPathsNull, expectedOutput: "/code/a\x00/code/b\x00"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			outputBuffer := &bytes.Buffer{}

			writeError := output.WritePaths(outputBuffer, testCase.format, []string{"/code/a", "/code/b"})

			require.NoError(subTest, writeError)
			require.Equal(subTest, testCase.expectedOutput, outputBuffer.String())
		})
	}
}
