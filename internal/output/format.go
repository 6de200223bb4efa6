// Package output selects and renders command result formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format selects how command results are rendered.
type Format string

// Supported output formats.
const (
	FormatHuman     Format = "human"
	FormatJSON      Format = "json"
	FormatPaths     Format = "paths"
	FormatPathsNull Format = "paths0"
)

const (
	unknownFormatErrorTemplateConstant = "unknown output format %q (valid formats: human, json, paths, paths0)"
	jsonIndentConstant                 = "  "
	pathRecordSeparatorConstant        = byte('\n')
	pathRecordTerminatorConstant       = byte(0)
)

// ParseFormat resolves a textual format name case-insensitively.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatHuman:
		return FormatHuman, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatPaths:
		return FormatPaths, nil
	case FormatPathsNull:
		return FormatPathsNull, nil
	default:
		return Format(""), fmt.Errorf(unknownFormatErrorTemplateConstant, value)
	}
}

// IsPathListing reports whether the format renders bare path records.
func (format Format) IsPathListing() bool {
	return format == FormatPaths || format == FormatPathsNull
}

// WriteJSON renders a document as indented JSON followed by a newline.
func WriteJSON(writer io.Writer, document any) error {
	encodedDocument, marshalError := json.MarshalIndent(document, "", jsonIndentConstant)
	if marshalError != nil {
		return marshalError
	}
	_, writeError := fmt.Fprintf(writer, "%s\n", encodedDocument)
	return writeError
}

// WritePaths renders one record per path. FormatPathsNull terminates records
// with NUL bytes so paths containing newlines stay parseable; every other
// format separates records with newlines.
func WritePaths(writer io.Writer, format Format, paths []string) error {
	recordSeparator := pathRecordSeparatorConstant
	if format == FormatPathsNull {
		recordSeparator = pathRecordTerminatorConstant
	}
	for _, path := range paths {
		if _, writeError := writer.Write(append([]byte(path), recordSeparator)); writeError != nil {
			return writeError
		}
	}
	return nil
}
