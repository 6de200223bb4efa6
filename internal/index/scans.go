package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	insertScanStatementConstant          = "INSERT INTO scans (completed_at, roots, repo_count) VALUES (?, ?, ?)"
	selectLastScanTimeStatementConstant  = "SELECT completed_at FROM scans ORDER BY id DESC LIMIT 1"
	selectLastScanRootsStatementConstant = "SELECT roots FROM scans ORDER BY id DESC LIMIT 1"

	scanHistoryErrorTemplateConstant = "record scan history: %w"
	emptyRootsDocumentConstant       = "[]"
)

// RecordScan appends a completed scan to the history.
func (store *Store) RecordScan(requestContext context.Context, roots []string, repositoryCount int) error {
	rootsDocument, marshalError := json.Marshal(roots)
	if marshalError != nil {
		rootsDocument = []byte(emptyRootsDocumentConstant)
	}

	completedAt := encodeTime(time.Now())
	if _, executionError := store.databaseHandle.ExecContext(requestContext, insertScanStatementConstant, completedAt, string(rootsDocument), repositoryCount); executionError != nil {
		return fmt.Errorf(scanHistoryErrorTemplateConstant, executionError)
	}
	return nil
}

// LastScanTime returns when the most recent scan completed, or nil when no
// scan has run.
func (store *Store) LastScanTime(requestContext context.Context) (*time.Time, error) {
	var storedValue string
	scanError := store.databaseHandle.QueryRowContext(requestContext, selectLastScanTimeStatementConstant).Scan(&storedValue)
	if errors.Is(scanError, sql.ErrNoRows) {
		return nil, nil
	}
	if scanError != nil {
		return nil, fmt.Errorf(scanHistoryErrorTemplateConstant, scanError)
	}

	parsedTime, parseError := time.Parse(storedTimestampLayoutConstant, storedValue)
	if parseError != nil {
		return nil, nil
	}
	parsedTime = parsedTime.UTC()
	return &parsedTime, nil
}

func (store *Store) lastScanRoots(requestContext context.Context) ([]string, error) {
	var storedValue string
	scanError := store.databaseHandle.QueryRowContext(requestContext, selectLastScanRootsStatementConstant).Scan(&storedValue)
	if errors.Is(scanError, sql.ErrNoRows) {
		return []string{}, nil
	}
	if scanError != nil {
		return nil, fmt.Errorf(scanHistoryErrorTemplateConstant, scanError)
	}

	roots := make([]string, 0)
	if unmarshalError := json.Unmarshal([]byte(storedValue), &roots); unmarshalError != nil {
		return []string{}, nil
	}
	return roots, nil
}
