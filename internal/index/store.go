package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver.
)

const (
	databaseDriverNameConstant       = "sqlite"
	inMemoryDatabaseLocatorConstant  = ":memory:"
	dataDirectoryPermissionsConstant = 0o755

	baseSchemaVersionConstant      = 1
	managedBySchemaVersionConstant = 2
	bareFlagSchemaVersionConstant  = 3
	currentSchemaVersionConstant   = bareFlagSchemaVersionConstant

	dataDirectoryErrorTemplateConstant   = "create data directory %s: %w"
	databaseOpenErrorTemplateConstant    = "open catalogue database: %w"
	pragmaErrorTemplateConstant          = "apply pragma %q: %w"
	schemaUpgradeErrorTemplateConstant   = "upgrade schema to version %d: %w"
	schemaVersionFieldNameConstant       = "schema_version"
	databasePathFieldNameConstant        = "database_path"
	schemaReadyMessageConstant           = "Catalogue schema ready"
	schemaVersionSelectStatementConstant = "SELECT version FROM schema_version LIMIT 1"
	schemaVersionInsertStatementConstant = "INSERT INTO schema_version (version) VALUES (?)"
	schemaVersionUpdateStatementConstant = "UPDATE schema_version SET version = ?"
)

// ErrLoggerNotConfigured indicates a Store was constructed without a logger.
var ErrLoggerNotConfigured = errors.New("logger not configured")

var connectionPragmaStatements = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// Version 1 schema. Columns introduced by later versions are absent here and
// arrive through the upgrade statements, on fresh databases too.
const baseSchemaStatementConstant = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS repos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    state TEXT NOT NULL DEFAULT 'active',
    default_branch TEXT,
    current_branch TEXT,
    branch_count INTEGER NOT NULL DEFAULT 0,
    stale_branch_count INTEGER NOT NULL DEFAULT 0,
    dirty INTEGER NOT NULL DEFAULT 0,
    staged INTEGER NOT NULL DEFAULT 0,
    untracked INTEGER NOT NULL DEFAULT 0,
    ahead INTEGER NOT NULL DEFAULT 0,
    behind INTEGER NOT NULL DEFAULT 0,
    last_commit TEXT,
    last_verified TEXT,
    first_seen TEXT NOT NULL,
    freshness TEXT NOT NULL DEFAULT 'ancient',
    category TEXT,
    ownership_type TEXT,
    ownership_label TEXT,
    intention TEXT,
    project TEXT,
    role TEXT
);

CREATE TABLE IF NOT EXISTS remotes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    repo_id INTEGER NOT NULL REFERENCES repos(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    push_url TEXT
);

CREATE TABLE IF NOT EXISTS tags (
    repo_id INTEGER NOT NULL REFERENCES repos(id) ON DELETE CASCADE,
    tag TEXT NOT NULL,
    PRIMARY KEY (repo_id, tag)
);

CREATE TABLE IF NOT EXISTS scans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    completed_at TEXT NOT NULL,
    roots TEXT NOT NULL,
    repo_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_repos_path ON repos(path);
CREATE INDEX IF NOT EXISTS idx_repos_name ON repos(name);
CREATE INDEX IF NOT EXISTS idx_repos_state ON repos(state);
CREATE INDEX IF NOT EXISTS idx_remotes_repo_id ON remotes(repo_id);
CREATE INDEX IF NOT EXISTS idx_tags_repo_id ON tags(repo_id);
`

const (
	managedByUpgradeStatementConstant = "ALTER TABLE repos ADD COLUMN managed_by TEXT"
	bareFlagUpgradeStatementConstant  = "ALTER TABLE repos ADD COLUMN is_bare INTEGER NOT NULL DEFAULT 0"
)

// Store is the persistent repository catalogue.
type Store struct {
	databaseHandle *sql.DB
	logger         *zap.Logger
}

// NewStore opens or creates the catalogue database at the supplied path,
// creating parent directories as needed, and upgrades the schema to the
// current version.
func NewStore(databasePath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	parentDirectory := filepath.Dir(databasePath)
	if directoryError := os.MkdirAll(parentDirectory, dataDirectoryPermissionsConstant); directoryError != nil {
		return nil, fmt.Errorf(dataDirectoryErrorTemplateConstant, parentDirectory, directoryError)
	}

	return openStore(databasePath, logger)
}

// NewInMemoryStore opens a throwaway catalogue for tests.
func NewInMemoryStore(logger *zap.Logger) (*Store, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return openStore(inMemoryDatabaseLocatorConstant, logger)
}

func openStore(databaseLocator string, logger *zap.Logger) (*Store, error) {
	databaseHandle, openError := sql.Open(databaseDriverNameConstant, databaseLocator)
	if openError != nil {
		return nil, fmt.Errorf(databaseOpenErrorTemplateConstant, openError)
	}

	// SQLite has a single writer; more pooled connections than one produce
	// SQLITE_BUSY between goroutines instead of queueing.
	databaseHandle.SetMaxOpenConns(1)

	for _, pragmaStatement := range connectionPragmaStatements {
		if _, pragmaError := databaseHandle.Exec(pragmaStatement); pragmaError != nil {
			databaseHandle.Close()
			return nil, fmt.Errorf(pragmaErrorTemplateConstant, pragmaStatement, pragmaError)
		}
	}

	store := &Store{databaseHandle: databaseHandle, logger: logger}
	if migrationError := store.migrate(); migrationError != nil {
		databaseHandle.Close()
		return nil, migrationError
	}

	store.logger.Debug(schemaReadyMessageConstant,
		zap.String(databasePathFieldNameConstant, databaseLocator),
		zap.Int(schemaVersionFieldNameConstant, currentSchemaVersionConstant),
	)

	return store, nil
}

// Close releases the underlying database connection.
func (store *Store) Close() error {
	if store.databaseHandle == nil {
		return nil
	}
	return store.databaseHandle.Close()
}

func (store *Store) migrate() error {
	recordedVersion := store.schemaVersion()

	if recordedVersion < baseSchemaVersionConstant {
		if upgradeError := store.applyUpgrade([]string{baseSchemaStatementConstant}, schemaVersionInsertStatementConstant, baseSchemaVersionConstant); upgradeError != nil {
			return upgradeError
		}
	}

	if recordedVersion < managedBySchemaVersionConstant {
		if upgradeError := store.applyUpgrade([]string{managedByUpgradeStatementConstant}, schemaVersionUpdateStatementConstant, managedBySchemaVersionConstant); upgradeError != nil {
			return upgradeError
		}
	}

	if recordedVersion < bareFlagSchemaVersionConstant {
		if upgradeError := store.applyUpgrade([]string{bareFlagUpgradeStatementConstant}, schemaVersionUpdateStatementConstant, bareFlagSchemaVersionConstant); upgradeError != nil {
			return upgradeError
		}
	}

	return nil
}

// applyUpgrade runs one migration step. The schema statements and the version
// bump commit together; a failure anywhere leaves the database at the prior
// version with no partial schema change.
func (store *Store) applyUpgrade(upgradeStatements []string, versionStatement string, schemaVersion int) error {
	transaction, beginError := store.databaseHandle.Begin()
	if beginError != nil {
		return fmt.Errorf(schemaUpgradeErrorTemplateConstant, schemaVersion, beginError)
	}

	for _, upgradeStatement := range upgradeStatements {
		if _, executionError := transaction.Exec(upgradeStatement); executionError != nil {
			transaction.Rollback()
			return fmt.Errorf(schemaUpgradeErrorTemplateConstant, schemaVersion, executionError)
		}
	}
	if _, executionError := transaction.Exec(versionStatement, schemaVersion); executionError != nil {
		transaction.Rollback()
		return fmt.Errorf(schemaUpgradeErrorTemplateConstant, schemaVersion, executionError)
	}

	if commitError := transaction.Commit(); commitError != nil {
		return fmt.Errorf(schemaUpgradeErrorTemplateConstant, schemaVersion, commitError)
	}
	return nil
}

func (store *Store) schemaVersion() int {
	var recordedVersion int
	scanError := store.databaseHandle.QueryRow(schemaVersionSelectStatementConstant).Scan(&recordedVersion)
	if scanError != nil {
		return 0
	}
	return recordedVersion
}
