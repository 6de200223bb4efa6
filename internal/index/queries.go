package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/gidx/internal/catalog"
)

const (
	upsertEntryStatementConstant = `
INSERT INTO repos (
    name, path, state, default_branch, current_branch,
    branch_count, stale_branch_count, dirty, staged, untracked,
    ahead, behind, is_bare, last_commit, last_verified, first_seen,
    freshness, category, ownership_type, ownership_label,
    intention, project, role, managed_by
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
    name = excluded.name,
    state = excluded.state,
    default_branch = excluded.default_branch,
    current_branch = excluded.current_branch,
    branch_count = excluded.branch_count,
    stale_branch_count = excluded.stale_branch_count,
    dirty = excluded.dirty,
    staged = excluded.staged,
    untracked = excluded.untracked,
    ahead = excluded.ahead,
    behind = excluded.behind,
    is_bare = excluded.is_bare,
    last_commit = excluded.last_commit,
    last_verified = excluded.last_verified,
    freshness = excluded.freshness,
    category = excluded.category,
    ownership_type = excluded.ownership_type,
    ownership_label = excluded.ownership_label,
    intention = excluded.intention,
    project = excluded.project,
    role = excluded.role,
    managed_by = excluded.managed_by
`

	selectEntryColumnsStatementConstant = `
SELECT
    id, name, path, state, default_branch, current_branch,
    branch_count, stale_branch_count, dirty, staged, untracked,
    ahead, behind, is_bare, last_commit, last_verified, first_seen,
    freshness, category, ownership_type, ownership_label,
    intention, project, role, managed_by
FROM repos WHERE id = ?
`

	selectIdentifierByPathStatementConstant      = "SELECT id FROM repos WHERE path = ?"
	selectIdentifierByExactNameStatementConstant = "SELECT id FROM repos WHERE name = ? AND state != 'lost' ORDER BY id LIMIT 1"
	selectIdentifierByNameLikeStatementConstant  = "SELECT id FROM repos WHERE name LIKE ? AND state != 'lost' ORDER BY id LIMIT 1"
	selectIdentifiersBaseQueryConstant           = "SELECT id FROM repos"
	identifierListOrderingClauseConstant         = " ORDER BY id"
	conditionJoinKeywordConstant                 = " WHERE "
	conditionSeparatorConstant                   = " AND "

	deleteRemotesStatementConstant = "DELETE FROM remotes WHERE repo_id = ?"
	insertRemoteStatementConstant  = "INSERT INTO remotes (repo_id, name, url, push_url) VALUES (?, ?, ?, ?)"
	selectRemotesStatementConstant = "SELECT name, url, push_url FROM remotes WHERE repo_id = ? ORDER BY id"
	deleteTagsStatementConstant    = "DELETE FROM tags WHERE repo_id = ?"
	insertTagStatementConstant     = "INSERT INTO tags (repo_id, tag) VALUES (?, ?)"
	selectTagsStatementConstant    = "SELECT tag FROM tags WHERE repo_id = ? ORDER BY tag"

	markLostStatementConstant      = "UPDATE repos SET state = 'lost' WHERE id = ?"
	forgetEntryStatementConstant   = "DELETE FROM repos WHERE id = ?"
	touchVerifiedStatementConstant = "UPDATE repos SET last_verified = ? WHERE id = ?"

	dirtyConditionConstant        = "dirty = ?"
	stateConditionConstant        = "state = ?"
	freshnessConditionConstant    = "freshness = ?"
	pathPrefixConditionConstant   = "path LIKE ?"
	nameContainsConditionConstant = "name LIKE ?"
	managedByConditionConstant    = "managed_by = ? COLLATE NOCASE"
	managedSetConditionConstant   = "managed_by IS NOT NULL"
	managedUnsetConditionConstant = "managed_by IS NULL"

	likePrefixTemplateConstant   = "%s%%"
	likeContainsTemplateConstant = "%%%s%%"

	upsertErrorTemplateConstant       = "upsert catalogue entry %s: %w"
	lookupErrorTemplateConstant       = "look up catalogue entry: %w"
	listErrorTemplateConstant         = "list catalogue entries: %w"
	loadErrorTemplateConstant         = "load catalogue entry %d: %w"
	stateChangeErrorTemplateConstant  = "update catalogue entry %d: %w"
	transactionErrorTemplateConstant  = "catalogue transaction: %w"
	storedTimestampLayoutConstant     = time.RFC3339Nano
	expectedListConditionCountMaximum = 7
)

// Upsert inserts or updates the entry keyed by its path and replaces its
// remotes and tags collections. The first-seen timestamp of an existing row
// is preserved. The canonical row identifier is returned.
func (store *Store) Upsert(requestContext context.Context, entry catalog.Entry) (catalog.EntryIdentifier, error) {
	transaction, beginError := store.databaseHandle.BeginTx(requestContext, nil)
	if beginError != nil {
		return 0, fmt.Errorf(transactionErrorTemplateConstant, beginError)
	}
	defer transaction.Rollback()

	if _, executionError := transaction.ExecContext(requestContext, upsertEntryStatementConstant, upsertArguments(entry)...); executionError != nil {
		return 0, fmt.Errorf(upsertErrorTemplateConstant, entry.Path, executionError)
	}

	// The upsert may have updated an existing row, so last-insert-id is not
	// reliable; the path key resolves the canonical identifier.
	var entryIdentifier catalog.EntryIdentifier
	if scanError := transaction.QueryRowContext(requestContext, selectIdentifierByPathStatementConstant, entry.Path).Scan(&entryIdentifier); scanError != nil {
		return 0, fmt.Errorf(upsertErrorTemplateConstant, entry.Path, scanError)
	}

	if _, executionError := transaction.ExecContext(requestContext, deleteRemotesStatementConstant, entryIdentifier); executionError != nil {
		return 0, fmt.Errorf(upsertErrorTemplateConstant, entry.Path, executionError)
	}
	for _, remote := range entry.Remotes {
		if _, executionError := transaction.ExecContext(requestContext, insertRemoteStatementConstant, entryIdentifier, remote.Name, remote.URL, nullableText(remote.PushURL)); executionError != nil {
			return 0, fmt.Errorf(upsertErrorTemplateConstant, entry.Path, executionError)
		}
	}

	if _, executionError := transaction.ExecContext(requestContext, deleteTagsStatementConstant, entryIdentifier); executionError != nil {
		return 0, fmt.Errorf(upsertErrorTemplateConstant, entry.Path, executionError)
	}
	for _, tag := range entry.Tags {
		if _, executionError := transaction.ExecContext(requestContext, insertTagStatementConstant, entryIdentifier, tag); executionError != nil {
			return 0, fmt.Errorf(upsertErrorTemplateConstant, entry.Path, executionError)
		}
	}

	if commitError := transaction.Commit(); commitError != nil {
		return 0, fmt.Errorf(transactionErrorTemplateConstant, commitError)
	}

	return entryIdentifier, nil
}

// FindByPath returns the entry stored under the exact path, or nil when the
// path is not catalogued.
func (store *Store) FindByPath(requestContext context.Context, path string) (*catalog.Entry, error) {
	var entryIdentifier catalog.EntryIdentifier
	scanError := store.databaseHandle.QueryRowContext(requestContext, selectIdentifierByPathStatementConstant, path).Scan(&entryIdentifier)
	if errors.Is(scanError, sql.ErrNoRows) {
		return nil, nil
	}
	if scanError != nil {
		return nil, fmt.Errorf(lookupErrorTemplateConstant, scanError)
	}
	return store.loadEntry(requestContext, entryIdentifier)
}

// FindByName resolves a name fuzzily: exact match, else prefix match, else
// substring match, earliest catalogued candidate first. Entries in the lost
// state are never returned. A nil entry means nothing matched.
func (store *Store) FindByName(requestContext context.Context, name string) (*catalog.Entry, error) {
	lookupStages := []struct {
		query    string
		argument string
	}{
		{query: selectIdentifierByExactNameStatementConstant, argument: name},
		{query: selectIdentifierByNameLikeStatementConstant, argument: fmt.Sprintf(likePrefixTemplateConstant, name)},
		{query: selectIdentifierByNameLikeStatementConstant, argument: fmt.Sprintf(likeContainsTemplateConstant, name)},
	}

	for _, lookupStage := range lookupStages {
		var entryIdentifier catalog.EntryIdentifier
		scanError := store.databaseHandle.QueryRowContext(requestContext, lookupStage.query, lookupStage.argument).Scan(&entryIdentifier)
		if errors.Is(scanError, sql.ErrNoRows) {
			continue
		}
		if scanError != nil {
			return nil, fmt.Errorf(lookupErrorTemplateConstant, scanError)
		}
		return store.loadEntry(requestContext, entryIdentifier)
	}

	return nil, nil
}

// List returns entries satisfying the filter. Storage-expressible dimensions
// are pushed into the SQL query; the full predicate then runs in memory over
// the candidates so derived dimensions (organization, ownership, tags,
// orphan, unpushed) apply too.
func (store *Store) List(requestContext context.Context, filter catalog.Filter) ([]catalog.Entry, error) {
	conditions, arguments := buildListConditions(filter)

	listQuery := selectIdentifiersBaseQueryConstant
	if len(conditions) > 0 {
		listQuery += conditionJoinKeywordConstant + strings.Join(conditions, conditionSeparatorConstant)
	}
	listQuery += identifierListOrderingClauseConstant

	candidateRows, queryError := store.databaseHandle.QueryContext(requestContext, listQuery, arguments...)
	if queryError != nil {
		return nil, fmt.Errorf(listErrorTemplateConstant, queryError)
	}

	candidateIdentifiers := make([]catalog.EntryIdentifier, 0)
	for candidateRows.Next() {
		var entryIdentifier catalog.EntryIdentifier
		if scanError := candidateRows.Scan(&entryIdentifier); scanError != nil {
			candidateRows.Close()
			return nil, fmt.Errorf(listErrorTemplateConstant, scanError)
		}
		candidateIdentifiers = append(candidateIdentifiers, entryIdentifier)
	}
	if iterationError := candidateRows.Err(); iterationError != nil {
		candidateRows.Close()
		return nil, fmt.Errorf(listErrorTemplateConstant, iterationError)
	}
	candidateRows.Close()

	entries := make([]catalog.Entry, 0, len(candidateIdentifiers))
	for _, entryIdentifier := range candidateIdentifiers {
		entry, loadError := store.loadEntry(requestContext, entryIdentifier)
		if loadError != nil {
			return nil, loadError
		}
		if filter.Matches(*entry) {
			entries = append(entries, *entry)
		}
	}

	return entries, nil
}

// All returns every catalogued entry.
func (store *Store) All(requestContext context.Context) ([]catalog.Entry, error) {
	return store.List(requestContext, catalog.Filter{})
}

// MarkLost records that the entry's path no longer exists.
func (store *Store) MarkLost(requestContext context.Context, entryIdentifier catalog.EntryIdentifier) error {
	if _, executionError := store.databaseHandle.ExecContext(requestContext, markLostStatementConstant, entryIdentifier); executionError != nil {
		return fmt.Errorf(stateChangeErrorTemplateConstant, entryIdentifier, executionError)
	}
	return nil
}

// Forget removes the entry permanently, along with its remotes and tags.
func (store *Store) Forget(requestContext context.Context, entryIdentifier catalog.EntryIdentifier) error {
	if _, executionError := store.databaseHandle.ExecContext(requestContext, forgetEntryStatementConstant, entryIdentifier); executionError != nil {
		return fmt.Errorf(stateChangeErrorTemplateConstant, entryIdentifier, executionError)
	}
	return nil
}

// TouchVerified updates the last-verified timestamp after a quick existence
// check found the entry unchanged.
func (store *Store) TouchVerified(requestContext context.Context, entryIdentifier catalog.EntryIdentifier, verifiedAt time.Time) error {
	if _, executionError := store.databaseHandle.ExecContext(requestContext, touchVerifiedStatementConstant, encodeTime(verifiedAt), entryIdentifier); executionError != nil {
		return fmt.Errorf(stateChangeErrorTemplateConstant, entryIdentifier, executionError)
	}
	return nil
}

func buildListConditions(filter catalog.Filter) ([]string, []any) {
	conditions := make([]string, 0, expectedListConditionCountMaximum)
	arguments := make([]any, 0, expectedListConditionCountMaximum)

	if filter.Dirty != nil {
		conditions = append(conditions, dirtyConditionConstant)
		arguments = append(arguments, *filter.Dirty)
	}
	if len(filter.State) > 0 {
		conditions = append(conditions, stateConditionConstant)
		arguments = append(arguments, string(filter.State))
	}
	if len(filter.Freshness) > 0 {
		conditions = append(conditions, freshnessConditionConstant)
		arguments = append(arguments, string(filter.Freshness))
	}
	if len(filter.PathPrefix) > 0 {
		conditions = append(conditions, pathPrefixConditionConstant)
		arguments = append(arguments, fmt.Sprintf(likePrefixTemplateConstant, filter.PathPrefix))
	}
	if len(filter.NameContains) > 0 {
		conditions = append(conditions, nameContainsConditionConstant)
		arguments = append(arguments, fmt.Sprintf(likeContainsTemplateConstant, filter.NameContains))
	}
	if len(filter.ManagedBy) > 0 {
		conditions = append(conditions, managedByConditionConstant)
		arguments = append(arguments, filter.ManagedBy)
	}
	if filter.ShowManaged != nil {
		if *filter.ShowManaged {
			conditions = append(conditions, managedSetConditionConstant)
		} else {
			conditions = append(conditions, managedUnsetConditionConstant)
		}
	}

	return conditions, arguments
}

type entryRow struct {
	identifier       catalog.EntryIdentifier
	name             string
	path             string
	state            string
	defaultBranch    sql.NullString
	currentBranch    sql.NullString
	branchCount      int
	staleBranchCount int
	dirty            bool
	staged           bool
	untracked        bool
	aheadCount       int
	behindCount      int
	isBare           bool
	lastCommit       sql.NullString
	lastVerified     sql.NullString
	firstSeen        string
	freshness        string
	category         sql.NullString
	ownershipType    sql.NullString
	ownershipLabel   sql.NullString
	intention        sql.NullString
	project          sql.NullString
	role             sql.NullString
	managedBy        sql.NullString
}

func (store *Store) loadEntry(requestContext context.Context, entryIdentifier catalog.EntryIdentifier) (*catalog.Entry, error) {
	var row entryRow
	scanError := store.databaseHandle.QueryRowContext(requestContext, selectEntryColumnsStatementConstant, entryIdentifier).Scan(
		&row.identifier, &row.name, &row.path, &row.state, &row.defaultBranch, &row.currentBranch,
		&row.branchCount, &row.staleBranchCount, &row.dirty, &row.staged, &row.untracked,
		&row.aheadCount, &row.behindCount, &row.isBare, &row.lastCommit, &row.lastVerified, &row.firstSeen,
		&row.freshness, &row.category, &row.ownershipType, &row.ownershipLabel,
		&row.intention, &row.project, &row.role, &row.managedBy,
	)
	if scanError != nil {
		return nil, fmt.Errorf(loadErrorTemplateConstant, entryIdentifier, scanError)
	}

	remotes, remotesError := store.loadRemotes(requestContext, entryIdentifier)
	if remotesError != nil {
		return nil, remotesError
	}
	tags, tagsError := store.loadTags(requestContext, entryIdentifier)
	if tagsError != nil {
		return nil, tagsError
	}

	entry := row.toEntry(remotes, tags)
	return &entry, nil
}

func (store *Store) loadRemotes(requestContext context.Context, entryIdentifier catalog.EntryIdentifier) ([]catalog.Remote, error) {
	remoteRows, queryError := store.databaseHandle.QueryContext(requestContext, selectRemotesStatementConstant, entryIdentifier)
	if queryError != nil {
		return nil, fmt.Errorf(loadErrorTemplateConstant, entryIdentifier, queryError)
	}
	defer remoteRows.Close()

	remotes := make([]catalog.Remote, 0)
	for remoteRows.Next() {
		var remote catalog.Remote
		var pushURL sql.NullString
		if scanError := remoteRows.Scan(&remote.Name, &remote.URL, &pushURL); scanError != nil {
			return nil, fmt.Errorf(loadErrorTemplateConstant, entryIdentifier, scanError)
		}
		remote.PushURL = pushURL.String
		remotes = append(remotes, remote)
	}
	if iterationError := remoteRows.Err(); iterationError != nil {
		return nil, fmt.Errorf(loadErrorTemplateConstant, entryIdentifier, iterationError)
	}
	return remotes, nil
}

func (store *Store) loadTags(requestContext context.Context, entryIdentifier catalog.EntryIdentifier) ([]string, error) {
	tagRows, queryError := store.databaseHandle.QueryContext(requestContext, selectTagsStatementConstant, entryIdentifier)
	if queryError != nil {
		return nil, fmt.Errorf(loadErrorTemplateConstant, entryIdentifier, queryError)
	}
	defer tagRows.Close()

	tags := make([]string, 0)
	for tagRows.Next() {
		var tag string
		if scanError := tagRows.Scan(&tag); scanError != nil {
			return nil, fmt.Errorf(loadErrorTemplateConstant, entryIdentifier, scanError)
		}
		tags = append(tags, tag)
	}
	if iterationError := tagRows.Err(); iterationError != nil {
		return nil, fmt.Errorf(loadErrorTemplateConstant, entryIdentifier, iterationError)
	}
	return tags, nil
}

func (row entryRow) toEntry(remotes []catalog.Remote, tags []string) catalog.Entry {
	return catalog.Entry{
		Identifier:       row.identifier,
		Name:             row.name,
		Path:             row.path,
		State:            decodeState(row.state),
		Remotes:          remotes,
		DefaultBranch:    row.defaultBranch.String,
		CurrentBranch:    row.currentBranch.String,
		BranchCount:      row.branchCount,
		StaleBranchCount: row.staleBranchCount,
		Dirty:            row.dirty,
		Staged:           row.staged,
		Untracked:        row.untracked,
		AheadCount:       row.aheadCount,
		BehindCount:      row.behindCount,
		IsBare:           row.isBare,
		LastCommit:       decodeOptionalTime(row.lastCommit),
		LastVerified:     decodeOptionalTime(row.lastVerified),
		FirstSeen:        decodeFirstSeen(row.firstSeen),
		Freshness:        decodeFreshness(row.freshness),
		Category:         decodeCategory(row.category),
		Ownership:        decodeOwnership(row.ownershipType, row.ownershipLabel),
		Intention:        decodeIntention(row.intention),
		ManagedBy:        row.managedBy.String,
		Tags:             tags,
		Project:          row.project.String,
		Role:             row.role.String,
	}
}

func upsertArguments(entry catalog.Entry) []any {
	ownershipType, ownershipLabel := encodeOwnership(entry.Ownership)
	return []any{
		entry.Name,
		entry.Path,
		string(storageState(entry.State)),
		nullableText(entry.DefaultBranch),
		nullableText(entry.CurrentBranch),
		entry.BranchCount,
		entry.StaleBranchCount,
		entry.Dirty,
		entry.Staged,
		entry.Untracked,
		entry.AheadCount,
		entry.BehindCount,
		entry.IsBare,
		encodeOptionalTime(entry.LastCommit),
		encodeOptionalTime(entry.LastVerified),
		encodeTime(entry.FirstSeen),
		string(storageFreshness(entry.Freshness)),
		nullableText(string(entry.Category)),
		ownershipType,
		ownershipLabel,
		nullableText(string(entry.Intention)),
		nullableText(entry.Project),
		nullableText(entry.Role),
		nullableText(entry.ManagedBy),
	}
}

func storageState(state catalog.State) catalog.State {
	if len(state) == 0 {
		return catalog.StateActive
	}
	return state
}

func storageFreshness(freshness catalog.Freshness) catalog.Freshness {
	if len(freshness) == 0 {
		return catalog.FreshnessAncient
	}
	return freshness
}

func decodeState(storedValue string) catalog.State {
	state, recognized := catalog.ParseState(storedValue)
	if !recognized {
		return catalog.StateActive
	}
	return state
}

func decodeFreshness(storedValue string) catalog.Freshness {
	freshness, recognized := catalog.ParseFreshness(storedValue)
	if !recognized {
		return catalog.FreshnessAncient
	}
	return freshness
}

func decodeCategory(storedValue sql.NullString) catalog.Category {
	if !storedValue.Valid {
		return catalog.Category("")
	}
	category, recognized := catalog.ParseCategory(storedValue.String)
	if !recognized {
		return catalog.Category("")
	}
	return category
}

func decodeIntention(storedValue sql.NullString) catalog.Intention {
	if !storedValue.Valid {
		return catalog.Intention("")
	}
	intention, recognized := catalog.ParseIntention(storedValue.String)
	if !recognized {
		return catalog.Intention("")
	}
	return intention
}

// encodeOwnership maps the ownership variant onto the denormalized
// (ownership_type, ownership_label) column pair; decodeOwnership is its
// inverse. These two functions are the only mapping between the variant and
// its storage encoding.
func encodeOwnership(ownership catalog.Ownership) (any, any) {
	if ownership.IsZero() {
		return nil, nil
	}
	if ownership.Kind == catalog.OwnershipKindWork {
		return string(ownership.Kind), ownership.Label
	}
	return string(ownership.Kind), nil
}

func decodeOwnership(ownershipType sql.NullString, ownershipLabel sql.NullString) catalog.Ownership {
	if !ownershipType.Valid {
		return catalog.Ownership{}
	}
	switch catalog.OwnershipKind(ownershipType.String) {
	case catalog.OwnershipKindPersonal, catalog.OwnershipKindCommunity, catalog.OwnershipKindThirdParty, catalog.OwnershipKindLocal:
		return catalog.Ownership{Kind: catalog.OwnershipKind(ownershipType.String)}
	case catalog.OwnershipKindWork:
		return catalog.Ownership{Kind: catalog.OwnershipKindWork, Label: ownershipLabel.String}
	default:
		return catalog.Ownership{}
	}
}

func nullableText(value string) any {
	if len(value) == 0 {
		return nil
	}
	return value
}

func encodeTime(value time.Time) string {
	return value.UTC().Format(storedTimestampLayoutConstant)
}

func encodeOptionalTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return encodeTime(*value)
}

func decodeOptionalTime(storedValue sql.NullString) *time.Time {
	if !storedValue.Valid {
		return nil
	}
	parsedTime, parseError := time.Parse(storedTimestampLayoutConstant, storedValue.String)
	if parseError != nil {
		return nil
	}
	parsedTime = parsedTime.UTC()
	return &parsedTime
}

func decodeFirstSeen(storedValue string) time.Time {
	parsedTime, parseError := time.Parse(storedTimestampLayoutConstant, storedValue)
	if parseError != nil {
		return time.Now().UTC()
	}
	return parsedTime.UTC()
}
