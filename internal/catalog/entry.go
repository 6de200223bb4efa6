package catalog

import (
	"strings"
	"time"
)

const (
	// OriginRemoteNameConstant identifies the conventional upstream remote.
	OriginRemoteNameConstant = "origin"
)

// EntryIdentifier uniquely identifies a catalogued repository in the index.
type EntryIdentifier = int64

// State enumerates lifecycle states of a catalogued repository.
type State string

// Lifecycle states recorded in the index.
const (
	StateActive  State = "active"
	StateLost    State = "lost"
	StateTimeout State = "timeout"
)

// ParseState resolves a textual state, reporting whether the value is known.
func ParseState(value string) (State, bool) {
	switch State(strings.ToLower(strings.TrimSpace(value))) {
	case StateActive:
		return StateActive, true
	case StateLost:
		return StateLost, true
	case StateTimeout:
		return StateTimeout, true
	default:
		return State(""), false
	}
}

// Category describes how a repository relates to its upstream source.
type Category string

// Repository categories.
const (
	CategoryOrigin Category = "origin"
	CategoryClone  Category = "clone"
	CategoryFork   Category = "fork"
	CategoryMirror Category = "mirror"
)

// ParseCategory resolves a textual category, reporting whether the value is known.
func ParseCategory(value string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(value))) {
	case CategoryOrigin:
		return CategoryOrigin, true
	case CategoryClone:
		return CategoryClone, true
	case CategoryFork:
		return CategoryFork, true
	case CategoryMirror:
		return CategoryMirror, true
	default:
		return Category(""), false
	}
}

// Intention describes why a repository is on disk.
type Intention string

// Repository intentions.
const (
	IntentionDeveloping     Intention = "developing"
	IntentionContributing   Intention = "contributing"
	IntentionReference      Intention = "reference"
	IntentionDependency     Intention = "dependency"
	IntentionDotfiles       Intention = "dotfiles"
	IntentionInfrastructure Intention = "infrastructure"
	IntentionExperiment     Intention = "experiment"
	IntentionArchived       Intention = "archived"
)

// ParseIntention resolves a textual intention, reporting whether the value is known.
func ParseIntention(value string) (Intention, bool) {
	switch Intention(strings.ToLower(strings.TrimSpace(value))) {
	case IntentionDeveloping:
		return IntentionDeveloping, true
	case IntentionContributing:
		return IntentionContributing, true
	case IntentionReference:
		return IntentionReference, true
	case IntentionDependency:
		return IntentionDependency, true
	case IntentionDotfiles:
		return IntentionDotfiles, true
	case IntentionInfrastructure:
		return IntentionInfrastructure, true
	case IntentionExperiment:
		return IntentionExperiment, true
	case IntentionArchived:
		return IntentionArchived, true
	default:
		return Intention(""), false
	}
}

// Remote captures a configured git remote for a catalogued repository.
type Remote struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	PushURL string `json:"push_url,omitempty"`
}

// Entry describes a catalogued git repository with all extracted vitals and
// classification metadata.
type Entry struct {
	Identifier       EntryIdentifier `json:"id"`
	Name             string          `json:"name"`
	Path             string          `json:"path"`
	State            State           `json:"state"`
	Remotes          []Remote        `json:"remotes"`
	DefaultBranch    string          `json:"default_branch,omitempty"`
	CurrentBranch    string          `json:"current_branch,omitempty"`
	BranchCount      int             `json:"branch_count"`
	StaleBranchCount int             `json:"stale_branch_count"`
	Dirty            bool            `json:"dirty"`
	Staged           bool            `json:"staged"`
	Untracked        bool            `json:"untracked"`
	AheadCount       int             `json:"ahead"`
	BehindCount      int             `json:"behind"`
	IsBare           bool            `json:"is_bare"`
	LastCommit       *time.Time      `json:"last_commit,omitempty"`
	LastVerified     *time.Time      `json:"last_verified,omitempty"`
	FirstSeen        time.Time       `json:"first_seen"`
	Freshness        Freshness       `json:"freshness"`
	Category         Category        `json:"category,omitempty"`
	Ownership        Ownership       `json:"ownership,omitempty"`
	Intention        Intention       `json:"intention,omitempty"`
	ManagedBy        string          `json:"managed_by,omitempty"`
	Tags             []string        `json:"tags"`
	Project          string          `json:"project,omitempty"`
	Role             string          `json:"role,omitempty"`
}

// HasRemotes reports whether the entry has at least one configured remote.
func (entry Entry) HasRemotes() bool {
	return len(entry.Remotes) > 0
}

// HasTag reports whether the entry carries the supplied tag, compared case-insensitively.
func (entry Entry) HasTag(tag string) bool {
	for _, existingTag := range entry.Tags {
		if strings.EqualFold(existingTag, tag) {
			return true
		}
	}
	return false
}

// AppendTag adds a tag unless an equal tag (case-insensitive) is already present.
func (entry *Entry) AppendTag(tag string) {
	if entry.HasTag(tag) {
		return
	}
	entry.Tags = append(entry.Tags, tag)
}
