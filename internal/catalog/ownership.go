package catalog

import (
	"encoding/json"
	"strings"
)

// OwnershipKind enumerates who controls a repository.
type OwnershipKind string

// Ownership kinds persisted in the index.
const (
	OwnershipKindPersonal   OwnershipKind = "personal"
	OwnershipKindWork       OwnershipKind = "work"
	OwnershipKindCommunity  OwnershipKind = "community"
	OwnershipKindThirdParty OwnershipKind = "thirdparty"
	OwnershipKindLocal      OwnershipKind = "local"
)

const (
	workOwnershipPrefixConstant        = "work:"
	thirdPartyOwnershipAliasConstant   = "third-party"
	ownershipLabelSeparatorConstant    = ":"
	unsetOwnershipDisplayValueConstant = ""
)

// Ownership classifies who controls a repository. The zero value means the
// repository is unclassified. Work ownership carries an employer label.
type Ownership struct {
	Kind  OwnershipKind
	Label string
}

// ParseOwnership resolves ownership strings such as "personal", "work:acme",
// "third-party", reporting whether the value is recognized.
func ParseOwnership(value string) (Ownership, bool) {
	trimmedValue := strings.TrimSpace(value)
	if label, isWork := cutPrefixFold(trimmedValue, workOwnershipPrefixConstant); isWork {
		return Ownership{Kind: OwnershipKindWork, Label: label}, true
	}

	switch strings.ToLower(trimmedValue) {
	case string(OwnershipKindPersonal):
		return Ownership{Kind: OwnershipKindPersonal}, true
	case string(OwnershipKindWork):
		return Ownership{Kind: OwnershipKindWork}, true
	case string(OwnershipKindCommunity):
		return Ownership{Kind: OwnershipKindCommunity}, true
	case string(OwnershipKindThirdParty), thirdPartyOwnershipAliasConstant:
		return Ownership{Kind: OwnershipKindThirdParty}, true
	case string(OwnershipKindLocal):
		return Ownership{Kind: OwnershipKindLocal}, true
	default:
		return Ownership{}, false
	}
}

// cutPrefixFold is strings.CutPrefix with ASCII-case-insensitive prefix
// matching; ownership strings compare case-insensitively throughout.
func cutPrefixFold(value string, prefix string) (string, bool) {
	if len(value) < len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return value, false
	}
	return value[len(prefix):], true
}

// IsZero reports whether the ownership is unclassified.
func (ownership Ownership) IsZero() bool {
	return len(ownership.Kind) == 0
}

// String renders the canonical display form, for example "work:acme".
func (ownership Ownership) String() string {
	if ownership.IsZero() {
		return unsetOwnershipDisplayValueConstant
	}
	if ownership.Kind == OwnershipKindWork && len(ownership.Label) > 0 {
		return string(OwnershipKindWork) + ownershipLabelSeparatorConstant + ownership.Label
	}
	return string(ownership.Kind)
}

// MatchesFilter reports whether the ownership satisfies a filter string.
// "work" matches any work ownership while "work:label" compares the label
// case-insensitively. "third-party" and "thirdparty" are interchangeable.
func (ownership Ownership) MatchesFilter(filterValue string) bool {
	if ownership.IsZero() {
		return false
	}

	switch ownership.Kind {
	case OwnershipKindWork:
		if label, hasLabel := cutPrefixFold(filterValue, workOwnershipPrefixConstant); hasLabel {
			return strings.EqualFold(ownership.Label, label)
		}
		return strings.EqualFold(filterValue, string(OwnershipKindWork))
	case OwnershipKindThirdParty:
		return strings.EqualFold(filterValue, string(OwnershipKindThirdParty)) ||
			strings.EqualFold(filterValue, thirdPartyOwnershipAliasConstant)
	default:
		return strings.EqualFold(filterValue, string(ownership.Kind))
	}
}

// MarshalJSON renders the ownership as its canonical string form.
func (ownership Ownership) MarshalJSON() ([]byte, error) {
	return json.Marshal(ownership.String())
}

// UnmarshalJSON parses the canonical string form produced by MarshalJSON.
func (ownership *Ownership) UnmarshalJSON(data []byte) error {
	var rawValue string
	if unmarshalError := json.Unmarshal(data, &rawValue); unmarshalError != nil {
		return unmarshalError
	}
	if len(strings.TrimSpace(rawValue)) == 0 {
		*ownership = Ownership{}
		return nil
	}
	parsedOwnership, _ := ParseOwnership(rawValue)
	*ownership = parsedOwnership
	return nil
}
