package classify

import (
	"github.com/temirov/gidx/internal/catalog"
)

// Classifier applies compiled configuration rules and built-in heuristics to
// catalogue entries.
type Classifier struct {
	rules []CompiledRule
}

// NewClassifier constructs a classifier over the compiled rule list.
func NewClassifier(rules []CompiledRule) *Classifier {
	return &Classifier{rules: rules}
}

// Apply classifies the entry in place. Every matching rule runs in configured
// order: managed-by, ownership, intention, and category are filled only while
// still unset, state overrides unconditionally, and tags accumulate across all
// matching rules. Built-in heuristics run afterwards for entries no rule
// claimed a manager for.
func (classifier *Classifier) Apply(entry *catalog.Entry) {
	for _, rule := range classifier.rules {
		if !rule.matches(*entry) {
			continue
		}
		applyEffect(entry, rule)
	}
	applyHeuristics(entry)
}

func applyEffect(entry *catalog.Entry, rule CompiledRule) {
	if len(entry.ManagedBy) == 0 && len(rule.effect.managedBy) > 0 {
		entry.ManagedBy = rule.effect.managedBy
	}
	if entry.Ownership.IsZero() && rule.effect.hasOwnership {
		entry.Ownership = rule.effect.ownership
	}
	if len(entry.Intention) == 0 && len(rule.effect.intention) > 0 {
		entry.Intention = rule.effect.intention
	}
	if len(entry.Category) == 0 && len(rule.effect.category) > 0 {
		entry.Category = rule.effect.category
	}
	if rule.effect.hasState {
		entry.State = rule.effect.state
	}
	for _, tag := range rule.tags {
		entry.AppendTag(tag)
	}
}

// ResetClassification clears the rule-derived fields ahead of reapplication.
// Tags, project, and role are user data and stay untouched.
func ResetClassification(entry *catalog.Entry) {
	entry.ManagedBy = ""
	entry.Ownership = catalog.Ownership{}
	entry.Intention = ""
	entry.Category = ""
}
