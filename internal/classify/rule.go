package classify

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/gitrepo"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	ruleErrorTemplateConstant          = "classification rule %d has invalid %s %q"
	ruleErrorWithCauseTemplateConstant = "classification rule %d has invalid %s %q: %s"
	pathCriterionNameConstant          = "path pattern"
	nameCriterionNameConstant          = "name pattern"
	ownershipEffectNameConstant        = "ownership"
	intentionEffectNameConstant        = "intention"
	categoryEffectNameConstant         = "category"
	stateEffectNameConstant            = "state"
)

// Match lists the criteria a rule requires. Criteria combine with AND; an
// absent criterion matches every entry.
type Match struct {
	Path      string `mapstructure:"path" yaml:"path"`
	Org       string `mapstructure:"org" yaml:"org"`
	Name      string `mapstructure:"name" yaml:"name"`
	HasRemote *bool  `mapstructure:"has_remote" yaml:"has_remote"`
	Bare      *bool  `mapstructure:"bare" yaml:"bare"`
}

// Effect lists the classification fields a matching rule writes.
type Effect struct {
	ManagedBy string `mapstructure:"managed_by" yaml:"managed_by"`
	Ownership string `mapstructure:"ownership" yaml:"ownership"`
	Intention string `mapstructure:"intention" yaml:"intention"`
	Category  string `mapstructure:"category" yaml:"category"`
	State     string `mapstructure:"state" yaml:"state"`
}

// Rule pairs match criteria with the effect applied when they hold.
type Rule struct {
	Match Match    `mapstructure:"match" yaml:"match"`
	Apply Effect   `mapstructure:"apply" yaml:"apply"`
	Tags  []string `mapstructure:"tags" yaml:"tags"`
}

// RuleError reports a rule that cannot be compiled. Position is the 1-based
// index of the rule in the configured list.
type RuleError struct {
	Position int
	Field    string
	Value    string
	Cause    error
}

// Error describes the offending rule, field, and value.
func (ruleError RuleError) Error() string {
	if ruleError.Cause != nil {
		return fmt.Sprintf(ruleErrorWithCauseTemplateConstant, ruleError.Position, ruleError.Field, ruleError.Value, ruleError.Cause)
	}
	return fmt.Sprintf(ruleErrorTemplateConstant, ruleError.Position, ruleError.Field, ruleError.Value)
}

// Unwrap exposes the underlying compile failure when one exists.
func (ruleError RuleError) Unwrap() error {
	return ruleError.Cause
}

type compiledEffect struct {
	managedBy    string
	ownership    catalog.Ownership
	hasOwnership bool
	intention    catalog.Intention
	category     catalog.Category
	state        catalog.State
	hasState     bool
}

// CompiledRule is a rule whose globs and enumerations have been validated and
// compiled for repeated evaluation.
type CompiledRule struct {
	pathMatcher  glob.Glob
	organization string
	nameMatcher  glob.Glob
	hasRemote    *bool
	bare         *bool
	effect       compiledEffect
	tags         []string
}

// CompileRules validates and compiles the configured rule list. Any malformed
// glob or unrecognized enumeration value fails the whole compilation so that a
// broken configuration is never partially applied.
func CompileRules(rules []Rule) ([]CompiledRule, error) {
	return CompileRulesWithHomeExpander(rules, pathutils.NewHomeExpander())
}

// CompileRulesWithHomeExpander compiles rules using the supplied home
// directory expander for tilde-prefixed path patterns.
func CompileRulesWithHomeExpander(rules []Rule, homeExpander *pathutils.HomeExpander) ([]CompiledRule, error) {
	compiledRules := make([]CompiledRule, 0, len(rules))
	for ruleIndex, rule := range rules {
		compiledRule, compileError := compileRule(rule, ruleIndex+1, homeExpander)
		if compileError != nil {
			return nil, compileError
		}
		compiledRules = append(compiledRules, compiledRule)
	}
	return compiledRules, nil
}

func compileRule(rule Rule, rulePosition int, homeExpander *pathutils.HomeExpander) (CompiledRule, error) {
	compiledRule := CompiledRule{
		organization: strings.TrimSpace(rule.Match.Org),
		hasRemote:    rule.Match.HasRemote,
		bare:         rule.Match.Bare,
		tags:         rule.Tags,
	}

	if len(rule.Match.Path) > 0 {
		expandedPattern := homeExpander.Expand(rule.Match.Path)
		pathMatcher, compileError := glob.Compile(expandedPattern)
		if compileError != nil {
			return CompiledRule{}, RuleError{Position: rulePosition, Field: pathCriterionNameConstant, Value: rule.Match.Path, Cause: compileError}
		}
		compiledRule.pathMatcher = pathMatcher
	}

	if len(rule.Match.Name) > 0 {
		nameMatcher, compileError := glob.Compile(rule.Match.Name)
		if compileError != nil {
			return CompiledRule{}, RuleError{Position: rulePosition, Field: nameCriterionNameConstant, Value: rule.Match.Name, Cause: compileError}
		}
		compiledRule.nameMatcher = nameMatcher
	}

	compiledEffectValue, effectError := compileEffect(rule.Apply, rulePosition)
	if effectError != nil {
		return CompiledRule{}, effectError
	}
	compiledRule.effect = compiledEffectValue

	return compiledRule, nil
}

func compileEffect(effect Effect, rulePosition int) (compiledEffect, error) {
	compiled := compiledEffect{managedBy: strings.TrimSpace(effect.ManagedBy)}

	if len(strings.TrimSpace(effect.Ownership)) > 0 {
		parsedOwnership, recognized := catalog.ParseOwnership(effect.Ownership)
		if !recognized {
			return compiledEffect{}, RuleError{Position: rulePosition, Field: ownershipEffectNameConstant, Value: effect.Ownership}
		}
		compiled.ownership = parsedOwnership
		compiled.hasOwnership = true
	}

	if len(strings.TrimSpace(effect.Intention)) > 0 {
		parsedIntention, recognized := catalog.ParseIntention(effect.Intention)
		if !recognized {
			return compiledEffect{}, RuleError{Position: rulePosition, Field: intentionEffectNameConstant, Value: effect.Intention}
		}
		compiled.intention = parsedIntention
	}

	if len(strings.TrimSpace(effect.Category)) > 0 {
		parsedCategory, recognized := catalog.ParseCategory(effect.Category)
		if !recognized {
			return compiledEffect{}, RuleError{Position: rulePosition, Field: categoryEffectNameConstant, Value: effect.Category}
		}
		compiled.category = parsedCategory
	}

	if len(strings.TrimSpace(effect.State)) > 0 {
		parsedState, recognized := catalog.ParseState(effect.State)
		if !recognized {
			return compiledEffect{}, RuleError{Position: rulePosition, Field: stateEffectNameConstant, Value: effect.State}
		}
		compiled.state = parsedState
		compiled.hasState = true
	}

	return compiled, nil
}

func (rule CompiledRule) matches(entry catalog.Entry) bool {
	if rule.pathMatcher != nil && !rule.pathMatcher.Match(entry.Path) {
		return false
	}
	if len(rule.organization) > 0 && !entryBelongsToOrganization(entry, rule.organization) {
		return false
	}
	if rule.nameMatcher != nil && !rule.nameMatcher.Match(entry.Name) {
		return false
	}
	if rule.hasRemote != nil && entry.HasRemotes() != *rule.hasRemote {
		return false
	}
	if rule.bare != nil && entry.IsBare != *rule.bare {
		return false
	}
	return true
}

func entryBelongsToOrganization(entry catalog.Entry, organization string) bool {
	for _, remote := range entry.Remotes {
		remoteInfo, parseError := gitrepo.ParseRemoteInfo(remote.URL)
		if parseError != nil {
			continue
		}
		if strings.EqualFold(remoteInfo.Organization, organization) {
			return true
		}
	}
	return false
}
