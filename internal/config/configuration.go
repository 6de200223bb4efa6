package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/gidx/internal/classify"
	"github.com/temirov/gidx/internal/permission"
	"github.com/temirov/gidx/internal/scan"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	unknownInteractiveLevelTemplateConstant = "permissions.interactive_level %q is not a difficulty level"
	unknownAutomatedLevelTemplateConstant   = "permissions.automated_level %q is not a difficulty level"
	unknownOverrideLevelTemplateConstant    = "permissions.overrides[%d] level %q is not a difficulty level"
)

// Configuration aggregates every configurable surface of the application.
type Configuration struct {
	Common      CommonConfiguration      `mapstructure:"common" yaml:"common"`
	Catalog     CatalogConfiguration     `mapstructure:"catalog" yaml:"catalog"`
	Scan        ScanConfiguration        `mapstructure:"scan" yaml:"scan"`
	Identity    IdentityConfiguration    `mapstructure:"identity" yaml:"identity"`
	Rules       []classify.Rule          `mapstructure:"rules" yaml:"rules"`
	Permissions PermissionsConfiguration `mapstructure:"permissions" yaml:"permissions"`
	Safety      SafetyConfiguration      `mapstructure:"safety" yaml:"safety"`
	Display     DisplayConfiguration     `mapstructure:"display" yaml:"display"`
}

// CommonConfiguration stores logging settings shared by every command.
type CommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// CatalogConfiguration stores persistence settings for the repository index.
type CatalogConfiguration struct {
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// ScanConfiguration bounds filesystem discovery.
type ScanConfiguration struct {
	Roots                   []string `mapstructure:"roots" yaml:"roots"`
	Exclude                 []string `mapstructure:"exclude" yaml:"exclude"`
	MaxDepth                int      `mapstructure:"max_depth" yaml:"max_depth"`
	CrossMounts             bool     `mapstructure:"cross_mounts" yaml:"cross_mounts"`
	AllowMounts             []string `mapstructure:"allow_mounts" yaml:"allow_mounts"`
	BlockMounts             []string `mapstructure:"block_mounts" yaml:"block_mounts"`
	StatTimeoutMilliseconds int      `mapstructure:"stat_timeout_ms" yaml:"stat_timeout_ms"`
	AutoVerifySeconds       int      `mapstructure:"auto_verify_seconds" yaml:"auto_verify_seconds"`
}

// WalkOptions maps the scan section onto walker options.
func (scanConfiguration ScanConfiguration) WalkOptions() scan.Options {
	return scan.Options{
		Roots:           scanConfiguration.Roots,
		ExcludePatterns: scanConfiguration.Exclude,
		MaximumDepth:    scanConfiguration.MaxDepth,
		CrossMounts:     scanConfiguration.CrossMounts,
		AllowedMounts:   scanConfiguration.AllowMounts,
		BlockedMounts:   scanConfiguration.BlockMounts,
		StatTimeout:     time.Duration(scanConfiguration.StatTimeoutMilliseconds) * time.Millisecond,
	}
}

// AutoVerifyPeriod returns the window during which a verified repository skips
// re-extraction.
func (scanConfiguration ScanConfiguration) AutoVerifyPeriod() time.Duration {
	return time.Duration(scanConfiguration.AutoVerifySeconds) * time.Second
}

// IdentityConfiguration names the accounts and organizations the catalogue
// owner operates under. The sections feed classification rules written against
// them and are reported by the config command.
type IdentityConfiguration struct {
	Usernames     []string           `mapstructure:"usernames" yaml:"usernames"`
	WorkOrgs      []WorkOrganization `mapstructure:"work_orgs" yaml:"work_orgs"`
	CommunityOrgs []string           `mapstructure:"community_orgs" yaml:"community_orgs"`
}

// WorkOrganization binds a hosting organization to an employer label.
type WorkOrganization struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Platform string `mapstructure:"platform" yaml:"platform"`
	Label    string `mapstructure:"label" yaml:"label"`
}

// PermissionsConfiguration stores difficulty levels and path overrides.
type PermissionsConfiguration struct {
	InteractiveLevel string               `mapstructure:"interactive_level" yaml:"interactive_level"`
	AutomatedLevel   string               `mapstructure:"automated_level" yaml:"automated_level"`
	Overrides        []PermissionOverride `mapstructure:"overrides" yaml:"overrides"`
}

// PermissionOverride pins the difficulty level beneath a path glob. Overrides
// apply in configured order; the first matching glob wins.
type PermissionOverride struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// SafetyConfiguration stores guardrails for mutating operations.
type SafetyConfiguration struct {
	ProtectedBranches        []string `mapstructure:"protected_branches" yaml:"protected_branches"`
	AlwaysConfirmDestructive bool     `mapstructure:"always_confirm_destructive" yaml:"always_confirm_destructive"`
	MaxPlanSize              int      `mapstructure:"max_plan_size" yaml:"max_plan_size"`
}

// DisplayConfiguration stores rendering preferences.
type DisplayConfiguration struct {
	Color     string `mapstructure:"color" yaml:"color"`
	NerdFonts bool   `mapstructure:"nerd_fonts" yaml:"nerd_fonts"`
	CatMode   bool   `mapstructure:"cat_mode" yaml:"cat_mode"`
}

// Artifacts carries the objects compiled from a configuration.
type Artifacts struct {
	CompiledRules   []classify.CompiledRule
	InteractiveGate *permission.Gate
	AutomatedGate   *permission.Gate
}

// Compile validates the configuration and builds its derived artifacts. Any
// malformed rule, level, or override pattern fails the whole compilation.
func (configuration Configuration) Compile() (Artifacts, error) {
	compiledRules, rulesError := classify.CompileRules(configuration.Rules)
	if rulesError != nil {
		return Artifacts{}, rulesError
	}

	interactiveLevel, interactiveKnown := permission.ParseLevel(configuration.Permissions.InteractiveLevel)
	if !interactiveKnown {
		return Artifacts{}, fmt.Errorf(unknownInteractiveLevelTemplateConstant, configuration.Permissions.InteractiveLevel)
	}
	automatedLevel, automatedKnown := permission.ParseLevel(configuration.Permissions.AutomatedLevel)
	if !automatedKnown {
		return Artifacts{}, fmt.Errorf(unknownAutomatedLevelTemplateConstant, configuration.Permissions.AutomatedLevel)
	}

	overrides := make([]permission.Override, 0, len(configuration.Permissions.Overrides))
	for overrideIndex, configuredOverride := range configuration.Permissions.Overrides {
		overrideLevel, overrideKnown := permission.ParseLevel(configuredOverride.Level)
		if !overrideKnown {
			return Artifacts{}, fmt.Errorf(unknownOverrideLevelTemplateConstant, overrideIndex+1, configuredOverride.Level)
		}
		overrides = append(overrides, permission.Override{Pattern: configuredOverride.Path, Level: overrideLevel})
	}

	interactiveGate, interactiveGateError := permission.NewGate(interactiveLevel, overrides)
	if interactiveGateError != nil {
		return Artifacts{}, interactiveGateError
	}
	automatedGate, automatedGateError := permission.NewGate(automatedLevel, overrides)
	if automatedGateError != nil {
		return Artifacts{}, automatedGateError
	}

	return Artifacts{
		CompiledRules:   compiledRules,
		InteractiveGate: interactiveGate,
		AutomatedGate:   automatedGate,
	}, nil
}

// Sanitize trims configured values, expands home shortcuts, and removes empty
// entries.
func (configuration Configuration) Sanitize() Configuration {
	return configuration.SanitizeWithHomeExpander(pathutils.NewHomeExpander())
}

// SanitizeWithHomeExpander sanitizes using the provided expander.
func (configuration Configuration) SanitizeWithHomeExpander(homeExpander *pathutils.HomeExpander) Configuration {
	sanitized := configuration

	sanitized.Common.LogLevel = strings.TrimSpace(configuration.Common.LogLevel)
	sanitized.Common.LogFormat = strings.TrimSpace(configuration.Common.LogFormat)
	sanitized.Catalog.DatabasePath = expandTrimmedPath(homeExpander, configuration.Catalog.DatabasePath)

	sanitized.Scan.Roots = sanitizePathList(homeExpander, configuration.Scan.Roots)
	sanitized.Scan.Exclude = sanitizeStringList(configuration.Scan.Exclude)
	sanitized.Scan.AllowMounts = sanitizePathList(homeExpander, configuration.Scan.AllowMounts)
	sanitized.Scan.BlockMounts = sanitizePathList(homeExpander, configuration.Scan.BlockMounts)

	sanitized.Identity.Usernames = sanitizeStringList(configuration.Identity.Usernames)
	sanitized.Identity.CommunityOrgs = sanitizeStringList(configuration.Identity.CommunityOrgs)
	sanitized.Identity.WorkOrgs = sanitizeWorkOrganizations(configuration.Identity.WorkOrgs)

	sanitized.Safety.ProtectedBranches = sanitizeStringList(configuration.Safety.ProtectedBranches)

	return sanitized
}

func expandTrimmedPath(homeExpander *pathutils.HomeExpander, candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return trimmedPath
	}
	return homeExpander.Expand(trimmedPath)
}

func sanitizePathList(homeExpander *pathutils.HomeExpander, candidatePaths []string) []string {
	sanitizedPaths := make([]string, 0, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		expandedPath := expandTrimmedPath(homeExpander, candidatePath)
		if len(expandedPath) == 0 {
			continue
		}
		sanitizedPaths = append(sanitizedPaths, expandedPath)
	}
	if len(sanitizedPaths) == 0 {
		return nil
	}
	return sanitizedPaths
}

func sanitizeStringList(candidateValues []string) []string {
	sanitizedValues := make([]string, 0, len(candidateValues))
	for _, candidateValue := range candidateValues {
		trimmedValue := strings.TrimSpace(candidateValue)
		if len(trimmedValue) == 0 {
			continue
		}
		sanitizedValues = append(sanitizedValues, trimmedValue)
	}
	if len(sanitizedValues) == 0 {
		return nil
	}
	return sanitizedValues
}

func sanitizeWorkOrganizations(candidateOrganizations []WorkOrganization) []WorkOrganization {
	sanitizedOrganizations := make([]WorkOrganization, 0, len(candidateOrganizations))
	for _, candidateOrganization := range candidateOrganizations {
		sanitizedOrganization := WorkOrganization{
			Name:     strings.TrimSpace(candidateOrganization.Name),
			Platform: strings.TrimSpace(candidateOrganization.Platform),
			Label:    strings.TrimSpace(candidateOrganization.Label),
		}
		if len(sanitizedOrganization.Name) == 0 {
			continue
		}
		sanitizedOrganizations = append(sanitizedOrganizations, sanitizedOrganization)
	}
	if len(sanitizedOrganizations) == 0 {
		return nil
	}
	return sanitizedOrganizations
}
