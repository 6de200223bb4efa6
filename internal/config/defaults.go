package config

import "github.com/temirov/gidx/internal/permission"

const (
	defaultLogLevelConstant     = "info"
	defaultLogFormatConstant    = "structured"
	defaultDatabasePathConstant = "~/.local/share/gidx/catalog.db"

	defaultHomeRootConstant                = "~"
	defaultMaximumDepthConstant            = 10
	defaultStatTimeoutMillisecondsConstant = 500
	defaultAutoVerifySecondsConstant       = 300

	defaultAlwaysConfirmDestructiveConstant = true
	defaultMaximumPlanSizeConstant          = 50
	defaultDisplayColorConstant             = "auto"
)

const (
	commonLogLevelKeyConstant          = "common.log_level"
	commonLogFormatKeyConstant         = "common.log_format"
	catalogDatabasePathKeyConstant     = "catalog.database_path"
	scanRootsKeyConstant               = "scan.roots"
	scanExcludeKeyConstant             = "scan.exclude"
	scanMaxDepthKeyConstant            = "scan.max_depth"
	scanCrossMountsKeyConstant         = "scan.cross_mounts"
	scanStatTimeoutKeyConstant         = "scan.stat_timeout_ms"
	scanAutoVerifyKeyConstant          = "scan.auto_verify_seconds"
	permissionsInteractiveKeyConstant  = "permissions.interactive_level"
	permissionsAutomatedKeyConstant    = "permissions.automated_level"
	safetyProtectedBranchesKeyConstant = "safety.protected_branches"
	safetyAlwaysConfirmKeyConstant     = "safety.always_confirm_destructive"
	safetyMaxPlanSizeKeyConstant       = "safety.max_plan_size"
	displayColorKeyConstant            = "display.color"
	displayNerdFontsKeyConstant        = "display.nerd_fonts"
	displayCatModeKeyConstant          = "display.cat_mode"
)

// defaultExcludedDirectories lists package-manager caches, tool state, and
// trash locations that host thousands of uninteresting git checkouts.
var defaultExcludedDirectories = []string{
	"node_modules",
	".cargo/registry",
	".rustup",
	"target/",
	".cache",
	".local/share/Trash",
	".local/share/flatpak",
	".local/share/Steam",
	"snap/",
	".npm",
	".nvm/versions",
	"__pycache__",
	".venv",
}

var defaultProtectedBranches = []string{"main", "master", "production"}

// DefaultConfiguration returns the baseline configuration applied underneath
// any user-provided file.
func DefaultConfiguration() Configuration {
	return Configuration{
		Common: CommonConfiguration{
			LogLevel:  defaultLogLevelConstant,
			LogFormat: defaultLogFormatConstant,
		},
		Catalog: CatalogConfiguration{
			DatabasePath: defaultDatabasePathConstant,
		},
		Scan: ScanConfiguration{
			Roots:                   []string{defaultHomeRootConstant},
			Exclude:                 append([]string{}, defaultExcludedDirectories...),
			MaxDepth:                defaultMaximumDepthConstant,
			CrossMounts:             false,
			StatTimeoutMilliseconds: defaultStatTimeoutMillisecondsConstant,
			AutoVerifySeconds:       defaultAutoVerifySecondsConstant,
		},
		Permissions: PermissionsConfiguration{
			InteractiveLevel: string(permission.LevelCommit),
			AutomatedLevel:   string(permission.LevelReadonly),
		},
		Safety: SafetyConfiguration{
			ProtectedBranches:        append([]string{}, defaultProtectedBranches...),
			AlwaysConfirmDestructive: defaultAlwaysConfirmDestructiveConstant,
			MaxPlanSize:              defaultMaximumPlanSizeConstant,
		},
		Display: DisplayConfiguration{
			Color: defaultDisplayColorConstant,
		},
	}
}

// DefaultConfigurationValues produces Viper defaults for every configuration
// key carrying a baseline value.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		commonLogLevelKeyConstant:          defaults.Common.LogLevel,
		commonLogFormatKeyConstant:         defaults.Common.LogFormat,
		catalogDatabasePathKeyConstant:     defaults.Catalog.DatabasePath,
		scanRootsKeyConstant:               defaults.Scan.Roots,
		scanExcludeKeyConstant:             defaults.Scan.Exclude,
		scanMaxDepthKeyConstant:            defaults.Scan.MaxDepth,
		scanCrossMountsKeyConstant:         defaults.Scan.CrossMounts,
		scanStatTimeoutKeyConstant:         defaults.Scan.StatTimeoutMilliseconds,
		scanAutoVerifyKeyConstant:          defaults.Scan.AutoVerifySeconds,
		permissionsInteractiveKeyConstant:  defaults.Permissions.InteractiveLevel,
		permissionsAutomatedKeyConstant:    defaults.Permissions.AutomatedLevel,
		safetyProtectedBranchesKeyConstant: defaults.Safety.ProtectedBranches,
		safetyAlwaysConfirmKeyConstant:     defaults.Safety.AlwaysConfirmDestructive,
		safetyMaxPlanSizeKeyConstant:       defaults.Safety.MaxPlanSize,
		displayColorKeyConstant:            defaults.Display.Color,
		displayNerdFontsKeyConstant:        defaults.Display.NerdFonts,
		displayCatModeKeyConstant:          defaults.Display.CatMode,
	}
}
