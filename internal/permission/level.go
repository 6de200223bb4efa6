package permission

import "strings"

// Level is a difficulty level controlling which operations are permitted.
type Level string

// Difficulty levels in ascending order of permissiveness.
const (
	LevelReadonly Level = "readonly"
	LevelFetch    Level = "fetch"
	LevelCommit   Level = "commit"
	LevelForce    Level = "force"
	LevelUnsafe   Level = "unsafe"
)

// Cat-mode display names.
const (
	catModeReadonlyDisplayNameConstant = "napping"
	catModeFetchDisplayNameConstant    = "purring"
	catModeCommitDisplayNameConstant   = "hunting"
	catModeForceDisplayNameConstant    = "zoomies"
	catModeUnsafeDisplayNameConstant   = "knocking-things-off-the-counter"
)

const unknownLevelRankConstant = -1

var orderedLevels = []Level{LevelReadonly, LevelFetch, LevelCommit, LevelForce, LevelUnsafe}

// Levels returns every difficulty level in ascending order.
func Levels() []Level {
	levels := make([]Level, len(orderedLevels))
	copy(levels, orderedLevels)
	return levels
}

// ParseLevel normalizes and validates a difficulty level name.
func ParseLevel(value string) (Level, bool) {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	for _, knownLevel := range orderedLevels {
		if normalizedValue == string(knownLevel) {
			return knownLevel, true
		}
	}
	return "", false
}

// Allows reports whether the level permits operations requiring requiredLevel.
func (level Level) Allows(requiredLevel Level) bool {
	return level.rank() >= requiredLevel.rank() && level.rank() != unknownLevelRankConstant
}

// DisplayName renders the level name, optionally in cat mode.
func (level Level) DisplayName(catMode bool) string {
	if !catMode {
		return string(level)
	}
	switch level {
	case LevelReadonly:
		return catModeReadonlyDisplayNameConstant
	case LevelFetch:
		return catModeFetchDisplayNameConstant
	case LevelCommit:
		return catModeCommitDisplayNameConstant
	case LevelForce:
		return catModeForceDisplayNameConstant
	case LevelUnsafe:
		return catModeUnsafeDisplayNameConstant
	default:
		return string(level)
	}
}

func (level Level) rank() int {
	for levelIndex, knownLevel := range orderedLevels {
		if level == knownLevel {
			return levelIndex
		}
	}
	return unknownLevelRankConstant
}

// OperationClass categorizes operations by the damage they can do.
type OperationClass string

// Operation classes.
const (
	OperationClassRead        OperationClass = "read"
	OperationClassFetch       OperationClass = "fetch"
	OperationClassWrite       OperationClass = "write"
	OperationClassForce       OperationClass = "force"
	OperationClassDestructive OperationClass = "destructive"
)

var orderedOperationClasses = []OperationClass{
	OperationClassRead,
	OperationClassFetch,
	OperationClassWrite,
	OperationClassForce,
	OperationClassDestructive,
}

// OperationClasses returns every operation class in ascending required level.
func OperationClasses() []OperationClass {
	operationClasses := make([]OperationClass, len(orderedOperationClasses))
	copy(operationClasses, orderedOperationClasses)
	return operationClasses
}

// ParseOperationClass normalizes and validates an operation class name.
func ParseOperationClass(value string) (OperationClass, bool) {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	for _, knownClass := range orderedOperationClasses {
		if normalizedValue == string(knownClass) {
			return knownClass, true
		}
	}
	return "", false
}

// RequiredLevel returns the minimum difficulty level for the operation class.
func (operationClass OperationClass) RequiredLevel() Level {
	switch operationClass {
	case OperationClassRead:
		return LevelReadonly
	case OperationClassFetch:
		return LevelFetch
	case OperationClassWrite:
		return LevelCommit
	case OperationClassForce:
		return LevelForce
	case OperationClassDestructive:
		return LevelUnsafe
	default:
		return LevelUnsafe
	}
}
