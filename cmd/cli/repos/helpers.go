package repos

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/output"
	"github.com/temirov/gidx/internal/permission"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	errorMissingStoreProvider = "catalogue store provider not configured"
	errorMissingGatesProvider = "permission gate provider not configured"

	entryNotFoundTemplateConstant = "no catalogued repository matches %q"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// StoreProvider supplies the opened catalogue store.
type StoreProvider func() (*index.Store, error)

// OutputFormatProvider supplies the format selected for command output.
type OutputFormatProvider func() output.Format

// GatesProvider supplies the interactive and automated permission gates.
type GatesProvider func() (interactive *permission.Gate, automated *permission.Gate)

// CatModeProvider reports whether difficulty levels render their cat names.
type CatModeProvider func() bool

func resolveStore(provider StoreProvider) (*index.Store, error) {
	if provider == nil {
		return nil, errors.New(errorMissingStoreProvider)
	}
	return provider()
}

func resolveOutputFormat(provider OutputFormatProvider) output.Format {
	if provider == nil {
		return output.FormatHuman
	}
	resolvedFormat := provider()
	if len(resolvedFormat) == 0 {
		return output.FormatHuman
	}
	return resolvedFormat
}

func resolveGates(provider GatesProvider) (*permission.Gate, *permission.Gate, error) {
	if provider == nil {
		return nil, nil, errors.New(errorMissingGatesProvider)
	}
	interactiveGate, automatedGate := provider()
	if interactiveGate == nil || automatedGate == nil {
		return nil, nil, errors.New(errorMissingGatesProvider)
	}
	return interactiveGate, automatedGate, nil
}

func resolveCatMode(provider CatModeProvider) bool {
	if provider == nil {
		return false
	}
	return provider()
}

func resolveHomeExpander(homeExpander *pathutils.HomeExpander) *pathutils.HomeExpander {
	if homeExpander == nil {
		return pathutils.NewHomeExpander()
	}
	return homeExpander
}

// lookupEntry resolves a command argument to a catalogue entry. Arguments
// containing a path separator resolve by exact path first; everything falls
// back to the fuzzy name lookup. A nil entry means nothing matched.
func lookupEntry(requestContext context.Context, store *index.Store, homeExpander *pathutils.HomeExpander, argument string) (*catalog.Entry, error) {
	trimmedArgument := strings.TrimSpace(argument)

	if strings.ContainsRune(trimmedArgument, filepath.Separator) || strings.HasPrefix(trimmedArgument, "~") {
		candidatePath := homeExpander.Expand(trimmedArgument)
		if absolutePath, absoluteError := filepath.Abs(candidatePath); absoluteError == nil {
			candidatePath = absolutePath
		}
		entry, lookupError := store.FindByPath(requestContext, candidatePath)
		if lookupError != nil {
			return nil, lookupError
		}
		if entry != nil {
			return entry, nil
		}
	}

	return store.FindByName(requestContext, trimmedArgument)
}

// requireEntry wraps lookupEntry for commands whose argument must resolve.
func requireEntry(requestContext context.Context, store *index.Store, homeExpander *pathutils.HomeExpander, argument string) (*catalog.Entry, error) {
	entry, lookupError := lookupEntry(requestContext, store, homeExpander, argument)
	if lookupError != nil {
		return nil, lookupError
	}
	if entry == nil {
		return nil, fmt.Errorf(entryNotFoundTemplateConstant, argument)
	}
	return entry, nil
}
