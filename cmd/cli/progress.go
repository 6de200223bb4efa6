package cli

import (
	"fmt"
	"io"

	"github.com/temirov/gidx/internal/scan"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const (
	progressRepositoryFoundTemplateConstant     = "  found %s\n"
	progressBareRepositoryFoundTemplateConstant = "  found %s (bare)\n"
	progressTraversalErrorTemplateConstant      = "  error %s: %v\n"
)

// scanProgressObserver renders discovery progress as it happens. Skipped
// paths and directory entries stay silent; only discoveries and traversal
// failures are worth a terminal line.
type scanProgressObserver struct {
	writer       io.Writer
	homeExpander *pathutils.HomeExpander
}

func newScanProgressObserver(writer io.Writer, homeExpander *pathutils.HomeExpander) *scanProgressObserver {
	return &scanProgressObserver{writer: writer, homeExpander: homeExpander}
}

// DirectoryEntered implements scan.TraversalObserver.
func (observer *scanProgressObserver) DirectoryEntered(string) {}

// RepositoryFound implements scan.TraversalObserver.
func (observer *scanProgressObserver) RepositoryFound(path string, bare bool) {
	displayPath := observer.homeExpander.Contract(path)
	if bare {
		fmt.Fprintf(observer.writer, progressBareRepositoryFoundTemplateConstant, displayPath)
		return
	}
	fmt.Fprintf(observer.writer, progressRepositoryFoundTemplateConstant, displayPath)
}

// PathSkipped implements scan.TraversalObserver.
func (observer *scanProgressObserver) PathSkipped(string, scan.SkipReason) {}

// TraversalFailed implements scan.TraversalObserver.
func (observer *scanProgressObserver) TraversalFailed(path string, failure error) {
	fmt.Fprintf(observer.writer, progressTraversalErrorTemplateConstant, observer.homeExpander.Contract(path), failure)
}
