package classify

import (
	"github.com/gobwas/glob"

	"github.com/temirov/gidx/internal/catalog"
)

// Manager names assigned by the built-in heuristics.
const (
	ManagerLazyNvim      = "lazy.nvim"
	ManagerNvimPack      = "nvim-pack"
	ManagerVimPlug       = "vim-plug"
	ManagerSuperCollider = "SuperCollider"
	ManagerCargo         = "cargo"
	ManagerFreeCAD       = "FreeCAD"
	Manager86Box         = "86Box"
)

type managerHeuristic struct {
	pathMatcher glob.Glob
	manager     string
}

// Tool-managed checkout locations, matched in order. The first match assigns
// the manager.
var managerHeuristics = []managerHeuristic{
	{pathMatcher: glob.MustCompile("*/.local/share/nvim/lazy/*"), manager: ManagerLazyNvim},
	{pathMatcher: glob.MustCompile("*/.local/share/nvim/site/pack/*/start/*"), manager: ManagerNvimPack},
	{pathMatcher: glob.MustCompile("*/.vim/plugged/*"), manager: ManagerVimPlug},
	{pathMatcher: glob.MustCompile("*/.local/share/SuperCollider/downloaded-quarks/*"), manager: ManagerSuperCollider},
	{pathMatcher: glob.MustCompile("*/.cargo/git/checkouts/*"), manager: ManagerCargo},
	{pathMatcher: glob.MustCompile("*/.local/share/FreeCAD/Mod/*"), manager: ManagerFreeCAD},
	{pathMatcher: glob.MustCompile("*/.local/share/86Box/*"), manager: Manager86Box},
}

// applyHeuristics assigns a manager to entries living inside known
// tool-managed directories. It only runs when no configuration rule set a
// manager, and fills ownership and intention only when those are still unset.
func applyHeuristics(entry *catalog.Entry) {
	if len(entry.ManagedBy) > 0 {
		return
	}
	for _, heuristic := range managerHeuristics {
		if !heuristic.pathMatcher.Match(entry.Path) {
			continue
		}
		entry.ManagedBy = heuristic.manager
		if entry.Ownership.IsZero() {
			entry.Ownership = catalog.Ownership{Kind: catalog.OwnershipKindThirdParty}
		}
		if len(entry.Intention) == 0 {
			entry.Intention = catalog.IntentionDependency
		}
		return
	}
}
