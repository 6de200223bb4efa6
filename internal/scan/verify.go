package scan

import "path/filepath"

// QuickVerifyResult partitions known repository paths after a stat-only pass.
type QuickVerifyResult struct {
	Unchanged []string
	Changed   []string
	Lost      []string
}

// QuickVerify stats known repository paths without touching git. Paths whose
// git metadata is reachable count as changed and are due for re-extraction;
// paths with no repository layout left on disk count as lost.
func QuickVerify(knownPaths []string) QuickVerifyResult {
	result := QuickVerifyResult{}

	for _, knownPath := range knownPaths {
		gitDirectoryPath := filepath.Join(knownPath, gitDirectoryNameConstant)
		switch {
		case pathExists(gitDirectoryPath):
			if pathExists(filepath.Join(gitDirectoryPath, bareHeadFileNameConstant)) {
				result.Changed = append(result.Changed, knownPath)
			} else {
				result.Unchanged = append(result.Unchanged, knownPath)
			}
		case pathExists(filepath.Join(knownPath, bareHeadFileNameConstant)):
			result.Changed = append(result.Changed, knownPath)
		default:
			result.Lost = append(result.Lost, knownPath)
		}
	}

	return result
}
