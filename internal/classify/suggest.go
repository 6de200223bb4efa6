package classify

import (
	"path/filepath"
	"sort"

	"github.com/temirov/gidx/internal/catalog"
)

const (
	minimumClusterSizeConstant     = 3
	suggestedPatternSuffixConstant = "/*"
)

// Suggestion proposes a classification rule for a directory holding several
// repositories that no rule or heuristic assigned a manager to.
type Suggestion struct {
	Directory       string
	RepositoryCount int
}

// PathPattern renders the glob covering every repository in the cluster.
func (suggestion Suggestion) PathPattern() string {
	return suggestion.Directory + suggestedPatternSuffixConstant
}

// SuggestRules clusters unmanaged entries by parent directory and proposes a
// rule for every directory holding at least three of them. Suggestions are
// ordered by descending cluster size, then by directory for stable output.
func SuggestRules(entries []catalog.Entry) []Suggestion {
	clusterSizes := map[string]int{}
	for _, entry := range entries {
		if len(entry.ManagedBy) > 0 {
			continue
		}
		clusterSizes[filepath.Dir(entry.Path)]++
	}

	suggestions := make([]Suggestion, 0, len(clusterSizes))
	for directory, repositoryCount := range clusterSizes {
		if repositoryCount < minimumClusterSizeConstant {
			continue
		}
		suggestions = append(suggestions, Suggestion{Directory: directory, RepositoryCount: repositoryCount})
	}

	sort.Slice(suggestions, func(firstIndex, secondIndex int) bool {
		if suggestions[firstIndex].RepositoryCount != suggestions[secondIndex].RepositoryCount {
			return suggestions[firstIndex].RepositoryCount > suggestions[secondIndex].RepositoryCount
		}
		return suggestions[firstIndex].Directory < suggestions[secondIndex].Directory
	})
	return suggestions
}
