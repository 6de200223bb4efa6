package vitals

import (
	"strconv"
	"strings"
)

const (
	porcelainAheadBehindHeaderConstant    = "# branch.ab "
	porcelainOrdinaryEntryPrefixConstant  = "1 "
	porcelainRenamedEntryPrefixConstant   = "2 "
	porcelainUnmergedEntryPrefixConstant  = "u "
	porcelainUntrackedEntryPrefixConstant = "? "
	porcelainUnchangedStatusByteConstant  = byte('.')
	porcelainAheadFieldPrefixConstant     = "+"
	porcelainBehindFieldPrefixConstant    = "-"
	porcelainStatusFieldLengthConstant    = 2
)

// WorktreeStatus summarizes a porcelain v2 status listing.
type WorktreeStatus struct {
	Dirty     bool
	Staged    bool
	Untracked bool
	Ahead     int
	Behind    int
}

// ParseWorktreeStatus interprets `git status --porcelain=v2 --branch` output.
// Unmerged entries count as dirty; ahead and behind stay zero without an
// upstream.
func ParseWorktreeStatus(statusOutput string) WorktreeStatus {
	status := WorktreeStatus{}
	for _, statusLine := range strings.Split(statusOutput, "\n") {
		switch {
		case strings.HasPrefix(statusLine, porcelainAheadBehindHeaderConstant):
			status.Ahead, status.Behind = parseAheadBehind(strings.TrimPrefix(statusLine, porcelainAheadBehindHeaderConstant))
		case strings.HasPrefix(statusLine, porcelainOrdinaryEntryPrefixConstant), strings.HasPrefix(statusLine, porcelainRenamedEntryPrefixConstant):
			stagedByte, worktreeByte, parsed := changedEntryStatusBytes(statusLine)
			if !parsed {
				continue
			}
			if stagedByte != porcelainUnchangedStatusByteConstant {
				status.Staged = true
			}
			if worktreeByte != porcelainUnchangedStatusByteConstant {
				status.Dirty = true
			}
		case strings.HasPrefix(statusLine, porcelainUnmergedEntryPrefixConstant):
			status.Dirty = true
		case strings.HasPrefix(statusLine, porcelainUntrackedEntryPrefixConstant):
			status.Untracked = true
		}
	}
	return status
}

func changedEntryStatusBytes(statusLine string) (byte, byte, bool) {
	fields := strings.Fields(statusLine)
	if len(fields) < 2 || len(fields[1]) != porcelainStatusFieldLengthConstant {
		return 0, 0, false
	}
	return fields[1][0], fields[1][1], true
}

func parseAheadBehind(headerSegment string) (int, int) {
	aheadCount := 0
	behindCount := 0
	for _, headerField := range strings.Fields(headerSegment) {
		if strings.HasPrefix(headerField, porcelainAheadFieldPrefixConstant) {
			parsedValue, parseError := strconv.Atoi(strings.TrimPrefix(headerField, porcelainAheadFieldPrefixConstant))
			if parseError == nil {
				aheadCount = parsedValue
			}
		}
		if strings.HasPrefix(headerField, porcelainBehindFieldPrefixConstant) {
			parsedValue, parseError := strconv.Atoi(strings.TrimPrefix(headerField, porcelainBehindFieldPrefixConstant))
			if parseError == nil {
				behindCount = parsedValue
			}
		}
	}
	return aheadCount, behindCount
}
