package gitstate

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// DirtyFlag is the branch flag reported for workspaces with uncommitted changes.
const DirtyFlag = "dirty"

// PathState classifies a single path.
type PathState string

const (
	StateUnmodified     PathState = "unmodified"
	StateModified       PathState = "modified"        // Worktree differs from index
	StateDeleted        PathState = "deleted"         // Tracked but missing from worktree
	StateStagedNew      PathState = "staged-new"      // In index, not in HEAD
	StateStagedModified PathState = "staged-modified" // Index differs from HEAD
	StateStagedDeleted  PathState = "staged-deleted"  // In HEAD, removed from index
	StateConflicted     PathState = "conflicted"      // Unmerged index stages
	StateUntracked      PathState = "untracked"
	StateIgnored        PathState = "ignored"
	StateNonRegular     PathState = "non-regular" // Sockets, pipes, devices
)

// Dirty reports whether a path in this state makes the workspace dirty.
func (s PathState) Dirty() bool {
	switch s {
	case StateUnmodified, StateIgnored, StateNonRegular:
		return false
	default:
		return true
	}
}

// PathStatus is the state of a path. A path may appear twice when it has
// both staged and unstaged changes.
type PathStatus struct {
	Path  string    `json:"path"`
	State PathState `json:"state"`
}

// Status is the result of a working tree scan.
type Status struct {
	Handle  Handle       `json:"-"`
	Entries []PathStatus `json:"entries"`
}

// IsDirty reports whether any entry is a meaningful change.
func (s *Status) IsDirty() bool {
	return lo.SomeBy(s.Entries, func(e PathStatus) bool { return e.State.Dirty() })
}

// Changes returns the entries that make the workspace dirty.
func (s *Status) Changes() []PathStatus {
	return lo.Filter(s.Entries, func(e PathStatus, _ int) bool { return e.State.Dirty() })
}

func (s *Status) sort() {
	slices.SortFunc(s.Entries, func(a, b PathStatus) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.State, b.State))
	})
}

// State is a snapshot of everything known about a workspace.
type State struct {
	Dir        string       `json:"dir"`
	Root       string       `json:"root"`
	Repository string       `json:"repository"`
	Branch     string       `json:"branch"`
	Flag       string       `json:"flag"`
	Revision   string       `json:"revision,omitempty"`
	Origin     *RemoteURL   `json:"origin,omitempty"`
	Dirty      bool         `json:"dirty"`
	Entries    []PathStatus `json:"entries,omitempty"`
}
