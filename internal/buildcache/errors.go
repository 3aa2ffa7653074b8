package buildcache

import "errors"

var (
	ErrNotFound = errors.New("cache entry not found")
	// ErrDirtyWorkspace is returned for workspaces with uncommitted changes,
	// whose outputs must never be shared.
	ErrDirtyWorkspace = errors.New("workspace has uncommitted changes")
	ErrInvalidKey     = errors.New("invalid cache key")
)
