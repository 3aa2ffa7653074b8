package gitstate

import "errors"

var (
	// ErrNotRepository is returned when a directory is not inside any repository.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoHead is returned for repositories without any commit.
	ErrNoHead = errors.New("repository has no HEAD commit")
	// ErrReadFailed wraps unexpected filesystem, metadata or process failures.
	ErrReadFailed       = errors.New("failed to read repository state")
	ErrInvalidRemoteURL = errors.New("invalid remote URL")
	ErrUnknownBackend   = errors.New("unknown git backend")
	ErrOutsideWorktree  = errors.New("path is outside the worktree")
)
