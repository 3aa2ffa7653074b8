package gitstate

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

const localPrefix = "local--"

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// sanitizeIdentifier replaces every character outside [A-Za-z0-9] with a
// dash, one dash per character.
func sanitizeIdentifier(s string) string {
	return nonAlphanumeric.ReplaceAllString(s, "-")
}

// GetRepository derives a stable identifier for the workspace: the
// sanitized origin URL, or "local--" followed by the directory name when
// there is no origin.
func (s *Service) GetRepository(ctx context.Context, dir string) (id string, err error) {
	defer s.observe(opRepository, time.Now(), &err)

	origin, ok, err := s.GetOrigin(ctx, dir)
	if err != nil {
		return "", err
	}
	if ok {
		return sanitizeIdentifier(origin), nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	return localPrefix + filepath.Base(abs), nil
}

// GetBranchFlag returns DirtyFlag for workspaces with uncommitted changes and
// the branch name otherwise.
func (s *Service) GetBranchFlag(ctx context.Context, dir string, opts ...Option) (string, error) {
	dirty, err := s.IsDirty(ctx, dir, opts...)
	if err != nil {
		return "", err
	}
	if dirty {
		return DirtyFlag, nil
	}

	return s.GetBranch(ctx, dir)
}
