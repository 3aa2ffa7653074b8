package gitstate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// GetBranch names what is checked out in dir: a tag pointing at HEAD, the
// current branch, or the HEAD hash when detached.
func (s *Service) GetBranch(ctx context.Context, dir string) (name string, err error) {
	defer s.observe(opBranch, time.Now(), &err)

	repo, err := s.open(ctx, dir)
	if err != nil {
		return "", err
	}

	head, err := repo.Head(ctx)
	if err != nil {
		s.logger.Error("failed to resolve HEAD", zap.String("dir", dir), zap.Error(err))
		return "", err
	}

	if head.Hash != "" {
		tags, tagsErr := repo.TagsAt(ctx, head.Hash)
		if tagsErr != nil {
			s.logger.Error("failed to list tags", zap.String("dir", dir), zap.Error(tagsErr))
			return "", tagsErr
		}
		if len(tags) > 0 {
			return tags[0], nil
		}
	}

	if !head.Detached() {
		return head.Branch, nil
	}

	return head.Hash, nil
}

// GetCurrentRevision returns the full hash of the HEAD commit.
func (s *Service) GetCurrentRevision(ctx context.Context, dir string) (revision string, err error) {
	defer s.observe(opRevision, time.Now(), &err)

	repo, err := s.open(ctx, dir)
	if err != nil {
		return "", err
	}

	head, err := repo.Head(ctx)
	if err != nil {
		return "", err
	}
	if head.Hash == "" {
		return "", fmt.Errorf("%w: %s", ErrNoHead, repo.Handle().Root)
	}

	return head.Hash, nil
}

// GetOrigin returns the configured URL of the origin remote, verbatim.
func (s *Service) GetOrigin(ctx context.Context, dir string) (origin string, ok bool, err error) {
	defer s.observe(opOrigin, time.Now(), &err)

	repo, err := s.open(ctx, dir)
	if err != nil {
		return "", false, err
	}

	return repo.ConfigValue(ctx, keyOriginURL)
}

// GetOriginURL returns the parsed origin remote.
func (s *Service) GetOriginURL(ctx context.Context, dir string) (RemoteURL, bool, error) {
	origin, ok, err := s.GetOrigin(ctx, dir)
	if err != nil || !ok {
		return RemoteURL{}, false, err
	}

	u, err := ParseRemoteURL(origin)
	if err != nil {
		return RemoteURL{}, false, err
	}

	return u, true, nil
}
