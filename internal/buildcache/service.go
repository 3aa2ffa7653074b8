package buildcache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apiarycd/gitstate/internal/gitstate"
	"go.uber.org/zap"
)

const maxKeyLength = 512

// Service stores build outputs keyed by the state of the workspace that
// produced them. Dirty workspaces never read or write entries.
type Service struct {
	state      *gitstate.Service
	repository *Repository
	config     Config

	logger *zap.Logger
}

func NewService(state *gitstate.Service, repository *Repository, config Config, logger *zap.Logger) *Service {
	return &Service{
		state:      state,
		repository: repository,
		config:     config,

		logger: logger,
	}
}

// Namespace resolves the cache namespace of the workspace containing dir.
func (s *Service) Namespace(ctx context.Context, dir string, opts ...gitstate.Option) (Namespace, error) {
	repository, err := s.state.GetRepository(ctx, dir)
	if err != nil {
		return Namespace{}, err
	}

	flag, err := s.state.GetBranchFlag(ctx, dir, opts...)
	if err != nil {
		return Namespace{}, err
	}

	revision, err := s.state.GetCurrentRevision(ctx, dir)
	if err != nil && !errors.Is(err, gitstate.ErrNoHead) {
		return Namespace{}, err
	}

	return Namespace{Repository: repository, Flag: flag, Revision: revision}, nil
}

// Get retrieves the entry stored under key for the current workspace state.
func (s *Service) Get(ctx context.Context, dir, key string, opts ...gitstate.Option) (*Entry, error) {
	ns, err := s.cleanNamespace(ctx, dir, key, opts)
	if err != nil {
		return nil, err
	}

	entry, err := s.repository.Get(ctx, ns, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to get cache entry", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Debug("cache hit",
		zap.String("repository", ns.Repository),
		zap.String("flag", ns.Flag),
		zap.String("key", key))

	return entry, nil
}

// Put stores value under key for the current workspace state.
func (s *Service) Put(ctx context.Context, dir, key string, value []byte, opts ...gitstate.Option) (*Entry, error) {
	ns, err := s.cleanNamespace(ctx, dir, key, opts)
	if err != nil {
		return nil, err
	}

	entry, err := s.repository.Put(ctx, ns, key, value, s.config.TTL)
	if err != nil {
		s.logger.Error("failed to store cache entry", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	s.logger.Info("cache entry stored",
		zap.String("id", entry.ID.String()),
		zap.String("repository", ns.Repository),
		zap.String("flag", ns.Flag),
		zap.String("revision", ns.Revision),
		zap.String("key", key))

	return entry, nil
}

// List retrieves every entry of the workspace's repository.
func (s *Service) List(ctx context.Context, dir string) ([]Entry, error) {
	repository, err := s.state.GetRepository(ctx, dir)
	if err != nil {
		return nil, err
	}

	return s.repository.List(ctx, repository)
}

// Purge deletes every entry of the workspace's repository.
func (s *Service) Purge(ctx context.Context, dir string) (int, error) {
	repository, err := s.state.GetRepository(ctx, dir)
	if err != nil {
		return 0, err
	}

	removed, err := s.repository.Purge(ctx, repository)
	if err != nil {
		s.logger.Error("failed to purge cache", zap.String("repository", repository), zap.Error(err))
		return 0, err
	}

	s.logger.Info("cache purged", zap.String("repository", repository), zap.Int("removed", removed))

	return removed, nil
}

func (s *Service) cleanNamespace(ctx context.Context, dir, key string, opts []gitstate.Option) (Namespace, error) {
	if strings.TrimSpace(key) == "" || len(key) > maxKeyLength {
		return Namespace{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	ns, err := s.Namespace(ctx, dir, opts...)
	if err != nil {
		return Namespace{}, err
	}

	if ns.Flag == gitstate.DirtyFlag {
		return Namespace{}, fmt.Errorf("%w: %s", ErrDirtyWorkspace, dir)
	}

	return ns, nil
}
