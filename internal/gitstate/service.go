package gitstate

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Service answers questions about the git workspace containing a directory.
// It keeps no state between calls; every query re-reads the disk.
type Service struct {
	backend Backend
	config  Config
	metrics *Metrics

	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(backend Backend, config Config, metrics *Metrics, logger *zap.Logger) *Service {
	return &Service{
		backend: backend,
		config:  config,
		metrics: metrics,

		logger: logger,
	}
}

// Backend returns the name of the backend in use.
func (s *Service) Backend() string {
	return s.backend.Name()
}

// Locate finds the repository containing dir.
func (s *Service) Locate(ctx context.Context, dir string) (handle Handle, err error) {
	defer s.observe(opLocate, time.Now(), &err)

	repo, err := s.open(ctx, dir)
	if err != nil {
		return Handle{}, err
	}

	return repo.Handle(), nil
}

// GetConfigValue reads a repository-local configuration value.
func (s *Service) GetConfigValue(ctx context.Context, dir, key string) (value string, ok bool, err error) {
	defer s.observe(opConfig, time.Now(), &err)

	repo, err := s.open(ctx, dir)
	if err != nil {
		return "", false, err
	}

	return repo.ConfigValue(ctx, key)
}

// GetGlobalExcludesFile resolves the user's global excludes file.
func (s *Service) GetGlobalExcludesFile(opts ...Option) (string, bool, error) {
	return globalExcludesFile(s.options(opts).userHome)
}

// IsIgnored reports whether path, relative to dir, is excluded by the ignore
// rules. Outside a repository only the global excludes file applies.
func (s *Service) IsIgnored(ctx context.Context, dir, path string, opts ...Option) (ignored bool, err error) {
	defer s.observe(opIgnored, time.Now(), &err)

	ignored, err = s.isIgnored(ctx, dir, path, s.options(opts))
	if err != nil {
		s.logger.Error("failed to evaluate ignore rules",
			zap.String("dir", dir),
			zap.String("path", path),
			zap.Error(err))
		return false, err
	}

	return ignored, nil
}

// GetState collects everything known about the workspace in one snapshot.
func (s *Service) GetState(ctx context.Context, dir string, opts ...Option) (state *State, err error) {
	defer s.observe(opState, time.Now(), &err)

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	status, err := s.Status(ctx, abs, opts...)
	if err != nil {
		return nil, err
	}

	state = &State{
		Dir:     abs,
		Root:    status.Handle.Root,
		Dirty:   status.IsDirty(),
		Entries: status.Entries,
	}

	if state.Branch, err = s.GetBranch(ctx, abs); err != nil {
		return nil, err
	}

	state.Flag = state.Branch
	if state.Dirty {
		state.Flag = DirtyFlag
	}

	state.Revision, err = s.GetCurrentRevision(ctx, abs)
	if err != nil && !errors.Is(err, ErrNoHead) {
		return nil, err
	}

	origin, ok, err := s.GetOriginURL(ctx, abs)
	if err != nil {
		return nil, err
	}
	if ok {
		state.Origin = &origin
	}

	if state.Repository, err = s.GetRepository(ctx, abs); err != nil {
		return nil, err
	}

	return state, nil
}

func (s *Service) open(ctx context.Context, dir string) (Repository, error) {
	repo, err := s.backend.Open(ctx, dir)
	if errors.Is(err, ErrNotRepository) {
		s.logger.Debug("not a repository", zap.String("dir", dir))
		return nil, err
	}
	if err != nil {
		s.logger.Error("failed to open repository",
			zap.String("dir", dir),
			zap.String("backend", s.backend.Name()),
			zap.Error(err))
		return nil, err
	}

	return repo, nil
}

func (s *Service) options(opts []Option) options {
	o := options{userHome: s.config.UserHome}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (s *Service) observe(operation string, start time.Time, err *error) {
	s.metrics.observe(s.backend.Name(), operation, time.Since(start), *err)
}
