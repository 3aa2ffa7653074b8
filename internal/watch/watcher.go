package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apiarycd/gitstate/internal/gitstate"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	defaultDebounce = 200 * time.Millisecond

	dotGit     = ".git"
	lockSuffix = ".lock"
)

// Watcher reports workspace state changes as the worktree is edited.
type Watcher struct {
	state  *gitstate.Service
	config Config
	logger *zap.Logger
}

func NewWatcher(state *gitstate.Service, config Config, logger *zap.Logger) *Watcher {
	return &Watcher{
		state:  state,
		config: config,
		logger: logger,
	}
}

// Watch emits the current state of dir and then every state whose branch
// flag, dirtiness or revision differs from the last emitted one. It blocks
// until ctx is done.
func (w *Watcher) Watch(ctx context.Context, dir string, emit func(*gitstate.State), opts ...gitstate.Option) error {
	handle, err := w.state.Locate(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to locate repository: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, handle.Root); err != nil {
		return err
	}
	if err := w.addGitDir(fsw, handle.GitDir); err != nil {
		return err
	}

	debounce := w.config.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	var last *gitstate.State
	evaluate := func() error {
		state, stateErr := w.state.GetState(ctx, dir, opts...)
		if errors.Is(stateErr, gitstate.ErrNotRepository) || (stateErr != nil && missing(dir)) {
			return fmt.Errorf("workspace is gone: %w", stateErr)
		}
		if stateErr != nil {
			w.logger.Warn("failed to evaluate workspace", zap.String("dir", dir), zap.Error(stateErr))
			return nil
		}

		if changed(last, state) {
			w.logger.Debug("workspace state changed",
				zap.String("flag", state.Flag),
				zap.Bool("dirty", state.Dirty),
				zap.String("revision", state.Revision),
			)
			emit(state)
			last = state
		}
		return nil
	}

	if err := evaluate(); err != nil {
		return err
	}

	w.logger.Info("watching workspace", zap.String("root", handle.Root), zap.Duration("debounce", debounce))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(handle.GitDir, ev) {
				continue
			}
			if ev.Has(fsnotify.Create) && !isInside(handle.GitDir, ev.Name) {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.addRecursive(fsw, ev.Name); addErr != nil {
						w.logger.Warn("failed to watch directory", zap.String("path", ev.Name), zap.Error(addErr))
					}
				}
			}
			timer.Reset(debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if err := evaluate(); err != nil {
				return err
			}
		}
	}
}

// addRecursive watches every directory below root except repository metadata.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to walk %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == dotGit {
			return filepath.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			w.logger.Debug("failed to watch directory", zap.String("path", path), zap.Error(addErr))
		}
		return nil
	})
}

// addGitDir watches the git directory itself for HEAD and index updates
// and its refs for new commits.
func (w *Watcher) addGitDir(fsw *fsnotify.Watcher, gitDir string) error {
	if err := fsw.Add(gitDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", gitDir, err)
	}

	return filepath.WalkDir(filepath.Join(gitDir, "refs"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil //nolint:nilerr //refs may be missing in a fresh repository
		}
		if addErr := fsw.Add(path); addErr != nil {
			w.logger.Debug("failed to watch refs", zap.String("path", path), zap.Error(addErr))
		}
		return nil
	})
}

// relevant drops lock file churn inside the git directory.
func relevant(gitDir string, ev fsnotify.Event) bool {
	if isInside(gitDir, ev.Name) {
		return !strings.HasSuffix(ev.Name, lockSuffix)
	}
	return true
}

// missing reports whether dir itself no longer exists. Paths vanishing
// inside the worktree during a scan are not terminal.
func missing(dir string) bool {
	_, err := os.Stat(dir)
	return errors.Is(err, fs.ErrNotExist)
}

func isInside(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func changed(prev, next *gitstate.State) bool {
	if prev == nil {
		return true
	}
	return prev.Flag != next.Flag || prev.Dirty != next.Dirty || prev.Revision != next.Revision
}
