package gitstate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

var errStopScan = errors.New("scan stopped")

// fileHasher is implemented by repositories that hash many files in one go.
type fileHasher interface {
	HashFiles(ctx context.Context, paths []string) ([]string, error)
}

// Status classifies every changed path of the workspace containing dir.
func (s *Service) Status(ctx context.Context, dir string, opts ...Option) (status *Status, err error) {
	defer s.observe(opStatus, time.Now(), &err)

	repo, err := s.open(ctx, dir)
	if err != nil {
		return nil, err
	}

	status = &Status{Handle: repo.Handle()}
	err = s.scan(ctx, repo, s.options(opts), func(ps PathStatus) bool {
		status.Entries = append(status.Entries, ps)
		return true
	})
	if err != nil {
		s.logger.Error("failed to scan workspace", zap.String("dir", dir), zap.Error(err))
		return nil, err
	}

	status.sort()

	s.logger.Debug("workspace scanned",
		zap.String("root", status.Handle.Root),
		zap.Int("entries", len(status.Entries)))

	return status, nil
}

// IsDirty reports whether the workspace containing dir has uncommitted
// changes. It stops at the first change found.
func (s *Service) IsDirty(ctx context.Context, dir string, opts ...Option) (dirty bool, err error) {
	defer s.observe(opIsDirty, time.Now(), &err)

	repo, err := s.open(ctx, dir)
	if err != nil {
		return false, err
	}

	o := s.options(opts)
	o.includeIgnored = false

	err = s.scan(ctx, repo, o, func(ps PathStatus) bool {
		if ps.State.Dirty() {
			s.logger.Debug("workspace is dirty", zap.String("path", ps.Path), zap.String("state", string(ps.State)))
			dirty = true
			return false
		}
		return true
	})
	if err != nil {
		s.logger.Error("failed to scan workspace", zap.String("dir", dir), zap.Error(err))
		return false, err
	}

	return dirty, nil
}

type scanner struct {
	ctx            context.Context
	backend        Backend
	repo           Repository
	root           string
	tracked        map[string]Entry
	fileMode       bool
	includeIgnored bool
	emit           func(PathStatus) bool
}

// scan feeds every path state to emit until it returns false.
func (s *Service) scan(ctx context.Context, repo Repository, o options, emit func(PathStatus) bool) error {
	index, err := repo.Index(ctx)
	if err != nil {
		return err
	}

	tree, err := repo.Tree(ctx)
	if err != nil {
		return err
	}

	fileMode, err := fileModeEnabled(ctx, repo)
	if err != nil {
		return err
	}

	rules, err := s.baseRules(ctx, repo, o)
	if err != nil {
		return err
	}

	sc := &scanner{
		ctx:            ctx,
		backend:        s.backend,
		repo:           repo,
		root:           repo.Handle().Root,
		tracked:        lo.SliceToMap(index, func(e Entry) (string, Entry) { return e.Path, e }),
		fileMode:       fileMode,
		includeIgnored: o.includeIgnored,
		emit:           emit,
	}

	err = sc.run(index, tree, rules)
	if errors.Is(err, errStopScan) {
		return nil
	}

	return err
}

func (sc *scanner) run(index, tree []Entry, rules ignoreRules) error {
	if err := sc.compareStaged(index, tree); err != nil {
		return err
	}

	if err := sc.compareWorktree(index); err != nil {
		return err
	}

	return sc.walk(nil, rules)
}

func (sc *scanner) report(path string, state PathState) error {
	if !sc.emit(PathStatus{Path: path, State: state}) {
		return errStopScan
	}
	return nil
}

// compareStaged compares the index against the HEAD tree.
func (sc *scanner) compareStaged(index, tree []Entry) error {
	head := lo.SliceToMap(tree, func(e Entry) (string, Entry) { return e.Path, e })
	conflicted := make(map[string]struct{})

	for _, e := range index {
		if e.Stage != 0 {
			if _, seen := conflicted[e.Path]; !seen {
				conflicted[e.Path] = struct{}{}
				if err := sc.report(e.Path, StateConflicted); err != nil {
					return err
				}
			}
			continue
		}

		committed, ok := head[e.Path]
		switch {
		case !ok:
			if err := sc.report(e.Path, StateStagedNew); err != nil {
				return err
			}
		case committed.Hash != e.Hash || committed.Mode != e.Mode:
			if err := sc.report(e.Path, StateStagedModified); err != nil {
				return err
			}
		}
	}

	for _, e := range tree {
		if _, ok := sc.tracked[e.Path]; !ok {
			if err := sc.report(e.Path, StateStagedDeleted); err != nil {
				return err
			}
		}
	}

	return nil
}

// compareWorktree compares the index against the files on disk.
func (sc *scanner) compareWorktree(index []Entry) error {
	var pending []Entry

	for _, e := range index {
		if e.Stage != 0 {
			continue
		}
		if err := sc.ctx.Err(); err != nil {
			return err
		}

		state, needsContent, err := sc.inspect(e)
		if err != nil {
			return err
		}
		if needsContent {
			pending = append(pending, e)
			continue
		}
		if state != StateUnmodified {
			if err := sc.report(e.Path, state); err != nil {
				return err
			}
		}
	}

	return sc.compareContent(pending)
}

// inspect classifies e from its metadata alone. needsContent is set for
// regular files whose content has to be hashed.
func (sc *scanner) inspect(e Entry) (PathState, bool, error) {
	abs := sc.abs(e.Path)

	info, err := os.Lstat(abs)
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return StateDeleted, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	switch {
	case e.Mode == ModeGitlink:
		if !info.IsDir() {
			return StateModified, false, nil
		}
		return sc.inspectSubmodule(e, abs)

	case e.Mode == ModeSymlink:
		if info.Mode()&fs.ModeSymlink == 0 {
			return StateModified, false, nil
		}
		target, readErr := os.Readlink(abs)
		if readErr != nil {
			return "", false, fmt.Errorf("%w: %w", ErrReadFailed, readErr)
		}
		hash, hashErr := sc.repo.HashBlob(sc.ctx, []byte(target))
		if hashErr != nil {
			return "", false, hashErr
		}
		if hash != e.Hash {
			return StateModified, false, nil
		}
		return StateUnmodified, false, nil

	case e.Mode.isFile():
		if !info.Mode().IsRegular() {
			return StateModified, false, nil
		}
		// git only looks at the owner execute bit.
		if sc.fileMode && (info.Mode().Perm()&0o100 != 0) != (e.Mode == ModeExecutable) {
			return StateModified, false, nil
		}
		return StateUnmodified, true, nil

	default:
		return StateModified, false, nil
	}
}

// inspectSubmodule compares the commit checked out in a submodule with the
// one recorded in the index. An uninitialized submodule is unmodified.
func (sc *scanner) inspectSubmodule(e Entry, abs string) (PathState, bool, error) {
	_, found, err := lookupGitDir(abs)
	if err != nil {
		return "", false, err
	}
	if !found {
		return StateUnmodified, false, nil
	}

	sub, err := sc.backend.Open(sc.ctx, abs)
	if err != nil {
		return "", false, err
	}

	head, err := sub.Head(sc.ctx)
	if err != nil {
		return "", false, err
	}
	if head.Hash != e.Hash {
		return StateModified, false, nil
	}

	return StateUnmodified, false, nil
}

func (sc *scanner) compareContent(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	paths := lo.Map(entries, func(e Entry, _ int) string { return sc.abs(e.Path) })

	if batch, ok := sc.repo.(fileHasher); ok {
		hashes, err := batch.HashFiles(sc.ctx, paths)
		if err != nil {
			return err
		}
		for i, e := range entries {
			if hashes[i] != e.Hash {
				if err := sc.report(e.Path, StateModified); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for i, e := range entries {
		if err := sc.ctx.Err(); err != nil {
			return err
		}

		content, err := os.ReadFile(paths[i])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		hash, err := sc.repo.HashBlob(sc.ctx, content)
		if err != nil {
			return err
		}
		if hash != e.Hash {
			if err := sc.report(e.Path, StateModified); err != nil {
				return err
			}
		}
	}

	return nil
}

// walk looks for untracked entries below rel, applying .gitignore files on
// the way down.
func (sc *scanner) walk(rel []string, rules ignoreRules) error {
	if err := sc.ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(sc.root, filepath.Join(rel...))

	patterns, err := readPatternFile(filepath.Join(dir, gitignoreFile), slices.Clone(rel))
	if err != nil {
		return err
	}
	rules = rules.with(patterns)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	for _, de := range entries {
		name := de.Name()
		if name == dotGit {
			continue
		}

		parts := append(slices.Clone(rel), name)
		path := strings.Join(parts, "/")
		typ := de.Type()

		switch {
		case typ.IsDir():
			if e, ok := sc.tracked[path]; ok && e.Mode == ModeGitlink {
				continue
			}
			if rules.match(parts, true) {
				if err := sc.optional(path+"/", StateIgnored); err != nil {
					return err
				}
				continue
			}
			if _, statErr := os.Lstat(filepath.Join(dir, name, dotGit)); statErr == nil {
				// Nested repository
				if err := sc.report(path+"/", StateUntracked); err != nil {
					return err
				}
				continue
			}
			if err := sc.walk(parts, rules); err != nil {
				return err
			}

		case typ.IsRegular() || typ&fs.ModeSymlink != 0:
			if _, ok := sc.tracked[path]; ok {
				continue
			}
			if rules.match(parts, false) {
				if err := sc.optional(path, StateIgnored); err != nil {
					return err
				}
				continue
			}
			if err := sc.report(path, StateUntracked); err != nil {
				return err
			}

		default:
			// Sockets, pipes and devices; tracked ones already showed up as modified.
			if _, ok := sc.tracked[path]; ok {
				continue
			}
			if err := sc.optional(path, StateNonRegular); err != nil {
				return err
			}
		}
	}

	return nil
}

// optional reports states that only appear when ignored entries are requested.
func (sc *scanner) optional(path string, state PathState) error {
	if !sc.includeIgnored {
		return nil
	}
	return sc.report(path, state)
}

func (sc *scanner) abs(path string) string {
	return filepath.Join(sc.root, filepath.FromSlash(path))
}

func fileModeEnabled(ctx context.Context, repo Repository) (bool, error) {
	value, ok, err := repo.ConfigValue(ctx, keyCoreFileMode)
	if err != nil || !ok {
		return true, err
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "no", "off", "0":
		return false, nil
	default:
		return true, nil
	}
}
