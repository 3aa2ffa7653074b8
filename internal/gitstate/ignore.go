package gitstate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
)

const (
	gitignoreFile = ".gitignore"
	commentPrefix = "#"
)

// ignoreRules holds patterns in increasing precedence; the last matching
// pattern decides.
type ignoreRules struct {
	patterns []gitignore.Pattern
}

func (r ignoreRules) with(patterns []gitignore.Pattern) ignoreRules {
	if len(patterns) == 0 {
		return r
	}

	merged := make([]gitignore.Pattern, 0, len(r.patterns)+len(patterns))
	merged = append(merged, r.patterns...)
	merged = append(merged, patterns...)

	return ignoreRules{patterns: merged}
}

func (r ignoreRules) match(parts []string, isDir bool) bool {
	if len(r.patterns) == 0 {
		return false
	}

	return gitignore.NewMatcher(r.patterns).Match(parts, isDir)
}

// matchWithParents reports whether parts or any of its parent directories is
// excluded. Nothing below an excluded directory can be re-included.
func (r ignoreRules) matchWithParents(parts []string, isDir bool) bool {
	for i := 1; i < len(parts); i++ {
		if r.match(parts[:i], true) {
			return true
		}
	}

	return r.match(parts, isDir)
}

// readPatternFile parses an ignore file. domain scopes the patterns to the
// directory holding the file. A missing file yields no patterns.
func readPatternFile(path string, domain []string) ([]gitignore.Pattern, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	var patterns []gitignore.Pattern
	for line := range strings.SplitSeq(string(data), "\n") {
		line = trimPatternLine(line)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}

	return patterns, nil
}

// trimPatternLine drops the line terminator and unescaped trailing spaces.
func trimPatternLine(line string) string {
	line = strings.TrimSuffix(line, "\r")
	for strings.HasSuffix(line, " ") && !strings.HasSuffix(line, `\ `) {
		line = line[:len(line)-1]
	}
	return line
}

// baseRules collects the rules that apply to the whole worktree: the global
// excludes file, the repository's core.excludesfile and info/exclude. repo
// may be nil outside a repository.
func (s *Service) baseRules(ctx context.Context, repo Repository, o options) (ignoreRules, error) {
	var rules ignoreRules

	global, ok, err := globalExcludesFile(o.userHome)
	if err != nil {
		return rules, err
	}
	if ok {
		patterns, readErr := readPatternFile(global, nil)
		if readErr != nil {
			return rules, readErr
		}
		rules = rules.with(patterns)
	}

	if repo == nil {
		return rules, nil
	}

	handle := repo.Handle()

	// A local core.excludesfile adds to the global one rather than replacing it.
	local, ok, err := repo.ConfigValue(ctx, keyCoreExcludes)
	if err != nil {
		return rules, err
	}
	if ok {
		home, _, dirsErr := userDirs(o.userHome)
		if dirsErr != nil {
			return rules, dirsErr
		}
		patterns, readErr := readPatternFile(expandPath(local, home, handle.Root), nil)
		if readErr != nil {
			return rules, readErr
		}
		rules = rules.with(patterns)
	}

	patterns, err := readPatternFile(filepath.Join(handle.GitDir, "info", "exclude"), nil)
	if err != nil {
		return rules, err
	}

	return rules.with(patterns), nil
}

// isIgnored evaluates relPath (relative to dir) against every rule source.
func (s *Service) isIgnored(ctx context.Context, dir, relPath string, o options) (bool, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	repo, err := s.backend.Open(ctx, absDir)
	if errors.Is(err, ErrNotRepository) {
		repo = nil
	} else if err != nil {
		return false, err
	}

	target := relPath
	if !filepath.IsAbs(target) {
		target = filepath.Join(absDir, relPath)
	}

	root := absDir
	if repo != nil {
		root = repo.Handle().Root
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, fmt.Errorf("%w: %s", ErrOutsideWorktree, relPath)
	}
	if rel == "." {
		return false, nil
	}

	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")

	rules, err := s.baseRules(ctx, repo, o)
	if err != nil {
		return false, err
	}

	if repo != nil {
		index, indexErr := repo.Index(ctx)
		if indexErr != nil {
			return false, indexErr
		}
		if slices.ContainsFunc(index, func(e Entry) bool { return e.Path == rel }) {
			return false, nil
		}

		// .gitignore files from the root down to the containing directory
		for i := range len(parts) {
			domain := slices.Clone(parts[:i])
			file := filepath.Join(root, filepath.Join(domain...), gitignoreFile)

			patterns, readErr := readPatternFile(file, domain)
			if readErr != nil {
				return false, readErr
			}
			rules = rules.with(patterns)
		}
	}

	isDir := false
	if info, statErr := os.Lstat(target); statErr == nil {
		isDir = info.IsDir()
	}

	return rules.matchWithParents(parts, isDir), nil
}
