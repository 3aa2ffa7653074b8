package gitstate

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dotGit       = ".git"
	gitdirPrefix = "gitdir:"
)

// locate walks upward from dir until it finds a repository.
func locate(dir string) (Handle, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	info, err := os.Stat(start)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if !info.IsDir() {
		start = filepath.Dir(start)
	}

	for cur := start; ; {
		gitDir, found, lookupErr := lookupGitDir(cur)
		if lookupErr != nil {
			return Handle{}, lookupErr
		}
		if found {
			return Handle{Root: cur, GitDir: gitDir}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return Handle{}, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		cur = parent
	}
}

// lookupGitDir checks whether dir holds a .git directory or gitfile.
func lookupGitDir(dir string) (string, bool, error) {
	candidate := filepath.Join(dir, dotGit)

	info, err := os.Stat(candidate)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	if info.IsDir() {
		// A bare .git directory without HEAD is not a repository.
		if _, headErr := os.Stat(filepath.Join(candidate, "HEAD")); headErr != nil {
			return "", false, nil
		}
		return candidate, true, nil
	}

	gitDir, err := readGitFile(candidate)
	if err != nil {
		return "", false, err
	}

	return gitDir, true, nil
}

// readGitFile resolves a "gitdir: <path>" file used by worktrees and submodules.
func readGitFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", fmt.Errorf("%w: empty gitfile %s", ErrReadFailed, path)
	}

	line := strings.TrimSpace(scanner.Text())
	if !strings.HasPrefix(line, gitdirPrefix) {
		return "", fmt.Errorf("%w: malformed gitfile %s", ErrReadFailed, path)
	}

	gitDir := strings.TrimSpace(strings.TrimPrefix(line, gitdirPrefix))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(filepath.Dir(path), gitDir)
	}

	return filepath.Clean(gitDir), nil
}
