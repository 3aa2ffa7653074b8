package gitstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

const defaultBinary = "git"

// execBackend reads repository metadata by running the git binary.
type execBackend struct {
	binary string
}

// NewExecBackend creates a Backend that shells out to binary.
func NewExecBackend(binary string) Backend {
	if binary == "" {
		binary = defaultBinary
	}

	return &execBackend{binary: binary}
}

// Name implements Backend.
func (b *execBackend) Name() string {
	return BackendExec
}

// Open implements Backend.
func (b *execBackend) Open(ctx context.Context, dir string) (Repository, error) {
	// Same existence checks and error kinds as the native locator.
	located, err := locate(dir)
	if err != nil {
		return nil, err
	}

	out, err := b.output(ctx, located.Root, nil, "rev-parse", "--show-toplevel", "--absolute-git-dir")
	if err != nil {
		if exitCode(err) == 128 && strings.Contains(err.Error(), "not a git repository") {
			return nil, fmt.Errorf("%w: %w", ErrNotRepository, err)
		}
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		return nil, fmt.Errorf("%w: unexpected rev-parse output %q", ErrReadFailed, out)
	}

	handle := Handle{
		Root:   filepath.Clean(lines[0]),
		GitDir: filepath.Clean(lines[1]),
	}

	// git reports symlink-resolved paths; keep the caller's spelling when
	// both name the same directory.
	if sameDir(located.Root, handle.Root) {
		handle.Root = located.Root
	}
	if sameDir(located.GitDir, handle.GitDir) {
		handle.GitDir = located.GitDir
	}

	return &execRepository{backend: b, handle: handle}, nil
}

func sameDir(a, b string) bool {
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && ra == rb
}

// output runs git in dir and returns its stdout. Process failures wrap
// ErrReadFailed; the underlying *exec.ExitError stays reachable via errors.As.
func (b *execBackend) output(ctx context.Context, dir string, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, b.binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf(
			"%w: git %s: %w: %s",
			ErrReadFailed, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()),
		)
	}

	return stdout.Bytes(), nil
}

type execRepository struct {
	backend *execBackend
	handle  Handle
}

func (r *execRepository) git(ctx context.Context, args ...string) ([]byte, error) {
	return r.backend.output(ctx, r.handle.Root, nil, args...)
}

// exitCode returns the exit code of a failed git invocation, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Handle implements Repository.
func (r *execRepository) Handle() Handle {
	return r.handle
}

// ConfigValue implements Repository.
func (r *execRepository) ConfigValue(ctx context.Context, key string) (string, bool, error) {
	if _, _, _, err := splitConfigKey(key); err != nil {
		return "", false, err
	}

	out, err := r.git(ctx, "config", "--local", "--get", key)
	if exitCode(err) == 1 {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	value := strings.TrimRight(string(out), "\n")
	return value, value != "", nil
}

// Head implements Repository.
func (r *execRepository) Head(ctx context.Context) (Head, error) {
	var head Head

	out, err := r.git(ctx, "symbolic-ref", "-q", "HEAD")
	switch {
	case err == nil:
		head.Branch = strings.TrimPrefix(strings.TrimSpace(string(out)), "refs/heads/")
	case exitCode(err) == 1:
		// Detached
	default:
		return Head{}, err
	}

	out, err = r.git(ctx, "rev-parse", "-q", "--verify", "HEAD^{commit}")
	switch {
	case err == nil:
		head.Hash = strings.TrimSpace(string(out))
	case exitCode(err) == 1:
		// Unborn
	default:
		return Head{}, err
	}

	return head, nil
}

// TagsAt implements Repository.
func (r *execRepository) TagsAt(ctx context.Context, hash string) ([]string, error) {
	out, err := r.git(ctx, "tag", "--points-at", hash)
	if err != nil {
		return nil, err
	}

	names := strings.Fields(string(out))
	slices.Sort(names)
	return names, nil
}

// Index implements Repository.
func (r *execRepository) Index(ctx context.Context) ([]Entry, error) {
	out, err := r.git(ctx, "ls-files", "--stage", "-z")
	if err != nil {
		return nil, err
	}

	// <mode> SP <hash> SP <stage> TAB <path>
	return parseEntries(out, func(fields []string, path string) (Entry, error) {
		if len(fields) != 3 {
			return Entry{}, fmt.Errorf("malformed index line for %s", path)
		}
		stage, err := strconv.Atoi(fields[2])
		if err != nil {
			return Entry{}, fmt.Errorf("malformed stage for %s: %w", path, err)
		}
		return Entry{Hash: fields[1], Stage: stage}, nil
	})
}

// Tree implements Repository.
func (r *execRepository) Tree(ctx context.Context) ([]Entry, error) {
	head, err := r.Head(ctx)
	if err != nil {
		return nil, err
	}
	if head.Hash == "" {
		return nil, nil
	}

	out, err := r.git(ctx, "ls-tree", "-r", "-z", "--full-tree", head.Hash)
	if err != nil {
		return nil, err
	}

	// <mode> SP <type> SP <hash> TAB <path>
	return parseEntries(out, func(fields []string, path string) (Entry, error) {
		if len(fields) != 3 {
			return Entry{}, fmt.Errorf("malformed tree line for %s", path)
		}
		return Entry{Hash: fields[2]}, nil
	})
}

// parseEntries splits NUL terminated "<fields>\t<path>" records. The mode is
// always the first field; parse fills in the rest.
func parseEntries(out []byte, parse func(fields []string, path string) (Entry, error)) ([]Entry, error) {
	var entries []Entry

	for record := range strings.SplitSeq(string(out), "\x00") {
		if record == "" {
			continue
		}

		meta, path, ok := strings.Cut(record, "\t")
		if !ok {
			return nil, fmt.Errorf("%w: malformed record %q", ErrReadFailed, record)
		}

		fields := strings.Fields(meta)
		entry, err := parse(fields, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		mode, err := strconv.ParseUint(fields[0], 8, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed mode for %s: %w", ErrReadFailed, path, err)
		}

		entry.Path = path
		entry.Mode = Mode(mode)
		entries = append(entries, entry)
	}

	return entries, nil
}

// HashBlob implements Repository.
func (r *execRepository) HashBlob(ctx context.Context, content []byte) (string, error) {
	out, err := r.backend.output(ctx, r.handle.Root, content, "hash-object", "-t", "blob", "--no-filters", "--stdin")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}

// HashFiles hashes the files at paths with a single git process.
func (r *execRepository) HashFiles(ctx context.Context, paths []string) ([]string, error) {
	stdin := []byte(strings.Join(paths, "\n") + "\n")

	out, err := r.backend.output(ctx, r.handle.Root, stdin, "hash-object", "-t", "blob", "--no-filters", "--stdin-paths")
	if err != nil {
		return nil, err
	}

	hashes := strings.Fields(string(out))
	if len(hashes) != len(paths) {
		return nil, fmt.Errorf("%w: hash-object returned %d hashes for %d paths", ErrReadFailed, len(hashes), len(paths))
	}

	return hashes, nil
}
