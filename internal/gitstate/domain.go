package gitstate

import "context"

// Handle identifies a discovered repository.
type Handle struct {
	Root   string // Worktree root
	GitDir string // Metadata store location
}

// Head describes what HEAD points at.
type Head struct {
	Branch string // Short branch name, empty when detached
	Hash   string // Commit hash, empty when the branch is unborn
}

// Detached reports whether HEAD points directly at a commit.
func (h Head) Detached() bool {
	return h.Branch == ""
}

// Mode is a git tree entry mode.
type Mode uint32

const (
	ModeDir        Mode = 0o040000
	ModeRegular    Mode = 0o100644
	ModeExecutable Mode = 0o100755
	ModeSymlink    Mode = 0o120000
	ModeGitlink    Mode = 0o160000
)

func (m Mode) isFile() bool {
	return m == ModeRegular || m == ModeExecutable
}

// Entry is a path recorded in the index or in the HEAD tree.
type Entry struct {
	Path  string // Slash separated, relative to the worktree root
	Hash  string
	Mode  Mode
	Stage int // Merge stage, 0 for regular index entries
}

// Backend opens repositories for reading.
//
// Backends only expose raw metadata; status classification and ignore
// precedence are computed by the Service.
type Backend interface {
	// Name returns the backend identifier used in logs and metrics.
	Name() string

	// Open locates the repository containing dir.
	// It returns ErrNotRepository when there is none.
	Open(ctx context.Context, dir string) (Repository, error)
}

// Repository is a read-only view of a repository's metadata store.
type Repository interface {
	Handle() Handle

	// ConfigValue reads a repository-local configuration value.
	ConfigValue(ctx context.Context, key string) (string, bool, error)

	// Head resolves HEAD.
	Head(ctx context.Context) (Head, error)

	// TagsAt lists the names of tags whose target commit is hash, sorted.
	TagsAt(ctx context.Context, hash string) ([]string, error)

	// Index lists the index entries.
	Index(ctx context.Context) ([]Entry, error)

	// Tree lists the blobs and gitlinks of the HEAD tree, empty when unborn.
	Tree(ctx context.Context) ([]Entry, error)

	// HashBlob computes the object id content would have as a blob.
	HashBlob(ctx context.Context, content []byte) (string, error)
}

type options struct {
	userHome       string
	includeIgnored bool
}

// Option customizes a single query.
type Option func(*options)

// WithUserHome overrides the home directory used to locate the global
// excludes file.
func WithUserHome(dir string) Option {
	return func(o *options) {
		o.userHome = dir
	}
}

// WithIgnored makes Status record ignored and non-regular entries.
func WithIgnored() Option {
	return func(o *options) {
		o.includeIgnored = true
	}
}
