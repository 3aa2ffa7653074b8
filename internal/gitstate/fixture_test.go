package gitstate

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"go.uber.org/zap/zaptest"
)

// fixture is a repository in a temporary directory.
type fixture struct {
	t        *testing.T
	dir      string
	repo     *git.Repository
	worktree *git.Worktree
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "workspace")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{t: t, dir: dir, repo: repo, worktree: worktree}
}

// testBranch is checked out by newCommittedFixture. It differs from every
// default branch name.
const testBranch = "develop"

// newCommittedFixture creates a repository on testBranch with README.md and
// a .gitignore excluding *.log committed.
func newCommittedFixture(t *testing.T) *fixture {
	t.Helper()

	f := newFixture(t)
	f.write("README.md", "# workspace\n")
	f.write(".gitignore", "*.log\n")
	f.add("README.md", ".gitignore")
	f.commit("initial commit")
	f.checkout(testBranch, true)

	return f
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, filepath.FromSlash(name))
}

func (f *fixture) write(name, content string) {
	f.t.Helper()

	path := f.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) remove(name string) {
	f.t.Helper()

	if err := os.Remove(f.path(name)); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) add(names ...string) {
	f.t.Helper()

	for _, name := range names {
		if _, err := f.worktree.Add(name); err != nil {
			f.t.Fatal(err)
		}
	}
}

func (f *fixture) commit(message string) plumbing.Hash {
	f.t.Helper()

	hash, err := f.worktree.Commit(message, &git.CommitOptions{
		Author: signature(),
	})
	if err != nil {
		f.t.Fatal(err)
	}

	return hash
}

func (f *fixture) head() plumbing.Hash {
	f.t.Helper()

	ref, err := f.repo.Head()
	if err != nil {
		f.t.Fatal(err)
	}

	return ref.Hash()
}

func (f *fixture) checkout(branch string, create bool) {
	f.t.Helper()

	err := f.worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
		Keep:   true,
	})
	if err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) detach(hash plumbing.Hash) {
	f.t.Helper()

	if err := f.worktree.Checkout(&git.CheckoutOptions{Hash: hash, Keep: true}); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) tag(name string, annotated bool) {
	f.t.Helper()

	var opts *git.CreateTagOptions
	if annotated {
		opts = &git.CreateTagOptions{Tagger: signature(), Message: "release " + name}
	}

	if _, err := f.repo.CreateTag(name, f.head(), opts); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) setOrigin(url string) {
	f.t.Helper()

	_, err := f.repo.CreateRemote(&config.RemoteConfig{
		Name: originName,
		URLs: []string{url},
	})
	if err != nil {
		f.t.Fatal(err)
	}
}

// appendConfig appends raw lines to the repository config file.
func (f *fixture) appendConfig(lines ...string) {
	f.t.Helper()

	file, err := os.OpenFile(f.path(".git/config"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		f.t.Fatal(err)
	}
	defer file.Close()

	if _, err := file.WriteString("\n" + strings.Join(lines, "\n") + "\n"); err != nil {
		f.t.Fatal(err)
	}
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  "Test Author",
		Email: "test@example.com",
		When:  time.Now(),
	}
}

// newHome creates a user home whose global excludes file holds patterns.
func newHome(t *testing.T, patterns ...string) string {
	t.Helper()

	home := t.TempDir()

	gitconfig := "[core]\n\texcludesfile = ~/.gitignore_global\n"
	if err := os.WriteFile(filepath.Join(home, globalConfigName), []byte(gitconfig), 0o644); err != nil {
		t.Fatal(err)
	}

	excludes := strings.Join(patterns, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(home, ".gitignore_global"), []byte(excludes), 0o644); err != nil {
		t.Fatal(err)
	}

	return home
}

func newTestService(t *testing.T, backend Backend) *Service {
	t.Helper()

	return NewService(backend, Config{}, NewMetrics(), zaptest.NewLogger(t))
}

// forEachBackend runs fn against every available backend. The exec backend
// is skipped when no git binary is installed.
func forEachBackend(t *testing.T, fn func(t *testing.T, service *Service)) {
	t.Helper()

	t.Run(BackendNative, func(t *testing.T) {
		fn(t, newTestService(t, NewNativeBackend()))
	})

	t.Run(BackendExec, func(t *testing.T) {
		if _, err := exec.LookPath(defaultBinary); err != nil {
			t.Skip("git binary not available")
		}
		fn(t, newTestService(t, NewExecBackend("")))
	})
}
