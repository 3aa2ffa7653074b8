package gitstate

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
)

func TestService_IsDirty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		tests := []struct {
			name  string
			setup func(f *fixture)
			dirty bool
		}{
			{
				name:  "clean",
				setup: func(*fixture) {},
				dirty: false,
			},
			{
				name: "modified",
				setup: func(f *fixture) {
					f.write("README.md", "# changed\n")
				},
				dirty: true,
			},
			{
				name: "reverted",
				setup: func(f *fixture) {
					f.write("README.md", "# changed\n")
					f.write("README.md", "# workspace\n")
				},
				dirty: false,
			},
			{
				name: "untracked",
				setup: func(f *fixture) {
					f.write("notes.txt", "todo")
				},
				dirty: true,
			},
			{
				name: "staged",
				setup: func(f *fixture) {
					f.write("notes.txt", "todo")
					f.add("notes.txt")
				},
				dirty: true,
			},
			{
				name: "deleted",
				setup: func(f *fixture) {
					f.remove("README.md")
				},
				dirty: true,
			},
			{
				name: "locally ignored",
				setup: func(f *fixture) {
					f.write("debug.log", "lots of output")
					f.write("logs/nested.log", "more output")
				},
				dirty: false,
			},
			{
				name: "globally ignored",
				setup: func(f *fixture) {
					f.write(".env", "SECRET=1")
				},
				dirty: false,
			},
			{
				name: "info exclude",
				setup: func(f *fixture) {
					f.write(".git/info/exclude", "scratch/\n")
					f.write("scratch/a.txt", "a")
				},
				dirty: false,
			},
			{
				name: "empty untracked directory",
				setup: func(f *fixture) {
					if err := os.MkdirAll(f.path("empty/inner"), 0o755); err != nil {
						f.t.Fatal(err)
					}
				},
				dirty: false,
			},
			{
				name: "nested repository",
				setup: func(f *fixture) {
					f.write("vendor/lib/.git/HEAD", "ref: refs/heads/main\n")
				},
				dirty: true,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newCommittedFixture(t)
				home := newHome(t, ".env")
				tt.setup(f)

				dirty, err := service.IsDirty(ctx, f.dir, WithUserHome(home))
				if err != nil {
					t.Fatalf("IsDirty failed: %v", err)
				}
				if dirty != tt.dirty {
					t.Errorf("Expected dirty %v, got %v", tt.dirty, dirty)
				}
			})
		}
	})
}

func TestService_IsDirty_ExecutableBit(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		f := newCommittedFixture(t)
		home := newHome(t)

		// Group and other execute bits do not count
		if err := os.Chmod(f.path("README.md"), 0o654); err != nil {
			t.Fatal(err)
		}

		dirty, err := service.IsDirty(ctx, f.dir, WithUserHome(home))
		if err != nil {
			t.Fatalf("IsDirty failed: %v", err)
		}
		if dirty {
			t.Error("Expected group execute bit to be ignored")
		}

		if err := os.Chmod(f.path("README.md"), 0o755); err != nil {
			t.Fatal(err)
		}

		dirty, err = service.IsDirty(ctx, f.dir, WithUserHome(home))
		if err != nil {
			t.Fatalf("IsDirty failed: %v", err)
		}
		if !dirty {
			t.Error("Expected mode change to make the workspace dirty")
		}

		f.appendConfig("[core]", "\tfilemode = false")

		dirty, err = service.IsDirty(ctx, f.dir, WithUserHome(home))
		if err != nil {
			t.Fatalf("IsDirty failed: %v", err)
		}
		if dirty {
			t.Error("Expected mode change to be ignored with core.filemode=false")
		}
	})
}

func TestService_IsDirty_Unborn(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		f := newFixture(t)
		home := newHome(t)

		dirty, err := service.IsDirty(ctx, f.dir, WithUserHome(home))
		if err != nil {
			t.Fatalf("IsDirty failed: %v", err)
		}
		if dirty {
			t.Error("Expected empty repository to be clean")
		}

		f.write("first.txt", "hello")
		f.add("first.txt")

		dirty, err = service.IsDirty(ctx, f.dir, WithUserHome(home))
		if err != nil {
			t.Fatalf("IsDirty failed: %v", err)
		}
		if !dirty {
			t.Error("Expected staged file in empty repository to be dirty")
		}
	})
}

func TestService_IsDirty_NotRepository(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		_, err := service.IsDirty(context.Background(), t.TempDir())
		if !errors.Is(err, ErrNotRepository) {
			t.Errorf("Expected ErrNotRepository, got %v", err)
		}
	})
}

func TestService_IsDirty_Canceled(t *testing.T) {
	f := newCommittedFixture(t)
	f.write("notes.txt", "todo")

	service := newTestService(t, NewNativeBackend())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.IsDirty(ctx, f.dir, WithUserHome(newHome(t)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestService_Status(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		f := newFixture(t)
		f.write(".gitignore", "*.log\nbuild/\n")
		f.write("README.md", "# workspace\n")
		f.write("src/main.go", "package main\n")
		f.write("old.txt", "old")
		f.write("gone.txt", "gone")
		f.add(".gitignore", "README.md", "src/main.go", "old.txt", "gone.txt")
		f.commit("initial commit")

		f.write("README.md", "# changed\n")
		f.remove("old.txt")
		f.write("new.txt", "new")
		f.add("new.txt")
		f.write("src/main.go", "package main\n\nfunc main() {}\n")
		f.add("src/main.go")
		if _, err := f.worktree.Remove("gone.txt"); err != nil {
			t.Fatal(err)
		}
		f.write("notes/todo.txt", "todo")
		f.write("app.log", "log")
		f.write("build/out.bin", "bin")

		home := newHome(t)

		status, err := service.Status(ctx, f.dir, WithUserHome(home), WithIgnored())
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}

		expected := []PathStatus{
			{Path: "README.md", State: StateModified},
			{Path: "app.log", State: StateIgnored},
			{Path: "build/", State: StateIgnored},
			{Path: "gone.txt", State: StateStagedDeleted},
			{Path: "new.txt", State: StateStagedNew},
			{Path: "notes/todo.txt", State: StateUntracked},
			{Path: "old.txt", State: StateDeleted},
			{Path: "src/main.go", State: StateStagedModified},
		}
		if !slices.Equal(status.Entries, expected) {
			t.Errorf("Expected entries %v, got %v", expected, status.Entries)
		}

		if !status.IsDirty() {
			t.Error("Expected status to be dirty")
		}
		if len(status.Changes()) != len(expected)-2 {
			t.Errorf("Expected %d changes, got %d", len(expected)-2, len(status.Changes()))
		}

		status, err = service.Status(ctx, f.dir, WithUserHome(home))
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		for _, e := range status.Entries {
			if e.State == StateIgnored {
				t.Errorf("Unexpected ignored entry %s without WithIgnored", e.Path)
			}
		}
	})
}

// runGit runs the git binary in dir with a fixed identity.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	args = append([]string{"-c", "protocol.file.allow=always", "-c", "commit.gpgsign=false"}, args...)
	cmd := exec.Command(defaultBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test Author", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test Author", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func TestService_IsDirty_Submodule(t *testing.T) {
	if _, err := exec.LookPath(defaultBinary); err != nil {
		t.Skip("git binary not available")
	}

	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		lib := newCommittedFixture(t)
		f := newCommittedFixture(t)
		home := newHome(t)

		runGit(t, f.dir, "submodule", "add", lib.dir, "lib")
		runGit(t, f.dir, "commit", "-m", "add lib")

		dirty, err := service.IsDirty(ctx, f.dir, WithUserHome(home))
		if err != nil {
			t.Fatalf("IsDirty failed: %v", err)
		}
		if dirty {
			t.Error("Expected submodule at the recorded commit to be clean")
		}

		sub := filepath.Join(f.dir, "lib")
		writeFile(t, filepath.Join(sub, "feature.txt"), "feature")
		runGit(t, sub, "add", "feature.txt")
		runGit(t, sub, "commit", "-m", "feature")

		status, err := service.Status(ctx, f.dir, WithUserHome(home))
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}

		expected := []PathStatus{{Path: "lib", State: StateModified}}
		if !slices.Equal(status.Entries, expected) {
			t.Errorf("Expected entries %v, got %v", expected, status.Entries)
		}
	})
}
