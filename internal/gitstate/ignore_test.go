package gitstate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestService_IsIgnored(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		f := newCommittedFixture(t)
		f.write("tracked.log", "tracked")
		f.add("tracked.log")
		f.commit("add tracked log")

		f.write(".gitignore", "# build output\n\n*.log\n!keep.log\nbuild/\n!build/keep.txt\n/root-only.txt\ntrailing.txt   \n")
		f.write("sub/.gitignore", "!special.log\n*.tmp\n")
		f.write(".git/info/exclude", "secret.txt\n")
		f.write("local-excludes", "*.cache\n")
		f.appendConfig("[core]", "\texcludesfile = "+filepath.ToSlash(f.path("local-excludes")))

		home := newHome(t, ".global-ignored-file.txt", "*.bak")

		tests := []struct {
			path    string
			ignored bool
		}{
			{"debug.log", true},
			{"deep/nested/debug.log", true},
			{"keep.log", false},
			{"missing.log", true},
			{"README.md", false},
			{"# build output", false},
			{"build", true},
			{"build/output.bin", true},
			{"build/keep.txt", true},
			{"root-only.txt", true},
			{"sub/root-only.txt", false},
			{"trailing.txt", true},
			{"sub/special.log", false},
			{"special.log", true},
			{"sub/file.tmp", true},
			{"file.tmp", false},
			{"secret.txt", true},
			{"data.cache", true},
			{".global-ignored-file.txt", true},
			{"sub/backup.bak", true},
			{"tracked.log", false},
		}

		f.write("build/output.bin", "bin")

		for _, tt := range tests {
			t.Run(tt.path, func(t *testing.T) {
				ignored, err := service.IsIgnored(ctx, f.dir, tt.path, WithUserHome(home))
				if err != nil {
					t.Fatalf("IsIgnored failed: %v", err)
				}
				if ignored != tt.ignored {
					t.Errorf("Expected ignored %v for %s, got %v", tt.ignored, tt.path, ignored)
				}
			})
		}
	})
}

func TestService_IsIgnored_FromSubdirectory(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		f := newCommittedFixture(t)
		f.write("sub/.gitignore", "*.tmp\n")

		ignored, err := service.IsIgnored(context.Background(), f.path("sub"), "file.tmp", WithUserHome(newHome(t)))
		if err != nil {
			t.Fatalf("IsIgnored failed: %v", err)
		}
		if !ignored {
			t.Error("Expected sub/file.tmp to be ignored")
		}
	})
}

func TestService_IsIgnored_OutsideRepository(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()
		dir := t.TempDir()
		home := newHome(t, ".global-ignored-file.txt")

		ignored, err := service.IsIgnored(ctx, dir, ".global-ignored-file.txt", WithUserHome(home))
		if err != nil {
			t.Fatalf("IsIgnored failed: %v", err)
		}
		if !ignored {
			t.Error("Expected globally excluded file to be ignored outside a repository")
		}

		ignored, err = service.IsIgnored(ctx, dir, "README.md", WithUserHome(home))
		if err != nil {
			t.Fatalf("IsIgnored failed: %v", err)
		}
		if ignored {
			t.Error("Expected README.md not to be ignored")
		}
	})
}

func TestService_IsIgnored_OutsideWorktree(t *testing.T) {
	f := newCommittedFixture(t)
	service := newTestService(t, NewNativeBackend())

	_, err := service.IsIgnored(context.Background(), f.dir, "../elsewhere.log", WithUserHome(newHome(t)))
	if !errors.Is(err, ErrOutsideWorktree) {
		t.Errorf("Expected ErrOutsideWorktree, got %v", err)
	}
}

func TestTrimPatternLine(t *testing.T) {
	tests := map[string]string{
		"*.log":      "*.log",
		"*.log   ":   "*.log",
		"*.log\r":    "*.log",
		`space\ `:    `space\ `,
		"   leading": "   leading",
	}

	for in, expected := range tests {
		if got := trimPatternLine(in); got != expected {
			t.Errorf("trimPatternLine(%q) = %q, expected %q", in, got, expected)
		}
	}
}
