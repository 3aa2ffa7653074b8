package gitstate

import (
	"context"
	"errors"
	"regexp"
	"testing"
)

func TestService_GetBranch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		f := newCommittedFixture(t)

		branch, err := service.GetBranch(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetBranch failed: %v", err)
		}
		if branch != testBranch {
			t.Errorf("Expected branch '%s', got '%s'", testBranch, branch)
		}

		f.checkout("newbranch", true)

		branch, err = service.GetBranch(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetBranch failed: %v", err)
		}
		if branch != "newbranch" {
			t.Errorf("Expected branch 'newbranch', got '%s'", branch)
		}

		f.tag("v0.0.0", false)

		branch, err = service.GetBranch(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetBranch failed: %v", err)
		}
		if branch != "v0.0.0" {
			t.Errorf("Expected tag 'v0.0.0', got '%s'", branch)
		}
	})
}

func TestService_GetBranch_Detached(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		f := newCommittedFixture(t)
		first := f.head()

		f.write("second.txt", "second")
		f.add("second.txt")
		f.commit("second commit")

		f.detach(first)

		branch, err := service.GetBranch(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetBranch failed: %v", err)
		}
		if branch != first.String() {
			t.Errorf("Expected detached hash '%s', got '%s'", first, branch)
		}

		f.tag("v1.0.0", true)
		f.tag("v0.9.0", false)

		branch, err = service.GetBranch(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetBranch failed: %v", err)
		}
		if branch != "v0.9.0" {
			t.Errorf("Expected first tag 'v0.9.0', got '%s'", branch)
		}
	})
}

func TestService_GetBranch_Unborn(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		f := newFixture(t)

		branch, err := service.GetBranch(context.Background(), f.dir)
		if err != nil {
			t.Fatalf("GetBranch failed: %v", err)
		}
		if branch == "" {
			t.Error("Expected unborn branch name")
		}
	})
}

func TestService_GetCurrentRevision(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		f := newCommittedFixture(t)

		revision, err := service.GetCurrentRevision(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetCurrentRevision failed: %v", err)
		}
		if !regexp.MustCompile(`^[0-9a-f]{40}$`).MatchString(revision) {
			t.Errorf("Expected 40 hex characters, got '%s'", revision)
		}
		if revision != f.head().String() {
			t.Errorf("Expected revision '%s', got '%s'", f.head(), revision)
		}

		_, err = service.GetCurrentRevision(ctx, newFixture(t).dir)
		if !errors.Is(err, ErrNoHead) {
			t.Errorf("Expected ErrNoHead, got %v", err)
		}
	})
}

func TestService_GetOrigin(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		ctx := context.Background()

		f := newCommittedFixture(t)

		_, ok, err := service.GetOrigin(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetOrigin failed: %v", err)
		}
		if ok {
			t.Error("Expected no origin")
		}

		f.setOrigin("git@github.com:adobe/helix-cli.git")

		origin, ok, err := service.GetOrigin(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetOrigin failed: %v", err)
		}
		if !ok || origin != "git@github.com:adobe/helix-cli.git" {
			t.Errorf("Expected configured origin, got '%s' (%v)", origin, ok)
		}

		u, ok, err := service.GetOriginURL(ctx, f.dir)
		if err != nil {
			t.Fatalf("GetOriginURL failed: %v", err)
		}
		if !ok {
			t.Fatal("Expected origin URL")
		}
		if u.Owner() != "adobe" || u.Repo() != "helix-cli" || u.Hostname() != "github.com" {
			t.Errorf("Unexpected origin URL %s/%s@%s", u.Owner(), u.Repo(), u.Hostname())
		}
		if u.String() != origin {
			t.Errorf("Expected String() '%s', got '%s'", origin, u.String())
		}
	})
}
