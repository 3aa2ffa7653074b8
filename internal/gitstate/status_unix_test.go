//go:build unix

package gitstate

import (
	"context"
	"net"
	"syscall"
	"testing"
)

func TestService_IsDirty_Socket(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		f := newCommittedFixture(t)

		// The socket file disappears once the listener is closed.
		listener, err := net.Listen("unix", f.path("app.sock"))
		if err != nil {
			t.Skipf("unix sockets not supported: %v", err)
		}
		defer listener.Close()

		dirty, err := service.IsDirty(context.Background(), f.dir, WithUserHome(newHome(t)))
		if err != nil {
			t.Fatalf("IsDirty failed: %v", err)
		}
		if dirty {
			t.Error("Expected socket not to make the workspace dirty")
		}

		status, err := service.Status(context.Background(), f.dir, WithUserHome(newHome(t)), WithIgnored())
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if len(status.Entries) != 1 || status.Entries[0] != (PathStatus{Path: "app.sock", State: StateNonRegular}) {
			t.Errorf("Expected a single non-regular entry, got %v", status.Entries)
		}
	})
}

func TestService_IsDirty_FIFO(t *testing.T) {
	forEachBackend(t, func(t *testing.T, service *Service) {
		f := newCommittedFixture(t)

		if err := syscall.Mkfifo(f.path("queue"), 0o644); err != nil {
			t.Skipf("fifo not supported: %v", err)
		}

		dirty, err := service.IsDirty(context.Background(), f.dir, WithUserHome(newHome(t)))
		if err != nil {
			t.Fatalf("IsDirty failed: %v", err)
		}
		if dirty {
			t.Error("Expected fifo not to make the workspace dirty")
		}
	})
}
