package gitstate

const (
	BackendNative = "native"
	BackendExec   = "exec"
)

type Config struct {
	// Backend selects how repository metadata is read: "native" (go-git) or "exec" (git binary).
	Backend string
	// Binary is the git executable used by the exec backend.
	Binary string
	// UserHome overrides the home directory used to find the global excludes file.
	UserHome string
}
