package gitstate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	schemeSSH  = "ssh"
	schemeFile = "file"
)

// scpLike matches "[user@]host:path" remotes.
var scpLike = regexp.MustCompile(`^(?:([^@/]+)@)?([^:/]+):(.*)$`)

// RemoteURL is a parsed remote location. It keeps the configured string
// verbatim so String round-trips exactly.
type RemoteURL struct {
	raw      string
	scheme   string
	user     string
	hostname string
	port     string
	path     string
	owner    string
	repo     string
	ref      string
}

// ParseRemoteURL parses URL, scp-like and local path remotes. A "#fragment"
// is kept as the ref.
func ParseRemoteURL(raw string) (RemoteURL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RemoteURL{}, fmt.Errorf("%w: empty", ErrInvalidRemoteURL)
	}

	u := RemoteURL{raw: raw}
	rest, ref, _ := strings.Cut(s, "#")
	u.ref = ref

	switch m := scpLike.FindStringSubmatch(rest); {
	case strings.Contains(rest, "://"):
		parsed, err := url.Parse(rest)
		if err != nil {
			return RemoteURL{}, fmt.Errorf("%w: %w", ErrInvalidRemoteURL, err)
		}
		if parsed.Host == "" && parsed.Scheme != schemeFile {
			return RemoteURL{}, fmt.Errorf("%w: missing host in %q", ErrInvalidRemoteURL, raw)
		}
		u.scheme = strings.ToLower(parsed.Scheme)
		if parsed.User != nil {
			u.user = parsed.User.Username()
		}
		u.hostname = strings.ToLower(parsed.Hostname())
		u.port = parsed.Port()
		u.path = parsed.Path

	case m != nil && len(m[2]) > 1:
		// Single letter hosts are Windows drives, not scp remotes.
		u.scheme = schemeSSH
		u.user = m[1]
		u.hostname = strings.ToLower(m[2])
		u.path = "/" + strings.TrimPrefix(m[3], "/")

	default:
		u.scheme = schemeFile
		u.path = rest
	}

	segments := strings.FieldsFunc(u.path, func(r rune) bool { return r == '/' || r == '\\' })
	if len(segments) > 0 {
		u.repo = strings.TrimSuffix(segments[len(segments)-1], ".git")
		u.owner = strings.Join(segments[:len(segments)-1], "/")
	}

	return u, nil
}

func (u RemoteURL) Scheme() string   { return u.scheme }
func (u RemoteURL) User() string     { return u.user }
func (u RemoteURL) Hostname() string { return u.hostname }
func (u RemoteURL) Port() string     { return u.port }
func (u RemoteURL) Path() string     { return u.path }
func (u RemoteURL) Owner() string    { return u.owner }
func (u RemoteURL) Repo() string     { return u.repo }
func (u RemoteURL) Ref() string      { return u.ref }

// Host returns the hostname with the port, if any.
func (u RemoteURL) Host() string {
	if u.port == "" {
		return u.hostname
	}
	return u.hostname + ":" + u.port
}

// IsLocal reports whether the remote is a path on this machine.
func (u RemoteURL) IsLocal() bool {
	return u.scheme == schemeFile
}

// IsZero reports whether u was never parsed.
func (u RemoteURL) IsZero() bool {
	return u.raw == ""
}

// String returns the remote exactly as configured.
func (u RemoteURL) String() string {
	return u.raw
}

// Equal reports whether both remotes point at the same repository,
// regardless of transport or ".git" suffix.
func (u RemoteURL) Equal(other RemoteURL) bool {
	if u.IsLocal() != other.IsLocal() {
		return false
	}

	return u.hostname == other.hostname &&
		u.owner == other.owner &&
		u.repo == other.repo &&
		u.ref == other.ref
}

// MarshalText implements encoding.TextMarshaler.
func (u RemoteURL) MarshalText() ([]byte, error) {
	return []byte(u.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *RemoteURL) UnmarshalText(text []byte) error {
	parsed, err := ParseRemoteURL(string(text))
	if err != nil {
		return err
	}

	*u = parsed
	return nil
}
