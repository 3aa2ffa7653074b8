package gitstate

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		raw      string
		scheme   string
		user     string
		host     string
		port     string
		owner    string
		repo     string
		ref      string
		isLocal  bool
		hostPort string
	}{
		{
			raw:    "https://github.com/adobe/helix-cli.git",
			scheme: "https", host: "github.com", owner: "adobe", repo: "helix-cli",
			hostPort: "github.com",
		},
		{
			raw:    "git@github.com:adobe/helix-cli.git",
			scheme: "ssh", user: "git", host: "github.com", owner: "adobe", repo: "helix-cli",
			hostPort: "github.com",
		},
		{
			raw:    "ssh://git@Example.com:2222/team/sub/project.git",
			scheme: "ssh", user: "git", host: "example.com", port: "2222", owner: "team/sub", repo: "project",
			hostPort: "example.com:2222",
		},
		{
			raw:    "https://github.com/adobe/helix-cli.git#develop",
			scheme: "https", host: "github.com", owner: "adobe", repo: "helix-cli", ref: "develop",
			hostPort: "github.com",
		},
		{
			raw:    "/srv/git/project.git",
			scheme: "file", owner: "srv/git", repo: "project", isLocal: true,
		},
		{
			raw:    "file:///srv/git/project",
			scheme: "file", owner: "srv/git", repo: "project", isLocal: true,
		},
		{
			raw:    "C:/repos/project",
			scheme: "file", owner: "C:/repos", repo: "project", isLocal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := ParseRemoteURL(tt.raw)
			if err != nil {
				t.Fatalf("ParseRemoteURL failed: %v", err)
			}

			if u.String() != tt.raw {
				t.Errorf("Expected String() '%s', got '%s'", tt.raw, u.String())
			}
			if u.Scheme() != tt.scheme {
				t.Errorf("Expected scheme '%s', got '%s'", tt.scheme, u.Scheme())
			}
			if u.User() != tt.user {
				t.Errorf("Expected user '%s', got '%s'", tt.user, u.User())
			}
			if u.Hostname() != tt.host {
				t.Errorf("Expected hostname '%s', got '%s'", tt.host, u.Hostname())
			}
			if u.Port() != tt.port {
				t.Errorf("Expected port '%s', got '%s'", tt.port, u.Port())
			}
			if u.Host() != tt.hostPort {
				t.Errorf("Expected host '%s', got '%s'", tt.hostPort, u.Host())
			}
			if u.Owner() != tt.owner {
				t.Errorf("Expected owner '%s', got '%s'", tt.owner, u.Owner())
			}
			if u.Repo() != tt.repo {
				t.Errorf("Expected repo '%s', got '%s'", tt.repo, u.Repo())
			}
			if u.Ref() != tt.ref {
				t.Errorf("Expected ref '%s', got '%s'", tt.ref, u.Ref())
			}
			if u.IsLocal() != tt.isLocal {
				t.Errorf("Expected IsLocal %v, got %v", tt.isLocal, u.IsLocal())
			}
		})
	}
}

func TestParseRemoteURL_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "https://", "https://%zz/repo"} {
		if _, err := ParseRemoteURL(raw); !errors.Is(err, ErrInvalidRemoteURL) {
			t.Errorf("ParseRemoteURL(%q): expected ErrInvalidRemoteURL, got %v", raw, err)
		}
	}
}

func TestRemoteURL_Equal(t *testing.T) {
	https, _ := ParseRemoteURL("https://github.com/adobe/helix-cli.git")
	scp, _ := ParseRemoteURL("git@GitHub.com:adobe/helix-cli")
	other, _ := ParseRemoteURL("git@github.com:adobe/helix-pages.git")
	local, _ := ParseRemoteURL("/adobe/helix-cli.git")

	if !https.Equal(scp) {
		t.Error("Expected https and scp remotes to be equal")
	}
	if https.Equal(other) {
		t.Error("Expected different repositories not to be equal")
	}
	if https.Equal(local) {
		t.Error("Expected local path not to equal a hosted remote")
	}
}

func TestRemoteURL_JSON(t *testing.T) {
	u, err := ParseRemoteURL("git@github.com:adobe/helix-cli.git")
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(struct {
		Origin RemoteURL `json:"origin"`
	}{u})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"origin":"git@github.com:adobe/helix-cli.git"}` {
		t.Errorf("Unexpected JSON %s", data)
	}

	var decoded struct {
		Origin RemoteURL `json:"origin"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if !decoded.Origin.Equal(u) || decoded.Origin.String() != u.String() {
		t.Errorf("Expected decoded origin %s, got %s", u, decoded.Origin)
	}
}
