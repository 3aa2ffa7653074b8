package workspace

// GETQuery selects the workspace to inspect.
type GETQuery struct {
	Dir     string `query:"dir"     validate:"required"`
	Home    string `query:"home"`
	Ignored bool   `query:"ignored"`
}

// GETIgnoredQuery selects the path to evaluate against the ignore rules.
type GETIgnoredQuery struct {
	Dir  string `query:"dir"  validate:"required"`
	Path string `query:"path" validate:"required"`
	Home string `query:"home"`
}

type PathStatusResponse struct {
	Path  string `json:"path"`
	State string `json:"state"`
}

// StateResponse is a snapshot of the workspace.
type StateResponse struct {
	Dir        string               `json:"dir"`
	Root       string               `json:"root"`
	Repository string               `json:"repository"`
	Branch     string               `json:"branch"`
	Flag       string               `json:"flag"`
	Revision   string               `json:"revision,omitempty"`
	Origin     string               `json:"origin,omitempty"`
	Dirty      bool                 `json:"dirty"`
	Entries    []PathStatusResponse `json:"entries"`
}

type IgnoredResponse struct {
	Path    string `json:"path"`
	Ignored bool   `json:"ignored"`
}
