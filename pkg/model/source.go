package model

type SourceType string

const (
	SourceLaunchd  SourceType = "launchd"
	SourceHomebrew SourceType = "homebrew"
	SourceUnknown  SourceType = "unknown"
)

// Source describes the service supervisor that owns a process.
type Source struct {
	Type  SourceType `json:"type" yaml:"type"`
	Label string     `json:"label,omitempty" yaml:"label,omitempty"`
	// Via records how the label was found: "pid", "name" or "listing".
	Via string `json:"via,omitempty" yaml:"via,omitempty"`
}

// Managed reports whether a supervisor label was found.
func (s Source) Managed() bool {
	return s.Label != ""
}
