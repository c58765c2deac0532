package model

import "time"

// ProcessRecord describes a process looked up directly by PID.
type ProcessRecord struct {
	PID                  int64     `json:"pid" yaml:"pid"`
	ProcessName          string    `json:"processName" yaml:"processName"`
	ProcessPath          string    `json:"processPath,omitempty" yaml:"processPath,omitempty"`
	CommandLine          string    `json:"commandLine" yaml:"commandLine"`
	IsDevelopmentProcess bool      `json:"isDevelopmentProcess" yaml:"isDevelopmentProcess"`
	StartTime            time.Time `json:"startTime,omitzero" yaml:"startTime,omitempty"`
	User                 string    `json:"user,omitempty" yaml:"user,omitempty"`
}
