package model

type KillMode string

const (
	KillStandard  KillMode = "standard"
	KillPermanent KillMode = "permanent"
)

type KillResult struct {
	PID     int64  `json:"pid" yaml:"pid"`
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message" yaml:"message"`
}

type BatchKillResult struct {
	Results      []KillResult `json:"results" yaml:"results"`
	Total        int          `json:"total" yaml:"total"`
	SuccessCount int          `json:"successCount" yaml:"successCount"`
	FailCount    int          `json:"failCount" yaml:"failCount"`
	Permanent    bool         `json:"permanent" yaml:"permanent"`
}
