package model

import "time"

type PortRole string

const (
	RoleFrontend PortRole = "FRONTEND"
	RoleBackend  PortRole = "BACKEND"
	RoleDatabase PortRole = "DATABASE"
	RoleOther    PortRole = "OTHER"
)

type ProcessCategory string

const (
	CategoryJava      ProcessCategory = "JAVA"
	CategoryNode      ProcessCategory = "NODE"
	CategoryPython    ProcessCategory = "PYTHON"
	CategoryWebServer ProcessCategory = "WEB_SERVER"
	CategoryDatabase  ProcessCategory = "DATABASE"
	CategoryIDE       ProcessCategory = "IDE"
	CategoryBrowser   ProcessCategory = "BROWSER"
	CategorySystem    ProcessCategory = "SYSTEM"
	CategoryOther     ProcessCategory = "OTHER"
)

const (
	ProtocolTCP = "TCP"
	ProtocolUDP = "UDP"

	StatusListening = "LISTENING"
)

// PortRecord is one listening socket observed during a scan.
// PID is zero when the owning process could not be determined.
type PortRecord struct {
	Port                 uint16          `json:"port" yaml:"port"`
	Protocol             string          `json:"protocol" yaml:"protocol"`
	Status               string          `json:"status" yaml:"status"`
	PID                  int64           `json:"pid,omitempty" yaml:"pid,omitempty"`
	ProcessName          string          `json:"processName" yaml:"processName"`
	ProcessPath          string          `json:"processPath,omitempty" yaml:"processPath,omitempty"`
	CommandLine          string          `json:"commandLine" yaml:"commandLine"`
	IsDevelopmentProcess bool            `json:"isDevelopmentProcess" yaml:"isDevelopmentProcess"`
	User                 string          `json:"user,omitempty" yaml:"user,omitempty"`
	LocalAddress         string          `json:"localAddress" yaml:"localAddress"`
	RemoteAddress        string          `json:"remoteAddress,omitempty" yaml:"remoteAddress,omitempty"`
	PortRole             PortRole        `json:"portType" yaml:"portType"`
	ProcessCategory      ProcessCategory `json:"processType" yaml:"processType"`
}

// Statistics summarises the records of one snapshot.
type Statistics struct {
	Total                int                     `json:"total" yaml:"total"`
	DevelopmentProcesses int                     `json:"developmentProcesses" yaml:"developmentProcesses"`
	TCP                  int                     `json:"tcp" yaml:"tcp"`
	UDP                  int                     `json:"udp" yaml:"udp"`
	ByRole               map[PortRole]int        `json:"byRole" yaml:"byRole"`
	ByCategory           map[ProcessCategory]int `json:"byCategory" yaml:"byCategory"`
	LastScanTime         time.Time               `json:"lastScanTime" yaml:"lastScanTime"`
}
