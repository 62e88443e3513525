package types

// CPUInfo is a point-in-time CPU self-report.
type CPUInfo struct {
	Cores       int     `json:"cores"`
	Utilization float64 `json:"utilization"`
}

// MemoryInfo reports memory in bytes.
type MemoryInfo struct {
	Total uint64 `json:"total"`
	Free  uint64 `json:"free"`
}

// PlatformInfo identifies the host platform.
type PlatformInfo struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// ResourceSnapshot is a node's resource self-report. It is recomputed on
// each heartbeat cycle and attached to the registry entries of remote peers.
type ResourceSnapshot struct {
	CPU      CPUInfo      `json:"cpu"`
	Memory   MemoryInfo   `json:"memory"`
	Platform PlatformInfo `json:"platform"`
}
