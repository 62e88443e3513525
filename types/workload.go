package types

import "time"

// WorkloadType is the kind of computation a workload represents.
type WorkloadType string

const (
	WorkloadContainer WorkloadType = "container"
	WorkloadFunction  WorkloadType = "function"
)

// Valid reports whether t is an accepted workload type.
func (t WorkloadType) Valid() bool {
	return t == WorkloadContainer || t == WorkloadFunction
}

// WorkloadStatus is the execution state of a workload. Transitions move
// strictly forward: pending -> running -> completed. The failed state exists
// in the enum but no scheduler path produces it.
type WorkloadStatus string

const (
	WorkloadPending   WorkloadStatus = "pending"
	WorkloadRunning   WorkloadStatus = "running"
	WorkloadCompleted WorkloadStatus = "completed"
	WorkloadFailed    WorkloadStatus = "failed"
)

// rank orders statuses along the forward-only lifecycle.
func (s WorkloadStatus) rank() int {
	switch s {
	case WorkloadPending:
		return 0
	case WorkloadRunning:
		return 1
	case WorkloadCompleted, WorkloadFailed:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// step. Regressions are never legal.
func (s WorkloadStatus) CanTransitionTo(next WorkloadStatus) bool {
	return next.rank() == s.rank()+1
}

// WorkloadRequirements is the resource ask attached to a submission. It is
// recorded but not enforced: admission control is out of scope and every
// valid submission is accepted.
type WorkloadRequirements struct {
	CPU    float64 `json:"cpu,omitempty"`
	Memory int64   `json:"memory,omitempty"`
}

// Workload is a unit of (simulated) computation submitted to the mesh.
type Workload struct {
	ID           string                `json:"id"`
	Type         WorkloadType          `json:"type"`
	Command      []string              `json:"command"`
	Status       WorkloadStatus        `json:"status"`
	Requirements *WorkloadRequirements `json:"requirements,omitempty"`
	SubmittedAt  time.Time             `json:"submittedAt"`
	SubmittedBy  string                `json:"submittedBy"`
	StartedAt    *time.Time            `json:"startedAt,omitempty"`
	CompletedAt  *time.Time            `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of the workload.
func (w *Workload) Clone() Workload {
	out := *w
	out.Command = append([]string(nil), w.Command...)
	if w.Requirements != nil {
		req := *w.Requirements
		out.Requirements = &req
	}
	if w.StartedAt != nil {
		t := *w.StartedAt
		out.StartedAt = &t
	}
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
