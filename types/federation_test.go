package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourcePolicyPatch_Apply(t *testing.T) {
	max := int64(70)
	policy := DefaultResourcePolicy()

	patched := ResourcePolicyPatch{CPU: &ResourceBoundsPatch{Max: &max}}.Apply(policy)

	assert.Equal(t, int64(70), patched.CPU.Max)
	// Everything else stays untouched.
	assert.Equal(t, policy.CPU.Min, patched.CPU.Min)
	assert.Equal(t, policy.Memory, patched.Memory)
}

func TestResourcePolicyPatch_Empty(t *testing.T) {
	assert.True(t, ResourcePolicyPatch{}.Empty())
	assert.False(t, ResourcePolicyPatch{Memory: &ResourceBoundsPatch{}}.Empty())
}

func TestWorkloadStatus_Transitions(t *testing.T) {
	assert.True(t, WorkloadPending.CanTransitionTo(WorkloadRunning))
	assert.True(t, WorkloadRunning.CanTransitionTo(WorkloadCompleted))

	// No regressions, no skips.
	assert.False(t, WorkloadCompleted.CanTransitionTo(WorkloadRunning))
	assert.False(t, WorkloadCompleted.CanTransitionTo(WorkloadPending))
	assert.False(t, WorkloadRunning.CanTransitionTo(WorkloadPending))
	assert.False(t, WorkloadPending.CanTransitionTo(WorkloadCompleted))
}

func TestFederation_Clone(t *testing.T) {
	fed := Federation{ID: "f1", Members: []string{"a"}}
	clone := fed.Clone()
	clone.Members = append(clone.Members, "b")

	assert.Len(t, fed.Members, 1, "clone must not alias the member set")
	assert.True(t, fed.HasMember("a"))
	assert.False(t, fed.HasMember("b"))
}
