package types

import "time"

// FederationStatus tracks the lifecycle state of a federation.
type FederationStatus string

const (
	FederationActive FederationStatus = "active"
)

// ResourceBounds is a min/max range. CPU bounds are percentage points,
// memory bounds are bytes.
type ResourceBounds struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ResourcePolicy bounds CPU and memory sharing within a federation.
type ResourcePolicy struct {
	CPU    ResourceBounds `json:"cpu"`
	Memory ResourceBounds `json:"memory"`
}

// ResourceBoundsPatch is a partial update of one bounds pair. Nil fields
// leave the existing value untouched.
type ResourceBoundsPatch struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// ResourcePolicyPatch is a partial resource policy update. Nil sections
// leave the existing section untouched.
type ResourcePolicyPatch struct {
	CPU    *ResourceBoundsPatch `json:"cpu,omitempty"`
	Memory *ResourceBoundsPatch `json:"memory,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ResourcePolicyPatch) Empty() bool {
	return p.CPU == nil && p.Memory == nil
}

// Apply merges the patch into policy field by field and returns the result.
func (p ResourcePolicyPatch) Apply(policy ResourcePolicy) ResourcePolicy {
	if p.CPU != nil {
		if p.CPU.Min != nil {
			policy.CPU.Min = *p.CPU.Min
		}
		if p.CPU.Max != nil {
			policy.CPU.Max = *p.CPU.Max
		}
	}
	if p.Memory != nil {
		if p.Memory.Min != nil {
			policy.Memory.Min = *p.Memory.Min
		}
		if p.Memory.Max != nil {
			policy.Memory.Max = *p.Memory.Max
		}
	}
	return policy
}

// GovernanceRules parameterize federation voting.
type GovernanceRules struct {
	VotingThreshold   float64 `json:"votingThreshold"`
	MinVotingPeriodMs int64   `json:"minVotingPeriodMs"`
}

const mib = 1 << 20

// DefaultResourcePolicy returns the policy applied when a federation is
// created without one: CPU 10-90%, memory 100 MiB - 1 GiB.
func DefaultResourcePolicy() ResourcePolicy {
	return ResourcePolicy{
		CPU:    ResourceBounds{Min: 10, Max: 90},
		Memory: ResourceBounds{Min: 100 * mib, Max: 1024 * mib},
	}
}

// DefaultGovernanceRules returns the rules applied when a federation is
// created without any: 66% threshold, 24h minimum voting period.
func DefaultGovernanceRules() GovernanceRules {
	return GovernanceRules{
		VotingThreshold:   0.66,
		MinVotingPeriodMs: 86_400_000,
	}
}

// Federation is a named group of cooperating peer nodes sharing a resource
// policy and governance rules. Members is an ordered set of peer ids; the
// creator is always a member at creation time. Federations are never
// deleted.
type Federation struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	CreatedBy       string           `json:"createdBy"`
	Members         []string         `json:"members"`
	ResourcePolicy  ResourcePolicy   `json:"resourcePolicy"`
	GovernanceRules GovernanceRules  `json:"governanceRules"`
	Status          FederationStatus `json:"status"`
}

// HasMember reports whether nodeID is in the member set.
func (f *Federation) HasMember(nodeID string) bool {
	for _, m := range f.Members {
		if m == nodeID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (f *Federation) Clone() Federation {
	out := *f
	out.Members = append([]string(nil), f.Members...)
	return out
}
