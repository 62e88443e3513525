package federation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/internal/metrics"
	"github.com/icn-network/icn-node/types"
)

// Broadcaster fans a message out to peers. ToMembers delivers only to
// connected peers whose id appears in members, so federation traffic never
// leaks outside the member set.
type Broadcaster interface {
	ToAll(ctx context.Context, m types.Message)
	ToMembers(ctx context.Context, members []string, m types.Message)
}

// CreateRequest carries the caller-supplied fields for a new federation.
// Everything except Name is optional and falls back to defaults.
type CreateRequest struct {
	Name            string                 `json:"name"`
	Description     string                 `json:"description,omitempty"`
	ResourcePolicy  *types.ResourcePolicy  `json:"resourcePolicy,omitempty"`
	GovernanceRules *types.GovernanceRules `json:"governanceRules,omitempty"`
}

// Registry is the node's view of every federation it has heard about, local
// or replicated. All access is through the registry; callers get deep copies.
type Registry struct {
	selfID      string
	broadcaster Broadcaster
	metrics     *metrics.Collector
	logger      *zap.Logger

	mu          sync.RWMutex
	federations map[string]*types.Federation
}

// NewRegistry creates an empty federation registry for the local node.
func NewRegistry(selfID string, broadcaster Broadcaster, collector *metrics.Collector, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		selfID:      selfID,
		broadcaster: broadcaster,
		metrics:     collector,
		logger:      logger.With(zap.String("component", "federation_registry")),
		federations: make(map[string]*types.Federation),
	}
}

// Create registers a new federation with the local node as its first member
// and announces it to all peers. The name is the only required field.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (types.Federation, error) {
	if req.Name == "" {
		return types.Federation{}, types.NewError(types.ErrValidation, "Federation name is required")
	}

	fed := types.Federation{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		CreatedAt:       time.Now().UTC(),
		CreatedBy:       r.selfID,
		Members:         []string{r.selfID},
		ResourcePolicy:  types.DefaultResourcePolicy(),
		GovernanceRules: types.DefaultGovernanceRules(),
		Status:          types.FederationActive,
	}
	if req.ResourcePolicy != nil {
		fed.ResourcePolicy = *req.ResourcePolicy
	}
	if req.GovernanceRules != nil {
		fed.GovernanceRules = *req.GovernanceRules
	}

	r.mu.Lock()
	r.federations[fed.ID] = &fed
	r.mu.Unlock()

	r.metrics.RecordFederationEvent("created", "local")
	r.logger.Info("federation created",
		zap.String("federation_id", fed.ID),
		zap.String("name", fed.Name),
	)

	r.broadcaster.ToAll(ctx, types.FederationCreated{NodeID: r.selfID, Federation: fed.Clone()})
	return fed.Clone(), nil
}

// Join adds the local node to an existing federation and announces the
// membership change to all peers.
func (r *Registry) Join(ctx context.Context, federationID string) (types.Federation, error) {
	r.mu.Lock()
	fed, ok := r.federations[federationID]
	if !ok {
		r.mu.Unlock()
		return types.Federation{}, types.NewError(types.ErrNotFound, "federation not found")
	}
	if fed.HasMember(r.selfID) {
		r.mu.Unlock()
		return types.Federation{}, types.NewError(types.ErrConflict, "already a member of this federation")
	}
	fed.Members = append(fed.Members, r.selfID)
	result := fed.Clone()
	r.mu.Unlock()

	r.metrics.RecordFederationEvent("join", "local")
	r.logger.Info("joined federation", zap.String("federation_id", federationID))

	r.broadcaster.ToAll(ctx, types.FederationJoin{NodeID: r.selfID, FederationID: federationID})
	return result, nil
}

// Leave removes the local node from a federation's member set and announces
// it. The federation itself stays in the registry even with zero members.
func (r *Registry) Leave(ctx context.Context, federationID string) error {
	r.mu.Lock()
	fed, ok := r.federations[federationID]
	if !ok {
		r.mu.Unlock()
		return types.NewError(types.ErrNotFound, "federation not found")
	}
	if !fed.HasMember(r.selfID) {
		r.mu.Unlock()
		return types.NewError(types.ErrConflict, "not a member of this federation")
	}
	fed.Members = removeMember(fed.Members, r.selfID)
	r.mu.Unlock()

	r.metrics.RecordFederationEvent("leave", "local")
	r.logger.Info("left federation", zap.String("federation_id", federationID))

	r.broadcaster.ToAll(ctx, types.FederationLeave{NodeID: r.selfID, FederationID: federationID})
	return nil
}

// UpdateResourcePolicy applies a partial policy update. Only members may
// change a federation's policy; the result is replicated to members only.
func (r *Registry) UpdateResourcePolicy(ctx context.Context, federationID string, patch types.ResourcePolicyPatch) (types.ResourcePolicy, error) {
	r.mu.Lock()
	fed, ok := r.federations[federationID]
	if !ok {
		r.mu.Unlock()
		return types.ResourcePolicy{}, types.NewError(types.ErrNotFound, "federation not found")
	}
	if !fed.HasMember(r.selfID) {
		r.mu.Unlock()
		return types.ResourcePolicy{}, types.NewError(types.ErrForbidden, "only members may update the resource policy")
	}
	fed.ResourcePolicy = patch.Apply(fed.ResourcePolicy)
	policy := fed.ResourcePolicy
	members := append([]string(nil), fed.Members...)
	r.mu.Unlock()

	r.metrics.RecordFederationEvent("resource_update", "local")
	r.logger.Info("federation resource policy updated", zap.String("federation_id", federationID))

	r.broadcaster.ToMembers(ctx, members, types.FederationResourceUpdate{
		NodeID:         r.selfID,
		FederationID:   federationID,
		ResourcePolicy: policy,
	})
	return policy, nil
}

// Get returns a copy of one federation.
func (r *Registry) Get(federationID string) (types.Federation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fed, ok := r.federations[federationID]
	if !ok {
		return types.Federation{}, false
	}
	return fed.Clone(), true
}

// List returns copies of every known federation ordered by creation time,
// oldest first.
func (r *Registry) List() []types.Federation {
	r.mu.RLock()
	out := make([]types.Federation, 0, len(r.federations))
	for _, fed := range r.federations {
		out = append(out, fed.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func removeMember(members []string, id string) []string {
	out := members[:0]
	for _, m := range members {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}
