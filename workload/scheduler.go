package workload

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/internal/metrics"
	"github.com/icn-network/icn-node/types"
)

// Announcer pushes a message to every connected peer.
type Announcer interface {
	ToAll(ctx context.Context, m types.Message)
}

// SubmitRequest carries the caller-supplied fields for a new workload.
type SubmitRequest struct {
	Type         types.WorkloadType          `json:"type"`
	Command      []string                    `json:"command"`
	Requirements *types.WorkloadRequirements `json:"requirements,omitempty"`
}

// Scheduler accepts workload submissions and walks each one through the
// simulated lifecycle. Start and completion delays are randomized so a batch
// of submissions does not transition in lockstep.
type Scheduler struct {
	selfID    string
	clock     Clock
	announcer Announcer
	metrics   *metrics.Collector
	logger    *zap.Logger

	mu        sync.Mutex
	workloads map[string]*types.Workload
	timers    map[string]Timer
	closed    bool
}

// NewScheduler creates a scheduler for the local node. A nil clock means
// wall-clock time.
func NewScheduler(selfID string, clock Clock, announcer Announcer, collector *metrics.Collector, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		selfID:    selfID,
		clock:     clock,
		announcer: announcer,
		metrics:   collector,
		logger:    logger.With(zap.String("component", "workload_scheduler")),
		workloads: make(map[string]*types.Workload),
		timers:    make(map[string]Timer),
	}
}

// Submit validates and accepts a workload, announces it to peers, and arms
// the start timer. Every valid submission is accepted; the requirements are
// recorded, not enforced.
func (s *Scheduler) Submit(ctx context.Context, req SubmitRequest) (types.Workload, error) {
	if !req.Type.Valid() {
		return types.Workload{}, types.NewError(types.ErrValidation, "workload type must be container or function")
	}
	if len(req.Command) == 0 {
		return types.Workload{}, types.NewError(types.ErrValidation, "workload command is required")
	}

	w := &types.Workload{
		ID:           uuid.NewString(),
		Type:         req.Type,
		Command:      append([]string(nil), req.Command...),
		Status:       types.WorkloadPending,
		Requirements: req.Requirements,
		SubmittedAt:  s.clock.Now().UTC(),
		SubmittedBy:  s.selfID,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.Workload{}, types.NewError(types.ErrInternal, "scheduler is shut down")
	}
	s.workloads[w.ID] = w
	delay := startDelay()
	s.timers[w.ID] = s.clock.AfterFunc(delay, func() { s.start(w.ID) })
	result := w.Clone()
	s.mu.Unlock()

	s.logger.Info("workload accepted",
		zap.String("workload_id", w.ID),
		zap.String("type", string(w.Type)),
		zap.Duration("start_delay", delay),
	)

	s.announcer.ToAll(ctx, types.WorkloadRequest{NodeID: s.selfID, Workload: result})
	return result, nil
}

// Get returns a copy of one workload.
func (s *Scheduler) Get(id string) (types.Workload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workloads[id]
	if !ok {
		return types.Workload{}, false
	}
	return w.Clone(), true
}

// List returns copies of every known workload ordered by submission time,
// oldest first.
func (s *Scheduler) List() []types.Workload {
	s.mu.Lock()
	out := make([]types.Workload, 0, len(s.workloads))
	for _, w := range s.workloads {
		out = append(out, w.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// RecordRemote stores a workload announced by a peer so it shows up in local
// listings. The announcing node drives its lifecycle; no timers are armed
// here, and an id we already track is left alone.
func (s *Scheduler) RecordRemote(w types.Workload) {
	s.mu.Lock()
	_, known := s.workloads[w.ID]
	if !known {
		clone := w.Clone()
		s.workloads[w.ID] = &clone
	}
	s.mu.Unlock()

	if known {
		return
	}
	s.logger.Info("remote workload recorded",
		zap.String("workload_id", w.ID),
		zap.String("submitted_by", w.SubmittedBy),
	)
}

// Close stops every pending timer. In-flight workloads freeze in their
// current state.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) start(id string) {
	delay := runDelay()
	if !s.transition(id, types.WorkloadRunning) {
		return
	}

	s.mu.Lock()
	if !s.closed {
		s.timers[id] = s.clock.AfterFunc(delay, func() { s.complete(id) })
	}
	s.mu.Unlock()
}

func (s *Scheduler) complete(id string) {
	s.transition(id, types.WorkloadCompleted)
}

func (s *Scheduler) transition(id string, next types.WorkloadStatus) bool {
	s.mu.Lock()
	w, ok := s.workloads[id]
	if !ok || s.closed || !w.Status.CanTransitionTo(next) {
		s.mu.Unlock()
		return false
	}
	from := w.Status
	w.Status = next
	now := s.clock.Now().UTC()
	switch next {
	case types.WorkloadRunning:
		w.StartedAt = &now
	case types.WorkloadCompleted:
		w.CompletedAt = &now
	}
	delete(s.timers, id)
	s.mu.Unlock()

	s.metrics.RecordWorkloadTransition(string(from), string(next))
	s.logger.Info("workload transitioned",
		zap.String("workload_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	return true
}

// Start runs 2-5s after submission, completion 10-15s after start.
func startDelay() time.Duration {
	return 2*time.Second + time.Duration(rand.Int63n(int64(3*time.Second)))
}

func runDelay() time.Duration {
	return 10*time.Second + time.Duration(rand.Int63n(int64(5*time.Second)))
}
