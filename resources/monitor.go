// Package resources produces the node's resource self-reports.
package resources

import (
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/types"
)

// Monitor samples host CPU and memory through gopsutil and caches the most
// recent snapshot. Refresh is called by the liveness monitor on its 30s
// cycle; Current serves the API and handshake replies between refreshes.
type Monitor struct {
	mu     sync.RWMutex
	last   types.ResourceSnapshot
	primed bool
	logger *zap.Logger
}

// NewMonitor creates a monitor. Sampling failures degrade to zeroed fields
// rather than errors; a self-report is best effort by nature.
func NewMonitor(logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		logger: logger.With(zap.String("component", "resource_monitor")),
	}
}

// Refresh recomputes the snapshot and caches it.
func (m *Monitor) Refresh() types.ResourceSnapshot {
	snap := m.sample()

	m.mu.Lock()
	m.last = snap
	m.primed = true
	m.mu.Unlock()

	return snap
}

// Current returns the cached snapshot, sampling once if none exists yet.
func (m *Monitor) Current() types.ResourceSnapshot {
	m.mu.RLock()
	if m.primed {
		snap := m.last
		m.mu.RUnlock()
		return snap
	}
	m.mu.RUnlock()
	return m.Refresh()
}

func (m *Monitor) sample() types.ResourceSnapshot {
	snap := types.ResourceSnapshot{
		Platform: types.PlatformInfo{OS: runtime.GOOS, Arch: runtime.GOARCH},
	}

	if cores, err := cpu.Counts(true); err == nil {
		snap.CPU.Cores = cores
	} else {
		m.logger.Debug("cpu count unavailable", zap.Error(err))
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPU.Utilization = percents[0]
	} else if err != nil {
		m.logger.Debug("cpu utilization unavailable", zap.Error(err))
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		snap.Memory.Total = vm.Total
		snap.Memory.Free = vm.Free
	} else {
		m.logger.Debug("memory stats unavailable", zap.Error(err))
	}

	return snap
}
