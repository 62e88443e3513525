package resources

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_SnapshotPlatform(t *testing.T) {
	m := NewMonitor(nil)
	snap := m.Current()

	assert.Equal(t, runtime.GOOS, snap.Platform.OS)
	assert.Equal(t, runtime.GOARCH, snap.Platform.Arch)
	assert.GreaterOrEqual(t, snap.CPU.Cores, 0)
	assert.GreaterOrEqual(t, snap.CPU.Utilization, 0.0)
}

func TestMonitor_RefreshUpdatesCache(t *testing.T) {
	m := NewMonitor(nil)

	first := m.Refresh()
	cached := m.Current()

	// Current returns the cached value without resampling.
	assert.Equal(t, first.Platform, cached.Platform)
	assert.Equal(t, first.CPU.Cores, cached.CPU.Cores)
}
