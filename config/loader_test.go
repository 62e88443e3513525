package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/icn-network/icn-node/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader().WithEnvironment(envFrom(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, types.NodeTypeRegular, cfg.NodeType)
	assert.Equal(t, 9000, cfg.NodePort)
	assert.Equal(t, 8082, cfg.APIPort)
	assert.Equal(t, "icn-primary", cfg.CooperativeID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.BootstrapNodes)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithEnvironment(envFrom(map[string]string{
		"NODE_TYPE":       "bootstrap",
		"NODE_PORT":       "9100",
		"API_PORT":        "8182",
		"BOOTSTRAP_NODES": `["ws://node-a:9000","ws://node-b:9000"]`,
		"LOG_LEVEL":       "debug",
	})).Load()
	require.NoError(t, err)

	assert.Equal(t, types.NodeTypeBootstrap, cfg.NodeType)
	assert.Equal(t, 9100, cfg.NodePort)
	assert.Equal(t, 8182, cfg.APIPort)
	assert.Equal(t, BootstrapList{"ws://node-a:9000", "ws://node-b:9000"}, cfg.BootstrapNodes)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_BootstrapNodesCommaForm(t *testing.T) {
	cfg, err := NewLoader().WithEnvironment(envFrom(map[string]string{
		"BOOTSTRAP_NODES": "ws://node-a:9000, ws://node-b:9000",
	})).Load()
	require.NoError(t, err)

	assert.Equal(t, BootstrapList{"ws://node-a:9000", "ws://node-b:9000"}, cfg.BootstrapNodes)
}

func TestLoad_YAMLFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"node_type: validator\nnode_port: 9500\ncooperative_id: coop-west\n",
	), 0o644))

	cfg, err := NewLoader().
		WithConfigPath(path).
		WithEnvironment(envFrom(map[string]string{"NODE_PORT": "9600"})).
		Load()
	require.NoError(t, err)

	// File overrides defaults, env overrides file.
	assert.Equal(t, types.NodeTypeValidator, cfg.NodeType)
	assert.Equal(t, 9600, cfg.NodePort)
	assert.Equal(t, "coop-west", cfg.CooperativeID)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).
		WithEnvironment(envFrom(nil)).
		Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.NodePort)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad node type", map[string]string{"NODE_TYPE": "supervisor"}},
		{"bad port", map[string]string{"NODE_PORT": "99999"}},
		{"colliding ports", map[string]string{"NODE_PORT": "8082"}},
		{"bad bootstrap url", map[string]string{"BOOTSTRAP_NODES": `["http://node-a:9000"]`}},
		{"bad bootstrap json", map[string]string{"BOOTSTRAP_NODES": `["unterminated`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().WithEnvironment(envFrom(tt.env)).Load()
			assert.Error(t, err)
		})
	}
}
