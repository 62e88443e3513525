// Package config loads node configuration with the precedence
// defaults -> YAML file -> environment variables. The environment contract
// is flat and unprefixed (NODE_TYPE, NODE_PORT, API_PORT, BOOTSTRAP_NODES,
// COOPERATIVE_ID, COOPERATIVE_TIER, LOG_LEVEL) so the same variables work
// under Docker, Helm and plain shells.
package config
