// Package api serves the node's HTTP control surface: status, peers,
// resources, workloads, federations, health, and prometheus metrics.
package api
