// Package node assembles a complete peer-coordination node: the peer mesh,
// federation replication, the workload scheduler, and the HTTP control
// surface, wired over shared registries so several nodes can coexist in one
// process.
package node
