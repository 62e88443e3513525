// Package peer maintains the mesh of bidirectional peer connections: the
// connection registry, the HELLO/RESOURCES handshake, best-effort broadcast
// fan-out, the liveness monitor and the bootstrap dialer.
//
// Send failures are never surfaced to callers as errors. Every delivery
// path catches the failure, marks the peer disconnected in the registry and
// moves on; an offline peer simply misses the event.
package peer
