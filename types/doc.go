// Package types defines the shared data model of an icn-node: peers,
// federations, workloads, resource snapshots, the peer wire protocol and the
// error taxonomy. Field names follow the JSON contract used on the wire and
// by the HTTP API (camelCase), so these structs marshal directly.
package types
