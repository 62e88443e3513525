// Package federation keeps the replicated registry of federations: named
// groups of peers sharing a resource policy and governance rules. Local
// mutations are broadcast to peers; remote events are applied tolerantly so
// replicas converge without coordination.
package federation
