// Package workload runs the simulated workload lifecycle. Submissions are
// accepted immediately, announced to peers, and driven pending -> running ->
// completed on randomized timers; no real execution takes place.
package workload
