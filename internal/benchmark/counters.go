package benchmark

import "sync/atomic"

// Counters are shared by every worker of a run.
type Counters struct {
	// CompletedRequests is increased by the number of generated requests
	// once a worker knows they were all handled.
	CompletedRequests atomic.Int64
	// DetectedDeadlocks counts every response of detect workers, the
	// sentinel answers included.
	DetectedDeadlocks atomic.Int64
	SubmittedRequests atomic.Int64
}
