// Package generator synthesizes wait-for edges for the deadlock detector and
// the sentinel pair that marks the end of a worker's stream.
package generator

import (
	"math"
	"time"

	"github.com/pingcap/kvproto/pkg/deadlock"
	"golang.org/x/exp/rand"

	"github.com/kakao/deadlockbench/proto/deadlockpb"
)

// maxWindowEnd is the exclusive upper bound of sliding-window ids. It keeps
// every generated id below the sliding-window sentinels.
const maxWindowEnd = uint64(math.MaxUint64 - 1)

var requestKinds = [...]deadlock.DeadlockRequestType{
	deadlock.DeadlockRequestType_Detect,
	deadlock.DeadlockRequestType_CleanUpWaitFor,
	deadlock.DeadlockRequestType_CleanUp,
}

// Generator produces requests under a single Policy. It is not safe for
// concurrent use; every worker owns one.
type Generator struct {
	config
	rng       *rand.Rand
	timestamp uint64
}

func New(opts ...Option) (*Generator, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	seed := cfg.seed
	if !cfg.seedIsSet {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		config: cfg,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Policy returns the policy of the generator.
func (g *Generator) Policy() Policy {
	return g.policy
}

// Range returns the size of the id space.
func (g *Generator) Range() uint64 {
	return g.idRange
}

// Generate returns the next request.
func (g *Generator) Generate() deadlock.DeadlockRequest {
	switch g.policy {
	case PolicyUniformKind:
		return deadlock.DeadlockRequest{
			Tp:    requestKinds[g.rng.Uint64n(uint64(len(requestKinds)))],
			Entry: g.independentEntry(),
		}
	default:
		detect, _ := g.GeneratePair()
		return detect
	}
}

// GeneratePair returns a Detect request and the CleanUpWaitFor request that
// removes the same edge. Submitting the second one after the first keeps the
// detector's graph from growing.
func (g *Generator) GeneratePair() (detect, cleanUpWaitFor deadlock.DeadlockRequest) {
	var entry deadlock.WaitForEntry
	switch g.policy {
	case PolicySlidingWindow:
		entry = g.windowEntry()
	case PolicyUniformKind:
		entry = g.independentEntry()
	default:
		entry = g.uniformEntry()
	}
	detect = deadlock.DeadlockRequest{
		Tp:    deadlock.DeadlockRequestType_Detect,
		Entry: entry,
	}
	cleanUpWaitFor = deadlock.DeadlockRequest{
		Tp:    deadlock.DeadlockRequestType_CleanUpWaitFor,
		Entry: entry,
	}
	return detect, cleanUpWaitFor
}

// DeadlockEntries returns two Detect requests forming a two-node cycle with
// ids outside the generated id space. The detector answers the second one,
// and since a stream is processed in order, that answer means every request
// before it has been handled.
func (g *Generator) DeadlockEntries() (first, second deadlock.DeadlockRequest) {
	var a, b, keyA, keyB uint64
	if g.policy == PolicySlidingWindow {
		a, b = math.MaxUint64-1, math.MaxUint64
	} else {
		a, b = g.idRange, g.idRange+1
		keyA, keyB = a, b
	}
	first = deadlock.DeadlockRequest{
		Tp:    deadlock.DeadlockRequestType_Detect,
		Entry: deadlockpb.NewEntry(a, b, keyA),
	}
	second = deadlock.DeadlockRequest{
		Tp:    deadlock.DeadlockRequestType_Detect,
		Entry: deadlockpb.NewEntry(b, a, keyB),
	}
	return first, second
}

func (g *Generator) uniformEntry() deadlock.WaitForEntry {
	txn := g.rng.Uint64n(g.idRange)
	waitForTxn := txn
	for waitForTxn == txn {
		waitForTxn = g.rng.Uint64n(g.idRange)
	}
	return deadlockpb.NewEntry(txn, waitForTxn, g.rng.Uint64n(g.idRange))
}

func (g *Generator) independentEntry() deadlock.WaitForEntry {
	return deadlockpb.NewEntry(g.rng.Uint64n(g.idRange), g.rng.Uint64n(g.idRange), g.rng.Uint64n(g.idRange))
}

func (g *Generator) windowEntry() deadlock.WaitForEntry {
	ts := g.timestamp
	g.timestamp++

	lo, hi := windowBounds(ts, g.idRange)
	waitForTxn := ts
	for waitForTxn == ts {
		waitForTxn = lo + g.rng.Uint64n(hi-lo)
	}
	return deadlockpb.NewEntry(ts, waitForTxn, g.rng.Uint64())
}

// windowBounds returns [lo, hi) = [max(0, ts-r), min(ts+r, maxWindowEnd)),
// widened downwards if needed so that it holds an id other than ts.
func windowBounds(ts, r uint64) (lo, hi uint64) {
	if ts > r {
		lo = ts - r
	}
	hi = maxWindowEnd
	if r < maxWindowEnd && ts < maxWindowEnd-r {
		hi = ts + r
	}
	if hi < lo+2 {
		lo = hi - 2
	}
	return lo, hi
}
