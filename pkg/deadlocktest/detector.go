package deadlocktest

import (
	"cmp"
	"slices"
	"sync"

	"github.com/pingcap/kvproto/pkg/deadlock"
)

// Detector is an in-memory wait-for graph. It is safe for concurrent use.
type Detector struct {
	mu sync.Mutex
	// waitFor maps txn to the txns it waits for, each with the key hashes
	// of the locks it waits on.
	waitFor map[uint64]map[uint64]map[uint64]struct{}
}

func NewDetector() *Detector {
	return &Detector{
		waitFor: make(map[uint64]map[uint64]map[uint64]struct{}),
	}
}

// Detect adds the edge unless it closes a cycle. In that case the edge is
// not added, and the key hash of the lock held by entry.Txn on the cycle is
// returned.
func (d *Detector) Detect(entry deadlock.WaitForEntry) (deadlockKeyHash uint64, found bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if keyHash, ok := d.findPath(entry.WaitForTxn, entry.Txn); ok {
		return keyHash, true
	}

	edges, ok := d.waitFor[entry.Txn]
	if !ok {
		edges = make(map[uint64]map[uint64]struct{})
		d.waitFor[entry.Txn] = edges
	}
	keys, ok := edges[entry.WaitForTxn]
	if !ok {
		keys = make(map[uint64]struct{})
		edges[entry.WaitForTxn] = keys
	}
	keys[entry.KeyHash] = struct{}{}
	return 0, false
}

// CleanUpWaitFor removes a single edge.
func (d *Detector) CleanUpWaitFor(entry deadlock.WaitForEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()

	edges, ok := d.waitFor[entry.Txn]
	if !ok {
		return
	}
	keys, ok := edges[entry.WaitForTxn]
	if !ok {
		return
	}
	delete(keys, entry.KeyHash)
	if len(keys) == 0 {
		delete(edges, entry.WaitForTxn)
	}
	if len(edges) == 0 {
		delete(d.waitFor, entry.Txn)
	}
}

// CleanUp removes every edge whose waiter is txn.
func (d *Detector) CleanUp(txn uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.waitFor, txn)
}

// Edges returns the number of (txn, wait_for_txn, key_hash) triples in the
// graph.
func (d *Detector) Edges() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, edges := range d.waitFor {
		for _, keys := range edges {
			n += len(keys)
		}
	}
	return n
}

// Entries returns the edges of the graph ordered by txn, wait_for_txn and
// key hash.
func (d *Detector) Entries() []deadlock.WaitForEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ret []deadlock.WaitForEntry
	for txn, edges := range d.waitFor {
		for waitForTxn, keys := range edges {
			for keyHash := range keys {
				ret = append(ret, deadlock.WaitForEntry{Txn: txn, WaitForTxn: waitForTxn, KeyHash: keyHash})
			}
		}
	}
	slices.SortFunc(ret, func(a, b deadlock.WaitForEntry) int {
		if c := cmp.Compare(a.Txn, b.Txn); c != 0 {
			return c
		}
		if c := cmp.Compare(a.WaitForTxn, b.WaitForTxn); c != 0 {
			return c
		}
		return cmp.Compare(a.KeyHash, b.KeyHash)
	})
	return ret
}

// findPath searches breadth-first for a path from -> ... -> to. It returns
// the smallest key hash of the last edge of the first path found.
func (d *Detector) findPath(from, to uint64) (keyHash uint64, ok bool) {
	visited := map[uint64]struct{}{from: {}}
	queue := []uint64{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next, keys := range d.waitFor[cur] {
			if next == to {
				return minKey(keys), true
			}
			if _, seen := visited[next]; !seen {
				visited[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}
	return 0, false
}

func minKey(keys map[uint64]struct{}) uint64 {
	first := true
	var ret uint64
	for k := range keys {
		if first || k < ret {
			ret = k
			first = false
		}
	}
	return ret
}
