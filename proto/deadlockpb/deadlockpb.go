// Package deadlockpb holds helpers for the messages of the deadlock.Deadlock
// service, whose generated code lives in github.com/pingcap/kvproto.
package deadlockpb

//go:generate go run go.uber.org/mock/mockgen -package mock -destination mock/deadlock_mock.go github.com/pingcap/kvproto/pkg/deadlock DeadlockClient,Deadlock_DetectClient,DeadlockServer

import "github.com/pingcap/kvproto/pkg/deadlock"

// DetectFullMethod is the full gRPC method name of Deadlock.Detect.
const DetectFullMethod = "/deadlock.Deadlock/Detect"

// NewEntry returns the edge in which txn waits for waitForTxn on the lock
// keyed by keyHash.
func NewEntry(txn, waitForTxn, keyHash uint64) deadlock.WaitForEntry {
	return deadlock.WaitForEntry{
		Txn:        txn,
		WaitForTxn: waitForTxn,
		KeyHash:    keyHash,
	}
}

// SameEdge reports whether a and b are the same wait-for edge. Key, resource
// group tag and wait time are not part of the edge.
func SameEdge(a, b deadlock.WaitForEntry) bool {
	return a.Txn == b.Txn && a.WaitForTxn == b.WaitForTxn && a.KeyHash == b.KeyHash
}
