package session

import "github.com/pingcap/kvproto/pkg/deadlock"

// Handler is called by the read loop for every response, one at a time, on
// the goroutine running ReadTask. It must not block for long.
type Handler func(rsp *deadlock.DeadlockResponse) Verdict

type verdictKind int

const (
	verdictContinue verdictKind = iota
	verdictStop
	verdictFault
)

// Verdict tells the read loop what to do after a response.
type Verdict struct {
	kind   verdictKind
	reason string
	err    error
}

// Continue keeps reading.
func Continue() Verdict {
	return Verdict{kind: verdictContinue}
}

// Stop ends the read loop normally. ReadTask returns reason and a nil error.
func Stop(reason string) Verdict {
	return Verdict{kind: verdictStop, reason: reason}
}

// Fault ends the read loop with err.
func Fault(err error) Verdict {
	return Verdict{kind: verdictFault, err: err}
}
