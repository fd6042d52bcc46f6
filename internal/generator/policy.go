package generator

import (
	"fmt"
	"strings"
)

// Policy decides how edges are drawn from the id space.
type Policy int

const (
	PolicyInvalid Policy = iota
	// PolicyUniformPair draws txn and wait_for_txn uniformly from [0, range),
	// never equal to each other.
	PolicyUniformPair
	// PolicyUniformKind draws the request kind uniformly as well as the three
	// ids, independently of each other.
	PolicyUniformKind
	// PolicySlidingWindow uses a monotonic counter as txn and draws
	// wait_for_txn from a window of 2*range ids around it.
	PolicySlidingWindow
)

var policyNames = map[Policy]string{
	PolicyUniformPair:   "uniform-pair",
	PolicyUniformKind:   "uniform-kind",
	PolicySlidingWindow: "sliding-window",
}

// Policies returns the names accepted by ParsePolicy.
func Policies() []string {
	return []string{
		PolicyUniformPair.String(),
		PolicyUniformKind.String(),
		PolicySlidingWindow.String(),
	}
}

// ParsePolicy converts a name such as "sliding-window" into a Policy.
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return PolicyInvalid, fmt.Errorf("generator: unknown policy %q", s)
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

func (p Policy) valid() bool {
	_, ok := policyNames[p]
	return ok
}
