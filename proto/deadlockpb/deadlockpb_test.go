package deadlockpb

import (
	"testing"

	"github.com/pingcap/kvproto/pkg/deadlock"
	"github.com/stretchr/testify/require"
)

func TestSameEdge(t *testing.T) {
	edge := NewEntry(1, 2, 3)

	tcs := []struct {
		name  string
		other deadlock.WaitForEntry
		want  bool
	}{
		{name: "Equal", other: NewEntry(1, 2, 3), want: true},
		{
			name: "ExtraFields",
			other: deadlock.WaitForEntry{
				Txn:              1,
				WaitForTxn:       2,
				KeyHash:          3,
				Key:              []byte("key"),
				ResourceGroupTag: []byte("tag"),
				WaitTime:         10,
			},
			want: true,
		},
		{name: "Reversed", other: NewEntry(2, 1, 3), want: false},
		{name: "OtherKey", other: NewEntry(1, 2, 4), want: false},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SameEdge(edge, tc.other))
			require.Equal(t, tc.want, SameEdge(tc.other, edge))
		})
	}
}

func TestDetectFullMethod(t *testing.T) {
	require.Equal(t, "/deadlock.Deadlock/Detect", DetectFullMethod)
}
