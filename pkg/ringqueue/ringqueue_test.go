package ringqueue

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEmptyOnCreation(t *testing.T) {
	q, err := New(16)
	require.NoError(t, err)
	require.Equal(t, 0, q.BytesQueued())
}

func TestPushPullRoundTrip(t *testing.T) {
	q, err := New(8)
	require.NoError(t, err)

	q.Push([]byte{1, 2, 3, 4}, 4)
	require.Equal(t, 4, q.BytesQueued())

	dst := make([]byte, 4)
	q.Pull(dst, 4)
	require.Equal(t, []byte{1, 2, 3, 4}, dst)
	require.Equal(t, 0, q.BytesQueued())
}

func TestWraparound(t *testing.T) {
	q, err := New(4)
	require.NoError(t, err)

	q.Push([]byte{1, 2, 3}, 3)
	q.Pull(nil, 2) // head=2, tail=3
	q.Push([]byte{4, 5, 6}, 3) // wraps: writes at 3, 0, 1

	require.Equal(t, 4, q.BytesQueued())
	dst := make([]byte, 4)
	q.Pull(dst, 4)
	require.Equal(t, []byte{3, 4, 5, 6}, dst)
}

func TestPushZerosAndDiscard(t *testing.T) {
	q, err := New(8)
	require.NoError(t, err)

	q.PushZeros(4)
	dst := make([]byte, 4)
	q.Pull(dst, 4)
	require.Equal(t, []byte{0, 0, 0, 0}, dst)

	q.Push([]byte{1, 2, 3, 4}, 4)
	q.Discard(4)
	require.Equal(t, 0, q.BytesQueued())
}

func TestCompare(t *testing.T) {
	q, err := New(8)
	require.NoError(t, err)

	q.Push([]byte{9, 8, 7}, 3)
	require.True(t, q.Compare([]byte{9, 8, 7}, 3))
	require.False(t, q.Compare([]byte{9, 8, 6}, 3))
	// Compare must not advance the head.
	require.Equal(t, 3, q.BytesQueued())
}

func TestCompareAcrossWrap(t *testing.T) {
	q, err := New(4)
	require.NoError(t, err)

	q.Push([]byte{1, 2, 3}, 3)
	q.Pull(nil, 2)
	q.Push([]byte{4, 5}, 2) // buf wraps: head=2, payload spans [2]=3,[3]=4,[0]=5

	require.True(t, q.Compare([]byte{3, 4, 5}, 3))
}

func TestFullQueue(t *testing.T) {
	q, err := New(4)
	require.NoError(t, err)

	q.Push([]byte{1, 2, 3, 4}, 4)
	require.Equal(t, 4, q.BytesQueued())
	require.Equal(t, 0, q.free())
}

func TestPushBeyondCapacityPanics(t *testing.T) {
	q, err := New(4)
	require.NoError(t, err)

	require.Panics(t, func() {
		q.Push(make([]byte, 5), 5)
	})
}

// TestConservation is invariant 5 of spec §8: after any sequence of
// matched push/pull of equal length N <= C, BytesQueued returns to its
// starting value, and head/tail always lie in [0, C).
func TestConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capv := rapid.IntRange(1, 64).Draw(t, "cap")
		q, err := New(capv)
		require.NoError(t, err)

		start := q.BytesQueued()
		ops := rapid.IntRange(1, 20).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			n := rapid.IntRange(0, capv-q.BytesQueued()).Draw(t, "pushLen")
			if n > 0 {
				data := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "data")
				q.Push(data, n)
			}
			m := rapid.IntRange(0, q.BytesQueued()).Draw(t, "pullLen")
			if m > 0 {
				q.Pull(make([]byte, m), m)
			}
			require.GreaterOrEqual(t, q.head, 0)
			require.Less(t, q.head, capv)
			require.GreaterOrEqual(t, q.tail, 0)
			require.Less(t, q.tail, capv)
		}
		// drain back to start
		for q.BytesQueued() > start {
			q.Pull(nil, 1)
		}
		require.Equal(t, start, q.BytesQueued())
	})
}
