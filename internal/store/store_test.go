package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaultkv/vaultkv/internal/waitregistry"
)

func newTestStore() *Store {
	return New(zap.NewNop())
}

func TestSetGetString(t *testing.T) {
	s := newTestStore()
	s.SetString("k", "v", time.Time{})

	v, ok, err := s.GetString("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestLazyExpiry(t *testing.T) {
	s := newTestStore()
	s.SetString("k", "v", time.Now().Add(-time.Millisecond))

	_, ok, err := s.GetString("k")
	require.NoError(t, err)
	assert.False(t, ok)

	kind, ok := s.Kind("k")
	_ = kind
	assert.False(t, ok)
}

func TestWrongType(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()
	_, err := s.Push(wr, "k", []string{"a"}, false)
	require.NoError(t, err)

	_, _, err = s.GetString("k")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestIncr(t *testing.T) {
	s := newTestStore()
	n, err := s.Incr("c")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Incr("c")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	s.SetString("bad", "notanumber", time.Time{})
	_, err = s.Incr("bad")
	assert.ErrorIs(t, err, ErrNotInteger)
}

func TestPushHeadOrdering(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()
	n, err := s.Push(wr, "k", []string{"a", "b", "c"}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	out, err := s.Range("k", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, out)
}

func TestRangeBoundaries(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()
	_, err := s.Push(wr, "k", []string{"a", "b", "c"}, false)
	require.NoError(t, err)

	out, _ := s.Range("k", 5, 10)
	assert.Empty(t, out)

	out, _ = s.Range("k", 1, 100)
	assert.Equal(t, []string{"b", "c"}, out)

	out, _ = s.Range("k", -2, -1)
	assert.Equal(t, []string{"b", "c"}, out)
}

func TestPopEmptiesKey(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()
	_, err := s.Push(wr, "k", []string{"a"}, false)
	require.NoError(t, err)

	elems, existed, err := s.Pop("k", 1, true)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, []string{"a"}, elems)

	n, _ := s.ListLen("k")
	assert.EqualValues(t, 0, n)
	_, ok := s.Kind("k")
	assert.False(t, ok)
}

func TestPopTailLIFO(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()
	_, err := s.Push(wr, "k", []string{"a", "b", "c"}, false)
	require.NoError(t, err)

	elems, existed, err := s.Pop("k", 2, false)
	require.NoError(t, err)
	require.True(t, existed)
	assert.Equal(t, []string{"c", "b"}, elems)
}

func TestPushDeliversToWaiterAndReportsLogicalLength(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()
	w := waitregistry.NewWaiter()
	wr.Register([]string{"q"}, w)

	n, err := s.Push(wr, "q", []string{"hello"}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	select {
	case d := <-w.Recv():
		assert.Equal(t, "hello", d.Value)
	default:
		t.Fatal("waiter was not delivered to")
	}

	length, _ := s.ListLen("q")
	assert.EqualValues(t, 0, length)
	_, ok := s.Kind("q")
	assert.False(t, ok)
}

func TestStreamAddAutoSeq(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()

	id1, err := s.StreamAdd(wr, "s", "0-*", []Field{{Name: "f", Value: "v"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, StreamID{Ms: 0, Seq: 1}, id1)

	id2, err := s.StreamAdd(wr, "s", "0-*", []Field{{Name: "f", Value: "v"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, StreamID{Ms: 0, Seq: 2}, id2)

	_, err = s.StreamAdd(wr, "s", "0-0", nil, 0)
	assert.ErrorIs(t, err, ErrStreamIDTooSmall)
}

func TestStreamAddOrdering(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()

	_, err := s.StreamAdd(wr, "s", "5-5", nil, 0)
	require.NoError(t, err)

	_, err = s.StreamAdd(wr, "s", "5-5", nil, 0)
	assert.ErrorIs(t, err, ErrStreamIDOutOfOrder)

	_, err = s.StreamAdd(wr, "s", "3-0", nil, 0)
	assert.ErrorIs(t, err, ErrStreamIDOutOfOrder)
}

func TestStreamRange(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()
	_, _ = s.StreamAdd(wr, "s", "1-1", []Field{{Name: "a", Value: "1"}}, 0)
	_, _ = s.StreamAdd(wr, "s", "2-1", []Field{{Name: "a", Value: "2"}}, 0)
	_, _ = s.StreamAdd(wr, "s", "3-1", []Field{{Name: "a", Value: "3"}}, 0)

	entries, err := s.StreamRange("s", "-", "+")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	entries, err = s.StreamRange("s", "2", "2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StreamID{Ms: 2, Seq: 1}, entries[0].ID)
}

func TestStreamReadSinceSkipsZeroHitKeys(t *testing.T) {
	s := newTestStore()
	wr := waitregistry.New()
	_, _ = s.StreamAdd(wr, "a", "1-1", nil, 0)

	out, err := s.StreamReadSince([]string{"a", "b"}, []StreamID{{}, {}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Key)
}
