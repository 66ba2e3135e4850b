package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRequiresActive(t *testing.T) {
	s := New()
	ok := s.Queue([]string{"PING"})
	assert.False(t, ok)
}

func TestBeginQueueDrain(t *testing.T) {
	s := New()
	s.Begin()
	require.True(t, s.Active())

	require.True(t, s.Queue([]string{"SET", "a", "1"}))
	require.True(t, s.Queue([]string{"GET", "a"}))

	q := s.Drain()
	require.Len(t, q, 2)
	assert.Equal(t, []string{"SET", "a", "1"}, q[0])
	assert.False(t, s.Active())
}

func TestDiscard(t *testing.T) {
	s := New()
	assert.False(t, s.Discard())

	s.Begin()
	s.Queue([]string{"PING"})
	assert.True(t, s.Discard())
	assert.False(t, s.Active())
	assert.Empty(t, s.Drain())
}

func TestBeginResetsPriorQueue(t *testing.T) {
	s := New()
	s.Begin()
	s.Queue([]string{"PING"})
	s.Begin()
	assert.Empty(t, s.Drain())
}
