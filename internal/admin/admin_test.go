package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/vaultkv/vaultkv/internal/store"
)

func TestErrRingWrapsAndOrdersOldestFirst(t *testing.T) {
	r := newErrRing(3)
	r.push("a", assertError("one"))
	r.push("b", assertError("two"))
	r.push("c", assertError("three"))
	r.push("d", assertError("four"))

	snap := r.snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, "two", snap[0].Message)
	assert.Equal(t, "three", snap[1].Message)
	assert.Equal(t, "four", snap[2].Message)
}

func TestSetExpiryAndSnapshot(t *testing.T) {
	st := store.New(zap.NewNop())
	st.SetString("k", "v", time.Time{})

	snap := st.Snapshot()
	assert.Len(t, snap, 1)
	assert.True(t, snap[0].Expiry.IsZero())

	ttl := int64(50)
	assert.True(t, st.SetExpiry("k", &ttl))
	snap = st.Snapshot()
	assert.False(t, snap[0].Expiry.IsZero())

	assert.True(t, st.SetExpiry("k", nil))
	snap = st.Snapshot()
	assert.True(t, snap[0].Expiry.IsZero())

	assert.False(t, st.SetExpiry("missing", nil))
}

type assertError string

func (e assertError) Error() string { return string(e) }
