package server

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsearchd/searchd/pkg/logging"
)

func pipeConn(t *testing.T) net.Conn {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return a
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	r.Add("one", pipeConn(t))
	r.Add("two", pipeConn(t))
	assert.Equal(t, 2, r.Len())

	r.Remove("one")
	assert.Equal(t, 1, r.Len())

	// Removing an unknown ID is a no-op.
	r.Remove("one")
	r.Remove("never-added")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()
	a1, b1 := net.Pipe()
	a2, b2 := net.Pipe()
	defer func() {
		_ = b1.Close()
		_ = b2.Close()
	}()

	r.Add("one", a1)
	r.Add("two", a2)

	r.CloseAll(logging.Nop())
	assert.Equal(t, 0, r.Len())

	// The connections are actually closed.
	_, err := a1.Write([]byte("x"))
	require.Error(t, err)
	_, err = a2.Write([]byte("x"))
	require.Error(t, err)
}

func TestRegistry_CloseAllToleratesCloseFailure(t *testing.T) {
	r := NewRegistry()
	a, b := net.Pipe()
	defer func() { _ = b.Close() }()

	// Pre-close so CloseAll's close fails; the sweep must continue.
	require.NoError(t, a.Close())
	r.Add("dead", a)
	r.Add("live", pipeConn(t))

	r.CloseAll(logging.Nop())
	assert.Equal(t, 0, r.Len())
}
