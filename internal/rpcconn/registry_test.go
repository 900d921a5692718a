// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package rpcconn_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/sandia-minimega/xrpc/internal/rpcconn"
	"github.com/sandia-minimega/xrpc/internal/wire"
)

func pipeConn(t *testing.T) net.Conn {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { b.Close() })
	return a
}

func TestRegistryAddFindClose(t *testing.T) {
	r := New(8)

	c, err := r.Add(pipeConn(t))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Find(c.ID)
	require.True(t, ok)
	assert.Same(t, c, got)

	assert.True(t, r.Close(c.ID))
	assert.Equal(t, 0, r.Len())

	_, ok = r.Find(c.ID)
	assert.False(t, ok)

	assert.False(t, r.Close(c.ID), "closing an already-closed id reports false")
}

func TestRegistryDistributesAcrossShards(t *testing.T) {
	r := New(16)
	for i := 0; i < 64; i++ {
		_, err := r.Add(pipeConn(t))
		require.NoError(t, err)
	}
	assert.Equal(t, 64, r.Len())
}

func TestRegistryShutdownClosesEverything(t *testing.T) {
	r := New(4)
	for i := 0; i < 10; i++ {
		_, err := r.Add(pipeConn(t))
		require.NoError(t, err)
	}

	r.Shutdown()
	assert.Equal(t, 0, r.Len())
}

func TestConnFeedDrainsAllCompleteFrames(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	r := New(2)
	c, err := r.Add(a)
	require.NoError(t, err)

	one := wire.EncodeRequest(1, "a", nil)
	two := wire.EncodeRequest(2, "b", nil)

	c.Feed(append(append([]byte{}, one...), two...), wire.ExtractFrames)

	got1, ok := c.NextFrame()
	require.True(t, ok)
	got2, ok := c.NextFrame()
	require.True(t, ok)
	_, ok = c.NextFrame()
	assert.False(t, ok)

	assert.Equal(t, one, got1)
	assert.Equal(t, two, got2)
}
