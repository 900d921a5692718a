// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package rpcpool_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/sandia-minimega/xrpc/internal/rpcpool"
	log "github.com/sandia-minimega/xrpc/pkg/minilog"
)

func init() {
	log.AddLogger("stderr", os.Stderr, log.WARN, true)
}

func TestPoolRunsAllSubmittedTasks(t *testing.T) {
	p := New(4)
	p.Start(context.Background())

	const n = 500
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		p.Submit(func() {
			count.Add(1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tasks to complete")
	}

	assert.EqualValues(t, n, count.Load())
	require.NoError(t, p.Shutdown())
}

func TestPoolRecoversPanickingTask(t *testing.T) {
	p := New(2)
	p.Start(context.Background())

	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(2)

	p.Submit(func() {
		defer wg.Done()
		panic("boom")
	})
	p.Submit(func() {
		defer wg.Done()
		ran.Store(true)
	})

	wg.Wait()
	assert.True(t, ran.Load(), "pool should keep running tasks after a panic")
	require.NoError(t, p.Shutdown())
}

func TestPoolStartIsIdempotent(t *testing.T) {
	p := New(2)
	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx) // must not panic or spawn a second set of workers

	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(wg.Done)
	wg.Wait()

	require.NoError(t, p.Shutdown())
}
