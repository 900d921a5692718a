// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package rpcclient_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandia-minimega/xrpc/internal/wire"
	log "github.com/sandia-minimega/xrpc/pkg/minilog"
	. "github.com/sandia-minimega/xrpc/pkg/rpcclient"
	"github.com/sandia-minimega/xrpc/pkg/rpcserver"
)

func init() {
	log.AddLogger("stderr", os.Stderr, log.WARN, true)
}

func startDoubleServer(t *testing.T) string {
	t.Helper()

	srv := rpcserver.New("127.0.0.1:0", 4, 8)
	srv.RegisterProcedure("double", func(params []wire.Element) ([]wire.Element, error) {
		v, _ := params[0].Int()
		return []wire.Element{wire.NewInt(v * 2)}, nil
	})

	go srv.Start()

	var addr string
	require.Eventually(t, func() bool {
		if a := srv.Addr(); a != nil {
			addr = a.String()
			return true
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	return addr
}

func TestClientPipelinesManyConcurrentCalls(t *testing.T) {
	addr := startDoubleServer(t)

	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		go func(v int32) {
			defer wg.Done()
			results, fault, err := c.Execute(context.Background(), "double", []wire.Element{wire.NewInt(v)})
			if err != nil {
				errs <- err
				return
			}
			if fault != nil {
				errs <- assert.AnError
				return
			}
			got, _ := results[0].Int()
			if got != v*2 {
				errs <- assert.AnError
			}
		}(int32(i))
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestClientCloseAfterCallRejectsLaterCalls(t *testing.T) {
	addr := startDoubleServer(t)

	c, err := Dial(addr)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, err := c.Execute(context.Background(), "double", []wire.Element{wire.NewInt(21)})
		assert.NoError(t, err)
	}()

	wg.Wait()
	assert.NoError(t, c.Close())

	_, _, err = c.Execute(context.Background(), "double", []wire.Element{wire.NewInt(1)})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClientCloseNowRejectsLaterCalls(t *testing.T) {
	addr := startDoubleServer(t)

	c, err := Dial(addr)
	require.NoError(t, err)

	require.NoError(t, c.CloseNow())

	_, _, err = c.Execute(context.Background(), "double", []wire.Element{wire.NewInt(1)})
	assert.ErrorIs(t, err, ErrClosed)
}
