// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package rpcserver_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	log "github.com/sandia-minimega/xrpc/pkg/minilog"
	"github.com/sandia-minimega/xrpc/pkg/rpcclient"
	. "github.com/sandia-minimega/xrpc/pkg/rpcserver"
	"github.com/sandia-minimega/xrpc/internal/wire"
)

func init() {
	log.AddLogger("stderr", os.Stderr, log.WARN, true)
}

func startServer(t *testing.T) (*Server, string) {
	t.Helper()

	srv := New("127.0.0.1:0", 4, 8)

	ok := srv.RegisterProcedure("add", func(params []wire.Element) ([]wire.Element, error) {
		a, _ := params[0].Int()
		b, _ := params[1].Int()
		return []wire.Element{wire.NewInt(a + b)}, nil
	})
	require.True(t, ok)

	ok = srv.RegisterProcedure("boom", func(params []wire.Element) ([]wire.Element, error) {
		panic("procedure exploded")
	})
	require.True(t, ok)

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

	return srv, addr
}

func TestServerDispatchesRegisteredProcedure(t *testing.T) {
	_, addr := startServer(t)

	c, err := rpcclient.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	results, fault, err := c.Execute(context.Background(), "add", []wire.Element{wire.NewInt(2), wire.NewInt(3)})
	require.NoError(t, err)
	require.Nil(t, fault)
	require.Len(t, results, 1)

	v, ok := results[0].Int()
	require.True(t, ok)
	assert.EqualValues(t, 5, v)
}

func TestServerFaultsOnUnknownProcedure(t *testing.T) {
	_, addr := startServer(t)

	c, err := rpcclient.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	_, fault, err := c.Execute(context.Background(), "no-such-procedure", nil)
	require.NoError(t, err)
	require.NotNil(t, fault)
}

func TestServerRecoversPanickingProcedure(t *testing.T) {
	_, addr := startServer(t)

	c, err := rpcclient.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	_, fault, err := c.Execute(context.Background(), "boom", nil)
	require.NoError(t, err)
	require.NotNil(t, fault)

	// the connection must still be usable afterwards
	results, fault, err := c.Execute(context.Background(), "add", []wire.Element{wire.NewInt(1), wire.NewInt(1)})
	require.NoError(t, err)
	require.Nil(t, fault)
	v, _ := results[0].Int()
	assert.EqualValues(t, 2, v)
}

func TestServerRejectsDuplicateProcedureRegistration(t *testing.T) {
	srv := New("127.0.0.1:0", 2, 4)
	ok := srv.RegisterProcedure("dup", func(params []wire.Element) ([]wire.Element, error) { return nil, nil })
	require.True(t, ok)

	ok = srv.RegisterProcedure("dup", func(params []wire.Element) ([]wire.Element, error) { return nil, nil })
	assert.False(t, ok, "re-registering an existing procedure name must fail")
}

func TestServerHandlesManyConcurrentClientsAndCalls(t *testing.T) {
	_, addr := startServer(t)

	const clients = 8
	const callsPerClient = 25

	var wg sync.WaitGroup
	wg.Add(clients)
	errs := make(chan error, clients*callsPerClient)

	for i := 0; i < clients; i++ {
		go func(base int) {
			defer wg.Done()

			c, err := rpcclient.Dial(addr)
			if err != nil {
				errs <- err
				return
			}
			defer c.Close()

			var innerWg sync.WaitGroup
			innerWg.Add(callsPerClient)
			for j := 0; j < callsPerClient; j++ {
				go func(n int) {
					defer innerWg.Done()
					results, fault, err := c.Execute(context.Background(), "add",
						[]wire.Element{wire.NewInt(int32(base)), wire.NewInt(int32(n))})
					if err != nil {
						errs <- err
						return
					}
					if fault != nil {
						errs <- fmt.Errorf("unexpected fault")
						return
					}
					got, _ := results[0].Int()
					if got != int32(base+n) {
						errs <- fmt.Errorf("got %d, want %d", got, base+n)
					}
				}(j)
			}
			innerWg.Wait()
		}(i * 1000)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
