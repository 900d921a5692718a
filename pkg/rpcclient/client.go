// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

// Package rpcclient implements the pipelined client engine (spec.md
// §4.8): many goroutines may call Execute concurrently on a single
// connection, but at any instant at most one of them drives the socket,
// a role handed off by waking a waiter under the response map's lock --
// the "floating master" protocol from original_source/src/rpc/rpcclient.cc.
package rpcclient

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/sandia-minimega/xrpc/internal/wire"
	log "github.com/sandia-minimega/xrpc/pkg/minilog"
)

// ErrClosed is returned by Execute once the client has been shut down,
// clean or dirty.
var ErrClosed = errors.New("rpcclient: client closed")

const (
	// defaultPollInterval bounds how long handleIO blocks on a single
	// Read/Write before re-checking for work. Go's net.Conn has no
	// portable non-blocking mode, so a short rolling deadline stands in
	// for the reference implementation's O_NONBLOCK + EAGAIN retry loop
	// (spec.md §9 Open Question 3).
	defaultPollInterval = 50 * time.Millisecond

	readBufferSize = 4096
)

// Client is a single connection to an xrpc server capable of pipelining
// many concurrent Execute calls. The zero value is not usable; create one
// with Dial.
type Client struct {
	conn net.Conn

	nextID atomic.Uint32

	reqs *requestQueue
	resp *responseMap

	// recvBuffer is touched only by whichever goroutine currently holds
	// the master role, so it needs no lock of its own.
	recvBuffer []byte

	valid atomic.Bool

	pollInterval time.Duration
}

// Dial connects to an xrpc server at addr ("host:port").
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "rpcclient: dial")
	}
	c := &Client{
		conn:         conn,
		reqs:         &requestQueue{},
		resp:         newResponseMap(),
		pollInterval: defaultPollInterval,
	}
	c.valid.Store(true)
	log.Info("rpcclient: connected to %s", addr)
	return c, nil
}

// Execute sends a request for procedure name with params and blocks until
// a response is demultiplexed to it. Exactly one of (results, fault) is
// meaningful: fault is non-nil only when the server reported a failure.
//
// ctx supplements spec.md's language-neutral execute(name, params):
// cancelling it unblocks this call's own wait, but -- per spec.md §5's
// "a client call cannot be cancelled individually" -- it does not stop
// whichever goroutine is acting as master from finishing its I/O pass,
// nor does it cancel server-side execution.
func (c *Client) Execute(ctx context.Context, name string, params []wire.Element) ([]wire.Element, *wire.Fault, error) {
	if !c.valid.Load() {
		return nil, nil, ErrClosed
	}

	id := c.nextID.Add(1) - 1
	c.reqs.push(wire.EncodeRequest(id, name, params))

	r, ok := c.resp.register(id)
	if !ok {
		return nil, nil, ErrClosed
	}
	if !c.valid.Load() {
		c.resp.abandon(id)
		return nil, nil, ErrClosed
	}

	if ctx != nil && ctx.Done() != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				c.resp.mu.Lock()
				r.cond.Broadcast()
				c.resp.mu.Unlock()
			case <-stop:
			}
		}()
	}

	// This is the floating-master state machine from
	// original_source/src/rpc/rpcclient.cc RPCClient::execute: while our
	// response isn't ready, either wait on whoever is master, or become
	// master ourselves and drive I/O.
	c.resp.mu.Lock()
	for c.valid.Load() {
		if r.ready {
			if !c.resp.hasMaster {
				for _, other := range c.resp.pending {
					other.cond.Broadcast()
					break
				}
			}
			break
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				c.resp.mu.Unlock()
				return nil, nil, ctx.Err()
			default:
			}
		}
		if c.resp.hasMaster {
			r.cond.Wait()
		} else {
			c.resp.hasMaster = true
			c.resp.mu.Unlock()
			c.handleIO(id)
			c.resp.mu.Lock()
		}
	}
	c.resp.mu.Unlock()

	if !r.ready {
		return nil, nil, ErrClosed
	}

	msg, err := wire.DecodeResponse(r.xml)
	if err != nil {
		return nil, nil, errors.Wrap(err, "rpcclient: decoding response")
	}
	return msg.Results, msg.Fault, nil
}

// handleIO is run by whichever goroutine holds the master role: it writes
// the head of the request queue and reads from the socket, demultiplexing
// completed response frames to their rendezvous, until myID's own
// response arrives or the connection fails.
func (c *Client) handleIO(myID uint32) {
	buf := make([]byte, readBufferSize)

	for {
		if req := c.reqs.front(); req != nil {
			for !req.done() {
				c.conn.SetWriteDeadline(time.Now().Add(c.pollInterval))
				n, err := c.conn.Write(req.xml[req.offset:])
				if n > 0 {
					req.offset += n
				}
				if err != nil {
					if isTimeout(err) {
						continue
					}
					log.Error("rpcclient: write: %v", err)
					c.dirtyShutdown()
					return
				}
			}
			c.reqs.popFront()
		}

		c.conn.SetReadDeadline(time.Now().Add(c.pollInterval))
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.recvBuffer = append(c.recvBuffer, buf[:n]...)

			frames, remainder := wire.ExtractFrames(c.recvBuffer)
			c.recvBuffer = remainder

			gotMine := false
			for _, frame := range frames {
				msg, derr := wire.DecodeResponse(frame)
				if derr != nil {
					log.Warn("rpcclient: discarding malformed response: %v", derr)
					continue
				}
				c.resp.deliver(msg.ID, frame)
				if msg.ID == myID {
					gotMine = true
				}
			}
			if gotMine {
				c.resp.mu.Lock()
				c.resp.hasMaster = false
				c.resp.mu.Unlock()
				return
			}
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			log.Error("rpcclient: read: %v", err)
			c.dirtyShutdown()
			return
		}
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// Close performs a clean shutdown (spec.md §4.8): it waits for every
// in-flight call to be answered before tearing down the queue and socket,
// grounded on RPCClient::cleanShutdown.
func (c *Client) Close() error {
	if !c.valid.CompareAndSwap(true, false) {
		return nil
	}

	c.resp.waitEmpty()
	c.reqs.drain()

	log.Info("rpcclient: clean shutdown")
	return c.conn.Close()
}

// CloseNow performs a dirty shutdown (spec.md §4.8): every in-flight call
// is woken with no response and fails with ErrClosed, grounded on
// RPCClient::dirtyShutdown.
func (c *Client) CloseNow() error {
	c.dirtyShutdown()
	return nil
}

func (c *Client) dirtyShutdown() {
	if !c.valid.CompareAndSwap(true, false) {
		return
	}
	c.resp.notifyAllAndClear()
	c.reqs.drain()
	log.Warn("rpcclient: dirty shutdown")
	c.conn.Close()
}
