// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

// Package rpcconn implements the sharded connection registry (spec.md
// §4.6) that the server engine uses to look up and tear down per-socket
// state under a per-shard lock.
package rpcconn

import (
	"net"
	"sync"
	"sync/atomic"
)

// sqrt2MinusOne is the irrational multiplier used to spread sequential
// connection IDs across shards (spec.md §4.6, §9 "Shard function").
const sqrt2MinusOne = 0.41421356237309515

// Conn is a single accepted connection's server-side state: the socket,
// the inbound byte accumulator, the FIFO of fully reassembled frames
// awaiting dispatch, and the write-serialization primitive described in
// spec.md §4.7.
type Conn struct {
	ID   uint64
	Sock net.Conn

	inbuf []byte

	readyMu sync.Mutex
	ready   [][]byte

	writeMu sync.Mutex
}

// Send writes b to the underlying socket under the per-connection write
// lock, guaranteeing that bytes of distinct responses never interleave on
// the wire even though many workers may write concurrently (spec.md
// §4.7, §5). net.Conn.Write already blocks until done or erroring, so no
// would-block retry loop or condition-variable dance is needed here --
// the mutex alone gives the guarantee (spec.md §9 Open Question 3).
func (c *Conn) Send(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_, err := c.Sock.Write(b)
	return err
}

// Feed appends newly read bytes to the inbound accumulator and moves every
// complete frame it now contains onto the ready queue, draining all of
// them rather than just the first (spec.md §9 Open Question 2).
func (c *Conn) Feed(b []byte, extract func([]byte) (frames [][]byte, remainder []byte)) {
	c.inbuf = append(c.inbuf, b...)

	frames, remainder := extract(c.inbuf)
	c.inbuf = remainder

	if len(frames) == 0 {
		return
	}

	c.readyMu.Lock()
	c.ready = append(c.ready, frames...)
	c.readyMu.Unlock()
}

// NextFrame pops one ready frame, or returns (nil, false) if none remain.
func (c *Conn) NextFrame() ([]byte, bool) {
	c.readyMu.Lock()
	defer c.readyMu.Unlock()

	if len(c.ready) == 0 {
		return nil, false
	}
	f := c.ready[0]
	c.ready = c.ready[1:]
	return f, true
}

// Close closes the underlying socket. Safe to call multiple times.
func (c *Conn) Close() error {
	return c.Sock.Close()
}

type shard struct {
	mu    sync.Mutex
	conns map[uint64]*Conn
}

// Registry is a fixed array of shards, each independently lockable, that
// maps a connection ID to its *Conn.
type Registry struct {
	shards []shard
	nextID atomic.Uint64
}

// New creates a registry with the given number of shards.
func New(shardCount int) *Registry {
	if shardCount < 1 {
		shardCount = 1
	}
	r := &Registry{shards: make([]shard, shardCount)}
	for i := range r.shards {
		r.shards[i].conns = make(map[uint64]*Conn)
	}
	return r
}

func (r *Registry) shardFor(id uint64) *shard {
	v := float64(id) * sqrt2MinusOne
	frac := v - float64(int64(v))
	idx := int(float64(len(r.shards)) * frac)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(r.shards) {
		idx = len(r.shards) - 1
	}
	return &r.shards[idx]
}

// Add wraps sock in a new *Conn, assigns it the next sequential ID, and
// inserts it into its shard. Add cannot fail in practice since IDs are
// assigned by the registry itself, but returns an error to honor spec.md
// §4.6's "add returns false if the handle already exists" contract.
func (r *Registry) Add(sock net.Conn) (*Conn, error) {
	id := r.nextID.Add(1)
	c := &Conn{ID: id, Sock: sock}

	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conns[id]; exists {
		return nil, errAlreadyExists(id)
	}
	s.conns[id] = c
	return c, nil
}

// Find looks up a connection by ID. The returned pointer is a borrow: the
// caller must not retain it across a Close.
func (r *Registry) Find(id uint64) (*Conn, bool) {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[id]
	return c, ok
}

// Close removes id from the registry and closes its socket exactly once.
// Returns false if id was not present.
func (r *Registry) Close(id uint64) bool {
	s := r.shardFor(id)
	s.mu.Lock()
	c, ok := s.conns[id]
	if ok {
		delete(s.conns, id)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	c.Close()
	return true
}

// Shutdown takes every shard's lock in index order and closes every
// connection, matching ConnectionManager::shutdown in the reference
// implementation.
func (r *Registry) Shutdown() {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for id, c := range s.conns {
			c.Close()
			delete(s.conns, id)
		}
		s.mu.Unlock()
	}
}

// Len returns the total number of registered connections, summed across
// shards. Used by tests asserting the registry drains to empty.
func (r *Registry) Len() int {
	total := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		total += len(s.conns)
		s.mu.Unlock()
	}
	return total
}

type duplicateIDError uint64

func errAlreadyExists(id uint64) error { return duplicateIDError(id) }

func (e duplicateIDError) Error() string {
	return "rpcconn: connection id already registered"
}
