// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package rpcclient

import "sync"

// pendingRequest is one queued outbound frame plus how much of it has
// already been written, so a partial write can resume where it left off
// (spec.md §4.8, grounded on RPCClient::RequestEvent in
// original_source/src/rpc/rpcclient.cc).
type pendingRequest struct {
	xml    []byte
	offset int
}

func (p *pendingRequest) done() bool { return p.offset >= len(p.xml) }

// requestQueue is the FIFO of outbound frames awaiting transmission by
// whichever goroutine currently holds the master role.
type requestQueue struct {
	mu    sync.Mutex
	items []*pendingRequest
}

func (q *requestQueue) push(xml []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, &pendingRequest{xml: xml})
}

// front returns the head of the queue without removing it.
func (q *requestQueue) front() *pendingRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// popFront removes the head of the queue, if any. Only the master
// goroutine ever pops, so the head is the request it just finished writing.
func (q *requestQueue) popFront() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	q.items = q.items[1:]
}

func (q *requestQueue) drain() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// rendezvous is a single in-flight call's wait point: the master
// goroutine fills in xml and sets ready, then wakes every waiter
// (spec.md §4.8 "response rendezvous").
type rendezvous struct {
	ready bool
	xml   []byte
	cond  *sync.Cond
}

// responseMap tracks one rendezvous per outstanding request ID, plus the
// single shared hasMaster flag -- both protected by the same lock, exactly
// as in the reference implementation's _respLock guarding both _respMap
// and _hasMaster.
type responseMap struct {
	mu        sync.Mutex
	pending   map[uint32]*rendezvous
	hasMaster bool

	// changed is broadcast whenever pending is mutated, so Close can wait
	// for it to drain without polling (spec.md §4.8 clean shutdown).
	changed *sync.Cond
}

func newResponseMap() *responseMap {
	m := &responseMap{pending: make(map[uint32]*rendezvous)}
	m.changed = sync.NewCond(&m.mu)
	return m
}

// register inserts a fresh, not-ready rendezvous for id. Returns false if
// id is already registered (should not happen with a monotonic counter,
// but mirrors the reference implementation's map-insert check).
func (m *responseMap) register(id uint32) (*rendezvous, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[id]; exists {
		return nil, false
	}
	r := &rendezvous{cond: sync.NewCond(&m.mu)}
	m.pending[id] = r
	m.changed.Broadcast()
	return r, true
}

// abandon removes id's rendezvous without delivering a response, used when
// a call bails out before it ever waits (e.g. the client became invalid
// between register and the wait loop).
func (m *responseMap) abandon(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
	m.changed.Broadcast()
}

// deliver resolves the rendezvous for id with xml, waking every waiter.
// A frame whose id has no pending rendezvous is dropped. Giving up the
// master role when the master's own id arrives is left to handleIO.
func (m *responseMap) deliver(id uint32, xml []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.pending[id]
	if !ok {
		return // garbage: no one is waiting on this id
	}
	delete(m.pending, id)
	r.ready = true
	r.xml = xml
	r.cond.Broadcast()
	m.changed.Broadcast()
}

func (m *responseMap) empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending) == 0
}

// waitEmpty blocks until no rendezvous remain pending (spec.md §4.8 clean
// shutdown: wait for every in-flight call to be answered before closing
// the socket).
func (m *responseMap) waitEmpty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.pending) != 0 {
		m.changed.Wait()
	}
}

// notifyAllAndClear wakes every pending waiter with no response (used on
// dirty shutdown) and empties the map.
func (m *responseMap) notifyAllAndClear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.pending {
		r.cond.Broadcast()
		delete(m.pending, id)
	}
	m.changed.Broadcast()
}
