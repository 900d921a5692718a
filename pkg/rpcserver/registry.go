// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package rpcserver

import (
	"sync"

	"github.com/sandia-minimega/xrpc/internal/wire"
)

// Procedure is the invocable a registered name maps to: it receives the
// decoded parameter vector and returns the result vector, or an error
// which the dispatcher turns into a fault response (spec.md §6).
type Procedure func(params []wire.Element) ([]wire.Element, error)

// procRegistry is a read-mostly name -> Procedure map. spec.md §9 notes
// that a registry populated entirely before Start needs no lock at all;
// this implementation keeps an RWMutex anyway so RegisterProcedure stays
// safe to call after Start too, a small supplement beyond the stated
// lifecycle (see DESIGN.md).
type procRegistry struct {
	mu    sync.RWMutex
	procs map[string]Procedure
}

func newProcRegistry() *procRegistry {
	return &procRegistry{procs: make(map[string]Procedure)}
}

// register inserts name -> p. Returns false if name is already bound,
// leaving the existing binding in place (spec.md §7.6, §8).
func (r *procRegistry) register(name string, p Procedure) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.procs[name]; exists {
		return false
	}
	r.procs[name] = p
	return true
}

// lookup returns the procedure bound to name, or (nil, false).
func (r *procRegistry) lookup(name string) (Procedure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.procs[name]
	return p, ok
}
