// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

// Command xrpc-server hosts an xrpc server engine and registers a small
// set of built-in procedures, useful for smoke-testing a deployment or as
// a starting point for a real procedure set.
package main

import "github.com/sandia-minimega/xrpc/cmd/xrpc-server/cmd"

func main() {
	cmd.Execute()
}
