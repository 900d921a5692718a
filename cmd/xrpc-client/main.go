// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

// Command xrpc-client is an interactive and scriptable client for an xrpc
// server: it can issue a single call or drop into a REPL.
package main

import "github.com/sandia-minimega/xrpc/cmd/xrpc-client/cmd"

func main() {
	cmd.Execute()
}
