// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sandia-minimega/xrpc/internal/wire"
	log "github.com/sandia-minimega/xrpc/pkg/minilog"
	"github.com/sandia-minimega/xrpc/pkg/rpcserver"
)

var (
	serveAddr       string
	servePoolSize   int
	serveShardCount int
	serveRingSize   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the xrpc server and block until terminated",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "0.0.0.0:4444", "listen address")
	serveCmd.Flags().IntVar(&servePoolSize, "pool-size", 16, "worker pool size")
	serveCmd.Flags().IntVar(&serveShardCount, "shard-count", 32, "connection registry shard count")
	serveCmd.Flags().IntVar(&serveRingSize, "log.ring-size", 256, "number of recent log lines kept for the log.history procedure")
	viper.BindPFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	srv := rpcserver.New(viper.GetString("addr"), viper.GetInt("pool-size"), viper.GetInt("shard-count"))

	level, err := log.LevelFromString(viper.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("parsing log.level: %w", err)
	}
	ring := log.AddRingLogger("ring", viper.GetInt("log.ring-size"), level)

	registerBuiltins(srv, ring)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case s := <-sig:
		log.Info("xrpc-server: received %v, shutting down", s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// registerBuiltins registers a handful of demonstration procedures so the
// server is useful to probe immediately after a fresh deployment, without
// requiring a caller to link their own procedure set first.
func registerBuiltins(srv *rpcserver.Server, ring *log.Ring) {
	srv.RegisterProcedure("echo", func(params []wire.Element) ([]wire.Element, error) {
		return params, nil
	})

	srv.RegisterProcedure("add", func(params []wire.Element) ([]wire.Element, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("add: expected 2 params, got %d", len(params))
		}
		a, aok := params[0].Int()
		b, bok := params[1].Int()
		if !aok || !bok {
			return nil, fmt.Errorf("add: expected two i4 params")
		}
		return []wire.Element{wire.NewInt(a + b)}, nil
	})

	srv.RegisterProcedure("time.now", func(params []wire.Element) ([]wire.Element, error) {
		return []wire.Element{wire.NewTime(time.Now())}, nil
	})

	// log.history lets an operator pull recent server-side log activity
	// over the RPC channel itself, without needing filesystem access to
	// wherever stderr/log files landed.
	srv.RegisterProcedure("log.history", func(params []wire.Element) ([]wire.Element, error) {
		lines := ring.Dump()
		elements := make([]wire.Element, len(lines))
		for i, line := range lines {
			elements[i] = wire.NewString(line)
		}
		return []wire.Element{wire.NewArray(elements)}, nil
	})
}
