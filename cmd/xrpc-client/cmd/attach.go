// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sandia-minimega/xrpc/internal/wire"
	log "github.com/sandia-minimega/xrpc/pkg/minilog"
	"github.com/sandia-minimega/xrpc/pkg/rpcclient"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "attach an interactive REPL to an xrpc server",
	RunE:  runAttach,
}

// runAttach is grounded on pkg/miniclient's Attach: a liner-backed
// read-eval-print loop with history, where Ctrl-C aborts the current line
// instead of killing the process.
func runAttach(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("addr")

	c, err := rpcclient.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	input := liner.NewLiner()
	defer input.Close()
	input.SetCtrlCAborts(true)

	prompt := fmt.Sprintf("xrpc:%s$ ", addr)

	for {
		line, err := input.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input.AppendHistory(line)

		if line == "quit" || line == "exit" {
			break
		}

		fields := strings.Fields(line)
		proc, rawArgs := fields[0], fields[1:]

		params := make([]wire.Element, 0, len(rawArgs))
		for _, a := range rawArgs {
			params = append(params, parseArg(a))
		}

		results, fault, err := c.Execute(context.Background(), proc, params)
		if err != nil {
			log.Error("attach: %v", err)
			continue
		}
		if fault != nil {
			fmt.Println("remote fault:", faultMessage(fault))
			continue
		}
		printResults(results)
	}

	return nil
}

func faultMessage(f *wire.Fault) string {
	if f.Descriptor == nil {
		return "(no description)"
	}
	if s, ok := f.Descriptor.String(); ok {
		return s
	}
	return "(no description)"
}
