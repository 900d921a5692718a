// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sandia-minimega/xrpc/internal/wire"
	"github.com/sandia-minimega/xrpc/pkg/rpcclient"
)

var callCmd = &cobra.Command{
	Use:   "call <procedure> [args...]",
	Short: "issue a single RPC call and print its result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	proc := args[0]

	params := make([]wire.Element, 0, len(args)-1)
	for _, a := range args[1:] {
		params = append(params, parseArg(a))
	}

	c, err := rpcclient.Dial(viper.GetString("addr"))
	if err != nil {
		return err
	}
	defer c.Close()

	results, fault, err := c.Execute(context.Background(), proc, params)
	if err != nil {
		return fmt.Errorf("executing %s: %w", proc, err)
	}
	if fault != nil {
		return fmt.Errorf("%s: remote fault: %s", proc, faultMessage(fault))
	}

	printResults(results)
	return nil
}

func printResults(results []wire.Element) {
	if len(results) == 0 {
		fmt.Println("(no results)")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "type", "value"})
	for i, r := range results {
		table.Append([]string{fmt.Sprintf("%d", i), r.Type().String(), formatElement(r)})
	}
	table.Render()
}
