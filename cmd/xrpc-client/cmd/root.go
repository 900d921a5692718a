// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	log "github.com/sandia-minimega/xrpc/pkg/minilog"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "xrpc-client",
	Short: "xrpc-client talks to an xrpc server",

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.LevelFromString(viper.GetString("log.level"))
		if err != nil {
			return fmt.Errorf("parsing log.level: %w", err)
		}
		log.AddLogger("stderr", os.Stderr, level, true)
		return nil
	},

	SilenceUsage: true,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "127.0.0.1:4444", "xrpc server address")
	rootCmd.PersistentFlags().String("log.level", "warn", "log level: debug, info, warn, error")
	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(attachCmd)
}

func initConfig() {
	viper.SetEnvPrefix("XRPC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}
