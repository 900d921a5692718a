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

var (
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "xrpc-server",
	Short: "xrpc-server hosts an xrpc RPC server",

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.LevelFromString(viper.GetString("log.level"))
		if err != nil {
			return fmt.Errorf("parsing log.level: %w", err)
		}

		log.AddLogger("stderr", os.Stderr, level, true)

		if f := viper.GetString("log.file"); f != "" {
			w, err := os.OpenFile(f, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("opening log.file: %w", err)
			}
			log.AddLogger("file", w, level, false)
		}

		return nil
	},

	SilenceUsage: true,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log.level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log.file", "", "append log output to this file in addition to stderr")
	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	viper.SetConfigName("xrpc-server")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/xrpc")

	viper.SetEnvPrefix("XRPC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("using config file:", viper.ConfigFileUsed())
	}
}
