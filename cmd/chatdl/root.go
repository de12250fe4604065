package main

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatdl",
		Short: "Rule-driven Telegram media downloader",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file path (default ./config.toml)")
	cmd.AddCommand(newRunCmd())
	return cmd
}
