package main

import (
	"github.com/spf13/cobra"
)

// api（サブコマンド無しはserve）
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()

	cmd := &cobra.Command{
		Use:          "api",
		Short:        "Fingerprint-guarded JWT auth service",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())

	return cmd
}
