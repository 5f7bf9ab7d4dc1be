package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete uploads older than --max-age",
		Long: "Delete uploads older than --max-age. The sweep lock is shared with the " +
			"server, so a pass already running elsewhere is skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-age") {
				maxAge = cfg.Storage.SweepMaxAge
			}

			store, err := ctx.storage()
			if err != nil {
				return err
			}
			result, err := store.Sweep(cmd.Context(), maxAge)
			if err != nil {
				return err
			}

			if ctx.wantJSON() {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if result.Skipped {
				fmt.Fprintln(out, "Sweep skipped: another sweep holds the lock")
				return nil
			}
			fmt.Fprintf(out, "Swept %s: removed %d of %d entries older than %s",
				store.Root(), result.Removed, result.Scanned, result.MaxAge)
			if result.Failed > 0 {
				fmt.Fprintf(out, " (%d failed)", result.Failed)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", time.Hour, "Remove files older than this (defaults to storage.sweep_max_age)")
	return cmd
}
