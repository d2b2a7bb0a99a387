package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/exitcodes"
)

func init() {
	var (
		flagInterval time.Duration
		flagMaxPolls int
		condFlags    conditionFlags
	)

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until an apply window opens",
		Long:  "Poll the readiness gate until every configured condition passes, the poll budget runs out, or the command is interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}

			cond := mergeConditions(d.Cfg.Conditions, condFlags, cmd.Flags().Changed)

			// Keep the network snapshot fresh while polling.
			d.Probe.Start()
			defer d.Probe.Stop()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if !flagQuiet && flagOutput != "json" {
				d.Printer.Info(fmt.Sprintf("waiting for apply window (up to %d polls, every %s)", flagMaxPolls, flagInterval))
			}

			opened := d.Gate.WaitForWindow(ctx, cond, flagInterval, flagMaxPolls)

			if flagOutput == "json" {
				d.Printer.JSON(map[string]any{"window_open": opened})
			}
			if !opened {
				record(d, "wait.timeout", nil)
				return exitcodes.PreconditionError("apply window did not open")
			}
			record(d, "wait.open", nil)
			if !flagQuiet && flagOutput != "json" {
				d.Printer.Success("apply window open")
			}
			return nil
		},
	}

	registerConditionFlags(cmd, &condFlags)
	cmd.Flags().DurationVar(&flagInterval, "interval", 30*time.Second, "Delay between readiness polls")
	cmd.Flags().IntVar(&flagMaxPolls, "max-polls", 20, "Give up after this many polls")
	rootCmd.AddCommand(cmd)
}
