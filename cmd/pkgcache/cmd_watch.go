package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/watch"
)

func init() {
	var (
		flagRefresh time.Duration
		condFlags   conditionFlags
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of device, network, and cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}

			cond := mergeConditions(d.Cfg.Conditions, condFlags, cmd.Flags().Changed)

			d.Probe.Start()
			defer d.Probe.Stop()

			return watch.Run(watch.Options{
				Conditions:      cond,
				RefreshInterval: flagRefresh,
				NoEmoji:         flagNoEmoji,
			}, d.Dir, d.Gate, d.Probe, d.Devices)
		},
	}

	registerConditionFlags(cmd, &condFlags)
	cmd.Flags().DurationVar(&flagRefresh, "refresh", time.Second, "Refresh interval")
	rootCmd.AddCommand(cmd)
}
