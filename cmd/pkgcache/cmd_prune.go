package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/exitcodes"
	ui "github.com/fieldware/pkgcache/internal/ui"
)

func init() {
	var (
		flagMaxVersions   int
		flagMaxTotalBytes int64
		flagMinFreeBytes  uint64
		flagDryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Apply the retention policy to the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}

			policy := d.Cfg.Retention
			if cmd.Flags().Changed("max-versions") {
				policy.MaxVersions = flagMaxVersions
			}
			if cmd.Flags().Changed("max-total-bytes") {
				policy.MaxTotalBytes = flagMaxTotalBytes
			}
			if cmd.Flags().Changed("min-free-bytes") {
				policy.MinFreeBytes = flagMinFreeBytes
			}

			if flagDryRun {
				// Report what the policy would keep without deleting.
				pkgs, err := d.Dir.List()
				if err != nil {
					return exitcodes.WrapError(exitcodes.IOError, "list cache", err)
				}
				if flagOutput == "json" {
					d.Printer.JSON(map[string]any{"packages": len(pkgs), "policy": policy})
					return nil
				}
				d.Printer.Info(fmt.Sprintf("%d packages cached; policy: max %d versions, max %s total, %s free floor",
					len(pkgs), policy.MaxVersions, ui.FormatBytes(policy.MaxTotalBytes), ui.FormatBytes(int64(policy.MinFreeBytes))))
				return nil
			}

			res, err := d.Enforcer.Enforce(policy)
			if err != nil {
				return exitcodes.WrapError(exitcodes.IOError, "enforce retention", err)
			}
			for _, p := range res.Deleted {
				record(d, "retention.evict", map[string]string{"version": p.Version})
			}

			if flagOutput == "json" {
				deleted := make([]string, 0, len(res.Deleted))
				for _, p := range res.Deleted {
					deleted = append(deleted, p.Version)
				}
				d.Printer.JSON(map[string]any{"deleted": deleted, "kept": res.Kept})
				return nil
			}
			if len(res.Deleted) == 0 {
				if !flagQuiet {
					d.Printer.Info(fmt.Sprintf("nothing to prune (%d packages kept)", res.Kept))
				}
				return nil
			}
			for _, p := range res.Deleted {
				d.Printer.Textf("evicted %s (%s)\n", p.Version, ui.FormatBytes(p.Size))
			}
			if !flagQuiet {
				d.Printer.Success(fmt.Sprintf("pruned %d packages, %d kept", len(res.Deleted), res.Kept))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flagMaxVersions, "max-versions", 0, "Keep at most N newest packages (0 = unlimited)")
	cmd.Flags().Int64Var(&flagMaxTotalBytes, "max-total-bytes", 0, "Cap total cache size in bytes (0 = unlimited)")
	cmd.Flags().Uint64Var(&flagMinFreeBytes, "min-free-bytes", 0, "Evict until this much disk is free (0 = disabled)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Show the policy and cache size without deleting")
	rootCmd.AddCommand(cmd)
}
