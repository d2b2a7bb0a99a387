package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/exitcodes"
	ui "github.com/fieldware/pkgcache/internal/ui"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached package versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}

			pkgs, err := d.Dir.List()
			if err != nil {
				return exitcodes.WrapError(exitcodes.IOError, "list cache", err)
			}

			if flagOutput == "json" {
				type row struct {
					Version string `json:"version"`
					Size    int64  `json:"size"`
					ModTime string `json:"mod_time"`
				}
				rows := make([]row, 0, len(pkgs))
				var total int64
				for _, p := range pkgs {
					rows = append(rows, row{Version: p.Version, Size: p.Size, ModTime: p.ModTime.Format("2006-01-02T15:04:05Z07:00")})
					total = total + p.Size
				}
				d.Printer.JSON(map[string]any{"packages": rows, "total_bytes": total})
				return nil
			}

			if len(pkgs) == 0 {
				if !flagQuiet {
					d.Printer.Info("cache is empty")
				}
				return nil
			}

			var total int64
			for _, p := range pkgs {
				total += p.Size
				d.Printer.Textf("%-16s %10s  %s\n", p.Version, ui.FormatBytes(p.Size), p.ModTime.Format("2006-01-02 15:04"))
			}
			if !flagQuiet {
				d.Printer.Textf("%d packages, %s\n", len(pkgs), ui.FormatBytes(total))
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
