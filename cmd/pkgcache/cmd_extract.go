package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/archive"
	"github.com/fieldware/pkgcache/internal/checksum"
	"github.com/fieldware/pkgcache/internal/exitcodes"
)

func init() {
	var (
		flagDest     string
		flagNoVerify bool
	)

	cmd := &cobra.Command{
		Use:   "extract <version>",
		Short: "Unpack a verified package into the staging directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := args[0]
			d, err := newDeps()
			if err != nil {
				return err
			}

			final := d.Dir.FinalPath(version)
			if _, err := os.Stat(final); err != nil {
				return exitcodes.PreconditionErrorf("package %s is not in the cache", version)
			}

			// Never unpack bytes the manifest does not vouch for.
			if !flagNoVerify {
				chunks, err := checksum.ReadManifest(d.Dir.ManifestPath(version))
				if err != nil {
					return exitcodes.WrapError(exitcodes.PreconditionFailed,
						fmt.Sprintf("no checksum manifest for %s", version), err)
				}
				if err := checksum.VerifyFile(final, chunks, d.Cfg.ChunkSizeBytes); err != nil {
					return exitcodes.WrapError(exitcodes.ValidationError,
						fmt.Sprintf("package %s failed verification", version), err)
				}
			}

			dest := flagDest
			if dest == "" {
				dest = filepath.Join(d.Cfg.StagingDir(), version)
			}

			var entries int64
			err = archive.ExtractStaging(final, dest, func(current, total int64, name string) {
				entries = current
			})
			if err != nil {
				record(d, "extract.failed", map[string]string{"version": version, "error": err.Error()})
				return exitcodes.WrapError(exitcodes.IOError,
					fmt.Sprintf("extract %s", version), err)
			}

			record(d, "extract.complete", map[string]string{
				"version": version,
				"dest":    dest,
				"entries": strconv.FormatInt(entries, 10),
			})
			if flagOutput == "json" {
				d.Printer.JSON(map[string]any{"ok": true, "version": version, "dest": dest, "entries": entries})
				return nil
			}
			if !flagQuiet {
				d.Printer.Success(fmt.Sprintf("extracted %s to %s", version, dest))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagDest, "dest", "", "Destination directory (default <home>/staging/<version>)")
	cmd.Flags().BoolVar(&flagNoVerify, "no-verify", false, "Skip checksum verification before extracting")
	rootCmd.AddCommand(cmd)
}
