package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/checksum"
	"github.com/fieldware/pkgcache/internal/exitcodes"
)

func init() {
	var flagChunkSize int64

	cmd := &cobra.Command{
		Use:   "verify <version>",
		Short: "Re-verify a cached package against its checksum manifest",
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

			chunks, err := checksum.ReadManifest(d.Dir.ManifestPath(version))
			if err != nil {
				return exitcodes.WrapError(exitcodes.PreconditionFailed,
					fmt.Sprintf("no checksum manifest for %s", version), err)
			}

			chunkSize := flagChunkSize
			if chunkSize == 0 {
				chunkSize = d.Cfg.ChunkSizeBytes
			}

			if err := checksum.VerifyFile(final, chunks, chunkSize); err != nil {
				record(d, "verify.failed", map[string]string{"version": version, "error": err.Error()})
				return exitcodes.WrapError(exitcodes.ValidationError,
					fmt.Sprintf("package %s failed verification", version), err)
			}

			record(d, "verify.ok", map[string]string{"version": version})
			if flagOutput == "json" {
				d.Printer.JSON(map[string]any{"ok": true, "version": version, "chunks": len(chunks)})
				return nil
			}
			if !flagQuiet {
				d.Printer.Success(fmt.Sprintf("%s verified (%d chunks)", version, len(chunks)))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&flagChunkSize, "chunk-size", 0, "Chunk size the manifest was built with (default from config)")
	rootCmd.AddCommand(cmd)
}
