package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/download"
	"github.com/fieldware/pkgcache/internal/exitcodes"
	ui "github.com/fieldware/pkgcache/internal/ui"
)

func init() {
	var (
		flagURL          string
		flagExpectedSize int64
		flagChunkSize    int64
		flagPrune        bool
	)

	cmd := &cobra.Command{
		Use:   "download <version>",
		Short: "Fetch a package into the cache, resuming any partial file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := args[0]
			d, err := newDeps()
			if err != nil {
				return err
			}

			url := flagURL
			if url == "" {
				url = fmt.Sprintf("%s/packages/%s.pkg", d.Cfg.FeedURL, version)
			}

			chunkSize := flagChunkSize
			if chunkSize == 0 {
				chunkSize = d.Cfg.ChunkSizeBytes
			}

			// Ctrl+C cancels the transfer; the partial file stays
			// resumable on disk.
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			var bar *ui.ProgressBar
			progress := func(p download.Progress) {
				if flagQuiet || flagOutput == "json" {
					return
				}
				if bar == nil {
					bar = ui.NewProgressBar(os.Stdout, p.TotalBytesExpected)
				}
				bar.Update(p.BytesReceived)
			}

			record(d, "download.start", map[string]string{"version": version, "url": url})

			res, err := d.Downloader.Download(ctx, download.Options{
				Version:            version,
				SourceURL:          url,
				ExpectedTotalBytes: flagExpectedSize,
				ChunkSize:          chunkSize,
				Progress:           progress,
			})
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				record(d, "download.failed", map[string]string{"version": version, "error": err.Error()})
				return err
			}

			record(d, "download.complete", map[string]string{
				"version": version,
				"bytes":   strconv.FormatInt(res.TotalBytes, 10),
				"chunks":  strconv.Itoa(len(res.ChecksumChunks)),
			})

			if flagPrune {
				pruned, err := d.Enforcer.Enforce(d.Cfg.Retention)
				if err != nil {
					return exitcodes.WrapError(exitcodes.IOError, "prune after download", err)
				}
				for _, p := range pruned.Deleted {
					record(d, "retention.evict", map[string]string{"version": p.Version})
				}
			}

			if flagOutput == "json" {
				d.Printer.JSON(map[string]any{
					"ok":      true,
					"version": version,
					"path":    res.Path,
					"bytes":   res.TotalBytes,
					"chunks":  len(res.ChecksumChunks),
				})
				return nil
			}
			if !flagQuiet {
				d.Printer.Success(fmt.Sprintf("downloaded %s (%s, %d chunks)",
					version, ui.FormatBytes(res.TotalBytes), len(res.ChecksumChunks)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagURL, "url", "", "Source URL (default <feed>/packages/<version>.pkg)")
	cmd.Flags().Int64Var(&flagExpectedSize, "expected-size", 0, "Expected total bytes when the server reports no length")
	cmd.Flags().Int64Var(&flagChunkSize, "chunk-size", 0, "Checksum chunk size in bytes (default from config)")
	cmd.Flags().BoolVar(&flagPrune, "prune", false, "Apply the retention policy after a successful download")
	rootCmd.AddCommand(cmd)
}
