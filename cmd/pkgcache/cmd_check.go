package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/exitcodes"
	"github.com/fieldware/pkgcache/internal/feed"
)

func init() {
	var (
		flagCurrent   string
		flagNoCache   bool
		flagSubscribe bool
		flagTimeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the release feed for newer versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}

			current := flagCurrent
			if current == "" {
				// Newest cached package is the implicit current version.
				pkgs, err := d.Dir.List()
				if err == nil {
					for _, p := range pkgs {
						if current == "" || feed.IsNewer(current, p.Version) {
							current = p.Version
						}
					}
				}
			}

			// Serve a fresh-enough cached answer without touching the
			// network.
			if !flagNoCache && !flagSubscribe {
				if entry, err := feed.LoadCheckCache(d.Cfg.HomeDir); err == nil && feed.IsCheckCacheValid(entry) {
					avail := entry.UpdateAvailable &&
						(current == "" || feed.IsNewer(current, entry.LatestVersion))
					printCheck(d, current, entry.LatestVersion, avail, true)
					return nil
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
			defer cancel()

			res, err := d.Feed.Check(ctx, current)
			if err != nil {
				return exitcodes.WrapError(exitcodes.NetworkError, "feed check", err)
			}

			_ = feed.SaveCheckCache(d.Cfg.HomeDir, &feed.CheckEntry{
				CheckedAt:       time.Now(),
				LatestVersion:   res.LatestVersion,
				UpdateAvailable: res.UpdateAvailable,
			})
			record(d, "feed.check", map[string]string{
				"current": current,
				"latest":  res.LatestVersion,
			})

			printCheck(d, current, res.LatestVersion, res.UpdateAvailable, false)
			if flagSubscribe {
				return subscribeReleases(d, current)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagCurrent, "current", "", "Version to compare against (default: newest cached package)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Skip the check cache and query the feed")
	cmd.Flags().BoolVar(&flagSubscribe, "subscribe", false, "Stay connected and print release announcements as they are published")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 15*time.Second, "Feed request timeout")
	rootCmd.AddCommand(cmd)
}

func printCheck(d *Deps, current, latest string, updateAvailable, cached bool) {
	if flagOutput == "json" {
		d.Printer.JSON(map[string]any{
			"current_version":  current,
			"latest_version":   latest,
			"update_available": updateAvailable,
			"from_cache":       cached,
		})
		return
	}
	if updateAvailable {
		d.Printer.Warn(fmt.Sprintf("update available: %s → latest %s", orNone(current), latest))
		d.Printer.Textf("  run: pkgcache download %s\n", latest)
		return
	}
	if !flagQuiet {
		d.Printer.Success(fmt.Sprintf("up to date (%s)", orNone(current)))
	}
}

// subscribeReleases streams release announcements from the feed's
// websocket endpoint until interrupted, printing any version newer
// than current.
func subscribeReleases(d *Deps, current string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	releases, err := feed.Watch(ctx, d.Cfg.FeedWSURL)
	if err != nil {
		return exitcodes.WrapError(exitcodes.NetworkError, "subscribe to releases", err)
	}
	if !flagQuiet && flagOutput != "json" {
		d.Printer.Info("watching for release announcements (ctrl-c to stop)")
	}

	for rel := range releases {
		if current != "" && !feed.IsNewer(current, rel.Version) {
			continue
		}
		record(d, "feed.announce", map[string]string{"version": rel.Version})
		if flagOutput == "json" {
			d.Printer.JSON(map[string]any{
				"latest_version":   rel.Version,
				"update_available": true,
			})
			continue
		}
		d.Printer.Warn(fmt.Sprintf("new release: %s", rel.Version))
		d.Printer.Textf("  run: pkgcache download %s\n", rel.Version)
	}
	return nil
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
