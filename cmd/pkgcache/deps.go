package main

import (
	"time"

	"github.com/fieldware/pkgcache/internal/cache"
	"github.com/fieldware/pkgcache/internal/config"
	"github.com/fieldware/pkgcache/internal/device"
	"github.com/fieldware/pkgcache/internal/download"
	"github.com/fieldware/pkgcache/internal/feed"
	"github.com/fieldware/pkgcache/internal/gate"
	"github.com/fieldware/pkgcache/internal/journal"
	"github.com/fieldware/pkgcache/internal/netprobe"
	"github.com/fieldware/pkgcache/internal/retention"
	ui "github.com/fieldware/pkgcache/internal/ui"
)

// Deps holds all injectable dependencies for command handlers.
type Deps struct {
	Cfg        config.Config
	Dir        *cache.Dir
	Downloader download.Service
	Enforcer   *retention.Enforcer
	Devices    device.Providers
	Probe      *netprobe.Probe
	Gate       *gate.Gate
	Feed       *feed.Client
	Journal    *journal.Journal
	Printer    ui.Printer
}

// newDeps creates production dependencies from the current flags and config.
func newDeps() (*Deps, error) {
	cfg, err := loadCfg()
	if err != nil {
		return nil, err
	}

	dir := cache.New(cfg.PackagesDir())
	devices := device.Host()
	probe := netprobe.New(30 * time.Second)

	return &Deps{
		Cfg:        cfg,
		Dir:        dir,
		Downloader: download.New(dir),
		Enforcer:   retention.New(dir),
		Devices:    devices,
		Probe:      probe,
		Gate:       gate.New(devices, probe),
		Feed:       feed.New(cfg.FeedURL),
		Journal:    journal.New(cfg.JournalPath()),
		Printer:    getPrinter(),
	}, nil
}
