package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/cache"
	"github.com/fieldware/pkgcache/internal/download"
	"github.com/fieldware/pkgcache/internal/exitcodes"
	"github.com/fieldware/pkgcache/internal/gate"
	ui "github.com/fieldware/pkgcache/internal/ui"
)

// getPrinter returns a UI printer bound to the current --output flag.
func getPrinter() ui.Printer {
	p := ui.NewPrinter(flagOutput)
	if flagNoEmoji {
		p.Colors.EmojiEnabled = false
	}
	return p
}

// exitCodeFor maps engine errors to exit codes. Domain errors that do
// not carry an explicit code are classified by type: transport
// failures are network errors, cache write failures are I/O errors.
func exitCodeFor(err error) int {
	if err == nil {
		return exitcodes.Success
	}

	var ec *exitcodes.ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}

	var te *download.TransportError
	if errors.As(err, &te) {
		return exitcodes.NetworkError
	}
	var ie *download.IncompleteDataError
	if errors.As(err, &ie) {
		return exitcodes.NetworkError
	}
	var ioErr *cache.IOError
	if errors.As(err, &ioErr) {
		return exitcodes.IOError
	}

	return exitcodes.GeneralError
}

// conditionFlags is the set of per-command overrides for the apply
// policy. Only flags the user actually set replace config values.
type conditionFlags struct {
	requireNetwork  bool
	requireUnmeter  bool
	requireCharging bool
	minBattery      float64
	allowLowPower   bool
	idleOnly        bool
}

// mergeConditions layers explicitly changed flags over the configured
// policy. changed reports whether the named flag was set on the
// command line.
func mergeConditions(base gate.Conditions, f conditionFlags, changed func(name string) bool) gate.Conditions {
	if changed("require-network") {
		base.RequiresNetwork = f.requireNetwork
	}
	if changed("require-unmetered") {
		base.RequiresUnmetered = f.requireUnmeter
	}
	if changed("require-charging") {
		base.RequiresCharging = f.requireCharging
	}
	if changed("min-battery") {
		base.MinBatteryLevel = f.minBattery
	}
	if changed("allow-low-power") {
		base.AllowLowPower = f.allowLowPower
	}
	if changed("idle-only") {
		base.IdleOnly = f.idleOnly
	}
	return base
}

// registerConditionFlags declares the shared policy-override flags on
// a command.
func registerConditionFlags(cmd *cobra.Command, f *conditionFlags) {
	fs := cmd.Flags()
	fs.BoolVar(&f.requireNetwork, "require-network", true, "Require a reachable network")
	fs.BoolVar(&f.requireUnmeter, "require-unmetered", true, "Require an unmetered network")
	fs.BoolVar(&f.requireCharging, "require-charging", false, "Require external power")
	fs.Float64Var(&f.minBattery, "min-battery", 0.2, "Minimum battery fraction (0..1)")
	fs.BoolVar(&f.allowLowPower, "allow-low-power", false, "Allow apply in low-power mode")
	fs.BoolVar(&f.idleOnly, "idle-only", false, "Only apply while the device is idle")
}

// record appends a journal event, never failing the command over it.
func record(d *Deps, event string, fields map[string]string) {
	if err := d.Journal.Record(event, fields); err != nil && !flagQuiet {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "journal: %v\n", err)
	}
}
