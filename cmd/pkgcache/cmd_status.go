package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldware/pkgcache/internal/exitcodes"
	ui "github.com/fieldware/pkgcache/internal/ui"
)

// statusResult is the one-shot engine snapshot shown by `status`.
type statusResult struct {
	Idle     bool    `json:"idle"`
	Battery  float64 `json:"battery"`
	Charging bool    `json:"charging"`
	LowPower bool    `json:"low_power"`

	NetworkReachable   bool `json:"network_reachable"`
	NetworkExpensive   bool `json:"network_expensive"`
	NetworkConstrained bool `json:"network_constrained"`

	Packages   int   `json:"packages"`
	TotalBytes int64 `json:"total_bytes"`

	CanApply bool   `json:"can_apply"`
	Error    string `json:"error,omitempty"`
}

func init() {
	var flagStrict bool
	var condFlags conditionFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show device, network, and cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}

			// One-shot probe: refresh once rather than starting the
			// background loop.
			d.Probe.Refresh()
			st := d.Probe.State()

			cond := mergeConditions(d.Cfg.Conditions, condFlags, cmd.Flags().Changed)

			res := statusResult{
				Idle:               d.Devices.Idle(),
				Battery:            d.Devices.Battery(),
				Charging:           d.Devices.IsCharging(),
				LowPower:           d.Devices.LowPower(),
				NetworkReachable:   st.Reachable,
				NetworkExpensive:   st.Expensive,
				NetworkConstrained: st.Constrained,
				CanApply:           d.Gate.CanApply(cond),
			}
			if pkgs, err := d.Dir.List(); err != nil {
				res.Error = err.Error()
			} else {
				res.Packages = len(pkgs)
				for _, p := range pkgs {
					res.TotalBytes += p.Size
				}
			}

			if flagOutput == "json" {
				d.Printer.JSON(res)
			} else if flagQuiet {
				d.Printer.Textf("can_apply=%v reachable=%v metered=%v packages=%d\n",
					res.CanApply, res.NetworkReachable, st.Metered(), res.Packages)
			} else {
				printStatusText(d.Printer, res, st.Metered())
			}

			if flagStrict && !res.CanApply {
				return exitcodes.PreconditionError("apply window closed")
			}
			return nil
		},
	}

	registerConditionFlags(cmd, &condFlags)
	cmd.Flags().BoolVar(&flagStrict, "strict", false, "Exit non-zero when the apply window is closed")
	rootCmd.AddCommand(cmd)
}

func printStatusText(p ui.Printer, res statusResult, metered bool) {
	p.Section("Device")
	p.KeyValueLine("Idle", yesNo(res.Idle), "")
	battery := "unknown"
	if res.Battery >= 0 {
		battery = fmt.Sprintf("%.0f%%", res.Battery*100)
	}
	p.KeyValueLine("Battery", battery, "")
	p.KeyValueLine("Charging", yesNo(res.Charging), "")
	if res.LowPower {
		p.KeyValueLine("Low power", "yes", "yellow")
	}

	p.Section("Network")
	p.KeyValueLine("Reachable", yesNo(res.NetworkReachable), "")
	p.KeyValueLine("Metered", yesNo(metered), "")

	p.Section("Cache")
	p.KeyValueLine("Packages", fmt.Sprintf("%d", res.Packages), "")
	p.KeyValueLine("Size", ui.FormatBytes(res.TotalBytes), "")
	if res.Error != "" {
		p.KeyValueLine("Error", res.Error, "yellow")
	}

	fmt.Println()
	if res.CanApply {
		p.Success("ready to apply")
	} else {
		p.Warn("apply window closed")
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
