// Package gate decides when device state permits applying a downloaded
// update. "Not ready" is a normal steady state, so the gate answers
// with booleans, never errors.
package gate

import (
	"context"
	"time"

	"github.com/fieldware/pkgcache/internal/device"
	"github.com/fieldware/pkgcache/internal/netprobe"
)

// Conditions declares the readiness policy for one apply attempt.
// Different callers use different policies: a forced update may ignore
// charging, a background one may demand everything.
type Conditions struct {
	RequiresNetwork   bool    `yaml:"requires_network"`
	RequiresUnmetered bool    `yaml:"requires_unmetered"`
	RequiresCharging  bool    `yaml:"requires_charging"`
	MinBatteryLevel   float64 `yaml:"min_battery_level"`
	AllowLowPower     bool    `yaml:"allow_low_power"`
	IdleOnly          bool    `yaml:"idle_only"`
}

// NetworkStater supplies the latest network snapshot.
type NetworkStater interface {
	State() netprobe.State
}

// Gate evaluates Conditions against the injected device probes and
// network snapshot.
type Gate struct {
	device  device.Providers
	network NetworkStater
}

// New builds a gate over the given probes.
func New(d device.Providers, n NetworkStater) *Gate {
	return &Gate{device: d, network: n}
}

// CanApply reports whether every check in cond passes right now. The
// checks short-circuit in a fixed order, cheapest and most likely to
// fail first: idle, low power, battery, charging, network.
func (g *Gate) CanApply(cond Conditions) bool {
	if cond.IdleOnly && !g.device.Idle() {
		return false
	}
	if !cond.AllowLowPower && g.device.LowPower() {
		return false
	}
	// A negative battery level means no reading is available; unknown
	// battery state never blocks.
	if level := g.device.Battery(); level >= 0 && level < cond.MinBatteryLevel {
		return false
	}
	if cond.RequiresCharging && !g.device.IsCharging() {
		return false
	}
	if cond.RequiresNetwork {
		st := g.network.State()
		if !st.Reachable {
			return false
		}
		if cond.RequiresUnmetered && st.Metered() {
			return false
		}
	}
	return true
}

// WaitForWindow polls CanApply up to maxPolls times, sleeping interval
// between attempts. It returns true as soon as a poll passes and false
// once attempts are exhausted or ctx is cancelled. Timeout is an
// expected outcome, not an error.
func (g *Gate) WaitForWindow(ctx context.Context, cond Conditions, interval time.Duration, maxPolls int) bool {
	if maxPolls <= 0 {
		return false
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for i := 0; i < maxPolls; i++ {
		if g.CanApply(cond) {
			return true
		}
		if i == maxPolls-1 {
			break
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}
	}
	return false
}
