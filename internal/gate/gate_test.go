package gate

import (
	"context"
	"testing"
	"time"

	"github.com/fieldware/pkgcache/internal/device"
	"github.com/fieldware/pkgcache/internal/netprobe"
)

// staticNet is a fixed network snapshot.
type staticNet struct{ st netprobe.State }

func (s staticNet) State() netprobe.State { return s.st }

func onlineUnmetered() staticNet {
	return staticNet{st: netprobe.State{Reachable: true}}
}

func TestCanApply(t *testing.T) {
	all := Conditions{
		RequiresNetwork:   true,
		RequiresUnmetered: true,
		RequiresCharging:  true,
		MinBatteryLevel:   0.5,
		AllowLowPower:     false,
		IdleOnly:          true,
	}
	ready := device.Static(true, 0.9, true, false)

	tests := []struct {
		name string
		cond Conditions
		dev  device.Providers
		net  NetworkStater
		want bool
	}{
		{name: "AllSatisfied", cond: all, dev: ready, net: onlineUnmetered(), want: true},
		{name: "NotIdle", cond: all, dev: device.Static(false, 0.9, true, false), net: onlineUnmetered(), want: false},
		{name: "LowPowerBlocked", cond: all, dev: device.Static(true, 0.9, true, true), net: onlineUnmetered(), want: false},
		{
			name: "LowPowerAllowed",
			cond: Conditions{AllowLowPower: true},
			dev:  device.Static(true, 0.9, true, true),
			net:  onlineUnmetered(),
			want: true,
		},
		{name: "BatteryBelowThreshold", cond: all, dev: device.Static(true, 0.3, true, false), net: onlineUnmetered(), want: false},
		{name: "NotCharging", cond: all, dev: device.Static(true, 0.9, false, false), net: onlineUnmetered(), want: false},
		{
			name: "NetworkUnreachable",
			cond: all,
			dev:  ready,
			net:  staticNet{},
			want: false,
		},
		{
			name: "MeteredBlockedWhenUnmeteredRequired",
			cond: all,
			dev:  ready,
			net:  staticNet{st: netprobe.State{Reachable: true, Expensive: true}},
			want: false,
		},
		{
			name: "ConstrainedCountsAsMetered",
			cond: all,
			dev:  ready,
			net:  staticNet{st: netprobe.State{Reachable: true, Constrained: true}},
			want: false,
		},
		{
			name: "MeteredAllowedWithoutUnmetered",
			cond: Conditions{RequiresNetwork: true},
			dev:  ready,
			net:  staticNet{st: netprobe.State{Reachable: true, Expensive: true}},
			want: true,
		},
		{
			name: "NoConditions",
			cond: Conditions{},
			dev:  device.Static(false, 0, false, false),
			net:  staticNet{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.dev, tt.net)
			if got := g.CanApply(tt.cond); got != tt.want {
				t.Errorf("CanApply = %v, want %v", got, tt.want)
			}
		})
	}
}

// Idle dominates everything: with a non-idle device the verdict is
// false no matter what the other probes say, and flipping only idle
// flips the verdict.
func TestIdleShortCircuit(t *testing.T) {
	cond := Conditions{IdleOnly: true, RequiresCharging: true, MinBatteryLevel: 0.5}

	batteryCalls := 0
	dev := device.Providers{
		IdleState:    func() bool { return false },
		BatteryLevel: func() float64 { batteryCalls++; return 0.9 },
		Charging:     func() bool { return true },
	}
	g := New(dev, onlineUnmetered())
	if g.CanApply(cond) {
		t.Error("CanApply = true with non-idle device")
	}
	if batteryCalls != 0 {
		t.Errorf("battery probed %d times despite idle short-circuit", batteryCalls)
	}

	dev.IdleState = func() bool { return true }
	if !New(dev, onlineUnmetered()).CanApply(cond) {
		t.Error("CanApply = false after flipping only idle")
	}
}

func TestUnknownBatteryNeverBlocks(t *testing.T) {
	// Even an absurd threshold passes when the level is the -1
	// unknown sentinel.
	cond := Conditions{MinBatteryLevel: 0.99}
	dev := device.Static(true, -1, false, false)
	if !New(dev, staticNet{}).CanApply(cond) {
		t.Error("unknown battery level blocked the gate")
	}

	// Exactly zero is a concrete reading and must block.
	dev = device.Static(true, 0, false, false)
	if New(dev, staticNet{}).CanApply(cond) {
		t.Error("zero battery level passed a 0.99 threshold")
	}
}

func TestWaitForWindowPollExhaustion(t *testing.T) {
	polls := 0
	dev := device.Providers{
		IdleState: func() bool { polls++; return false },
	}
	g := New(dev, staticNet{})

	start := time.Now()
	ok := g.WaitForWindow(context.Background(), Conditions{IdleOnly: true}, time.Millisecond, 5)
	if ok {
		t.Error("WaitForWindow = true with never-ready provider")
	}
	if polls != 5 {
		t.Errorf("polled %d times, want exactly 5", polls)
	}
	// Four sleeps between five polls.
	if elapsed := time.Since(start); elapsed < 4*time.Millisecond {
		t.Errorf("returned after %v, should have slept between polls", elapsed)
	}
}

func TestWaitForWindowSucceedsMidway(t *testing.T) {
	polls := 0
	dev := device.Providers{
		IdleState: func() bool { polls++; return polls >= 3 },
	}
	g := New(dev, staticNet{})

	if !g.WaitForWindow(context.Background(), Conditions{IdleOnly: true}, time.Millisecond, 10) {
		t.Error("WaitForWindow = false, want true on third poll")
	}
	if polls != 3 {
		t.Errorf("polled %d times, want 3", polls)
	}
}

func TestWaitForWindowCancellation(t *testing.T) {
	dev := device.Providers{IdleState: func() bool { return false }}
	g := New(dev, staticNet{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	ok := g.WaitForWindow(ctx, Conditions{IdleOnly: true}, time.Hour, 100)
	if ok {
		t.Error("WaitForWindow = true after cancellation")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not interrupt the poll sleep")
	}
}

func TestWaitForWindowZeroPolls(t *testing.T) {
	g := New(device.Static(true, 1, true, false), onlineUnmetered())
	if g.WaitForWindow(context.Background(), Conditions{}, time.Millisecond, 0) {
		t.Error("WaitForWindow = true with zero polls")
	}
}
