// Package device exposes the pluggable device-state probes the update
// gate consults: idle state, battery level, charging state, and
// low-power mode. The engine never touches platform APIs directly; a
// host wires real probes in, tests supply static ones.
package device

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
)

// Providers is the injectable probe set. A nil probe reports a
// permissive default: idle true, battery unknown (-1), low-power off.
// Charging is the exception: unknown means not charging, so a policy
// that requires charging stays conservative.
type Providers struct {
	// IdleState reports whether the device is idle enough to apply an
	// update.
	IdleState func() bool
	// BatteryLevel reports the charge fraction in 0..1, or a negative
	// value when no battery reading is available.
	BatteryLevel func() float64
	// Charging reports whether external power is connected.
	Charging func() bool
	// LowPowerMode reports whether the host is in a power-saving mode.
	LowPowerMode func() bool
}

// Idle resolves the idle probe with its permissive default.
func (p Providers) Idle() bool {
	if p.IdleState == nil {
		return true
	}
	return p.IdleState()
}

// Battery resolves the battery probe; -1 means unknown.
func (p Providers) Battery() float64 {
	if p.BatteryLevel == nil {
		return -1
	}
	return p.BatteryLevel()
}

// IsCharging resolves the charging probe; unknown reads as false.
func (p Providers) IsCharging() bool {
	if p.Charging == nil {
		return false
	}
	return p.Charging()
}

// LowPower resolves the low-power probe; unknown reads as false.
func (p Providers) LowPower() bool {
	if p.LowPowerMode == nil {
		return false
	}
	return p.LowPowerMode()
}

// Static returns a provider set with fixed values, for tests and
// server hosts with no meaningful device state.
func Static(idle bool, battery float64, charging, lowPower bool) Providers {
	return Providers{
		IdleState:    func() bool { return idle },
		BatteryLevel: func() float64 { return battery },
		Charging:     func() bool { return charging },
		LowPowerMode: func() bool { return lowPower },
	}
}

const powerSupplyRoot = "/sys/class/power_supply"

// idleLoadPerCPU is the 1-minute load average per logical CPU below
// which the host counts as idle.
const idleLoadPerCPU = 0.3

// Host returns the default probes for the local machine: load average
// for idleness, the power-supply sysfs tree for battery and charging,
// and the cpufreq governor for low-power mode. Every probe degrades to
// its unknown value when the platform offers no reading.
func Host() Providers {
	return Providers{
		IdleState:    hostIdle,
		BatteryLevel: func() float64 { return batteryLevel(powerSupplyRoot) },
		Charging:     func() bool { return charging(powerSupplyRoot) },
		LowPowerMode: hostLowPower,
	}
}

func hostIdle() bool {
	avg, err := load.Avg()
	if err != nil {
		return true
	}
	cpus, err := cpu.Counts(true)
	if err != nil || cpus <= 0 {
		cpus = 1
	}
	return avg.Load1 < idleLoadPerCPU*float64(cpus)
}

// batteryLevel scans the power-supply tree for a battery and returns
// its charge as a 0..1 fraction, or -1 when none is found. The -1
// sentinel matters: the gate treats unknown battery as never-blocking.
func batteryLevel(root string) float64 {
	entries, err := os.ReadDir(root)
	if err != nil {
		return -1
	}
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		if readSysfs(dir, "type") != "Battery" {
			continue
		}
		capStr := readSysfs(dir, "capacity")
		if capStr == "" {
			continue
		}
		pct, err := strconv.ParseFloat(capStr, 64)
		if err != nil || pct < 0 {
			continue
		}
		if pct > 100 {
			pct = 100
		}
		return pct / 100
	}
	return -1
}

// charging reports true when a battery is charging or full, or when
// any AC supply is online.
func charging(root string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		switch readSysfs(dir, "type") {
		case "Battery":
			status := readSysfs(dir, "status")
			if status == "Charging" || status == "Full" {
				return true
			}
		case "Mains", "USB":
			if readSysfs(dir, "online") == "1" {
				return true
			}
		}
	}
	return false
}

func hostLowPower() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	return readSysfs("/sys/devices/system/cpu/cpu0/cpufreq", "scaling_governor") == "powersave"
}

func readSysfs(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
