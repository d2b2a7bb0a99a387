// Package netprobe observes the device's network reachability and cost
// characteristics. A background goroutine refreshes a snapshot on a
// fixed interval; readers always see a complete, immutable State value,
// never a half-updated one.
package netprobe

import (
	"strings"
	"sync"
	"time"

	gnet "github.com/shirou/gopsutil/v3/net"
)

// State is a point-in-time network snapshot. Expensive and Constrained
// together approximate "metered".
type State struct {
	Reachable   bool
	Expensive   bool
	Constrained bool
}

// Metered reports whether the current connectivity should be treated
// as metered.
func (s State) Metered() bool { return s.Expensive || s.Constrained }

// ScanFunc produces a fresh snapshot of the network state.
type ScanFunc func() (State, error)

// DefaultInterval is how often the background observer refreshes.
const DefaultInterval = 5 * time.Second

// Probe holds the latest network snapshot and optionally refreshes it
// in the background.
type Probe struct {
	scan     ScanFunc
	interval time.Duration

	mu      sync.RWMutex
	state   State
	running bool
	done    chan struct{}
}

// New creates a probe backed by the host interface scan.
func New(interval time.Duration) *Probe {
	return NewWith(hostScan, interval)
}

// NewWith creates a probe with an injected scan (for tests and hosts
// with platform reachability APIs).
func NewWith(scan ScanFunc, interval time.Duration) *Probe {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Probe{scan: scan, interval: interval, done: make(chan struct{})}
}

// State returns the latest snapshot.
func (p *Probe) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Refresh performs one synchronous scan and publishes the result. A
// scan failure keeps the previous snapshot.
func (p *Probe) Refresh() {
	st, err := p.scan()
	if err != nil {
		return
	}
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

// Start begins background refreshing. Safe to call more than once.
func (p *Probe) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.Refresh()
	go p.loop()
}

// Stop halts background refreshing.
func (p *Probe) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	select {
	case p.done <- struct{}{}:
	default:
	}
}

func (p *Probe) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.Refresh()
		}
	}
}

// meteredPrefixes mark interface names that usually ride a cellular
// or point-to-point link.
var meteredPrefixes = []string{"wwan", "wwp", "rmnet", "ppp", "usb"}

func hostScan() (State, error) {
	ifaces, err := gnet.Interfaces()
	if err != nil {
		return State{}, err
	}
	return classify(ifaces), nil
}

// classify derives a State from the interface table: reachable when
// any non-loopback interface is up with an address, expensive when
// every such interface looks metered.
func classify(ifaces []gnet.InterfaceStat) State {
	reachable := false
	allMetered := true
	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		if len(iface.Addrs) == 0 {
			continue
		}
		reachable = true
		if !isMeteredName(iface.Name) {
			allMetered = false
		}
	}
	return State{
		Reachable: reachable,
		Expensive: reachable && allMetered,
	}
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

func isMeteredName(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range meteredPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
