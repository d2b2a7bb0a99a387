// Package watch renders a live terminal view of the update engine:
// device probes, network state, cache contents, and the apply verdict,
// refreshed on a fixed tick.
package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fieldware/pkgcache/internal/cache"
	"github.com/fieldware/pkgcache/internal/device"
	"github.com/fieldware/pkgcache/internal/gate"
	"github.com/fieldware/pkgcache/internal/netprobe"
)

// keyMap defines keyboard shortcuts
type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
	}
}

// tickCmd returns a command that sends a tick message after interval
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the watch screen Bubble Tea model.
type Model struct {
	opts     Options
	dir      *cache.Dir
	gate     *gate.Gate
	probe    *netprobe.Probe
	devices  device.Providers
	registry *ComponentRegistry
	keys     keyMap
	spinner  spinner.Model
	snap     Snapshot
	width    int
	height   int
	loading  bool
}

// New builds a watch model over the given probes and cache.
func New(opts Options, dir *cache.Dir, g *gate.Gate, p *netprobe.Probe, d device.Providers) *Model {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 1 * time.Second
	}

	registry := NewComponentRegistry()
	registry.Register(NewDevicePanel(opts.NoEmoji))
	registry.Register(NewNetworkPanel(opts.NoEmoji))
	registry.Register(NewCachePanel(opts.NoEmoji))

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Model{
		opts:     opts,
		dir:      dir,
		gate:     g,
		probe:    p,
		devices:  d,
		registry: registry,
		keys:     newKeyMap(),
		spinner:  s,
		loading:  true,
	}
}

// collectCmd gathers one snapshot off the UI thread.
func (m *Model) collectCmd() tea.Cmd {
	return func() tea.Msg {
		snap := Snapshot{
			Idle:       m.devices.Idle(),
			Battery:    m.devices.Battery(),
			Charging:   m.devices.IsCharging(),
			LowPower:   m.devices.LowPower(),
			Network:    m.probe.State(),
			Conditions: m.opts.Conditions,
			CanApply:   m.gate.CanApply(m.opts.Conditions),
			LastUpdate: time.Now(),
		}
		pkgs, err := m.dir.List()
		if err != nil {
			snap.CacheErr = err
		} else {
			snap.Packages = pkgs
			for _, p := range pkgs {
				snap.TotalBytes += p.Size
			}
		}
		return dataMsg(snap)
	}
}

// Init starts the spinner, the first collection, and the tick loop.
func (m *Model) Init() tea.Cmd {
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return tea.Batch(
		m.spinner.Tick,
		m.collectCmd(),
		tickCmd(m.opts.RefreshInterval),
	)
}

// Update handles messages (Bubble Tea lifecycle)
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, func() tea.Msg { return forceRefreshMsg{} }
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		// Only tickMsg schedules the next tick (prevents double ticker)
		return m, tea.Batch(tickCmd(m.opts.RefreshInterval), m.collectCmd())

	case forceRefreshMsg:
		return m, m.collectCmd()

	case dataMsg:
		m.snap = Snapshot(msg)
		m.loading = false
		cmds := m.registry.UpdateAll(msg, m.snap)
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the full screen (Bubble Tea lifecycle)
func (m *Model) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s collecting state…\n", m.spinner.View())
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	half := width / 2

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.registry.Get("device").View(half, 8),
		m.registry.Get("network").View(width-half, 8),
	)
	bottom := m.registry.Get("cache").View(width, 12)

	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(fmt.Sprintf("  q quit · r refresh · updated %s",
			m.snap.LastUpdate.Format("15:04:05")))

	return lipgloss.JoinVertical(lipgloss.Left, top, bottom, footer)
}

// Run starts the watch screen and blocks until the user quits.
func Run(opts Options, dir *cache.Dir, g *gate.Gate, p *netprobe.Probe, d device.Providers) error {
	prog := tea.NewProgram(New(opts, dir, g, p, d), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("watch ui: %w", err)
	}
	return nil
}
