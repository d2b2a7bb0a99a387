package watch

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fieldware/pkgcache/internal/ui"
)

// Icons used by the panels, with an ASCII fallback.
type Icons struct {
	OK   string
	Err  string
	Warn string
}

// NewIcons returns the icon set for the emoji setting
func NewIcons(noEmoji bool) Icons {
	if noEmoji {
		return Icons{OK: "[OK]", Err: "[--]", Warn: "[!!]"}
	}
	return Icons{OK: "✓", Err: "✗", Warn: "⚠"}
}

var panelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

// renderPanel applies the shared border style at the given width.
func renderPanel(content string, w int) string {
	// Account for border width (2 chars: left + right) to prevent overflow
	contentWidth := w - 2
	if contentWidth < 0 {
		contentWidth = 0
	}
	return panelStyle.Width(contentWidth).Render(content)
}

// DevicePanel shows the device probe readings against the policy.
type DevicePanel struct {
	BaseComponent
	snap  Snapshot
	icons Icons
}

func NewDevicePanel(noEmoji bool) *DevicePanel {
	return &DevicePanel{icons: NewIcons(noEmoji)}
}

func (c *DevicePanel) ID() string    { return "device" }
func (c *DevicePanel) Title() string { return "Device" }

func (c *DevicePanel) Update(msg tea.Msg, snap Snapshot) (Component, tea.Cmd) {
	c.snap = snap
	return c, nil
}

func (c *DevicePanel) View(w, h int) string {
	content := c.renderContent()
	if c.CheckCacheWithSize(content, w, h) {
		return c.GetCached()
	}
	rendered := renderPanel(content, w)
	c.UpdateCache(rendered)
	return rendered
}

func (c *DevicePanel) renderContent() string {
	var lines []string

	idleIcon := c.icons.Err
	if c.snap.Idle {
		idleIcon = c.icons.OK
	}
	lines = append(lines, fmt.Sprintf("%s Idle", idleIcon))

	battery := "unknown"
	if c.snap.Battery >= 0 {
		battery = fmt.Sprintf("%.0f%%", c.snap.Battery*100)
	}
	lines = append(lines, fmt.Sprintf("Battery: %s", battery))

	chargeIcon := c.icons.Err
	charge := "On battery"
	if c.snap.Charging {
		chargeIcon = c.icons.OK
		charge = "Charging"
	}
	lines = append(lines, fmt.Sprintf("%s %s", chargeIcon, charge))

	if c.snap.LowPower {
		lines = append(lines, fmt.Sprintf("%s Low-power mode", c.icons.Warn))
	}

	return c.Title() + "\n" + strings.Join(lines, "\n")
}

// NetworkPanel shows the latest network probe snapshot.
type NetworkPanel struct {
	BaseComponent
	snap  Snapshot
	icons Icons
}

func NewNetworkPanel(noEmoji bool) *NetworkPanel {
	return &NetworkPanel{icons: NewIcons(noEmoji)}
}

func (c *NetworkPanel) ID() string    { return "network" }
func (c *NetworkPanel) Title() string { return "Network" }

func (c *NetworkPanel) Update(msg tea.Msg, snap Snapshot) (Component, tea.Cmd) {
	c.snap = snap
	return c, nil
}

func (c *NetworkPanel) View(w, h int) string {
	content := c.renderContent()
	if c.CheckCacheWithSize(content, w, h) {
		return c.GetCached()
	}
	rendered := renderPanel(content, w)
	c.UpdateCache(rendered)
	return rendered
}

func (c *NetworkPanel) renderContent() string {
	var lines []string
	st := c.snap.Network

	reachIcon := c.icons.Err
	reach := "Unreachable"
	if st.Reachable {
		reachIcon = c.icons.OK
		reach = "Reachable"
	}
	lines = append(lines, fmt.Sprintf("%s %s", reachIcon, reach))

	if st.Expensive {
		lines = append(lines, fmt.Sprintf("%s Expensive link", c.icons.Warn))
	}
	if st.Constrained {
		lines = append(lines, fmt.Sprintf("%s Constrained (data saver)", c.icons.Warn))
	}
	if st.Reachable && !st.Metered() {
		lines = append(lines, "Unmetered")
	}

	return c.Title() + "\n" + strings.Join(lines, "\n")
}

// CachePanel lists cached package versions and the apply verdict.
type CachePanel struct {
	BaseComponent
	snap  Snapshot
	icons Icons
}

func NewCachePanel(noEmoji bool) *CachePanel {
	return &CachePanel{icons: NewIcons(noEmoji)}
}

func (c *CachePanel) ID() string    { return "cache" }
func (c *CachePanel) Title() string { return "Cache" }

func (c *CachePanel) Update(msg tea.Msg, snap Snapshot) (Component, tea.Cmd) {
	c.snap = snap
	return c, nil
}

func (c *CachePanel) View(w, h int) string {
	content := c.renderContent(h)
	if c.CheckCacheWithSize(content, w, h) {
		return c.GetCached()
	}
	rendered := renderPanel(content, w)
	c.UpdateCache(rendered)
	return rendered
}

func (c *CachePanel) renderContent(h int) string {
	var lines []string

	applyIcon := c.icons.Err
	verdict := "Apply window closed"
	if c.snap.CanApply {
		applyIcon = c.icons.OK
		verdict = "Ready to apply"
	}
	lines = append(lines, fmt.Sprintf("%s %s", applyIcon, verdict))

	if c.snap.CacheErr != nil {
		lines = append(lines, fmt.Sprintf("%s cache: %v", c.icons.Warn, c.snap.CacheErr))
	} else {
		lines = append(lines, fmt.Sprintf("%d packages, %s",
			len(c.snap.Packages), ui.FormatBytes(c.snap.TotalBytes)))

		// Leave room for the verdict, summary, title, and border rows.
		maxRows := h - 6
		if maxRows < 1 {
			maxRows = 1
		}
		for i, p := range c.snap.Packages {
			if i >= maxRows {
				lines = append(lines, fmt.Sprintf("… %d more", len(c.snap.Packages)-maxRows))
				break
			}
			lines = append(lines, fmt.Sprintf("  %s  %s", p.Version, ui.FormatBytes(p.Size)))
		}
	}

	return c.Title() + "\n" + strings.Join(lines, "\n")
}
