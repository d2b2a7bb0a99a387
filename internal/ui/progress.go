package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// ProgressBar renders a terminal progress bar with transfer statistics.
type ProgressBar struct {
	out        io.Writer
	total      int64
	current    int64
	startTime  time.Time
	lastUpdate time.Time
	isTTY      bool
	lastPct    float64 // for non-TTY threshold updates
	colors     *ColorConfig
	indent     string
}

// NewProgressBar creates a new progress bar for tracking transfer progress.
// If total is <= 0, the progress bar will show bytes received without percentage.
func NewProgressBar(out io.Writer, total int64) *ProgressBar {
	if out == nil {
		out = os.Stdout
	}

	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &ProgressBar{
		out:        out,
		total:      total,
		current:    0,
		startTime:  time.Now(),
		lastUpdate: time.Time{},
		isTTY:      isTTY,
		lastPct:    -1,
		colors:     NewColorConfig(),
		indent:     "  ",
	}
}

// SetIndent sets the indentation prefix for the progress bar output.
func (p *ProgressBar) SetIndent(indent string) {
	p.indent = indent
}

// Update updates the progress bar with the current byte count.
func (p *ProgressBar) Update(current int64) {
	p.current = current

	// Rate limit updates to avoid flicker (max 10/sec for TTY)
	now := time.Now()
	if p.isTTY && now.Sub(p.lastUpdate) < 100*time.Millisecond {
		return
	}
	p.lastUpdate = now

	if p.total <= 0 {
		// Unknown total: just show bytes received
		fmt.Fprintf(p.out, "\r%sDownloading... %s", p.indent, FormatBytes(current))
		return
	}

	pct := float64(current) / float64(p.total) * 100

	if p.isTTY {
		p.renderTTY(pct)
	} else {
		// Non-TTY: print at 10% intervals
		threshold := float64(int(pct/10) * 10)
		if threshold > p.lastPct {
			p.lastPct = threshold
			fmt.Fprintf(p.out, "%sDownloading... %.0f%%\n", p.indent, threshold)
		}
	}
}

// renderTTY renders the progress bar for TTY output.
func (p *ProgressBar) renderTTY(pct float64) {
	elapsed := time.Since(p.startTime).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(p.current) / elapsed
	}

	eta := ""
	if speed > 0 && p.current < p.total {
		remaining := float64(p.total - p.current)
		eta = formatDuration(remaining / speed)
	} else if p.current >= p.total {
		eta = "0s"
	}

	// Get terminal width, default to 80
	width := 80
	if f, ok := p.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	// Leave room for the stats columns after the bar:
	// "<indent>[████░░░░] 100.0%  999.9 GB/999.9 GB  999.9 MB/s  ETA 99m59s"
	barWidth := width - 56 - len(p.indent)
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}

	// \033[K clears from cursor to end of line so shrinking stats
	// never leave stale characters behind
	fmt.Fprintf(p.out, "\r%s[%s] %5.1f%%   %s/%s   %s   ETA %s\033[K",
		p.indent,
		bar,
		pct,
		FormatBytes(p.current),
		FormatBytes(p.total),
		FormatSpeed(speed),
		eta,
	)
}

// formatDuration formats seconds into a human-readable duration string.
func formatDuration(seconds float64) string {
	if seconds < 0 {
		return "--"
	}
	if seconds < 60 {
		return fmt.Sprintf("%.0fs", seconds)
	}
	if seconds < 3600 {
		mins := int(seconds) / 60
		secs := int(seconds) % 60
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hours := int(seconds) / 3600
	mins := (int(seconds) % 3600) / 60
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// Finish completes the progress bar and moves to the next line.
func (p *ProgressBar) Finish() {
	if p.isTTY {
		if p.total > 0 {
			p.renderTTY(100)
		}
		fmt.Fprintln(p.out)
	} else if p.total > 0 && p.lastPct < 100 {
		// Ensure we print 100% for non-TTY
		fmt.Fprintf(p.out, "%sDownloading... 100%%\n", p.indent)
	}
}
